package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"strings"

	"assettracker/pkg/models"
	"assettracker/pkg/schema"
)

const (
	// DataPart holds the JSON-encoded flat payload.
	DataPart = "data"

	// MaxPartSize bounds a single attachment part.
	MaxPartSize = 10 << 20

	photoPartPrefix = "photo_"
)

var ErrPartTooLarge = errors.New("multipart part too large")

// WriteMultipart writes the record as a JSON data part followed by one binary
// part per photo or document carrying inline bytes. It returns the content
// type, boundary included, of the written body.
func WriteMultipart(w io.Writer, record *models.AssetRecord) (string, error) {
	values, err := ToWire(record)
	if err != nil {
		return "", err
	}

	mw := multipart.NewWriter(w)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q`, DataPart))
	header.Set("Content-Type", "application/json")
	part, err := mw.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to create data part: %w", err)
	}
	if err := json.NewEncoder(part).Encode(values); err != nil {
		return "", fmt.Errorf("failed to encode data part: %w", err)
	}

	for i := range record.Photos {
		if err := writeAttachment(mw, photoPartPrefix+strconv.Itoa(i), &record.Photos[i].Attachment); err != nil {
			return "", err
		}
	}
	if err := writeAttachment(mw, WirePurchaseDocument, record.Purchase.Document); err != nil {
		return "", err
	}
	if err := writeAttachment(mw, WireWarrantyDocument, record.Warranty.Document); err != nil {
		return "", err
	}

	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart body: %w", err)
	}
	return mw.FormDataContentType(), nil
}

func writeAttachment(mw *multipart.Writer, name string, attachment *models.Attachment) error {
	if attachment == nil || len(attachment.Data) == 0 {
		return nil
	}

	fileName := attachment.FileName
	if fileName == "" {
		fileName = name
	}
	contentType := attachment.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, name, fileName))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to create part %s: %w", name, err)
	}
	if _, err := part.Write(attachment.Data); err != nil {
		return fmt.Errorf("failed to write part %s: %w", name, err)
	}
	return nil
}

// ReadMultipart is the inverse of WriteMultipart.
func ReadMultipart(r io.Reader, boundary string, def *schema.CategoryDefinition) (models.AssetRecord, error) {
	mr := multipart.NewReader(r, boundary)

	var values map[string]string
	binary := map[string]*models.Attachment{}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return models.AssetRecord{}, fmt.Errorf("failed to read multipart body: %w", err)
		}

		name := part.FormName()
		if name == DataPart {
			if err := json.NewDecoder(io.LimitReader(part, MaxPartSize)).Decode(&values); err != nil {
				part.Close()
				return models.AssetRecord{}, fmt.Errorf("failed to decode data part: %w", err)
			}
			part.Close()
			continue
		}

		data, err := io.ReadAll(io.LimitReader(part, MaxPartSize+1))
		part.Close()
		if err != nil {
			return models.AssetRecord{}, fmt.Errorf("failed to read part %s: %w", name, err)
		}
		if len(data) > MaxPartSize {
			return models.AssetRecord{}, fmt.Errorf("%w: %s exceeds %d bytes", ErrPartTooLarge, name, MaxPartSize)
		}
		binary[name] = &models.Attachment{
			FileName:    part.FileName(),
			ContentType: part.Header.Get("Content-Type"),
			Data:        data,
		}
	}

	if values == nil {
		return models.AssetRecord{}, fmt.Errorf("multipart body has no %s part", DataPart)
	}

	record, err := FromWire(values, def)
	if err != nil {
		return record, err
	}

	for name, attachment := range binary {
		switch {
		case name == WirePurchaseDocument:
			record.Purchase.Document = mergeAttachment(record.Purchase.Document, attachment)
		case name == WireWarrantyDocument:
			record.Warranty.Document = mergeAttachment(record.Warranty.Document, attachment)
		case strings.HasPrefix(name, photoPartPrefix):
			index, err := strconv.Atoi(strings.TrimPrefix(name, photoPartPrefix))
			if err != nil || index < 0 || index > len(record.Photos)+len(binary) {
				continue
			}
			for len(record.Photos) <= index {
				record.Photos = append(record.Photos, models.Photo{})
			}
			record.Photos[index].Attachment = *mergeAttachment(&record.Photos[index].Attachment, attachment)
		}
	}

	return record, nil
}

// mergeAttachment keeps the metadata sent in the data part and takes the
// bytes from the binary part.
func mergeAttachment(meta, binary *models.Attachment) *models.Attachment {
	if meta == nil {
		return binary
	}
	merged := *meta
	merged.Data = binary.Data
	if merged.FileName == "" {
		merged.FileName = binary.FileName
	}
	if merged.ContentType == "" {
		merged.ContentType = binary.ContentType
	}
	return &merged
}
