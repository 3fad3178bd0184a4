package metadata

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// SequenceWidth is the zero-padded width of the numeric part of an asset code.
const SequenceWidth = 4

// ConflictMarker is appended to a colliding code that has no numeric
// sequence to increment.
const ConflictMarker = "-CONFLICT"

type AssetCode struct {
	company  string
	category string
	sequence int
}

func NewAssetCode(companyPrefix, categoryPrefix string, sequence int) AssetCode {
	return AssetCode{
		company:  companyPrefix,
		category: categoryPrefix,
		sequence: sequence,
	}
}

// Prefix is the part of the code shared by every asset of the same company
// and category, e.g. "ACME-LAP".
func (c AssetCode) Prefix() string {
	return c.company + "-" + c.category
}

// Series is the code with its sequence stripped. A prefix ending in a digit
// gets a "-" before the sequence so the digit run stays unambiguous:
// "ACME-LAP0001" but "ACME-S2-0001".
func (c AssetCode) Series() ParsedCode {
	prefix := compact(c.Prefix())
	if strings.HasSuffix(prefix, "-") {
		return ParsedCode{Prefix: strings.TrimSuffix(prefix, "-"), Separator: "-"}
	}

	series := ParsedCode{Prefix: prefix}
	if last := prefix[len(prefix)-1]; last >= '0' && last <= '9' {
		series.Separator = "-"
	}
	return series
}

func (c AssetCode) String() string {
	return c.Series().WithSequence(c.sequence)
}

// ParsedCode is an asset code split into its prefix and trailing sequence.
// "LPT-0001" parses as {Prefix: "LPT", Separator: "-", Sequence: 1} and
// "ACME-LAP0012" as {Prefix: "ACME-LAP", Separator: "", Sequence: 12}.
type ParsedCode struct {
	Prefix    string
	Separator string
	Sequence  int
}

// ParseCode splits a code on its trailing digit run. It fails for codes that
// do not end in digits.
func ParseCode(code string) (ParsedCode, bool) {
	code = compact(code)

	i := len(code)
	for i > 0 && code[i-1] >= '0' && code[i-1] <= '9' {
		i--
	}
	if i == len(code) {
		return ParsedCode{}, false
	}

	sequence, err := strconv.Atoi(code[i:])
	if err != nil {
		return ParsedCode{}, false
	}

	parsed := ParsedCode{Prefix: code[:i], Sequence: sequence}
	if strings.HasSuffix(parsed.Prefix, "-") {
		parsed.Prefix = strings.TrimSuffix(parsed.Prefix, "-")
		parsed.Separator = "-"
	}

	return parsed, true
}

// SamePrefix compares prefixes including the separator, so "LPT-0001" and
// "LPT0001" belong to different series.
func (p ParsedCode) SamePrefix(other ParsedCode) bool {
	return p.Prefix == other.Prefix && p.Separator == other.Separator
}

func (p ParsedCode) WithSequence(sequence int) string {
	return p.Prefix + p.Separator + padSequence(sequence)
}

func (p ParsedCode) String() string {
	return p.WithSequence(p.Sequence)
}

// NormalizeCode returns the canonical display form used for comparisons:
// upper-case, no whitespace, sequence padded to SequenceWidth digits.
func NormalizeCode(code string) string {
	if parsed, ok := ParseCode(code); ok {
		return parsed.String()
	}
	return compact(code)
}

func padSequence(sequence int) string {
	return fmt.Sprintf("%0*d", SequenceWidth, sequence)
}

func compact(code string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, code)
}
