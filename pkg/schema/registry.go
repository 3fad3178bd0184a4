package schema

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	custom_error "assettracker/pkg/errors"
)

// Registry holds the category definitions currently known to the process.
type Registry struct {
	mu         sync.RWMutex
	categories map[string]CategoryDefinition
}

func NewRegistry() *Registry {
	return &Registry{categories: make(map[string]CategoryDefinition)}
}

// Resolve finds a category by exact name, then by derived key ignoring case.
func (r *Registry) Resolve(name string) (*CategoryDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if def, ok := r.categories[name]; ok {
		return &def, nil
	}

	key := DeriveKey(name)
	for _, def := range r.categories {
		if strings.EqualFold(def.Key, key) {
			def := def
			return &def, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", custom_error.ErrCategoryNotFound, name)
}

// Register validates and stores a definition, replacing any previous one
// with the same name.
func (r *Registry) Register(def CategoryDefinition) error {
	def = Normalize(def)
	if err := Validate(def); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for name, existing := range r.categories {
		if name != def.Name && strings.EqualFold(existing.Key, def.Key) {
			return custom_error.NewValidationError(custom_error.FieldError{
				Field:   "name",
				Message: fmt.Sprintf("key %q is already used by category %q", def.Key, name),
			})
		}
	}
	r.categories[def.Name] = def

	return nil
}

// Replace swaps the whole registry content. Invalid definitions, and any
// definition whose key clashes with an earlier one, are skipped and reported
// in the returned error; the rest are still loaded.
func (r *Registry) Replace(defs []CategoryDefinition) error {
	loaded := make(map[string]CategoryDefinition, len(defs))
	keys := make(map[string]string, len(defs))
	var invalid []string

	for _, def := range defs {
		def = Normalize(def)
		if err := Validate(def); err != nil {
			invalid = append(invalid, fmt.Sprintf("%s (%v)", def.Name, err))
			continue
		}
		folded := strings.ToLower(def.Key)
		if owner, ok := keys[folded]; ok {
			invalid = append(invalid, fmt.Sprintf("%s (key %q is already used by category %q)", def.Name, def.Key, owner))
			continue
		}
		keys[folded] = def.Name
		loaded[def.Name] = def
	}

	r.mu.Lock()
	r.categories = loaded
	r.mu.Unlock()

	if len(invalid) > 0 {
		return fmt.Errorf("skipped invalid categories: %s", strings.Join(invalid, ", "))
	}
	return nil
}

func (r *Registry) List() []CategoryDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]CategoryDefinition, 0, len(r.categories))
	for _, def := range r.categories {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })

	return defs
}
