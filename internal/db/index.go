package db

import (
	"fmt"

	"github.com/kailas-cloud/scopeq/internal/domain"
	"github.com/kailas-cloud/scopeq/internal/domain/resource"
)

// IndexFieldType is the FT field type a resource column is indexed as.
type IndexFieldType int

const (
	// IndexFieldNumeric indexes ints, floats, bools and epoch-millisecond times.
	IndexFieldNumeric IndexFieldType = iota
	// IndexFieldTag indexes strings and uuids for exact and wildcard matches.
	IndexFieldTag
)

func (t IndexFieldType) String() string {
	switch t {
	case IndexFieldNumeric:
		return "NUMERIC"
	case IndexFieldTag:
		return "TAG"
	default:
		return fmt.Sprintf("IndexFieldType(%d)", int(t))
	}
}

// IndexFieldTypeFor maps a declared column type to its FT field type.
func IndexFieldTypeFor(t resource.ValueType) IndexFieldType {
	switch t {
	case resource.String, resource.UUID, "":
		return IndexFieldTag
	default:
		return IndexFieldNumeric
	}
}

// IndexField is one column of a resource's FT index.
type IndexField struct {
	Name string
	Type IndexFieldType

	Sortable      bool
	IndexMissing  bool
	CaseSensitive bool // TAG only
}

// IndexDefinition is the FT index one resource source is searched through.
// Records live in hashes under Prefix.
type IndexDefinition struct {
	Name   string
	Prefix string
	Fields []IndexField
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if !IsValidIdentifier(idx.Name) {
		return fmt.Errorf("%w: invalid index name %q", domain.ErrInvalidSchema, idx.Name)
	}
	if idx.Prefix == "" {
		return fmt.Errorf("%w: index %s has no key prefix", domain.ErrInvalidSchema, idx.Name)
	}
	if len(idx.Fields) == 0 {
		return fmt.Errorf("%w: index %s has no fields", domain.ErrInvalidSchema, idx.Name)
	}

	seen := make(map[string]bool, len(idx.Fields))
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if !IsValidIdentifier(f.Name) {
			return fmt.Errorf("%w: index %s field %d has invalid name %q", domain.ErrInvalidSchema, idx.Name, i, f.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: index %s repeats field %s", domain.ErrInvalidSchema, idx.Name, f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == ':' || r == '-'
		if !isAlpha && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
