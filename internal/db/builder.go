package db

import (
	"strings"

	"github.com/kailas-cloud/scopeq/internal/domain/resource"
)

// IndexBuilder assembles the FT index of a resource column by column.
// Every field is sortable and indexes missing values, so any declared
// column can be a sort key or a null filter.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts an index named name over hashes under prefix.
func NewIndex(name, prefix string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name, Prefix: prefix}}
}

// Column adds a field typed after the declared column type.
func (b *IndexBuilder) Column(name string, t resource.ValueType) *IndexBuilder {
	if IndexFieldTypeFor(t) == IndexFieldTag {
		return b.Tag(name)
	}
	return b.Numeric(name)
}

// Numeric adds a sortable NUMERIC field.
func (b *IndexBuilder) Numeric(name string) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{
		Name:         name,
		Type:         IndexFieldNumeric,
		Sortable:     true,
		IndexMissing: true,
	})
	return b
}

// Tag adds a case-sensitive, sortable TAG field.
func (b *IndexBuilder) Tag(name string) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{
		Name:          name,
		Type:          IndexFieldTag,
		Sortable:      true,
		IndexMissing:  true,
		CaseSensitive: true,
	})
	return b
}

// Build validates and returns the index definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	def := b.def
	def.Fields = append([]IndexField(nil), b.def.Fields...)
	return &def, nil
}

// String returns a debug representation resembling the FT.CREATE command.
func (idx *IndexDefinition) String() string {
	parts := []string{"FT.CREATE", idx.Name, "ON", "HASH"}
	if idx.Prefix != "" {
		parts = append(parts, "PREFIX", idx.Prefix)
	}
	parts = append(parts, "SCHEMA")
	for i := range idx.Fields {
		f := &idx.Fields[i]
		parts = append(parts, f.Name, f.Type.String())
		if f.Sortable {
			parts = append(parts, "SORTABLE")
		}
	}
	return strings.Join(parts, " ")
}
