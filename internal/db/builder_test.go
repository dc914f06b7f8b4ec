package db

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/scopeq/internal/domain"
	"github.com/kailas-cloud/scopeq/internal/domain/resource"
)

func TestIndexBuilder_Columns(t *testing.T) {
	idx, err := NewIndex("scopeq:tasks:idx", "scopeq:tasks:").
		Column("id", resource.UUID).
		Column("status", resource.String).
		Column("priority", resource.Int).
		Column("done", resource.Bool).
		Column("created_at", resource.Time).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []IndexFieldType{IndexFieldTag, IndexFieldTag, IndexFieldNumeric, IndexFieldNumeric, IndexFieldNumeric}
	if len(idx.Fields) != len(want) {
		t.Fatalf("fields count = %d, want %d", len(idx.Fields), len(want))
	}
	for i, f := range idx.Fields {
		if f.Type != want[i] {
			t.Errorf("field %s type = %s, want %s", f.Name, f.Type, want[i])
		}
		if !f.Sortable || !f.IndexMissing {
			t.Errorf("field %s must be sortable and index missing values", f.Name)
		}
	}
	if !idx.Fields[1].CaseSensitive {
		t.Error("tag fields must be case sensitive")
	}
}

func TestIndexBuilder_BuildCopiesFields(t *testing.T) {
	b := NewIndex("x", "x:").Tag("a")
	first, err := b.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b.Numeric("b")
	if len(first.Fields) != 1 {
		t.Errorf("built definition changed after further building: %v", first.Fields)
	}
}

func TestIndexBuilder_Invalid(t *testing.T) {
	tests := []struct {
		name string
		b    *IndexBuilder
	}{
		{"no fields", NewIndex("x", "x:")},
		{"bad name", NewIndex("bad name", "x:").Tag("a")},
		{"empty name", NewIndex("", "x:").Tag("a")},
		{"no prefix", NewIndex("x", "").Tag("a")},
		{"bad field", NewIndex("x", "x:").Tag("a b")},
		{"duplicate", NewIndex("x", "x:").Tag("a").Numeric("a")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.b.Build()
			if !errors.Is(err, domain.ErrInvalidSchema) {
				t.Fatalf("expected ErrInvalidSchema, got %v", err)
			}
		})
	}
}

func TestIndexDefinition_String(t *testing.T) {
	idx, err := NewIndex("scopeq:tasks:idx", "scopeq:tasks:").
		Tag("status").
		Numeric("created_at").
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "FT.CREATE scopeq:tasks:idx ON HASH PREFIX scopeq:tasks: SCHEMA " +
		"status TAG SORTABLE created_at NUMERIC SORTABLE"
	if got := idx.String(); got != want {
		t.Errorf("String() = %q\nwant %q", got, want)
	}
}

func TestIndexFieldType_String(t *testing.T) {
	if IndexFieldTag.String() != "TAG" || IndexFieldNumeric.String() != "NUMERIC" {
		t.Error("unexpected field type names")
	}
	if IndexFieldType(7).String() != "IndexFieldType(7)" {
		t.Errorf("unknown type = %s", IndexFieldType(7))
	}
}

func TestIsValidIdentifier(t *testing.T) {
	for _, s := range []string{"a", "scopeq:tasks:idx", "A-b_1"} {
		if !IsValidIdentifier(s) {
			t.Errorf("IsValidIdentifier(%q) = false", s)
		}
	}
	for _, s := range []string{"", "a b", "a;b", "a*"} {
		if IsValidIdentifier(s) {
			t.Errorf("IsValidIdentifier(%q) = true", s)
		}
	}
}

func TestError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &Error{Op: OpFind, Err: inner}
	if !errors.Is(err, inner) {
		t.Error("Unwrap broken")
	}
	if err.Error() != "FIND: boom" {
		t.Errorf("Error() = %q", err.Error())
	}
}
