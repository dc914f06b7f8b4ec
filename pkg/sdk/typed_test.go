package scopeq

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"
)

type taskItem struct {
	ID        string     `scopeq:"id"`
	Title     string     `scopeq:"title"`
	Status    string     `scopeq:"status"`
	Priority  int        `scopeq:"priority"`
	CreatedAt time.Time  `scopeq:"createdAt"`
	DueAt     *time.Time `scopeq:"dueAt"`
	Note      string
}

func TestParseSchema(t *testing.T) {
	meta, err := parseSchema[taskItem]()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(meta.fields) != 6 {
		t.Errorf("expected 6 mapped fields, got %d", len(meta.fields))
	}
}

func TestParseSchema_Errors(t *testing.T) {
	type noTags struct{ Title string }
	type duplicate struct {
		A string `scopeq:"title"`
		B string `scopeq:"title"`
	}
	type unsupported struct {
		Tags []string `scopeq:"tags"`
	}

	tests := []struct {
		name  string
		parse func() error
		want  string
	}{
		{"not a struct", func() error { _, err := parseSchema[string](); return err }, "not a struct"},
		{"no tags", func() error { _, err := parseSchema[noTags](); return err }, "no field"},
		{"duplicate", func() error { _, err := parseSchema[duplicate](); return err }, "both map"},
		{"unsupported", func() error { _, err := parseSchema[unsupported](); return err }, "unsupported type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.parse()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestNewTypedResource_Validation(t *testing.T) {
	c := newTestClient(t, &mockStore{})

	if _, err := NewTypedResource[taskItem](c, "invoices"); err == nil {
		t.Error("expected error for unknown resource")
	}

	type leaky struct {
		TenantID string `scopeq:"tenantId"`
	}
	if _, err := NewTypedResource[leaky](c, "tasks"); err == nil {
		t.Error("expected error for field outside the projection")
	}
}

func TestSearchBuilder_Do(t *testing.T) {
	store := &mockStore{rows: taskRows(), total: 1}
	c := newTestClient(t, store)

	tasks, err := NewTypedResource[taskItem](c, "tasks")
	if err != nil {
		t.Fatalf("NewTypedResource: %v", err)
	}

	page, err := tasks.Search(member(t)).
		Where("status", "todo").
		In("priority", 1, 2).
		Between("createdAt_from", "createdAt_to", "2024-01-01", nil).
		SortByDesc("priority").
		Page(1).
		Limit(10).
		Do(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(page.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(page.Items))
	}
	got := page.Items[0]
	if got.ID != testTaskID || got.Title != "Write docs" || got.Priority != 2 {
		t.Errorf("unexpected item: %+v", got)
	}
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if !got.CreatedAt.Equal(want) {
		t.Errorf("createdAt = %v, want %v", got.CreatedAt, want)
	}
	if got.DueAt != nil {
		t.Errorf("absent dueAt must stay nil, got %v", got.DueAt)
	}
	if page.Pagination.Limit != 10 || page.Pagination.Records != 1 {
		t.Errorf("pagination = %+v", page.Pagination)
	}

	q := store.queries[0]
	if q.Sort().Column() != "priority" || !q.Sort().Descending() {
		t.Errorf("sort = %s desc=%v", q.Sort().Column(), q.Sort().Descending())
	}
	if n := len(q.Conditions()); n != 4 {
		t.Errorf("expected scope plus 3 conditions, got %d: %v", n, q.Conditions())
	}
}

func TestSearchBuilder_PropagatesErrors(t *testing.T) {
	c := newTestClient(t, &mockStore{})
	tasks, err := NewTypedResource[taskItem](c, "tasks")
	if err != nil {
		t.Fatalf("NewTypedResource: %v", err)
	}

	_, err = tasks.Search(member(t)).Where("status", "archived").Do(context.Background())
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestAssign_Overflow(t *testing.T) {
	var n int8
	if err := assign(reflect.ValueOf(&n).Elem(), int64(300)); err == nil {
		t.Error("expected overflow error")
	}
	var u uint
	if err := assign(reflect.ValueOf(&u).Elem(), int64(-1)); err == nil {
		t.Error("expected error for negative unsigned value")
	}
	var f float64
	if err := assign(reflect.ValueOf(&f).Elem(), int64(3)); err != nil || f != 3 {
		t.Errorf("float assign = %v, %v", f, err)
	}
}
