package main

import (
	"testing"

	"github.com/kailas-cloud/scopeq/internal/catalog"
	"github.com/kailas-cloud/scopeq/internal/config"
	"github.com/kailas-cloud/scopeq/internal/domain/search/page"
)

func TestBuildCatalog_NoOverrides(t *testing.T) {
	reg, err := buildCatalog(config.SearchConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want, _ := catalog.Default().Get(catalog.Reminders)
	got, _ := reg.Get(catalog.Reminders)
	if got.Page != want.Page {
		t.Errorf("declared policy should be kept, got %+v", got.Page)
	}
}

func TestBuildCatalog_ResourceOverride(t *testing.T) {
	reg, err := buildCatalog(config.SearchConfig{
		Resources: map[string]config.ResourceConfig{
			catalog.Tasks: {MaxLimit: 40, Overflow: "reject"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tasks, _ := reg.Get(catalog.Tasks)
	if tasks.Page.MaxLimit() != 40 || tasks.Page.Overflow() != page.Reject {
		t.Errorf("tasks policy = %d/%s", tasks.Page.MaxLimit(), tasks.Page.Overflow())
	}

	reminders, _ := reg.Get(catalog.Reminders)
	declared, _ := catalog.Default().Get(catalog.Reminders)
	if reminders.Page != declared.Page {
		t.Errorf("reminders policy changed: %+v", reminders.Page)
	}
}

func TestBuildCatalog_Errors(t *testing.T) {
	tests := []struct {
		name string
		sc   config.SearchConfig
	}{
		{"unknown resource", config.SearchConfig{Resources: map[string]config.ResourceConfig{"invoices": {MaxLimit: 5}}}},
		{"max below declared default", config.SearchConfig{MaxLimit: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := buildCatalog(tt.sc); err == nil {
				t.Error("expected error")
			}
		})
	}
}
