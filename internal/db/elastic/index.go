package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/kailas-cloud/scopeq/internal/db"
	"github.com/kailas-cloud/scopeq/internal/domain/resource"
)

// dateFormat accepts both ISO strings and epoch milliseconds.
const dateFormat = "strict_date_optional_time||epoch_millis"

// IndexName returns the index records of source are stored in.
func IndexName(source string) string {
	return "scopeq-" + source
}

// MappingFor derives the index mapping of def. Strings and uuids are
// keyword fields so term and wildcard matches are exact and case-sensitive.
func MappingFor(def *resource.Definition) map[string]any {
	props := make(map[string]any, len(def.Columns))
	for _, c := range def.Columns {
		props[c.Name] = fieldMapping(c.Type)
	}
	return map[string]any{
		"mappings": map[string]any{
			"dynamic":    false,
			"properties": props,
		},
	}
}

func fieldMapping(t resource.ValueType) map[string]any {
	switch t {
	case resource.Int:
		return map[string]any{"type": "long"}
	case resource.Float:
		return map[string]any{"type": "double"}
	case resource.Bool:
		return map[string]any{"type": "boolean"}
	case resource.Time:
		return map[string]any{"type": "date", "format": dateFormat}
	default:
		return map[string]any{"type": "keyword"}
	}
}

// Migrate creates the index of every configured resource that does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	for i := range s.resources {
		if err := s.EnsureIndex(ctx, &s.resources[i]); err != nil {
			return err
		}
	}
	return nil
}

// EnsureIndex creates the index of def unless it already exists.
func (s *Store) EnsureIndex(ctx context.Context, def *resource.Definition) error {
	name := IndexName(def.Source)

	existsRes, err := esapi.IndicesExistsRequest{Index: []string{name}}.Do(ctx, s.client)
	if err != nil {
		return &db.Error{Op: db.OpESExists, Err: err}
	}
	defer existsRes.Body.Close()

	switch {
	case existsRes.StatusCode == http.StatusOK:
		return nil
	case existsRes.StatusCode != http.StatusNotFound:
		return responseError(db.OpESExists, existsRes)
	}

	body, err := json.Marshal(MappingFor(def))
	if err != nil {
		return fmt.Errorf("encode mapping: %w", err)
	}

	createRes, err := esapi.IndicesCreateRequest{Index: name, Body: bytes.NewReader(body)}.Do(ctx, s.client)
	if err != nil {
		return &db.Error{Op: db.OpESCreate, Err: err}
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return responseError(db.OpESCreate, createRes)
	}
	return nil
}
