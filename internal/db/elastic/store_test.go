package elastic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/kailas-cloud/scopeq/internal/db"
	"github.com/kailas-cloud/scopeq/internal/db/dbtest"
	"github.com/kailas-cloud/scopeq/internal/domain/resource"
)

type recorded struct {
	method string
	path   string
	body   string
}

// fakeTransport answers every request with the handler's status and body.
type fakeTransport struct {
	handler  func(r *http.Request) (int, string)
	requests []recorded
}

func (f *fakeTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	var body string
	if r.Body != nil {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		body = string(b)
	}
	f.requests = append(f.requests, recorded{method: r.Method, path: r.URL.Path, body: body})

	status, resp := f.handler(r)
	h := http.Header{}
	h.Set("X-Elastic-Product", "Elasticsearch")
	h.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Header:     h,
		Body:       io.NopCloser(strings.NewReader(resp)),
		Request:    r,
	}, nil
}

func newTestStore(t *testing.T, handler func(r *http.Request) (int, string)) (*Store, *fakeTransport) {
	t.Helper()
	ft := &fakeTransport{handler: handler}
	s, err := NewStore(Config{
		Addresses: []string{"http://es.local:9200"},
		Transport: ft,
		Resources: []resource.Definition{*dbtest.Tasks()},
	})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s, ft
}

func assertJSON(t *testing.T, got, want string) {
	t.Helper()
	var g, w any
	if err := json.Unmarshal([]byte(got), &g); err != nil {
		t.Fatalf("invalid json %q: %v", got, err)
	}
	if err := json.Unmarshal([]byte(want), &w); err != nil {
		t.Fatalf("invalid expected json: %v", err)
	}
	if !reflect.DeepEqual(g, w) {
		t.Errorf("json mismatch:\n got %s\nwant %s", got, want)
	}
}

func fullParams() map[string]any {
	return map[string]any{
		"tenantId":       "6f9619ff-8b86-d011-b42d-00cf4fc964ff",
		"title":          "Q3",
		"status":         "done",
		"priority":       "1,2",
		"assigneeId":     nil,
		"createdAt_from": "2024-01-02",
		"search":         "x*y",
	}
}

const fullQuery = `{"bool":{"filter":[
	{"term":{"tenant_id":"tenant-1"}},
	{"wildcard":{"title":{"value":"*Q3*"}}},
	{"term":{"status":"done"}},
	{"terms":{"priority":[1,2]}},
	{"bool":{"must_not":[{"exists":{"field":"assignee_id"}}]}},
	{"range":{"created_at":{"gte":1704153600000}}},
	{"bool":{"minimum_should_match":1,"should":[
		{"wildcard":{"title":{"value":"*x\\*y*"}}},
		{"wildcard":{"description":{"value":"*x\\*y*"}}}
	]}}
]}}`

func TestFind(t *testing.T) {
	s, ft := newTestStore(t, func(*http.Request) (int, string) {
		return http.StatusOK, `{"took":3,"hits":{"total":{"value":12,"relation":"eq"},"hits":[
			{"_id":"a","_source":{"id":"a","title":"Q3 plan","status":"done","created_at":1714557600000}},
			{"_id":"b","_source":{"id":"b","title":"Q3 review"}}
		]}}`
	})
	d := dbtest.Descriptor(t, dbtest.Tasks(), dbtest.Member(t), fullParams(), "", "", 2, 10)

	rows, err := s.Find(context.Background(), d)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}

	if len(ft.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ft.requests))
	}
	req := ft.requests[0]
	if req.method != http.MethodPost || req.path != "/scopeq-tasks/_search" {
		t.Errorf("request = %s %s", req.method, req.path)
	}
	assertJSON(t, req.body, `{
		"query": `+fullQuery+`,
		"from": 10,
		"size": 10,
		"sort": [
			{"created_at": {"order": "desc", "missing": "_last"}},
			{"id": {"order": "asc"}}
		],
		"_source": ["id", "title", "status", "created_at"]
	}`)

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["created_at"] != json.Number("1714557600000") {
		t.Errorf("created_at = %#v, want json.Number", rows[0]["created_at"])
	}
	if _, ok := rows[1]["status"]; ok {
		t.Errorf("absent field must stay absent: %v", rows[1])
	}
}

func TestFind_MatchAllSortedByPrimaryKey(t *testing.T) {
	s, ft := newTestStore(t, func(*http.Request) (int, string) {
		return http.StatusOK, `{"hits":{"hits":[]}}`
	})
	d := dbtest.Descriptor(t, dbtest.Tasks(), dbtest.Admin(t), nil, "id", "asc", 1, 20)

	rows, err := s.Find(context.Background(), d)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Errorf("expected empty non-nil rows, got %#v", rows)
	}
	assertJSON(t, ft.requests[0].body, `{
		"query": {"match_all": {}},
		"from": 0,
		"size": 20,
		"sort": [{"id": {"order": "asc", "missing": "_last"}}],
		"_source": ["id", "title", "status", "created_at"]
	}`)
}

func TestFind_ErrorResponse(t *testing.T) {
	s, _ := newTestStore(t, func(*http.Request) (int, string) {
		return http.StatusBadRequest, `{"error":{"type":"search_phase_execution_exception"}}`
	})
	d := dbtest.Descriptor(t, dbtest.Tasks(), dbtest.Member(t), nil, "", "", 1, 10)

	_, err := s.Find(context.Background(), d)
	var dbErr *db.Error
	if !errors.As(err, &dbErr) {
		t.Fatalf("expected *db.Error, got %T: %v", err, err)
	}
	if dbErr.Op != db.OpESSearch || !strings.Contains(err.Error(), "search_phase_execution_exception") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCount(t *testing.T) {
	s, ft := newTestStore(t, func(*http.Request) (int, string) {
		return http.StatusOK, `{"count":42,"_shards":{"total":1}}`
	})
	d := dbtest.Descriptor(t, dbtest.Tasks(), dbtest.Member(t), fullParams(), "", "", 3, 10)

	n, err := s.Count(context.Background(), d)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 42 {
		t.Errorf("count = %d, want 42", n)
	}
	req := ft.requests[0]
	if req.path != "/scopeq-tasks/_count" {
		t.Errorf("path = %s", req.path)
	}
	assertJSON(t, req.body, `{"query": `+fullQuery+`}`)
}

func TestCount_ErrorResponse(t *testing.T) {
	s, _ := newTestStore(t, func(*http.Request) (int, string) {
		return http.StatusNotFound, `{"error":{"type":"index_not_found_exception"}}`
	})
	d := dbtest.Descriptor(t, dbtest.Tasks(), dbtest.Member(t), nil, "", "", 1, 10)

	_, err := s.Count(context.Background(), d)
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpESCount {
		t.Fatalf("expected _count db.Error, got %v", err)
	}
}

func TestMigrate_CreatesMissingIndex(t *testing.T) {
	s, ft := newTestStore(t, func(r *http.Request) (int, string) {
		if r.Method == http.MethodHead {
			return http.StatusNotFound, ""
		}
		return http.StatusOK, `{"acknowledged":true}`
	})

	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if len(ft.requests) != 2 {
		t.Fatalf("expected HEAD + PUT, got %+v", ft.requests)
	}
	create := ft.requests[1]
	if create.method != http.MethodPut || create.path != "/scopeq-tasks" {
		t.Errorf("create request = %s %s", create.method, create.path)
	}
	assertJSON(t, create.body, `{"mappings": {"dynamic": false, "properties": {
		"id": {"type": "keyword"},
		"tenant_id": {"type": "keyword"},
		"title": {"type": "keyword"},
		"description": {"type": "keyword"},
		"status": {"type": "keyword"},
		"priority": {"type": "long"},
		"assignee_id": {"type": "keyword"},
		"created_at": {"type": "date", "format": "strict_date_optional_time||epoch_millis"}
	}}}`)
}

func TestMigrate_ExistingIndexUntouched(t *testing.T) {
	s, ft := newTestStore(t, func(*http.Request) (int, string) {
		return http.StatusOK, ""
	})

	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if len(ft.requests) != 1 || ft.requests[0].method != http.MethodHead {
		t.Errorf("expected a single HEAD, got %+v", ft.requests)
	}
}

func TestPing(t *testing.T) {
	s, _ := newTestStore(t, func(*http.Request) (int, string) {
		return http.StatusOK, `{"version":{"number":"8.18.0"}}`
	})
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestNewStore_RequiresAddresses(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected error")
	}
}
