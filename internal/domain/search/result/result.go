package result

import (
	"bytes"
	"encoding/json"

	"github.com/kailas-cloud/scopeq/internal/domain/resource"
	"github.com/kailas-cloud/scopeq/internal/domain/search/page"
)

// Row is one record as read from storage, keyed by column.
type Row map[string]any

// Summary is the projected, ordered view of one record.
type Summary struct {
	keys   []string
	values map[string]any
}

// Get returns the projected value of field.
func (s Summary) Get(field string) (any, bool) {
	v, ok := s.values[field]
	return v, ok
}

// Keys returns the projected field names in declaration order.
func (s Summary) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Len returns the number of projected fields.
func (s Summary) Len() int { return len(s.keys) }

// MarshalJSON encodes the summary as an object keeping declaration order.
func (s Summary) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range s.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(s.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Response is the search envelope. Data is never nil.
type Response struct {
	Pagination page.Meta `json:"pagination"`
	Data       []Summary `json:"data"`
}

// Empty returns the zero-match response for a window.
func Empty(w page.Window) Response {
	return Response{Pagination: page.NewMeta(w, 0), Data: []Summary{}}
}

// Project maps storage rows onto the declared projection of def.
// Columns outside the projection never reach the summary; null or
// unparseable values are omitted.
func Project(def *resource.Definition, rows []Row, w page.Window, total int) Response {
	data := make([]Summary, 0, len(rows))
	for _, row := range rows {
		data = append(data, projectRow(def, row))
	}
	return Response{Pagination: page.NewMeta(w, total), Data: data}
}

func projectRow(def *resource.Definition, row Row) Summary {
	s := Summary{
		keys:   make([]string, 0, len(def.Projection)),
		values: make(map[string]any, len(def.Projection)),
	}
	for _, f := range def.Projection {
		col, _ := def.Column(f.Column)
		if col.Sensitive {
			continue
		}
		v, ok := normalize(row[f.Column], col.Type)
		if !ok {
			continue
		}
		s.keys = append(s.keys, f.Name)
		s.values[f.Name] = v
	}
	return s
}
