package scopeq

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kailas-cloud/scopeq/internal/db/sqlstore"
)

func TestClient_Search_Postgres(t *testing.T) {
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer conn.Close()
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery(`^SELECT COUNT\(\*\) FROM "tasks" WHERE "tenant_id" = \$1 AND "status" = \$2$`).
		WithArgs(testTenant, "todo").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(`^SELECT .+ FROM "tasks" WHERE "tenant_id" = \$1 AND "status" = \$2 ` +
		`ORDER BY "title" ASC NULLS LAST, "id" ASC LIMIT \$3 OFFSET \$4$`).
		WithArgs(testTenant, "todo", 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "status"}).
			AddRow(testTaskID, "Write docs", "todo"))

	c := newTestClient(t, sqlstore.NewStoreForTest(conn, sqlstore.Postgres))

	resp, err := c.Search(context.Background(), member(t), "tasks", map[string]any{
		"status":        "todo",
		"tenantId":      "ffffffff-ffff-4fff-bfff-ffffffffffff",
		"sort":          "title",
		"sortDirection": "asc",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Pagination.Records != 1 || len(resp.Data) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if id, _ := resp.Data[0].Get("id"); id != testTaskID {
		t.Errorf("id = %v", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sql expectations: %v", err)
	}
}
