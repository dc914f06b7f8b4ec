// Package scopeq provides an embeddable client for scoped, paginated
// searches over a catalog of resources, backed by PostgreSQL, SQLite,
// Redis (RediSearch) or Elasticsearch.
//
// Every search runs on behalf of a Principal. The resource's scope rules
// inject tenant or owner conditions from the principal, declared filters
// turn request parameters into conditions, and the result is a page of
// summaries restricted to the resource's projection.
//
//	client, _ := scopeq.New(ctx, scopeq.WithSQLite("tasks.db"), scopeq.WithAutoMigrate())
//	defer client.Close()
//
//	p, _ := scopeq.NewPrincipal(userID, scopeq.RoleUser, "", tenantID)
//	resp, err := client.Search(ctx, p, "tasks", map[string]any{
//	    "status": "todo",
//	    "sort":   "createdAt",
//	    "limit":  50,
//	})
//	if errors.Is(err, scopeq.ErrScope) {
//	    // principal has no tenant
//	}
//
// Page sizes follow each resource's policy and can be overridden:
//
//	policy, _ := scopeq.NewPagePolicy(10, 25, scopeq.OverflowReject)
//	client, _ := scopeq.New(ctx, scopeq.WithPostgres(dsn), scopeq.WithPagePolicy("tasks", policy))
//
// # Typed API
//
//	type Task struct {
//	    ID       string    `scopeq:"id"`
//	    Title    string    `scopeq:"title"`
//	    Priority int       `scopeq:"priority"`
//	    Created  time.Time `scopeq:"createdAt"`
//	}
//
//	tasks, _ := scopeq.NewTypedResource[Task](client, "tasks")
//	page, _ := tasks.Search(p).Where("status", "todo").SortByDesc("priority").Limit(10).Do(ctx)
package scopeq
