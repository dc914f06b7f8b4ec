package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/scopeq/internal/audit"
	"github.com/kailas-cloud/scopeq/internal/domain"
	"github.com/kailas-cloud/scopeq/internal/domain/principal"
	"github.com/kailas-cloud/scopeq/internal/domain/resource"
	"github.com/kailas-cloud/scopeq/internal/domain/search/filter"
	"github.com/kailas-cloud/scopeq/internal/domain/search/page"
	"github.com/kailas-cloud/scopeq/internal/domain/search/query"
	"github.com/kailas-cloud/scopeq/internal/domain/search/request"
	"github.com/kailas-cloud/scopeq/internal/domain/search/result"
	"github.com/kailas-cloud/scopeq/internal/domain/search/scope"
	"github.com/kailas-cloud/scopeq/internal/domain/search/sort"
	"github.com/kailas-cloud/scopeq/internal/logger"
)

// auditTimeout bounds one asynchronous audit publication.
const auditTimeout = 10 * time.Second

// Ignored parameter kinds reported to the Observer.
const (
	IgnoredUndeclared     = "undeclared"
	IgnoredScopeCollision = "scope_collision"
)

// Service runs scoped, paginated searches over catalog resources.
type Service struct {
	catalog  Catalog
	store    Store
	audit    Publisher
	observer Observer

	mu       sync.Mutex
	drained  bool
	inflight sync.WaitGroup
}

// New creates a search service. audit and observer can be nil.
func New(catalog Catalog, store Store, audit Publisher, observer Observer) *Service {
	return &Service{catalog: catalog, store: store, audit: audit, observer: observer}
}

// outcome carries what a finished search reports to logs, metrics and audit.
type outcome struct {
	def     *resource.Definition
	window  page.Window
	records int
	ignored []string
	dropped []string
	query   *query.Descriptor
}

// Search runs req against the named resource on behalf of p.
// Owner mismatches, empty matches and pages past the end are successful, empty responses.
func (s *Service) Search(
	ctx context.Context, p principal.Principal, resourceName string, req request.Request,
) (result.Response, error) {
	start := time.Now()

	var out outcome
	resp, err := s.search(ctx, p, resourceName, req, &out)

	oc := OutcomeOf(err)
	if err == nil && len(resp.Data) == 0 {
		oc = OutcomeEmpty
	}
	s.report(ctx, p, resourceName, req, &out, oc, time.Since(start), err)

	if err != nil {
		return result.Response{}, err
	}
	return resp, nil
}

func (s *Service) search(
	ctx context.Context, p principal.Principal, resourceName string, req request.Request, out *outcome,
) (result.Response, error) {
	if p.IsZero() {
		return result.Response{}, &StageError{Stage: StageAuthorize, Err: domain.ErrUnauthenticated}
	}

	def, err := s.catalog.Get(resourceName)
	if err != nil {
		return result.Response{}, &StageError{Stage: StageLookup, Err: err}
	}
	out.def = def
	if !def.Allows(p.Role()) {
		return result.Response{}, &StageError{
			Stage: StageAuthorize,
			Err:   fmt.Errorf("%w: role %q may not search %s", domain.ErrAuthorization, p.Role(), def.Name),
		}
	}

	sc, err := scope.Resolve(p, def)
	if err != nil {
		return result.Response{}, &StageError{Stage: StageScope, Err: err}
	}

	params := req.Filters()
	out.ignored = filter.Ignored(def, params)
	applied, shadowed := scope.Shadowed(def, sc, params)
	out.dropped = shadowed
	expr, err := filter.Build(def, applied)
	if err != nil {
		return result.Response{}, &StageError{Stage: StageFilter, Err: err}
	}

	win, err := page.Normalize(def.Page, req.Page(), req.Limit())
	if err != nil {
		return result.Response{}, &StageError{Stage: StagePaginate, Err: err}
	}
	out.window = win

	if scope.OwnerMismatch(p, def, params) || scope.OwnerUnmatchable(p, def) {
		return result.Empty(win), nil
	}

	srt := sort.Resolve(def.Sort, req.Sort(), req.Direction())
	q, dropped, err := query.Build(def, p.Role(), sc, expr, srt, win)
	if err != nil {
		return result.Response{}, &StageError{Stage: StageQuery, Err: err}
	}
	out.query = q
	for _, c := range dropped {
		out.dropped = append(out.dropped, c.Param())
	}

	rows, total, err := s.execute(ctx, q)
	if err != nil {
		return result.Response{}, &StageError{Stage: StageExecute, Err: fmt.Errorf("%w: %w", domain.ErrStorage, err)}
	}
	out.records = total

	return result.Project(def, rows, win, total), nil
}

// execute runs the count and the page fetch of q concurrently.
// A failed count cancels the fetch. A failed fetch of a page past the end
// yields no rows, since backends may reject offsets beyond their result window.
func (s *Service) execute(ctx context.Context, q *query.Descriptor) ([]result.Row, int, error) {
	var (
		rows    []result.Row
		total   int
		findErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.Count(gctx, q)
		if err != nil {
			return fmt.Errorf("count: %w", err)
		}
		total = n
		return nil
	})
	g.Go(func() error {
		rows, findErr = s.store.Find(gctx, q)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	if findErr != nil {
		if q.Skip() > 0 && q.Skip() >= total {
			return nil, total, nil
		}
		return nil, 0, fmt.Errorf("find: %w", findErr)
	}
	return rows, total, nil
}

func (s *Service) report(
	ctx context.Context,
	p principal.Principal,
	resourceName string,
	req request.Request,
	out *outcome,
	oc Outcome,
	elapsed time.Duration,
	err error,
) {
	fields := []zap.Field{
		zap.String("resource", resourceName),
		zap.String("outcome", string(oc)),
		zap.Int("page", out.window.Page()),
		zap.Int("limit", out.window.Limit()),
		zap.Int("records", out.records),
		zap.Duration("elapsed", elapsed),
	}
	if len(out.ignored) > 0 {
		fields = append(fields, zap.Strings("ignored_params", out.ignored))
	}
	if len(out.dropped) > 0 {
		fields = append(fields, zap.Strings("dropped_params", out.dropped))
	}
	if out.query != nil {
		fields = append(fields, zap.Stringer("query", out.query))
	}

	log := logger.FromContext(ctx)
	if err != nil {
		var se *StageError
		if errors.As(err, &se) {
			fields = append(fields, zap.String("stage", string(se.Stage)))
		}
		log.Info("search failed", append(fields, zap.Error(err))...)
	} else {
		log.Info("search", fields...)
	}

	if s.observer != nil {
		s.observer.ObserveSearch(resourceName, string(oc), elapsed)
		s.observer.ObserveIgnored(resourceName, IgnoredUndeclared, len(out.ignored))
		s.observer.ObserveIgnored(resourceName, IgnoredScopeCollision, len(out.dropped))
	}

	if s.audit != nil && !p.IsZero() {
		ev := audit.NewEvent()
		ev.PrincipalID = p.ID()
		ev.Role = string(p.Role())
		ev.TenantID = p.TenantID()
		ev.OrganizationID = p.OrganizationID()
		ev.Resource = resourceName
		ev.Page = out.window.Page()
		ev.Limit = out.window.Limit()
		ev.Records = out.records
		ev.Outcome = string(oc)
		s.publish(ctx, ev)
	}
}

// publish hands ev to the audit publisher in the background. Failures are logged only.
// Events published after Drain are dropped.
func (s *Service) publish(ctx context.Context, ev audit.Event) {
	log := logger.FromContext(ctx)

	s.mu.Lock()
	if s.drained {
		s.mu.Unlock()
		log.Warn("audit event dropped after drain", zap.String("event_id", ev.ID))
		return
	}
	s.inflight.Add(1)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	go func() {
		defer s.inflight.Done()
		defer cancel()
		if err := s.audit.Publish(ctx, ev); err != nil {
			log.Warn("audit publish failed", zap.String("event_id", ev.ID), zap.Error(err))
		}
	}()
}

// Drain stops audit publication and waits for in-flight events.
func (s *Service) Drain() {
	s.mu.Lock()
	s.drained = true
	s.mu.Unlock()
	s.inflight.Wait()
}
