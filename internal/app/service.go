package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"
	"golang.org/x/sync/errgroup"

	"github.com/shrimpsizemoose/undantag/internal/metrics"
	"github.com/shrimpsizemoose/undantag/internal/models"
	"github.com/shrimpsizemoose/undantag/internal/paging"
	"github.com/shrimpsizemoose/undantag/internal/store"
)

var (
	ErrExceptionNotFound = errors.New("exception not found")
	ErrNoEmpCodes        = errors.New("empCodes must contain at least one employee code")
)

type Service struct {
	Config *Config
	Store  store.ExceptionStore
	Auth   *Auth
	Now    func() time.Time
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := NewStore(config.Database.DSN, config.Database.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	auth, err := NewAuth(config)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to init auth: %w", err)
	}

	return &Service{
		Config: config,
		Store:  store,
		Auth:   auth,
		Now:    time.Now,
	}, nil
}

func (s *Service) now() int64 {
	if s.Now == nil {
		return time.Now().Unix()
	}
	return s.Now().Unix()
}

func (s *Service) Authenticate(r *http.Request) (string, error) {
	if s.Auth == nil {
		return "", nil
	}
	return s.Auth.Authenticate(r)
}

func (s *Service) ValidateHeaders(headers map[string][]string) bool {
	for _, required := range s.Config.API.RequiredHeaders {
		value := headers[http.CanonicalHeaderKey(required.Name)]
		if len(value) == 0 || !strings.EqualFold(value[0], required.Value) {
			return false
		}
	}
	return true
}

// ListExceptions runs the page query and the count query concurrently.
func (s *Service) ListExceptions(ctx context.Context, filter models.ExceptionFilter, sort store.Sort, w paging.Window) (paging.Page[models.ExceptionSummary], error) {
	var (
		items []models.ExceptionSummary
		total int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.Store.ListExceptions(gctx, filter, sort, w.Limit, w.Offset)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.Store.CountExceptions(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return paging.Page[models.ExceptionSummary]{}, err
	}

	return paging.NewPage(items, total, w), nil
}

func (s *Service) ListSimpleExceptions(ctx context.Context, limit int) ([]models.SimpleException, error) {
	return s.Store.ListSimpleExceptions(ctx, limit)
}

// GetException returns nil without an error when the exception does not exist.
func (s *Service) GetException(ctx context.Context, id int64) (*models.ExceptionSummary, error) {
	return s.Store.GetException(ctx, id)
}

func (s *Service) ListAssignees(ctx context.Context, exceptionID int64, w paging.Window) (paging.Page[models.Assignee], error) {
	var (
		items []models.Assignee
		total int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.Store.ListAssignees(gctx, exceptionID, w.Limit, w.Offset)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.Store.CountAssignees(gctx, exceptionID)
		return err
	})
	if err := g.Wait(); err != nil {
		return paging.Page[models.Assignee]{}, err
	}

	return paging.NewPage(items, total, w), nil
}

func (s *Service) ListAssignments(ctx context.Context, exceptionID int64, empCode string) ([]models.Assignment, error) {
	return s.Store.ListAssignments(ctx, exceptionID, strings.TrimSpace(empCode))
}

func (s *Service) ensureException(ctx context.Context, id int64) error {
	exc, err := s.Store.GetException(ctx, id)
	if err != nil {
		return err
	}
	if exc == nil {
		return fmt.Errorf("%w: %d", ErrExceptionNotFound, id)
	}
	return nil
}

// actorOr prefers the explicit actor from the request body and falls back
// to the authenticated admin.
func actorOr(explicit *string, authenticated string) *string {
	if v := trimmedOrNil(explicit); v != nil {
		return v
	}
	if authenticated != "" {
		return &authenticated
	}
	return nil
}

func (s *Service) AssignEmployees(ctx context.Context, exceptionID int64, req models.AssignRequest, admin string) (models.AssignResult, error) {
	codes := models.NormalizeEmpCodes(req.EmpCodes)
	if len(codes) == 0 {
		return models.AssignResult{}, ErrNoEmpCodes
	}
	if err := s.ensureException(ctx, exceptionID); err != nil {
		return models.AssignResult{}, err
	}

	assignedBy := actorOr(req.AssignedBy, admin)
	metrics.AssignBatchSize.WithLabelValues("assign").Observe(float64(len(codes)))

	result, err := s.Store.AssignEmployees(ctx, exceptionID, codes, assignedBy, s.now())
	if err != nil {
		metrics.LifecycleFailures.WithLabelValues("assign").Inc()
		return models.AssignResult{}, err
	}

	metrics.AssignmentTransitions.WithLabelValues(metrics.TransitionInserted).Add(float64(result.Inserted))
	metrics.AssignmentTransitions.WithLabelValues(metrics.TransitionReactivated).Add(float64(result.Reactivated))

	logger.Info.Printf(
		"Assigned exception %d to %d employees by %s: inserted=%d reactivated=%d",
		exceptionID, len(codes), actorName(assignedBy), result.Inserted, result.Reactivated,
	)

	return result, nil
}

func (s *Service) RevokeEmployees(ctx context.Context, exceptionID int64, req models.RevokeRequest, admin string) (models.RevokeResult, error) {
	codes := models.NormalizeEmpCodes(req.EmpCodes)
	if len(codes) == 0 {
		return models.RevokeResult{}, ErrNoEmpCodes
	}
	if err := s.ensureException(ctx, exceptionID); err != nil {
		return models.RevokeResult{}, err
	}

	revokedBy := actorOr(req.RevokedBy, admin)
	reason := trimmedOrNil(req.Reason)
	metrics.AssignBatchSize.WithLabelValues("revoke").Observe(float64(len(codes)))

	result, err := s.Store.RevokeEmployees(ctx, exceptionID, codes, revokedBy, reason, s.now())
	if err != nil {
		metrics.LifecycleFailures.WithLabelValues("revoke").Inc()
		return models.RevokeResult{}, err
	}

	metrics.AssignmentTransitions.WithLabelValues(metrics.TransitionRevoked).Add(float64(result.Updated))

	logger.Info.Printf(
		"Revoked exception %d from %d employees by %s: updated=%d",
		exceptionID, len(codes), actorName(revokedBy), result.Updated,
	)

	return result, nil
}

// trimmedOrNil treats a blank value as not given.
func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func actorName(actor *string) string {
	if actor == nil {
		return "<unknown>"
	}
	return *actor
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if s.Auth != nil {
		if err := s.Auth.Close(); err != nil {
			errs = append(errs, fmt.Errorf("auth: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}
