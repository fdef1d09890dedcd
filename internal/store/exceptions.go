package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shrimpsizemoose/undantag/internal/models"
)

const exceptionSummarySelect = `
	SELECT
		d.exception_id,
		d.code,
		d.name,
		d.risk_level,
		d.category_id,
		d.is_active,
		d.created_at,
		COALESCE(a.assignees_active, 0) AS assignees_active,
		a.last_assigned_at,
		COALESCE(t.tickets_count, 0) AS tickets_count
	FROM exception_definitions d
	LEFT JOIN (
		SELECT
			exception_id,
			SUM(CASE WHEN status = 'active' THEN 1 ELSE 0 END) AS assignees_active,
			MAX(assigned_at) AS last_assigned_at
		FROM exception_assignments
		GROUP BY exception_id
	) a ON a.exception_id = d.exception_id
	LEFT JOIN (
		SELECT exception_id, COUNT(*) AS tickets_count
		FROM exception_ticket_map
		GROUP BY exception_id
	) t ON t.exception_id = d.exception_id
`

func exceptionPredicates(filter models.ExceptionFilter) *Predicates {
	p := &Predicates{}
	p.Add(`LOWER(d.name) LIKE ? ESCAPE '\'`, containsPattern(filter.Search))
	p.Add("d.risk_level = ?", filter.RiskLevel)
	p.Add("d.category_id = ?", filter.CategoryID)
	p.Add("d.is_active = ?", filter.IsActive)
	return p
}

func (s *BaseStore) ListExceptions(ctx context.Context, filter models.ExceptionFilter, sort Sort, limit, offset int) ([]models.ExceptionSummary, error) {
	where, args := exceptionPredicates(filter).Where()
	query := s.DB.Rebind(exceptionSummarySelect + where + "\n" + sort.orderBy() + "\nLIMIT ? OFFSET ?")
	args = append(args, limit, offset)

	rows := []models.ExceptionSummary{}
	if err := s.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list exceptions: %w", err)
	}
	return rows, nil
}

func (s *BaseStore) CountExceptions(ctx context.Context, filter models.ExceptionFilter) (int64, error) {
	where, args := exceptionPredicates(filter).Where()
	query := s.DB.Rebind("SELECT COUNT(*) FROM exception_definitions d " + where)

	var total int64
	if err := s.DB.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count exceptions: %w", err)
	}
	return total, nil
}

func (s *BaseStore) GetException(ctx context.Context, id int64) (*models.ExceptionSummary, error) {
	var summary models.ExceptionSummary
	query := s.DB.Rebind(exceptionSummarySelect + "WHERE d.exception_id = ?")

	err := s.DB.GetContext(ctx, &summary, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get exception %d: %w", id, err)
	}
	return &summary, nil
}

func (s *BaseStore) ListSimpleExceptions(ctx context.Context, limit int) ([]models.SimpleException, error) {
	query := s.DB.Rebind(`
		SELECT exception_id, code, name, risk_level, is_active
		FROM exception_definitions
		ORDER BY exception_id DESC
		LIMIT ?
	`)

	rows := []models.SimpleException{}
	if err := s.DB.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list simple exceptions: %w", err)
	}
	return rows, nil
}

const assignmentColumns = `
		a.id,
		a.exception_id,
		a.emp_code,
		a.status,
		a.valid_from,
		a.valid_to,
		a.assigned_at,
		a.assigned_by,
		a.revoked_at,
		a.revoked_by,
		a.revoke_reason`

func (s *BaseStore) ListAssignees(ctx context.Context, exceptionID int64, limit, offset int) ([]models.Assignee, error) {
	query := s.DB.Rebind(`
		SELECT` + assignmentColumns + `,
			e.first_name,
			e.last_name,
			e.department_name
		FROM exception_assignments a
		LEFT JOIN employees e ON e.emp_code = a.emp_code
		WHERE a.exception_id = ?
		ORDER BY a.assigned_at DESC, a.id DESC
		LIMIT ? OFFSET ?
	`)

	rows := []models.Assignee{}
	if err := s.DB.SelectContext(ctx, &rows, query, exceptionID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list assignees of exception %d: %w", exceptionID, err)
	}
	return rows, nil
}

func (s *BaseStore) CountAssignees(ctx context.Context, exceptionID int64) (int64, error) {
	query := s.DB.Rebind(`SELECT COUNT(*) FROM exception_assignments WHERE exception_id = ?`)

	var total int64
	if err := s.DB.GetContext(ctx, &total, query, exceptionID); err != nil {
		return 0, fmt.Errorf("failed to count assignees of exception %d: %w", exceptionID, err)
	}
	return total, nil
}

// ListAssignments returns the full history for one (exception, employee) pair.
func (s *BaseStore) ListAssignments(ctx context.Context, exceptionID int64, empCode string) ([]models.Assignment, error) {
	query := s.DB.Rebind(`
		SELECT` + assignmentColumns + `
		FROM exception_assignments a
		WHERE a.exception_id = ? AND a.emp_code = ?
		ORDER BY a.id
	`)

	rows := []models.Assignment{}
	if err := s.DB.SelectContext(ctx, &rows, query, exceptionID, empCode); err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return rows, nil
}
