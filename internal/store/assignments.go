package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/shrimpsizemoose/undantag/internal/models"
)

// reactivateQuery brings back the newest revoked row of every requested pair
// that has no active row. Only one row per pair is touched so the
// one-active-row index cannot be violated by history rows.
const reactivateQuery = `
	UPDATE exception_assignments
	SET
		status = 'active',
		assigned_at = ?,
		assigned_by = COALESCE(?, assigned_by),
		revoked_at = NULL,
		revoked_by = NULL,
		revoke_reason = NULL
	WHERE status = 'revoked'
	AND id IN (
		SELECT MAX(r.id)
		FROM exception_assignments r
		WHERE r.exception_id = ?
		AND r.emp_code IN (?)
		AND r.status = 'revoked'
		AND NOT EXISTS (
			SELECT 1
			FROM exception_assignments x
			WHERE x.exception_id = r.exception_id
			AND x.emp_code = r.emp_code
			AND x.status = 'active'
		)
		GROUP BY r.emp_code
	)
	RETURNING id
`

// insertQuery creates a row only for pairs that were never assigned. Racing
// inserts of the same pair are absorbed by ON CONFLICT.
const insertQuery = `
	INSERT INTO exception_assignments (exception_id, emp_code, status, assigned_at, assigned_by)
	SELECT CAST(? AS BIGINT), CAST(? AS TEXT), 'active', CAST(? AS BIGINT), CAST(? AS TEXT)
	WHERE NOT EXISTS (
		SELECT 1
		FROM exception_assignments
		WHERE exception_id = ?
		AND emp_code = ?
	)
	ON CONFLICT DO NOTHING
	RETURNING id
`

const revokeQuery = `
	UPDATE exception_assignments
	SET
		status = 'revoked',
		revoked_at = ?,
		revoked_by = ?,
		revoke_reason = COALESCE(?, revoke_reason)
	WHERE exception_id = ?
	AND emp_code IN (?)
	AND status = 'active'
`

// AssignEmployees makes every given employee an active assignee of the
// exception in one transaction: revoked rows are reactivated in place,
// never-assigned pairs get a new row, active pairs are left alone.
func (s *BaseStore) AssignEmployees(ctx context.Context, exceptionID int64, empCodes []string, assignedBy *string, now int64) (models.AssignResult, error) {
	result := models.AssignResult{AssignmentIDs: []int64{}}
	if len(empCodes) == 0 {
		return result, nil
	}

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := sqlx.In(reactivateQuery, now, assignedBy, exceptionID, empCodes)
		if err != nil {
			return fmt.Errorf("failed to build reactivation query: %w", err)
		}

		var reactivated []int64
		if err := tx.SelectContext(ctx, &reactivated, tx.Rebind(query), args...); err != nil {
			return fmt.Errorf("failed to reactivate assignments: %w", err)
		}

		stmt, err := tx.PreparexContext(ctx, tx.Rebind(insertQuery))
		if err != nil {
			return fmt.Errorf("failed to prepare assignment insert: %w", err)
		}
		defer stmt.Close()

		var inserted []int64
		for _, code := range empCodes {
			var id int64
			err := stmt.GetContext(ctx, &id, exceptionID, code, now, assignedBy, exceptionID, code)
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to insert assignment for %s: %w", code, err)
			}
			inserted = append(inserted, id)
		}

		result.Reactivated = len(reactivated)
		result.Inserted = len(inserted)
		result.AssignmentIDs = append(append(result.AssignmentIDs, reactivated...), inserted...)
		return nil
	})
	if err != nil {
		return models.AssignResult{}, err
	}

	return result, nil
}

// RevokeEmployees moves the active assignments of the given employees to
// revoked. Pairs without an active row are not matched. A nil reason keeps
// whatever reason the row already had.
func (s *BaseStore) RevokeEmployees(ctx context.Context, exceptionID int64, empCodes []string, revokedBy, reason *string, now int64) (models.RevokeResult, error) {
	if len(empCodes) == 0 {
		return models.RevokeResult{}, nil
	}

	var result models.RevokeResult
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := sqlx.In(revokeQuery, now, revokedBy, reason, exceptionID, empCodes)
		if err != nil {
			return fmt.Errorf("failed to build revoke query: %w", err)
		}

		res, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
		if err != nil {
			return fmt.Errorf("failed to revoke assignments: %w", err)
		}

		updated, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read revoked row count: %w", err)
		}
		result.Updated = updated
		return nil
	})
	if err != nil {
		return models.RevokeResult{}, err
	}

	return result, nil
}
