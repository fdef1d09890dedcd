package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/undantag/internal/models"
)

type ExceptionStore interface {
	Close() error
	ApplyMigrations(dir string) error

	ListExceptions(ctx context.Context, filter models.ExceptionFilter, sort Sort, limit, offset int) ([]models.ExceptionSummary, error)
	CountExceptions(ctx context.Context, filter models.ExceptionFilter) (int64, error)
	GetException(ctx context.Context, id int64) (*models.ExceptionSummary, error)
	ListSimpleExceptions(ctx context.Context, limit int) ([]models.SimpleException, error)

	ListAssignees(ctx context.Context, exceptionID int64, limit, offset int) ([]models.Assignee, error)
	CountAssignees(ctx context.Context, exceptionID int64) (int64, error)
	ListAssignments(ctx context.Context, exceptionID int64, empCode string) ([]models.Assignment, error)

	AssignEmployees(ctx context.Context, exceptionID int64, empCodes []string, assignedBy *string, now int64) (models.AssignResult, error)
	RevokeEmployees(ctx context.Context, exceptionID int64, empCodes []string, revokedBy, reason *string, now int64) (models.RevokeResult, error)
}

// BaseStore provides common functionality for different DB implementations.
// Queries are written with `?` placeholders and rebound for the driver.
type BaseStore struct {
	DB *sqlx.DB
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory in lexical order,
// translating dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		logger.Debug.Printf("Applying migration: %s", file.Name())
		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

// inTx runs fn in a single transaction. Any error rolls the whole batch back.
func (s *BaseStore) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("failed to rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
