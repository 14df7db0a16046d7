package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/athebyme/emag-console/pkg/interfaces"
	"github.com/athebyme/emag-console/pkg/tx"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaStatements создают схему журнала команд
var schemaStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS console`,
	`CREATE TABLE IF NOT EXISTS console.audit_log (
		id           UUID PRIMARY KEY,
		command      TEXT NOT NULL,
		account_type TEXT NOT NULL,
		target       TEXT NOT NULL DEFAULT '',
		success      BOOLEAN NOT NULL,
		details      JSONB,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS audit_log_created_at_idx ON console.audit_log (created_at DESC)`,
}

// AuditStorage реализация AuditPort для PostgreSQL
type AuditStorage struct {
	pool *pgxpool.Pool
	txm  tx.TxManager
}

// NewAuditStorage подключается к PostgreSQL и создает схему журнала
func NewAuditStorage(ctx context.Context, connectionString string) (*AuditStorage, error) {
	pool, err := pgxpool.New(ctx, connectionString)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к postgres: %w", err)
	}

	s, err := NewAuditStorageWithPool(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewAuditStorageWithPool использует готовый пул
func NewAuditStorageWithPool(ctx context.Context, pool *pgxpool.Pool) (*AuditStorage, error) {
	if pool == nil {
		return nil, errors.New("pool is nil")
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ошибка подключения к postgres: %w", err)
	}

	s := &AuditStorage{pool: pool, txm: tx.NewTxManager(pool)}
	if err := s.initSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *AuditStorage) initSchema(ctx context.Context) error {
	return s.txm.Do(ctx, func(ctx context.Context) error {
		executor := s.getExecutor(ctx)
		for _, stmt := range schemaStatements {
			if _, err := executor.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("ошибка создания схемы журнала: %w", err)
			}
		}
		return nil
	})
}

type executor interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
}

// getExecutor возвращает исполнителя запросов (транзакцию или пул)
func (s *AuditStorage) getExecutor(ctx context.Context) executor {
	if t, ok := tx.GetTxFromContext(ctx); ok {
		return t
	}
	return s.pool
}

// Record сохраняет запись журнала
func (s *AuditStorage) Record(ctx context.Context, entry *interfaces.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO console.audit_log (id, command, account_type, target, success, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	var details []byte
	if len(entry.Details) > 0 {
		details = entry.Details
	}

	_, err := s.getExecutor(ctx).Exec(ctx, query,
		entry.ID, entry.Command, entry.AccountType, entry.Target, entry.Success, details, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка сохранения записи журнала: %w", err)
	}

	return nil
}

// Recent возвращает последние записи журнала, новые первыми
func (s *AuditStorage) Recent(ctx context.Context, limit int) ([]*interfaces.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := `
		SELECT id::text, command, account_type, target, success, details, created_at
		FROM console.audit_log
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := s.getExecutor(ctx).Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения журнала: %w", err)
	}
	defer rows.Close()

	entries := make([]*interfaces.AuditEntry, 0, limit)
	for rows.Next() {
		var e interfaces.AuditEntry
		var details []byte
		if err := rows.Scan(&e.ID, &e.Command, &e.AccountType, &e.Target, &e.Success, &details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка чтения строки журнала: %w", err)
		}
		if len(details) > 0 {
			e.Details = details
		}
		entries = append(entries, &e)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("ошибка при обходе строк журнала: %w", rows.Err())
	}

	return entries, nil
}

// Close закрывает соединение с БД
func (s *AuditStorage) Close() error {
	s.pool.Close()
	return nil
}
