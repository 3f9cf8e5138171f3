package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/GB163/student-led-initiative-sub002/internal/types"
)

// pgQuerier is the subset of pgxpool.Pool used by PostgresStore. pgxmock
// satisfies it in tests.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store on top of Postgres via pgx. The conditional
// status update is a single UPDATE guarded by the expected status in its
// WHERE clause.
type PostgresStore struct {
	pool   pgQuerier
	logger zerolog.Logger
}

// NewPostgresPool opens a pgx connection pool and verifies connectivity
func NewPostgresPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 20
	cfg.MaxConnLifetime = 30 * time.Minute

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(pingCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return pool, nil
}

// NewPostgresStore creates a PostgresStore over an existing pool
func NewPostgresStore(pool pgQuerier, logger zerolog.Logger) *PostgresStore {
	return &PostgresStore{pool: pool, logger: logger}
}

const callRequestColumns = `id, name, phone, language, best_time, notes, origin_connection_id,
	status, assigned_to, assigned_staff_name, created_at, assigned_at, started_at,
	ended_at, completed_at, call_duration, rating, suggestion`

func (s *PostgresStore) CreateCallRequest(ctx context.Context, call types.CallRequest) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO call_requests (`+callRequestColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		callRequestArgs(call)...)
	if err != nil {
		return fmt.Errorf("failed to insert call request: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetCallRequest(ctx context.Context, callID string) (*types.CallRequest, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+callRequestColumns+` FROM call_requests WHERE id = $1`, callID)
	call, err := scanCallRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get call request: %w", err)
	}
	return call, nil
}

func (s *PostgresStore) UpdateCallRequest(ctx context.Context, call types.CallRequest) error {
	tag, err := s.pool.Exec(ctx, updateCallRequestSQL+` WHERE id = $1`, callRequestArgs(call)...)
	if err != nil {
		return fmt.Errorf("failed to update call request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateCallRequestIfStatus(ctx context.Context, call types.CallRequest, expect types.CallStatus) error {
	args := append(callRequestArgs(call), string(expect))
	tag, err := s.pool.Exec(ctx, updateCallRequestSQL+` WHERE id = $1 AND status = $19`, args...)
	if err != nil {
		return fmt.Errorf("failed conditional update of call request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Row missing or status mismatch; look the row up to tell them apart.
		var one int
		err := s.pool.QueryRow(ctx, `SELECT 1 FROM call_requests WHERE id = $1`, call.ID).Scan(&one)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check call request existence: %w", err)
		}
		return ErrConditionFailed
	}
	return nil
}

func (s *PostgresStore) DeleteCallRequest(ctx context.Context, callID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM call_requests WHERE id = $1`, callID)
	if err != nil {
		return fmt.Errorf("failed to delete call request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListCallRequestsByStatus(ctx context.Context, statuses ...types.CallStatus) ([]types.CallRequest, error) {
	query := `SELECT ` + callRequestColumns + ` FROM call_requests`
	var args []any
	if len(statuses) > 0 {
		query += ` WHERE status = ANY($1)`
		list := make([]string, 0, len(statuses))
		for _, st := range statuses {
			list = append(list, string(st))
		}
		args = append(args, list)
	}
	query += ` ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list call requests: %w", err)
	}
	defer rows.Close()

	var calls []types.CallRequest
	for rows.Next() {
		call, err := scanCallRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan call request: %w", err)
		}
		calls = append(calls, *call)
	}
	return calls, rows.Err()
}

func (s *PostgresStore) SaveMessage(ctx context.Context, msg types.ChatMessage) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO chat_messages (id, body, role, connection_id, display_name, sent_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		msg.ID, msg.Text, string(msg.Role), msg.ConnectionID, msg.DisplayName, msg.SentAt)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListMessagesForConnection(ctx context.Context, connID string) ([]types.ChatMessage, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, body, role, connection_id, display_name, sent_at
		FROM chat_messages WHERE connection_id = $1 ORDER BY sent_at`, connID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []types.ChatMessage
	for rows.Next() {
		var msg types.ChatMessage
		var role string
		if err := rows.Scan(&msg.ID, &msg.Text, &role, &msg.ConnectionID, &msg.DisplayName, &msg.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Role = types.MessageRole(role)
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

const updateCallRequestSQL = `UPDATE call_requests SET
	name=$2, phone=$3, language=$4, best_time=$5, notes=$6, origin_connection_id=$7,
	status=$8, assigned_to=$9, assigned_staff_name=$10, created_at=$11, assigned_at=$12,
	started_at=$13, ended_at=$14, completed_at=$15, call_duration=$16, rating=$17, suggestion=$18`

func callRequestArgs(call types.CallRequest) []any {
	return []any{
		call.ID, call.Name, call.Phone, call.Language, call.BestTime, call.Notes,
		call.OriginConnectionID, string(call.Status), call.AssignedTo, call.AssignedStaffName,
		call.CreatedAt, call.AssignedAt, call.StartedAt, call.EndedAt, call.CompletedAt,
		call.CallDuration, call.Rating, call.Suggestion,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCallRequest(row rowScanner) (*types.CallRequest, error) {
	var call types.CallRequest
	var status string
	err := row.Scan(
		&call.ID, &call.Name, &call.Phone, &call.Language, &call.BestTime, &call.Notes,
		&call.OriginConnectionID, &status, &call.AssignedTo, &call.AssignedStaffName,
		&call.CreatedAt, &call.AssignedAt, &call.StartedAt, &call.EndedAt, &call.CompletedAt,
		&call.CallDuration, &call.Rating, &call.Suggestion,
	)
	if err != nil {
		return nil, err
	}
	call.Status = types.CallStatus(status)
	return &call, nil
}
