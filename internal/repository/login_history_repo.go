package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"recipe-blog/internal/domain"
)

// LoginHistoryRepository define el contrato de persistencia para eventos de login.
type LoginHistoryRepository interface {
	Create(ctx context.Context, event domain.LoginEvent) error
	ListRecent(ctx context.Context, limit int) ([]domain.LoginEvent, error)
}

// PgLoginHistoryRepository implementa LoginHistoryRepository usando pgxpool.
type PgLoginHistoryRepository struct {
	pool *pgxpool.Pool
}

func NewPgLoginHistoryRepository(pool *pgxpool.Pool) *PgLoginHistoryRepository {
	return &PgLoginHistoryRepository{pool: pool}
}

func (r *PgLoginHistoryRepository) Create(ctx context.Context, event domain.LoginEvent) error {
	const query = `
		INSERT INTO login_history (user_id, email, ip_address, user_agent)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.pool.Exec(ctx, query,
		event.UserID,
		event.Email,
		event.IPAddress,
		event.UserAgent,
	)
	return err
}

func (r *PgLoginHistoryRepository) ListRecent(ctx context.Context, limit int) ([]domain.LoginEvent, error) {
	const query = `
		SELECT id, COALESCE(user_id, 0), COALESCE(email, ''), login_time, COALESCE(ip_address, '')
		FROM login_history
		ORDER BY login_time DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]domain.LoginEvent, 0)
	for rows.Next() {
		var e domain.LoginEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.Email, &e.LoginTime, &e.IPAddress); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
