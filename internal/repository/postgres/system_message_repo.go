package postgres

import (
	"context"
	"database/sql"

	"communityhub/internal/domain"
)

type systemMessageRepository struct {
	DB *sql.DB
}

// NewSystemMessageRepository returns a SystemMessageRepository backed by the
// system_messages table.
func NewSystemMessageRepository(db *sql.DB) domain.SystemMessageRepository {
	return &systemMessageRepository{DB: db}
}

func (r *systemMessageRepository) Create(ctx context.Context, msg *domain.SystemMessage) error {
	query := `
		INSERT INTO system_messages (user_id, title, body, read, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		msg.UserID, msg.Title, msg.Body, msg.Read, msg.CreatedAt,
	).Scan(&msg.ID)
}

func (r *systemMessageRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.SystemMessage, error) {
	query := `
		SELECT id, user_id, title, body, read, created_at
		FROM system_messages
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []*domain.SystemMessage
	for rows.Next() {
		msg := &domain.SystemMessage{}
		if err := rows.Scan(&msg.ID, &msg.UserID, &msg.Title, &msg.Body, &msg.Read, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []*domain.SystemMessage{}
	}
	return msgs, nil
}

func (r *systemMessageRepository) MarkRead(ctx context.Context, id, userID string) error {
	query := `UPDATE system_messages SET read = TRUE WHERE id = $1 AND user_id = $2`
	res, err := r.DB.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
