package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"communityhub/internal/domain"
)

type registrationRepository struct {
	DB *sql.DB
}

// NewRegistrationRepository returns a RegistrationRepository backed by the
// registrations table. Snapshot and action history columns are JSONB.
func NewRegistrationRepository(db *sql.DB) domain.RegistrationRepository {
	return &registrationRepository{DB: db}
}

func (r *registrationRepository) Create(ctx context.Context, reg *domain.Registration) error {
	userSnap, err := json.Marshal(reg.UserSnapshot)
	if err != nil {
		return fmt.Errorf("marshal user snapshot: %w", err)
	}
	eventSnap, err := json.Marshal(reg.EventSnapshot)
	if err != nil {
		return fmt.Errorf("marshal event snapshot: %w", err)
	}
	actions, err := json.Marshal(reg.Actions)
	if err != nil {
		return fmt.Errorf("marshal actions: %w", err)
	}
	query := `
		INSERT INTO registrations (event_id, role_id, user_id, status, user_snapshot, event_snapshot, actions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		reg.EventID, reg.RoleID, reg.UserID, reg.Status,
		userSnap, eventSnap, actions, reg.CreatedAt, reg.UpdatedAt,
	).Scan(&reg.ID)
}

func (r *registrationRepository) GetActiveByEventUserRole(ctx context.Context, eventID, userID, roleID string) (*domain.Registration, error) {
	query := `
		SELECT id, event_id, role_id, user_id, status, user_snapshot, event_snapshot, actions, created_at, updated_at
		FROM registrations
		WHERE event_id = $1 AND user_id = $2 AND role_id = $3 AND status = $4
	`
	row := r.DB.QueryRowContext(ctx, query, eventID, userID, roleID, domain.RegistrationStatusActive)
	reg, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *registrationRepository) CountActiveByEventAndUser(ctx context.Context, eventID, userID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM registrations
		WHERE event_id = $1 AND user_id = $2 AND status = $3
	`
	var count int
	err := r.DB.QueryRowContext(ctx, query, eventID, userID, domain.RegistrationStatusActive).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *registrationRepository) CountByRoleAndStatus(ctx context.Context, eventID, roleID, status string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM registrations
		WHERE event_id = $1 AND role_id = $2 AND status = $3
	`
	var count int
	err := r.DB.QueryRowContext(ctx, query, eventID, roleID, status).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *registrationRepository) UpdateStatus(ctx context.Context, id, status string, action domain.RegistrationAction) error {
	actionJSON, err := json.Marshal([]domain.RegistrationAction{action})
	if err != nil {
		return fmt.Errorf("marshal action: %w", err)
	}
	query := `
		UPDATE registrations
		SET status = $2, actions = actions || $3::jsonb, updated_at = $4
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query, id, status, actionJSON, time.Now())
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

func (r *registrationRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Registration, error) {
	query := `
		SELECT id, event_id, role_id, user_id, status, user_snapshot, event_snapshot, actions, created_at, updated_at
		FROM registrations
		WHERE event_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regs []*domain.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if regs == nil {
		regs = []*domain.Registration{}
	}
	return regs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row rowScanner) (*domain.Registration, error) {
	reg := &domain.Registration{}
	var userSnap, eventSnap, actions []byte
	err := row.Scan(
		&reg.ID, &reg.EventID, &reg.RoleID, &reg.UserID, &reg.Status,
		&userSnap, &eventSnap, &actions, &reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(userSnap, &reg.UserSnapshot); err != nil {
		return nil, fmt.Errorf("unmarshal user snapshot: %w", err)
	}
	if err := json.Unmarshal(eventSnap, &reg.EventSnapshot); err != nil {
		return nil, fmt.Errorf("unmarshal event snapshot: %w", err)
	}
	if err := json.Unmarshal(actions, &reg.Actions); err != nil {
		return nil, fmt.Errorf("unmarshal actions: %w", err)
	}
	return reg, nil
}
