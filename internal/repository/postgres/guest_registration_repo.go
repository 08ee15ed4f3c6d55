package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"communityhub/internal/domain"
)

type guestRegistrationRepository struct {
	DB *sql.DB
}

// NewGuestRegistrationRepository returns a GuestRegistrationRepository backed
// by the guest_registrations table. Guests live in their own table; they are
// not users.
func NewGuestRegistrationRepository(db *sql.DB) domain.GuestRegistrationRepository {
	return &guestRegistrationRepository{DB: db}
}

func (r *guestRegistrationRepository) Create(ctx context.Context, reg *domain.GuestRegistration) error {
	eventSnap, err := json.Marshal(reg.EventSnapshot)
	if err != nil {
		return fmt.Errorf("marshal event snapshot: %w", err)
	}
	query := `
		INSERT INTO guest_registrations (event_id, role_id, full_name, email, phone, status, migration_status, event_snapshot, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		reg.EventID, reg.RoleID, reg.FullName, reg.Email, reg.Phone,
		reg.Status, reg.MigrationStatus, eventSnap, reg.CreatedAt, reg.UpdatedAt,
	).Scan(&reg.ID)
}

func (r *guestRegistrationRepository) ListActiveByEventAndEmail(ctx context.Context, eventID, email string) ([]*domain.GuestRegistration, error) {
	query := `
		SELECT id, event_id, role_id, full_name, email, phone, status, migration_status, event_snapshot, created_at, updated_at
		FROM guest_registrations
		WHERE event_id = $1 AND email = $2 AND status = $3
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, eventID, email, domain.RegistrationStatusActive)
}

func (r *guestRegistrationRepository) CountByRoleAndStatus(ctx context.Context, eventID, roleID, status string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM guest_registrations
		WHERE event_id = $1 AND role_id = $2 AND status = $3
	`
	var count int
	err := r.DB.QueryRowContext(ctx, query, eventID, roleID, status).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *guestRegistrationRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `
		UPDATE guest_registrations
		SET status = $2, updated_at = $3
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query, id, status, time.Now())
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

func (r *guestRegistrationRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.GuestRegistration, error) {
	query := `
		SELECT id, event_id, role_id, full_name, email, phone, status, migration_status, event_snapshot, created_at, updated_at
		FROM guest_registrations
		WHERE event_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, eventID)
}

func (r *guestRegistrationRepository) list(ctx context.Context, query string, args ...any) ([]*domain.GuestRegistration, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regs []*domain.GuestRegistration
	for rows.Next() {
		reg := &domain.GuestRegistration{}
		var eventSnap []byte
		err := rows.Scan(
			&reg.ID, &reg.EventID, &reg.RoleID, &reg.FullName, &reg.Email, &reg.Phone,
			&reg.Status, &reg.MigrationStatus, &eventSnap, &reg.CreatedAt, &reg.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(eventSnap, &reg.EventSnapshot); err != nil {
			return nil, fmt.Errorf("unmarshal event snapshot: %w", err)
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if regs == nil {
		regs = []*domain.GuestRegistration{}
	}
	return regs, nil
}
