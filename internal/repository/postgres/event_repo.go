package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"communityhub/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

// NewEventRepository returns an EventRepository backed by the events table.
// Roles are embedded in the event row as a JSONB array.
func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{DB: db}
}

func (r *eventRepository) Create(ctx context.Context, event *domain.Event) error {
	roles, err := json.Marshal(event.Roles)
	if err != nil {
		return fmt.Errorf("marshal roles: %w", err)
	}
	query := `
		INSERT INTO events (title, description, date, start_time, end_time, location, owner_id, roles, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		event.Title, event.Description, event.Date, event.StartTime, event.EndTime,
		event.Location, event.OwnerID, roles, event.CreatedAt, event.UpdatedAt,
	).Scan(&event.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT id, title, description, date, start_time, end_time, location, owner_id, roles, created_at, updated_at
		FROM events
		WHERE id = $1
	`
	event := &domain.Event{}
	var roles []byte
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&event.ID, &event.Title, &event.Description, &event.Date, &event.StartTime,
		&event.EndTime, &event.Location, &event.OwnerID, &roles, &event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(roles, &event.Roles); err != nil {
		return nil, fmt.Errorf("unmarshal roles: %w", err)
	}
	return event, nil
}

func (r *eventRepository) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	query := `
		SELECT id, title, description, date, start_time, end_time, location, owner_id, roles, created_at, updated_at
		FROM events
		WHERE owner_id = $1
		ORDER BY date DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		event := &domain.Event{}
		var roles []byte
		err := rows.Scan(
			&event.ID, &event.Title, &event.Description, &event.Date, &event.StartTime,
			&event.EndTime, &event.Location, &event.OwnerID, &roles, &event.CreatedAt, &event.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(roles, &event.Roles); err != nil {
			return nil, fmt.Errorf("unmarshal roles: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

func (r *eventRepository) Update(ctx context.Context, event *domain.Event) error {
	roles, err := json.Marshal(event.Roles)
	if err != nil {
		return fmt.Errorf("marshal roles: %w", err)
	}
	query := `
		UPDATE events
		SET title = $2, description = $3, date = $4, start_time = $5, end_time = $6, location = $7, roles = $8, updated_at = $9
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query,
		event.ID, event.Title, event.Description, event.Date, event.StartTime,
		event.EndTime, event.Location, roles, event.UpdatedAt,
	)
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

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
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
