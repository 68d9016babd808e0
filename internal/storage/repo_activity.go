package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const defaultActivityLimit = 50

type activityRepository struct {
	db *sql.DB
}

func (r *activityRepository) Append(ctx context.Context, event *ActivityEvent) error {
	if event == nil {
		return fmt.Errorf("append activity: nil event")
	}
	if strings.TrimSpace(event.Action) == "" {
		return fmt.Errorf("append activity: action is required")
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = nowUTC()
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO activity (owner_id, action, target_id, details, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, event.OwnerID, event.Action, nullableString(event.TargetID), nullableString(event.Details), fmtTime(event.CreatedAt))
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("append activity: last insert id: %w", err)
	}
	event.ID = id
	return nil
}

func (r *activityRepository) List(ctx context.Context, filter ActivityFilter) ([]ActivityEvent, error) {
	query := `SELECT id, owner_id, action, target_id, details, created_at FROM activity`
	var clauses []string
	var args []any
	if filter.OwnerID != 0 {
		clauses = append(clauses, `owner_id = ?`)
		args = append(args, filter.OwnerID)
	}
	if filter.Action != "" {
		clauses = append(clauses, `action = ?`)
		args = append(args, filter.Action)
	}
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, ` AND `)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var events []ActivityEvent
	for rows.Next() {
		var (
			event     ActivityEvent
			ownerID   sql.NullInt64
			targetID  sql.NullString
			details   sql.NullString
			createdAt sql.NullString
		)
		if err := rows.Scan(&event.ID, &ownerID, &event.Action, &targetID, &details, &createdAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		event.OwnerID = ownerID.Int64
		event.TargetID = targetID.String
		event.Details = details.String
		event.CreatedAt = parseTimeOrZero(createdAt)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity: %w", err)
	}
	return events, nil
}
