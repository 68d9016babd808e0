package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

func ensureID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime accepts RFC3339 as written by this code and the legacy
// `DATETIME DEFAULT CURRENT_TIMESTAMP` form found in rows that predate
// it.
func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02 15:04:05", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return t.UTC(), nil
}

func parseTimeOrZero(raw sql.NullString) time.Time {
	if !raw.Valid || raw.String == "" {
		return time.Time{}
	}
	t, err := parseTime(raw.String)
	if err != nil {
		return time.Time{}
	}
	return t
}
