package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/fedaabdelghany-code/dubai2025/internal/domain"
)

// Instants are stored as unix seconds; NULL is the invalid sentinel.

func toNullInt64(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UTC().Unix(), Valid: true}
}

func fromNullInt64(ns sql.NullInt64) time.Time {
	if !ns.Valid {
		return time.Time{}
	}
	return time.Unix(ns.Int64, 0).UTC()
}

// Rotational schedules, likes and comments are stored as JSON text columns.

func marshalSchedule(m map[string]domain.TimeSlot) (sql.NullString, error) {
	if len(m) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func unmarshalSchedule(ns sql.NullString) (map[string]domain.TimeSlot, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var m map[string]domain.TimeSlot
	if err := json.Unmarshal([]byte(ns.String), &m); err != nil {
		return nil, err
	}
	return m, nil
}

func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
