package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"

	v1 "github.com/shopsight-lab/shopsight/internal/api/v1"
)

// marshalProperties marshals an event's open properties map to JSON.
// A nil map produces "{}" so the JSONB column never holds SQL NULL.
func marshalProperties(evt *v1.Event) ([]byte, error) {
	if len(evt.Properties) == 0 {
		return []byte("{}"), nil
	}
	propsJSON, err := json.Marshal(evt.Properties)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal properties: %w", err)
	}
	return propsJSON, nil
}

// nullable maps "" to SQL NULL. user_id and anonymous_id are NULLable text
// columns; the Go envelope uses empty strings.
func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanEventRow scans a database row into an Event struct.
// Compatible with both sql.Row (single) and sql.Rows (multiple).
func scanEventRow(row scanner) (*v1.Event, error) {
	var evt v1.Event
	var userID, anonymousID sql.NullString
	var propsJSON []byte

	err := row.Scan(
		&evt.ID,
		&userID,
		&anonymousID,
		&evt.Name,
		&propsJSON,
		&evt.OccurredAt,
		&evt.IngestedAt,
		&evt.IngestSeq,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan event row: %w", err)
	}

	evt.UserID = userID.String
	evt.AnonymousID = anonymousID.String

	if len(propsJSON) > 0 {
		if err := json.Unmarshal(propsJSON, &evt.Properties); err != nil {
			return nil, fmt.Errorf("failed to unmarshal properties: %w", err)
		}
	}

	return &evt, nil
}
