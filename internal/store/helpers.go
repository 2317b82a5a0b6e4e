// Package store provides scan and serialization helpers shared by the SQL backends.
package store

import (
	"encoding/json"
	"log/slog"

	"github.com/naapim/naapim/internal/models"
)

// rowScanner abstracts sql.Row and sql.Rows for shared scan helpers.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// marshalStateData serializes a state data map, nil for empty maps.
func marshalStateData(data map[models.DataKey]string) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	return json.Marshal(data)
}

// unmarshalStateData deserializes state data, tolerating corrupt rows by
// returning an empty map rather than failing the read.
func unmarshalStateData(raw []byte, participantID string) map[models.DataKey]string {
	if len(raw) == 0 {
		return nil
	}
	data := make(map[models.DataKey]string)
	if err := json.Unmarshal(raw, &data); err != nil {
		slog.Error("store: state data unmarshal failed, continuing with empty map", "error", err, "participantID", participantID)
		return make(map[models.DataKey]string)
	}
	return data
}

// scanSession scans one session row, decoding the selected key and answers
// JSON columns.
func scanSession(row rowScanner) (*models.Session, error) {
	var session models.Session
	var keysJSON, answersJSON []byte
	err := row.Scan(&session.ID, &session.Code, &session.UserQuestion,
		&session.ArchetypeID, &session.DecisionType, &keysJSON, &answersJSON, &session.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(keysJSON) > 0 {
		if err := json.Unmarshal(keysJSON, &session.SelectedFieldKeys); err != nil {
			slog.Error("store: selected field keys unmarshal failed, continuing without", "error", err, "sessionID", session.ID)
		}
	}
	session.Answers = make(map[string]string)
	if len(answersJSON) > 0 {
		if err := json.Unmarshal(answersJSON, &session.Answers); err != nil {
			slog.Error("store: answers unmarshal failed, continuing with empty map", "error", err, "sessionID", session.ID)
		}
	}
	return &session, nil
}

// marshalFieldKeys serializes selected field keys, writing an empty JSON
// array for nil slices so the column stays valid JSON.
func marshalFieldKeys(keys []string) ([]byte, error) {
	if keys == nil {
		keys = []string{}
	}
	return json.Marshal(keys)
}
