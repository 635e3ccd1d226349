// Package records persists applicant records in append-only collections.
package records

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"credit-risk-workers/internal/models"
)

//go:embed sql/*.sql
var ddl embed.FS

// DefaultCollection is the collection used when a caller names none.
const DefaultCollection = "loan_applications"

// Store appends records to a named collection and lists them back.
// Stores are schema-on-read: payloads are not checked on append.
// Appending a record id that is already stored is a no-op.
type Store interface {
	Append(ctx context.Context, collection string, rec models.ApplicantRecord) error
	List(ctx context.Context, collection string) ([]models.ApplicantRecord, error)
	Ping(ctx context.Context) error
	Close() error
}

// Stamp fills in the record id and creation time when they are missing.
func Stamp(rec models.ApplicantRecord, now time.Time) models.ApplicantRecord {
	if rec.RecordID == "" {
		rec.RecordID = uuid.NewString()
	}
	if rec.CreatedAt == "" {
		rec.CreatedAt = now.UTC().Format(time.RFC3339)
	}
	return rec
}

func collectionOrDefault(collection string) string {
	if collection == "" {
		return DefaultCollection
	}
	return collection
}

func encode(rec models.ApplicantRecord) ([]byte, error) {
	if rec.RecordID == "" {
		return nil, fmt.Errorf("record has no id")
	}
	return json.Marshal(rec)
}

// decodeAll decodes stored payloads. Entries that are not valid JSON objects
// are returned as errors alongside the records that did decode.
func decodeAll(payloads [][]byte) ([]models.ApplicantRecord, []error) {
	out := make([]models.ApplicantRecord, 0, len(payloads))
	var bad []error
	for i, p := range payloads {
		var rec models.ApplicantRecord
		if err := json.Unmarshal(p, &rec); err != nil {
			bad = append(bad, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		out = append(out, rec)
	}
	return out, bad
}

func readDDL(name string) (string, error) {
	b, err := ddl.ReadFile("sql/" + name)
	if err != nil {
		return "", fmt.Errorf("failed to read schema file %s: %w", name, err)
	}
	return string(b), nil
}
