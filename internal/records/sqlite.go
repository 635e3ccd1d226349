package records

import (
	"context"
	"database/sql"
	"fmt"

	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/models"
)

// SQLiteStore is the embedded backend used by the CLI and local runs.
type SQLiteStore struct {
	db     *sql.DB
	logger logger.Logger
}

// NewSQLiteStore creates the records table if needed.
func NewSQLiteStore(ctx context.Context, db *sql.DB, log logger.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	stmt, err := readDDL("sqlite.sql")
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return nil, fmt.Errorf("failed to create sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db, logger: log}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, collection string, rec models.ApplicantRecord) error {
	payload, err := encode(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO applicant_records (record_id, collection, payload, created_at) VALUES (?, ?, ?, ?) ON CONFLICT (record_id) DO NOTHING`,
		rec.RecordID, collectionOrDefault(collection), string(payload), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, collection string) ([]models.ApplicantRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM applicant_records WHERE collection = ? ORDER BY id`,
		collectionOrDefault(collection))
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var payloads [][]byte
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		payloads = append(payloads, []byte(p))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	out, bad := decodeAll(payloads)
	for _, err := range bad {
		s.logger.Warn("skipping undecodable record", map[string]interface{}{
			"collection": collection,
			"error":      err,
		})
	}
	return out, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
