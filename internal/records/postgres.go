package records

import (
	"context"
	"database/sql"
	"fmt"

	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/models"
)

const (
	insertRecordSQL = `INSERT INTO applicant_records (record_id, collection, payload, created_at) VALUES ($1, $2, $3, $4) ON CONFLICT (record_id) DO NOTHING`
	listRecordsSQL  = `SELECT payload FROM applicant_records WHERE collection = $1 ORDER BY id`
)

// PostgresStore keeps every record as a JSONB payload row.
type PostgresStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresStore(db *sql.DB, log logger.Logger) *PostgresStore {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &PostgresStore{db: db, logger: log}
}

// EnsureSchema creates the records table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	stmt, err := readDDL("postgres.sql")
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create applicant_records: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, collection string, rec models.ApplicantRecord) error {
	payload, err := encode(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, insertRecordSQL, rec.RecordID, collectionOrDefault(collection), string(payload), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, collection string) ([]models.ApplicantRecord, error) {
	rows, err := s.db.QueryContext(ctx, listRecordsSQL, collectionOrDefault(collection))
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var payloads [][]byte
	for rows.Next() {
		var p []byte
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		payloads = append(payloads, p)
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

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
