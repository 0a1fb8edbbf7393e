package healthstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"healthcore/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PostgresSchema DDL for the samples table
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS health_samples (
	sample_id     UUID PRIMARY KEY,
	sample_type   VARCHAR(32)  NOT NULL,
	start_time    TIMESTAMPTZ  NOT NULL,
	end_time      TIMESTAMPTZ  NOT NULL,
	value         DOUBLE PRECISION NOT NULL DEFAULT 0,
	source_bundle VARCHAR(255) NOT NULL,
	metadata      JSONB,
	created_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_health_samples_type_end ON health_samples (sample_type, end_time DESC);
`

// PostgresStore Store backed by the health_samples table
type PostgresStore struct {
	db      *sql.DB
	auth    *authTracker
	catalog Catalog
	logger  *zap.Logger
}

// NewPostgresStore creates the adapter; the pool is owned by the caller.
func NewPostgresStore(db *sql.DB, logger *zap.Logger) *PostgresStore {
	c := DefaultCatalog()
	return &PostgresStore{
		db:      db,
		auth:    newAuthTracker(c),
		catalog: c,
		logger:  logger,
	}
}

// ensure interface is implemented
var _ Store = (*PostgresStore)(nil)

// EnsureSchema creates the table and index when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("failed to create health_samples schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Authorize(_ context.Context, read, write []models.SampleType) error {
	return s.auth.grant(read, write)
}

func (s *PostgresStore) AuthorizationStatus(t models.SampleType) AuthorizationStatus {
	return s.auth.get(t)
}

func (s *PostgresStore) Capabilities() Catalog {
	return s.catalog.Clone()
}

// Query returns samples of q.Type intersecting q.Interval.
func (s *PostgresStore) Query(ctx context.Context, q Query) ([]models.Sample, error) {
	if err := validateQuery(s.catalog, q); err != nil {
		return nil, err
	}

	query := `
		SELECT
			sample_id::text,
			sample_type,
			start_time,
			end_time,
			value,
			source_bundle,
			COALESCE(metadata::text, '')
		FROM health_samples
		WHERE sample_type = $1
		  AND end_time >= $2
		  AND start_time <= $3`
	args := []interface{}{string(q.Type), q.Interval.Start, q.Interval.End}

	if q.Source.BundlePrefix != "" {
		args = append(args, likePrefix(q.Source.BundlePrefix))
		query += ` AND source_bundle LIKE $` + strconv.Itoa(len(args)) + ` ESCAPE '\'`
	}
	query += " " + orderClause(q.Sort)
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s samples: %w", q.Type, err)
	}
	defer rows.Close()

	samples := make([]models.Sample, 0)
	for rows.Next() {
		var (
			sample     models.Sample
			sampleType string
			metadata   string
		)
		if err := rows.Scan(
			&sample.ID,
			&sampleType,
			&sample.Start,
			&sample.End,
			&sample.Value,
			&sample.SourceBundle,
			&metadata,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		sample.Type = models.SampleType(sampleType)
		if sample.Metadata, err = unmarshalMetadata(metadata); err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate samples: %w", err)
	}

	return samples, nil
}

// Write inserts samples in one transaction.
func (s *PostgresStore) Write(ctx context.Context, samples []models.Sample) error {
	if err := s.auth.checkWrite(samples); err != nil {
		return err
	}
	if len(samples) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO health_samples (
			sample_id, sample_type, start_time, end_time, value, source_bundle, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for _, sample := range samples {
		id := sample.ID
		if id == "" {
			id = uuid.NewString()
		}
		md, err := marshalMetadata(sample.Metadata)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query,
			id, string(sample.Type), sample.Start, sample.End, sample.Value, sample.SourceBundle, md,
		); err != nil {
			return fmt.Errorf("failed to insert %s sample: %w", sample.Type, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit samples: %w", err)
	}

	s.logger.Debug("Wrote health samples", zap.Int("count", len(samples)))
	return nil
}
