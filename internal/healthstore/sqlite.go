package healthstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"healthcore/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteSchema DDL for the file-backed store; times are unix nanoseconds.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS health_samples (
	sample_id     TEXT PRIMARY KEY,
	sample_type   TEXT    NOT NULL,
	start_time    INTEGER NOT NULL,
	end_time      INTEGER NOT NULL,
	value         REAL    NOT NULL DEFAULT 0,
	source_bundle TEXT    NOT NULL,
	metadata      TEXT
);
CREATE INDEX IF NOT EXISTS idx_health_samples_type_end ON health_samples (sample_type, end_time);
`

// SQLiteStore Store over a local SQLite file, used by sleepctl.
type SQLiteStore struct {
	db      *sql.DB
	auth    *authTracker
	catalog Catalog
	logger  *zap.Logger
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLiteStore opens (or creates) the database at path and ensures the schema.
func OpenSQLiteStore(ctx context.Context, path string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	// single writer
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, SQLiteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create sqlite schema: %w", err)
	}

	c := DefaultCatalog()
	return &SQLiteStore{
		db:      db,
		auth:    newAuthTracker(c),
		catalog: c,
		logger:  logger,
	}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Authorize(_ context.Context, read, write []models.SampleType) error {
	return s.auth.grant(read, write)
}

func (s *SQLiteStore) AuthorizationStatus(t models.SampleType) AuthorizationStatus {
	return s.auth.get(t)
}

func (s *SQLiteStore) Capabilities() Catalog {
	return s.catalog.Clone()
}

func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]models.Sample, error) {
	if err := validateQuery(s.catalog, q); err != nil {
		return nil, err
	}

	query := `
		SELECT sample_id, sample_type, start_time, end_time, value, source_bundle, COALESCE(metadata, '')
		FROM health_samples
		WHERE sample_type = ? AND end_time >= ? AND start_time <= ?`
	args := []interface{}{string(q.Type), q.Interval.Start.UnixNano(), q.Interval.End.UnixNano()}

	if q.Source.BundlePrefix != "" {
		query += ` AND source_bundle LIKE ? ESCAPE '\'`
		args = append(args, likePrefix(q.Source.BundlePrefix))
	}
	query += " " + orderClause(q.Sort)
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
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
			start, end int64
			metadata   string
		)
		if err := rows.Scan(&sample.ID, &sampleType, &start, &end, &sample.Value, &sample.SourceBundle, &metadata); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		sample.Type = models.SampleType(sampleType)
		sample.Start = time.Unix(0, start).UTC()
		sample.End = time.Unix(0, end).UTC()
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

func (s *SQLiteStore) Write(ctx context.Context, samples []models.Sample) error {
	if err := s.auth.checkWrite(samples); err != nil {
		return err
	}
	return s.insert(ctx, samples)
}

// Import stores samples without authorization checks, as if another app wrote them.
func (s *SQLiteStore) Import(ctx context.Context, samples []models.Sample) error {
	for _, sample := range samples {
		if !sample.Type.Valid() {
			return fmt.Errorf("%w: %q", ErrUnsupportedType, sample.Type)
		}
	}
	return s.insert(ctx, samples)
}

func (s *SQLiteStore) insert(ctx context.Context, samples []models.Sample) error {
	if len(samples) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO health_samples (sample_id, sample_type, start_time, end_time, value, source_bundle, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, sample := range samples {
		id := sample.ID
		if id == "" {
			id = uuid.NewString()
		}
		md, err := marshalMetadata(sample.Metadata)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, id, string(sample.Type),
			sample.Start.UnixNano(), sample.End.UnixNano(), sample.Value, sample.SourceBundle, md); err != nil {
			return fmt.Errorf("failed to insert %s sample: %w", sample.Type, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit samples: %w", err)
	}
	s.logger.Debug("Stored health samples", zap.Int("count", len(samples)))
	return nil
}
