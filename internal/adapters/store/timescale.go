package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	_ "github.com/lib/pq"

	"github.com/Sindrekaurin/grefur-backend/internal/domain"
	"github.com/Sindrekaurin/grefur-backend/internal/ports"
)

// TimescaleStore writes telemetry points to a hypertable keyed on
// (topic, ts). Timestamps are truncated to the second, so the unique key
// doubles as the same-second dedupe: conflicting inserts affect zero rows
// and report LogReceived.
type TimescaleStore struct {
	db    *sql.DB
	table string
}

var _ ports.TelemetryStore = (*TimescaleStore)(nil)

func NewTimescaleStore(db *sql.DB, table string) *TimescaleStore {
	if table == "" {
		table = "telemetry"
	}
	return &TimescaleStore{db: db, table: table}
}

// Open dials the database and verifies the connection.
func Open(ctx context.Context, connString, table string) (*TimescaleStore, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("open timescale: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping timescale: %w", err)
	}
	return NewTimescaleStore(db, table), nil
}

func (s *TimescaleStore) Append(ctx context.Context, topic string, ts time.Time, value, correlationID string) (domain.LogStatus, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return domain.LogFailed, fmt.Errorf("non-numeric value %q on %s: %w", value, topic, err)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (topic, ts, value, correlation_id) VALUES ($1,$2,$3,$4) ON CONFLICT (topic, ts) DO NOTHING",
		s.table)
	res, err := s.db.ExecContext(ctx, query, topic, ts.Truncate(time.Second), v, correlationID)
	if err != nil {
		return domain.LogFailed, fmt.Errorf("insert %s: %w", topic, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.LogFailed, err
	}
	if affected == 0 {
		return domain.LogReceived, nil
	}
	return domain.LogCreated, nil
}

func (s *TimescaleStore) Query(ctx context.Context, topic string, start, end time.Time) ([]domain.LogPoint, error) {
	query := fmt.Sprintf(
		"SELECT ts, value FROM %s WHERE topic = $1 AND ts >= $2 AND ts <= $3 ORDER BY ts ASC",
		s.table)
	rows, err := s.db.QueryContext(ctx, query, topic, start, end)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", topic, err)
	}
	defer rows.Close()

	var points []domain.LogPoint
	for rows.Next() {
		var p domain.LogPoint
		if err := rows.Scan(&p.Timestamp, &p.Value); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (s *TimescaleStore) Close() error { return s.db.Close() }
