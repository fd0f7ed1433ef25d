package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/Sindrekaurin/grefur-backend/internal/domain"
)

func TestTimescaleAppend(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	s := NewTimescaleStore(db, "telemetry")
	ts := time.Date(2026, 3, 1, 12, 0, 0, 500, time.UTC)

	expected := regexp.QuoteMeta(
		"INSERT INTO telemetry (topic, ts, value, correlation_id) VALUES ($1,$2,$3,$4) ON CONFLICT (topic, ts) DO NOTHING")
	mock.ExpectExec(expected).
		WithArgs("a/value", ts.Truncate(time.Second), 21.5, "corr-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	status, err := s.Append(context.Background(), "a/value", ts, "21.5", "corr-1")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if status != domain.LogCreated {
		t.Fatalf("status = %s, want created", status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTimescaleAppendDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	s := NewTimescaleStore(db, "telemetry")
	mock.ExpectExec("INSERT INTO telemetry").
		WillReturnResult(sqlmock.NewResult(0, 0))

	status, err := s.Append(context.Background(), "a/value", time.Now(), "1", "corr-1")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if status != domain.LogReceived {
		t.Fatalf("conflicting insert must report LogReceived, got %s", status)
	}
}

func TestTimescaleAppendRejectsNonNumeric(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	s := NewTimescaleStore(db, "telemetry")
	status, err := s.Append(context.Background(), "a/value", time.Now(), "warm", "corr-1")
	if err == nil {
		t.Fatalf("expected error for non-numeric value")
	}
	if status != domain.LogFailed {
		t.Fatalf("status = %s, want failed", status)
	}
}

func TestTimescaleQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	s := NewTimescaleStore(db, "telemetry")
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	rows := sqlmock.NewRows([]string{"ts", "value"}).
		AddRow(start.Add(time.Hour), 20.0).
		AddRow(start.Add(2*time.Hour), 21.0)
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT ts, value FROM telemetry WHERE topic = $1 AND ts >= $2 AND ts <= $3 ORDER BY ts ASC")).
		WithArgs("a/value", start, end).
		WillReturnRows(rows)

	points, err := s.Query(context.Background(), "a/value", start, end)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(points) != 2 || points[1].Value != 21.0 {
		t.Fatalf("unexpected points %+v", points)
	}
}
