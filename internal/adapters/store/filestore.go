// Package store holds the telemetry store adapters. Both adapters share the
// dedupe contract of ports.TelemetryStore: a point repeating the previous
// correlation id, or landing on the same topic in the same second with an
// identical payload, reports LogReceived and is not written again.
package store

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Sindrekaurin/grefur-backend/internal/domain"
	"github.com/Sindrekaurin/grefur-backend/internal/ports"
)

const lineTimeLayout = "2006-01-02 15:04:05"

// FileStore appends telemetry points to one .log and one .csv file per
// topic. Lines are "timestamp;value", second resolution.
type FileStore struct {
	dir    string
	logger *slog.Logger

	mu              sync.Mutex
	lastCorrelation string
	lastEntries     map[string]string // topic -> "second;value" of last write
}

var _ ports.TelemetryStore = (*FileStore)(nil)

func NewFileStore(logger *slog.Logger, dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{
		dir:         dir,
		logger:      logger.With("component", "file_store"),
		lastEntries: make(map[string]string),
	}, nil
}

func (s *FileStore) Append(_ context.Context, topic string, ts time.Time, value, correlationID string) (domain.LogStatus, error) {
	stamp := ts.Format(lineTimeLayout)
	line := stamp + ";" + value

	s.mu.Lock()
	defer s.mu.Unlock()

	if correlationID != "" && correlationID == s.lastCorrelation {
		return domain.LogReceived, nil
	}
	if prev, ok := s.lastEntries[topic]; ok && prev == line {
		return domain.LogReceived, nil
	}

	for _, ext := range []string{".log", ".csv"} {
		if err := appendLine(s.pathFor(topic, ext), line); err != nil {
			return domain.LogFailed, fmt.Errorf("append %s: %w", topic, err)
		}
	}

	s.lastCorrelation = correlationID
	s.lastEntries[topic] = line
	return domain.LogCreated, nil
}

func (s *FileStore) Query(_ context.Context, topic string, start, end time.Time) ([]domain.LogPoint, error) {
	f, err := os.Open(s.pathFor(topic, ".log"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", topic, err)
	}
	defer f.Close()

	var points []domain.LogPoint
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		stamp, value, ok := strings.Cut(scanner.Text(), ";")
		if !ok {
			continue
		}
		ts, err := time.Parse(lineTimeLayout, stamp)
		if err != nil {
			continue
		}
		if ts.Before(start) || ts.After(end) {
			continue
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			continue
		}
		points = append(points, domain.LogPoint{Timestamp: ts, Value: v})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", topic, err)
	}
	return points, nil
}

// pathFor maps a topic to a flat file name; path separators in the topic
// would otherwise nest directories.
func (s *FileStore) pathFor(topic, ext string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_").Replace(topic)
	return filepath.Join(s.dir, safe+ext)
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line + "\n")
	return err
}
