package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"AquaWatch/internal/domain/models"
	domrepo "AquaWatch/internal/domain/repository"
	pkgch "AquaWatch/pkg/clickhouse"
	applogger "AquaWatch/pkg/logger"
)

const historyTable = "pond_history"

var historySchema = []string{
	`CREATE TABLE IF NOT EXISTS pond_history (
        id          UInt64,
        ts          Int64,
        sensor_json String,
        rf_json     String,
        svm_json    String,
        knn_json    String
    ) ENGINE = MergeTree() ORDER BY id`,
}

// CHHistoryStore implements HistoryStore backed by ClickHouse. ClickHouse
// has no autoincrement, so ids come from an in-process counter seeded from
// the table maximum at startup.
type CHHistoryStore struct {
	client *pkgch.Client
	db     *sql.DB
	l      *applogger.Logger
	nextID uint64
}

// NewCHHistoryStore creates the history table when missing and seeds the id
// counter.
func NewCHHistoryStore(ch *pkgch.Client, l *applogger.Logger) (*CHHistoryStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := ch.InitSchema(ctx, historySchema); err != nil {
		return nil, fmt.Errorf("history schema: %w", err)
	}

	s := &CHHistoryStore{client: ch, db: ch.DB(), l: l}

	var maxID uint64
	row := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT max(id) FROM %s", historyTable))
	if err := row.Scan(&maxID); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("seed history id: %w", err)
	}
	atomic.StoreUint64(&s.nextID, maxID)

	return s, nil
}

func (s *CHHistoryStore) Append(ctx context.Context, rec *models.HistoryRecord) (uint64, error) {
	start := time.Now()

	sensorJSON, err := json.Marshal(rec.Sensors)
	if err != nil {
		return 0, fmt.Errorf("marshal sensors: %w", err)
	}
	rfJSON, err := json.Marshal(rec.RF)
	if err != nil {
		return 0, fmt.Errorf("marshal rf: %w", err)
	}
	svmJSON, err := json.Marshal(rec.SVM)
	if err != nil {
		return 0, fmt.Errorf("marshal svm: %w", err)
	}
	knnJSON, err := json.Marshal(rec.KNN)
	if err != nil {
		return 0, fmt.Errorf("marshal knn: %w", err)
	}

	id := atomic.AddUint64(&s.nextID, 1)
	q := fmt.Sprintf(
		"INSERT INTO %s (id, ts, sensor_json, rf_json, svm_json, knn_json) VALUES (?, ?, ?, ?, ?, ?)",
		historyTable)
	if _, err := s.db.ExecContext(ctx, q,
		id, rec.TS, string(sensorJSON), string(rfJSON), string(svmJSON), string(knnJSON)); err != nil {
		s.l.Error("history append failed",
			applogger.Int64("ts", rec.TS),
			applogger.Error(err))
		return 0, fmt.Errorf("append history: %w", err)
	}

	rec.ID = id
	s.l.Debug("history appended",
		applogger.Int64("id", int64(id)),
		applogger.Duration("duration_ms", time.Since(start)))
	return id, nil
}

func (s *CHHistoryStore) Latest(ctx context.Context) (*models.HistoryRecord, error) {
	recs, err := s.Range(ctx, 1, false)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, domrepo.ErrNoHistory
	}
	return recs[0], nil
}

func (s *CHHistoryStore) Range(ctx context.Context, limit int, ascending bool) ([]*models.HistoryRecord, error) {
	order := "DESC"
	if ascending {
		order = "ASC"
	}
	q := fmt.Sprintf(
		"SELECT id, ts, sensor_json, rf_json, svm_json, knn_json FROM %s ORDER BY id %s LIMIT ?",
		historyTable, order)

	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make([]*models.HistoryRecord, 0, limit)
	for rows.Next() {
		rec, err := scanHistoryRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history rows: %w", err)
	}
	return out, nil
}

// ExportCSV streams rows into w row by row. The export never materializes
// the full result set, so arbitrarily large histories stay flat on memory.
func (s *CHHistoryStore) ExportCSV(ctx context.Context, limit int, w io.Writer) error {
	q := fmt.Sprintf(
		"SELECT ts, sensor_json, rf_json, svm_json, knn_json FROM %s ORDER BY id ASC LIMIT ?",
		historyTable)

	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return fmt.Errorf("query history csv: %w", err)
	}
	defer rows.Close()

	if _, err := io.WriteString(w, "ts,sensor_json,rf_json,svm_json,knn_json\n"); err != nil {
		return err
	}

	for rows.Next() {
		var ts int64
		var sensorJSON, rfJSON, svmJSON, knnJSON string
		if err := rows.Scan(&ts, &sensorJSON, &rfJSON, &svmJSON, &knnJSON); err != nil {
			return fmt.Errorf("scan history csv: %w", err)
		}
		line := strings.Join([]string{
			csvQuote(strconv.FormatInt(ts, 10)),
			csvQuote(sensorJSON),
			csvQuote(rfJSON),
			csvQuote(svmJSON),
			csvQuote(knnJSON),
		}, ",") + "\n"
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *CHHistoryStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

func (s *CHHistoryStore) Close() error {
	return s.client.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanHistoryRow(row rowScanner) (*models.HistoryRecord, error) {
	var rec models.HistoryRecord
	var sensorJSON, rfJSON, svmJSON, knnJSON string
	if err := row.Scan(&rec.ID, &rec.TS, &sensorJSON, &rfJSON, &svmJSON, &knnJSON); err != nil {
		return nil, fmt.Errorf("scan history: %w", err)
	}
	if err := json.Unmarshal([]byte(sensorJSON), &rec.Sensors); err != nil {
		return nil, fmt.Errorf("decode sensors: %w", err)
	}
	if err := json.Unmarshal([]byte(rfJSON), &rec.RF); err != nil {
		return nil, fmt.Errorf("decode rf: %w", err)
	}
	if err := json.Unmarshal([]byte(svmJSON), &rec.SVM); err != nil {
		return nil, fmt.Errorf("decode svm: %w", err)
	}
	if err := json.Unmarshal([]byte(knnJSON), &rec.KNN); err != nil {
		return nil, fmt.Errorf("decode knn: %w", err)
	}
	return &rec, nil
}

// csvQuote wraps a field in double quotes and doubles embedded quotes. Every
// field is quoted, including plain numbers.
func csvQuote(field string) string {
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}
