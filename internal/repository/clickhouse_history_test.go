package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"AquaWatch/internal/domain/models"
	domrepo "AquaWatch/internal/domain/repository"
	applogger "AquaWatch/pkg/logger"
)

// In-memory sql driver backing the history table, so the store's real SQL
// paths run in tests without a server.

type memRow struct {
	id     uint64
	ts     int64
	sensor string
	rf     string
	svm    string
	knn    string
}

type memStore struct {
	mu   sync.Mutex
	rows []memRow
}

type memDriver struct{ store *memStore }

func (d *memDriver) Open(string) (driver.Conn, error) {
	return &memConn{store: d.store}, nil
}

type memConn struct{ store *memStore }

func (c *memConn) Prepare(query string) (driver.Stmt, error) {
	return &memStmt{store: c.store, query: query}, nil
}
func (c *memConn) Close() error              { return nil }
func (c *memConn) Begin() (driver.Tx, error) { return nil, errors.New("transactions not supported") }

type memStmt struct {
	store *memStore
	query string
}

func (s *memStmt) Close() error  { return nil }
func (s *memStmt) NumInput() int { return -1 }

func (s *memStmt) Exec(args []driver.Value) (driver.Result, error) {
	if !strings.HasPrefix(s.query, "INSERT") {
		return driver.ResultNoRows, nil
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.rows = append(s.store.rows, memRow{
		id:     uint64(args[0].(int64)),
		ts:     args[1].(int64),
		sensor: args[2].(string),
		rf:     args[3].(string),
		svm:    args[4].(string),
		knn:    args[5].(string),
	})
	return driver.ResultNoRows, nil
}

func (s *memStmt) Query(args []driver.Value) (driver.Rows, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	rows := make([]memRow, len(s.store.rows))
	copy(rows, s.store.rows)
	if strings.Contains(s.query, "DESC") {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}
	limit := len(rows)
	if len(args) > 0 {
		if n, ok := args[len(args)-1].(int64); ok && int(n) < limit {
			limit = int(n)
		}
	}
	rows = rows[:limit]

	out := &memRows{}
	if strings.HasPrefix(s.query, "SELECT id") {
		out.cols = []string{"id", "ts", "sensor_json", "rf_json", "svm_json", "knn_json"}
		for _, r := range rows {
			out.rows = append(out.rows, []driver.Value{int64(r.id), r.ts, r.sensor, r.rf, r.svm, r.knn})
		}
	} else {
		out.cols = []string{"ts", "sensor_json", "rf_json", "svm_json", "knn_json"}
		for _, r := range rows {
			out.rows = append(out.rows, []driver.Value{r.ts, r.sensor, r.rf, r.svm, r.knn})
		}
	}
	return out, nil
}

type memRows struct {
	cols []string
	rows [][]driver.Value
	i    int
}

func (r *memRows) Columns() []string { return r.cols }
func (r *memRows) Close() error      { return nil }
func (r *memRows) Next(dest []driver.Value) error {
	if r.i >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.i])
	r.i++
	return nil
}

var memDriverSeq uint64

func newMemHistoryStore(t *testing.T) *CHHistoryStore {
	t.Helper()
	name := fmt.Sprintf("memhistory-%d", atomic.AddUint64(&memDriverSeq, 1))
	sql.Register(name, &memDriver{store: &memStore{}})
	db, err := sql.Open(name, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	log, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return &CHHistoryStore{db: db, l: log}
}

func historyRecord(ts int64, do float64) *models.HistoryRecord {
	return &models.HistoryRecord{
		TS:      ts,
		Sensors: map[string]float64{models.FieldDO: do, models.FieldTemp: 28},
		RF:      models.Continuous{DO: do, PH: 7.8, Ammonia: 0.05},
		SVM:     models.Classification{Class: 0, Label: "good", Probabilities: []float64{0.9, 0.1}},
		KNN:     models.KNNEstimate{DO: do},
	}
}

func TestHistoryAppendLatestRoundTrip(t *testing.T) {
	s := newMemHistoryStore(t)
	ctx := context.Background()

	rec := historyRecord(100, 6.2)
	id, err := s.Append(ctx, rec)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if id != 1 || rec.ID != 1 {
		t.Fatalf("expected id 1, got %d (rec.ID %d)", id, rec.ID)
	}

	got, err := s.Latest(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if !reflect.DeepEqual(got, rec) {
		t.Fatalf("latest mismatch:\n got %+v\nwant %+v", got, rec)
	}
}

func TestHistoryLatestEmpty(t *testing.T) {
	s := newMemHistoryStore(t)
	if _, err := s.Latest(context.Background()); !errors.Is(err, domrepo.ErrNoHistory) {
		t.Fatalf("expected ErrNoHistory, got %v", err)
	}
}

func TestHistoryRangeOrdering(t *testing.T) {
	s := newMemHistoryStore(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		if _, err := s.Append(ctx, historyRecord(i*10, 6.0)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	desc, err := s.Range(ctx, 10, false)
	if err != nil {
		t.Fatalf("range desc: %v", err)
	}
	if len(desc) != 3 || desc[0].ID != 3 || desc[2].ID != 1 {
		t.Fatalf("expected ids 3,2,1 most-recent-first, got %+v", idsOf(desc))
	}

	asc, err := s.Range(ctx, 10, true)
	if err != nil {
		t.Fatalf("range asc: %v", err)
	}
	if len(asc) != 3 || asc[0].ID != 1 || asc[2].ID != 3 {
		t.Fatalf("expected ids 1,2,3 ascending, got %+v", idsOf(asc))
	}

	limited, err := s.Range(ctx, 2, false)
	if err != nil {
		t.Fatalf("range limit: %v", err)
	}
	if len(limited) != 2 || limited[0].ID != 3 {
		t.Fatalf("expected 2 newest records, got %+v", idsOf(limited))
	}
}

func idsOf(recs []*models.HistoryRecord) []uint64 {
	out := make([]uint64, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestHistoryExportCSV(t *testing.T) {
	s := newMemHistoryStore(t)
	ctx := context.Background()

	for i := int64(1); i <= 2; i++ {
		if _, err := s.Append(ctx, historyRecord(i, 5.5)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	var buf strings.Builder
	if err := s.ExportCSV(ctx, 10, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "ts,sensor_json,rf_json,svm_json,knn_json" {
		t.Fatalf("bad header %q", lines[0])
	}
	// every field is quoted; embedded quotes in the JSON blobs are doubled
	if !strings.HasPrefix(lines[1], `"1","{""DO(mg/L)"`) {
		t.Fatalf("bad first row %q", lines[1])
	}
}

func TestScanHistoryRowDecodeError(t *testing.T) {
	bad := &staticScanner{values: []interface{}{uint64(1), int64(1), "not json", "{}", "{}", "{}"}}
	if _, err := scanHistoryRow(bad); err == nil {
		t.Fatalf("expected decode error for malformed sensor json")
	}
}

type staticScanner struct{ values []interface{} }

func (s *staticScanner) Scan(dest ...interface{}) error {
	for i, d := range dest {
		switch p := d.(type) {
		case *uint64:
			*p = s.values[i].(uint64)
		case *int64:
			*p = s.values[i].(int64)
		case *string:
			*p = s.values[i].(string)
		default:
			return fmt.Errorf("unexpected dest %T", d)
		}
	}
	return nil
}
