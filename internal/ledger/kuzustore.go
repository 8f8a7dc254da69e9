//go:build cgo

package ledger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore implements Store on KuzuDB, keeping the ledger as a property
// graph: Item nodes joined by PRECEDES relationships. It requires CGO
// because the go-kuzu driver wraps KuzuDB's C library.
type KuzuStore struct {
	mu   sync.Mutex // serializes use of conn
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory database.
func NewKuzuStore() (*KuzuStore, error) {
	return openKuzuDB(":memory:")
}

// NewKuzuFileStore creates a KuzuStore persisted in the directory dbPath.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openKuzuDB(dbPath)
}

func openKuzuDB(path string) (*KuzuStore, error) {
	db, err := kuzu.OpenDatabase(path, kuzu.DefaultSystemConfig())
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the connection and database.
func (s *KuzuStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	if s.db != nil {
		s.db.Close()
		s.db = nil
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements must create node tables before relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Run(
		id STRING,
		instruction STRING,
		item_count INT64,
		status STRING,
		comparisons INT64,
		error STRING,
		started_at INT64,
		finished_at INT64,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Item(
		id STRING,
		run_id STRING,
		idx INT64,
		content STRING,
		PRIMARY KEY(id)
	)`,
	`CREATE REL TABLE IF NOT EXISTS PRECEDES(
		FROM Item TO Item,
		run_id STRING,
		seq INT64,
		depth INT64,
		memoized BOOLEAN
	)`,
}

// InitSchema creates all tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// ---------- Write operations ----------

// AddRun upserts a Run node.
func (s *KuzuStore) AddRun(_ context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exec(
		`MERGE (r:Run {id: $id})
		 SET r.instruction = $instruction, r.item_count = $items, r.status = $status,
		     r.comparisons = $comparisons, r.error = $error,
		     r.started_at = $started, r.finished_at = $finished`,
		map[string]any{
			"id":          run.ID,
			"instruction": run.Instruction,
			"items":       int64(run.ItemCount),
			"status":      string(run.Status),
			"comparisons": run.Comparisons,
			"error":       run.Error,
			"started":     unixNano(run.StartedAt),
			"finished":    unixNano(run.FinishedAt),
		},
	)
}

// AddItem inserts an Item node.
func (s *KuzuStore) AddItem(_ context.Context, item ItemNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.count("MATCH (r:Run) WHERE r.id = $id RETURN count(r)", map[string]any{"id": item.RunID})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("ledger: add item: unknown run %q", item.RunID)
	}
	return s.exec(
		"CREATE (i:Item {id: $id, run_id: $run, idx: $idx, content: $content})",
		map[string]any{
			"id":      item.ID(),
			"run":     item.RunID,
			"idx":     int64(item.Index),
			"content": item.Text,
		},
	)
}

// AddOutcome inserts a PRECEDES relationship from winner to loser.
func (s *KuzuStore) AddOutcome(_ context.Context, o Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, l := ItemID(o.RunID, o.Winner), ItemID(o.RunID, o.Loser)
	n, err := s.count("MATCH (i:Item) WHERE i.id = $w OR i.id = $l RETURN count(i)", map[string]any{"w": w, "l": l})
	if err != nil {
		return err
	}
	if n != 2 {
		return fmt.Errorf("ledger: add outcome: unknown item in %s -> %s", w, l)
	}
	return s.exec(
		`MATCH (w:Item), (l:Item) WHERE w.id = $w AND l.id = $l
		 CREATE (w)-[:PRECEDES {run_id: $run, seq: $seq, depth: $depth, memoized: $memo}]->(l)`,
		map[string]any{
			"w":     w,
			"l":     l,
			"run":   o.RunID,
			"seq":   o.Seq,
			"depth": int64(o.Depth),
			"memo":  o.Memoized,
		},
	)
}

// ---------- Read operations ----------

const runColumns = "r.id, r.instruction, r.item_count, r.status, r.comparisons, r.error, r.started_at, r.finished_at"

// GetRun returns the run with the given ID, or nil if not found.
func (s *KuzuStore) GetRun(_ context.Context, id string) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.query("MATCH (r:Run) WHERE r.id = $id RETURN "+runColumns, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	run := rowToRun(rows[0])
	return &run, nil
}

// ListRuns returns all runs ordered by start time.
func (s *KuzuStore) ListRuns(_ context.Context) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.query("MATCH (r:Run) RETURN "+runColumns+" ORDER BY r.started_at, r.id", nil)
	if err != nil {
		return nil, err
	}
	runs := make([]Run, 0, len(rows))
	for _, r := range rows {
		runs = append(runs, rowToRun(r))
	}
	return runs, nil
}

// Items returns the run's items ordered by index.
func (s *KuzuStore) Items(_ context.Context, runID string) ([]ItemNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.query(
		"MATCH (i:Item) WHERE i.run_id = $run RETURN i.idx, i.content ORDER BY i.idx",
		map[string]any{"run": runID},
	)
	if err != nil {
		return nil, err
	}
	items := make([]ItemNode, 0, len(rows))
	for _, r := range rows {
		items = append(items, ItemNode{RunID: runID, Index: toInt(r[0]), Text: toString(r[1])})
	}
	return items, nil
}

// Outcomes returns the run's PRECEDES edges ordered by sequence number.
func (s *KuzuStore) Outcomes(_ context.Context, runID string) ([]Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.query(
		`MATCH (w:Item)-[p:PRECEDES]->(l:Item) WHERE p.run_id = $run
		 RETURN p.seq, w.idx, l.idx, p.depth, p.memoized ORDER BY p.seq`,
		map[string]any{"run": runID},
	)
	if err != nil {
		return nil, err
	}
	out := make([]Outcome, 0, len(rows))
	for _, r := range rows {
		out = append(out, Outcome{
			RunID:    runID,
			Seq:      int64(toInt(r[0])),
			Winner:   toInt(r[1]),
			Loser:    toInt(r[2]),
			Depth:    toInt(r[3]),
			Memoized: toBool(r[4]),
		})
	}
	return out, nil
}

// Stats returns node and relationship counts.
func (s *KuzuStore) Stats(_ context.Context) (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	runs, err := s.count("MATCH (r:Run) RETURN count(r)", nil)
	if err != nil {
		return nil, err
	}
	items, err := s.count("MATCH (i:Item) RETURN count(i)", nil)
	if err != nil {
		return nil, err
	}
	edges, err := s.count("MATCH ()-[p:PRECEDES]->() RETURN count(p)", nil)
	if err != nil {
		return nil, err
	}
	return &Stats{RunCount: runs, ItemCount: items, OutcomeCount: edges}, nil
}

// ---------- Internal helpers ----------

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a Cypher statement and collects all rows in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// count runs a single-value count query.
func (s *KuzuStore) count(cypher string, params map[string]any) (int, error) {
	rows, err := s.query(cypher, params)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

// rowToRun converts a row selected with runColumns.
func rowToRun(r []any) Run {
	return Run{
		ID:          toString(r[0]),
		Instruction: toString(r[1]),
		ItemCount:   toInt(r[2]),
		Status:      RunStatus(toString(r[3])),
		Comparisons: int64(toInt(r[4])),
		Error:       toString(r[5]),
		StartedAt:   fromUnixNano(toInt(r[6])),
		FinishedAt:  fromUnixNano(toInt(r[7])),
	}
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, int64(n))
}

// ---------- Type coercion helpers ----------

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func toBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}
