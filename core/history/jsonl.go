package history

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// JSONLStore keeps one record per line in a file. With rotation enabled the
// file is rolled over by size and older records are read from the backups.
type JSONLStore struct {
	path    string
	mu      sync.Mutex
	rotator *lumberjack.Logger
}

// NewJSONLStore creates the file when missing.
func NewJSONLStore(path string) (*JSONLStore, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	if cerr := f.Close(); cerr != nil {
		return nil, cerr
	}
	return &JSONLStore{path: path}, nil
}

// NewRotatingJSONLStore creates a store whose file rotates once it exceeds
// maxSizeMB. Backups beyond maxBackups or older than maxAgeDays are pruned;
// zero keeps them all.
func NewRotatingJSONLStore(path string, maxSizeMB, maxBackups, maxAgeDays int) (*JSONLStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	s, err := NewJSONLStore(path)
	if err != nil {
		return nil, err
	}
	s.rotator = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}
	return s, nil
}

func (s *JSONLStore) Save(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rotator != nil {
		return json.NewEncoder(s.rotator).Encode(rec)
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return json.NewEncoder(f).Encode(rec)
}

// files lists rotated backups oldest first, followed by the live file.
func (s *JSONLStore) files() []string {
	if s.rotator == nil {
		return []string{s.path}
	}
	ext := filepath.Ext(s.path)
	prefix := strings.TrimSuffix(s.path, ext)
	backups, _ := filepath.Glob(prefix + "-*" + ext)
	sort.Strings(backups)
	return append(backups, s.path)
}

// readAll returns the records newest first. Undecodable lines are skipped.
func (s *JSONLStore) readAll() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Record
	for _, path := range s.files() {
		recs, err := readFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	// file order is append order; reverse it before the stable sort so ties
	// keep the most recent write first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].GeneratedAt.After(out[j].GeneratedAt) })
	return out, nil
}

func readFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	var out []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var r Record
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			continue
		}
		out = append(out, r)
	}
	return out, scanner.Err()
}

func (s *JSONLStore) Latest(ctx context.Context) (Record, error) {
	recs, err := s.readAll()
	if err != nil {
		return Record{}, err
	}
	if len(recs) == 0 {
		return Record{}, ErrNotFound
	}
	return recs[0], nil
}

func (s *JSONLStore) Get(ctx context.Context, id string) (Record, error) {
	recs, err := s.readAll()
	if err != nil {
		return Record{}, err
	}
	for _, r := range recs {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, ErrNotFound
}

func (s *JSONLStore) List(ctx context.Context, p Page) ([]Summary, int, error) {
	recs, err := s.readAll()
	if err != nil {
		return nil, 0, err
	}
	p = p.Normalize()
	total := len(recs)
	start := min(p.Offset(), total)
	end := min(start+p.Limit, total)
	out := make([]Summary, 0, end-start)
	for _, r := range recs[start:end] {
		out = append(out, r.Summarize())
	}
	return out, total, nil
}

func (s *JSONLStore) Close() error {
	if s.rotator != nil {
		return s.rotator.Close()
	}
	return nil
}
