package relation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"unicode/utf8"
)

const (
	tmpSuffix        = ".tmp"
	quarantineSuffix = ".corrupt-"
	quarantineLayout = "20060102T150405.000000000Z"
)

// Store owns the relation table and the JSON file it is persisted to.
// Every read and mutation runs under one mutex, and every mutation is
// written through to disk before the method returns.
//
// Records that were loaded but not yet accessed stay in their raw form and
// are written back verbatim, so one damaged entry never costs the others.
type Store struct {
	path string
	opts Options

	mu       sync.Mutex
	records  map[string]*Record
	raw      map[string]json.RawMessage
	closed   bool
	readOnly bool
}

// Open validates opts, ensures the parent directory exists and loads path.
func Open(path string, opts Options) (*Store, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	return open(path, opts, false)
}

// OpenReadOnly loads path for inspection by another process. The store never
// writes, renames or mutates: unreadable files load as an empty table and
// every mutation is refused with a warning.
func OpenReadOnly(path string, opts Options) (*Store, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return open(path, opts, true)
}

func open(path string, opts Options, readOnly bool) (*Store, error) {
	s := &Store{
		path:     path,
		opts:     opts,
		records:  make(map[string]*Record),
		raw:      make(map[string]json.RawMessage),
		readOnly: readOnly,
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Options() Options { return s.opts }

// Load replaces the in-memory table with the file contents. A missing file
// gives an empty table. A file that cannot be decoded is renamed aside to a
// timestamped sibling and the table starts empty. Only I/O failures (the
// file exists but cannot be read, or cannot be moved aside) are returned.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*Record)
	s.raw = make(map[string]json.RawMessage)

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", s.path, err)
	}
	table, err := decodeTable(data)
	if err != nil && s.readOnly {
		log.Printf("warning: relation: %s is unreadable (%v), treating as empty", s.path, err)
		return nil
	}
	if err != nil {
		dst, qerr := s.quarantineLocked()
		if qerr != nil {
			return fmt.Errorf("quarantine corrupt %s: %w", s.path, qerr)
		}
		log.Printf("warning: relation: %s is unreadable (%v), moved to %s, starting empty", s.path, err, dst)
		return nil
	}
	s.raw = table
	return nil
}

func decodeTable(data []byte) (map[string]json.RawMessage, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty file")
	}
	if !utf8.Valid(data) {
		return nil, errors.New("invalid utf-8")
	}
	var table map[string]json.RawMessage
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, err
	}
	if table == nil {
		return nil, errors.New("top-level value is null")
	}
	return table, nil
}

func (s *Store) quarantineLocked() (string, error) {
	dst := s.path + quarantineSuffix + s.opts.now().UTC().Format(quarantineLayout)
	if err := os.Rename(s.path, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// Save writes the whole table to a temporary sibling file and renames it
// over the target, so readers only ever see a complete file.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	if s.readOnly {
		return ErrReadOnly
	}
	out := make(map[string]json.RawMessage, len(s.raw)+len(s.records))
	for id, raw := range s.raw {
		out[id] = raw
	}
	for id, rec := range s.records {
		b, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode record %s: %w", id, err)
		}
		out[id] = b
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode table: %w", err)
	}
	data = append(data, '\n')

	tmp := s.path + tmpSuffix
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open temp: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename temp: %w", err)
	}
	return nil
}

// persistLocked is the write-through used after mutations: failures are
// logged and the in-memory table stays authoritative until the next save.
func (s *Store) persistLocked() {
	if s.readOnly {
		return
	}
	if err := s.saveLocked(); err != nil {
		log.Printf("warning: relation: save %s: %v", s.path, err)
	}
}

// Close performs the final save. Mutations after Close are ignored.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.readOnly {
		return nil
	}
	return s.saveLocked()
}

// getLocked returns the live record for userID, creating or resetting it
// when needed. The bool reports whether the table changed.
func (s *Store) getLocked(userID string) (*Record, bool) {
	if rec, ok := s.records[userID]; ok {
		return rec, false
	}
	if raw, ok := s.raw[userID]; ok {
		delete(s.raw, userID)
		rec, err := Repair(userID, raw, s.opts)
		if err == nil {
			s.records[userID] = &rec
			return &rec, false
		}
		log.Printf("warning: relation: resetting record %s: %v", userID, err)
		fresh := NewRecord(userID, s.opts)
		s.records[userID] = &fresh
		return &fresh, true
	}
	fresh := NewRecord(userID, s.opts)
	s.records[userID] = &fresh
	return &fresh, true
}

// GetOrCreate returns a copy of the record for userID. Absent records are
// created with the initial score; malformed ones are reset to defaults.
func (s *Store) GetOrCreate(userID string) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, changed := s.getLocked(userID)
	if changed && !s.closed {
		s.persistLocked()
	}
	return rec.Clone()
}

// Lookup returns a copy of a known record without creating or saving
// anything. Malformed entries are reset in memory only.
func (s *Store) Lookup(userID string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, inRecords := s.records[userID]
	_, inRaw := s.raw[userID]
	if !inRecords && !inRaw {
		return Record{}, false
	}
	rec, _ := s.getLocked(userID)
	return rec.Clone(), true
}

// mutate runs fn against the live record and saves when fn reports a change.
func (s *Store) mutate(userID string, fn func(r *Record) bool) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, created := s.getLocked(userID)
	if s.closed || s.readOnly {
		err := ErrClosed
		if s.readOnly {
			err = ErrReadOnly
		}
		log.Printf("warning: relation: %s: %v", userID, err)
		return rec.Clone()
	}
	if fn(rec) || created {
		s.persistLocked()
	}
	return rec.Clone()
}

// Touch counts an interaction and refreshes LastInteraction.
func (s *Store) Touch(userID string) Record {
	return s.mutate(userID, func(r *Record) bool {
		touch(r, s.opts.now().UTC())
		return true
	})
}

// Apply adds delta to the user's score and returns the clamped change.
// Nothing is written when the change is zero.
func (s *Store) Apply(userID string, delta int, reason string) (int, Record) {
	var actual int
	rec := s.mutate(userID, func(r *Record) bool {
		actual = ApplyDelta(r, delta, reason, s.opts.now().UTC(), s.opts)
		return actual != 0
	})
	return actual, rec
}

// SetScore overrides the score. The change is still recorded as an
// adjustment so the history keeps summing to the score.
func (s *Store) SetScore(userID string, score int, reason string) (int, Record) {
	var actual int
	rec := s.mutate(userID, func(r *Record) bool {
		target := s.opts.clamp(score)
		actual = ApplyDelta(r, target-r.Score, reason, s.opts.now().UTC(), s.opts)
		return actual != 0
	})
	return actual, rec
}

func (s *Store) SetNote(userID, note string) Record {
	return s.mutate(userID, func(r *Record) bool {
		if r.CustomNote == note {
			return false
		}
		r.CustomNote = note
		return true
	})
}

func (s *Store) ClearNote(userID string) Record {
	return s.SetNote(userID, "")
}

// All returns copies of every record ordered by user ID. Records still in
// raw form are repaired on the way, exactly as GetOrCreate would.
func (s *Store) All() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	for id := range s.raw {
		if _, c := s.getLocked(id); c {
			changed = true
		}
	}
	if changed && !s.closed {
		s.persistLocked()
	}
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Len reports how many users the table knows about.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records) + len(s.raw)
}
