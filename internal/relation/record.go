// Package relation keeps the per-user affinity records and their JSON file.
package relation

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidRecord  = errors.New("invalid relation record")
	ErrInvalidOptions = errors.New("invalid relation options")
	ErrClosed         = errors.New("relation store is closed")
	ErrReadOnly       = errors.New("relation store is read-only")
)

// Adjustment is one applied score change. Delta is the change after clamping.
type Adjustment struct {
	Timestamp time.Time `json:"timestamp"`
	Delta     int       `json:"delta"`
	Reason    string    `json:"reason"`
}

// Record is the affinity state of a single user.
type Record struct {
	UserID           string       `json:"user_id"`
	Score            int          `json:"score"`
	History          []Adjustment `json:"history"`
	LastInteraction  time.Time    `json:"last_interaction"`
	CustomNote       string       `json:"custom_note"`
	InteractionCount int          `json:"interaction_count"`
}

// Options holds the score bounds and history size shared by the store and the updater.
type Options struct {
	MinScore     int
	MaxScore     int
	InitialScore int
	HistoryLimit int
	// Now is used for timestamps; defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions mirrors the bot defaults: 0..100, start at 50, last 50 changes.
func DefaultOptions() Options {
	return Options{MinScore: 0, MaxScore: 100, InitialScore: 50, HistoryLimit: 50}
}

func (o Options) validate() error {
	if o.MinScore >= o.MaxScore {
		return fmt.Errorf("%w: min score %d must be below max score %d", ErrInvalidOptions, o.MinScore, o.MaxScore)
	}
	if o.InitialScore < o.MinScore || o.InitialScore > o.MaxScore {
		return fmt.Errorf("%w: initial score %d outside [%d, %d]", ErrInvalidOptions, o.InitialScore, o.MinScore, o.MaxScore)
	}
	if o.HistoryLimit <= 0 {
		return fmt.Errorf("%w: history limit must be positive, got %d", ErrInvalidOptions, o.HistoryLimit)
	}
	return nil
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o Options) clamp(score int) int {
	if score < o.MinScore {
		return o.MinScore
	}
	if score > o.MaxScore {
		return o.MaxScore
	}
	return score
}

// NewRecord returns the default record for a user seen for the first time.
func NewRecord(userID string, opts Options) Record {
	return Record{
		UserID:          userID,
		Score:           opts.InitialScore,
		History:         []Adjustment{},
		LastInteraction: opts.now().UTC(),
	}
}

// Clone returns a deep copy so callers never share the history slice with the table.
func (r Record) Clone() Record {
	out := r
	out.History = make([]Adjustment, len(r.History))
	copy(out.History, r.History)
	return out
}

// Recent returns up to n newest history entries, oldest first.
func (r Record) Recent(n int) []Adjustment {
	if n <= 0 || len(r.History) == 0 {
		return nil
	}
	if len(r.History) <= n {
		return r.History
	}
	return r.History[len(r.History)-n:]
}

// rawRecord mirrors the on-disk layout with every field left undecoded,
// so that presence and type can be checked one field at a time.
type rawRecord struct {
	UserID           json.RawMessage `json:"user_id"`
	Score            json.RawMessage `json:"score"`
	History          json.RawMessage `json:"history"`
	LastInteraction  json.RawMessage `json:"last_interaction"`
	CustomNote       json.RawMessage `json:"custom_note"`
	InteractionCount json.RawMessage `json:"interaction_count"`

	// legacy key for score
	Evaluation json.RawMessage `json:"evaluation"`
}

type rawAdjustment struct {
	Timestamp json.RawMessage `json:"timestamp"`
	Delta     json.RawMessage `json:"delta"`
	Reason    json.RawMessage `json:"reason"`

	// legacy key for delta
	Adjustment json.RawMessage `json:"adjustment"`
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

func invalid(field string, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidRecord, field, err)
	}
	return fmt.Errorf("%w: %s missing", ErrInvalidRecord, field)
}

// Repair decodes one persisted record. Missing or mistyped required fields
// (score, history, last_interaction) yield ErrInvalidRecord; optional fields
// fall back to their defaults. The legacy keys "evaluation" and "adjustment"
// are read when "score" and "delta" are absent. The score is clamped into bounds and the
// history trimmed to the newest opts.HistoryLimit entries.
func Repair(userID string, raw json.RawMessage, opts Options) (Record, error) {
	var rr rawRecord
	if err := json.Unmarshal(raw, &rr); err != nil {
		return Record{}, invalid("record", err)
	}
	rec := Record{UserID: userID}

	if !present(rr.Score) {
		rr.Score = rr.Evaluation
	}
	if !present(rr.Score) {
		return Record{}, invalid("score", nil)
	}
	if err := json.Unmarshal(rr.Score, &rec.Score); err != nil {
		return Record{}, invalid("score", err)
	}
	rec.Score = opts.clamp(rec.Score)

	if !present(rr.History) {
		return Record{}, invalid("history", nil)
	}
	var items []rawAdjustment
	if err := json.Unmarshal(rr.History, &items); err != nil {
		return Record{}, invalid("history", err)
	}
	rec.History = make([]Adjustment, 0, len(items))
	for i, it := range items {
		adj, err := repairAdjustment(it)
		if err != nil {
			return Record{}, invalid(fmt.Sprintf("history[%d]", i), err)
		}
		rec.History = append(rec.History, adj)
	}
	if opts.HistoryLimit > 0 && len(rec.History) > opts.HistoryLimit {
		rec.History = append([]Adjustment(nil), rec.History[len(rec.History)-opts.HistoryLimit:]...)
	}

	if !present(rr.LastInteraction) {
		return Record{}, invalid("last_interaction", nil)
	}
	ts, err := decodeTime(rr.LastInteraction)
	if err != nil {
		return Record{}, invalid("last_interaction", err)
	}
	rec.LastInteraction = ts

	if present(rr.CustomNote) {
		if err := json.Unmarshal(rr.CustomNote, &rec.CustomNote); err != nil {
			return Record{}, invalid("custom_note", err)
		}
	}
	if present(rr.InteractionCount) {
		if err := json.Unmarshal(rr.InteractionCount, &rec.InteractionCount); err != nil {
			return Record{}, invalid("interaction_count", err)
		}
		if rec.InteractionCount < 0 {
			return Record{}, invalid("interaction_count", fmt.Errorf("negative value %d", rec.InteractionCount))
		}
	}
	return rec, nil
}

func repairAdjustment(it rawAdjustment) (Adjustment, error) {
	var adj Adjustment
	if !present(it.Delta) {
		it.Delta = it.Adjustment
	}
	if !present(it.Delta) {
		return adj, errors.New("delta missing")
	}
	if err := json.Unmarshal(it.Delta, &adj.Delta); err != nil {
		return adj, fmt.Errorf("delta: %w", err)
	}
	if !present(it.Timestamp) {
		return adj, errors.New("timestamp missing")
	}
	ts, err := decodeTime(it.Timestamp)
	if err != nil {
		return adj, fmt.Errorf("timestamp: %w", err)
	}
	adj.Timestamp = ts
	if present(it.Reason) {
		if err := json.Unmarshal(it.Reason, &adj.Reason); err != nil {
			return adj, fmt.Errorf("reason: %w", err)
		}
	}
	return adj, nil
}

// Layouts accepted for timestamps. Legacy files carry zone-less ISO 8601
// timestamps; those are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func decodeTime(raw json.RawMessage) (time.Time, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, err
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
