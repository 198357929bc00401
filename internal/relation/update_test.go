package relation

import (
	"math"
	"math/rand"
	"testing"
	"time"
)

func TestApplyDelta_ClampsAndRecordsActualDelta(t *testing.T) {
	opts := DefaultOptions()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := NewRecord("u", opts)

	actual := ApplyDelta(&rec, 70, "reply annotation", now, opts)
	if actual != 50 {
		t.Fatalf("want actual 50, got %d", actual)
	}
	if rec.Score != 100 {
		t.Fatalf("want score 100, got %d", rec.Score)
	}
	if len(rec.History) != 1 || rec.History[0].Delta != 50 || rec.History[0].Reason != "reply annotation" {
		t.Fatalf("unexpected history: %+v", rec.History)
	}
	if !rec.LastInteraction.Equal(now) {
		t.Fatalf("last interaction not updated")
	}
}

func TestApplyDelta_ZeroChangeLeavesRecord(t *testing.T) {
	opts := DefaultOptions()
	rec := NewRecord("u", opts)
	rec.Score = opts.MaxScore
	before := rec.LastInteraction

	if got := ApplyDelta(&rec, 0, "x", time.Now(), opts); got != 0 {
		t.Fatalf("want 0, got %d", got)
	}
	if got := ApplyDelta(&rec, 15, "x", time.Now(), opts); got != 0 {
		t.Fatalf("at ceiling: want 0, got %d", got)
	}
	if len(rec.History) != 0 {
		t.Fatalf("zero change must not append history: %+v", rec.History)
	}
	if !rec.LastInteraction.Equal(before) {
		t.Fatalf("zero change must not touch last interaction")
	}
}

func TestApplyDelta_BoundsAndHistorySum(t *testing.T) {
	opts := Options{MinScore: -20, MaxScore: 30, InitialScore: 5, HistoryLimit: 1000}
	rng := rand.New(rand.NewSource(1))
	rec := NewRecord("u", opts)
	now := time.Unix(0, 0).UTC()

	for i := 0; i < 500; i++ {
		ApplyDelta(&rec, rng.Intn(41)-20, "r", now, opts)
		if rec.Score < opts.MinScore || rec.Score > opts.MaxScore {
			t.Fatalf("step %d: score %d out of bounds", i, rec.Score)
		}
	}
	sum := opts.InitialScore
	for _, a := range rec.History {
		sum += a.Delta
	}
	if sum != rec.Score {
		t.Fatalf("initial + history sum = %d, score = %d", sum, rec.Score)
	}
}

func TestApplyDelta_HistoryEvictsOldestFirst(t *testing.T) {
	opts := Options{MinScore: 0, MaxScore: 1000, InitialScore: 0, HistoryLimit: 3}
	rec := NewRecord("u", opts)
	for i := 1; i <= 5; i++ {
		ApplyDelta(&rec, i, "step", time.Unix(int64(i), 0).UTC(), opts)
		if len(rec.History) > opts.HistoryLimit {
			t.Fatalf("history grew to %d", len(rec.History))
		}
	}
	if len(rec.History) != 3 {
		t.Fatalf("want 3 entries, got %d", len(rec.History))
	}
	for i, want := range []int{3, 4, 5} {
		if rec.History[i].Delta != want {
			t.Fatalf("entry %d: want delta %d, got %d", i, want, rec.History[i].Delta)
		}
	}
}

func TestApplyDelta_HugeDeltasSaturate(t *testing.T) {
	opts := DefaultOptions()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	rec := NewRecord("u", opts)
	if actual := ApplyDelta(&rec, math.MaxInt, "r", now, opts); actual != 50 || rec.Score != 100 {
		t.Fatalf("max int: want +50 to 100, got %+d to %d", actual, rec.Score)
	}
	if actual := ApplyDelta(&rec, math.MaxInt, "r", now, opts); actual != 0 || rec.Score != 100 {
		t.Fatalf("max int at ceiling: want 0 at 100, got %+d at %d", actual, rec.Score)
	}
	if actual := ApplyDelta(&rec, math.MinInt, "r", now, opts); actual != -100 || rec.Score != 0 {
		t.Fatalf("min int: want -100 to 0, got %+d to %d", actual, rec.Score)
	}
	if actual := ApplyDelta(&rec, math.MinInt, "r", now, opts); actual != 0 || rec.Score != 0 {
		t.Fatalf("min int at floor: want 0 at 0, got %+d at %d", actual, rec.Score)
	}
}
