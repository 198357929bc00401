package analytics

import (
	"strings"
	"testing"
	"time"

	"relation-chatter/internal/storage"
)

func TestAnalyzeDailyLogs(t *testing.T) {
	testDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	events := []storage.Event{
		{Timestamp: testDate.Add(2 * time.Hour), UserID: "123", UserMessage: "hi", Delta: 5, Score: 55},
		{Timestamp: testDate.Add(4 * time.Hour), UserID: "123", UserMessage: "again", Delta: -2, Score: 53},
		{Timestamp: testDate.Add(6 * time.Hour), UserID: "456", UserMessage: "hello", Score: 50},
		// next day, ignored
		{Timestamp: testDate.AddDate(0, 0, 1), UserID: "789", UserMessage: "tomorrow", Delta: 9},
		// system entry without a user message, ignored
		{Timestamp: testDate.Add(8 * time.Hour), UserID: "123", AssistantResponse: "[system]"},
	}

	stats := AnalyzeDailyLogs(events, testDate)

	if stats.Date != "2024-01-15" {
		t.Errorf("Expected date '2024-01-15', got '%s'", stats.Date)
	}
	if stats.TotalMessages != 3 {
		t.Errorf("Expected 3 total messages, got %d", stats.TotalMessages)
	}
	if stats.UniqueUsers != 2 {
		t.Errorf("Expected 2 unique users, got %d", stats.UniqueUsers)
	}
	if stats.NetDelta != 3 || stats.Raised != 1 || stats.Lowered != 1 {
		t.Errorf("Unexpected delta stats: net=%d up=%d down=%d", stats.NetDelta, stats.Raised, stats.Lowered)
	}
	us := stats.UserStats["123"]
	if us.Messages != 2 || us.NetDelta != 3 || us.LastScore != 53 {
		t.Errorf("Unexpected stats for 123: %+v", us)
	}
}

func TestGenerateReportSummary(t *testing.T) {
	stats := &DailyStats{
		Date:          "2024-01-15",
		TotalMessages: 3,
		UniqueUsers:   2,
		NetDelta:      3,
		Raised:        1,
		Lowered:       1,
		UserStats: map[string]UserStats{
			"123": {UserID: "123", Messages: 2, NetDelta: 3, LastScore: 53},
			"456": {UserID: "456", Messages: 1, LastScore: 50},
		},
	}
	summary := stats.GenerateReportSummary()
	for _, want := range []string{"2024-01-15", "Messages: 3", "1 up, 1 down, net +3", "- 123: 2 messages, net +3, score 53"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
	if strings.Index(summary, "- 123") > strings.Index(summary, "- 456") {
		t.Errorf("users should be ordered by net change:\n%s", summary)
	}
}

func TestAnalyzeDailyLogs_Empty(t *testing.T) {
	stats := AnalyzeDailyLogs(nil, time.Now())
	if stats.TotalMessages != 0 || stats.UniqueUsers != 0 {
		t.Errorf("Expected empty stats, got %+v", stats)
	}
	if strings.Contains(stats.GenerateReportSummary(), "Users:") {
		t.Errorf("Empty digest should not list users")
	}
}
