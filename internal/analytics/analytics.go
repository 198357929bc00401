// Package analytics summarizes the interaction log for the daily admin digest.
package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"relation-chatter/internal/storage"
)

// DailyStats aggregates one UTC day of interactions.
type DailyStats struct {
	Date          string               `json:"date"`
	TotalMessages int                  `json:"total_messages"`
	UniqueUsers   int                  `json:"unique_users"`
	NetDelta      int                  `json:"net_delta"`
	Raised        int                  `json:"raised"`
	Lowered       int                  `json:"lowered"`
	UserStats     map[string]UserStats `json:"user_stats"`
}

type UserStats struct {
	UserID    string `json:"user_id"`
	Messages  int    `json:"messages"`
	NetDelta  int    `json:"net_delta"`
	LastScore int    `json:"last_score"`
}

// AnalyzeDailyLogs counts the events that fall on targetDate's day.
func AnalyzeDailyLogs(events []storage.Event, targetDate time.Time) *DailyStats {
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	stats := &DailyStats{
		Date:      startOfDay.Format("2006-01-02"),
		UserStats: make(map[string]UserStats),
	}

	for _, event := range events {
		if event.Timestamp.Before(startOfDay) || !event.Timestamp.Before(endOfDay) {
			continue
		}
		if event.UserMessage == "" {
			continue
		}
		stats.TotalMessages++
		stats.NetDelta += event.Delta
		switch {
		case event.Delta > 0:
			stats.Raised++
		case event.Delta < 0:
			stats.Lowered++
		}

		us := stats.UserStats[event.UserID]
		us.UserID = event.UserID
		us.Messages++
		us.NetDelta += event.Delta
		us.LastScore = event.Score
		stats.UserStats[event.UserID] = us
	}

	stats.UniqueUsers = len(stats.UserStats)
	return stats
}

// GenerateReportSummary renders the digest sent to admins.
func (ds *DailyStats) GenerateReportSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Relation digest for %s\n\n", ds.Date)
	fmt.Fprintf(&b, "- Messages: %d\n", ds.TotalMessages)
	fmt.Fprintf(&b, "- Unique users: %d\n", ds.UniqueUsers)
	fmt.Fprintf(&b, "- Affinity changes: %d up, %d down, net %+d\n", ds.Raised, ds.Lowered, ds.NetDelta)

	if len(ds.UserStats) == 0 {
		return b.String()
	}
	users := make([]UserStats, 0, len(ds.UserStats))
	for _, us := range ds.UserStats {
		users = append(users, us)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].NetDelta != users[j].NetDelta {
			return users[i].NetDelta > users[j].NetDelta
		}
		return users[i].UserID < users[j].UserID
	})
	b.WriteString("\nUsers:\n")
	for _, us := range users {
		fmt.Fprintf(&b, "- %s: %d messages, net %+d, score %d\n", us.UserID, us.Messages, us.NetDelta, us.LastScore)
	}
	return b.String()
}
