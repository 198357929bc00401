// Package prompt renders relation records into prompt fragments and merges
// fragments ahead of the conversation by priority.
package prompt

import (
	"fmt"
	"sort"
	"strings"

	"relation-chatter/internal/llm"
	"relation-chatter/internal/relation"
)

const (
	RoleSystem = llm.RoleSystem

	DefaultRelationPriority = 1000
	DefaultPersonaPriority  = 500

	// RecentChanges is how many history entries a relation summary shows.
	RecentChanges = 5

	none = "none"
)

// Fragment is a piece of context placed before the conversation.
// Higher priorities come first.
type Fragment struct {
	Role     string
	Content  string
	Priority int
}

type RenderOptions struct {
	MaxScore int
	Priority int
}

// RenderRelation renders the user's relation profile.
func RenderRelation(rec relation.Record, opts RenderOptions) Fragment {
	note := rec.CustomNote
	if strings.TrimSpace(note) == "" {
		note = none
	}
	var b strings.Builder
	b.WriteString("[User relation profile]\n")
	fmt.Fprintf(&b, "User ID: %s\n", rec.UserID)
	fmt.Fprintf(&b, "Affinity: %d/%d\n", rec.Score, opts.MaxScore)
	fmt.Fprintf(&b, "Note: %s\n", note)
	fmt.Fprintf(&b, "Interactions: %d\n", rec.InteractionCount)
	fmt.Fprintf(&b, "Last active: %s\n", rec.LastInteraction.UTC().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Recent changes: %s", RecentSummary(rec))
	return Fragment{Role: RoleSystem, Content: b.String(), Priority: opts.Priority}
}

// RecentSummary renders the newest RecentChanges adjustments of rec.
func RecentSummary(rec relation.Record) string {
	return HistorySummary(rec.Recent(RecentChanges))
}

// HistorySummary renders adjustments as "+5 (reason), -2 (reason)".
func HistorySummary(history []relation.Adjustment) string {
	if len(history) == 0 {
		return none
	}
	parts := make([]string, 0, len(history))
	for _, a := range history {
		parts = append(parts, fmt.Sprintf("%+d (%s)", a.Delta, a.Reason))
	}
	return strings.Join(parts, ", ")
}

// Persona wraps the fixed system prompt. Blank text yields no fragment.
func Persona(text string, priority int) (Fragment, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Fragment{}, false
	}
	return Fragment{Role: RoleSystem, Content: text, Priority: priority}, true
}

// Sort orders fragments by descending priority, keeping the input order for ties.
func Sort(fragments []Fragment) []Fragment {
	out := make([]Fragment, len(fragments))
	copy(out, fragments)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}

// Build places all fragments, highest priority first, before the conversation.
func Build(fragments []Fragment, conversation []llm.Message) []llm.Message {
	out := make([]llm.Message, 0, len(fragments)+len(conversation))
	for _, f := range Sort(fragments) {
		role := f.Role
		if role == "" {
			role = RoleSystem
		}
		out = append(out, llm.Message{Role: role, Content: f.Content})
	}
	return append(out, conversation...)
}
