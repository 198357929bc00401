package affinity

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"relation-chatter/internal/relation"
)

const (
	CmdRelation  = "/relation"
	CmdRelations = "/relations"
	CmdSetScore  = "/setscore"
	CmdSetNote   = "/setnote"
	CmdClearNote = "/clearnote"

	msgAdminOnly = "This command is available to administrators only."
)

var usage = map[string]string{
	CmdSetScore:  "Usage: /setscore <user_id> <score>",
	CmdSetNote:   "Usage: /setnote <user_id> <note>",
	CmdClearNote: "Usage: /clearnote <user_id>",
}

// splitCommand returns the command word (without a "@botname" suffix) and
// the untouched remainder of the text.
func splitCommand(text string) (string, string) {
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	cmd, rest := text, ""
	if i := strings.IndexAny(text, " \t\n"); i >= 0 {
		cmd, rest = text[:i], strings.TrimSpace(text[i+1:])
	}
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd), rest
}

func (s *Service) handleCommand(senderID, text string, self relation.Record) (string, bool) {
	cmd, rest := splitCommand(text)
	switch cmd {
	case CmdRelation:
		return Report(self, s.cfg.MaxScore), true
	case CmdRelations, CmdSetScore, CmdSetNote, CmdClearNote:
	default:
		return "", false
	}
	if s.admins == nil || !s.admins.IsAllowed(senderID) {
		return msgAdminOnly, true
	}
	args := strings.Fields(rest)
	switch cmd {
	case CmdRelations:
		return s.listRelations(), true
	case CmdSetScore:
		if len(args) != 2 {
			return usage[cmd], true
		}
		score, err := strconv.Atoi(args[1])
		if err != nil {
			return usage[cmd], true
		}
		actual, rec := s.store.SetScore(args[0], score, ReasonOverride)
		return fmt.Sprintf("Affinity of %s set to %d/%d (%+d)", rec.UserID, rec.Score, s.cfg.MaxScore, actual), true
	case CmdSetNote:
		if len(args) < 2 {
			return usage[cmd], true
		}
		note := strings.TrimSpace(strings.TrimPrefix(rest, args[0]))
		rec := s.store.SetNote(args[0], note)
		return fmt.Sprintf("Note for %s set: %s", rec.UserID, rec.CustomNote), true
	case CmdClearNote:
		if len(args) != 1 {
			return usage[cmd], true
		}
		rec := s.store.ClearNote(args[0])
		return fmt.Sprintf("Note for %s cleared", rec.UserID), true
	}
	return "", false
}

func (s *Service) listRelations() string {
	return List(s.store.All(), s.cfg.MaxScore)
}

// List renders records ordered by score, highest first.
func List(recs []relation.Record, maxScore int) string {
	if len(recs) == 0 {
		return "No relations recorded yet."
	}
	sorted := append([]relation.Record(nil), recs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })
	var b strings.Builder
	b.WriteString("Relations:\n")
	for _, r := range sorted {
		fmt.Fprintf(&b, "- %s: %d/%d, %d interactions", r.UserID, r.Score, maxScore, r.InteractionCount)
		if r.CustomNote != "" {
			fmt.Fprintf(&b, ", note: %s", r.CustomNote)
		}
		b.WriteString("\n")
	}
	return b.String()
}
