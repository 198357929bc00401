// Package affinity wires the relation store, the annotation extractor and the
// prompt composer into the per-message pipeline used by the bot:
//
//	receive -> touch -> command (reply, stop) | context fragments
//	generated reply -> extract tags -> apply delta -> persist
package affinity

import (
	"fmt"
	"log"
	"strings"

	"relation-chatter/internal/annotation"
	"relation-chatter/internal/prompt"
	"relation-chatter/internal/relation"
)

const (
	ReasonReply    = "reply annotation"
	ReasonOverride = "admin override"
)

// Authorizer decides who may run privileged commands.
type Authorizer interface {
	IsAllowed(userID string) bool
}

type Config struct {
	MaxScore        int
	ContextPriority int
	Persona         string
	PersonaPriority int
	// NotifyOnChange appends a score notice to replies whose tags moved the score.
	NotifyOnChange bool
}

// Event is an incoming user message.
type Event struct {
	SenderID string
	Text     string
}

// Outcome tells the transport what to do with a user message. When Handled
// is set the Reply is sent and no further processing happens for the turn.
type Outcome struct {
	Handled   bool
	Reply     string
	Fragments []prompt.Fragment
}

// ReplyOutcome is a generated reply after its tags were applied.
type ReplyOutcome struct {
	Text  string
	Delta int
	Score int
}

type Service struct {
	store     *relation.Store
	extractor *annotation.Extractor
	admins    Authorizer
	cfg       Config
}

func New(store *relation.Store, extractor *annotation.Extractor, admins Authorizer, cfg Config) *Service {
	if cfg.MaxScore == 0 {
		cfg.MaxScore = store.Options().MaxScore
	}
	return &Service{store: store, extractor: extractor, admins: admins, cfg: cfg}
}

// HandleMessage touches the sender's record, then either answers a command
// or returns the context fragments for the upcoming exchange.
func (s *Service) HandleMessage(ev Event) Outcome {
	rec := s.store.Touch(ev.SenderID)
	if reply, ok := s.handleCommand(ev.SenderID, strings.TrimSpace(ev.Text), rec); ok {
		return Outcome{Handled: true, Reply: reply}
	}
	return Outcome{Fragments: s.Fragments(rec)}
}

// Fragments returns the relation profile and the persona, highest priority first.
func (s *Service) Fragments(rec relation.Record) []prompt.Fragment {
	frags := []prompt.Fragment{
		prompt.RenderRelation(rec, prompt.RenderOptions{MaxScore: s.cfg.MaxScore, Priority: s.cfg.ContextPriority}),
	}
	if f, ok := prompt.Persona(s.cfg.Persona, s.cfg.PersonaPriority); ok {
		frags = append(frags, f)
	}
	return prompt.Sort(frags)
}

// HandleReply applies the tags found in generated text and returns the text
// without them. User input must never be passed here.
func (s *Service) HandleReply(senderID, generated string) ReplyOutcome {
	res := s.extractor.Extract(generated)
	actual, rec := s.store.Apply(senderID, res.Delta, ReasonReply)
	out := ReplyOutcome{Text: res.Text, Delta: actual, Score: rec.Score}
	if actual == 0 {
		return out
	}
	log.Printf("relation: user %s affinity %+d, now %d/%d", senderID, actual, rec.Score, s.cfg.MaxScore)
	if s.cfg.NotifyOnChange {
		out.Text = strings.TrimSpace(res.Text) + "\n" + Notice(rec.Score, s.cfg.MaxScore)
	}
	return out
}

// Notice is the line appended to a reply that changed the score.
func Notice(score, maxScore int) string {
	return fmt.Sprintf("[relation] affinity updated to %d/%d", score, maxScore)
}

// Report renders the answer to the view-relation command.
func Report(rec relation.Record, maxScore int) string {
	note := rec.CustomNote
	if strings.TrimSpace(note) == "" {
		note = "none"
	}
	var b strings.Builder
	b.WriteString("[Relation status]\n")
	fmt.Fprintf(&b, "• Affinity: %d/%d\n", rec.Score, maxScore)
	fmt.Fprintf(&b, "• Interactions: %d\n", rec.InteractionCount)
	fmt.Fprintf(&b, "• Last interaction: %s\n", rec.LastInteraction.UTC().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "• Note: %s\n", note)
	fmt.Fprintf(&b, "• Recent changes: %s", prompt.RecentSummary(rec))
	return b.String()
}
