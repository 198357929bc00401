// Package annotation finds affinity tags such as "[affinity+5]" in generated
// text, sums them and strips them out.
package annotation

import (
	"fmt"
	"log"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DefaultLabel is the tag label used when none is configured.
const DefaultLabel = "affinity"

// Tag is one occurrence of "[<label><sign><digits>]" in a text.
// Start and End are byte offsets; Err is set when the number does not fit an int.
type Tag struct {
	Start int
	End   int
	Raw   string
	Value int
	Err   error
}

// Result is the outcome of Extract.
type Result struct {
	Delta int
	Text  string
	Tags  []Tag
}

type Extractor struct {
	label   string
	pattern *regexp.Regexp
}

// New builds an extractor for the given label. The label is matched literally.
func New(label string) (*Extractor, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, fmt.Errorf("annotation: empty tag label")
	}
	re, err := regexp.Compile(`\[` + regexp.QuoteMeta(label) + `([+-]?[0-9]+)\]`)
	if err != nil {
		return nil, fmt.Errorf("annotation: compile pattern: %w", err)
	}
	return &Extractor{label: label, pattern: re}, nil
}

func (e *Extractor) Label() string { return e.label }

// Format renders a tag the way the extractor expects to read it back.
func (e *Extractor) Format(delta int) string {
	return fmt.Sprintf("[%s%+d]", e.label, delta)
}

// Scan returns every non-overlapping tag in text, left to right.
func (e *Extractor) Scan(text string) []Tag {
	locs := e.pattern.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	tags := make([]Tag, 0, len(locs))
	for _, loc := range locs {
		tag := Tag{Start: loc[0], End: loc[1], Raw: text[loc[0]:loc[1]]}
		v, err := strconv.Atoi(text[loc[2]:loc[3]])
		if err != nil {
			tag.Err = err
		} else {
			tag.Value = v
		}
		tags = append(tags, tag)
	}
	return tags
}

// Extract sums all parseable tags and removes exactly their spans from the
// text. The sum saturates at the int range. Tags whose number cannot be
// parsed count as zero and stay in place.
func (e *Extractor) Extract(text string) Result {
	tags := e.Scan(text)
	if len(tags) == 0 {
		return Result{Text: text}
	}
	var (
		b     strings.Builder
		delta int
		last  int
	)
	b.Grow(len(text))
	for _, tag := range tags {
		if tag.Err != nil {
			log.Printf("warning: annotation: ignoring tag %q: %v", tag.Raw, tag.Err)
			continue
		}
		delta = addSat(delta, tag.Value)
		b.WriteString(text[last:tag.Start])
		last = tag.End
	}
	b.WriteString(text[last:])
	return Result{Delta: delta, Text: b.String(), Tags: tags}
}

func addSat(a, b int) int {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return math.MaxInt
	case b < 0 && a < math.MinInt-b:
		return math.MinInt
	}
	return a + b
}
