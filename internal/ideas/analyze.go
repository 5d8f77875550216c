// Package ideas scores chat content for the Idea Hub with a keyword
// heuristic.
package ideas

import (
	"strings"
	"unicode"

	"github.com/huddlehq/huddle/internal/backend"
)

// Threshold is the confidence at which a message counts as an idea.
const Threshold = 0.5

// Priorities.
const (
	High   = "High"
	Medium = "Medium"
	Low    = "Low"
)

// General is the category of content no rule matched.
const General = "General"

type signal struct {
	phrase string
	weight float64
}

var signals = []signal{
	{"idea", 0.5},
	{"what if", 0.5},
	{"how about", 0.4},
	{"we could", 0.4},
	{"we should", 0.4},
	{"let's", 0.3},
	{"lets ", 0.3},
	{"propose", 0.4},
	{"proposal", 0.4},
	{"suggest", 0.35},
	{"maybe we", 0.35},
	{"would be nice", 0.35},
	{"would be cool", 0.35},
	{"imagine", 0.3},
	{"feature", 0.25},
	{"improve", 0.25},
	{"brainstorm", 0.4},
	{"plan", 0.15},
}

type category struct {
	name     string
	keywords []string
}

// categories are tried in order; the first with a hit wins.
var categories = []category{
	{"Product", []string{"feature", "user", "app", "customer", "onboarding", "ux"}},
	{"Engineering", []string{"api", "server", "database", "code", "deploy", "bug", "refactor", "test"}},
	{"Design", []string{"design", "layout", "color", "logo", "mockup", "ui"}},
	{"Marketing", []string{"campaign", "brand", "social", "launch", "newsletter", "ads"}},
	{"Process", []string{"meeting", "workflow", "process", "retro", "standup", "sprint"}},
}

var suggestions = map[string]string{
	"Product":     "Write a short problem statement and check it with a customer.",
	"Engineering": "Sketch the change and estimate it at the next planning.",
	"Design":      "Turn it into a quick mockup and share it in the channel.",
	"Marketing":   "Draft the message and pick a launch date.",
	"Process":     "Try it for one sprint and review it at the retro.",
	General:       "Discuss it with the team and assign an owner.",
}

var (
	highWords   = []string{"urgent", "asap", "critical", "today", "blocker", "immediately"}
	mediumWords = []string{"soon", "this week", "next week", "important", "priority"}
)

// Analyze scores text. Questions and longer messages get a small boost;
// greetings and very short messages never qualify.
func Analyze(text string) backend.Analysis {
	lower := strings.ToLower(strings.TrimSpace(text))
	words := strings.FieldsFunc(lower, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' })

	score := 0.0
	if len(words) >= 3 {
		for _, s := range signals {
			if strings.Contains(lower, s.phrase) {
				score += s.weight
			}
		}
		if strings.HasSuffix(lower, "?") && score > 0 {
			score += 0.1
		}
		if len(words) >= 12 && score > 0 {
			score += 0.1
		}
	}
	if score > 1 {
		score = 1
	}

	cat := Categorize(words)
	return backend.Analysis{
		IsIdea:     score >= Threshold,
		Confidence: score,
		Category:   cat,
		Priority:   Prioritize(lower),
		Suggestion: suggestions[cat],
	}
}

// Categorize returns the first category whose keywords appear in words.
func Categorize(words []string) string {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	for _, c := range categories {
		for _, k := range c.keywords {
			if _, ok := set[k]; ok {
				return c.name
			}
		}
	}
	return General
}

// Prioritize maps urgency words in lower to a priority.
func Prioritize(lower string) string {
	for _, w := range highWords {
		if strings.Contains(lower, w) {
			return High
		}
	}
	for _, w := range mediumWords {
		if strings.Contains(lower, w) {
			return Medium
		}
	}
	return Low
}

// Title returns the hub title for a message idea.
func Title(sender string) string {
	if sender == "" {
		return "Idea"
	}
	return "Idea from " + sender
}

// FileTitle returns the hub title for a file idea.
func FileTitle(filename string) string {
	return "File Idea: " + filename
}

// Excerpt cuts content to at most n runes, marking the cut.
func Excerpt(content string, n int) string {
	r := []rune(strings.TrimSpace(content))
	if len(r) <= n {
		return string(r)
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}
