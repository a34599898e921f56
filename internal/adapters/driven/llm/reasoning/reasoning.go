// Package reasoning parses chain-of-thought completions into answer and
// reasoning parts. Providers without native reasoning output share it.
package reasoning

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

var (
	answerMarker = regexp.MustCompile(`(?im)^\s*(?:final\s+)?answer\s*:\s*`)
	stepMarker   = regexp.MustCompile(`(?m)^\s*(?:\d+[.)]|[-*])\s+`)
)

// Parse splits a chain-of-thought completion at its final "Answer:"
// marker and extracts numbered or bulleted reasoning steps. Text without
// a marker is treated as a bare answer with no reasoning.
func Parse(text string) driven.Reasoned {
	text = strings.TrimSpace(text)
	if text == "" {
		return driven.Reasoned{}
	}

	locs := answerMarker.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return driven.Reasoned{Text: text}
	}

	// The last marker wins; CoT prompts repeat "Answer:" in examples.
	last := locs[len(locs)-1]
	reasoningText := strings.TrimSpace(text[:last[0]])
	answer := strings.TrimSpace(text[last[1]:])
	if answer == "" {
		answer = reasoningText
		reasoningText = ""
	}

	return driven.Reasoned{
		Text:      answer,
		Reasoning: reasoningText,
		Steps:     parseSteps(reasoningText),
	}
}

// parseSteps pulls out list-marked lines; prose reasoning without list
// markers becomes a single step.
func parseSteps(reasoningText string) []string {
	if reasoningText == "" {
		return nil
	}

	var steps []string
	for _, line := range strings.Split(reasoningText, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if stepMarker.MatchString(line) {
			steps = append(steps, strings.TrimSpace(stepMarker.ReplaceAllString(trimmed, "")))
		}
	}
	if len(steps) == 0 {
		steps = []string{reasoningText}
	}
	return steps
}
