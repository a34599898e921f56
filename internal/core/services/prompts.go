package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/ansa/internal/core/domain"
)

// noContextNotice is inserted into generation prompts when retrieval
// returned nothing. The model is told to state uncertainty rather than
// fabricate.
const noContextNotice = "No relevant documents were found for this question. " +
	"State clearly that the knowledge base contains no supporting information " +
	"and answer only from general knowledge, flagging any uncertainty."

// maxContextChunks bounds how many chunks a prompt embeds.
const maxContextChunks = 10

// maxChunkChars bounds how much of each chunk a prompt embeds.
const maxChunkChars = 500

const cotPromptFormat = `You are a helpful AI assistant. Use the following information to answer the question step by step.

%s

Question: %s

Please think through this step by step:
1. What information is relevant to answering this question?
2. What are the key facts or details I need to consider?
3. How do these pieces of information relate to each other?
4. What is the most accurate answer based on the available information?

Answer:`

const directPromptFormat = `You are a helpful AI assistant. Use the following information to answer the question.

%s

Question: %s

Answer:`

const synthesisPromptFormat = `You are a helpful AI assistant. The question below was broken into steps, each answered from the knowledge base. Combine the step findings into one coherent answer.

%s

Question: %s

Answer:`

// buildContext renders retrieved chunks into prompt context, shared by
// every generation path. Zero chunks yields the no-context notice.
func buildContext(sources []domain.RetrievedChunk) string {
	if len(sources) == 0 {
		return noContextNotice
	}

	var b strings.Builder
	b.WriteString("Relevant Information:\n")
	for i, src := range sources {
		if i >= maxContextChunks {
			break
		}
		fmt.Fprintf(&b, "%d. %s\n   Source: %s\n\n", i+1, clipText(src.Text, maxChunkChars), src.DocumentID)
	}
	return strings.TrimRight(b.String(), "\n")
}

// clipText shortens text to at most n runes, appending an ellipsis when
// anything was cut. Clipping on runes keeps multi-byte characters whole.
func clipText(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}

// buildPrompt selects the CoT or direct prompt shape.
func buildPrompt(question string, sources []domain.RetrievedChunk, useCoT bool) string {
	context := buildContext(sources)
	if useCoT {
		return fmt.Sprintf(cotPromptFormat, context, question)
	}
	return fmt.Sprintf(directPromptFormat, context, question)
}

// buildSynthesisPrompt renders ordered (sub-question, answer) pairs for
// the final multi-hop aggregation call.
func buildSynthesisPrompt(question string, steps []hopOutcome) string {
	var b strings.Builder
	b.WriteString("Step findings:\n")
	for i, step := range steps {
		answer := step.answer
		if answer == "" {
			answer = "(no answer: this step failed)"
		}
		fmt.Fprintf(&b, "Step %d (%s): %s\n   Finding: %s\n\n", i+1, step.spec.Type, step.spec.SubQuestion, answer)
	}
	return fmt.Sprintf(synthesisPromptFormat, strings.TrimRight(b.String(), "\n"), question)
}

// generationConfidence scores a single generation: 0.7 weight on the
// average source score, 0.3 on answer length saturation at 50 words.
func generationConfidence(answer string, sources []domain.RetrievedChunk) float64 {
	if answer == "" {
		return 0
	}
	var avgScore float64
	if len(sources) > 0 {
		for _, src := range sources {
			avgScore += src.Score
		}
		avgScore /= float64(len(sources))
	}

	lengthFactor := float64(len(strings.Fields(answer))) / 50
	if lengthFactor > 1 {
		lengthFactor = 1
	}

	confidence := 0.7*avgScore + 0.3*lengthFactor
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}
