// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/ansa/internal/core/domain"
)

// QuestionSubmitted is sent when the user submits a question.
type QuestionSubmitted struct {
	Question string
}

// AnswerReceived carries a completed response back to the model.
type AnswerReceived struct {
	Question string
	Response domain.Response
	Err      error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
