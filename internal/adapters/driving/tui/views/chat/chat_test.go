package chat

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ansa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driving"
)

// --- Mock implementations ---

type mockQueryService struct {
	response domain.Response
	err      error

	lastRequest driving.QueryRequest
}

func (m *mockQueryService) Answer(_ context.Context, req driving.QueryRequest) (domain.Response, error) {
	m.lastRequest = req
	return m.response, m.err
}

func (m *mockQueryService) History(_ context.Context, _, _ string, _ int) ([]domain.Query, error) {
	return nil, m.err
}

func newTestView(svc driving.QueryService) *View {
	v := NewView(nil, nil, svc, "default", "alice")
	v.SetDimensions(80, 24)
	return v
}

func TestNewView_Defaults(t *testing.T) {
	v := NewView(nil, nil, &mockQueryService{}, "default", "")

	require.NotNil(t, v)
	assert.False(t, v.Waiting())
	assert.True(t, v.ShowingSources())
	assert.Empty(t, v.Exchanges())
}

func TestView_SubmitQuestion(t *testing.T) {
	svc := &mockQueryService{
		response: domain.Response{
			Answer:     "Paris.",
			Confidence: 0.9,
			Strategy:   domain.StrategySingleHop,
		},
	}
	v := newTestView(svc)
	v.input.SetValue("What is the capital of France?")

	v, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.True(t, v.Waiting())
	require.NotNil(t, cmd)

	// Execute the batch: one of the messages is the answer.
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	require.True(t, ok)

	var answer *messages.AnswerReceived
	for _, c := range batch {
		if m, ok := c().(messages.AnswerReceived); ok {
			answer = &m
		}
	}
	require.NotNil(t, answer)
	assert.Equal(t, "What is the capital of France?", answer.Question)
	assert.Equal(t, "Paris.", answer.Response.Answer)
	assert.Equal(t, "default", svc.lastRequest.TenantID)
	assert.Equal(t, "alice", svc.lastRequest.UserID)
}

func TestView_EmptyQuestionIgnored(t *testing.T) {
	v := newTestView(&mockQueryService{})

	v, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, v.Waiting())
	assert.Nil(t, cmd)
}

func TestView_AnswerReceivedAppendsExchange(t *testing.T) {
	v := newTestView(&mockQueryService{})

	v, _ = v.Update(messages.AnswerReceived{
		Question: "q1",
		Response: domain.Response{Answer: "a1", Confidence: 0.8, Strategy: domain.StrategySingleHop},
	})

	require.Len(t, v.Exchanges(), 1)
	assert.False(t, v.Waiting())
	assert.Equal(t, "a1", v.Exchanges()[0].Response.Answer)
}

func TestView_AnswerError(t *testing.T) {
	v := newTestView(&mockQueryService{})

	v, _ = v.Update(messages.AnswerReceived{
		Question: "q1",
		Err:      errors.New("boom"),
	})

	require.Len(t, v.Exchanges(), 1)
	assert.Error(t, v.Exchanges()[0].Err)
}

func TestView_ToggleSources(t *testing.T) {
	v := newTestView(&mockQueryService{})
	assert.True(t, v.ShowingSources())

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.False(t, v.ShowingSources())

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.True(t, v.ShowingSources())
}

func TestView_QuitOnEsc(t *testing.T) {
	v := newTestView(&mockQueryService{})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.IsType(t, messages.Quit{}, cmd())
}

func TestView_QOnEmptyInputQuits(t *testing.T) {
	v := newTestView(&mockQueryService{})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	require.NotNil(t, cmd)
	assert.IsType(t, messages.Quit{}, cmd())
}

func TestView_QWithTextIsTyped(t *testing.T) {
	v := newTestView(&mockQueryService{})
	v.input.SetValue("what is ")

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	assert.Equal(t, "what is q", v.input.Value())
}

func TestView_RendersErrorEnvelope(t *testing.T) {
	v := newTestView(&mockQueryService{})

	v, _ = v.Update(messages.AnswerReceived{
		Question: "q1",
		Response: domain.Response{
			Error:     "no relevant documents found",
			ErrorType: "retrieval_unavailable",
		},
	})

	out := v.renderExchange(&v.Exchanges()[0])
	assert.Contains(t, out, "retrieval_unavailable")
	assert.Contains(t, out, "no relevant documents found")
}

func TestView_RendersSourcesAndMeta(t *testing.T) {
	v := newTestView(&mockQueryService{})

	ex := Exchange{
		Question: "q1",
		Response: domain.Response{
			Answer:     "a1",
			Confidence: 0.87,
			Strategy:   domain.StrategyMultiHop,
			HopCount:   2,
			Degraded:   true,
			Sources: []domain.RetrievedChunk{
				{ChunkID: "c1", DocumentID: "doc-1", Score: 0.9},
			},
		},
	}

	out := v.renderExchange(&ex)
	assert.Contains(t, out, "a1")
	assert.Contains(t, out, "0.87")
	assert.Contains(t, out, "2 hops")
	assert.Contains(t, out, "degraded")
	assert.Contains(t, out, "doc-1")

	v.showSources = false
	out = v.renderExchange(&ex)
	assert.NotContains(t, out, "doc-1")
}

func TestView_NotReady(t *testing.T) {
	v := NewView(nil, nil, &mockQueryService{}, "default", "")

	assert.Contains(t, v.View(), "Initialising")
}
