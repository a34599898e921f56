// Package chat provides the question-and-answer view for the TUI.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ansa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ansa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ansa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driving"
)

// Exchange is one question and its answer in the transcript.
type Exchange struct {
	Question string
	Response domain.Response
	Err      error
}

// View is the chat view: a transcript viewport above a question input.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	queryService driving.QueryService
	ctx          context.Context

	tenantID string
	userID   string

	exchanges   []Exchange
	waiting     bool
	showSources bool

	width  int
	height int
	ready  bool
}

// NewView creates a new chat view.
func NewView(s *styles.Styles, km *keymap.KeyMap, queryService driving.QueryService, tenantID, userID string) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	ti := textinput.New()
	ti.Placeholder = "Ask a question..."
	ti.Focus()
	ti.CharLimit = 2000
	ti.Width = 70

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(s.Theme().Primary)

	vp := viewport.New(80, 16)

	return &View{
		styles:       s,
		keymap:       km,
		input:        ti,
		viewport:     vp,
		spinner:      sp,
		queryService: queryService,
		ctx:          context.Background(),
		tenantID:     tenantID,
		userID:       userID,
		showSources:  true,
		width:        80,
		height:       24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		v.waiting = false
		v.exchanges = append(v.exchanges, Exchange{
			Question: msg.Question,
			Response: msg.Response,
			Err:      msg.Err,
		})
		v.refreshTranscript()
		v.viewport.GotoBottom()
		return v, nil

	case spinner.TickMsg:
		if !v.waiting {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case keymap.Matches(msg.String(), v.keymap.Quit):
		return v, func() tea.Msg { return messages.Quit{} }

	case msg.String() == "q" && v.input.Value() == "":
		return v, func() tea.Msg { return messages.Quit{} }

	case keymap.Matches(msg.String(), v.keymap.ToggleSources):
		v.showSources = !v.showSources
		v.refreshTranscript()
		return v, nil

	case keymap.Matches(msg.String(), v.keymap.Up):
		v.viewport.ScrollUp(1)
		return v, nil

	case keymap.Matches(msg.String(), v.keymap.Down):
		v.viewport.ScrollDown(1)
		return v, nil

	case keymap.Matches(msg.String(), v.keymap.Ask):
		question := strings.TrimSpace(v.input.Value())
		if question == "" || v.waiting {
			return v, nil
		}
		v.waiting = true
		v.input.SetValue("")
		return v, tea.Batch(v.spinner.Tick, v.performAsk(question))
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// performAsk answers the question off the Update loop.
func (v *View) performAsk(question string) tea.Cmd {
	return func() tea.Msg {
		resp, err := v.queryService.Answer(v.ctx, driving.QueryRequest{
			TenantID: v.tenantID,
			UserID:   v.userID,
			Question: question,
		})
		return messages.AnswerReceived{Question: question, Response: resp, Err: err}
	}
}

// refreshTranscript rebuilds the viewport content from the exchanges.
func (v *View) refreshTranscript() {
	blocks := make([]string, 0, len(v.exchanges))
	for i := range v.exchanges {
		blocks = append(blocks, v.renderExchange(&v.exchanges[i]))
	}
	v.viewport.SetContent(strings.Join(blocks, "\n\n"))
}

// renderExchange renders one question/answer pair.
func (v *View) renderExchange(ex *Exchange) string {
	lines := []string{v.styles.Question.Render("> " + ex.Question)}

	if ex.Err != nil {
		lines = append(lines, v.styles.Error.Render("Error: "+ex.Err.Error()))
		return strings.Join(lines, "\n")
	}

	resp := &ex.Response
	if resp.IsError() {
		lines = append(lines, v.styles.Error.Render(fmt.Sprintf("Error (%s): %s", resp.ErrorType, resp.Error)))
		return strings.Join(lines, "\n")
	}

	lines = append(lines, v.styles.Answer.Render(resp.Answer))

	meta := fmt.Sprintf("confidence %.2f · %s", resp.Confidence, resp.Strategy)
	if resp.HopCount > 0 {
		meta += fmt.Sprintf(" · %d hops", resp.HopCount)
	}
	lines = append(lines, v.styles.Muted.Render(meta))

	if resp.Degraded {
		lines = append(lines, v.styles.Warning.Render("answer is degraded; some steps failed"))
	}

	if v.showSources && len(resp.Sources) > 0 {
		for i := range resp.Sources {
			src := &resp.Sources[i]
			lines = append(lines, v.styles.Source.Render(
				fmt.Sprintf("  [%d] %s (%.2f)", i+1, src.DocumentID, src.Score)))
		}
	}

	return strings.Join(lines, "\n")
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := []string{
		v.styles.Title.Render("Ansa") + v.styles.Muted.Render("  tenant: "+v.tenantID),
		"",
		v.viewport.View(),
		"",
	}

	if v.waiting {
		sections = append(sections, v.spinner.View()+v.styles.Muted.Render(" thinking..."))
	} else {
		sections = append(sections, v.styles.InputField.Render(v.input.View()))
	}

	sections = append(sections, v.styles.StatusBar.Render("enter ask · tab toggle sources · ↑/↓ scroll · esc quit"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.Width = width - 8
	// Reserve space for header, input, status
	vpHeight := height - 8
	if vpHeight < 4 {
		vpHeight = 4
	}
	v.viewport.Width = width
	v.viewport.Height = vpHeight
}

// Exchanges returns the transcript so far.
func (v *View) Exchanges() []Exchange {
	return v.exchanges
}

// Waiting returns whether a question is in flight.
func (v *View) Waiting() bool {
	return v.waiting
}

// ShowingSources returns whether source citations are rendered.
func (v *View) ShowingSources() bool {
	return v.showSources
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}
