package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ansa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ansa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ansa/internal/adapters/driving/tui/views/chat"
)

var _ tea.Model = (*App)(nil)

// App is the top-level Bubbletea model. It owns the terminal lifecycle
// and routes every message to the chat view, keeping only the global
// concerns (quit, resize, surfaced errors) to itself.
type App struct {
	ports    *Ports
	ctx      context.Context
	styles   *styles.Styles
	chatView *chat.View

	err    error
	width  int
	height int
	ready  bool
}

// NewApp builds the application model. tenantID scopes every question
// asked in this session; userID is recorded in query history.
func NewApp(ports *Ports, tenantID, userID string) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	return &App{
		ports:    ports,
		ctx:      context.Background(),
		styles:   s,
		chatView: chat.NewView(s, nil, ports.Query, tenantID, userID),
	}, nil
}

// WithContext threads a cancellable context into the ask pipeline.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("ansa - Document Q&A"),
		a.chatView.Init(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		// ctrl+c quits from anywhere, even mid-request.
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	var cmd tea.Cmd
	a.chatView, cmd = a.chatView.Update(msg)
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	return a.chatView.View()
}

// Run drives the program to completion on the attached terminal.
func (a *App) Run() error {
	_, err := tea.NewProgram(a, tea.WithAltScreen()).Run()
	return err
}

// SetDimensions records the terminal size and cascades it to the view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.chatView.SetDimensions(width, height)
}

// Chat exposes the chat view for tests.
func (a *App) Chat() *chat.View { return a.chatView }

// Err returns the last surfaced error.
func (a *App) Err() error { return a.err }

// Ready reports whether the first window size arrived.
func (a *App) Ready() bool { return a.ready }
