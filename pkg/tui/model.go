// Package tui is a terminal reader for the feed. Rows are loaded page by page,
// the next page is requested when the last row scrolls into the window.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/umputun/scrollfeed/pkg/domain"
	"github.com/umputun/scrollfeed/pkg/feed"
	"github.com/umputun/scrollfeed/pkg/session"
)

const (
	defaultRows = 10
	chromeLines = 4 // title with blank line and two footer lines
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	cursorStyle = lipgloss.NewStyle().Reverse(true)
	metaStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type loginMsg struct {
	ctrl *feed.Controller
}

// loadedMsg is sent when a load started by the model has finished
type loadedMsg struct{}

// Model is bubbletea model over a single session
type Model struct {
	ctx  context.Context
	sess *session.Session

	ctrl     *feed.Controller
	tail     *feed.Tail
	observer *windowObserver
	state    feed.State

	cursor  int
	top     int
	width   int
	height  int
	pending bool
	status  string
	spinner spinner.Model
}

// New makes model for a logged-out session, login happens in Init
func New(ctx context.Context, sess *session.Session) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{ctx: ctx, sess: sess, observer: &windowObserver{}, spinner: sp, pending: true}
}

// Run starts the terminal ui and blocks until the user quits or ctx is canceled
func Run(ctx context.Context, sess *session.Session) error {
	p := tea.NewProgram(New(ctx, sess), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal ui: %w", err)
	}
	sess.Logout()
	return nil
}

// Init logs in, which performs the initial load
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loginCmd())
}

func (m Model) loginCmd() tea.Cmd {
	return func() tea.Msg {
		return loginMsg{ctrl: m.sess.Login(m.ctx)}
	}
}

// Update handles keys, window size and load results
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.scrollToCursor()
		cmd := m.checkVisible()
		return m, cmd

	case loginMsg:
		m.ctrl = msg.ctrl
		m.tail = feed.NewTail(m.ctrl, m.observer)
		return m.refresh()

	case loadedMsg:
		return m.refresh()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		if m.tail != nil {
			m.tail.Release()
		}
		m.sess.Logout()
		return m, tea.Quit
	case "down", "j":
		if m.cursor < len(m.state.Items)-1 {
			m.cursor++
		}
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "o", "enter":
		if m.cursor < len(m.state.Items) {
			m.status = "open: " + m.state.Items[m.cursor].Link
		}
		return m, nil
	case "r":
		if m.ctrl == nil || m.state.LastError == "" || m.pending {
			return m, nil
		}
		m.pending = true
		ctrl, ctx := m.ctrl, m.ctx
		return m, func() tea.Msg {
			ctrl.Retry(ctx)
			return loadedMsg{}
		}
	default:
		return m, nil
	}
	m.status = ""
	m.scrollToCursor()
	cmd := m.checkVisible()
	return m, cmd
}

// refresh takes a new snapshot, rebinds the tail and checks whether the new last row is already visible
func (m Model) refresh() (tea.Model, tea.Cmd) {
	m.pending = false
	m.state = m.ctrl.State()
	if m.cursor >= len(m.state.Items) {
		m.cursor = max(len(m.state.Items)-1, 0)
	}
	if m.state.LastError != "" {
		// failed page is not requested again until explicit retry
		m.tail.Release()
		return m, nil
	}
	m.tail.Rebind(m.ctx)
	cmd := m.checkVisible()
	return m, cmd
}

// checkVisible fires the observed row if it is inside the window, the load runs as a command
func (m *Model) checkVisible() tea.Cmd {
	onVisible, ok := m.observer.fire(m.top, m.rows())
	if !ok {
		return nil
	}
	m.pending = true
	return func() tea.Msg {
		onVisible()
		return loadedMsg{}
	}
}

func (m Model) rows() int {
	if m.height <= 0 {
		return defaultRows
	}
	return max(m.height-chromeLines, 1)
}

func (m *Model) scrollToCursor() {
	rows := m.rows()
	if m.cursor < m.top {
		m.top = m.cursor
	}
	if m.cursor >= m.top+rows {
		m.top = m.cursor - rows + 1
	}
}

// View renders the window of rows and the footer
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Scrollfeed") + "\n\n")

	if m.ctrl == nil {
		b.WriteString(m.spinner.View() + " logging in...\n")
		return b.String()
	}

	items := m.state.Items
	end := min(m.top+m.rows(), len(items))
	for i := m.top; i < end; i++ {
		line := m.formatRow(items[i])
		if i == m.cursor {
			line = cursorStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}

	switch {
	case m.pending || m.state.Loading:
		b.WriteString(m.spinner.View() + " loading...\n")
	case m.state.LastError != "":
		b.WriteString(errorStyle.Render(m.state.LastError) + " " + helpStyle.Render("(r to retry)") + "\n")
	case m.state.Exhausted && len(items) > 0:
		b.WriteString(metaStyle.Render("You've reached the end!") + "\n")
	case m.state.Exhausted:
		b.WriteString(metaStyle.Render("No news available") + "\n")
	default:
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString(m.status + "\n")
	} else {
		b.WriteString(helpStyle.Render("j/k move • o open • r retry • q quit") + "\n")
	}
	return b.String()
}

func (m Model) formatRow(item domain.Item) string {
	var meta []string
	if !item.Published.IsZero() {
		meta = append(meta, item.Published.Format("Jan 2, 2006"))
	}
	if item.SourceName != "" {
		meta = append(meta, item.SourceName)
	}
	line := item.Title
	if len(meta) > 0 {
		line = metaStyle.Render(strings.Join(meta, " · ")) + "  " + item.Title
	}
	if m.width > 0 {
		return lipgloss.NewStyle().MaxWidth(m.width).Render(line)
	}
	return line
}

// windowObserver holds the single observed row, it fires once when the row is inside the window
type windowObserver struct {
	target    int
	onVisible func()
}

// Observe attaches to the target row, replacing any previous observation
func (o *windowObserver) Observe(target int, onVisible func()) feed.Subscription {
	o.target, o.onVisible = target, onVisible
	return windowSub{o: o}
}

// fire returns callback of the observed row if it is within [top, top+rows) and detaches it
func (o *windowObserver) fire(top, rows int) (func(), bool) {
	if o.onVisible == nil || o.target < top || o.target >= top+rows {
		return nil, false
	}
	cb := o.onVisible
	o.onVisible = nil
	return cb, true
}

type windowSub struct {
	o *windowObserver
}

func (s windowSub) Disconnect() { s.o.onVisible = nil }
