// Package tui provides the Bubble Tea word-ordering interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/tuiorder/internal/model"
	"github.com/verte-zerg/tuiorder/internal/problemset"
	"github.com/verte-zerg/tuiorder/internal/session"
)

const chipPadding = 2

var (
	chipBaseStyle   = lipgloss.NewStyle().Padding(0, 1)
	normalChipStyle = chipBaseStyle.Foreground(lipgloss.Color("#F0F0F0")).Background(lipgloss.Color("#3A3A3A"))
	lockedChipStyle = chipBaseStyle.Foreground(lipgloss.Color("#101010")).Background(lipgloss.Color("#6FBF73"))
	cursorChipStyle = normalChipStyle.Underline(true).Bold(true)
	heldChipStyle   = chipBaseStyle.Foreground(lipgloss.Color("#101010")).Background(lipgloss.Color("#C89A3A")).Bold(true)
	titleStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	solvedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6FBF73")).Bold(true)
	noteStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#C0C0C0")).Italic(true)
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

func chipStyle(state chipState, locked bool) lipgloss.Style {
	switch state {
	case chipHeld:
		return heldChipStyle
	case chipCursor:
		if locked {
			return lockedChipStyle.Underline(true).Bold(true)
		}
		return cursorChipStyle
	case chipLocked:
		return lockedChipStyle
	default:
		return normalChipStyle
	}
}

// Loader fetches a problem set. It must honor ctx cancellation.
type Loader func(ctx context.Context) (model.ProblemSet, error)

// Opener restores or creates the session for a loaded problem set.
type Opener func(ctx context.Context, problems model.ProblemSet) *session.Session

// Options configures the practice UI.
type Options struct {
	Source string
	Load   Loader
	Open   Opener
	Logger *zap.Logger
}

type loadedMsg struct {
	id       int
	problems model.ProblemSet
	err      error
	canceled bool
}

// Model implements the Bubble Tea practice UI.
type Model struct {
	opts   Options
	logger *zap.Logger

	loading bool
	loadID  int
	cancel  context.CancelFunc
	loadErr error

	sess   *session.Session
	cursor int
	held   bool
	status string

	spinner spinner.Model
	help    help.Model
	keys    keyMap

	width  int
	height int
}

// NewModel constructs the practice UI model.
func NewModel(opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = statusStyle
	return &Model{
		opts:    opts,
		logger:  logger,
		spinner: sp,
		help:    help.New(),
		keys:    defaultKeyMap(),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startLoad())
}

// Session returns the active session, or nil while loading.
func (m *Model) Session() *session.Session {
	return m.sess
}

// Phase reports the lifecycle phase of the UI.
func (m *Model) Phase() session.Phase {
	if m.sess == nil {
		return session.PhaseLoading
	}
	return m.sess.Phase()
}

// startLoad supersedes any in-flight load. Results carry the load id so that
// a superseded or canceled fetch is dropped when it finally reports back.
func (m *Model) startLoad() tea.Cmd {
	m.stopLoad()
	m.loadID++
	m.loading = true
	m.loadErr = nil
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	id := m.loadID
	load := m.opts.Load
	return func() tea.Msg {
		problems, err := load(ctx)
		return loadedMsg{id: id, problems: problems, err: err, canceled: ctx.Err() != nil}
	}
}

func (m *Model) stopLoad() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case loadedMsg:
		m.handleLoaded(msg)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleLoaded(msg loadedMsg) {
	if msg.id != m.loadID {
		m.logger.Debug("dropping stale problem load", zap.Int("load_id", msg.id))
		return
	}
	if msg.canceled || problemset.IsCanceled(msg.err) {
		m.logger.Debug("problem load canceled", zap.Int("load_id", msg.id))
		return
	}
	m.loading = false
	m.stopLoad()
	if msg.err != nil {
		m.loadErr = msg.err
		m.logger.Warn("failed to load problems", zap.String("source", m.opts.Source), zap.Error(msg.err))
		return
	}
	m.sess = m.opts.Open(context.Background(), msg.problems)
	m.resetBoard()
	if m.sess.Restored() {
		m.status = "Resumed saved session."
	}
	m.logger.Info("problems loaded",
		zap.String("source", m.opts.Source),
		zap.Int("problems", len(msg.problems)),
		zap.String("hash", m.sess.Hash()),
		zap.Bool("restored", m.sess.Restored()),
	)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.syncKeys()
	if key.Matches(msg, m.keys.Quit) {
		m.stopLoad()
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.Help) {
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}
	switch {
	case m.loading:
		return m, nil
	case m.loadErr != nil:
		if key.Matches(msg, m.keys.Retry) {
			return m, tea.Batch(m.spinner.Tick, m.startLoad())
		}
		return m, nil
	case m.sess == nil || m.sess.Phase() != session.PhaseReady:
		return m, nil
	}

	m.status = ""
	controls := m.sess.Controls()
	switch {
	case key.Matches(msg, m.keys.Left):
		m.move(-1)
	case key.Matches(msg, m.keys.Right):
		m.move(1)
	case key.Matches(msg, m.keys.Pick):
		m.togglePick()
	case key.Matches(msg, m.keys.Drop):
		m.held = false
	case key.Matches(msg, m.keys.Solve) && controls.Solve:
		m.solve()
	case key.Matches(msg, m.keys.Skip) && controls.Skip:
		m.apply(m.sess.Skip())
		m.resetBoard()
	case key.Matches(msg, m.keys.Next) && controls.Next:
		m.apply(m.sess.Next())
		m.resetBoard()
	case key.Matches(msg, m.keys.Restart) && controls.Restart:
		m.apply(m.sess.Restart())
		m.resetBoard()
		m.status = "Restarted with a fresh shuffle."
	}
	return m, nil
}

func (m *Model) move(dir int) {
	progress, ok := m.sess.CurrentProgress()
	if !ok {
		return
	}
	if !m.held {
		m.cursor = clamp(m.cursor+dir, len(progress.Fragments))
		return
	}
	reordered, to, moved := moveFragment(progress.Fragments, m.cursor, dir)
	if !moved {
		return
	}
	if err := m.sess.Reorder(reordered); err != nil {
		m.apply(err)
		return
	}
	m.cursor = to
}

func (m *Model) togglePick() {
	if m.held {
		m.held = false
		return
	}
	progress, ok := m.sess.CurrentProgress()
	if !ok || m.cursor >= len(progress.Fragments) {
		return
	}
	if progress.Fragments[m.cursor].Locked {
		m.status = "That fragment is already in place."
		return
	}
	m.held = true
}

func (m *Model) solve() {
	m.held = false
	if err := m.sess.Solve(); err != nil {
		m.apply(err)
		return
	}
	progress, ok := m.sess.CurrentProgress()
	if !ok {
		return
	}
	m.cursor = clamp(m.cursor, len(progress.Fragments))
	if progress.Solved {
		m.status = "Solved!"
		return
	}
	locked := 0
	for _, f := range progress.Fragments {
		if f.Locked {
			locked += f.Len()
		}
	}
	problem, _ := m.sess.CurrentProblem()
	m.status = fmt.Sprintf("%d of %d words in place.", locked, len(problem.Tokens))
}

func (m *Model) apply(err error) {
	if err == nil {
		return
	}
	m.logger.Error("session transition failed", zap.Error(err))
	m.status = err.Error()
}

func (m *Model) resetBoard() {
	m.cursor = 0
	m.held = false
}

// moveFragment swaps the fragment at from with the nearest unlocked fragment
// in direction dir. Locked fragments never change position.
func moveFragment(fragments []model.Fragment, from, dir int) ([]model.Fragment, int, bool) {
	if from < 0 || from >= len(fragments) || fragments[from].Locked {
		return fragments, from, false
	}
	to := from + dir
	for to >= 0 && to < len(fragments) && fragments[to].Locked {
		to += dir
	}
	if to < 0 || to >= len(fragments) {
		return fragments, from, false
	}
	out := model.CloneFragments(fragments)
	out[from], out[to] = out[to], out[from]
	return out, to, true
}

func clamp(i, n int) int {
	if n <= 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// View implements tea.Model.
func (m *Model) View() string {
	content := m.renderBody()
	footer := m.renderFooter()
	if m.width == 0 || m.height == 0 {
		return content + "\n\n" + footer
	}
	contentWidth := m.contentWidth()
	content = lipgloss.NewStyle().Width(contentWidth).Render(content)
	footerHeight := lipgloss.Height(footer)
	if m.height <= footerHeight+1 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-footerHeight, lipgloss.Center, lipgloss.Center, content)
	footerBlock := lipgloss.Place(m.width, footerHeight, lipgloss.Center, lipgloss.Bottom, footer)
	return body + "\n" + footerBlock
}

func (m *Model) contentWidth() int {
	w := int(float64(m.width) * 0.70)
	if w < 1 {
		w = 1
	}
	return w
}

func (m *Model) renderBody() string {
	switch {
	case m.loading:
		return fmt.Sprintf("%s Loading problems from %s", m.spinner.View(), m.opts.Source)
	case m.loadErr != nil:
		return errorStyle.Render("Could not load problems.") + "\n" + describeLoadError(m.loadErr)
	case m.sess == nil:
		return ""
	case m.sess.Phase() == session.PhaseEmpty:
		return "This problem set has no problems."
	}

	problem, ok := m.sess.CurrentProblem()
	progress, _ := m.sess.CurrentProgress()
	if !ok {
		return "All problems done."
	}
	lines := []string{
		titleStyle.Render(fmt.Sprintf("Problem %d of %d", m.sess.CurrentIndex()+1, m.sess.TotalCount())),
		"",
	}
	chips := buildChips(progress.Fragments, problem.Tokens, m.cursor, m.held)
	width := 0
	if m.width > 0 {
		width = m.contentWidth()
	}
	lines = append(lines, wrapChips(chips, width))
	if progress.Solved {
		lines = append(lines, "", solvedStyle.Render("Solved"))
		if problem.Note != "" {
			lines = append(lines, noteStyle.Render(problem.Note))
		}
	}
	if m.status != "" {
		lines = append(lines, "", statusStyle.Render(m.status))
	}
	return strings.Join(lines, "\n")
}

func describeLoadError(err error) string {
	var schemaErr *problemset.SchemaError
	switch {
	case errors.As(err, &schemaErr):
		return "The problem file is malformed: " + schemaErr.Error()
	case errors.Is(err, problemset.ErrNetwork):
		return "Network error: " + err.Error()
	default:
		return err.Error()
	}
}

func (m *Model) renderFooter() string {
	m.syncKeys()
	var segments []string
	if m.sess != nil && m.sess.Phase() == session.PhaseReady {
		segments = append(segments,
			fmt.Sprintf("Solved %d", m.sess.SolvedCount()),
			fmt.Sprintf("Remaining %d", m.sess.RemainingCount()),
			fmt.Sprintf("Total %d", m.sess.TotalCount()),
		)
	}
	stats := footerStyle.Render(strings.Join(segments, "  "))
	helpView := m.help.View(m.keys)
	if len(segments) == 0 {
		return helpView
	}
	return stats + "\n" + helpView
}

// syncKeys enables only the bindings that apply in the current phase.
func (m *Model) syncKeys() {
	ready := !m.loading && m.loadErr == nil && m.sess != nil && m.sess.Phase() == session.PhaseReady
	controls := session.Controls{}
	if ready {
		controls = m.sess.Controls()
	}
	m.keys.Left.SetEnabled(ready)
	m.keys.Right.SetEnabled(ready)
	m.keys.Pick.SetEnabled(ready && !controls.Next && !controls.Restart)
	m.keys.Drop.SetEnabled(ready && m.held)
	m.keys.Solve.SetEnabled(controls.Solve)
	m.keys.Skip.SetEnabled(controls.Skip)
	m.keys.Next.SetEnabled(controls.Next)
	m.keys.Restart.SetEnabled(controls.Restart)
	m.keys.Retry.SetEnabled(!m.loading && m.loadErr != nil)
}
