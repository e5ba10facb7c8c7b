// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuiorder/internal/stats"
)

const (
	tabOverview = iota
	tabProblems
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	noteStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#C0C0C0")).Italic(true)
)

// ReportLoader builds the report shown by the UI.
type ReportLoader func(ctx context.Context) (stats.Report, error)

// Model implements the Bubble Tea stats UI.
type Model struct {
	load ReportLoader

	report stats.Report
	rows   []stats.ProblemRow
	errMsg string

	tabs      []string
	activeTab int
	overview  viewport.Model
	table     table.Model

	filterMode  bool
	filterInput textinput.Model
	filter      string

	width  int
	height int
}

// NewModel constructs a stats UI model and loads the first report.
func NewModel(load ReportLoader) *Model {
	m := &Model{
		load:     load,
		tabs:     []string{"Overview", "Problems"},
		overview: viewport.New(0, 0),
		table:    buildTable(nil, 80, 10),
	}
	m.filterInput = newFilterInput("Filter: ")
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderOverview()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l", "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "r":
			m.refreshReport()
			return m, nil
		case "/":
			return m.startFilter()
		case "g", "home":
			if m.activeTab == tabProblems {
				m.table.GotoTop()
			} else {
				m.overview.GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabProblems {
				m.table.GotoBottom()
			} else {
				m.overview.GotoBottom()
			}
			return m, nil
		default:
			var cmd tea.Cmd
			if m.activeTab == tabProblems {
				m.table, cmd = m.table.Update(msg)
				return m, cmd
			}
			m.overview, cmd = m.overview.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.Placeholder = "words in the sentence"
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.overview.Width = m.width
	m.overview.Height = bodyHeight
	m.table.SetWidth(m.width)
	// One line for the table header, two for the selected problem's note.
	m.table.SetHeight(maxInt(1, bodyHeight-3))
	m.filterInput.Width = maxInt(10, m.width-lipgloss.Width(m.filterInput.Prompt)-2)
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabProblems {
		m.table.Focus()
	} else {
		m.table.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	filter := m.filter
	if filter == "" {
		filter = "none"
	}
	summary := fmt.Sprintf("Set: %s  filter=%s  showing %d of %d", shortHash(m.report.Hash), filter, len(m.rows), len(m.report.Rows))
	return tabs + "\n" + headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("enter: apply  esc: cancel  empty filter shows all")
	}
	help := headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Filter: /  Reload: r  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines("Filter problems by sentence text\n"+m.filterInput.View(), m.width, height)
	}
	if m.activeTab == tabProblems {
		if len(m.rows) == 0 {
			return fitLines("No problems match.", m.width, height)
		}
		view := tableMutedStyle.Render(m.table.View())
		return fitLines(view+"\n"+m.renderSelectedNote(), m.width, height)
	}
	return fitLines(m.overview.View(), m.width, height)
}

func (m *Model) renderSelectedNote() string {
	row, ok := m.selectedRow()
	if !ok || row.Note == "" {
		return ""
	}
	return noteStyle.Render(truncateLine(row.Note, m.width))
}

func (m *Model) selectedRow() (stats.ProblemRow, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.rows) {
		return stats.ProblemRow{}, false
	}
	return m.rows[idx], true
}

func (m *Model) refreshReport() {
	report, err := m.load(context.Background())
	if err != nil {
		m.errMsg = err.Error()
		m.overview.SetContent("Failed to load stats.")
		return
	}
	m.errMsg = ""
	m.report = report
	m.applyFilter()
	m.renderOverview()
}

func (m *Model) applyFilter() {
	m.rows = filterRows(m.report.Rows, m.filter)
	m.table.SetRows(tableRows(m.rows))
	m.table.GotoTop()
}

func (m *Model) renderOverview() {
	if m.errMsg != "" {
		m.overview.SetContent("Failed to load stats.")
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.overview.SetContent(renderOverview(m.report, width))
}

func renderOverview(r stats.Report, width int) string {
	if len(r.Rows) == 0 {
		return "No problems found."
	}
	cards := []string{
		metricCard("Problems", fmt.Sprintf("%d", len(r.Rows))),
		metricCard("Attempted", fmt.Sprintf("%d", r.Attempted())),
		metricCard("Solved", fmt.Sprintf("%d", r.Solved())),
		metricCard("Attempts", fmt.Sprintf("%d", r.TotalAttempts())),
	}
	var summary string
	if width < 80 {
		summary = strings.Join(cards, "\n")
	} else {
		summary = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}
	ratios := make([]float64, len(r.Rows))
	for i, row := range r.Rows {
		ratios[i] = row.LockRatio()
	}
	progress := headerStyle.Render("Best locked share per problem") + "\n[" + stats.Sparkline(ratios) + "]"
	return summary + "\n\n" + progress
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func tableColumns() []table.Column {
	return []table.Column{
		{Title: "#", Width: 4},
		{Title: "Sentence", Width: 40},
		{Title: "Attempts", Width: 8},
		{Title: "Best", Width: 7},
		{Title: "Solved", Width: 6},
	}
}

func tableRows(rows []stats.ProblemRow) []table.Row {
	out := make([]table.Row, 0, len(rows))
	for _, row := range rows {
		solved := "no"
		if row.Solved {
			solved = "yes"
		}
		out = append(out, table.Row{
			fmt.Sprintf("%d", row.Index+1),
			row.Sentence,
			fmt.Sprintf("%d", row.Attempts),
			fmt.Sprintf("%d/%d", row.BestLocked, row.Tokens),
			solved,
		})
	}
	return out
}

func buildTable(rows []stats.ProblemRow, width, height int) table.Model {
	t := table.New(
		table.WithColumns(tableColumns()),
		table.WithRows(tableRows(rows)),
		table.WithHeight(maxInt(1, height)),
	)
	t.SetWidth(width)
	t.SetStyles(tableStyles())
	return t
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterInput.SetValue(m.filter)
	return m, m.filterInput.Focus()
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterInput.Blur()
		return m, nil
	case tea.KeyEnter:
		m.filter = strings.TrimSpace(m.filterInput.Value())
		m.filterMode = false
		m.filterInput.Blur()
		m.applyFilter()
		return m, nil
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	return m, cmd
}

func filterRows(rows []stats.ProblemRow, filter string) []stats.ProblemRow {
	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" {
		return append([]stats.ProblemRow(nil), rows...)
	}
	out := make([]stats.ProblemRow, 0, len(rows))
	for _, row := range rows {
		if strings.Contains(strings.ToLower(row.Sentence), filter) {
			out = append(out, row)
		}
	}
	return out
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	if hash == "" {
		return "-"
	}
	return hash
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
