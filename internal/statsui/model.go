// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/abacus/internal/model"
	"github.com/verte-zerg/abacus/internal/stats"
	"github.com/verte-zerg/abacus/internal/store"
)

const (
	tabOverview = iota
	tabOperations
	tabRecent
)

const recentLimit = 50

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
)

var modeCycle = []model.Mode{"", model.ModeTimed, model.ModeOral}

var operationCycle = []model.Operation{"", model.OpAddLess, model.OpMultiply, model.OpDivide}

// Model implements the Bubble Tea stats UI.
type Model struct {
	store *store.Store
	cfg   model.StatsConfig

	report stats.Report
	errMsg string

	tabs      []string
	activeTab int
	overview  viewport.Model
	tables    map[int]*table.Model

	width  int
	height int
}

// NewModel constructs a stats UI model.
func NewModel(st *store.Store, cfg model.StatsConfig) *Model {
	if cfg.CurveWindow <= 0 {
		cfg.CurveWindow = 1
	}
	opsTable := newTable()
	recentTable := newTable()
	m := &Model{
		store:    st,
		cfg:      cfg,
		tabs:     []string{"Overview", "Operations", "Recent"},
		overview: viewport.New(0, 0),
		tables: map[int]*table.Model{
			tabOperations: &opsTable,
			tabRecent:     &recentTable,
		},
	}
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
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l", "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=":
			m.cfg.CurveWindow = nextCurveWindow(m.cfg.CurveWindow)
			m.refreshReport()
			return m, nil
		case "-":
			m.cfg.CurveWindow = prevCurveWindow(m.cfg.CurveWindow)
			m.refreshReport()
			return m, nil
		case "m":
			m.cfg.Mode = nextMode(m.cfg.Mode)
			m.refreshReport()
			return m, nil
		case "o":
			m.cfg.Operation = nextOperation(m.cfg.Operation)
			m.refreshReport()
			return m, nil
		case "g", "home":
			if t, ok := m.tables[m.activeTab]; ok {
				t.GotoTop()
			} else {
				m.overview.GotoTop()
			}
			return m, nil
		case "G", "end":
			if t, ok := m.tables[m.activeTab]; ok {
				t.GotoBottom()
			} else {
				m.overview.GotoBottom()
			}
			return m, nil
		}
		var cmd tea.Cmd
		if t, ok := m.tables[m.activeTab]; ok {
			*t, cmd = t.Update(msg)
			return m, cmd
		}
		m.overview, cmd = m.overview.Update(msg)
		return m, cmd
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
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(lipgloss.Height(activeNavStyle.Render("X")), 1)
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = max(m.height-headerHeight-footerHeight, 1)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.overview.Width = m.width
	m.overview.Height = bodyHeight
	for _, t := range m.tables {
		t.SetWidth(m.width)
		t.SetHeight(max(bodyHeight-1, 1))
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = (m.activeTab + delta + count) % count
	for idx, t := range m.tables {
		if idx == m.activeTab {
			t.Focus()
		} else {
			t.Blur()
		}
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
	return m.renderTabs() + "\n" + headerStyle.Render(runewidth.Truncate(m.filterSummary(), m.width, "..."))
}

func (m *Model) filterSummary() string {
	mode := string(m.cfg.Mode)
	if mode == "" {
		mode = "any"
	}
	op := "any"
	if m.cfg.Operation != "" {
		op = stats.OperationLabel(m.cfg.Operation)
	}
	since := "any"
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format("2006-01-02")
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	return fmt.Sprintf("Filters: mode=%s  op=%s  since=%s  last=%s  window=%d", mode, op, since, last, m.cfg.CurveWindow)
}

func (m *Model) renderFooter() string {
	help := headerStyle.Render("Nav: left/right  Scroll: up/down  Window: -/=  Mode: m  Operation: o  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderBody() string {
	if len(m.report.Sessions) == 0 && m.errMsg == "" {
		return "No sessions found."
	}
	if t, ok := m.tables[m.activeTab]; ok {
		return tableMutedStyle.Render(t.View())
	}
	return m.overview.View()
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		m.report = stats.Report{}
		m.overview.SetContent("Failed to load stats.")
		return
	}
	m.errMsg = ""
	m.report = report

	cols, rows := operationTableData(report.Operations)
	m.tables[tabOperations].SetRows(nil)
	m.tables[tabOperations].SetColumns(cols)
	m.tables[tabOperations].SetRows(rows)

	cols, rows = recentTableData(report.Sessions)
	m.tables[tabRecent].SetRows(nil)
	m.tables[tabRecent].SetColumns(cols)
	m.tables[tabRecent].SetRows(rows)

	m.updateLayout()
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.overview.SetContent(renderOverview(m.report, m.cfg.CurveWindow, width))
}

func renderOverview(report stats.Report, window, width int) string {
	if len(report.Sessions) == 0 {
		return "No sessions found."
	}
	parts := []string{renderSummaryCards(report.Sessions, width), renderCurves(report.Sessions, window, width)}
	if bars := renderOperationBars(report.OperationsWindow, width); bars != "" {
		parts = append(parts, bars)
	}
	return strings.TrimRight(strings.Join(parts, "\n\n"), "\n")
}

func renderSummaryCards(sessions []model.SessionAggregate, width int) string {
	s := stats.Summarize(sessions)
	cards := []string{
		metricCard("Sessions", strconv.Itoa(s.Sessions)),
		metricCard("Problems", strconv.Itoa(s.Problems)),
		metricCard("Avg Acc", fmt.Sprintf("%.1f%%", s.AvgAccuracy*100)),
		metricCard("Best Acc", fmt.Sprintf("%.1f%%", s.BestAccuracy*100)),
		metricCard("Per Min", fmt.Sprintf("%.2f", s.AvgPerMinute)),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4])
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderCurves(sessions []model.SessionAggregate, window, width int) string {
	var buf bytes.Buffer
	if err := stats.RenderCurves(&buf, sessions, window, width); err != nil {
		return fmt.Sprintf("Failed to render curves: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func renderOperationBars(aggs []model.OperationAggregate, width int) string {
	if len(aggs) == 0 {
		return ""
	}
	lines := []string{"Accuracy in window"}
	barWidth := max(min(width-24, 40), 10)
	for _, agg := range stats.SortByAccuracy(aggs) {
		acc, _ := stats.SessionMetrics(agg.Correct, agg.Total, agg.DurationMs)
		lines = append(lines, fmt.Sprintf("%-9s %s %5.1f%%",
			stats.OperationLabel(agg.Operation), stats.Bar(acc, 1, barWidth), acc*100))
	}
	if weakest, ok := stats.WeakestOperation(aggs); ok && len(aggs) > 1 {
		lines = append(lines, "Focus next: "+stats.OperationLabel(weakest))
	}
	return strings.Join(lines, "\n")
}

func newTable() table.Model {
	t := table.New(table.WithHeight(1))
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

func operationTableData(aggs []model.OperationAggregate) ([]table.Column, []table.Row) {
	columns := []table.Column{
		{Title: "Operation", Width: 10},
		{Title: "Sessions", Width: 8},
		{Title: "Problems", Width: 8},
		{Title: "Correct", Width: 7},
		{Title: "Accuracy", Width: 9},
		{Title: "Per Min", Width: 8},
	}
	rows := make([]table.Row, 0, len(aggs))
	for _, agg := range stats.SortByAccuracy(aggs) {
		acc, perMin := stats.SessionMetrics(agg.Correct, agg.Total, agg.DurationMs)
		rows = append(rows, table.Row{
			stats.OperationLabel(agg.Operation),
			strconv.Itoa(agg.Sessions),
			strconv.Itoa(agg.Total),
			strconv.Itoa(agg.Correct),
			fmt.Sprintf("%.1f%%", acc*100),
			fmt.Sprintf("%.2f", perMin),
		})
	}
	return columns, rows
}

func recentTableData(sessions []model.SessionAggregate) ([]table.Column, []table.Row) {
	headers := stats.RecentHeaders()
	widths := []int{16, 6, 9, 7, 8, 8}
	columns := make([]table.Column, len(headers))
	for i, h := range headers {
		columns[i] = table.Column{Title: h, Width: widths[i]}
	}
	recent := stats.RecentRows(sessions, recentLimit)
	rows := make([]table.Row, len(recent))
	for i, r := range recent {
		rows[i] = table.Row(r)
	}
	return columns, rows
}

func nextMode(mode model.Mode) model.Mode {
	for i, m := range modeCycle {
		if m == mode {
			return modeCycle[(i+1)%len(modeCycle)]
		}
	}
	return modeCycle[0]
}

func nextOperation(op model.Operation) model.Operation {
	for i, o := range operationCycle {
		if o == op {
			return operationCycle[(i+1)%len(operationCycle)]
		}
	}
	return operationCycle[0]
}

func nextCurveWindow(n int) int {
	if n < 5 {
		return 5
	}
	return (n/5 + 1) * 5
}

func prevCurveWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return (n / 5) * 5
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
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}
