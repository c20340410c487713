// Package statsui provides the Bubble Tea statistics dashboard.
package statsui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/readstats/internal/stats"
)

const (
	tabOverview = iota
	tabActivity
	tabBooks
)

const loadTimeout = 30 * time.Second

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
	sectionStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	barStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FB3B3"))
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Loader produces a dashboard snapshot.
type Loader interface {
	AllStats(ctx context.Context) (stats.Snapshot, error)
}

type statsLoadedMsg struct {
	seq  int
	snap stats.Snapshot
	err  error
}

// Model implements the Bubble Tea stats UI.
type Model struct {
	loader Loader
	now    func() time.Time

	snap    stats.Snapshot
	loaded  bool
	loading bool
	loadSeq int
	err     error

	spinner    spinner.Model
	tabs       []string
	activeTab  int
	viewports  []viewport.Model
	bookTable  table.Model
	bookLayout tableLayout

	width  int
	height int
}

type tableLayout struct {
	width  int
	height int
}

// NewModel constructs a dashboard that pulls from loader.
func NewModel(loader Loader) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	m := &Model{
		loader:  loader,
		now:     time.Now,
		spinner: sp,
		tabs:    []string{"Overview", "Activity", "Books"},
	}
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.bookTable = table.New(
		table.WithColumns(bookColumns()),
		table.WithHeight(1),
	)
	m.bookTable.SetStyles(bookTableStyles())
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.reload())
}

func (m *Model) reload() tea.Cmd {
	m.loadSeq++
	m.loading = true
	seq := m.loadSeq
	loader := m.loader
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		snap, err := loader.AllStats(ctx)
		return statsLoadedMsg{seq: seq, snap: snap, err: err}
	}
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
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case statsLoadedMsg:
		if msg.seq != m.loadSeq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.loaded = false
			m.snap = stats.Snapshot{}
		} else {
			m.err = nil
			m.loaded = true
			m.snap = msg.snap
		}
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "r":
			if m.loading {
				return m, nil
			}
			return m, tea.Batch(m.spinner.Tick, m.reload())
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l", "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "g", "home":
			if m.activeTab == tabBooks {
				m.bookTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabBooks {
				m.bookTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			if m.activeTab == tabBooks {
				var cmd tea.Cmd
				m.bookTable, cmd = m.bookTable.Update(msg)
				return m, cmd
			}
			var cmd tea.Cmd
			m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
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
	footer := fitLines(m.renderHelp(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(lipgloss.Height(activeNavStyle.Render("X")), 1)
	headerHeight = tabsHeight + 1
	footerHeight = 1
	bodyHeight = max(m.height-headerHeight-footerHeight, 1)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.setBookTableSize(m.width, bodyHeight)
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = (m.activeTab + delta + count) % count
	if m.activeTab == tabBooks {
		m.bookTable.Focus()
	} else {
		m.bookTable.Blur()
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
	status := "Not loaded"
	switch {
	case m.loading:
		status = m.spinner.View() + " Loading"
	case m.loaded:
		status = "Updated " + m.snap.GeneratedAt.Local().Format("15:04:05")
	case m.err != nil:
		status = "Load failed"
	}
	return padLines(m.renderTabs(), m.width) + "\n" + headerStyle.Render(truncateLine(status, m.width))
}

func (m *Model) renderHelp() string {
	return headerStyle.Render(truncateLine("Nav: left/right  Scroll: up/down/pgup/pgdn  Refresh: r  Quit: q", m.width))
}

func (m *Model) renderBody(height int) string {
	switch {
	case m.err != nil && !m.loading:
		msg := errorStyle.Render("Could not load reading statistics.") + "\n" +
			headerStyle.Render("Press r to retry")
		return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, msg)
	case !m.loaded:
		return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, m.spinner.View()+" Loading statistics...")
	case m.activeTab == tabBooks:
		return tableMutedStyle.Render(m.bookTable.View())
	default:
		return m.viewports[m.activeTab].View()
	}
}

func (m *Model) renderTabContents() {
	if !m.loaded {
		for i := range m.viewports {
			m.viewports[i].SetContent("")
		}
		m.bookTable.SetRows(nil)
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.snap, width))
	m.viewports[tabActivity].SetContent(renderActivity(m.snap, width))
	m.bookTable.SetRows(bookRows(m.snap.Patterns.BookProgress, m.now()))
}

func renderOverview(snap stats.Snapshot, width int) string {
	cov := snap.Books.Coverage
	cards := []string{
		metricCard("Current streak", pluralDays(snap.Streak.Current)),
		metricCard("Longest streak", pluralDays(snap.Streak.Longest)),
		metricCard("Today", fmt.Sprintf("%d ch / %s", snap.Chapters.Today, stats.FormatDuration(snap.Time.Today))),
		metricCard("This week", fmt.Sprintf("%d ch / %s", snap.Chapters.Week, stats.FormatDuration(snap.Time.Week))),
		metricCard("This month", fmt.Sprintf("%d ch / %s", snap.Chapters.Month, stats.FormatDuration(snap.Time.Month))),
		metricCard("This year", fmt.Sprintf("%d ch / %s", snap.Chapters.Year, stats.FormatDuration(snap.Time.Year))),
		metricCard("All time", fmt.Sprintf("%d ch / %s", snap.Chapters.Total, stats.FormatDuration(snap.Time.Total))),
		metricCard("Books", fmt.Sprintf("%d started / %d done", snap.Books.Started, snap.Books.Completed)),
		metricCard("Coverage", fmt.Sprintf("%d%% (%d/%d)", cov.Percentage, cov.ChaptersRead, cov.TotalChapters)),
		metricCard("Engagement", fmt.Sprintf("%d highlights / %d notes", snap.Engagement.Highlights, snap.Engagement.Notes)),
	}
	var grid string
	if width < 80 {
		grid = strings.Join(cards, "\n")
	} else {
		rows := []string{
			lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2]),
			lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4], cards[5], cards[6]),
			lipgloss.JoinHorizontal(lipgloss.Top, cards[7], cards[8], cards[9]),
		}
		grid = lipgloss.JoinVertical(lipgloss.Left, rows...)
	}

	lines := []string{grid, "", sectionStyle.Render("Most read")}
	if len(snap.Books.MostRead) == 0 {
		lines = append(lines, "No books read yet.")
	}
	for i, p := range snap.Books.MostRead {
		lines = append(lines, fmt.Sprintf("%d. %s (%d chapters)", i+1, p.Book, len(p.ChaptersRead)))
	}
	return strings.Join(lines, "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderActivity(snap stats.Snapshot, width int) string {
	sections := []struct {
		title  string
		bars   []stats.Bar
		format func(int) string
	}{
		{"Chapters, last 30 days", stats.DailyBars(snap.Patterns.Monthly, func(d stats.DayActivity) int { return d.ChaptersRead }), nil},
		{"Reading time, last 7 days", stats.WeekdayBars(snap.Patterns.Weekly), stats.FormatDuration},
		{"Sessions by hour", stats.HourlyBars(snap.Patterns.Hourly), nil},
	}
	var b strings.Builder
	for i, section := range sections {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(sectionStyle.Render(section.title))
		for _, line := range stats.BarLines(section.bars, width, section.format) {
			b.WriteString("\n")
			b.WriteString(colorBars(line))
		}
	}
	return b.String()
}

func colorBars(line string) string {
	const bar = "█"
	start := strings.Index(line, bar)
	if start < 0 {
		return line
	}
	end := strings.LastIndex(line, bar) + len(bar)
	return line[:start] + barStyle.Render(line[start:end]) + line[end:]
}

func bookColumns() []table.Column {
	return []table.Column{
		{Title: "Book", Width: 16},
		{Title: "Read", Width: 5},
		{Title: "Chapters", Width: 8},
		{Title: "Progress", Width: 8},
		{Title: "Last Read", Width: 16},
	}
}

func bookRows(details []stats.BookDetail, now time.Time) []table.Row {
	rows := make([]table.Row, 0, len(details))
	for _, d := range details {
		rows = append(rows, table.Row{
			d.Name,
			fmt.Sprintf("%d", d.ChaptersRead),
			fmt.Sprintf("%d", d.TotalChapters),
			fmt.Sprintf("%d%%", d.Percentage),
			stats.LastReadLabel(d.LastRead, now),
		})
	}
	return rows
}

func bookTableStyles() table.Styles {
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

func (m *Model) setBookTableSize(width, height int) {
	viewportHeight := max(1, height-1)
	if m.bookLayout.width == width && m.bookLayout.height == viewportHeight {
		return
	}
	m.bookLayout = tableLayout{width: width, height: viewportHeight}
	m.bookTable.SetWidth(width)
	m.bookTable.SetHeight(viewportHeight)
	// The header border takes rows the table height does not count.
	if extra := lipgloss.Height(m.bookTable.View()) - height; extra > 0 {
		m.bookTable.SetHeight(max(1, viewportHeight-extra))
	}
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
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
	return runewidth.Truncate(s, width, "...")
}
