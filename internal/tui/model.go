// Package tui provides the Bubble Tea reading view.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/readstats/internal/clock"
	"github.com/verte-zerg/readstats/internal/corpus"
	"github.com/verte-zerg/readstats/internal/model"
	"github.com/verte-zerg/readstats/internal/tracker"
)

// HighlightColor is the color recorded for highlights made in the reader.
const HighlightColor = "yellow"

// Session is the tracker surface the reader drives.
type Session interface {
	StartSession(ctx context.Context, book string, chapter int) error
	PauseSession()
	ResumeSession()
	EndSession(ctx context.Context) (tracker.EndResult, error)
	Current() (tracker.Snapshot, bool)
}

// Recorder stores engagement events.
type Recorder interface {
	AddEngagementEvent(ctx context.Context, event model.EngagementEvent) (int64, error)
}

// Config wires a reading view.
type Config struct {
	Session  Session
	Recorder Recorder
	Catalog  *corpus.Catalog
	Text     TextSource
	Clock    clock.Clock
	Logger   *slog.Logger
	Book     string
	Chapter  int
}

type tickMsg time.Time

var (
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	verseStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#1A1A1A")).Background(lipgloss.Color("#E6C84F"))
	placeholder    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// Model implements the Bubble Tea reading view.
type Model struct {
	session  Session
	recorder Recorder
	catalog  *corpus.Catalog
	text     TextSource
	clock    clock.Clock
	logger   *slog.Logger

	book          string
	chapter       int
	totalChapters int

	verses      []string
	selected    int
	highlighted map[int]bool
	verseLines  []int

	blurPaused bool
	noting     bool
	noteInput  textinput.Model

	status    string
	statusErr bool

	viewport viewport.Model
	width    int
	height   int

	ended  bool
	result tracker.EndResult
	endErr error
}

// NewModel validates the chapter against the catalog and starts a session.
func NewModel(ctx context.Context, cfg Config) (*Model, error) {
	if cfg.Session == nil {
		return nil, errors.New("reader needs a session tracker")
	}
	if cfg.Catalog == nil {
		cfg.Catalog = corpus.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Text == nil {
		cfg.Text = DirSource{}
	}
	input := textinput.New()
	input.Placeholder = "note"
	input.Prompt = "Note: "
	input.CharLimit = 2000

	m := &Model{
		session:   cfg.Session,
		recorder:  cfg.Recorder,
		catalog:   cfg.Catalog,
		text:      cfg.Text,
		clock:     cfg.Clock,
		logger:    cfg.Logger,
		noteInput: input,
		viewport:  viewport.New(0, 0),
	}
	if err := m.open(ctx, cfg.Book, cfg.Chapter); err != nil {
		return nil, err
	}
	return m, nil
}

// Result returns how the session ended once the view has quit.
func (m *Model) Result() (tracker.EndResult, error) {
	return m.result, m.endErr
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-3, 1)
		m.noteInput.Width = max(msg.Width-len(m.noteInput.Prompt)-1, 1)
		m.renderText()
		return m, nil
	case tickMsg:
		if m.ended {
			return m, nil
		}
		return m, tick()
	case tea.BlurMsg:
		if snap, ok := m.session.Current(); ok && !snap.Paused {
			m.session.PauseSession()
			m.blurPaused = true
		}
		return m, nil
	case tea.FocusMsg:
		if m.blurPaused {
			m.session.ResumeSession()
			m.blurPaused = false
		}
		return m, nil
	case tea.KeyMsg:
		if m.noting {
			return m.updateNote(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.finish(ctx)
		return m, tea.Quit
	case "p", " ":
		m.togglePause()
	case "n", "right":
		m.step(ctx, 1)
	case "b", "left":
		m.step(ctx, -1)
	case "j", "down":
		m.selectVerse(m.selected + 1)
	case "k", "up":
		m.selectVerse(m.selected - 1)
	case "h":
		m.highlight(ctx)
	case "m":
		m.noting = true
		m.noteInput.Reset()
		return m, m.noteInput.Focus()
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) updateNote(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.noting = false
		m.noteInput.Blur()
		m.setStatus("Note discarded", false)
		return m, nil
	case tea.KeyEnter:
		text := strings.TrimSpace(m.noteInput.Value())
		m.noting = false
		m.noteInput.Blur()
		if text == "" {
			m.setStatus("Note discarded", false)
			return m, nil
		}
		m.recordEngagement(context.Background(), model.EngagementNote, map[string]any{
			"length": utf8.RuneCountInString(text),
		})
		return m, nil
	case tea.KeyCtrlC:
		m.finish(context.Background())
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.noteInput, cmd = m.noteInput.Update(msg)
	return m, cmd
}

// open starts a session for the chapter and loads its text.
func (m *Model) open(ctx context.Context, book string, chapter int) error {
	entry, ok := m.catalog.Lookup(book)
	if !ok {
		return fmt.Errorf("unknown book %q", book)
	}
	if chapter < 1 || chapter > entry.Chapters {
		return fmt.Errorf("%s has %d chapters, got %d", entry.Name, entry.Chapters, chapter)
	}
	if err := m.session.StartSession(ctx, entry.Name, chapter); err != nil {
		return err
	}
	m.blurPaused = false
	m.book = entry.Name
	m.chapter = chapter
	m.totalChapters = entry.Chapters
	m.selected = 0
	m.highlighted = map[int]bool{}
	m.loadText()
	m.renderText()
	return nil
}

func (m *Model) loadText() {
	verses, err := m.text.Verses(m.book, m.chapter)
	if err != nil {
		if !errors.Is(err, ErrNoText) {
			m.logger.Warn("failed to load chapter text", "book", m.book, "chapter", m.chapter, "err", err)
		}
		m.verses = nil
		return
	}
	m.verses = verses
}

// step moves to the neighbouring chapter, crossing into the next or
// previous book at the edges.
func (m *Model) step(ctx context.Context, delta int) {
	book, chapter, ok := m.neighbour(delta)
	if !ok {
		return
	}
	if err := m.open(ctx, book, chapter); err != nil {
		m.logger.Warn("failed to open chapter", "book", book, "chapter", chapter, "err", err)
		m.setStatus("Could not open "+book+" "+strconv.Itoa(chapter), true)
		return
	}
	m.setStatus("", false)
}

func (m *Model) neighbour(delta int) (string, int, bool) {
	next := m.chapter + delta
	if next >= 1 && next <= m.totalChapters {
		return m.book, next, true
	}
	books := m.catalog.Books()
	for i, b := range books {
		if b.Name != m.book {
			continue
		}
		switch {
		case delta > 0 && i+1 < len(books):
			return books[i+1].Name, 1, true
		case delta < 0 && i > 0:
			return books[i-1].Name, books[i-1].Chapters, true
		}
		return "", 0, false
	}
	return "", 0, false
}

func (m *Model) togglePause() {
	snap, ok := m.session.Current()
	if !ok {
		return
	}
	m.blurPaused = false
	if snap.Paused {
		m.session.ResumeSession()
		return
	}
	m.session.PauseSession()
}

func (m *Model) selectVerse(i int) {
	if len(m.verses) == 0 {
		return
	}
	m.selected = min(max(i, 0), len(m.verses)-1)
	m.renderText()
	if m.selected < len(m.verseLines) {
		line := m.verseLines[m.selected]
		if line < m.viewport.YOffset || line >= m.viewport.YOffset+m.viewport.Height {
			m.viewport.SetYOffset(line)
		}
	}
}

// currentVerse is the selected verse number, or 0 without text.
func (m *Model) currentVerse() int {
	if len(m.verses) == 0 {
		return 0
	}
	return m.selected + 1
}

func (m *Model) highlight(ctx context.Context) {
	if m.recordEngagement(ctx, model.EngagementHighlight, map[string]any{"color": HighlightColor}) {
		if verse := m.currentVerse(); verse > 0 {
			m.highlighted[verse] = true
			m.renderText()
		}
	}
}

func (m *Model) recordEngagement(ctx context.Context, kind model.EngagementType, data map[string]any) bool {
	if m.recorder == nil {
		return false
	}
	event := model.EngagementEvent{
		EventType: kind,
		Book:      m.book,
		Chapter:   m.chapter,
		Verse:     m.currentVerse(),
		Timestamp: m.clock.Now(),
		Data:      data,
	}
	if _, err := m.recorder.AddEngagementEvent(ctx, event); err != nil {
		m.logger.Error("failed to record engagement", "type", kind, "book", m.book, "chapter", m.chapter, "err", err)
		m.setStatus("Could not save "+string(kind), true)
		return false
	}
	target := fmt.Sprintf("%s %d", m.book, m.chapter)
	if event.Verse > 0 {
		target += ":" + strconv.Itoa(event.Verse)
	}
	switch kind {
	case model.EngagementHighlight:
		m.setStatus("Highlighted "+target, false)
	case model.EngagementNote:
		m.setStatus("Noted "+target, false)
	}
	return true
}

func (m *Model) finish(ctx context.Context) {
	if m.ended {
		return
	}
	m.ended = true
	m.result, m.endErr = m.session.EndSession(ctx)
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

func (m *Model) renderText() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	contentWidth := max(int(float64(width)*0.70), 1)
	m.verseLines = m.verseLines[:0]
	if len(m.verses) == 0 {
		msg := placeholder.Render(fmt.Sprintf("No text available for %s %d.", m.book, m.chapter))
		m.viewport.SetContent(lipgloss.PlaceHorizontal(width, lipgloss.Center, msg))
		return
	}
	var lines []string
	for i, verse := range m.verses {
		m.verseLines = append(m.verseLines, len(lines))
		style := verseStyle
		switch {
		case m.highlighted[i+1]:
			style = highlightStyle
		case i == m.selected:
			style = selectedStyle
		}
		for _, line := range wrapVerse(strconv.Itoa(i+1), verse, contentWidth) {
			lines = append(lines, style.Render(line))
		}
	}
	content := lipgloss.NewStyle().Width(contentWidth).Render(strings.Join(lines, "\n"))
	m.viewport.SetContent(lipgloss.PlaceHorizontal(width, lipgloss.Center, content))
}

// View implements tea.Model.
func (m *Model) View() string {
	title := titleStyle.Render(fmt.Sprintf("%s %d", m.book, m.chapter))
	if m.width == 0 || m.height == 0 {
		return title + "\n" + m.renderFooter()
	}
	header := lipgloss.Place(m.width, 2, lipgloss.Center, lipgloss.Center, title)
	bottom := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, m.renderFooter())
	if m.noting {
		bottom = m.noteInput.View()
	}
	return header + "\n" + m.viewport.View() + "\n" + bottom
}

func (m *Model) renderFooter() string {
	segments := []string{fmt.Sprintf("Chapter %d/%d", m.chapter, m.totalChapters)}
	if snap, ok := m.session.Current(); ok {
		elapsed := formatElapsed(snap.ElapsedSeconds)
		if snap.Paused {
			elapsed += " paused"
		}
		segments = append(segments, elapsed)
	}
	if m.status != "" {
		if m.statusErr {
			segments = append(segments, errorStyle.Render(m.status))
		} else {
			segments = append(segments, m.status)
		}
	}
	segments = append(segments, "n/b chapter  h highlight  m note  p pause  q quit")
	return footerStyle.Render(strings.Join(segments, "  ·  "))
}

func formatElapsed(seconds int) string {
	seconds = max(seconds, 0)
	h := seconds / 3600
	mnt := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, mnt, s)
	}
	return fmt.Sprintf("%02d:%02d", mnt, s)
}
