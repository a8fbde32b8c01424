// Package ui is the terminal front end: a bubbletea program that paints the
// laid-out family tree, zooms and scrolls it, and moves to members picked
// from a search box.
//
// The stage, navigator, picker and schedule queue are only touched from
// Update. Store snapshots arrive as messages; timers run when a frame tick
// drains the queue.
package ui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/famtree/pkg/debug"
	"github.com/vanderheijden86/famtree/pkg/layout"
	"github.com/vanderheijden86/famtree/pkg/metrics"
	"github.com/vanderheijden86/famtree/pkg/navigator"
	"github.com/vanderheijden86/famtree/pkg/schedule"
	"github.com/vanderheijden86/famtree/pkg/search"
	"github.com/vanderheijden86/famtree/pkg/stage"
	"github.com/vanderheijden86/famtree/pkg/store"
	"github.com/vanderheijden86/famtree/pkg/tree"
)

// frameInterval paces repaints while timers or transitions are pending.
const frameInterval = 16 * time.Millisecond

// scrollStep is how far one arrow key moves the view, in cells.
const scrollStep = 4

// maxSuggestions caps the search suggestion list.
const maxSuggestions = 8

type viewMode int

const (
	modeTree viewMode = iota
	modeSearch
	modeDetail
	modeHelp
)

func (v viewMode) String() string {
	switch v {
	case modeSearch:
		return "search"
	case modeDetail:
		return "detail"
	case modeHelp:
		return "help"
	default:
		return "tree"
	}
}

// SnapshotMsg carries a store snapshot into the update loop.
type SnapshotMsg struct {
	Snapshot store.Snapshot
}

// FeedClosedMsg reports that the snapshot channel was closed.
type FeedClosedMsg struct{}

type frameMsg time.Time

// WaitForSnapshotCmd returns a command that waits for the next snapshot on
// ch. Snapshots are therefore applied one at a time, in arrival order.
func WaitForSnapshotCmd(ch <-chan store.Snapshot) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return FeedClosedMsg{}
		}
		return SnapshotMsg{Snapshot: s}
	}
}

func frameCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

// Config configures the model.
type Config struct {
	Stage      stage.Config
	Navigator  navigator.Config
	Layout     layout.Options
	RootPolicy tree.RootPolicy
	Theme      string
	Title      string
}

// DefaultConfig returns the stock terminal configuration.
func DefaultConfig() Config {
	return Config{
		Stage:      stage.DefaultConfig(),
		Navigator:  navigator.DefaultConfig(),
		Layout:     layout.CellOptions(),
		RootPolicy: tree.PromoteDangling,
		Theme:      "auto",
		Title:      "famtree",
	}
}

// Option customises a Model.
type Option func(*Model)

// WithClock drives timers from clock instead of time.Now.
func WithClock(clock schedule.Clock) Option {
	return func(m *Model) { m.clock = clock }
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(fn func(string) error) Option {
	return func(m *Model) { m.copy = fn }
}

// WithSnapshots makes Init listen on ch.
func WithSnapshots(ch <-chan store.Snapshot) Option {
	return func(m *Model) { m.snapshots = ch }
}

// WithInitialFocus focuses a member once data and a viewport are
// available. ref is a member id or an element id.
func WithInitialFocus(ref string) Option {
	return func(m *Model) { m.pendingFocus = ref }
}

// WithTheme overrides the theme chosen by Config.Theme.
func WithTheme(t Theme) Option {
	return func(m *Model) { m.theme = t; m.themeSet = true }
}

// Model is the bubbletea model for the tree view.
type Model struct {
	cfg      Config
	theme    Theme
	themeSet bool
	keys     keyMap
	help     help.Model

	clock  schedule.Clock
	queue  *schedule.Queue
	stage  *stage.Stage
	nav    *navigator.Navigator
	picker *search.Picker
	input  textinput.Model
	cache  *tree.Cache

	snapshots <-chan store.Snapshot
	snapshot  store.Snapshot
	forest    *tree.Forest

	width, height int
	mode          viewMode
	selected      string
	pendingFocus  string

	detail  viewport.Model
	md      *glamour.TermRenderer
	mdWidth int

	copy          func(string) error
	status        string
	statusIsError bool
	ticking       bool
	quitting      bool
}

// New creates a model. Until the first snapshot arrives it shows an empty
// tree.
func New(cfg Config, opts ...Option) Model {
	m := Model{
		cfg:   cfg,
		keys:  defaultKeyMap(),
		help:  help.New(),
		clock: time.Now,
		copy:  clipboard.WriteAll,
	}
	for _, opt := range opts {
		opt(&m)
	}
	if !m.themeSet {
		m.theme = NamedTheme(cfg.Theme, os.Stdout)
	}
	if m.cfg.Title == "" {
		m.cfg.Title = "famtree"
	}

	m.queue = schedule.NewQueue(m.clock)
	m.stage = stage.New(cfg.Stage, m.queue)
	m.nav = navigator.New(cfg.Navigator, m.stage, m.queue)
	m.picker = search.NewPicker(nil)
	m.cache = tree.NewCache(cfg.RootPolicy)
	m.forest = tree.Build(nil)

	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "search by name"
	ti.PromptStyle = m.theme.Renderer.NewStyle().Foreground(m.theme.Primary)
	ti.CharLimit = 120
	m.input = ti

	m.detail = viewport.New(0, 0)
	return m
}

func (m Model) Init() tea.Cmd {
	return WaitForSnapshotCmd(m.snapshots)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case SnapshotMsg:
		m.applySnapshot(msg.Snapshot)
		cmds = append(cmds, WaitForSnapshotCmd(m.snapshots))

	case FeedClosedMsg:
		m.snapshots = nil
		m.setStatus("data feed closed", true)

	case frameMsg:
		m.ticking = false
		m.queue.RunDue()

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		var cmd tea.Cmd
		m, cmd = m.handleKey(msg)
		cmds = append(cmds, cmd)
	}

	if !m.ticking && !m.quitting && m.queue.Len() > 0 {
		m.ticking = true
		cmds = append(cmds, frameCmd())
	}
	return m, tea.Batch(cmds...)
}

// applySnapshot rebuilds the forest and layout from s. The layout is
// replaced wholesale, which arms a fresh fit.
func (m *Model) applySnapshot(s store.Snapshot) {
	m.snapshot = s
	m.forest = m.cache.Get(s.Version, s.Members)
	m.stage.SetLayout(layout.Compute(m.forest, m.cfg.Layout))
	m.picker.SetMembers(s.Members)

	if _, ok := m.forest.Node(m.selected); !ok {
		m.selected = ""
		if ids := m.stage.Layout().IDs(); len(ids) > 0 {
			m.selected = ids[0]
		}
	}
	if m.mode == modeDetail {
		m.openDetail()
	}

	m.stage.MeasureNow()
	m.tryPendingFocus()
	debug.Log("ui: snapshot %s applied (%d members, %d roots)", s.Version, m.forest.Len(), len(m.forest.Roots()))
}

func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	m.help.Width = w
	m.input.Width = max(w-4, 10)

	cw, ch := m.canvasSize()
	m.stage.SetViewport(float64(cw), float64(ch))
	m.stage.MeasureNow()

	m.detail.Width = max(w-4, 10)
	m.detail.Height = max(ch-2, 3)
	if m.mode == modeDetail {
		m.openDetail()
	}
	m.tryPendingFocus()
}

func (m *Model) tryPendingFocus() {
	if m.pendingFocus == "" || m.width == 0 || m.forest.Empty() {
		return
	}
	ref := m.pendingFocus
	id, ok := m.stage.LookupElement(ref)
	if !ok {
		id = ref
	}
	m.pendingFocus = ""
	m.selected = id
	m.focus(id)
}

// canvasSize leaves one row for the header and one for the footer.
func (m Model) canvasSize() (int, int) {
	return max(m.width, 0), max(m.height-2, 0)
}

func (m *Model) setStatus(s string, isError bool) {
	m.status, m.statusIsError = s, isError
}

func (m *Model) focus(id string) {
	if !m.nav.Focus(id) {
		m.setStatus(fmt.Sprintf("not in tree: %s", id), true)
		return
	}
	name := id
	if n, ok := m.forest.Node(id); ok && n.Member.FullName() != "" {
		name = n.Member.FullName()
	}
	m.setStatus("→ "+name, false)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.mode {
	case modeSearch:
		return m.handleSearchKey(msg)
	case modeDetail:
		if key.Matches(msg, m.keys.Back, m.keys.Detail, m.keys.Quit) {
			m.mode = modeTree
			return m, nil
		}
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	case modeHelp:
		if key.Matches(msg, m.keys.Back, m.keys.Help, m.keys.Quit) {
			m.mode = modeTree
		}
		return m, nil
	}

	m.status = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.ZoomIn):
		m.stage.ZoomIn()
	case key.Matches(msg, m.keys.ZoomOut):
		m.stage.ZoomOut()
	case key.Matches(msg, m.keys.Refit):
		m.stage.Refit()
		m.stage.MeasureNow()
	case key.Matches(msg, m.keys.Left):
		m.stage.ScrollBy(-scrollStep*2, 0)
	case key.Matches(msg, m.keys.Right):
		m.stage.ScrollBy(scrollStep*2, 0)
	case key.Matches(msg, m.keys.Up):
		m.stage.ScrollBy(0, -scrollStep)
	case key.Matches(msg, m.keys.Down):
		m.stage.ScrollBy(0, scrollStep)
	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		m.input.Reset()
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Focus):
		if m.selected != "" {
			m.focus(m.selected)
		}
	case key.Matches(msg, m.keys.Next):
		m.cycle(1)
	case key.Matches(msg, m.keys.Prev):
		m.cycle(-1)
	case key.Matches(msg, m.keys.Detail):
		if m.selected != "" {
			m.openDetail()
			m.mode = modeDetail
		}
	case key.Matches(msg, m.keys.Copy):
		m.copySelected()
	case key.Matches(msg, m.keys.Help):
		m.mode = modeHelp
	case key.Matches(msg, m.keys.Back):
		m.nav.Cancel()
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closeSearch()
		return m, nil
	case tea.KeyEnter:
		picked, ok := m.picker.SelectCurrent()
		m.closeSearch()
		if ok {
			m.selected = picked.ID
			m.focus(picked.ID)
		}
		return m, nil
	case tea.KeyUp, tea.KeyCtrlP:
		m.picker.Move(-1)
		return m, nil
	case tea.KeyDown, tea.KeyCtrlN:
		m.picker.Move(1)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.picker.SetTerm(m.input.Value())
	return m, cmd
}

func (m *Model) closeSearch() {
	m.mode = modeTree
	m.input.Reset()
	m.input.Blur()
	m.picker.Reset()
}

// cycle moves the selection through the members in layout order and
// focuses the new selection.
func (m *Model) cycle(delta int) {
	l := m.stage.Layout()
	if l == nil || l.Len() == 0 {
		return
	}
	ids := l.IDs()
	idx := -1
	for i, id := range ids {
		if id == m.selected {
			idx = i
			break
		}
	}
	next := ids[0]
	if idx >= 0 {
		next = ids[((idx+delta)%len(ids)+len(ids))%len(ids)]
	}
	m.selected = next
	m.focus(next)
}

func (m *Model) copySelected() {
	if m.selected == "" {
		return
	}
	elementID := m.stage.ElementID(m.selected)
	if err := m.copy(elementID); err != nil {
		m.setStatus(fmt.Sprintf("clipboard error: %v", err), true)
		return
	}
	m.setStatus("copied "+elementID, false)
}

func (m *Model) openDetail() {
	n, ok := m.forest.Node(m.selected)
	if !ok {
		m.mode = modeTree
		return
	}
	m.detail.SetContent(m.renderMarkdown(memberMarkdown(n, m.stage.ElementID(n.Member.ID))))
	m.detail.GotoTop()
}

func (m *Model) renderMarkdown(md string) string {
	width := max(m.detail.Width-2, 20)
	if m.md == nil || m.mdWidth != width {
		style := glamour.WithAutoStyle()
		switch m.cfg.Theme {
		case "dark", "light":
			style = glamour.WithStandardStyle(m.cfg.Theme)
		}
		r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
		if err != nil {
			debug.Log("ui: markdown renderer: %v", err)
			return md
		}
		m.md, m.mdWidth = r, width
	}
	out, err := m.md.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n ")
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	defer metrics.Timer(metrics.UIRender)()

	var body string
	switch m.mode {
	case modeDetail:
		body = m.theme.Panel.Render(m.detail.View())
	case modeHelp:
		h := m.help
		h.ShowAll = true
		body = m.theme.Panel.Render(h.View(m.keys))
	default:
		body = m.renderCanvas()
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderFooter())
}

func (m Model) renderHeader() string {
	title := m.theme.Header.Render(m.cfg.Title)
	info := fmt.Sprintf(" %d members · %d families", m.forest.Len(), len(m.forest.Roots()))
	if m.snapshot.Source != "" {
		info += " · " + m.snapshot.Source
	}
	zc := m.stage.Zoom().Config()
	zoom := RenderZoomBar(m.stage.Zoom().Target(), zc.Min, zc.Max, 10, m.theme)

	room := m.width - lipgloss.Width(title) - lipgloss.Width(zoom) - 1
	info = padRight(truncate(info, room), room)
	return title + m.theme.Status.Render(info) + " " + zoom
}

func (m Model) renderFooter() string {
	switch {
	case m.mode == modeSearch:
		return m.input.View()
	case m.status != "" && m.statusIsError:
		return m.theme.Error.Render(truncate(m.status, m.width))
	case m.status != "":
		return m.theme.Status.Render(truncate(m.status, m.width))
	default:
		return m.help.View(m.keys)
	}
}

func (m Model) renderCanvas() string {
	w, h := m.canvasSize()
	c := NewCanvas(w, h)
	if m.forest.Empty() {
		c.text(max((w-22)/2, 0), h/2, "No family members yet", w, cellText)
		return c.Render(m.theme)
	}

	now := m.queue.Now()
	sx, sy := m.stage.DisplayedScroll(now)
	hl, _ := m.nav.Highlighted()
	c.Paint(Frame{
		Forest:    m.forest,
		Layout:    m.stage.Layout(),
		Zoom:      m.stage.Zoom().Displayed(now),
		ScrollX:   sx,
		ScrollY:   sy,
		Selected:  m.selected,
		Highlight: hl,
	})
	out := c.Render(m.theme)
	if m.mode == modeSearch {
		out = m.overlaySuggestions(out, w, h)
	}
	return out
}

// overlaySuggestions replaces the bottom rows of the canvas with the
// suggestion list.
func (m Model) overlaySuggestions(canvas string, w, h int) string {
	results := m.picker.Results()
	if len(results) == 0 || h == 0 {
		return canvas
	}
	n := min(len(results), maxSuggestions, h)
	start := 0
	if cur := m.picker.Cursor(); cur >= n {
		start = cur - n + 1
	}

	lines := strings.Split(canvas, "\n")
	for i := 0; i < n; i++ {
		r := results[start+i]
		text := padRight(truncate(" "+r.FullName()+"  "+r.Lifespan(), w-2), w-2)
		row := RenderRelationBadge(r.Relation, m.theme) + " " + text
		if start+i == m.picker.Cursor() {
			row = RenderRelationBadge(r.Relation, m.theme) + " " + m.theme.Selected.Render(text)
		}
		lines[len(lines)-n+i] = row
	}
	return strings.Join(lines, "\n")
}

// Selected returns the selected member id.
func (m Model) Selected() string { return m.selected }

// Status returns the status line text.
func (m Model) Status() string { return m.status }
