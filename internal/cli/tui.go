package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/featuremap/pkg/editor"
	"github.com/matzehuels/featuremap/pkg/render"
	"github.com/matzehuels/featuremap/pkg/scene"
	"github.com/matzehuels/featuremap/pkg/store"
)

const (
	// frameInterval paces layout ticks at roughly 60 frames per second.
	frameInterval = 16 * time.Millisecond

	// doubleClickWindow is the longest gap between two releases on the same
	// cell that still counts as a double click.
	doubleClickWindow = 400 * time.Millisecond

	sidebarWidth = 28
)

// Sidebar and status bar styles
var (
	sidebarStyle = lipgloss.NewStyle().
			Width(sidebarWidth - 2).
			Border(lipgloss.RoundedBorder(), false, false, false, true).
			BorderForeground(colorDim).
			PaddingLeft(1)
	sidebarCursorStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	sidebarHiddenStyle = lipgloss.NewStyle().Foreground(colorDim)
	statusStyle        = lipgloss.NewStyle().Foreground(colorGray)
	statusModeStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	statusDirtyStyle   = lipgloss.NewStyle().Foreground(colorYellow)
	promptStyle        = lipgloss.NewStyle().Foreground(colorWhite)
)

// =============================================================================
// Messages
// =============================================================================

type tickMsg time.Time

type savedMsg struct {
	revision uint64
	err      error
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// =============================================================================
// Prompts
// =============================================================================

type promptKind int

const (
	promptNone promptKind = iota
	promptGroup
	promptFeature
	promptNote
	promptEdge
)

func (k promptKind) label() string {
	switch k {
	case promptGroup:
		return "New group"
	case promptFeature:
		return "New feature"
	case promptNote:
		return "Note"
	case promptEdge:
		return "Edge label[|image]"
	}
	return ""
}

type prompt struct {
	kind   promptKind
	target string
	input  []rune
}

// =============================================================================
// editModel - Interactive board editor
// =============================================================================

// editModel hosts an editor.Editor in the terminal. Mouse events are mapped
// from cells to the center pixel of the cell, so the editor sees the same
// coordinates the renderer draws with.
type editModel struct {
	ctx   context.Context
	ed    *editor.Editor
	store store.Store
	board string
	term  render.TermOptions
	now   func() time.Time

	width, height int
	savedRev      uint64
	status        string
	quitArmed     bool

	// mouse
	pressed     tea.MouseButton
	lastRelease time.Time
	lastCell    [2]int

	sidebar bool
	cursor  int
	prompt  prompt
}

func newEditModel(ctx context.Context, ed *editor.Editor, s store.Store, board string, term render.TermOptions) *editModel {
	return &editModel{
		ctx:      ctx,
		ed:       ed,
		store:    s,
		board:    board,
		term:     term,
		now:      time.Now,
		savedRev: ed.Revision(),
		pressed:  tea.MouseButtonNone,
		lastCell: [2]int{-1, -1},
	}
}

func (m *editModel) Init() tea.Cmd {
	return tick()
}

func (m *editModel) dirty() bool { return m.ed.Revision() != m.savedRev }

// canvasCols is the number of columns left for the board.
func (m *editModel) canvasCols() int {
	if m.sidebar {
		return max(m.width-sidebarWidth, 1)
	}
	return m.width
}

func (m *editModel) resize() {
	m.term.Cols = m.canvasCols()
	m.term.Rows = max(m.height-1, 1)
	size := m.term.Size()
	m.ed.SetViewportSize(size.Width, size.Height)
}

func (m *editModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.ed.Tick()
		return m, tick()

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()

	case tea.MouseMsg:
		m.handleMouse(msg)

	case tea.KeyMsg:
		if m.prompt.kind != promptNone {
			return m, m.handlePromptKey(msg)
		}
		return m, m.handleKey(msg)

	case savedMsg:
		if msg.err != nil {
			m.status = "save failed: " + msg.err.Error()
			break
		}
		m.savedRev = msg.revision
		m.status = "saved " + m.board
	}
	return m, nil
}

// =============================================================================
// Mouse
// =============================================================================

func (m *editModel) handleMouse(msg tea.MouseMsg) {
	outside := msg.X >= m.term.Cols || msg.Y >= m.term.Rows
	if outside && msg.Action != tea.MouseActionRelease {
		if msg.Action == tea.MouseActionMotion && m.pressed == tea.MouseButtonNone {
			m.ed.PointerLeave()
		}
		return
	}
	// Releases over the sidebar or status row still end the gesture, at the
	// nearest canvas cell.
	msg.X = min(msg.X, m.term.Cols-1)
	msg.Y = min(msg.Y, m.term.Rows-1)
	p := m.term.CellCenter(msg.X, msg.Y)
	mods := editor.Mods{Multi: msg.Ctrl || msg.Alt, Shift: msg.Shift}

	if tea.MouseEvent(msg).IsWheel() {
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.ed.Wheel(p, -1)
		case tea.MouseButtonWheelDown:
			m.ed.Wheel(p, 1)
		}
		return
	}

	switch msg.Action {
	case tea.MouseActionPress:
		b, ok := buttonOf(msg.Button)
		if !ok {
			return
		}
		m.pressed = msg.Button
		m.ed.PointerDown(p, b, mods)

	case tea.MouseActionMotion:
		m.ed.PointerMove(p)

	case tea.MouseActionRelease:
		// Many terminals report releases without a button.
		button := msg.Button
		if button == tea.MouseButtonNone {
			button = m.pressed
		}
		m.pressed = tea.MouseButtonNone
		b, ok := buttonOf(button)
		if !ok {
			return
		}
		m.ed.PointerUp(p, b, mods)
		if b == editor.ButtonPrimary {
			m.detectDoubleClick(p, msg.X, msg.Y)
		}
	}
}

func (m *editModel) detectDoubleClick(p scene.Point, col, row int) {
	now := m.now()
	cell := [2]int{col, row}
	double := cell == m.lastCell && now.Sub(m.lastRelease) <= doubleClickWindow
	m.lastRelease, m.lastCell = now, cell
	if !double {
		return
	}
	m.lastCell = [2]int{-1, -1}
	if id := m.ed.DoubleClick(p); id != "" {
		e, _ := m.ed.World().Edge(id)
		m.openPrompt(promptEdge, id, e.Label)
	}
}

func buttonOf(b tea.MouseButton) (editor.Button, bool) {
	switch b {
	case tea.MouseButtonLeft:
		return editor.ButtonPrimary, true
	case tea.MouseButtonRight:
		return editor.ButtonSecondary, true
	case tea.MouseButtonMiddle:
		return editor.ButtonMiddle, true
	}
	return 0, false
}

// =============================================================================
// Keys
// =============================================================================

func (m *editModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	m.status = ""
	if key != "q" && key != "ctrl+c" {
		m.quitArmed = false
	}

	switch key {
	case "q", "ctrl+c":
		if m.dirty() && !m.quitArmed {
			m.quitArmed = true
			m.status = "unsaved changes: ctrl+s saves, q again quits"
			return nil
		}
		return tea.Quit
	case "ctrl+s":
		return m.save()
	case "ctrl+z", "u":
		if !m.ed.Undo() {
			m.status = "nothing to undo"
		}
	case "ctrl+y", "r":
		if !m.ed.Redo() {
			m.status = "nothing to redo"
		}
	case "esc":
		m.ed.Escape()
	case "e":
		m.ed.ToggleAllEdges()
	case "N":
		m.ed.SetShowNotes(!m.ed.World().Settings.ShowNotes)
	case "I":
		m.ed.SetShowIndicators(!m.ed.World().Settings.ShowIndicators)
	case "+", "=":
		m.ed.Wheel(m.center(), -1)
	case "-":
		m.ed.Wheel(m.center(), 1)
	case "a":
		m.openPrompt(promptGroup, "", "")
	case "f":
		gid := m.ed.View().SelectedGroup
		if gid == "" {
			m.status = "select a group first"
			return nil
		}
		m.openPrompt(promptFeature, gid, "")
	case "n":
		id := m.ed.Selected()
		n, ok := m.ed.World().Node(id)
		if !ok {
			m.status = "select a node first"
			return nil
		}
		m.openPrompt(promptNote, id, n.NoteText())
	case "tab":
		m.sidebar = !m.sidebar
		m.resize()
	case "up", "k":
		if m.sidebar && m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.sidebar && m.cursor < len(m.sidebarRows())-1 {
			m.cursor++
		}
	case " ":
		if n := m.sidebarNode(); n != nil {
			m.report(m.ed.SetVisible(n.ID, !n.Visible))
		}
	case "enter":
		if n := m.sidebarNode(); n != nil {
			m.report(m.ed.Focus(n.ID))
		}
	}
	return nil
}

func (m *editModel) center() scene.Point {
	size := m.ed.ViewportSize()
	return scene.Point{X: size.Width / 2, Y: size.Height / 2}
}

func (m *editModel) report(err error) {
	if err != nil {
		m.status = err.Error()
	}
}

// save writes a snapshot of the board in the background.
func (m *editModel) save() tea.Cmd {
	w, rev := m.ed.Snapshot(), m.ed.Revision()
	ctx, s, board := m.ctx, m.store, m.board
	m.status = "saving..."
	return func() tea.Msg {
		return savedMsg{revision: rev, err: s.Save(ctx, board, w)}
	}
}

func (m *editModel) openPrompt(kind promptKind, target, initial string) {
	m.prompt = prompt{kind: kind, target: target, input: []rune(initial)}
}

func (m *editModel) handlePromptKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.prompt = prompt{}
	case tea.KeyEnter:
		p := m.prompt
		m.prompt = prompt{}
		m.report(m.commitPrompt(p))
	case tea.KeyBackspace:
		if n := len(m.prompt.input); n > 0 {
			m.prompt.input = m.prompt.input[:n-1]
		}
	case tea.KeySpace:
		m.prompt.input = append(m.prompt.input, ' ')
	case tea.KeyRunes:
		m.prompt.input = append(m.prompt.input, msg.Runes...)
	}
	return nil
}

func (m *editModel) commitPrompt(p prompt) error {
	text := string(p.input)
	switch p.kind {
	case promptGroup:
		_, err := m.ed.AddGroup(text)
		return err
	case promptFeature:
		_, err := m.ed.AddFeature(p.target, text)
		return err
	case promptNote:
		if strings.TrimSpace(text) == "" {
			return m.ed.ClearNote(p.target)
		}
		return m.ed.SetNote(p.target, text)
	case promptEdge:
		label, image, _ := strings.Cut(text, "|")
		if strings.TrimSpace(image) == "-" {
			return m.ed.ClearEdgeImage(p.target)
		}
		e, ok := m.ed.World().Edge(p.target)
		if !ok {
			return nil
		}
		return m.ed.UpdateEdge(p.target, scene.EdgeUpdate{
			Label:     strings.TrimSpace(label),
			ImageRef:  image,
			ImageSize: e.ImageSize,
		})
	}
	return nil
}

// =============================================================================
// Sidebar
// =============================================================================

// sidebarRows flattens the board tree: each group followed by its features.
func (m *editModel) sidebarRows() []*scene.Node {
	var rows []*scene.Node
	for _, g := range m.ed.Tree() {
		rows = append(rows, g.Group)
		rows = append(rows, g.Features...)
	}
	return rows
}

func (m *editModel) sidebarNode() *scene.Node {
	if !m.sidebar {
		return nil
	}
	rows := m.sidebarRows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return nil
	}
	return rows[m.cursor]
}

func (m *editModel) renderSidebar() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render("Board"))
	b.WriteString("\n")
	for i, n := range m.sidebarRows() {
		if i >= m.term.Rows-1 {
			break
		}
		box := "[x]"
		if !n.Visible {
			box = "[ ]"
		}
		indent := ""
		if n.IsFeature() {
			indent = "  "
		}
		note := ""
		if n.HasNote() {
			note = " *"
		}
		line := fmt.Sprintf("%s%s %s%s", indent, box, n.Name, note)
		switch {
		case i == m.cursor:
			line = sidebarCursorStyle.Render(line)
		case !n.Visible:
			line = sidebarHiddenStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return sidebarStyle.Height(m.term.Rows).Render(strings.TrimRight(b.String(), "\n"))
}

// =============================================================================
// View
// =============================================================================

func (m *editModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	frame := render.Terminal(m.ed.View(), m.term)
	if m.sidebar {
		frame = lipgloss.JoinHorizontal(lipgloss.Top, frame, m.renderSidebar())
	}
	return frame + "\n" + m.statusLine()
}

func (m *editModel) statusLine() string {
	if m.prompt.kind != promptNone {
		return promptStyle.Render(m.prompt.kind.label() + ": " + string(m.prompt.input) + "_")
	}

	w := m.ed.World()
	parts := []string{
		statusModeStyle.Render(m.ed.Mode().String()),
		m.board,
		fmt.Sprintf("%d nodes %d edges", w.NodeCount(), w.EdgeCount()),
		fmt.Sprintf("zoom %.2f", w.Camera.Scale),
	}
	if m.dirty() {
		parts = append(parts, statusDirtyStyle.Render("modified"))
	}
	if m.status != "" {
		parts = append(parts, m.status)
	} else {
		parts = append(parts, "a group  f feature  n note  e edges  tab tree  ctrl+s save  q quit")
	}
	line := strings.Join(parts, StyleDim.Render(" · "))
	return statusStyle.MaxWidth(max(m.width, 1)).Render(line)
}
