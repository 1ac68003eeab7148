package tui

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/signalsfoundry/orrery/core"
	"github.com/signalsfoundry/orrery/internal/session"
)

const (
	DefaultFrameInterval = time.Second / 30

	// Terminal cells are about twice as tall as wide.
	mapWidth     = 61
	mapHeight    = 31
	orbitSamples = 96
)

// MsgFrame delivers a frame produced by a session tick.
type MsgFrame struct {
	Frame session.Frame
	Err   error
}

type msgTick time.Time

// Model is the terminal renderer: a top-down character map of the frozen
// orbits with the camera, selection and view mode overlaid.
type Model struct {
	ctx      context.Context
	sess     *session.Session
	keys     KeyMap
	interval time.Duration

	scene session.SceneView
	frame session.Frame
	err   error
	quit  bool

	Width  int
	Height int
}

// NewModel builds a model over sess. interval ≤ 0 uses DefaultFrameInterval.
func NewModel(ctx context.Context, sess *session.Session, interval time.Duration) Model {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	m := Model{
		ctx:      ctx,
		sess:     sess,
		keys:     DefaultKeyMap(),
		interval: interval,
		scene:    sess.Scene(),
	}
	if f, err := sess.Snapshot(ctx); err == nil {
		m.frame = f
	} else {
		m.err = err
	}
	return m
}

// Frame returns the last frame the model rendered.
func (m Model) Frame() session.Frame { return m.frame }

// Err returns the last command error, if any.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd {
	return m.scheduleTick()
}

func (m Model) scheduleTick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return msgTick(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case msgTick:
		if m.quit {
			return m, nil
		}
		return m, tea.Batch(m.tickCmd(), m.scheduleTick())

	case MsgFrame:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.frame = msg.Frame
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// tickCmd runs one session frame off the UI loop.
func (m Model) tickCmd() tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		f, err := sess.Tick(ctx, sess.Now())
		return MsgFrame{Frame: f, Err: err}
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var (
		f   session.Frame
		err error
	)
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quit = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Select):
		f, err = m.selectIndex(msg.String())
	case key.Matches(msg, m.keys.Deselect):
		f, err = m.sess.Select(m.ctx, "")
	case key.Matches(msg, m.keys.Exit):
		f, err = m.sess.ExitView(m.ctx)
	case key.Matches(msg, m.keys.Toggle):
		f, err = m.sess.ToggleTopView(m.ctx)
	default:
		return m, nil
	}
	m.err = err
	if err == nil {
		m.frame = f
	}
	return m, nil
}

// selectIndex focuses the n-th body of the catalog, counting from 1.
func (m Model) selectIndex(k string) (session.Frame, error) {
	n, err := strconv.Atoi(k)
	if err != nil || n < 1 || n > len(m.scene.Bodies) {
		return session.Frame{}, fmt.Errorf("%w: no body on key %q", core.ErrBodyNotFound, k)
	}
	return m.sess.Select(m.ctx, m.scene.Bodies[n-1].ID)
}

type cell struct {
	glyph string
	style lipgloss.Style
}

// occupied reports whether a body is drawn in the cell.
func (c cell) occupied() bool {
	return c.glyph != glyphEmpty && c.glyph != glyphOrbit
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(styleMap.Render(m.renderMap()))
	b.WriteString("\n")
	b.WriteString(m.renderInfo())
	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderStatus() string {
	f := m.frame
	parts := []string{
		styleStatusLabel.Render("view") + " " + f.Mode,
		styleStatusLabel.Render("skybox") + " " + f.Skybox.Name,
		styleStatusLabel.Render("offset") + " " + strconv.FormatFloat(m.scene.OffsetDays, 'f', 1, 64) + "d",
	}
	if f.Transitioning {
		parts = append(parts, styleStatusLabel.Render("moving")+" "+progressBar(f.Progress, 10))
	}
	return styleStatusBar.Render(strings.Join(parts, "  "))
}

func (m Model) renderInfo() string {
	if m.err != nil {
		return styleError.Render(m.err.Error())
	}
	if m.frame.Info == "" {
		return styleHelp.Render("no body selected")
	}
	pos := m.frame.Camera.Position
	return styleInfo.Render(m.frame.Info) + styleHelp.Render(
		fmt.Sprintf("  camera (%.1f, %.1f, %.1f)", pos.X, pos.Y, pos.Z))
}

func (m Model) renderHelp() string {
	var parts []string
	for i, bd := range m.scene.Bodies {
		if i >= 9 {
			break
		}
		parts = append(parts, fmt.Sprintf("%d %s", i+1, bd.Name))
	}
	var keys []string
	for _, kb := range m.keys.ShortHelp() {
		h := kb.Help()
		keys = append(keys, h.Key+" "+h.Desc)
	}
	return styleHelp.Render(strings.Join(parts, " · ") + "\n" + strings.Join(keys, " · "))
}

// renderMap draws the x/z plane seen from above, +x to the right and +z
// down, scaled so the outermost orbit fits.
func (m Model) renderMap() string {
	grid := make([][]cell, mapHeight)
	for r := range grid {
		grid[r] = make([]cell, mapWidth)
		for c := range grid[r] {
			grid[r][c] = cell{glyph: glyphEmpty, style: styleOrbit}
		}
	}

	extent := 1.0
	for _, bd := range m.scene.Bodies {
		extent = math.Max(extent, bd.OrbitRadius)
	}
	extent *= 1.05
	project := func(x, z float64) (int, int, bool) {
		c := int(math.Round((x/extent + 1) * float64(mapWidth-1) / 2))
		r := int(math.Round((z/extent + 1) * float64(mapHeight-1) / 2))
		return r, c, r >= 0 && r < mapHeight && c >= 0 && c < mapWidth
	}

	for _, bd := range m.scene.Bodies {
		if bd.OrbitRadius <= 0 {
			continue
		}
		for i := 0; i < orbitSamples; i++ {
			a := 2 * math.Pi * float64(i) / orbitSamples
			p := core.PositionOf(bd.OrbitRadius, a)
			if r, c, ok := project(p.X, p.Z); ok {
				grid[r][c] = cell{glyph: glyphOrbit, style: styleOrbit}
			}
		}
	}

	for i, bd := range m.scene.Bodies {
		r, c, ok := project(bd.Position.X, bd.Position.Z)
		if !ok {
			continue
		}
		style := styleBody
		switch {
		case bd.ID == m.frame.Selected:
			style = styleSelected
		case bd.Central:
			style = styleCentral
		}
		grid[r][c] = cell{glyph: bodyGlyph(i), style: style}
	}

	cam := m.frame.Camera.Position
	if r, c, ok := project(cam.X, cam.Z); ok && !grid[r][c].occupied() {
		grid[r][c] = cell{glyph: glyphCamera, style: styleCamera}
	}

	rows := make([]string, mapHeight)
	for r := range grid {
		var sb strings.Builder
		for _, cl := range grid[r] {
			sb.WriteString(cl.style.Render(cl.glyph))
		}
		rows[r] = sb.String()
	}
	return strings.Join(rows, "\n")
}

func bodyGlyph(i int) string {
	if i < 9 {
		return strconv.Itoa(i + 1)
	}
	return "o"
}

func progressBar(p float64, width int) string {
	filled := int(math.Round(p * float64(width)))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}
