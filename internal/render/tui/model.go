package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/coreman2200/neopixelsim/internal/render"
)

const (
	defaultWidth    = 80
	defaultHeight   = 24
	panelWidth      = 36
	historyCapacity = 120
	ledGlyph        = "●"
)

var (
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(0, 1).Width(panelWidth)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(10)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).MarginTop(1)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type sceneMsg render.Scene

// Model is the bubbletea model behind the terminal window.
type Model struct {
	cam           render.Camera
	scene         render.Scene
	width, height int
	frames        int
	last          time.Time
	intervals     []float64
	now           func() time.Time
}

func NewModel() Model {
	return Model{
		cam:       render.DefaultCamera(),
		width:     defaultWidth,
		height:    defaultHeight,
		intervals: make([]float64, 0, historyCapacity),
		now:       time.Now,
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "left", "h":
			m.cam.RotY -= 0.1
		case "right", "l":
			m.cam.RotY += 0.1
		case "up", "k":
			m.cam.RotX -= 0.1
		case "down", "j":
			m.cam.RotX += 0.1
		case "+", "=":
			m.cam.Zoom = min(10, m.cam.Zoom*1.2)
		case "-", "_":
			m.cam.Zoom = max(0.1, m.cam.Zoom/1.2)
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case sceneMsg:
		now := m.now()
		if !m.last.IsZero() {
			m.intervals = append(m.intervals, float64(now.Sub(m.last).Microseconds())/1000)
			if len(m.intervals) > historyCapacity {
				m.intervals = m.intervals[len(m.intervals)-historyCapacity:]
			}
		}
		m.last = now
		m.frames++
		m.scene = render.Scene(msg)
	}
	return m, nil
}

func (m Model) View() string {
	return lipgloss.JoinHorizontal(lipgloss.Top, m.scatter(), m.panel())
}

// scatter draws one glyph per visible LED. Terminal cells are about twice as
// tall as wide, so rows are projected at double resolution and halved.
func (m Model) scatter() string {
	w := max(1, m.width-panelWidth-2)
	h := max(1, m.height-1)

	cells := make([][]string, h)
	for i := range cells {
		cells[i] = make([]string, w)
	}
	pts := m.scene.Points()
	for _, p := range m.cam.ProjectAll(pts, m.scene.Bounds, float64(w), float64(h*2)) {
		if p.Index >= len(m.scene.Colors) {
			continue
		}
		c := m.scene.Colors[p.Index]
		hex := colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped().Hex()
		cells[int(p.Y)/2][int(p.X)] = lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render(ledGlyph)
	}

	var b strings.Builder
	for y, row := range cells {
		for _, cell := range row {
			if cell == "" {
				b.WriteByte(' ')
				continue
			}
			b.WriteString(cell)
		}
		if y < len(cells)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (m Model) panel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("NEOPIXEL SIM"))
	b.WriteByte('\n')
	row := func(k, v string) {
		b.WriteString(labelStyle.Render(k) + valueStyle.Render(v) + "\n")
	}
	row("LEDs", fmt.Sprint(len(m.scene.Colors)))
	row("Frames", fmt.Sprint(m.frames))
	if n := len(m.intervals); n > 0 {
		row("Interval", fmt.Sprintf("%.2f ms", m.intervals[n-1]))
	}
	ext := m.scene.Bounds.Extent()
	row("Extent", fmt.Sprintf("%.3g×%.3g×%.3g", ext.X, ext.Y, ext.Z))
	if len(m.intervals) > 1 {
		g := asciigraph.Plot(m.intervals, asciigraph.Height(6), asciigraph.Width(panelWidth-10), asciigraph.Caption("frame interval ms"))
		b.WriteString(graphStyle.Render(g))
	}
	b.WriteString("\n" + helpStyle.Render("arrows rotate · +/- zoom · q close"))
	return panelStyle.Render(b.String())
}
