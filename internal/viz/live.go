package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/rigid2d/internal/engine"
	"github.com/san-kum/rigid2d/internal/geometry"
)

const (
	canvasWidth  = 70
	canvasHeight = 26
	trailLen     = 200
	historyLen   = 120
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(0, 1)
	statsStyle  = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 2).Width(42)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(10)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Model drives an engine from a bubbletea event loop, several substeps per
// frame, and draws the world polygons on a braille canvas.
type Model struct {
	engine   *engine.Engine
	name     string
	rebuild  func() (*engine.Engine, error)
	substeps int

	canvas *Canvas
	zoom   float64
	trail  []geometry.Vec2

	driftHistory []float64

	running bool
	stepErr error
}

// NewModel wraps an engine for the live view. rebuild recreates the engine
// for the reset key; substeps is how many fixed steps run per frame.
func NewModel(e *engine.Engine, name string, substeps int, zoom float64, rebuild func() (*engine.Engine, error)) Model {
	return Model{
		engine:   e,
		name:     name,
		rebuild:  rebuild,
		substeps: substeps,
		canvas:   NewCanvas(canvasWidth, canvasHeight),
		zoom:     zoom,
		trail:    make([]geometry.Vec2, 0, trailLen),
		running:  true,
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			if m.rebuild != nil {
				if e, err := m.rebuild(); err == nil {
					m.engine = e
					m.trail = m.trail[:0]
					m.driftHistory = m.driftHistory[:0]
					m.stepErr = nil
					m.running = true
				}
			}
		case "+", "=":
			m.zoom *= 1.25
		case "-", "_":
			m.zoom /= 1.25
		}
	case TickMsg:
		if m.running && m.stepErr == nil {
			for i := 0; i < m.substeps; i++ {
				if err := m.engine.Step(); err != nil {
					m.stepErr = err
					m.running = false
					break
				}
			}
			m.observe()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) observe() {
	bodies := m.engine.Bodies()
	for _, b := range bodies {
		if b.Dynamic() {
			if len(m.trail) == trailLen {
				m.trail = m.trail[1:]
			}
			m.trail = append(m.trail, b.Pos())
			break
		}
	}

	if len(m.driftHistory) == historyLen {
		m.driftHistory = m.driftHistory[1:]
	}
	m.driftHistory = append(m.driftHistory, m.engine.Drift())
}

func (m Model) View() string {
	m.canvas.Clear()
	m.canvas.SetView(m.viewCenter(), m.zoom)

	for _, p := range m.trail {
		m.canvas.Point(p)
	}
	for _, b := range m.engine.Bodies() {
		m.canvas.Polygon(b.World())
	}
	for _, c := range m.engine.Constraints() {
		bodies := c.Bodies()
		for i := 1; i < len(bodies); i++ {
			m.canvas.Line(bodies[i-1].Pos(), bodies[i].Pos())
		}
	}

	view := lipgloss.JoinHorizontal(lipgloss.Top,
		canvasStyle.Render(m.canvas.String()),
		statsStyle.Render(m.stats()),
	)
	return view + helpStyle.Render("\n  space pause · r reset · +/- zoom · q quit")
}

func (m Model) viewCenter() geometry.Vec2 {
	bodies := m.engine.Bodies()
	if len(bodies) == 0 {
		return geometry.Vec2{}
	}
	var c geometry.Vec2
	for _, b := range bodies {
		c = c.Add(b.Pos())
	}
	return c.Mult(1 / float64(len(bodies)))
}

func (m Model) stats() string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render(m.name) + "\n\n")

	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("time", fmt.Sprintf("%.2f s", m.engine.Time()))
	row("steps", fmt.Sprintf("%d", m.engine.Steps()))
	row("bodies", fmt.Sprintf("%d", len(m.engine.Bodies())))
	row("energy", fmt.Sprintf("%.3f", m.engine.KineticEnergy()))
	row("drift", fmt.Sprintf("%.2e", m.engine.Drift()))
	row("zoom", fmt.Sprintf("%.1f px/u", m.zoom))

	if len(m.driftHistory) > 2 && len(m.engine.Constraints()) > 0 {
		sb.WriteString("\n" + labelStyle.Render("drift") + "\n")
		graph := asciigraph.Plot(m.driftHistory,
			asciigraph.Height(5), asciigraph.Width(32))
		sb.WriteString(graphStyle.Render(graph) + "\n")
	}

	if m.stepErr != nil {
		sb.WriteString("\n" + errorStyle.Render(m.stepErr.Error()) + "\n")
	} else if !m.running {
		sb.WriteString("\n" + valueStyle.Render("paused") + "\n")
	}
	return sb.String()
}

// Run starts the live view and blocks until the user quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m).Run()
	return err
}
