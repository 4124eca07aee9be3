package viz

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/attsim/internal/attitude"
	"github.com/san-kum/attsim/internal/control"
	"github.com/san-kum/attsim/internal/dynamo"
	"github.com/san-kum/attsim/internal/sim"
)

const (
	canvasWidth     = 44
	canvasHeight    = 18
	historyCapacity = 600
	stickStep       = 0.25
)

// LivePilot turns key presses into stick input and mode requests for a
// running simulation. It is shared between the UI and simulation goroutines.
type LivePilot struct {
	mu      sync.Mutex
	stick   control.Stick
	pending attitude.Mode
	holdNow bool
}

func (p *LivePilot) Nudge(axis int, delta float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stick.Input[axis] = dynamo.Clamp(p.stick.Input[axis]+delta, -1, 1)
}

func (p *LivePilot) Center() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stick.Input = mgl64.Vec3{}
}

func (p *LivePilot) Request(m attitude.Mode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = m
}

// HoldCurrent asks for a hold at whatever attitude the vessel has on the next tick.
func (p *LivePilot) HoldCurrent() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.holdNow = true
}

func (p *LivePilot) Stick() control.Stick {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stick
}

func (p *LivePilot) Poll(float64) (control.Stick, attitude.Mode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m := p.pending
	p.pending = nil
	return p.stick, m
}

// takeHold reports and clears a pending hold-current request.
func (p *LivePilot) takeHold() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	h := p.holdNow
	p.holdNow = false
	return h
}

var _ sim.Pilot = (*LivePilot)(nil)

type SampleMsg dynamo.Sample

type DoneMsg struct{ Err error }

// Model is the live attitude view of one vessel.
type Model struct {
	name    string
	pilot   *LivePilot
	samples <-chan dynamo.Sample
	done    <-chan error

	last     dynamo.Sample
	target   attitude.Desired
	errHist  []float64
	fillHist []float64
	canvas   *Canvas
	camera   *Camera
	finished bool
	err      error
	showHelp bool
}

func NewModel(name string, pilot *LivePilot, samples <-chan dynamo.Sample, done <-chan error) Model {
	return Model{
		name:     name,
		pilot:    pilot,
		samples:  samples,
		done:     done,
		target:   attitude.Desired{Null: true},
		errHist:  make([]float64, 0, historyCapacity),
		fillHist: make([]float64, 0, historyCapacity),
		canvas:   NewCanvas(canvasWidth, canvasHeight),
		camera:   NewCamera(),
	}
}

func (m Model) Init() tea.Cmd {
	return m.wait()
}

func (m Model) wait() tea.Cmd {
	samples, done := m.samples, m.done
	return func() tea.Msg {
		select {
		case s, ok := <-samples:
			if ok {
				return SampleMsg(s)
			}
			return DoneMsg{Err: <-done}
		case err := <-done:
			return DoneMsg{Err: err}
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case SampleMsg:
		s := dynamo.Sample(msg)
		m.last = s
		m.errHist = push(m.errHist, Degrees(s.ErrorAngle))
		m.fillHist = push(m.fillHist, s.WheelFill)
		if m.pilot.takeHold() {
			m.pilot.Request(attitude.Hold{Orientation: s.Orientation})
		}
		return m, m.wait()
	case DoneMsg:
		m.finished = true
		m.err = msg.Err
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "w":
		m.pilot.Nudge(dynamo.AxisPitch, -stickStep)
	case "s":
		m.pilot.Nudge(dynamo.AxisPitch, stickStep)
	case "a":
		m.pilot.Nudge(dynamo.AxisYaw, -stickStep)
	case "d":
		m.pilot.Nudge(dynamo.AxisYaw, stickStep)
	case "q":
		m.pilot.Nudge(dynamo.AxisRoll, -stickStep)
	case "e":
		m.pilot.Nudge(dynamo.AxisRoll, stickStep)
	case " ":
		m.pilot.Center()
	case "x":
		m.pilot.Request(attitude.KillRotation{})
		m.target = attitude.Desired{Null: true}
	case "h":
		m.pilot.HoldCurrent()
		m.target = attitude.Desired{Orientation: m.last.Orientation}
	case "1", "2", "3", "4":
		heading := attitude.Radians(float64(msg.String()[0]-'1') * 90)
		m.pilot.Request(attitude.Surface{Heading: heading})
		m.target = attitude.Desired{Orientation: attitude.Euler(heading, 0, 0)}
	case "left":
		m.camera.Orbit(-0.15, 0)
	case "right":
		m.camera.Orbit(0.15, 0)
	case "up":
		m.camera.Orbit(0, 0.1)
	case "down":
		m.camera.Orbit(0, -0.1)
	case "+", "=":
		m.camera.ZoomIn()
	case "-":
		m.camera.ZoomOut()
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func push(hist []float64, v float64) []float64 {
	if len(hist) >= historyCapacity {
		copy(hist, hist[1:])
		hist = hist[:len(hist)-1]
	}
	return append(hist, v)
}

func (m Model) View() string {
	s := m.last
	m.canvas.Clear()
	Render(m.canvas, VesselWireframe(s.Orientation, m.target), m.camera)
	view := Panel.Render(m.canvas.String())

	var b strings.Builder
	b.WriteString(Title.Render(strings.ToUpper(m.name)) + "  " + m.status() + "\n\n")
	line := func(label, value string) {
		b.WriteString(MetricLabel.Render(label) + value + "\n")
	}
	line("time", MetricValue.Render(fmt.Sprintf("%.2fs", s.Time)))
	line("error", MetricValue.Render(fmt.Sprintf("%.2f°", Degrees(s.ErrorAngle))))
	line("mode", MetricValue.Render(s.Mode))
	b.WriteString("\n")
	for i, axis := range dynamo.AxisNames {
		line(axis, fmt.Sprintf("err %+7.2f°  cmd %+5.2f  %s",
			Degrees(s.Error[i]), s.Command[i], ProgressBar(s.Authority[i], 10, false)))
	}
	line("wheel fill", ProgressBar(s.WheelFill, 20, true)+fmt.Sprintf(" %3.0f%%", s.WheelFill*100))
	stick := m.pilot.Stick().Input
	line("stick", fmt.Sprintf("%+.2f %+.2f %+.2f", stick[0], stick[1], stick[2]))
	b.WriteString("\n")
	if len(m.errHist) > 1 {
		b.WriteString(GraphStyle.Render(PlotSeries(m.errHist, 40, 5, "error (deg)")) + "\n")
	}
	line("fill trend", Sparkline(m.fillHist, 30))

	b.WriteString("\n" + Separator(44) + "\n")
	if m.showHelp {
		b.WriteString(KeyHint.Render("w/s pitch  a/d yaw  q/e roll  space center stick\n" +
			"h hold  x kill rotation  1-4 heading N/E/S/W\n" +
			"arrows orbit camera  +/- zoom  esc quit"))
	} else {
		b.WriteString(KeyHint.Render("? help  esc quit"))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, view, "  ", b.String())
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return StatusDone.Render("FAILED: " + m.err.Error())
	case m.finished:
		return StatusDone.Render("FINISHED")
	case m.last.Manual:
		return StatusManual.Render("MANUAL")
	}
	return StatusActive.Render("AUTO")
}

// Run flies sm in real time scaled by speed while showing the live view.
// Quitting the view stops the simulation.
func Run(ctx context.Context, name string, sm *sim.Simulator, cfg sim.Config, speed float64) error {
	if speed <= 0 {
		speed = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pilot := &LivePilot{}
	cfg.Pilot = pilot
	samples := make(chan dynamo.Sample, 1)
	done := make(chan error, 1)
	frame := time.Duration(cfg.Dt / speed * float64(time.Second))

	go func() {
		defer close(samples)
		_, err := sm.RunWithCallback(ctx, cfg, func(s dynamo.Sample) bool {
			select {
			case samples <- s:
			case <-ctx.Done():
				return false
			}
			time.Sleep(frame)
			return true
		})
		done <- err
	}()

	_, err := tea.NewProgram(NewModel(name, pilot, samples, done), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
