package terminal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/nsf/termbox-go"

	"github.com/esimov/stable-fluid/config"
	fluid "github.com/esimov/stable-fluid/fluid-solver"
	"github.com/esimov/stable-fluid/visual"
)

// Options configure the terminal front-end.
type Options struct {
	Settings            config.TerminalSettings
	Dt                  float32
	PressureIterations  int
	DiffusionIterations int
}

// Terminal renders a simulation into the terminal and turns mouse drags
// into impulses.
type Terminal struct {
	sim       *fluid.Simulation
	opts      Options
	particles *fluid.Particles
	palette   visual.Palette

	backbuf  []termbox.Cell
	bbw, bbh int

	showVelocity  bool
	showParticles bool

	dragging     bool
	dragX, dragY int
}

func New(sim *fluid.Simulation, opts Options) (*Terminal, error) {
	pal, err := visual.NewPalette("inferno", 0, 1)
	if err != nil {
		return nil, err
	}
	t := &Terminal{
		sim:           sim,
		opts:          opts,
		particles:     fluid.NewParticles(opts.Settings.Particles, opts.Settings.ParticleAge),
		palette:       pal,
		showParticles: opts.Settings.Particles > 0,
	}
	return t, nil
}

// Render runs the main loop until Esc or q is pressed or ctx is done.
func (t *Terminal) Render(ctx context.Context) error {
	if err := termbox.Init(); err != nil {
		return err
	}
	defer termbox.Close()
	termbox.SetInputMode(termbox.InputEsc | termbox.InputMouse)
	termbox.SetOutputMode(termbox.Output256)
	t.reallocBackBuffer(termbox.Size())

	// The poller stays blocked in PollEvent after Close; it only lives as
	// long as the process.
	done := make(chan struct{})
	defer close(done)
	events := make(chan termbox.Event)
	go func() {
		for {
			ev := termbox.PollEvent()
			if ev.Type == termbox.EventInterrupt {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	interval := t.opts.Settings.FrameInterval.Std()
	if interval <= 0 {
		interval = 33 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

mainloop:
	for {
		select {
		case <-ctx.Done():
			break mainloop
		case ev := <-events:
			switch ev.Type {
			case termbox.EventKey:
				if ev.Key == termbox.KeyEsc || ev.Ch == 'q' {
					break mainloop
				}
				t.key(ev.Ch)
			case termbox.EventMouse:
				t.mouse(ev)
			case termbox.EventResize:
				t.reallocBackBuffer(ev.Width, ev.Height)
			case termbox.EventError:
				return ev.Err
			}
		case <-ticker.C:
			if err := t.step(ctx); err != nil {
				if ctx.Err() != nil {
					break mainloop
				}
				return err
			}
			t.redraw()
		}
	}
	return nil
}

func (t *Terminal) step(ctx context.Context) error {
	o := t.opts
	if err := t.sim.Step(ctx, o.Dt, o.PressureIterations, o.DiffusionIterations); err != nil {
		return err
	}
	if t.showParticles {
		t.particles.Update(t.sim, o.Dt)
	}
	return nil
}

func (t *Terminal) key(ch rune) {
	switch ch {
	case 'r':
		t.sim.ResetVelocity()
		t.sim.ResetDye()
		t.particles.Clear()
	case 'v':
		t.showVelocity = !t.showVelocity
	case 'p':
		t.showParticles = !t.showParticles
		if !t.showParticles {
			t.particles.Clear()
		}
	}
}

func (t *Terminal) mouse(ev termbox.Event) {
	switch ev.Key {
	case termbox.MouseLeft:
		x, y := ev.MouseX, ev.MouseY
		if y >= t.fieldRows() {
			return
		}
		if t.dragging {
			imp, ok := dragImpulse(t.dragX, t.dragY, x, y, t.bbw, t.fieldRows(), t.sim.Width(), t.sim.Height(), t.opts.Settings)
			if ok {
				if err := t.sim.InjectImpulse(imp); err != nil {
					fluid.Logger().Warn("terminal: impulse rejected", slog.Any("err", err))
				}
			}
		}
		t.particles.Spawn(cellToUV(x, y, t.bbw, t.fieldRows()))
		t.dragging, t.dragX, t.dragY = true, x, y
	case termbox.MouseRelease:
		t.dragging = false
	}
}

func (t *Terminal) reallocBackBuffer(w, h int) {
	t.bbw, t.bbh = w, h
	t.backbuf = make([]termbox.Cell, w*h)
}

// fieldRows is the number of rows showing the fluid; the last one is the HUD.
func (t *Terminal) fieldRows() int {
	return max(t.bbh-1, 1)
}

func (t *Terminal) redraw() {
	rows := t.fieldRows()
	sn := t.sim.Snapshot()
	var maxMag float32
	if t.showVelocity {
		for _, v := range sn.Velocity {
			maxMag = max(maxMag, v.Len())
		}
	}

	for y := 0; y < rows && y < t.bbh; y++ {
		for x := 0; x < t.bbw; x++ {
			p := cellToUV(x, y, t.bbw, rows)
			var c termbox.Cell
			if t.showVelocity {
				col := visual.HueWheel(t.sim.SampleVelocity(p), maxMag)
				c = termbox.Cell{Ch: ' ', Bg: attr256(visual.XTerm256(col))}
			} else {
				d := t.sim.SampleDye(p)
				c = termbox.Cell{Ch: visual.Glyph(d), Fg: attr256(visual.XTerm256(t.palette.At(d)))}
			}
			t.backbuf[y*t.bbw+x] = c
		}
	}
	if t.showParticles {
		t.particles.Each(func(p *fluid.Particle) {
			x, y := uvToCell(p.Pos(), t.bbw, rows)
			if x >= 0 && x < t.bbw && y >= 0 && y < rows {
				t.backbuf[y*t.bbw+x].Ch = '•'
				t.backbuf[y*t.bbw+x].Fg = termbox.ColorWhite
			}
		})
	}
	if t.bbh > rows {
		t.drawText(0, rows, hud(t.sim, t.showVelocity, t.particles.Len(), t.bbw))
	}

	copy(termbox.CellBuffer(), t.backbuf)
	termbox.Flush()
}

// drawText writes s starting at column x of row y, advancing by the display
// width of every rune.
func (t *Terminal) drawText(x, y int, s string) {
	for i := range t.backbuf[y*t.bbw : (y+1)*t.bbw] {
		t.backbuf[y*t.bbw+i] = termbox.Cell{Ch: ' ', Fg: termbox.ColorDefault, Bg: termbox.ColorDefault}
	}
	for _, r := range s {
		if x >= t.bbw {
			return
		}
		t.backbuf[y*t.bbw+x] = termbox.Cell{Ch: r, Fg: termbox.ColorWhite | termbox.AttrBold}
		x += max(runewidth.RuneWidth(r), 1)
	}
}

// attr256 converts an xterm palette index into a termbox attribute in
// Output256 mode, where attributes are shifted by one.
func attr256(index int) termbox.Attribute {
	return termbox.Attribute(index + 1)
}

// cellToUV maps the center of terminal cell (x, y) into normalized
// coordinates. Terminal rows grow downwards.
func cellToUV(x, y, cols, rows int) fluid.Vec2 {
	return fluid.Vec2{
		X: (float32(x) + 0.5) / float32(cols),
		Y: 1 - (float32(y)+0.5)/float32(rows),
	}
}

func uvToCell(p fluid.Vec2, cols, rows int) (int, int) {
	return int(p.X * float32(cols)), int((1 - p.Y) * float32(rows))
}

// dragImpulse converts a mouse drag from (x0, y0) to (x1, y1) on a
// cols×rows terminal into an impulse on a gridW×gridH simulation.
func dragImpulse(x0, y0, x1, y1, cols, rows, gridW, gridH int, s config.TerminalSettings) (fluid.Impulse, bool) {
	if x0 == x1 && y0 == y1 {
		return fluid.Impulse{}, false
	}
	from := cellToUV(x0, y0, cols, rows)
	to := cellToUV(x1, y1, cols, rows)
	d := to.Sub(from)
	// grid cells moved, times the strength
	force := fluid.Vec2{X: d.X * float32(gridW), Y: d.Y * float32(gridH)}.Scale(s.ImpulseStrength)
	return fluid.Impulse{
		Epicenter: to,
		Force:     force,
		Radius:    s.Radius,
		Dye:       s.DyeAmount,
	}, true
}

func hud(sim *fluid.Simulation, velocity bool, particles, width int) string {
	view := "dye"
	if velocity {
		view = "velocity"
	}
	s := fmt.Sprintf(" step %d | %s | energy %.3g | div %.2g | particles %d | drag: stir  v: view  p: particles  r: reset  q: quit",
		sim.Steps(), view, sim.KineticEnergy(), sim.MaxDivergence(), particles)
	return runewidth.Truncate(s, width, "…")
}
