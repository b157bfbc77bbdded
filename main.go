package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/esimov/stable-fluid/config"
	fluid "github.com/esimov/stable-fluid/fluid-solver"
	"github.com/esimov/stable-fluid/http"
	"github.com/esimov/stable-fluid/terminal"
	"github.com/esimov/stable-fluid/visual"
)

var (
	configPath = flag.String("config", "fluid.toml", "Settings file")
	mode       = flag.String("mode", "terminal", "Front-end: terminal, server or headless")
	address    = flag.String("a", "", "Server address, overrides the settings file")
	steps      = flag.Int("steps", 200, "Steps to run in headless mode")
	out        = flag.String("out", "fluid.png", "Image written in headless mode")
	view       = flag.String("view", "dye", "Field drawn in headless mode: dye or velocity")
	scale      = flag.Int("scale", 4, "Upscaling factor of the headless image")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	settings, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *address != "" {
		settings.Server.Address = *address
	}

	// The terminal front-end owns the screen, so its log goes to a file.
	var logw io.Writer = os.Stderr
	if *mode == "terminal" {
		f, err := os.OpenFile("debug.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		logw = f
	}
	handler, err := settings.Log.Handler(logw)
	if err != nil {
		return err
	}
	fluid.SetLogger(slog.New(handler))

	sim, err := newSimulation(settings)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch *mode {
	case "terminal":
		term, err := terminal.New(sim, terminal.Options{
			Settings:            settings.Terminal,
			Dt:                  settings.Simulation.Dt,
			PressureIterations:  settings.Simulation.PressureIterations,
			DiffusionIterations: settings.Simulation.DiffusionIterations,
		})
		if err != nil {
			return err
		}
		return term.Render(ctx)
	case "server":
		return http.InitServer(ctx, sim, settings)
	case "headless":
		return headless(ctx, sim, settings)
	}
	return fmt.Errorf("unknown mode %q", *mode)
}

func newSimulation(s config.Settings) (*fluid.Simulation, error) {
	cfg, err := s.FluidConfig()
	if err != nil {
		return nil, err
	}
	pattern, err := s.Simulation.DyePattern()
	if err != nil {
		return nil, err
	}
	sim, err := fluid.New(cfg)
	if err != nil {
		return nil, err
	}
	sim.FillDye(pattern)
	return sim, nil
}

// headless stirs the center of the fluid, runs the configured number of
// steps and writes the result as a PNG.
func headless(ctx context.Context, sim *fluid.Simulation, s config.Settings) error {
	sc := s.Simulation
	for i := 0; i < *steps; i++ {
		if i%10 == 0 {
			err := sim.InjectImpulse(fluid.Impulse{
				Epicenter: fluid.Vec2{X: 0.5, Y: 0.25},
				Force:     fluid.Vec2{Y: s.Terminal.ImpulseStrength},
				Radius:    s.Terminal.Radius,
				Dye:       s.Terminal.DyeAmount,
			})
			if err != nil {
				return err
			}
		}
		if err := sim.Step(ctx, sc.Dt, sc.PressureIterations, sc.DiffusionIterations); err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			return err
		}
		fluid.Logger().Debug("step",
			slog.Uint64("step", sim.Steps()),
			slog.Float64("energy", sim.KineticEnergy()),
			slog.Float64("max_div", sim.MaxDivergence()),
		)
	}

	sn := sim.Snapshot()
	var img image.Image
	switch *view {
	case "velocity":
		img = visual.Blend(visual.RenderVelocity(sn, 0), sn)
	default:
		pal, err := visual.NewPalette(s.Server.Palette, 0, 1)
		if err != nil {
			return err
		}
		img = visual.RenderScalar(sn.Dye, sn.Width, sn.Height, pal)
	}
	if *scale > 1 {
		img = visual.Scale(img, sn.Width**scale, sn.Height**scale)
	}

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return err
	}
	fluid.Logger().Info("image written", slog.String("path", *out), slog.Uint64("steps", sim.Steps()))
	return f.Close()
}
