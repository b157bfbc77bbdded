package http

import (
	"context"
	"errors"
	"log/slog"

	"github.com/esimov/stable-fluid/config"
	"github.com/esimov/stable-fluid/detector"
	fluid "github.com/esimov/stable-fluid/fluid-solver"
	"github.com/esimov/stable-fluid/websocket"
)

// Params builds the server parameters from the settings.
func Params(s config.ServerSettings) websocket.HttpParams {
	return websocket.HttpParams{
		Address: s.Address,
		Prefix:  s.Prefix,
		Root:    s.Root,
	}
}

// Options builds the simulation options of the server. A missing cascade
// file only disables face detection.
func Options(s config.Settings) (websocket.Options, error) {
	opts := websocket.Options{
		Dt:                  s.Simulation.Dt,
		PressureIterations:  s.Simulation.PressureIterations,
		DiffusionIterations: s.Simulation.DiffusionIterations,
		FrameInterval:       s.Server.FrameInterval.Std(),
		Tracker:             detector.NewTracker(s.Detector.Strength, s.Detector.Radius, s.Terminal.DyeAmount),
	}

	d := s.Detector
	det, err := detector.Load(d.Cascade, detector.Params{
		MinSize:     d.MinSize,
		MaxSize:     d.MaxSize,
		ShiftFactor: d.Shift,
		ScaleFactor: d.Scale,
		IoU:         d.IoU,
		Quality:     d.Quality,
	})
	switch {
	case errors.Is(err, detector.ErrNoCascade):
		fluid.Logger().Warn("face detection disabled", slog.Any("err", err))
	case err != nil:
		return websocket.Options{}, err
	default:
		opts.Detector = det
	}
	return opts, nil
}

// InitServer serves sim over HTTP and websocket until ctx is done.
func InitServer(ctx context.Context, sim *fluid.Simulation, s config.Settings) error {
	opts, err := Options(s)
	if err != nil {
		return err
	}
	return websocket.NewServer(sim, Params(s.Server), opts).ListenAndServe(ctx)
}
