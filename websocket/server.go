package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/esimov/stable-fluid/detector"
	fluid "github.com/esimov/stable-fluid/fluid-solver"
)

type HttpParams struct {
	Address string
	Prefix  string
	Root    string
}

// Options configure how the server drives the simulation.
type Options struct {
	Dt                  float32
	PressureIterations  int
	DiffusionIterations int
	FrameInterval       time.Duration
	ShutdownTimeout     time.Duration

	// Detector is optional; without it binary frames are ignored.
	Detector *detector.Detector
	Tracker  *detector.Tracker
}

// Server steps a simulation on a timer and streams every frame to the
// connected websocket clients, which in turn push impulses into it.
type Server struct {
	sim    *fluid.Simulation
	params HttpParams
	opts   Options
	hub    *hub

	// A server application calls the Upgrade method from an HTTP request handler to initiate a connection
	upgrader websocket.Upgrader

	trackMu sync.Mutex
}

// NewServer wires sim to a websocket endpoint described by p.
func NewServer(sim *fluid.Simulation, p HttpParams, opts Options) *Server {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = 40 * time.Millisecond
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	return &Server{
		sim:    sim,
		params: p,
		opts:   opts,
		hub:    newHub(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handler serves the static files under Prefix and the /ws endpoint. Every
// request is logged.
func (s *Server) Handler() (http.Handler, error) {
	root, err := filepath.Abs(s.params.Root)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle(s.params.Prefix, http.StripPrefix(s.params.Prefix, http.FileServer(http.Dir(root))))
	mux.HandleFunc("/ws", s.wsHandler)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fluid.Logger().Debug("http request",
			slog.String("remote", r.RemoteAddr),
			slog.String("method", r.Method),
			slog.String("url", r.URL.String()),
		)
		mux.ServeHTTP(w, r)
	})
	return handler, nil
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.params.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve runs the simulation loop and the HTTP server on ln until ctx is
// done. It returns once the server has shut down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	handler, err := s.Handler()
	if err != nil {
		ln.Close()
		return err
	}
	srv := &http.Server{Handler: handler}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	loopErr := make(chan error, 1)
	go func() {
		loopErr <- s.Run(ctx)
		cancel()
	}()
	shutdown := make(chan struct{})
	go func() {
		defer close(shutdown)
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			fluid.Logger().Warn("server shutdown", slog.Any("err", err))
		}
	}()

	fluid.Logger().Info("serving",
		slog.String("root", s.params.Root),
		slog.String("prefix", s.params.Prefix),
		slog.String("address", ln.Addr().String()),
	)
	err = srv.Serve(ln)
	cancel()
	<-shutdown
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if err := <-loopErr; err != nil && !isDone(err) {
		return err
	}
	return nil
}

func isDone(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Run steps the simulation once per frame interval and broadcasts the
// result until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.hub.closeAll()
			return ctx.Err()
		case <-ticker.C:
			if err := s.tick(ctx); err != nil {
				if ctx.Err() != nil {
					continue
				}
				return err
			}
		}
	}
}

func (s *Server) tick(ctx context.Context) error {
	if err := s.sim.Step(ctx, s.opts.Dt, s.opts.PressureIterations, s.opts.DiffusionIterations); err != nil {
		return err
	}
	if s.hub.len() == 0 {
		return nil
	}
	msg, err := json.Marshal(NewFrame(s.sim.Snapshot()))
	if err != nil {
		// NaN or Inf in the fields
		fluid.Logger().Error("websocket: encoding frame", slog.Any("err", err))
		return nil
	}
	s.hub.broadcast(msg)
	return nil
}

// wsHandler defines the websocket connection endpoint
func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	// Upgrade the http connection to a WebSocket connection
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		var hs websocket.HandshakeError
		if !errors.As(err, &hs) {
			fluid.Logger().Error("websocket: upgrade", slog.Any("err", err))
		}
		return
	}
	c := s.hub.add(conn)
	fluid.Logger().Info("websocket: client connected", slog.String("remote", r.RemoteAddr), slog.Int("clients", s.hub.len()))

	go c.writePump()
	go s.readSocket(c)
}

// readSocket listen for new messages being sent to the websocket
func (s *Server) readSocket(c *client) {
	defer func() {
		s.hub.remove(c)
		fluid.Logger().Info("websocket: client disconnected", slog.Int("clients", s.hub.len()))
	}()

	for {
		messageType, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				fluid.Logger().Error("websocket: read", slog.Any("err", err))
			}
			return
		}
		switch messageType {
		case websocket.TextMessage:
			err = s.handleText(msg)
		case websocket.BinaryMessage:
			err = s.handleFrame(msg)
		}
		if err != nil {
			fluid.Logger().Warn("websocket: dropped message", slog.Any("err", err))
		}
	}
}

func (s *Server) handleText(msg []byte) error {
	m, err := ParseMessage(msg)
	if err != nil {
		return err
	}
	switch m.Type {
	case TypeReset:
		s.sim.ResetVelocity()
		s.sim.ResetDye()
		return nil
	case TypeDetection:
		return s.track([]detector.Face{m.Face()}, m.Width, m.Height)
	}
	return s.sim.InjectImpulse(m.Impulse())
}

// handleFrame runs the face detector over a camera frame.
func (s *Server) handleFrame(data []byte) error {
	if s.opts.Detector == nil {
		return errors.New("face detection is disabled")
	}
	img, err := detector.DecodeFrame(data)
	if err != nil {
		return err
	}
	faces := s.opts.Detector.Detect(img)
	b := img.Bounds()
	return s.track(faces, b.Dx(), b.Dy())
}

func (s *Server) track(faces []detector.Face, width, height int) error {
	if s.opts.Tracker == nil {
		return errors.New("face tracking is disabled")
	}
	s.trackMu.Lock()
	imp, ok := s.opts.Tracker.Track(faces, width, height)
	s.trackMu.Unlock()
	if !ok {
		return nil
	}
	return s.sim.InjectImpulse(imp)
}
