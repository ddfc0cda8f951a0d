// Package server exposes a running figure over HTTP and websockets:
// pose snapshots, the action library, noise edits and IK requests.
package server

import (
	"context"
	"sync/atomic"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-figure/internal/log"
	"github.com/teslashibe/go-figure/pkg/animation"
	"github.com/teslashibe/go-figure/pkg/choreo"
	"github.com/teslashibe/go-figure/pkg/hub"
	"github.com/teslashibe/go-figure/pkg/kinematics"
)

// Config tunes the server.
type Config struct {
	Port         string
	ClientBuffer int     // Frames queued per websocket client
	EveryNth     int     // Stream every Nth frame
	IKMaxSteps   int     // Upper bound for IK requests
	IKTolerance  float64 // Default IK tolerance
}

// Server is the figure's HTTP and websocket surface.
type Server struct {
	app    *fiber.App
	cfg    Config
	name   string
	driver *animation.Driver
	lib    *choreo.Library

	// Hubs for websocket broadcast (thread-safe!)
	frameHub *hub.Hub
	eventHub *hub.Hub

	published atomic.Uint64
	seen      atomic.Uint64
}

// Event is pushed on /ws/events when an action starts or stops.
type Event struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	ID     string `json:"id"`
}

// New creates a server for fig driven by driver.
func New(fig *choreo.Figure, driver *animation.Driver, cfg Config) *Server {
	if cfg.EveryNth <= 0 {
		cfg.EveryNth = 1
	}
	s := &Server{
		cfg:      cfg,
		name:     fig.Name,
		driver:   driver,
		lib:      fig.Library,
		frameHub: hub.New("frames", cfg.ClientBuffer),
		eventHub: hub.New("events", cfg.ClientBuffer),
	}

	for _, a := range s.lib.Actions() {
		a.OnFinish(s.announceFinish)
	}
	driver.OnFrame(s.publishFrame)

	app := fiber.New(fiber.Config{
		AppName:               "go-figure",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	// CORS for local development
	app.Use(cors.New())

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/joints", s.handleJoints)
	api.Get("/actions", s.handleListActions)
	api.Get("/actions/:name", s.handleGetAction)
	api.Patch("/actions/:name", s.handleUpdateAction)
	api.Post("/actions/:name/activate", s.handleActivate)
	api.Post("/actions/:name/deactivate", s.handleDeactivate)
	api.Patch("/actions/:name/noise", s.handleNoise)
	api.Post("/ik", s.handleIK)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/frames", websocket.New(s.handleFramesWS))
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	s.app = app
	return s
}

// App returns the fiber app, for tests and embedding.
func (s *Server) App() *fiber.App { return s.app }

// Start runs the hubs and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.runHubs(ctx)

	go func() {
		<-ctx.Done()
		if err := s.app.Shutdown(); err != nil {
			log.Warn("server shutdown", "error", err)
		}
	}()

	log.Info("serving", "figure", s.name, "url", "http://localhost:"+s.cfg.Port)
	return s.app.Listen(":" + s.cfg.Port)
}

func (s *Server) runHubs(ctx context.Context) {
	go s.frameHub.Run(ctx)
	go s.eventHub.Run(ctx)
}

// publishFrame runs on the driver goroutine; broadcasting never blocks.
func (s *Server) publishFrame(snap kinematics.Snapshot) {
	if s.seen.Add(1)%uint64(s.cfg.EveryNth) != 0 {
		return
	}
	if s.frameHub.ClientCount() == 0 {
		return
	}
	msg, err := hub.EncodeFrame(snap)
	if err != nil {
		log.Error("encode frame", "frame", snap.Frame, "error", err)
		return
	}
	s.frameHub.Broadcast(msg)
	s.published.Add(1)
}

func (s *Server) announce(kind string, a *animation.Action) {
	if err := s.eventHub.BroadcastJSON(Event{Type: kind, Action: a.Name(), ID: a.ID().String()}); err != nil {
		log.Error("encode event", "error", err)
	}
}

func (s *Server) announceFinish(a *animation.Action) {
	s.announce("finished", a)
}

func (s *Server) handleFramesWS(c *websocket.Conn) {
	if client := hub.NewClient(s.frameHub, c); client != nil {
		client.Run()
	}
}

func (s *Server) handleEventsWS(c *websocket.Conn) {
	if client := hub.NewClient(s.eventHub, c); client != nil {
		client.Run()
	}
}
