package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/domain"
	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/repository"
	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/service"
)

type StatusSource interface {
	Status() service.Status
}

type HistorySource interface {
	Load() ([]domain.HistoryEntry, error)
}

type WorkHistorySource interface {
	ListWorkHistory(ctx context.Context, from, to string) ([]repository.WorkDay, error)
}

// Deps are the read-only views the API exposes. Ledger and Breaker may
// be nil.
type Deps struct {
	Status  StatusSource
	History HistorySource
	Ledger  WorkHistorySource
	Breaker func() string
}

func Register(app *fiber.App, d Deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		out := fiber.Map{"status": "ok"}
		if d.Breaker != nil {
			out["home_assistant"] = d.Breaker()
		}
		return c.JSON(out)
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	g := app.Group("/api")
	g.Get("/status", func(c *fiber.Ctx) error {
		return c.JSON(d.Status.Status())
	})
	g.Get("/history", func(c *fiber.Ctx) error {
		items, err := d.History.Load()
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if limit := c.QueryInt("limit", 0); limit > 0 && limit < len(items) {
			items = items[:limit]
		}
		return c.JSON(items)
	})
	g.Get("/work-history", func(c *fiber.Ctx) error {
		if d.Ledger == nil {
			return c.Status(404).JSON(fiber.Map{"error": "ledger disabled"})
		}
		to := c.Query("to", time.Now().Format("2006-01-02"))
		from := c.Query("from", to)
		items, err := d.Ledger.ListWorkHistory(c.UserContext(), from, to)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(items)
	})
}

// Server runs the fiber app as a suture.Service.
type Server struct {
	app  *fiber.App
	addr string
}

func NewServer(addr string, d Deps) *Server {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	Register(app, d)
	return &Server{app: app, addr: addr}
}

func (s *Server) Serve(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.addr).Msg("api listening")
		errc <- s.app.Listen(s.addr)
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		if err := s.app.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.Warn().Err(err).Msg("api shutdown")
		}
		return ctx.Err()
	}
}

func (s *Server) String() string { return "http-api" }
