// Package api serves the daemon's local status endpoints: current
// conversation index, presence map, health and Prometheus metrics.
package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"

	"github.com/888MAXiM/meetzy-frontend-sub001/internal/index"
	"github.com/888MAXiM/meetzy-frontend-sub001/internal/metrics"
	"github.com/888MAXiM/meetzy-frontend-sub001/internal/presence"
)

type Server struct {
	idx  *index.Index
	pres *presence.Map
}

func NewServer(idx *index.Index, pres *presence.Map) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(fiberlogger.New())
	s := &Server{idx: idx, pres: pres}

	v1 := app.Group("/v1")
	v1.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	v1.Get("/conversations", s.getConversations)
	v1.Get("/presence", s.getPresence)

	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	return app
}

func (s *Server) getConversations(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "success", "data": s.idx.List()})
}

func (s *Server) getPresence(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "success", "data": s.pres.All()})
}
