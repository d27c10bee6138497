// Package api serves the simulation to the presentation layer over HTTP.
// GET endpoints are public and read-only.
// POST endpoints require the admin bearer token and are rate limited.
package api

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/talgya/civic-sim/internal/economy"
	"github.com/talgya/civic-sim/internal/engine"
	"github.com/talgya/civic-sim/internal/persistence"
	"github.com/talgya/civic-sim/internal/policy"
	"github.com/talgya/civic-sim/internal/world"
)

// Server serves the simulation state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine  // Optional; speed and pause requests also reach the tick loop
	DB       *persistence.DB // Optional; nil disables the archive endpoints
	Addr     string
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	// CommandRate and CommandWindow bound POST requests per client.
	CommandRate   int
	CommandWindow time.Duration

	h *server.Hertz
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	s.h = s.newHertz()
	slog.Info("HTTP API starting", "addr", s.Addr, "admin_auth", s.AdminKey != "")
	go s.h.Spin()
}

// Shutdown stops a started server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.h == nil {
		return nil
	}
	return s.h.Shutdown(ctx)
}

func (s *Server) newHertz() *server.Hertz {
	h := server.New(server.WithHostPorts(s.Addr), server.WithDisablePrintRoute(true))
	s.register(h)
	return h
}

func (s *Server) register(h *server.Hertz) {
	rate, window := s.CommandRate, s.CommandWindow
	if rate <= 0 {
		rate = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	limiter := NewRateLimiter(rate, window)

	h.Use(corsMiddleware())

	v1 := h.Group("/api/v1")
	v1.GET("/status", s.handleStatus)
	v1.GET("/stats", s.handleStats)
	v1.GET("/stats/history", s.handleStatsHistory)
	v1.GET("/agents", s.handleAgents)
	v1.GET("/agents/:id", s.handleAgent)
	v1.GET("/families/:id", s.handleFamily)
	v1.GET("/districts", s.handleDistricts)
	v1.GET("/economy", s.handleEconomy)
	v1.GET("/events", s.handleEvents)
	v1.GET("/policy", s.handlePolicy)

	admin := v1.Group("", s.adminOnly(), RateLimitMiddleware(limiter))
	admin.POST("/policy", s.handleSetPolicy)
	admin.POST("/policy/special", s.handleSpecialPolicy)
	admin.POST("/build", s.handleBuild)
	admin.POST("/city-event", s.handleCityEvent)
	admin.POST("/life-event", s.handleLifeEvent)
	admin.POST("/random-event", s.handleRandomEvent)
	admin.POST("/economic-policy", s.handleEconomicPolicy)
	admin.POST("/district-policy", s.handleDistrictPolicy)
	admin.POST("/speed", s.handleSpeed)
	admin.POST("/reset", s.handleReset)
}

func applyCORSHeaders(ctx *app.RequestContext) {
	ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")
	ctx.Response.Header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	ctx.Response.Header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	ctx.Response.Header.Set("Access-Control-Max-Age", "600")
}

func corsMiddleware() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		applyCORSHeaders(ctx)
		if string(ctx.Method()) == consts.MethodOptions {
			ctx.AbortWithStatus(consts.StatusNoContent)
			return
		}
		ctx.Next(c)
	}
}

// checkBearerToken returns true if the request carries the admin bearer token.
func (s *Server) checkBearerToken(ctx *app.RequestContext) bool {
	auth := string(ctx.Request.Header.Peek("Authorization"))
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

func (s *Server) adminOnly() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		if s.AdminKey == "" {
			writeErrorBody(ctx, consts.StatusForbidden, "admin_disabled", "admin endpoints disabled (no CITYSIM_ADMIN_KEY set)")
			ctx.Abort()
			return
		}
		if !s.checkBearerToken(ctx) {
			writeErrorBody(ctx, consts.StatusUnauthorized, "unauthorized", "unauthorized")
			ctx.Abort()
			return
		}
		ctx.Next(c)
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func writeError(ctx *app.RequestContext, err error) {
	switch {
	case errors.Is(err, engine.ErrUnknownAgent):
		writeErrorBody(ctx, consts.StatusNotFound, "agent_not_found", err.Error())
	case errors.Is(err, world.ErrUnknownDistrict):
		writeErrorBody(ctx, consts.StatusNotFound, "district_not_found", err.Error())
	case errors.Is(err, world.ErrUnknownFacility),
		errors.Is(err, world.ErrUnknownDistrictPolicy),
		errors.Is(err, engine.ErrUnknownEvent),
		errors.Is(err, policy.ErrUnknownSpecialPolicy),
		errors.Is(err, economy.ErrUnknownEconomicPolicy):
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, economy.ErrInsufficientFunds):
		writeErrorBody(ctx, consts.StatusConflict, "insufficient_funds", err.Error())
	case errors.Is(err, engine.ErrGameOver):
		writeErrorBody(ctx, consts.StatusConflict, "game_over", err.Error())
	default:
		slog.Error("request failed", "path", string(ctx.Path()), "error", err)
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", "internal server error")
	}
}
