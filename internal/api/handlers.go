package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/talgya/civic-sim/internal/engine"
	"github.com/talgya/civic-sim/internal/persistence"
	"github.com/talgya/civic-sim/internal/policy"
	"github.com/talgya/civic-sim/internal/world"
)

const (
	defaultEventLimit = 50
	maxListLimit      = 1000
)

// decodeJSON reads the request body into out. An empty body leaves out untouched.
func decodeJSON(ctx *app.RequestContext, out any) bool {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return true
	}
	if err := json.Unmarshal(body, out); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid JSON body")
		return false
	}
	return true
}

// queryLimit parses ?limit=, falling back to def when missing or out of range.
func queryLimit(ctx *app.RequestContext, def int) int {
	if v, err := strconv.Atoi(ctx.Query("limit")); err == nil && v > 0 && v <= maxListLimit {
		return v
	}
	return def
}

func (s *Server) handleStatus(c context.Context, ctx *app.RequestContext) {
	st := s.Sim.Stats()
	paused := false
	if s.Eng != nil {
		paused = s.Eng.Paused()
	}
	ctx.JSON(consts.StatusOK, map[string]any{
		"name":           "CitySim",
		"tick":           s.Sim.CurrentTick(),
		"day":            st.Day,
		"hour":           st.Hour,
		"speed":          s.Sim.Speed(),
		"paused":         paused,
		"game_over":      s.Sim.GameOver(),
		"population":     st.Population,
		"protest_pct":    st.ProtestPct,
		"budget":         st.Budget,
		"families":       s.Sim.Families(),
		"last_event_seq": s.Sim.LastEventSeq(),
	})
}

func (s *Server) handleStats(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, s.Sim.Stats())
}

func (s *Server) handleStatsHistory(c context.Context, ctx *app.RequestContext) {
	if s.DB == nil {
		ctx.JSON(consts.StatusOK, []persistence.StatsRow{})
		return
	}
	rows, err := s.DB.StatsHistory(queryLimit(ctx, 100))
	if err != nil {
		// The table may simply be empty on a fresh archive.
		slog.Error("stats history query failed", "error", err)
		rows = nil
	}
	if rows == nil {
		rows = []persistence.StatsRow{}
	}
	ctx.JSON(consts.StatusOK, rows)
}

func (s *Server) handleAgents(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]any{
		"ids": s.Sim.CitizenIDs(queryLimit(ctx, 100)),
	})
}

func (s *Server) handleAgent(c context.Context, ctx *app.RequestContext) {
	d, err := s.Sim.AgentDetail(ctx.Param("id"))
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, d)
}

func (s *Server) handleFamily(c context.Context, ctx *app.RequestContext) {
	f, ok := s.Sim.Family(ctx.Param("id"))
	if !ok {
		writeErrorBody(ctx, consts.StatusNotFound, "family_not_found", "family not found")
		return
	}
	ctx.JSON(consts.StatusOK, f)
}

func (s *Server) handleDistricts(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, s.Sim.Districts())
}

func (s *Server) handleEconomy(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, s.Sim.Economy())
}

// handleEvents serves the live feed. ?since=seq returns newer events oldest
// first; ?source=archive reads the SQLite archive instead.
func (s *Server) handleEvents(c context.Context, ctx *app.RequestContext) {
	limit := queryLimit(ctx, defaultEventLimit)

	if ctx.Query("source") == "archive" {
		if s.DB == nil {
			writeErrorBody(ctx, consts.StatusServiceUnavailable, "archive_disabled", "event archive not configured")
			return
		}
		events, err := s.DB.RecentEvents(limit)
		if err != nil {
			writeError(ctx, err)
			return
		}
		if events == nil {
			events = []engine.Event{}
		}
		ctx.JSON(consts.StatusOK, events)
		return
	}

	var events []engine.Event
	if since := ctx.Query("since"); since != "" {
		seq, err := strconv.ParseUint(since, 10, 64)
		if err != nil {
			writeErrorBody(ctx, consts.StatusBadRequest, "invalid_request", "since must be an unsigned integer")
			return
		}
		events = s.Sim.EventsSince(seq)
	} else {
		events = s.Sim.RecentEvents(limit)
	}
	if events == nil {
		events = []engine.Event{}
	}
	ctx.JSON(consts.StatusOK, events)
}

func (s *Server) handlePolicy(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]any{
		"policy":  s.Sim.Policy(),
		"history": s.Sim.PolicyHistory(),
	})
}

// commandResult is the body of every successful POST.
type commandResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

func writeCommand(ctx *app.RequestContext, msg string, err error) {
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, commandResult{OK: true, Message: msg})
}

func (s *Server) handleSetPolicy(c context.Context, ctx *app.RequestContext) {
	var u policy.Update
	if !decodeJSON(ctx, &u) {
		return
	}
	ctx.JSON(consts.StatusOK, s.Sim.SetPolicy(u))
}

type namedRequest struct {
	Policy string `json:"policy"`
	Event  string `json:"event"`
}

func (s *Server) handleSpecialPolicy(c context.Context, ctx *app.RequestContext) {
	var req namedRequest
	if !decodeJSON(ctx, &req) {
		return
	}
	msg, err := s.Sim.ActivateSpecial(req.Policy)
	writeCommand(ctx, msg, err)
}

func (s *Server) handleEconomicPolicy(c context.Context, ctx *app.RequestContext) {
	var req namedRequest
	if !decodeJSON(ctx, &req) {
		return
	}
	msg, err := s.Sim.EconomicPolicy(req.Policy)
	writeCommand(ctx, msg, err)
}

func (s *Server) handleCityEvent(c context.Context, ctx *app.RequestContext) {
	var req namedRequest
	if !decodeJSON(ctx, &req) {
		return
	}
	msg, err := s.Sim.CityEvent(req.Event)
	writeCommand(ctx, msg, err)
}

func (s *Server) handleLifeEvent(c context.Context, ctx *app.RequestContext) {
	var req namedRequest
	if !decodeJSON(ctx, &req) {
		return
	}
	msg, err := s.Sim.LifeEvent(req.Event)
	writeCommand(ctx, msg, err)
}

func (s *Server) handleRandomEvent(c context.Context, ctx *app.RequestContext) {
	var req namedRequest
	if !decodeJSON(ctx, &req) {
		return
	}
	writeCommand(ctx, req.Event, s.Sim.TriggerRandomEvent(req.Event))
}

func (s *Server) handleBuild(c context.Context, ctx *app.RequestContext) {
	var req struct {
		District string `json:"district"`
		Facility string `json:"facility"`
	}
	if !decodeJSON(ctx, &req) {
		return
	}
	msg, err := s.Sim.Build(req.District, req.Facility)
	writeCommand(ctx, msg, err)
}

func (s *Server) handleDistrictPolicy(c context.Context, ctx *app.RequestContext) {
	var req struct {
		District string `json:"district"`
		world.PolicyAction
	}
	if !decodeJSON(ctx, &req) {
		return
	}
	msg, err := s.Sim.DistrictPolicy(req.District, req.PolicyAction)
	writeCommand(ctx, msg, err)
}

func (s *Server) handleSpeed(c context.Context, ctx *app.RequestContext) {
	var req struct {
		Speed  *float64 `json:"speed"`
		Paused *bool    `json:"paused"`
	}
	if !decodeJSON(ctx, &req) {
		return
	}
	if req.Speed != nil {
		s.Sim.SetSpeed(*req.Speed)
	}
	paused := false
	if s.Eng != nil {
		if req.Paused != nil {
			if *req.Paused {
				s.Eng.Pause()
			} else {
				s.Eng.Resume()
			}
		}
		paused = s.Eng.Paused()
	}
	slog.Info("speed changed", "speed", s.Sim.Speed(), "paused", paused)
	ctx.JSON(consts.StatusOK, map[string]any{"speed": s.Sim.Speed(), "paused": paused})
}

func (s *Server) handleReset(c context.Context, ctx *app.RequestContext) {
	s.Sim.Reset()
	if s.Eng != nil {
		s.Eng.Resume()
	}
	slog.Info("simulation reset via API")
	writeCommand(ctx, "simulation reset", nil)
}
