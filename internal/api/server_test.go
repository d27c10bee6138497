package api

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/civic-sim/internal/engine"
	"github.com/talgya/civic-sim/internal/entropy"
	"github.com/talgya/civic-sim/internal/policy"
)

func ptr(v float64) *float64 { return &v }

const testKey = "secret"

func newTestServer(t *testing.T) (*Server, *server.Hertz) {
	t.Helper()
	cfg := engine.DefaultConfig()
	cfg.Seed = 3
	cfg.PopPerDistrict = 10
	cfg.LowWatermark = 0
	cfg.HighWatermark = 0
	cfg.RandomEvents = false
	cfg.StatsEvery = 1
	sim := engine.NewSimulation(cfg, entropy.New(3))
	s := &Server{
		Sim:      sim,
		Eng:      engine.NewEngine(time.Second, 96),
		Addr:     "127.0.0.1:0",
		AdminKey: testKey,
	}
	return s, s.newHertz()
}

func get(h *server.Hertz, path string) *ut.ResponseRecorder {
	return ut.PerformRequest(h.Engine, consts.MethodGet, path, nil)
}

func post(h *server.Hertz, path, key string, body any) *ut.ResponseRecorder {
	raw, _ := json.Marshal(body)
	headers := []ut.Header{{Key: "Content-Type", Value: "application/json"}}
	if key != "" {
		headers = append(headers, ut.Header{Key: "Authorization", Value: "Bearer " + key})
	}
	return ut.PerformRequest(h.Engine, consts.MethodPost, path,
		&ut.Body{Body: bytes.NewReader(raw), Len: len(raw)}, headers...)
}

func decode(t *testing.T, w *ut.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Result().Body(), out))
}

func errorCode(t *testing.T, w *ut.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decode(t, w, &body)
	return body.Error.Code
}

func TestStatusAndStats(t *testing.T) {
	s, h := newTestServer(t)
	require.NoError(t, s.Sim.Tick())

	w := get(h, "/api/v1/status")
	require.Equal(t, consts.StatusOK, w.Code)
	var status map[string]any
	decode(t, w, &status)
	assert.Equal(t, float64(1), status["tick"])
	assert.Equal(t, false, status["game_over"])
	assert.Equal(t, "*", string(w.Result().Header.Peek("Access-Control-Allow-Origin")))

	w = get(h, "/api/v1/stats")
	require.Equal(t, consts.StatusOK, w.Code)
	var st engine.Stats
	decode(t, w, &st)
	assert.Equal(t, uint64(1), st.Tick)
	assert.Greater(t, st.Population, 0)
}

func TestAgentDetailAndNotFound(t *testing.T) {
	s, h := newTestServer(t)
	ids := s.Sim.CitizenIDs(1)
	require.Len(t, ids, 1)

	w := get(h, "/api/v1/agents/"+ids[0])
	require.Equal(t, consts.StatusOK, w.Code)
	var detail struct {
		Citizen struct {
			ID string `json:"id"`
		} `json:"citizen"`
		Summary []map[string]any `json:"summary"`
	}
	decode(t, w, &detail)
	assert.Equal(t, ids[0], detail.Citizen.ID)
	assert.NotEmpty(t, detail.Summary)

	w = get(h, "/api/v1/agents/nobody")
	assert.Equal(t, consts.StatusNotFound, w.Code)
	assert.Equal(t, "agent_not_found", errorCode(t, w))

	w = get(h, "/api/v1/families/none")
	assert.Equal(t, consts.StatusNotFound, w.Code)
}

func TestDistrictsEconomyPolicy(t *testing.T) {
	_, h := newTestServer(t)

	w := get(h, "/api/v1/districts")
	require.Equal(t, consts.StatusOK, w.Code)
	var districts []map[string]any
	decode(t, w, &districts)
	assert.Len(t, districts, 4)

	w = get(h, "/api/v1/economy")
	require.Equal(t, consts.StatusOK, w.Code)
	var econ map[string]any
	decode(t, w, &econ)
	assert.Contains(t, econ, "budget")

	w = get(h, "/api/v1/policy")
	require.Equal(t, consts.StatusOK, w.Code)
	var pol map[string]any
	decode(t, w, &pol)
	assert.Contains(t, pol, "policy")
}

func TestStatsHistoryWithoutArchive(t *testing.T) {
	_, h := newTestServer(t)
	w := get(h, "/api/v1/stats/history")
	require.Equal(t, consts.StatusOK, w.Code)
	assert.JSONEq(t, "[]", string(w.Result().Body()))

	w = get(h, "/api/v1/events?source=archive")
	assert.Equal(t, consts.StatusServiceUnavailable, w.Code)
}

func TestAdminAuth(t *testing.T) {
	s, h := newTestServer(t)

	w := post(h, "/api/v1/reset", "", nil)
	assert.Equal(t, consts.StatusUnauthorized, w.Code)

	w = post(h, "/api/v1/reset", "wrong", nil)
	assert.Equal(t, consts.StatusUnauthorized, w.Code)

	s.AdminKey = ""
	w = post(h, "/api/v1/reset", "", nil)
	assert.Equal(t, consts.StatusForbidden, w.Code)
	assert.Equal(t, "admin_disabled", errorCode(t, w))
}

func TestSetPolicyClamps(t *testing.T) {
	_, h := newTestServer(t)
	w := post(h, "/api/v1/policy", testKey, map[string]float64{"tax_rate": 90})
	require.Equal(t, consts.StatusOK, w.Code)
	var snap map[string]any
	decode(t, w, &snap)
	assert.Equal(t, 60.0, snap["tax_rate"])
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   any
		status int
		code   string
	}{
		{"unknown facility", "/api/v1/build", map[string]string{"district": "district1", "facility": "castle"}, consts.StatusBadRequest, "invalid_request"},
		{"unknown district", "/api/v1/build", map[string]string{"district": "district9", "facility": "park"}, consts.StatusNotFound, "district_not_found"},
		{"unknown city event", "/api/v1/city-event", map[string]string{"event": "parade"}, consts.StatusBadRequest, "invalid_request"},
		{"unknown life event", "/api/v1/life-event", map[string]string{"event": "plague"}, consts.StatusBadRequest, "invalid_request"},
		{"unknown special", "/api/v1/policy/special", map[string]string{"policy": "free_beer"}, consts.StatusBadRequest, "invalid_request"},
		{"unknown economic", "/api/v1/economic-policy", map[string]string{"policy": "tariffs"}, consts.StatusBadRequest, "invalid_request"},
		{"unknown district policy", "/api/v1/district-policy", map[string]string{"district": "district1", "kind": "curfew"}, consts.StatusBadRequest, "invalid_request"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, h := newTestServer(t)
			w := post(h, tc.path, testKey, tc.body)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, errorCode(t, w))
		})
	}
}

func TestBuildSpendsBudget(t *testing.T) {
	s, h := newTestServer(t)
	before := s.Sim.Economy().Budget

	w := post(h, "/api/v1/build", testKey, map[string]string{"district": "district1", "facility": "park"})
	require.Equal(t, consts.StatusOK, w.Code)
	var res commandResult
	decode(t, w, &res)
	assert.True(t, res.OK)
	assert.NotEmpty(t, res.Message)
	assert.InDelta(t, before-800_000, s.Sim.Economy().Budget, 1e-6)
}

func TestCommandsSucceed(t *testing.T) {
	s, h := newTestServer(t)

	w := post(h, "/api/v1/city-event", testKey, map[string]string{"event": "fireworks"})
	assert.Equal(t, consts.StatusOK, w.Code)

	w = post(h, "/api/v1/policy/special", testKey, map[string]string{"policy": "green_energy"})
	assert.Equal(t, consts.StatusOK, w.Code)

	w = post(h, "/api/v1/district-policy", testKey, map[string]any{"district": "district1", "kind": "tax_incentive", "multiplier": 0.5})
	assert.Equal(t, consts.StatusOK, w.Code)
	for _, d := range s.Sim.Districts() {
		if d.ID == "district1" {
			assert.Equal(t, 0.5, d.Overrides.TaxMultiplier)
		}
	}

	w = post(h, "/api/v1/random-event", testKey, map[string]string{"event": "scholarship"})
	assert.Equal(t, consts.StatusOK, w.Code)
}

func TestSpeedAndPause(t *testing.T) {
	s, h := newTestServer(t)

	w := post(h, "/api/v1/speed", testKey, map[string]any{"speed": 25, "paused": true})
	require.Equal(t, consts.StatusOK, w.Code)
	assert.Equal(t, float64(engine.MaxSpeed), s.Sim.Speed())
	assert.True(t, s.Eng.Paused())

	w = post(h, "/api/v1/speed", testKey, map[string]any{"paused": false})
	require.Equal(t, consts.StatusOK, w.Code)
	assert.False(t, s.Eng.Paused())
	assert.Equal(t, float64(engine.MaxSpeed), s.Sim.Speed())
}

func TestResetResumesEngineAfterGameOver(t *testing.T) {
	s, h := newTestServer(t)
	s.Sim.OnGameOver(func(engine.Stats) { s.Eng.Pause() })
	s.Sim.SetPolicy(policy.Update{
		TaxRate:              ptr(60),
		EducationBudget:      ptr(0),
		HealthBudget:         ptr(0),
		SecurityBudget:       ptr(0),
		InfrastructureBudget: ptr(0),
	})
	for i := 0; i < 3000 && !s.Sim.GameOver(); i++ {
		_ = s.Sim.Tick()
	}
	require.True(t, s.Sim.GameOver())
	require.True(t, s.Eng.Paused())

	w := post(h, "/api/v1/reset", testKey, nil)
	require.Equal(t, consts.StatusOK, w.Code)
	assert.False(t, s.Sim.GameOver())
	assert.False(t, s.Eng.Paused(), "reset lets the tick loop run again")
}

func TestResetAndEvents(t *testing.T) {
	s, h := newTestServer(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Sim.Tick())
	}

	w := post(h, "/api/v1/reset", testKey, nil)
	require.Equal(t, consts.StatusOK, w.Code)
	assert.Equal(t, uint64(0), s.Sim.CurrentTick())

	w = get(h, "/api/v1/events?limit=5")
	require.Equal(t, consts.StatusOK, w.Code)
	var events []engine.Event
	decode(t, w, &events)
	assert.LessOrEqual(t, len(events), 5)

	w = get(h, "/api/v1/events?since=0")
	require.Equal(t, consts.StatusOK, w.Code)

	w = get(h, "/api/v1/events?since=abc")
	assert.Equal(t, consts.StatusBadRequest, w.Code)
}

func TestInvalidJSON(t *testing.T) {
	_, h := newTestServer(t)
	raw := []byte("{not json")
	w := ut.PerformRequest(h.Engine, consts.MethodPost, "/api/v1/build",
		&ut.Body{Body: bytes.NewReader(raw), Len: len(raw)},
		ut.Header{Key: "Authorization", Value: "Bearer " + testKey})
	assert.Equal(t, consts.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_json", errorCode(t, w))
}

func TestCORSPreflight(t *testing.T) {
	_, h := newTestServer(t)
	w := ut.PerformRequest(h.Engine, consts.MethodOptions, "/api/v1/build", nil)
	assert.Equal(t, consts.StatusNoContent, w.Code)
	assert.Equal(t, "600", string(w.Result().Header.Peek("Access-Control-Max-Age")))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)
	assert.True(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("1.1.1.1"))
	assert.False(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("2.2.2.2"), "buckets are per client")
	assert.Equal(t, 1800, rl.RetryAfter())
}

func TestRateLimitedCommands(t *testing.T) {
	s, _ := newTestServer(t)
	s.CommandRate = 1
	s.CommandWindow = time.Hour
	h := s.newHertz()

	w := post(h, "/api/v1/speed", testKey, map[string]any{"speed": 2})
	require.Equal(t, consts.StatusOK, w.Code)
	w = post(h, "/api/v1/speed", testKey, map[string]any{"speed": 3})
	assert.Equal(t, consts.StatusTooManyRequests, w.Code)
	assert.Equal(t, "rate_limited", errorCode(t, w))
	assert.Equal(t, "3600", string(w.Result().Header.Peek("Retry-After")))
}
