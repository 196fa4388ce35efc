// Agilepath - Team Practice Maturity Analytics and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agilepath

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/agilepath/internal/backtest"
	"github.com/tomtom215/agilepath/internal/jobs"
	"github.com/tomtom215/agilepath/internal/maturity"
	"github.com/tomtom215/agilepath/internal/optimize"
	"github.com/tomtom215/agilepath/internal/recommend"
)

// testPractices and testObservations form a dataset where both signals
// point at retrospectives for team alpha at period 400.
var testPractices = []string{"ci", "code_review", "pairing", "retrospectives"}

func testObservations() []maturity.RawObservation {
	return []maturity.RawObservation{
		{Team: "alpha", Period: 300, Levels: []int{3, 2, 0, 0}},
		{Team: "alpha", Period: 400, Levels: []int{3, 2, 1, 0}},

		{Team: "bravo", Period: 200, Levels: []int{3, 2, 1, 0}},
		{Team: "bravo", Period: 300, Levels: []int{3, 2, 1, 2}},
		{Team: "bravo", Period: 500, Levels: []int{3, 3, 3, 3}},

		{Team: "charlie", Period: 100, Levels: []int{0, 0, 0, 0}},
		{Team: "charlie", Period: 200, Levels: []int{0, 0, 1, 1}},
	}
}

type testServer struct {
	srv    *httptest.Server
	runner *jobs.Runner
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	catalog, err := maturity.NewCatalog(testPractices)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	store, err := maturity.NewStore(catalog, testObservations())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	recommender := recommend.NewEngine(store, zerolog.Nop())
	backtester := backtest.NewEngine(recommender, zerolog.Nop())
	optimizer := optimize.NewEngine(backtester, zerolog.Nop())
	runner := jobs.NewRunner(zerolog.Nop())

	defaults := recommend.Params{
		TopN:             2,
		KSimilar:         5,
		SimilarityWeight: 0.6,
		LookaheadPeriods: 3,
		RecentPeriods:    3,
		MinSimilarity:    0,
	}

	handler := NewHandler(store, recommender, backtester, optimizer, runner, defaults)
	router := NewRouter(handler, NewChiMiddleware(&ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{"*"},
		RateLimitRequests:  1000,
		RateLimitWindow:    time.Minute,
	}))

	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, runner: runner}
}

// envelope mirrors APIResponse with raw data for per-test decoding.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, envelope) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			t.Fatalf("decoding envelope: %v", err)
		}
	}
	return resp, env
}

func TestTeamsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, env := doJSON(t, http.MethodGet, ts.srv.URL+"/api/v1/teams", "")
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("status = %d, success = %v", resp.StatusCode, env.Success)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}

	var teams []TeamSummary
	if err := json.Unmarshal(env.Data, &teams); err != nil {
		t.Fatalf("decoding teams: %v", err)
	}
	if len(teams) != 3 {
		t.Fatalf("teams = %d, want 3", len(teams))
	}
	if teams[0].Name != "alpha" || teams[0].FirstPeriod != 300 || teams[0].LastPeriod != 400 {
		t.Errorf("alpha summary = %+v", teams[0])
	}
}

func TestTeamPeriodsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, env := doJSON(t, http.MethodGet, ts.srv.URL+"/api/v1/teams/bravo/periods", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var payload TeamPeriodsResponse
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if len(payload.Periods) != 3 || payload.Periods[0].Period != 200 {
		t.Errorf("periods = %+v", payload.Periods)
	}
	if len(payload.Practices) != 4 {
		t.Errorf("practices = %v", payload.Practices)
	}

	resp, env = doJSON(t, http.MethodGet, ts.srv.URL+"/api/v1/teams/ghost/periods", "")
	if resp.StatusCode != http.StatusNotFound || env.Error == nil || env.Error.Code != ErrCodeNotFound {
		t.Errorf("status = %d, error = %+v", resp.StatusCode, env.Error)
	}
}

func TestRecommendationsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, env := doJSON(t, http.MethodPost, ts.srv.URL+"/api/v1/recommendations",
		`{"team": "alpha", "period": 400}`)
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("status = %d, error = %+v", resp.StatusCode, env.Error)
	}
	if env.Meta == nil || env.Meta.RequestID == "" {
		t.Error("missing request ID in meta")
	}

	var payload RecommendResponse
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if len(payload.Recommendations) == 0 {
		t.Fatal("expected recommendations")
	}
	if payload.Recommendations[0].Practice != "retrospectives" {
		t.Errorf("top recommendation = %q, want retrospectives", payload.Recommendations[0].Practice)
	}
	if payload.Params.TopN != 2 {
		t.Errorf("resolved TopN = %d, want 2", payload.Params.TopN)
	}
}

func TestRecommendationsValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{name: "missing team", body: `{"period": 400}`, wantCode: ErrCodeValidationFailed},
		{name: "missing period", body: `{"team": "alpha"}`, wantCode: ErrCodeValidationFailed},
		{name: "malformed json", body: `{"team":`, wantCode: ErrCodeBadRequest},
		{name: "unknown field", body: `{"team": "alpha", "period": 400, "bogus": 1}`, wantCode: ErrCodeBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, env := doJSON(t, http.MethodPost, ts.srv.URL+"/api/v1/recommendations", tc.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
			if env.Error == nil || env.Error.Code != tc.wantCode {
				t.Errorf("error = %+v, want code %s", env.Error, tc.wantCode)
			}
		})
	}
}

func TestRecommendationsInsufficientHistory(t *testing.T) {
	ts := newTestServer(t)

	resp, env := doJSON(t, http.MethodPost, ts.srv.URL+"/api/v1/recommendations",
		`{"team": "charlie", "period": 100}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != ErrCodeInsufficientHistory {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestTeamRecommendationsGet(t *testing.T) {
	ts := newTestServer(t)

	resp, env := doJSON(t, http.MethodGet,
		ts.srv.URL+"/api/v1/teams/alpha/recommendations?period=400&top_n=1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, error = %+v", resp.StatusCode, env.Error)
	}

	var payload RecommendResponse
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if len(payload.Recommendations) != 1 {
		t.Fatalf("recommendations = %d, want 1", len(payload.Recommendations))
	}

	resp, env = doJSON(t, http.MethodGet, ts.srv.URL+"/api/v1/teams/alpha/recommendations", "")
	if resp.StatusCode != http.StatusBadRequest || env.Error.Code != ErrCodeBadRequest {
		t.Errorf("missing period: status = %d, error = %+v", resp.StatusCode, env.Error)
	}
}

func TestExplainEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, env := doJSON(t, http.MethodGet,
		ts.srv.URL+"/api/v1/teams/alpha/practices/retrospectives/explanation?period=400", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, error = %+v", resp.StatusCode, env.Error)
	}

	var explanation recommend.Explanation
	if err := json.Unmarshal(env.Data, &explanation); err != nil {
		t.Fatalf("decoding explanation: %v", err)
	}
	if explanation.Practice != "retrospectives" {
		t.Errorf("practice = %q", explanation.Practice)
	}
	if len(explanation.SimilarTeams) == 0 {
		t.Error("expected similar team evidence")
	}

	resp, _ = doJSON(t, http.MethodGet,
		ts.srv.URL+"/api/v1/teams/alpha/practices/bogus/explanation?period=400", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown practice: status = %d, want 404", resp.StatusCode)
	}
}

func TestTransitionsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, env := doJSON(t, http.MethodGet, ts.srv.URL+"/api/v1/sequences/transitions", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var payload TransitionsResponse
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	found := false
	for _, entry := range payload.Entries {
		if entry.From == "pairing" && entry.To == "retrospectives" {
			found = true
		}
	}
	if !found {
		t.Errorf("missing pairing->retrospectives entry: %+v", payload.Entries)
	}

	// An early cutoff sees no transitions at all.
	resp, env = doJSON(t, http.MethodGet, ts.srv.URL+"/api/v1/sequences/transitions?cutoff=150", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if len(payload.Entries) != 0 {
		t.Errorf("entries before cutoff 150 = %+v", payload.Entries)
	}
}

func TestTypicalNextEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, env := doJSON(t, http.MethodGet, ts.srv.URL+"/api/v1/sequences/transitions/pairing", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var payload TypicalNextResponse
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if len(payload.Next) == 0 {
		t.Fatal("expected follow-up practices")
	}

	resp, _ = doJSON(t, http.MethodGet, ts.srv.URL+"/api/v1/sequences/transitions/bogus", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown practice: status = %d, want 404", resp.StatusCode)
	}
}

func TestHealthAndStats(t *testing.T) {
	ts := newTestServer(t)

	resp, env := doJSON(t, http.MethodGet, ts.srv.URL+"/api/v1/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}
	var health HealthResponse
	if err := json.Unmarshal(env.Data, &health); err != nil {
		t.Fatalf("decoding health: %v", err)
	}
	if health.Status != "ok" || health.Dataset.Teams != 3 {
		t.Errorf("health = %+v", health)
	}

	resp, env = doJSON(t, http.MethodGet, ts.srv.URL+"/api/v1/stats", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats status = %d", resp.StatusCode)
	}
	var stats maturity.Stats
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		t.Fatalf("decoding stats: %v", err)
	}
	if stats.Practices != 4 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestUnknownRouteAndMethod(t *testing.T) {
	ts := newTestServer(t)

	resp, env := doJSON(t, http.MethodGet, ts.srv.URL+"/api/v1/nope", "")
	if resp.StatusCode != http.StatusNotFound || env.Error.Code != ErrCodeNotFound {
		t.Errorf("status = %d, error = %+v", resp.StatusCode, env.Error)
	}

	resp, env = doJSON(t, http.MethodDelete, ts.srv.URL+"/api/v1/teams", "")
	if resp.StatusCode != http.StatusMethodNotAllowed || env.Error.Code != ErrCodeMethodNotAllowed {
		t.Errorf("status = %d, error = %+v", resp.StatusCode, env.Error)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
