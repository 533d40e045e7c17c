package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divyyeahhhhh/autocampaign/internal/auth"
	"github.com/divyyeahhhhh/autocampaign/internal/campaign"
	"github.com/divyyeahhhhh/autocampaign/internal/config"
	"github.com/divyyeahhhhh/autocampaign/internal/domain"
	"github.com/divyyeahhhhh/autocampaign/internal/genai"
	"github.com/divyyeahhhhh/autocampaign/internal/session"
	"github.com/divyyeahhhhh/autocampaign/internal/tour"
)

type fakeGenerator struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeGenerator) GenerateMessage(_ context.Context, _ genai.Request) (*genai.Result, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()
	return &genai.Result{
		Content:         fmt.Sprintf("offer %d", n),
		ComplianceScore: 90,
		AIConfidence:    85,
		Reasoning:       "compliant",
	}, nil
}

type fakeStudio struct {
	content  *genai.StudioResult
	strategy string
	err      error
}

func (f *fakeStudio) GenerateStudioContent(_ context.Context, _ genai.StudioRequest) (*genai.StudioResult, error) {
	return f.content, f.err
}

func (f *fakeStudio) AnalyzeLeadStrategy(_ context.Context, _ *domain.UploadedDataset) (string, error) {
	return f.strategy, f.err
}

type fakeNarrator struct{}

func (fakeNarrator) Synthesize(_ context.Context, _ string) ([]byte, error) {
	return make([]byte, 48), nil
}

type testServer struct {
	srv   *httptest.Server
	store *session.Store
	h     *Handlers
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{}
	store := session.NewStore()
	manager := auth.NewManager(auth.NewSimulatedAuthenticator(0))
	svc := campaign.NewService(
		campaign.NewMemoryRunRepository(),
		&fakeGenerator{},
		genai.NewPromptRenderer(),
		campaign.NewMemoryProgressTracker(),
	)
	h := NewHandlers(cfg, manager, store, svc, &fakeStudio{
		content:  &genai.StudioResult{Subject: "Hello", Content: "Body"},
		strategy: "segment by income",
	})
	h.SetTourController(tour.NewController(fakeNarrator{}, NewTourEffects(h), tour.Options{
		StepDelay:     time.Millisecond,
		FallbackDelay: 2 * time.Millisecond,
		OnStep:        func(s tour.Step) { store.SetTourStep(string(s)) },
	}))

	srv := httptest.NewServer(SetupRoutes(h, manager))
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, store: store, h: h}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func (ts *testServer) login(t *testing.T) *http.Cookie {
	t.Helper()
	resp := ts.do(t, http.MethodPost, "/auth/login", loginRequest{Mode: "signin", Email: "tester@example.com"}, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	for _, c := range resp.Cookies() {
		if c.Name == "campaign_session" {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func (ts *testServer) uploadCSV(t *testing.T, cookie *http.Cookie, name, content string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, ts.srv.URL+"/api/dataset/", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(cookie)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

const testCSV = "customerId,name,email\nC1,Asha Nair,asha@example.com\nC2,Vikram Rao,vikram@example.com\n"

func waitForRunState(t *testing.T, ts *testServer, cookie *http.Cookie, runID string, want domain.RunState) map[string]json.RawMessage {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp := ts.do(t, http.MethodGet, "/api/campaign/runs/"+runID+"/", nil, cookie)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]json.RawMessage
		decodeBody(t, resp, &body)
		var run domain.GenerationRun
		require.NoError(t, json.Unmarshal(body["run"], &run))
		if run.State == want {
			return body
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("run %s never reached %s", runID, want)
	return nil
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.do(t, http.MethodGet, "/health", nil, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/auth/login", loginRequest{Mode: "sso", Email: "a@b.com"}, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/auth/user", nil, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	cookie := ts.login(t)
	resp = ts.do(t, http.MethodGet, "/auth/user", nil, cookie)
	var sess auth.Session
	decodeBody(t, resp, &sess)
	assert.Equal(t, "tester@example.com", sess.Email)

	st := ts.store.Snapshot()
	assert.True(t, st.Authenticated)
	assert.Equal(t, session.ViewApp, st.View)

	resp = ts.do(t, http.MethodPost, "/auth/logout", nil, cookie)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.False(t, ts.store.Snapshot().Authenticated)
}

func TestAPIRequiresAuth(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.do(t, http.MethodGet, "/api/session", nil, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDatasetUpload(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login(t)

	resp := ts.uploadCSV(t, cookie, "customers.csv", testCSV)
	var ds datasetResponse
	decodeBody(t, resp, &ds)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "customers.csv", ds.FileName)
	assert.Equal(t, 2, ds.RowCount)
	assert.False(t, ds.Capped)

	// CSV bytes under an .xls name fail the BIFF parse, not the type check.
	resp = ts.uploadCSV(t, cookie, "customers.xls", testCSV)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// A bad file never replaces the good dataset.
	resp = ts.uploadCSV(t, cookie, "broken.csv", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotNil(t, ts.store.Dataset())
	assert.Equal(t, "customers.csv", ts.store.Dataset().FileName)

	resp = ts.do(t, http.MethodDelete, "/api/dataset/", nil, cookie)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Nil(t, ts.store.Dataset())
}

func TestSampleDatasetAndDownload(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login(t)

	resp := ts.do(t, http.MethodPost, "/api/dataset/sample", nil, cookie)
	var ds datasetResponse
	decodeBody(t, resp, &ds)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "sample-customers.csv", ds.FileName)
	assert.Equal(t, 3, ds.RowCount)

	resp = ts.do(t, http.MethodGet, "/sample.csv", nil, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Rajesh Kumar")
}

func TestConfigValidation(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login(t)

	resp := ts.do(t, http.MethodPut, "/api/campaign/config", configRequest{Tone: "Sarcastic"}, cookie)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodPut, "/api/campaign/config", configRequest{Tone: "Friendly", PromptText: "offer savings accounts"}, cookie)
	var cfg domain.CampaignConfig
	decodeBody(t, resp, &cfg)
	assert.Equal(t, domain.ToneFriendly, cfg.Tone)
}

func TestGenerateLifecycle(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login(t)

	// No dataset yet.
	resp := ts.do(t, http.MethodPost, "/api/campaign/generate", nil, cookie)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	ts.uploadCSV(t, cookie, "customers.csv", testCSV).Body.Close()

	resp = ts.do(t, http.MethodPut, "/api/campaign/config",
		configRequest{Tone: "Professional", PromptText: "pitch a gold card"}, cookie)
	resp.Body.Close()

	resp = ts.do(t, http.MethodPost, "/api/campaign/generate", nil, cookie)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var run domain.GenerationRun
	decodeBody(t, resp, &run)
	require.NotEmpty(t, run.ID)

	body := waitForRunState(t, ts, cookie, run.ID, domain.RunCompleted)
	var summary domain.RunSummary
	require.NoError(t, json.Unmarshal(body["summary"], &summary))
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.Passed)
	assert.Equal(t, 90, summary.AvgScore)

	// Session tracked the terminal state.
	deadline := time.Now().Add(2 * time.Second)
	for ts.store.Snapshot().Workflow != domain.RunCompleted && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, domain.RunCompleted, ts.store.Snapshot().Workflow)

	// Progress snapshot reports completion.
	resp = ts.do(t, http.MethodGet, "/api/campaign/runs/"+run.ID+"/progress", nil, cookie)
	var progress campaign.RunProgress
	decodeBody(t, resp, &progress)
	assert.Equal(t, 2, progress.Completed)

	// Edit one message, then export.
	resp = ts.do(t, http.MethodPut, "/api/campaign/runs/"+run.ID+"/messages/1",
		editRequest{Content: "hand-tuned offer"}, cookie)
	var msg domain.GeneratedMessage
	decodeBody(t, resp, &msg)
	assert.Equal(t, "hand-tuned offer", msg.Content)
	assert.Equal(t, 90, msg.ComplianceScore)

	resp = ts.do(t, http.MethodPut, "/api/campaign/runs/"+run.ID+"/messages/99",
		editRequest{Content: "x"}, cookie)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/campaign/runs/"+run.ID+"/export.csv", nil, cookie)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	csvData, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(csvData), "hand-tuned offer")
	assert.Contains(t, string(csvData), "Asha Nair")

	// Back to config keeps the dataset.
	resp = ts.do(t, http.MethodPost, "/api/campaign/back", nil, cookie)
	var st session.State
	decodeBody(t, resp, &st)
	assert.Equal(t, domain.RunConfiguring, st.Workflow)
	require.NotNil(t, st.Dataset)

	// Dashboard stats reflect the run.
	resp = ts.do(t, http.MethodGet, "/api/dashboard/stats", nil, cookie)
	var stats struct {
		TotalRuns     int `json:"total_runs"`
		TotalMessages int `json:"total_messages"`
		AvgScore      int `json:"avg_score"`
	}
	decodeBody(t, resp, &stats)
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 2, stats.TotalMessages)
	assert.Equal(t, 90, stats.AvgScore)
}

func TestRunEventsStream(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login(t)
	ts.uploadCSV(t, cookie, "customers.csv", testCSV).Body.Close()
	ts.do(t, http.MethodPut, "/api/campaign/config",
		configRequest{Tone: "Professional", PromptText: "pitch a gold card"}, cookie).Body.Close()

	resp := ts.do(t, http.MethodPost, "/api/campaign/generate", nil, cookie)
	var run domain.GenerationRun
	decodeBody(t, resp, &run)

	waitForRunState(t, ts, cookie, run.ID, domain.RunCompleted)

	// Finished run: the stream replays the terminal event.
	resp = ts.do(t, http.MethodGet, "/api/campaign/runs/"+run.ID+"/events", nil, cookie)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"done":true`)
	assert.Contains(t, string(data), string(domain.RunCompleted))
}

func TestAbortUnknownRun(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login(t)
	resp := ts.do(t, http.MethodPost, "/api/campaign/runs/nope/abort", nil, cookie)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStudioEndpoints(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.login(t)

	resp := ts.do(t, http.MethodPost, "/api/studio/content",
		studioRequest{Channel: "Fax", Topic: "loans"}, cookie)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/studio/content",
		studioRequest{Channel: "Email", Topic: "festive loan offers"}, cookie)
	var result genai.StudioResult
	decodeBody(t, resp, &result)
	assert.Equal(t, "Hello", result.Subject)

	// Lead strategy needs a dataset.
	resp = ts.do(t, http.MethodPost, "/api/leads/strategy", nil, cookie)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	ts.uploadCSV(t, cookie, "customers.csv", testCSV).Body.Close()
	resp = ts.do(t, http.MethodPost, "/api/leads/strategy", nil, cookie)
	var strat map[string]string
	decodeBody(t, resp, &strat)
	assert.Equal(t, "segment by income", strat["strategy"])
}

func TestContactForm(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/contact", ContactMessage{Name: "A"}, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/contact",
		ContactMessage{Name: "A", Email: "a@b.com", Message: "hi"}, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	ts.h.contactMu.Lock()
	defer ts.h.contactMu.Unlock()
	require.Len(t, ts.h.contacts, 1)
	assert.False(t, ts.h.contacts[0].ReceivedAt.IsZero())
}

func TestTourEndToEnd(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/tour/start", nil, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	// Starting twice conflicts while the tour runs.
	resp = ts.do(t, http.MethodPost, "/tour/start", nil, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// The tour signs in, uploads the sample, generates and finishes.
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		resp := ts.do(t, http.MethodGet, "/tour/", nil, nil)
		var status struct {
			Active bool `json:"active"`
		}
		decodeBody(t, resp, &status)
		if !status.Active && ts.store.Snapshot().TourStep == string(tour.StepIdle) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	st := ts.store.Snapshot()
	assert.Equal(t, string(tour.StepIdle), st.TourStep)
	assert.True(t, st.Authenticated)
	assert.Equal(t, domain.RunCompleted, st.Workflow)
	require.NotNil(t, st.Dataset)
	assert.Equal(t, "sample-customers.csv", st.Dataset.FileName)
	assert.Equal(t, tour.DemoPrompt, st.Config.PromptText)

	// Narration clip is served as WAV.
	resp = ts.do(t, http.MethodGet, "/tour/audio", nil, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "audio/wav", resp.Header.Get("Content-Type"))
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data[:4]))

	// Stopping an idle tour conflicts.
	resp = ts.do(t, http.MethodPost, "/tour/stop", nil, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
