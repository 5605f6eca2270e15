package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/application"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/application/analyzer"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/application/classifier"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/application/guardrail"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/application/pipeline"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/application/render"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/ai"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/ai/aitest"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/analysis"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/session"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/infra/extract"
	memsession "github.com/AbdulSamad94/Legalyze-AI-Backend/internal/infra/session"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/middleware"
)

const agreement = `CONSULTING SERVICES AGREEMENT
1. Term and Termination. Either party may terminate this Agreement for convenience on five days notice.
2. Limitation of Liability. The Consultant's liability is capped at the fees paid in the prior month.
3. Confidentiality. Each party shall keep the other party's confidential information secret.`

type fakeArchive struct {
	mu   sync.Mutex
	keys []string
}

func (f *fakeArchive) Upload(_ context.Context, _ string, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	return "http://minio.local/legalyze/" + key, nil
}

type server struct {
	handler  http.Handler
	provider *aitest.Provider
	sessions *memsession.MemoryStore
	archive  *fakeArchive
}

func newServer(t *testing.T, p *aitest.Provider, maxUpload int64) *server {
	t.Helper()
	log := zap.NewNop()
	guard := guardrail.NewChecker(p, log)
	sessions := memsession.NewMemoryStore()
	clock := application.FixedClock{T: time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)}
	archive := &fakeArchive{}

	svc := &pipeline.Service{
		Guard:        guard,
		Classifier:   classifier.New(p, classifier.DefaultThreshold, log),
		Orchestrator: analyzer.NewOrchestrator(p, guard, analyzer.NewNormalizer(log), analyzer.DefaultToolAttempts, log),
		Renderer:     render.New(p, guard, log),
		Sessions:     sessions,
		Clock:        clock,
		Logger:       log,
	}
	h := NewRouter(Options{
		Pipeline:        svc,
		Sessions:        sessions,
		Extractor:       extract.New(nil, log),
		Archive:         archive,
		Clock:           clock,
		Logger:          log,
		Version:         "test",
		MaxUploadBytes:  maxUpload,
		PipelineTimeout: time.Minute,
		HealthCheckers: map[string]middleware.HealthChecker{
			"sessions": middleware.PingChecker{Target: sessions},
		},
	})
	return &server{handler: h, provider: p, sessions: sessions, archive: archive}
}

func (s *server) upload(t *testing.T, path, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("note", "ignored"))
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *server) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

// terminal returns the last JSON payload before the end marker.
func terminal(t *testing.T, body string) map[string]json.RawMessage {
	t.Helper()
	require.True(t, strings.HasSuffix(body, pipeline.DoneMarker), "stream must end with the end marker")
	frames := strings.Split(strings.TrimSuffix(body, pipeline.DoneMarker), "\n\n")
	var last string
	for _, f := range frames {
		if f != "" {
			last = f
		}
	}
	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(last, "data: ")), &out))
	return out
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Detail
}

func TestAnalyzeStreamsAndTracksSession(t *testing.T) {
	s := newServer(t, aitest.LegalScript(), 0)

	rec := s.upload(t, "/analyze", "agreement.txt", []byte(agreement))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	sid := rec.Header().Get("X-Session-ID")
	require.NotEmpty(t, sid)

	term := terminal(t, rec.Body.String())
	require.Contains(t, term, "final_result")
	var final analysis.FinalResult
	require.NoError(t, json.Unmarshal(term["final_result"], &final))
	assert.Equal(t, analysis.ResultLegalAnalysis, final.Type)
	assert.Equal(t, sid, final.SessionID)
	require.NotNil(t, final.DocumentInfo)
	assert.Equal(t, "http://minio.local/legalyze/sessions/"+sid+"/agreement.txt", final.DocumentInfo.DocumentURL)
	assert.Equal(t, []string{"sessions/" + sid + "/agreement.txt"}, s.archive.keys)

	first := s.get("/session/" + sid)
	require.Equal(t, http.StatusOK, first.Code)
	second := s.get("/session/" + sid)
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes(), "repeated lookups are byte-identical")

	var rec2 session.Record
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &rec2))
	assert.Equal(t, session.StatusCompleted, rec2.Status)
	assert.Equal(t, "agreement.txt", rec2.Filename)

	del := httptest.NewRecorder()
	s.handler.ServeHTTP(del, httptest.NewRequest(http.MethodDelete, "/session/"+sid, nil))
	assert.Equal(t, http.StatusOK, del.Code)
	assert.Equal(t, http.StatusNotFound, s.get("/session/"+sid).Code)

	del = httptest.NewRecorder()
	s.handler.ServeHTTP(del, httptest.NewRequest(http.MethodDelete, "/session/"+sid, nil))
	assert.Equal(t, http.StatusNotFound, del.Code)
}

func TestAnalyzeCleanDocumentSerializesConsistently(t *testing.T) {
	p := aitest.New().
		On(ai.CapabilityGuardrail, aitest.SafeVerdict).
		On(ai.CapabilityDocumentDetector, aitest.LegalDetection).
		On(ai.CapabilityRouter, aitest.AnalyzeDecision).
		On(ai.CapabilitySummarize, aitest.Summary).
		On(ai.CapabilityDetectRisks, `{"risks": [], "overall_risk_level": "low"}`).
		On(ai.CapabilityCheckClause, aitest.ClauseRev).
		On(ai.CapabilitySynthesize, `{"summary": "A short consulting agreement with balanced terms.", "risks": [], "verdict": "Safe to sign as written.", "confidence_score": "NaN"}`).
		On(ai.CapabilityFriendly, aitest.Friendly)
	s := newServer(t, p, 0)

	rec := s.upload(t, "/analyze", "agreement.txt", []byte(agreement))
	require.Equal(t, http.StatusOK, rec.Code)
	term := terminal(t, rec.Body.String())
	require.Contains(t, term, "final_result")
	assert.Contains(t, string(term["final_result"]), `"risks":[]`)
	assert.Contains(t, string(term["final_result"]), `"confidence_score":0.8`)

	got := s.get("/session/" + rec.Header().Get("X-Session-ID"))
	require.Equal(t, http.StatusOK, got.Code)
	assert.Contains(t, got.Body.String(), `"risks":[]`)
	assert.NotContains(t, got.Body.String(), `"risks":null`)
}

func TestUnencodableResponseIsServerError(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	r := &Router{log: zap.New(core)}
	h := r.wrap(func(w http.ResponseWriter, _ *http.Request) error {
		return writeJSON(w, http.StatusOK, map[string]float64{"score": math.NaN()})
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/session/x", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", detail(t, rec))
	assert.Equal(t, 1, logs.FilterMessage("request failed").Len())
}

func TestDemoHasNoSession(t *testing.T) {
	s := newServer(t, aitest.LegalScript(), 0)

	rec := s.upload(t, "/demo/", "agreement.txt", []byte(agreement))
	require.Equal(t, http.StatusOK, rec.Code)
	term := terminal(t, rec.Body.String())
	assert.Contains(t, term, "structured_data")

	sid := rec.Header().Get("X-Session-ID")
	require.NotEmpty(t, sid)
	assert.Equal(t, http.StatusNotFound, s.get("/session/"+sid).Code)
	assert.Empty(t, s.archive.keys)
}

func TestCasualUpload(t *testing.T) {
	s := newServer(t, aitest.ChatScript(), 0)

	rec := s.upload(t, "/analyze", "hello.txt", []byte("Hi, what do you do?"))
	require.Equal(t, http.StatusOK, rec.Code)
	var final analysis.FinalResult
	require.NoError(t, json.Unmarshal(terminal(t, rec.Body.String())["final_result"], &final))
	assert.Equal(t, analysis.ResultCasualResponse, final.Type)
	assert.NotEmpty(t, final.Message)
	assert.Nil(t, final.Analysis)
}

func TestUploadRejectedBeforePipeline(t *testing.T) {
	cases := []struct {
		name     string
		filename string
		content  []byte
		status   int
	}{
		{name: "unsupported extension", filename: "contract.exe", content: []byte("MZ..."), status: http.StatusBadRequest},
		{name: "empty text", filename: "empty.txt", content: []byte(""), status: http.StatusBadRequest},
		{name: "whitespace only", filename: "blank.txt", content: []byte("   \n\t  "), status: http.StatusBadRequest},
		{name: "mismatched content", filename: "fake.pdf", content: []byte(agreement), status: http.StatusBadRequest},
		{name: "too large", filename: "big.txt", content: bytes.Repeat([]byte("clause "), 400), status: http.StatusRequestEntityTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newServer(t, aitest.LegalScript(), 1024)
			rec := s.upload(t, "/analyze", tc.filename, tc.content)

			assert.Equal(t, tc.status, rec.Code)
			assert.NotEmpty(t, detail(t, rec))
			assert.NotContains(t, rec.Body.String(), "data:", "no progress events before validation passes")
			assert.Empty(t, rec.Header().Get("X-Session-ID"))
			assert.Zero(t, s.provider.Total(), "no capability call for rejected uploads")
			assert.Zero(t, s.sessions.Len())
		})
	}
}

func TestUploadWithoutFile(t *testing.T) {
	s := newServer(t, aitest.LegalScript(), 0)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader("{}")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionLookupErrors(t *testing.T) {
	s := newServer(t, aitest.LegalScript(), 0)
	assert.Equal(t, http.StatusNotFound, s.get("/session/not-a-uuid").Code)
	rec := s.get("/session/0b4f8e3c-9f55-4a4e-9c1c-8f1b6f3a2d10")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Session not found", detail(t, rec))
}

func TestOperationalEndpoints(t *testing.T) {
	s := newServer(t, aitest.LegalScript(), 0)

	root := s.get("/")
	require.Equal(t, http.StatusOK, root.Code)
	assert.Contains(t, root.Body.String(), `"status":"running"`)

	health := s.get("/health")
	require.Equal(t, http.StatusOK, health.Code)
	assert.Contains(t, health.Body.String(), `"sessions"`)

	reports := s.get("/reports?page=0&page_size=500")
	require.Equal(t, http.StatusOK, reports.Code)
	var list struct {
		Page     int               `json:"page"`
		PageSize int               `json:"page_size"`
		Reports  []json.RawMessage `json:"reports"`
	}
	require.NoError(t, json.Unmarshal(reports.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 100, list.PageSize)
	assert.NotNil(t, list.Reports)
	assert.Empty(t, list.Reports)

	metrics := s.get("/metrics")
	require.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "legalyze_http_requests_total")
}
