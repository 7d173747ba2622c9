package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hierarchy-analysis/internal/analysis"
	"github.com/hierarchy-analysis/internal/classfile/classfiletest"
	"github.com/hierarchy-analysis/internal/codebase"
	"github.com/hierarchy-analysis/internal/mock"
	"github.com/hierarchy-analysis/internal/report"
	"github.com/hierarchy-analysis/internal/repository"
	"github.com/hierarchy-analysis/internal/subtypes"
	apperrors "github.com/hierarchy-analysis/pkg/errors"
)

func newTestSession(t *testing.T) *analysis.Session {
	t.Helper()
	rt := codebase.NewMap("rt", classfiletest.NewHierarchy().Interface("java/io/Serializable"))
	app := codebase.NewMap("app", classfiletest.Hierarchy{}.
		Class("com/acme/Base", "java/lang/Object").
		Class("com/acme/Impl", "com/acme/Base").
		Class("com/acme/Service", "com/acme/Base", "org/lib/Handler"))

	s := analysis.NewSession(app, rt, analysis.Options{
		Engine:      subtypes.DefaultOptions(),
		ScanWorkers: 2,
	})
	t.Cleanup(func() { _ = s.Close() })
	_, err := s.LoadApplicationClasses(context.Background())
	require.NoError(t, err)
	return s
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s := newTestSession(t)
	rec := get(t, NewServer(s, ":0", nil).Handler(), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	body := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, s.ID(), body["run_id"])
	summary := body["summary"].(map[string]interface{})
	assert.Equal(t, float64(3), summary["application_classes"])
	assert.Equal(t, false, summary["complete"])
}

func TestSubtype(t *testing.T) {
	h := NewServer(newTestSession(t), ":0", nil).Handler()

	tests := []struct {
		name    string
		target  string
		status  int
		result  bool
		code    string
		missing []string
	}{
		{"subtype", "/api/subtype?sub=com/acme/Impl&super=com.acme.Base", http.StatusOK, true, "", nil},
		{"not a subtype", "/api/subtype?sub=com/acme/Base&super=com/acme/Impl", http.StatusOK, false, "", nil},
		{"unknown", "/api/subtype?sub=com/acme/Service&super=com/acme/Impl", http.StatusConflict, false, apperrors.CodeUnknownSubtype, []string{"org/lib/Handler"}},
		{"bad signature", "/api/subtype?sub=I&super=java/lang/Object", http.StatusBadRequest, false, apperrors.CodeInvalidSignature, nil},
		{"missing parameter", "/api/subtype?sub=com/acme/Impl", http.StatusBadRequest, false, apperrors.CodeInvalidInput, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, tt.target)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.result, decode[SubtypeResponse](t, rec).Result)
				return
			}
			body := decode[errorResponse](t, rec)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.missing, body.Missing)
		})
	}
}

func TestMeet(t *testing.T) {
	h := NewServer(newTestSession(t), ":0", nil).Handler()

	rec := get(t, h, "/api/meet?a=com/acme/Impl&b=com/acme/Service")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "com/acme/Base", decode[MeetResponse](t, rec).Result)

	rec = get(t, h, "/api/meet?a=%5BI&b=%5BJ")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "java/lang/Object", decode[MeetResponse](t, rec).Result)
}

func TestSubtypesAndSupertypes(t *testing.T) {
	h := NewServer(newTestSession(t), ":0", nil).Handler()

	rec := get(t, h, "/api/subtypes?class=com/acme/Base&direct=true")
	require.Equal(t, http.StatusOK, rec.Code)
	subs := decode[SubtypesResponse](t, rec)
	assert.True(t, subs.Direct)
	assert.Equal(t, []string{"com/acme/Impl", "com/acme/Service"}, subs.Subtypes)

	rec = get(t, h, "/api/subtypes?class=%5BLcom/acme/Base;")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, h, "/api/supertypes?class=com/acme/Service")
	require.Equal(t, http.StatusOK, rec.Code)
	sup := decode[analysis.SupertypeResult](t, rec)
	assert.Contains(t, sup.Supertypes, "com/acme/Base")
	assert.Equal(t, []string{"org/lib/Handler"}, sup.Missing)
}

func TestMissingAndReport(t *testing.T) {
	h := NewServer(newTestSession(t), ":0", nil).Handler()

	rec := get(t, h, "/api/missing")
	require.Equal(t, http.StatusOK, rec.Code)
	missing := decode[MissingResponse](t, rec)
	assert.Equal(t, 1, missing.Count)
	assert.Equal(t, "org/lib/Handler", missing.Classes[0].Name)

	rec = get(t, h, "/api/report")
	require.Equal(t, http.StatusOK, rec.Code)
	r := decode[report.Report](t, rec)
	assert.Equal(t, 3, r.Counts.ApplicationClasses)
}

func TestRuns(t *testing.T) {
	s := newTestSession(t)
	runs := &mock.MockRunRepository{}
	runs.ExpectListRuns(20, []*repository.Run{{RunID: "r1", Complete: true}}, nil)
	runs.ExpectGetRun("r1", &repository.Run{RunID: "r1", Complete: true}, nil)
	runs.ExpectGetRun("nope", nil, apperrors.Wrap(apperrors.CodeNotFound, "analysis run not found: nope", repository.ErrRunNotFound))

	without := NewServer(s, ":0", nil).Handler()
	assert.Equal(t, http.StatusNotFound, get(t, without, "/api/runs").Code)

	h := NewServer(s, ":0", nil, WithRuns(runs)).Handler()

	rec := get(t, h, "/api/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]repository.Run](t, rec), 1)

	rec = get(t, h, "/api/runs/r1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[repository.Run](t, rec).Complete)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/runs/nope").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/runs?limit=x").Code)
	runs.AssertExpectations(t)
}

func TestProfiling(t *testing.T) {
	s := newTestSession(t)
	assert.Equal(t, http.StatusNotFound, get(t, NewServer(s, ":0", nil).Handler(), "/debug/pprof/").Code)
	assert.Equal(t, http.StatusOK, get(t, NewServer(s, ":0", nil, WithProfiling(true)).Handler(), "/debug/pprof/").Code)
}

func TestShutdownBeforeStart(t *testing.T) {
	assert.NoError(t, NewServer(newTestSession(t), ":0", nil).Shutdown(context.Background()))
}
