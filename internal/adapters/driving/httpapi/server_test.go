package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/clausewise/internal/core/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, policy *mockPolicyService, opts ...Option) http.Handler {
	t.Helper()
	s, err := NewServer(policy, opts...)
	require.NoError(t, err)
	return s.Handler()
}

func do(h http.Handler, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestNewServer_RequiresPolicy(t *testing.T) {
	_, err := NewServer(nil)
	assert.Error(t, err)
}

func TestHealthz(t *testing.T) {
	rec := do(newTestServer(t, &mockPolicyService{}), http.MethodGet, "/healthz", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeJSON(t, rec)["status"])
}

func TestCreateSession_JSON(t *testing.T) {
	t.Run("decodes ref", func(t *testing.T) {
		var gotRef string
		policy := &mockPolicyService{decodeFn: func(ref string) (*domain.Session, error) {
			gotRef = ref
			return testSession(), nil
		}}

		rec := do(newTestServer(t, policy), http.MethodPost, "/api/v1/sessions",
			strings.NewReader(`{"ref":"github://acme/policies/home.pdf"}`), "application/json")

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "github://acme/policies/home.pdf", gotRef)
		body := decodeJSON(t, rec)
		assert.Equal(t, "sess-1", body["id"])
		assert.Equal(t, "operational", body["index_state"])
		assert.Len(t, body["clauses"], 1)
	})

	t.Run("missing ref", func(t *testing.T) {
		rec := do(newTestServer(t, &mockPolicyService{}), http.MethodPost, "/api/v1/sessions",
			strings.NewReader(`{}`), "application/json")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("degraded index is reported", func(t *testing.T) {
		session := testSession()
		session.Index = domain.NewDegradedHandle("policy_sess1", "quota exceeded")

		rec := do(newTestServer(t, &mockPolicyService{session: session}), http.MethodPost, "/api/v1/sessions",
			strings.NewReader(`{"ref":"x.pdf"}`), "application/json")

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "quota exceeded", decodeJSON(t, rec)["index_error"])
	})

	t.Run("unsupported format", func(t *testing.T) {
		policy := &mockPolicyService{err: fmt.Errorf("%w: .docx", domain.ErrUnsupportedFormat)}

		rec := do(newTestServer(t, policy), http.MethodPost, "/api/v1/sessions",
			strings.NewReader(`{"ref":"x.docx"}`), "application/json")

		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
		assert.Contains(t, decodeJSON(t, rec)["error"], ".docx")
	})
}

func TestCreateSession_Upload(t *testing.T) {
	var (
		gotName    string
		gotContent string
		gotPath    string
	)
	policy := &mockPolicyService{decodeFn: func(ref string) (*domain.Session, error) {
		gotPath = ref
		gotName = filepath.Base(ref)
		data, err := os.ReadFile(ref)
		if err != nil {
			return nil, err
		}
		gotContent = string(data)
		return testSession(), nil
	}}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "home.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("Flood is excluded."))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	rec := do(newTestServer(t, policy), http.MethodPost, "/api/v1/sessions", &buf, w.FormDataContentType())

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "home.txt", gotName)
	assert.Equal(t, "Flood is excluded.", gotContent)

	_, err = os.Stat(gotPath)
	assert.True(t, os.IsNotExist(err), "upload should be removed after decoding")
}

func TestCreateSession_UploadMissingFile(t *testing.T) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("other", "x"))
	require.NoError(t, w.Close())

	rec := do(newTestServer(t, &mockPolicyService{}), http.MethodPost, "/api/v1/sessions", &buf, w.FormDataContentType())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListSessions(t *testing.T) {
	t.Run("returns summaries", func(t *testing.T) {
		policy := &mockPolicyService{sessions: []domain.SessionSummary{testSession().Summary()}}

		rec := do(newTestServer(t, policy), http.MethodGet, "/api/v1/sessions", nil, "")

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeJSON(t, rec)
		assert.EqualValues(t, 1, body["total"])
	})

	t.Run("empty list", func(t *testing.T) {
		rec := do(newTestServer(t, &mockPolicyService{}), http.MethodGet, "/api/v1/sessions", nil, "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"data":[],"total":0}`, rec.Body.String())
	})
}

func TestGetSession(t *testing.T) {
	t.Run("found with analysis", func(t *testing.T) {
		session := testSession()
		session.Analysis = &domain.Analysis{FullSummary: "Home cover."}
		policy := &mockPolicyService{session: session}

		rec := do(newTestServer(t, policy), http.MethodGet, "/api/v1/sessions/sess-1", nil, "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "sess-1", policy.lastID)
		body := decodeJSON(t, rec)
		assert.Equal(t, "Home cover.", body["summary"])
		assert.Equal(t, true, body["analysed"])
	})

	t.Run("not found", func(t *testing.T) {
		policy := &mockPolicyService{err: fmt.Errorf("session nope: %w", domain.ErrNotFound)}

		rec := do(newTestServer(t, policy), http.MethodGet, "/api/v1/sessions/nope", nil, "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDeleteSession(t *testing.T) {
	policy := &mockPolicyService{}

	rec := do(newTestServer(t, policy), http.MethodDelete, "/api/v1/sessions/sess-1", nil, "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"sess-1"}, policy.deleted)
}

func TestClauses(t *testing.T) {
	rec := do(newTestServer(t, &mockPolicyService{session: testSession()}), http.MethodGet, "/api/v1/sessions/sess-1/clauses", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"data":[{"clause_id":"p1_c1","page_num":1,"text":"Flood is excluded."}],"total":1}`,
		rec.Body.String())
}

func TestKeyTerms(t *testing.T) {
	rec := do(newTestServer(t, &mockPolicyService{answer: "terms"}), http.MethodGet, "/api/v1/sessions/sess-1/terms", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "terms", decodeJSON(t, rec)["answer"])
}

func TestAnalyze(t *testing.T) {
	t.Run("returns analysis", func(t *testing.T) {
		policy := &mockPolicyService{analysis: &domain.Analysis{FullSummary: "Home cover."}}

		rec := do(newTestServer(t, policy), http.MethodPost, "/api/v1/sessions/sess-1/analysis", nil, "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Home cover.", decodeJSON(t, rec)["full_summary"])
	})

	t.Run("llm unavailable", func(t *testing.T) {
		policy := &mockPolicyService{err: domain.ErrLLMUnavailable}

		rec := do(newTestServer(t, policy), http.MethodPost, "/api/v1/sessions/sess-1/analysis", nil, "")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestQuery(t *testing.T) {
	t.Run("display text", func(t *testing.T) {
		policy := &mockPolicyService{answer: "**Relevant Policy Clauses:**"}

		rec := do(newTestServer(t, policy), http.MethodPost, "/api/v1/sessions/sess-1/query",
			strings.NewReader(`{"query":"flood?","k":2}`), "application/json")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "**Relevant Policy Clauses:**", decodeJSON(t, rec)["answer"])
		assert.Equal(t, "flood?", policy.lastQuery)
		assert.Equal(t, 2, policy.lastK)
	})

	t.Run("structured matches", func(t *testing.T) {
		policy := &mockPolicyService{matches: []domain.IndexMatch{
			{ID: "p1_c1", Document: "Flood is excluded.", PageNum: 1, Similarity: 0.9},
		}}

		rec := do(newTestServer(t, policy), http.MethodPost, "/api/v1/sessions/sess-1/query",
			strings.NewReader(`{"query":"flood?","structured":true}`), "application/json")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t,
			`{"matches":[{"clause_id":"p1_c1","document":"Flood is excluded.","page_num":1,"similarity":0.9}]}`,
			rec.Body.String())
	})

	t.Run("structured on degraded index", func(t *testing.T) {
		policy := &mockPolicyService{err: domain.ErrIndexDegraded}

		rec := do(newTestServer(t, policy), http.MethodPost, "/api/v1/sessions/sess-1/query",
			strings.NewReader(`{"query":"flood?","structured":true}`), "application/json")

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("empty query", func(t *testing.T) {
		rec := do(newTestServer(t, &mockPolicyService{}), http.MethodPost, "/api/v1/sessions/sess-1/query",
			strings.NewReader(`{"query":"  "}`), "application/json")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("negative k", func(t *testing.T) {
		rec := do(newTestServer(t, &mockPolicyService{}), http.MethodPost, "/api/v1/sessions/sess-1/query",
			strings.NewReader(`{"query":"q","k":-1}`), "application/json")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestReport(t *testing.T) {
	t.Run("plain text", func(t *testing.T) {
		rec := do(newTestServer(t, &mockPolicyService{report: "REPORT"}), http.MethodGet, "/api/v1/sessions/sess-1/report", nil, "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "REPORT", rec.Body.String())
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	})

	t.Run("not analysed", func(t *testing.T) {
		policy := &mockPolicyService{err: fmt.Errorf("%w: run analysis first", domain.ErrInvalidInput)}

		rec := do(newTestServer(t, policy), http.MethodGet, "/api/v1/sessions/sess-1/report", nil, "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestMCPMount(t *testing.T) {
	mcpHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := do(newTestServer(t, &mockPolicyService{}, WithMCPHandler(mcpHandler)), http.MethodPost, "/mcp", nil, "")
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = do(newTestServer(t, &mockPolicyService{}), http.MethodPost, "/mcp", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrInvalidInput, http.StatusBadRequest},
		{domain.ErrUnsupportedFormat, http.StatusUnsupportedMediaType},
		{domain.ErrAlreadyExists, http.StatusConflict},
		{domain.ErrIndexDegraded, http.StatusConflict},
		{domain.ErrLLMUnavailable, http.StatusServiceUnavailable},
		{domain.ErrExtractorUnavailable, http.StatusServiceUnavailable},
		{domain.ErrConfiguration, http.StatusServiceUnavailable},
		{domain.ErrTransientAPI, http.StatusBadGateway},
		{domain.ErrMalformedResponse, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(fmt.Errorf("wrapped: %w", tt.err)))
		})
	}
}
