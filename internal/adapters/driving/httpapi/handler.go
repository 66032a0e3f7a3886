package httpapi

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/clausewise/internal/core/domain"
	"github.com/custodia-labs/clausewise/internal/core/ports/driving"
)

type sessionHandler struct {
	policy driving.PolicyService
}

type createRequest struct {
	Ref string `json:"ref"`
}

type queryRequest struct {
	Query string `json:"query"`
	K     int    `json:"k"`

	// Structured returns ranked matches instead of display text.
	Structured bool `json:"structured"`
}

type sessionResponse struct {
	domain.SessionSummary
	Source     string                `json:"source,omitempty"`
	Clauses    []domain.Clause       `json:"clauses"`
	IndexError string                `json:"index_error,omitempty"`
	Summary    string                `json:"summary,omitempty"`
	Pages      []domain.PageAnalysis `json:"page_analysis,omitempty"`
}

func newSessionResponse(s *domain.Session) sessionResponse {
	resp := sessionResponse{
		SessionSummary: s.Summary(),
		Source:         s.Source,
		Clauses:        s.Clauses,
	}
	if resp.Clauses == nil {
		resp.Clauses = []domain.Clause{}
	}
	if s.IndexState() == domain.IndexDegraded {
		resp.IndexError = s.Index.Reason()
	}
	if s.Analysis != nil {
		resp.Summary = s.Analysis.FullSummary
		resp.Pages = s.Analysis.Pages
	}
	return resp
}

// Create decodes a policy from a JSON {ref} body or a multipart "file" upload.
func (h *sessionHandler) Create(c *gin.Context) {
	var (
		session *domain.Session
		err     error
	)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		session, err = h.decodeUpload(c)
	} else {
		var req createRequest
		if bindErr := c.ShouldBindJSON(&req); bindErr != nil || req.Ref == "" {
			abortWithError(c, fmt.Errorf("%w: body must be {\"ref\": \"...\"}", domain.ErrInvalidInput))
			return
		}
		session, err = h.policy.Decode(c.Request.Context(), req.Ref)
	}
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newSessionResponse(session))
}

// decodeUpload stores the upload under its original base name in a temp
// directory so the session records a meaningful file name.
func (h *sessionHandler) decodeUpload(c *gin.Context) (*domain.Session, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes)

	header, err := c.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("%w: multipart field \"file\" is required", domain.ErrInvalidInput)
	}

	name := filepath.Base(header.Filename)
	if name == "." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: upload has no file name", domain.ErrInvalidInput)
	}

	dir, err := os.MkdirTemp("", "clausewise-upload-*")
	if err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, name)
	if err := c.SaveUploadedFile(header, path); err != nil {
		return nil, fmt.Errorf("saving upload: %w", err)
	}

	return h.policy.Decode(c.Request.Context(), path)
}

// List returns session summaries, newest first.
func (h *sessionHandler) List(c *gin.Context) {
	sessions, err := h.policy.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	if sessions == nil {
		sessions = []domain.SessionSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"data": sessions, "total": len(sessions)})
}

// Get returns one session.
func (h *sessionHandler) Get(c *gin.Context) {
	session, err := h.policy.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(session))
}

// Delete removes a session and its index.
func (h *sessionHandler) Delete(c *gin.Context) {
	if err := h.policy.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Clauses returns the clauses in document order.
func (h *sessionHandler) Clauses(c *gin.Context) {
	clauses, err := h.policy.Clauses(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if clauses == nil {
		clauses = []domain.Clause{}
	}
	c.JSON(http.StatusOK, gin.H{"data": clauses, "total": len(clauses)})
}

// KeyTerms returns the definitions view.
func (h *sessionHandler) KeyTerms(c *gin.Context) {
	text, err := h.policy.KeyTerms(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": text})
}

// Analyze runs the LLM analysis.
func (h *sessionHandler) Analyze(c *gin.Context) {
	analysis, err := h.policy.Analyze(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// Query answers a question against the session index.
func (h *sessionHandler) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		abortWithError(c, fmt.Errorf("%w: body must include a non-empty \"query\"", domain.ErrInvalidInput))
		return
	}
	if req.K < 0 {
		abortWithError(c, fmt.Errorf("%w: k must not be negative", domain.ErrInvalidInput))
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")

	if req.Structured {
		matches, err := h.policy.Search(ctx, id, req.Query, req.K)
		if err != nil {
			abortWithError(c, err)
			return
		}
		if matches == nil {
			matches = []domain.IndexMatch{}
		}
		c.JSON(http.StatusOK, gin.H{"matches": matches})
		return
	}

	answer, err := h.policy.Query(ctx, id, req.Query, req.K)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

// Report returns the plain-text report.
func (h *sessionHandler) Report(c *gin.Context) {
	report, err := h.policy.Report(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.String(http.StatusOK, report)
}
