package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/achievement-classifier/internal/db"
	"github.com/jonathan/achievement-classifier/internal/pipeline"
	"github.com/jonathan/achievement-classifier/internal/types"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// BatchRequest is the body of POST /certificates/batch.
type BatchRequest struct {
	Certificates []types.CertificateRequest `json:"certificates"`
}

// BatchResultItem is the outcome for one certificate of a batch.
type BatchResultItem struct {
	Index  int                         `json:"index"`
	URL    string                      `json:"url"`
	Status int                         `json:"status"`
	Result *pipeline.CertificateResult `json:"result,omitempty"`
	Error  string                      `json:"error,omitempty"`
}

// BatchResponse is the body returned by POST /certificates/batch.
type BatchResponse struct {
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Results   []BatchResultItem `json:"results"`
}

// StudentAchievementsResponse lists a student's records with their review summary.
type StudentAchievementsResponse struct {
	Summary      *db.StudentSummary        `json:"summary"`
	Achievements []types.AchievementRecord `json:"achievements"`
}

// TokenResponse carries a signed verification token.
type TokenResponse struct {
	AchievementID uuid.UUID `json:"achievement_id"`
	Token         string    `json:"token"`
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return &ErrValidation{Field: "body", Message: "request body too large"}
		case errors.Is(err, io.EOF):
			return &ErrValidation{Field: "body", Message: "request body is empty"}
		default:
			return &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
		}
	}
	return nil
}

// pathID parses the {id} path value as a record UUID.
func pathID(r *http.Request) (uuid.UUID, error) {
	raw := r.PathValue("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &ErrValidation{Field: "id", Message: "must be a UUID"}
	}
	return id, nil
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"storage":  s.store != nil,
		"pipeline": s.processor != nil,
	})
}

// handleCategories returns the category taxonomy in declared order
func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.taxonomy.Categories())
}

// handleClassify classifies a title and description without storing anything
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req types.ClassifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, err)
		return
	}

	analysis, err := s.classifier.Classify(req.Title, req.Description)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, analysis)
}

// handleExtract extracts certificate fields from already recognized text
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req types.ExtractRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, err)
		return
	}

	fields, err := s.extractor.Extract(req.Text)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, fields)
}

// handleCreateAchievement classifies typed evidence and stores a pending record
func (s *Server) handleCreateAchievement(w http.ResponseWriter, r *http.Request) {
	if err := s.requirePipeline(); err != nil {
		s.writeError(w, err)
		return
	}
	var req types.AchievementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	rec, err := s.processor.ProcessManual(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, rec)
}

// handleCreateCertificate processes certificate evidence behind a URL
func (s *Server) handleCreateCertificate(w http.ResponseWriter, r *http.Request) {
	if err := s.requirePipeline(); err != nil {
		s.writeError(w, err)
		return
	}
	var req types.CertificateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.processor.ProcessCertificate(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, result)
}

// handleCertificateStream processes one certificate and streams stage progress via SSE
func (s *Server) handleCertificateStream(w http.ResponseWriter, r *http.Request) {
	if err := s.requirePipeline(); err != nil {
		s.writeError(w, err)
		return
	}
	var req types.CertificateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Each stream gets its own copy so progress goes only to this client.
	proc := *s.processor
	proc.OnProgress = func(event pipeline.ProgressEvent) {
		if err := sse.WriteEvent("stage", event); err != nil {
			log.Printf("Error writing SSE event: %v", err)
		}
	}

	result, err := proc.ProcessCertificate(r.Context(), req)
	if err != nil {
		sse.WriteError(HTTPStatus(err), ErrorMessage(err))
		return
	}
	if err := sse.WriteEvent("complete", result); err != nil {
		log.Printf("Error writing SSE event: %v", err)
	}
}

// handleCertificateBatch processes several certificates concurrently.
// Per-item failures are reported in the body; the response itself is 200.
func (s *Server) handleCertificateBatch(w http.ResponseWriter, r *http.Request) {
	if err := s.requirePipeline(); err != nil {
		s.writeError(w, err)
		return
	}
	var req BatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if len(req.Certificates) == 0 {
		s.writeError(w, &ErrValidation{Field: "certificates", Message: "provide at least one certificate"})
		return
	}
	if len(req.Certificates) > MaxBatchSize {
		s.writeError(w, &ErrValidation{Field: "certificates", Message: "too many certificates in one batch"})
		return
	}

	items, err := s.processor.ProcessBatch(r.Context(), req.Certificates, s.batchConcurrency)
	if err != nil {
		// Only cancellation aborts a batch; the client is gone.
		log.Printf("Batch aborted: %v", err)
		return
	}

	resp := BatchResponse{Total: len(items), Results: make([]BatchResultItem, len(items))}
	for i, item := range items {
		out := BatchResultItem{Index: i, URL: item.Request.URL, Status: http.StatusCreated, Result: item.Result}
		if item.Err != nil {
			out.Status = HTTPStatus(item.Err)
			out.Error = ErrorMessage(item.Err)
			resp.Failed++
		} else {
			resp.Succeeded++
		}
		resp.Results[i] = out
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleGetAchievement returns one record
func (s *Server) handleGetAchievement(w http.ResponseWriter, r *http.Request) {
	if err := s.requireStore(); err != nil {
		s.writeError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	rec, err := s.store.GetAchievement(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if rec == nil {
		s.writeError(w, &ErrNotFound{Resource: "achievement", ID: id.String()})
		return
	}
	s.jsonResponse(w, http.StatusOK, rec)
}

// handleUpdateStatus records a review decision
func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	if err := s.requireStore(); err != nil {
		s.writeError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req types.StatusUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, err)
		return
	}

	rec, err := s.store.UpdateAchievementStatus(r.Context(), id, req.Status)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if rec == nil {
		s.writeError(w, &ErrNotFound{Resource: "achievement", ID: id.String()})
		return
	}
	s.jsonResponse(w, http.StatusOK, rec)
}

// handleListStudentAchievements lists a student's records, optionally filtered by ?status=
func (s *Server) handleListStudentAchievements(w http.ResponseWriter, r *http.Request) {
	if err := s.requireStore(); err != nil {
		s.writeError(w, err)
		return
	}
	studentID := r.PathValue("id")
	status := types.RecordStatus(r.URL.Query().Get("status"))
	if status != "" && !status.IsValid() {
		s.writeError(w, &ErrValidation{Field: "status", Message: "must be one of pending, approved, rejected"})
		return
	}

	records, err := s.store.ListAchievementsByStudent(r.Context(), studentID, status)
	if err != nil {
		s.writeError(w, err)
		return
	}
	summary, err := s.store.SummarizeStudent(r.Context(), studentID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if records == nil {
		records = []types.AchievementRecord{}
	}
	s.jsonResponse(w, http.StatusOK, StudentAchievementsResponse{Summary: summary, Achievements: records})
}

// handleIssueToken signs a verification token for an approved record
func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	if err := s.requireStore(); err != nil {
		s.writeError(w, err)
		return
	}
	if s.verifier == nil {
		s.writeError(w, &ErrUnavailable{Service: "verification"})
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	rec, err := s.store.GetAchievement(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if rec == nil {
		s.writeError(w, &ErrNotFound{Resource: "achievement", ID: id.String()})
		return
	}

	token, err := s.verifier.IssueToken(rec)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, TokenResponse{AchievementID: rec.ID, Token: token})
}

// handleVerify checks a verification token. Invalid tokens are a 200 with valid=false.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if s.verifier == nil {
		s.writeError(w, &ErrUnavailable{Service: "verification"})
		return
	}
	var req types.VerifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.verifier.Verify(req.Token))
}

func (s *Server) requireStore() error {
	if s.store == nil {
		return &ErrUnavailable{Service: "storage"}
	}
	return nil
}

func (s *Server) requirePipeline() error {
	if s.processor == nil {
		return &ErrUnavailable{Service: "evidence pipeline"}
	}
	return s.requireStore()
}
