package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/achievement-classifier/internal/classify"
	"github.com/jonathan/achievement-classifier/internal/db"
	"github.com/jonathan/achievement-classifier/internal/extraction"
	"github.com/jonathan/achievement-classifier/internal/pipeline"
	"github.com/jonathan/achievement-classifier/internal/server/ratelimit"
	"github.com/jonathan/achievement-classifier/internal/taxonomy"
	"github.com/jonathan/achievement-classifier/internal/types"
	"github.com/jonathan/achievement-classifier/internal/verification"
)

// DefaultBatchConcurrency is used when Config.BatchConcurrency is not set.
const DefaultBatchConcurrency = 4

// MaxBatchSize is the largest number of certificates accepted by POST /certificates/batch.
const MaxBatchSize = 25

// Store is the record storage used by the API. *db.DB implements it.
type Store interface {
	Save(ctx context.Context, rec *types.AchievementRecord) error
	GetAchievement(ctx context.Context, id uuid.UUID) (*types.AchievementRecord, error)
	ListAchievementsByStudent(ctx context.Context, studentID string, status types.RecordStatus) ([]types.AchievementRecord, error)
	UpdateAchievementStatus(ctx context.Context, id uuid.UUID, status types.RecordStatus) (*types.AchievementRecord, error)
	SummarizeStudent(ctx context.Context, studentID string) (*db.StudentSummary, error)
}

// Config holds the server's listen port and its collaborators.
// Classifier and Extractor are required. Without Store and Processor the record
// endpoints answer 503; without Verifier the token endpoints do.
type Config struct {
	Port             int
	Taxonomy         *taxonomy.Taxonomy
	Classifier       *classify.Classifier
	Extractor        *extraction.Extractor
	Processor        *pipeline.Processor
	Store            Store
	Verifier         *verification.Service
	RateLimit        *ratelimit.Config
	BatchConcurrency int
}

// Server is the HTTP REST API server
type Server struct {
	httpServer  *http.Server
	handler     http.Handler
	rateLimiter *ratelimit.Limiter

	taxonomy         *taxonomy.Taxonomy
	classifier       *classify.Classifier
	extractor        *extraction.Extractor
	processor        *pipeline.Processor
	store            Store
	verifier         *verification.Service
	batchConcurrency int
}

// New creates a new server instance. A nil RateLimit config loads RATE_LIMIT_* from the environment.
func New(cfg Config) (*Server, error) {
	if cfg.Classifier == nil || cfg.Extractor == nil {
		return nil, fmt.Errorf("classifier and extractor are required")
	}
	if cfg.Taxonomy == nil {
		cfg.Taxonomy = taxonomy.Default()
	}
	if cfg.RateLimit == nil {
		cfg.RateLimit = ratelimit.LoadConfig()
	}
	if cfg.BatchConcurrency < 1 {
		cfg.BatchConcurrency = DefaultBatchConcurrency
	}

	s := &Server{
		rateLimiter:      ratelimit.NewLimiter(cfg.RateLimit),
		taxonomy:         cfg.Taxonomy,
		classifier:       cfg.Classifier,
		extractor:        cfg.Extractor,
		processor:        cfg.Processor,
		store:            cfg.Store,
		verifier:         cfg.Verifier,
		batchConcurrency: cfg.BatchConcurrency,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /categories", s.handleCategories)

	// Stateless analysis
	mux.HandleFunc("POST /classify", s.handleClassify)
	mux.HandleFunc("POST /extract", s.handleExtract)

	// Evidence submission
	mux.HandleFunc("POST /achievements", s.handleCreateAchievement)
	mux.HandleFunc("POST /certificates", s.handleCreateCertificate)
	mux.HandleFunc("POST /certificates/stream", s.handleCertificateStream)
	mux.HandleFunc("POST /certificates/batch", s.handleCertificateBatch)

	// Review
	mux.HandleFunc("GET /achievements/{id}", s.handleGetAchievement)
	mux.HandleFunc("PATCH /achievements/{id}/status", s.handleUpdateStatus)
	mux.HandleFunc("GET /students/{id}/achievements", s.handleListStudentAchievements)

	// Verification
	mux.HandleFunc("POST /achievements/{id}/verification-token", s.handleIssueToken)
	mux.HandleFunc("POST /verify", s.handleVerify)

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(mux)))
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // certificate OCR and batches run inside the request
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start runs the server until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.rateLimiter.Stop()
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.rateLimiter.Stop()

	log.Println("Server stopped")
	return nil
}

// Close releases background resources without serving.
func (s *Server) Close() {
	s.rateLimiter.Stop()
}

// withCORS adds CORS headers to responses
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit rejects requests over the client's token bucket with 429
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(clientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code for request logs.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps server-sent events working through the logging wrapper.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("[%s] %s %d in %v (%s)", r.Method, r.URL.Path, rec.status, time.Since(start), r.RemoteAddr)
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// writeError maps err to a status code. Internal errors are logged and not echoed.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway && status != http.StatusServiceUnavailable {
		log.Printf("Internal error: %v", err)
		s.errorResponse(w, status, "internal server error")
		return
	}
	s.errorResponse(w, status, ErrorMessage(err))
}

// clientID identifies the caller for rate limiting by the IP in RemoteAddr.
// X-Forwarded-For is ignored since it is client controlled without a trusted proxy.
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}
	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	}

	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d Remaining=%d", info.Limit, info.Remaining)
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
