package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonathan/achievement-classifier/internal/classify"
	"github.com/jonathan/achievement-classifier/internal/extraction"
	"github.com/jonathan/achievement-classifier/internal/fetch"
	"github.com/jonathan/achievement-classifier/internal/ocr"
	"github.com/jonathan/achievement-classifier/internal/types"
)

// Store persists finished records.
type Store interface {
	Save(ctx context.Context, rec *types.AchievementRecord) error
}

// ProgressEvent represents a progress update while processing one piece of evidence.
type ProgressEvent struct {
	Stage     string `json:"stage"`
	StudentID string `json:"student_id"`
	Message   string `json:"message"`
}

// ProgressCallback is called when processing moves to a new stage.
type ProgressCallback func(event ProgressEvent)

// RenderFunc renders a page in a browser and returns its HTML.
type RenderFunc func(ctx context.Context, url string) (string, error)

// Processor wires the evidence stages together. Extractor and Classifier are required;
// a nil Store skips persistence and a nil Recognizer rejects image evidence.
type Processor struct {
	Fetcher    fetch.Fetcher
	Recognizer ocr.Recognizer
	Extractor  *extraction.Extractor
	Classifier *classify.Classifier
	Store      Store
	Logger     *slog.Logger
	Now        func() time.Time

	// Render is used for credential pages whose static HTML carries too little text.
	// Nil disables the browser fallback.
	Render     RenderFunc
	OnProgress ProgressCallback

	// MaxBytes caps evidence files read from disk. Zero means fetch.DefaultMaxBytes.
	MaxBytes int64
}

// CertificateResult is the outcome of processing one certificate.
type CertificateResult struct {
	Record *types.AchievementRecord         `json:"record"`
	Fields *types.ExtractedCertificateFields `json:"fields"`
	Kind   fetch.Kind                       `json:"kind"`
}

// BrowserRenderer returns a RenderFunc backed by headless Chrome.
func BrowserRenderer(timeout time.Duration, logger *slog.Logger) RenderFunc {
	return func(ctx context.Context, url string) (string, error) {
		return fetch.WithBrowser(ctx, url, timeout, logger)
	}
}

func (p *Processor) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

func (p *Processor) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Processor) progress(stage, studentID, message string) {
	if p.OnProgress != nil {
		p.OnProgress(ProgressEvent{Stage: stage, StudentID: studentID, Message: message})
	}
}

// ProcessManual classifies typed evidence and stores it as a pending record.
func (p *Processor) ProcessManual(ctx context.Context, req types.AchievementRequest) (*types.AchievementRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, &StageError{Stage: StageValidate, Message: "invalid achievement request", Cause: err}
	}

	p.progress(StageClassify, req.StudentID, "classifying achievement")
	analysis, err := p.Classifier.Classify(req.Title, req.Description)
	if err != nil {
		return nil, &StageError{Stage: StageClassify, Message: "classification failed", Cause: err}
	}

	rec := types.NewRecordFromAnalysis(req.StudentID, req.Title, req.Description, analysis, p.now())
	if err := p.save(ctx, rec); err != nil {
		return nil, err
	}

	p.logger().Info("pipeline.manual.ok",
		"student_id", rec.StudentID, "record_id", rec.ID,
		"category", rec.Category, "points", rec.Points,
	)
	return rec, nil
}

// ProcessCertificate fetches the evidence behind req.URL, reads its text, extracts the
// certificate fields, classifies it and stores a pending record.
func (p *Processor) ProcessCertificate(ctx context.Context, req types.CertificateRequest) (*CertificateResult, error) {
	if err := req.Validate(); err != nil {
		return nil, &StageError{Stage: StageValidate, Message: "invalid certificate request", Cause: err}
	}
	log := p.logger().With("student_id", req.StudentID, "url", req.URL)
	start := time.Now()

	p.progress(StageFetch, req.StudentID, "fetching evidence")
	if p.Fetcher == nil {
		return nil, &StageError{Stage: StageFetch, Message: "no fetcher configured"}
	}
	res, err := p.Fetcher.Fetch(ctx, req.URL)
	if err != nil {
		return nil, &StageError{Stage: StageFetch, Message: "could not download evidence", Cause: err}
	}
	return p.processDocument(ctx, req, res, log, start)
}

// ProcessFile runs a certificate stored on local disk through the same stages as
// ProcessCertificate. The record's evidence URL is the file:// URL of path.
func (p *Processor) ProcessFile(ctx context.Context, studentID, path, description string) (*CertificateResult, error) {
	if strings.TrimSpace(studentID) == "" {
		return nil, &StageError{Stage: StageValidate, Message: "student id is required"}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &StageError{Stage: StageValidate, Message: "invalid evidence path", Cause: err}
	}
	req := types.CertificateRequest{
		StudentID:   studentID,
		URL:         (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(),
		Description: description,
	}
	log := p.logger().With("student_id", studentID, "path", abs)
	start := time.Now()

	p.progress(StageFetch, studentID, "reading evidence file")
	info, err := os.Stat(abs)
	if err != nil {
		return nil, &StageError{Stage: StageFetch, Message: "could not read evidence file", Cause: err}
	}
	if limit := p.maxBytes(); info.Size() > limit {
		log.Warn("pipeline.file.too_large", "bytes", info.Size(), "limit", limit)
		return nil, &StageError{
			Stage:   StageFetch,
			Message: "evidence file too large",
			Cause:   fmt.Errorf("%w: %d bytes exceeds %d", fetch.ErrTooLarge, info.Size(), limit),
		}
	}
	body, err := os.ReadFile(abs)
	if err != nil {
		return nil, &StageError{Stage: StageFetch, Message: "could not read evidence file", Cause: err}
	}
	return p.processDocument(ctx, req, &fetch.Result{URL: req.URL, Body: body, StatusCode: 200}, log, start)
}

func (p *Processor) maxBytes() int64 {
	if p.MaxBytes > 0 {
		return p.MaxBytes
	}
	return fetch.DefaultMaxBytes
}

// processDocument handles a document once its bytes are in memory.
func (p *Processor) processDocument(ctx context.Context, req types.CertificateRequest, res *fetch.Result, log *slog.Logger, start time.Time) (*CertificateResult, error) {
	kind := fetch.DetectKind(res.ContentType, req.URL, res.Body)
	p.progress(StageRecognize, req.StudentID, fmt.Sprintf("reading %s evidence", kind))
	text, err := p.readText(ctx, req.URL, kind, res)
	if err != nil {
		return nil, err
	}

	p.progress(StageExtract, req.StudentID, "extracting certificate fields")
	fields, err := p.Extractor.Extract(text)
	if err != nil {
		return nil, &StageError{Stage: StageExtract, Message: "no readable text in evidence", Cause: err}
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = fields.RawTextSample
	}

	p.progress(StageClassify, req.StudentID, "classifying achievement")
	analysis, err := p.Classifier.Classify(fields.Title, description)
	if err != nil {
		return nil, &StageError{Stage: StageClassify, Message: "classification failed", Cause: err}
	}

	rec := types.NewRecordFromAnalysis(req.StudentID, fields.Title, description, analysis, p.now())
	rec.Source = types.SourceCertificate
	rec.Issuer = fields.Issuer
	rec.IssueDate = fields.IssueDate
	rec.EvidenceURL = req.URL

	if err := p.save(ctx, rec); err != nil {
		return nil, err
	}

	log.Info("pipeline.certificate.ok",
		"record_id", rec.ID, "kind", kind, "title", rec.Title,
		"category", rec.Category, "points", rec.Points,
		"date_fallback", fields.DateFallback,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &CertificateResult{Record: rec, Fields: fields, Kind: kind}, nil
}

// readText obtains the plain text of a fetched document according to its kind.
func (p *Processor) readText(ctx context.Context, url string, kind fetch.Kind, res *fetch.Result) (string, error) {
	switch kind {
	case fetch.KindImage:
		if p.Recognizer == nil {
			return "", &StageError{Stage: StageRecognize, Message: "image evidence requires an OCR engine"}
		}
		text, err := p.Recognizer.Recognize(ctx, res.Body, fetch.ImageMediaType(res.ContentType, url, res.Body))
		if err != nil {
			return "", &StageError{Stage: StageRecognize, Message: "text recognition failed", Cause: err}
		}
		return text, nil

	case fetch.KindPDF:
		text, err := fetch.PDFText(res.Body)
		if err != nil {
			return "", &StageError{Stage: StageRecognize, Message: "could not read PDF", Cause: err}
		}
		return text, nil

	case fetch.KindHTML:
		return p.pageText(ctx, url, string(res.Body))

	case fetch.KindText:
		return string(res.Body), nil
	}
	return "", &StageError{
		Stage:   StageRecognize,
		Message: fmt.Sprintf("unsupported evidence type %q; provide an image, PDF or web page", res.ContentType),
	}
}

// pageText extracts the credential text of an HTML page, rendering it in a browser when
// the static markup is nearly empty.
func (p *Processor) pageText(ctx context.Context, url, html string) (string, error) {
	platform := fetch.DetectPlatform(url)
	selectors := fetch.PlatformContentSelectors(platform)
	noise := fetch.PlatformNoiseSelectors(platform)

	text, err := fetch.ExtractMainText(html, selectors, noise...)
	if err != nil {
		return "", &StageError{Stage: StageRecognize, Message: "could not parse page", Cause: err}
	}
	if !fetch.ShouldUseBrowser(text) || p.Render == nil {
		return text, nil
	}

	p.logger().Debug("pipeline.browser_fallback", "url", url, "platform", platform, "chars", len(text))
	rendered, err := p.Render(ctx, url)
	if err != nil {
		// The static text is still usable.
		p.logger().Warn("pipeline.browser_failed", "url", url, "error", err)
		return text, nil
	}
	renderedText, err := fetch.ExtractMainText(rendered, selectors, noise...)
	if err != nil || len(renderedText) < len(text) {
		return text, nil
	}
	return renderedText, nil
}

func (p *Processor) save(ctx context.Context, rec *types.AchievementRecord) error {
	if p.Store == nil {
		return nil
	}
	p.progress(StageSave, rec.StudentID, "saving record")
	if err := p.Store.Save(ctx, rec); err != nil {
		return &StageError{Stage: StageSave, Message: "could not store record", Cause: err}
	}
	return nil
}
