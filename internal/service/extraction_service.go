package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"docledger/internal/config"
	"docledger/internal/domain"
	"docledger/internal/oracle"
	"docledger/internal/port"
)

// ProcessInput is the DTO for one upload-processing request. FilePath points
// at the spooled upload on local disk.
type ProcessInput struct {
	Filename string
	FilePath string
	Schema   map[string]string
}

// ProcessResult is the outcome of a successful processing cycle.
type ProcessResult struct {
	DocumentID         int64                  `json:"document_id"`
	Filename           string                 `json:"filename"`
	StructuredMarkdown string                 `json:"structured_markdown"`
	GeneratedJSON      map[string]interface{} `json:"generated_json"`
	SuggestedPrompt    string                 `json:"suggested_prompt,omitempty"`
	OutputTokens       int                    `json:"output_tokens"`
	InheritedVersion   int                    `json:"inherited_version"`
}

// TryPromptResult is the outcome of an ephemeral extraction run.
type TryPromptResult struct {
	GeneratedJSON map[string]interface{} `json:"generated_json"`
	OutputTokens  int                    `json:"output_tokens"`
}

// DocumentVersions is a document together with its materialized ledger.
type DocumentVersions struct {
	ID             int64                 `json:"id"`
	Filename       string                `json:"filename"`
	FileType       string                `json:"file_type"`
	ClientName     string                `json:"client_name"`
	Language       string                `json:"language"`
	CreatedAt      time.Time             `json:"created_at"`
	Versions       []domain.VersionEntry `json:"versions"`
	CurrentVersion int                   `json:"current_version"`
}

// ExtractionService is the orchestrator composing conversion, matching,
// oracle extraction, and registry persistence.
type ExtractionService interface {
	ProcessDocument(ctx context.Context, input *ProcessInput) (*ProcessResult, error)
	InferenceDocument(ctx context.Context, input *ProcessInput) (*ProcessResult, error)
	TryPrompt(ctx context.Context, document, instruction string, schema map[string]string) (*TryPromptResult, error)
	SavePrompt(ctx context.Context, documentID int64, prompt string) (int, error)
	ApplyPromptToLayout(ctx context.Context, layout domain.Layout, prompt string) (int, error)
	ListDocuments(ctx context.Context) ([]domain.Document, error)
	ListWithVersions(ctx context.Context) ([]DocumentVersions, error)
	GetVersions(ctx context.Context, documentID int64) (*DocumentVersions, error)
	UpdateVersion(ctx context.Context, documentID int64, version int, prompt string) (*DocumentVersions, error)
	DeleteAll(ctx context.Context) error
}

type extractionService struct {
	repo      port.DocumentRepository
	converter port.Converter
	oracle    port.Oracle
	matcher   *PromptMatcher
	storage   port.ObjectStorage // optional upload archive
	s3cfg     *config.S3Config
	sem       chan struct{}
}

// NewExtractionService creates an ExtractionService. workers bounds the number
// of uploads processed concurrently; storage may be nil to disable archival.
func NewExtractionService(
	repo port.DocumentRepository,
	conv port.Converter,
	llm port.Oracle,
	matcher *PromptMatcher,
	storage port.ObjectStorage,
	s3cfg *config.S3Config,
	workers int,
) ExtractionService {
	if workers <= 0 {
		workers = 4
	}
	return &extractionService{
		repo:      repo,
		converter: conv,
		oracle:    llm,
		matcher:   matcher,
		storage:   storage,
		s3cfg:     s3cfg,
		sem:       make(chan struct{}, workers),
	}
}

// acquire takes a worker slot, respecting cancellation while waiting.
func (s *extractionService) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *extractionService) release() { <-s.sem }

func (s *extractionService) ProcessDocument(ctx context.Context, input *ProcessInput) (*ProcessResult, error) {
	return s.process(ctx, input, false)
}

func (s *extractionService) InferenceDocument(ctx context.Context, input *ProcessInput) (*ProcessResult, error) {
	return s.process(ctx, input, true)
}

// process runs the per-upload state machine: convert, match, extract,
// persist. The whole pipeline occupies one worker slot; gated requests
// additionally require a previously seen client.
func (s *extractionService) process(ctx context.Context, input *ProcessInput, gated bool) (*ProcessResult, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()

	conv, err := s.converter.Convert(ctx, input.FilePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConversionFailed, err)
	}

	structured, _, err := s.oracle.Complete(ctx, oracle.BuildStructurePrompt(conv.Markdown))
	if err != nil {
		return nil, fmt.Errorf("structuring document: %w", err)
	}

	meta := s.extractMetadata(ctx, input.Filename, conv)

	if gated {
		count, err := s.repo.CountByClient(ctx, meta.ClientName)
		if err != nil {
			return nil, fmt.Errorf("checking client configuration: %w", err)
		}
		if count == 0 {
			return nil, domain.ErrUnconfiguredClient
		}
	}

	suggested, err := s.matcher.SuggestPrompt(ctx, meta.ClientName, meta.Layout)
	if err != nil {
		// The matcher always has a valid "no suggestion" fallback.
		log.Printf("extractionService.process: matcher failed, continuing without suggestion: %v", err)
		suggested = ""
	}

	schema := make(map[string]string, len(input.Schema)+1)
	for k, v := range input.Schema {
		schema[k] = v
	}
	schema["FileName"] = ""
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding schema: %w", err)
	}

	raw, tokens, err := s.oracle.Complete(ctx, oracle.BuildExtractionPrompt(string(schemaJSON), structured, suggested))
	if err != nil {
		return nil, fmt.Errorf("extracting document data: %w", err)
	}
	payload := decodePayload(raw, schema)
	payload["FileName"] = input.Filename

	now := time.Now().UTC()
	ledger, err := s.reconcileLedger(ctx, meta.Layout, suggested, now)
	if err != nil {
		return nil, err
	}

	doc := &domain.Document{
		Filename:      input.Filename,
		FileType:      fileTypeFromName(input.Filename),
		ClientName:    meta.ClientName,
		Language:      meta.Language,
		Layout:        meta.Layout,
		PromptHistory: ledger,
		CreatedAt:     now,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("persisting document: %w", err)
	}

	s.archiveUpload(ctx, input)

	log.Printf("extractionService.process: document %d created (client=%q, inherited=%d)",
		doc.ID, doc.ClientName, len(ledger))

	return &ProcessResult{
		DocumentID:         doc.ID,
		Filename:           input.Filename,
		StructuredMarkdown: structured,
		GeneratedJSON:      payload,
		SuggestedPrompt:    suggested,
		OutputTokens:       tokens,
		InheritedVersion:   len(ledger),
	}, nil
}

// reconcileLedger applies the adoption rule for a new record: with no prior
// ledger for this exact layout the suggestion becomes version 1; otherwise
// the prior ledger is inherited wholesale, with the suggestion appended only
// when its text is not already present verbatim.
func (s *extractionService) reconcileLedger(ctx context.Context, layout domain.Layout, suggested string, now time.Time) (domain.PromptLedger, error) {
	inherited, err := s.repo.LatestLedgerForLayout(ctx, layout)
	if err != nil {
		return nil, fmt.Errorf("loading layout ledger: %w", err)
	}
	if suggested == "" {
		return inherited, nil
	}
	if len(inherited) == 0 {
		return domain.PromptLedger{}.Append(suggested, now), nil
	}
	if !inherited.ContainsPrompt(suggested) {
		return inherited.Append(suggested, now), nil
	}
	return inherited, nil
}

// extractMetadata asks the oracle for document metadata, falling back to
// filename-derived values when the call fails or returns malformed JSON.
func (s *extractionService) extractMetadata(ctx context.Context, filename string, conv *port.ConvertOutput) domain.Metadata {
	fallback := domain.Metadata{
		FileType:   fileTypeFromName(filename),
		Language:   conv.Language,
		ClientName: clientNameFromFilename(filename),
		Layout:     domain.Layout{},
	}

	raw, _, err := s.oracle.Complete(ctx, oracle.BuildMetadataPrompt(filename, conv.Markdown))
	if err != nil {
		log.Printf("extractionService.extractMetadata: oracle call failed, using fallback: %v", err)
		return fallback
	}

	var meta domain.Metadata
	if err := json.Unmarshal([]byte(trimCodeFence(raw)), &meta); err != nil {
		log.Printf("extractionService.extractMetadata: malformed metadata, using fallback: %v", err)
		return fallback
	}

	if meta.FileType == "" {
		meta.FileType = fallback.FileType
	}
	if meta.Language == "" {
		meta.Language = fallback.Language
	}
	if meta.ClientName == "" {
		meta.ClientName = fallback.ClientName
	}
	if meta.Layout == nil {
		meta.Layout = domain.Layout{}
	}
	return meta
}

// archiveUpload stores the original file in object storage when configured.
// Failures are logged, never fatal.
func (s *extractionService) archiveUpload(ctx context.Context, input *ProcessInput) {
	if s.storage == nil || s.s3cfg == nil || s.s3cfg.Bucket == "" {
		return
	}
	f, err := os.Open(input.FilePath)
	if err != nil {
		log.Printf("extractionService.archiveUpload: opening %s: %v", input.FilePath, err)
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		log.Printf("extractionService.archiveUpload: stat %s: %v", input.FilePath, err)
		return
	}

	key := fmt.Sprintf("documents/%s/%s", uuid.New(), input.Filename)
	if _, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket: s.s3cfg.Bucket,
		Key:    key,
		Body:   f,
		Size:   info.Size(),
	}); err != nil {
		log.Printf("extractionService.archiveUpload: uploading %s: %v", key, err)
	}
}

func (s *extractionService) TryPrompt(ctx context.Context, document, instruction string, schema map[string]string) (*TryPromptResult, error) {
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding schema: %w", err)
	}

	raw, tokens, err := s.oracle.Complete(ctx, oracle.BuildTryPrompt(instruction, document, string(schemaJSON)))
	if err != nil {
		return nil, fmt.Errorf("running prompt: %w", err)
	}

	payload := decodePayload(raw, nil)
	return &TryPromptResult{GeneratedJSON: payload, OutputTokens: tokens}, nil
}

func (s *extractionService) SavePrompt(ctx context.Context, documentID int64, prompt string) (int, error) {
	doc, err := s.repo.GetByID(ctx, documentID)
	if err != nil {
		return 0, err
	}
	return s.propagate(ctx, doc.Layout, prompt)
}

func (s *extractionService) ApplyPromptToLayout(ctx context.Context, layout domain.Layout, prompt string) (int, error) {
	return s.propagate(ctx, layout, prompt)
}

// propagate appends the same new version to every record sharing the layout.
// Each record is updated in its own transaction; a failed record is logged
// and skipped, and the returned count reflects only records actually updated.
func (s *extractionService) propagate(ctx context.Context, layout domain.Layout, prompt string) (int, error) {
	ids, err := s.repo.IDsByLayout(ctx, layout)
	if err != nil {
		return 0, fmt.Errorf("listing layout group: %w", err)
	}

	ts := time.Now().UTC()
	updated := 0
	for _, id := range ids {
		if err := s.repo.AppendVersion(ctx, id, prompt, ts); err != nil {
			log.Printf("extractionService.propagate: skipping document %d: %v", id, err)
			continue
		}
		updated++
	}
	return updated, nil
}

func (s *extractionService) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	return s.repo.List(ctx)
}

func (s *extractionService) ListWithVersions(ctx context.Context) ([]DocumentVersions, error) {
	docs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]DocumentVersions, 0, len(docs))
	for i := range docs {
		out = append(out, materializeDocument(&docs[i]))
	}
	return out, nil
}

func (s *extractionService) GetVersions(ctx context.Context, documentID int64) (*DocumentVersions, error) {
	doc, err := s.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	dv := materializeDocument(doc)
	return &dv, nil
}

func (s *extractionService) UpdateVersion(ctx context.Context, documentID int64, version int, prompt string) (*DocumentVersions, error) {
	if version == 0 {
		return nil, fmt.Errorf("version 0 is the system prompt: %w", domain.ErrInvalidVersion)
	}
	doc, err := s.repo.UpdateVersion(ctx, documentID, version, prompt)
	if err != nil {
		return nil, err
	}
	dv := materializeDocument(doc)
	return &dv, nil
}

func (s *extractionService) DeleteAll(ctx context.Context) error {
	log.Printf("extractionService.DeleteAll: wiping document registry")
	return s.repo.DeleteAll(ctx)
}

func materializeDocument(doc *domain.Document) DocumentVersions {
	versions := doc.PromptHistory.Materialize(doc.CreatedAt)
	return DocumentVersions{
		ID:             doc.ID,
		Filename:       doc.Filename,
		FileType:       doc.FileType,
		ClientName:     doc.ClientName,
		Language:       doc.Language,
		CreatedAt:      doc.CreatedAt,
		Versions:       versions,
		CurrentVersion: len(versions) - 1,
	}
}

// decodePayload parses oracle output as a JSON object and, when a schema is
// given, checks that every schema key is present. A payload that fails either
// check is replaced by an {error, raw} object; the request still succeeds.
func decodePayload(raw string, schema map[string]string) map[string]interface{} {
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(trimCodeFence(raw)), &payload); err != nil {
		return map[string]interface{}{"error": "Failed to parse JSON", "raw": raw}
	}
	for key := range schema {
		if _, ok := payload[key]; !ok {
			return map[string]interface{}{"error": "response missing schema field " + key, "raw": raw}
		}
	}
	return payload
}

// trimCodeFence strips a surrounding markdown code fence, which models emit
// despite being told not to.
func trimCodeFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```json")
	t = strings.TrimPrefix(t, "```")
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}

// fileTypeFromName returns the lowercase suffix after the last dot, or ""
// when the name has no extension.
func fileTypeFromName(filename string) string {
	ext := filepath.Ext(filename)
	if ext == "" {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// clientNameFromFilename truncates at the first dot, so a dotted name like
// "report.2024.pdf" falls back to "report".
func clientNameFromFilename(filename string) string {
	if i := strings.Index(filename, "."); i >= 0 {
		return filename[:i]
	}
	return filename
}
