package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"docledger/internal/domain"
	"docledger/internal/service"
)

// DocumentHandler handles document processing and prompt ledger endpoints.
type DocumentHandler struct {
	extraction service.ExtractionService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(extraction service.ExtractionService) *DocumentHandler {
	return &DocumentHandler{extraction: extraction}
}

// Process handles POST /process-document
func (h *DocumentHandler) Process(c *gin.Context) {
	h.runPipeline(c, h.extraction.ProcessDocument)
}

// Inference handles POST /inference-document
func (h *DocumentHandler) Inference(c *gin.Context) {
	h.runPipeline(c, h.extraction.InferenceDocument)
}

func (h *DocumentHandler) runPipeline(c *gin.Context, run func(ctx context.Context, input *service.ProcessInput) (*service.ProcessResult, error)) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	schema, err := parseSchema(c.PostForm("schema_json"))
	if err != nil {
		HandleError(c, err)
		return
	}

	path, cleanup, err := spoolUpload(file, header.Filename)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "UPLOAD_FAILED", "could not store uploaded file")
		return
	}
	defer cleanup()

	result, err := run(c.Request.Context(), &service.ProcessInput{
		Filename: header.Filename,
		FilePath: path,
		Schema:   schema,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, result)
}

type tryPromptRequest struct {
	Document string            `json:"document" binding:"required"`
	Prompt   string            `json:"prompt" binding:"required"`
	Schema   map[string]string `json:"schema" binding:"required"`
}

// TryPrompt handles POST /try-prompt
func (h *DocumentHandler) TryPrompt(c *gin.Context) {
	var req tryPromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "document, prompt, and schema are required")
		return
	}

	result, err := h.extraction.TryPrompt(c.Request.Context(), req.Document, req.Prompt, req.Schema)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result)
}

type savePromptRequest struct {
	DocumentID int64  `json:"document_id" binding:"required"`
	Prompt     string `json:"prompt" binding:"required"`
}

// SavePrompt handles POST /save-prompt
func (h *DocumentHandler) SavePrompt(c *gin.Context) {
	var req savePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "document_id and prompt are required")
		return
	}

	updated, err := h.extraction.SavePrompt(c.Request.Context(), req.DocumentID, req.Prompt)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"updated": updated})
}

type applyPromptRequest struct {
	Layout domain.Layout `json:"layout" binding:"required"`
	Prompt string        `json:"prompt" binding:"required"`
}

// ApplyPromptToLayout handles POST /document/apply-prompt-to-layout
func (h *DocumentHandler) ApplyPromptToLayout(c *gin.Context) {
	var req applyPromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "layout and prompt are required")
		return
	}

	updated, err := h.extraction.ApplyPromptToLayout(c.Request.Context(), req.Layout, req.Prompt)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"updated": updated})
}

// listedDocument is the listing shape; empty strings become null.
type listedDocument struct {
	ID         int64         `json:"id"`
	Filename   interface{}   `json:"filename"`
	FileType   interface{}   `json:"file_type"`
	ClientName interface{}   `json:"client_name"`
	Language   interface{}   `json:"language"`
	Layout     domain.Layout `json:"layout"`
	CreatedAt  interface{}   `json:"created_at"`
}

// List handles GET /documents
func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.extraction.ListDocuments(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}

	out := make([]listedDocument, 0, len(docs))
	for _, doc := range docs {
		out = append(out, listedDocument{
			ID:         doc.ID,
			Filename:   nullIfEmpty(doc.Filename),
			FileType:   nullIfEmpty(doc.FileType),
			ClientName: nullIfEmpty(doc.ClientName),
			Language:   nullIfEmpty(doc.Language),
			Layout:     doc.Layout,
			CreatedAt:  doc.CreatedAt,
		})
	}
	RespondOK(c, out)
}

// ListWithVersions handles GET /documents-with-versions
func (h *DocumentHandler) ListWithVersions(c *gin.Context) {
	docs, err := h.extraction.ListWithVersions(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, docs)
}

// GetVersions handles GET /document/:id/versions
func (h *DocumentHandler) GetVersions(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	doc, err := h.extraction.GetVersions(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, doc)
}

type updateVersionRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// UpdateVersion handles PUT /document/:id/version/:version
func (h *DocumentHandler) UpdateVersion(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	version, err := strconv.Atoi(c.Param("version"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_VERSION", "version must be an integer")
		return
	}

	var req updateVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "prompt is required")
		return
	}

	doc, err := h.extraction.UpdateVersion(c.Request.Context(), id, version, req.Prompt)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, doc)
}

// DeleteAll handles DELETE /delete-all-documents
func (h *DocumentHandler) DeleteAll(c *gin.Context) {
	if err := h.extraction.DeleteAll(c.Request.Context()); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "all documents deleted"})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid document ID")
		return 0, false
	}
	return id, true
}

// parseSchema decodes the schema_json form field. Every value must be a
// string; anything else is a schema error, not an internal one.
func parseSchema(raw string) (map[string]string, error) {
	if raw == "" {
		return nil, fmt.Errorf("schema_json is required: %w", domain.ErrSchemaInvalid)
	}
	var generic map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return nil, fmt.Errorf("schema_json is not a JSON object: %w", domain.ErrSchemaInvalid)
	}
	schema := make(map[string]string, len(generic))
	for k, v := range generic {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("schema_json value for %q is not a string: %w", k, domain.ErrSchemaInvalid)
		}
		schema[k] = s
	}
	return schema, nil
}

// spoolUpload writes the uploaded stream to a temp file preserving the
// original extension, which the converter routes on.
func spoolUpload(file io.Reader, filename string) (path string, cleanup func(), err error) {
	tmp, err := os.CreateTemp("", "docledger-*"+filepath.Ext(filename))
	if err != nil {
		return "", nil, err
	}
	if _, err := io.Copy(tmp, file); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", nil, err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", nil, err
	}
	return tmp.Name(), func() {
		if err := os.Remove(tmp.Name()); err != nil {
			log.Printf("documentHandler: removing temp upload %s: %v", tmp.Name(), err)
		}
	}, nil
}

func nullIfEmpty(s string) interface{} {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
