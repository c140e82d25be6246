package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docledger/internal/domain"
	"docledger/internal/handler"
	"docledger/internal/service"
	"docledger/mocks"
)

func setupRouter(svc service.ExtractionService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handler.NewDocumentHandler(svc)

	r := gin.New()
	r.POST("/process-document", h.Process)
	r.POST("/inference-document", h.Inference)
	r.POST("/try-prompt", h.TryPrompt)
	r.POST("/save-prompt", h.SavePrompt)
	r.POST("/document/apply-prompt-to-layout", h.ApplyPromptToLayout)
	r.GET("/documents", h.List)
	r.GET("/documents-with-versions", h.ListWithVersions)
	r.GET("/document/:id/versions", h.GetVersions)
	r.PUT("/document/:id/version/:version", h.UpdateVersion)
	r.DELETE("/delete-all-documents", h.DeleteAll)
	return r
}

func multipartUpload(t *testing.T, filename, content, schemaJSON string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)

	if schemaJSON != "" {
		require.NoError(t, mw.WriteField("schema_json", schemaJSON))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestDocumentHandler_ProcessSuccess(t *testing.T) {
	svc := new(mocks.MockExtractionService)
	svc.On("ProcessDocument", mock.Anything, mock.MatchedBy(func(in *service.ProcessInput) bool {
		return in.Filename == "invoice.pdf" && in.Schema["Total"] == "" && in.FilePath != ""
	})).Return(&service.ProcessResult{DocumentID: 42, Filename: "invoice.pdf"}, nil)

	body, contentType := multipartUpload(t, "invoice.pdf", "%PDF-1.4", `{"Total":""}`)
	req := httptest.NewRequest(http.MethodPost, "/process-document", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, true, envelope["success"])
	svc.AssertExpectations(t)
}

func TestDocumentHandler_ProcessMissingFile(t *testing.T) {
	svc := new(mocks.MockExtractionService)

	req := httptest.NewRequest(http.MethodPost, "/process-document", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	w := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "ProcessDocument", mock.Anything, mock.Anything)
}

func TestDocumentHandler_ProcessRejectsNonStringSchema(t *testing.T) {
	svc := new(mocks.MockExtractionService)

	body, contentType := multipartUpload(t, "invoice.pdf", "%PDF-1.4", `{"Total":42}`)
	req := httptest.NewRequest(http.MethodPost, "/process-document", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	envelope := decodeEnvelope(t, w)
	errObj := envelope["error"].(map[string]interface{})
	assert.Equal(t, "SCHEMA_INVALID", errObj["code"])
	svc.AssertNotCalled(t, "ProcessDocument", mock.Anything, mock.Anything)
}

func TestDocumentHandler_InferenceUnconfiguredClient(t *testing.T) {
	svc := new(mocks.MockExtractionService)
	svc.On("InferenceDocument", mock.Anything, mock.Anything).
		Return(nil, domain.ErrUnconfiguredClient)

	body, contentType := multipartUpload(t, "new.pdf", "%PDF-1.4", `{"Total":""}`)
	req := httptest.NewRequest(http.MethodPost, "/inference-document", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	envelope := decodeEnvelope(t, w)
	errObj := envelope["error"].(map[string]interface{})
	assert.Equal(t, "UNCONFIGURED_CLIENT", errObj["code"])
}

func TestDocumentHandler_TryPrompt(t *testing.T) {
	svc := new(mocks.MockExtractionService)
	svc.On("TryPrompt", mock.Anything, "| doc |", "pull totals", map[string]string{"Total": ""}).
		Return(&service.TryPromptResult{GeneratedJSON: map[string]interface{}{"Total": "5"}}, nil)

	payload := `{"document":"| doc |","prompt":"pull totals","schema":{"Total":""}}`
	req := httptest.NewRequest(http.MethodPost, "/try-prompt", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestDocumentHandler_SavePrompt(t *testing.T) {
	svc := new(mocks.MockExtractionService)
	svc.On("SavePrompt", mock.Anything, int64(9), "new instruction").Return(3, nil)

	payload := `{"document_id":9,"prompt":"new instruction"}`
	req := httptest.NewRequest(http.MethodPost, "/save-prompt", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["updated"])
}

func TestDocumentHandler_ListNormalizesEmptyToNull(t *testing.T) {
	svc := new(mocks.MockExtractionService)
	svc.On("ListDocuments", mock.Anything).Return([]domain.Document{
		{ID: 1, Filename: "a.pdf", ClientName: "", Language: "", Layout: domain.Layout{}},
		{ID: 2, Filename: "b.pdf", ClientName: "   ", Language: "\t", FileType: " \n ", Layout: domain.Layout{}},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	w := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	rows := envelope["data"].([]interface{})

	row := rows[0].(map[string]interface{})
	assert.Equal(t, "a.pdf", row["filename"])
	assert.Nil(t, row["client_name"])
	assert.Nil(t, row["language"])

	// Whitespace-only fields are reported as absent too.
	row = rows[1].(map[string]interface{})
	assert.Equal(t, "b.pdf", row["filename"])
	assert.Nil(t, row["client_name"])
	assert.Nil(t, row["language"])
	assert.Nil(t, row["file_type"])
}

func TestDocumentHandler_UpdateVersionZero(t *testing.T) {
	svc := new(mocks.MockExtractionService)
	svc.On("UpdateVersion", mock.Anything, int64(5), 0, "x").
		Return(nil, domain.ErrInvalidVersion)

	req := httptest.NewRequest(http.MethodPut, "/document/5/version/0", strings.NewReader(`{"prompt":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	envelope := decodeEnvelope(t, w)
	errObj := envelope["error"].(map[string]interface{})
	assert.Equal(t, "INVALID_VERSION", errObj["code"])
}

func TestDocumentHandler_UpdateVersionBadID(t *testing.T) {
	svc := new(mocks.MockExtractionService)

	req := httptest.NewRequest(http.MethodPut, "/document/abc/version/1", strings.NewReader(`{"prompt":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "UpdateVersion", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDocumentHandler_GetVersionsNotFound(t *testing.T) {
	svc := new(mocks.MockExtractionService)
	svc.On("GetVersions", mock.Anything, int64(404)).Return(nil, domain.ErrDocumentNotFound)

	req := httptest.NewRequest(http.MethodGet, "/document/404/versions", nil)
	w := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDocumentHandler_DeleteAll(t *testing.T) {
	svc := new(mocks.MockExtractionService)
	svc.On("DeleteAll", mock.Anything).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/delete-all-documents", nil)
	w := httptest.NewRecorder()
	setupRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}
