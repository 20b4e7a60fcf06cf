package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suiscode/ai-resume/internal/shared/storage/object"
)

var longText = strings.Repeat("Senior engineer with measurable impact. ", 10)

func okParser([]byte) (string, int, error) { return longText, 1, nil }

type recordingStore struct {
	puts []object.Object
	err  error
}

func (s *recordingStore) Put(ctx context.Context, obj object.Object) (object.Stored, error) {
	s.puts = append(s.puts, obj)
	if s.err != nil {
		return object.Stored{}, s.err
	}
	return object.Stored{Key: "k", SizeBytes: 1}, nil
}

func (s *recordingStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

func newRouter(parse Parser, archive object.ObjectStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(&Extractor{Parse: parse}, archive).RegisterRoutes(r.Group("/api"))
	return r
}

func multipartBody(t *testing.T, field, fileName, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+fileName+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func send(r http.Handler, body io.Reader, contentType string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/extract", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)
	return w
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Error.Message
}

func TestExtractHandlerSuccessArchives(t *testing.T) {
	store := &recordingStore{}
	body, ct := multipartBody(t, "file", "cv.pdf", "application/pdf", []byte("%PDF-1.4"))
	w := send(newRouter(okParser, store), body, ct)
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		NormalizedResumeText string `json:"normalizedResumeText"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, strings.TrimSpace(longText), got.NormalizedResumeText)
	require.Len(t, store.puts, 1)
	assert.Equal(t, "anonymous", store.puts[0].Owner)
	assert.Equal(t, "cv.pdf", store.puts[0].FileName)
}

func TestExtractHandlerArchiveFailureIsIgnored(t *testing.T) {
	body, ct := multipartBody(t, "file", "cv.pdf", "application/pdf", []byte("%PDF-1.4"))
	w := send(newRouter(okParser, &recordingStore{err: errors.New("disk full")}), body, ct)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExtractHandlerRemovesSpilledParts(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	pdf := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("0"), 3<<20)...)
	body, ct := multipartBody(t, "file", "big.pdf", "application/pdf", pdf)
	w := send(newRouter(okParser, nil), body, ct)
	require.Equal(t, http.StatusOK, w.Code)

	left, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestExtractHandlerRejections(t *testing.T) {
	router := newRouter(okParser, nil)

	w := send(router, strings.NewReader("not multipart"), "text/plain")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, msgInvalidForm, errorMessage(t, w))

	body, ct := multipartBody(t, "other", "cv.pdf", "application/pdf", []byte("%PDF"))
	w = send(router, body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, msgNoFile, errorMessage(t, w))

	body, ct = multipartBody(t, "file", "cv.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", []byte("PK"))
	w = send(router, body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, msgNotPDF, errorMessage(t, w))

	body, ct = multipartBody(t, "file", "big.pdf", "application/pdf", bytes.Repeat([]byte("a"), MaxFileBytes+1))
	w = send(router, body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, msgTooLarge, errorMessage(t, w))
}

func TestExtractHandlerParserOutcomes(t *testing.T) {
	body, ct := multipartBody(t, "file", "cv.pdf", "application/pdf", []byte("%PDF"))
	w := send(newRouter(func([]byte) (string, int, error) { return "", 0, errors.New("bad xref") }, nil), body, ct)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, msgUnreadable, errorMessage(t, w))

	body, ct = multipartBody(t, "file", "cv.pdf", "application/pdf", []byte("%PDF"))
	w = send(newRouter(func([]byte) (string, int, error) { return "tiny", 1, nil }, nil), body, ct)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, msgTooLittle, errorMessage(t, w))
}
