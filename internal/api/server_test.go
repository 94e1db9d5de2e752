package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docudive/internal/config"
	"docudive/internal/logging"
	"docudive/internal/models"
	"docudive/internal/rag"
	"docudive/internal/service"
	"docudive/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	files    []models.StoredFile
	uploaded []string
	answer   rag.Answer
	queryErr error
	status   service.StoreStatus
	peekArg  int
}

func (f *fakeBackend) ListFiles(context.Context) ([]models.StoredFile, error) { return f.files, nil }

func (f *fakeBackend) UploadFile(_ context.Context, name string, r io.Reader) (service.UploadResult, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return service.UploadResult{}, err
	}
	f.uploaded = append(f.uploaded, name)
	return service.UploadResult{Key: name, Size: int64(len(b))}, nil
}

func (f *fakeBackend) Query(context.Context, string) (rag.Answer, error) {
	return f.answer, f.queryErr
}

func (f *fakeBackend) Inspect(_ context.Context, n int) (service.StoreStatus, error) {
	f.peekArg = n
	return f.status, nil
}

type fakeJobs struct {
	opts      service.IngestOptions
	ingestErr error
}

func (f *fakeJobs) Ingest(_ context.Context, opts service.IngestOptions) (service.IngestResult, error) {
	f.opts = opts
	if f.ingestErr != nil {
		return service.IngestResult{}, f.ingestErr
	}
	return service.IngestResult{Synced: 1}, nil
}

func (f *fakeJobs) Clear(context.Context) (service.ClearResult, error) {
	return service.ClearResult{Entries: 4, Objects: 2}, nil
}

func newTestServer(b *fakeBackend, j *fakeJobs) http.Handler {
	cfg := config.Defaults()
	return NewServer(cfg, b, j, logging.Discard()).Routes()
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestHealthzAndCORS(t *testing.T) {
	h := newTestServer(&fakeBackend{}, &fakeJobs{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/query", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestQueryReturnsResponseAndSources(t *testing.T) {
	b := &fakeBackend{answer: rag.Answer{
		Response: "It is 42.\n\nSources: ['x:0:0']",
		Text:     "It is 42.",
		Sources:  []string{"x:0:0"},
		Results:  []models.QueryResult{{Chunk: models.Chunk{ID: "x:0:0", SourcePath: "x", Text: "The answer is 42."}, Score: 0.25}},
	}}
	h := newTestServer(b, &fakeJobs{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"query":"what is the answer?"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Response string        `json:"response"`
		Answer   string        `json:"answer"`
		Sources  []string      `json:"sources"`
		Results  []queryResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "It is 42.\n\nSources: ['x:0:0']", body.Response)
	assert.Equal(t, []string{"x:0:0"}, body.Sources)
	require.Len(t, body.Results, 1)
	assert.Equal(t, 0.25, body.Results[0].Score)
	assert.NotEmpty(t, body.Results[0].Snippet)
}

func TestQueryValidation(t *testing.T) {
	h := newTestServer(&fakeBackend{}, &fakeJobs{})
	for _, body := range []string{`{"query":"  "}`, `not json`} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "DD-API-4001", decodeError(t, rec))
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/query", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestErrorKindsMapToStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{util.WrapOp("embed query", util.ErrEmbeddingUnavailable, errors.New("refused")), http.StatusBadGateway, "DD-PRV-5021"},
		{util.WrapOp("generate", util.ErrGeneration, errors.New("503")), http.StatusBadGateway, "DD-PRV-5022"},
		{util.WrapOp("embed query", util.ErrInvalidInput, errors.New("too long")), http.StatusBadRequest, "DD-API-4001"},
		{util.WrapOp("insert", util.ErrStoreWrite, errors.New("disk full")), http.StatusInternalServerError, "DD-STO-5001"},
		{util.WrapOp("template", util.ErrConfiguration, errors.New("bad")), http.StatusInternalServerError, "DD-CFG-5001"},
		{errors.New("boom"), http.StatusInternalServerError, "DD-API-5000"},
	}
	for _, tc := range cases {
		h := newTestServer(&fakeBackend{queryErr: tc.err}, &fakeJobs{})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"query":"q"}`)))
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		assert.Equal(t, tc.code, decodeError(t, rec), tc.err.Error())
	}
}

func TestIngestPassesFlagsAndReportsConflict(t *testing.T) {
	jobs := &fakeJobs{}
	h := newTestServer(&fakeBackend{}, jobs)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ingest?reset=true&sync=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.IngestOptions{Reset: true, Sync: true}, jobs.opts)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ingest?reset=maybe", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	jobs.ingestErr = util.ErrIngestRunning
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ingest", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "DD-API-4009", decodeError(t, rec))
}

func TestClear(t *testing.T) {
	h := newTestServer(&fakeBackend{}, &fakeJobs{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/clear", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var res service.ClearResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, service.ClearResult{Entries: 4, Objects: 2}, res)
}

func TestUploadAcceptsOnlyPDFs(t *testing.T) {
	b := &fakeBackend{}
	h := newTestServer(b, &fakeJobs{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range []string{"rules.pdf", "notes.txt"} {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("%PDF-1.4"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"rules.pdf"}, b.uploaded)
	assert.Contains(t, rec.Body.String(), "notes.txt")
}

func TestUploadRejectsWhenNoPDF(t *testing.T) {
	h := newTestServer(&fakeBackend{}, &fakeJobs{})
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("x"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListFilesEmptyIsArray(t *testing.T) {
	h := newTestServer(&fakeBackend{}, &fakeJobs{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"files":[]}`, rec.Body.String())
}

func TestStorePeekIsCapped(t *testing.T) {
	b := &fakeBackend{status: service.StoreStatus{Backend: "memory", Count: 0, Entries: []models.StoreEntry{}}}
	h := newTestServer(b, &fakeJobs{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/store?peek=5000", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, maxPeek, b.peekArg)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/store?peek=-1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
