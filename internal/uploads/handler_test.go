package uploads_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocalshare/backend/internal/uploads"
	"github.com/vocalshare/backend/pkg/queue"
)

type fakeStore struct {
	objects     map[string]bool
	presigned   []string
	presignErr  error
	copyErr     error
	deleteErr   error
	copyCalls   [][2]string
	deleteCalls []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]bool{}}
}

func (f *fakeStore) PresignUpload(ctx context.Context, key, contentType string, expires time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	f.presigned = append(f.presigned, key)
	return "https://example-bucket.s3.us-east-1.amazonaws.com/" + key + "?signature=abc", nil
}

func (f *fakeStore) Copy(ctx context.Context, srcKey, dstKey string) error {
	if f.copyErr != nil {
		return f.copyErr
	}
	f.copyCalls = append(f.copyCalls, [2]string{srcKey, dstKey})
	f.objects[dstKey] = true
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleteCalls = append(f.deleteCalls, key)
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) PublicURL(key string) string {
	return "https://example-bucket.s3.us-east-1.amazonaws.com/" + key
}

func (f *fakeStore) PresignExpire() time.Duration { return 15 * time.Minute }

type fakeEnqueuer struct {
	payloads []queue.AudioEnhancePayload
}

func (f *fakeEnqueuer) EnqueueAudioEnhance(ctx context.Context, payload queue.AudioEnhancePayload) error {
	f.payloads = append(f.payloads, payload)
	return nil
}

func newRouter(h *uploads.Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/get-upload-url", h.GetUploadURL)
	r.POST("/api/move-to-shared", h.MoveToShared)
	return r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetUploadURL(t *testing.T) {
	store := newFakeStore()
	router := newRouter(uploads.NewHandler(store, nil))

	w := postJSON(router, "/api/get-upload-url", `{"filename":"recording_2024-01-01_12-00-00.webm","contentType":"audio/webm"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		UploadURL string `json:"uploadUrl"`
		Key       string `json:"key"`
		Filename  string `json:"filename"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "uploads/recording_2024-01-01_12-00-00.webm", resp.Key)
	assert.Equal(t, "recording_2024-01-01_12-00-00.webm", resp.Filename)
	assert.Contains(t, resp.UploadURL, resp.Key)
}

func TestGetUploadURLMissingFilename(t *testing.T) {
	router := newRouter(uploads.NewHandler(newFakeStore(), nil))

	for _, body := range []string{`{}`, `{"filename":""}`, `not json`} {
		w := postJSON(router, "/api/get-upload-url", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
		assert.Contains(t, w.Body.String(), "Filename is required")
	}
}

func TestGetUploadURLRejectsNonAudio(t *testing.T) {
	store := newFakeStore()
	router := newRouter(uploads.NewHandler(store, nil))

	w := postJSON(router, "/api/get-upload-url", `{"filename":"notes.pdf"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid file type")
	assert.Empty(t, store.presigned, "no grant may be issued for rejected filenames")
}

func TestGetUploadURLPathTraversal(t *testing.T) {
	store := newFakeStore()
	router := newRouter(uploads.NewHandler(store, nil))

	w := postJSON(router, "/api/get-upload-url", `{"filename":"../../etc/passwd.webm"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Key      string `json:"key"`
		Filename string `json:"filename"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ".._.._etc_passwd.webm", resp.Filename)
	assert.Equal(t, "uploads/.._.._etc_passwd.webm", resp.Key)
	require.Len(t, store.presigned, 1)
	assert.Equal(t, "uploads/.._.._etc_passwd.webm", store.presigned[0], "grant must be scoped to the sanitized key")
}

func TestGetUploadURLPresignFailure(t *testing.T) {
	store := newFakeStore()
	store.presignErr = fmt.Errorf("credentials expired")
	router := newRouter(uploads.NewHandler(store, nil))

	w := postJSON(router, "/api/get-upload-url", `{"filename":"a.mp3"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to generate upload URL")
}

func TestMoveToShared(t *testing.T) {
	store := newFakeStore()
	router := newRouter(uploads.NewHandler(store, nil))

	w := postJSON(router, "/api/move-to-shared", `{"filename":"memo.webm"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success      bool   `json:"success"`
		ShareableURL string `json:"shareableUrl"`
		Filename     string `json:"filename"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "memo.webm", resp.Filename)
	assert.True(t, strings.HasSuffix(resp.ShareableURL, "/shared/memo.webm"))

	require.Len(t, store.copyCalls, 1)
	assert.Equal(t, [2]string{"uploads/memo.webm", "shared/memo.webm"}, store.copyCalls[0])
	require.Len(t, store.deleteCalls, 1)
	assert.Equal(t, "uploads/memo.webm", store.deleteCalls[0])
}

func TestMoveToSharedCopyFailure(t *testing.T) {
	store := newFakeStore()
	store.copyErr = fmt.Errorf("no such key")
	router := newRouter(uploads.NewHandler(store, nil))

	w := postJSON(router, "/api/move-to-shared", `{"filename":"memo.webm"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to move file to shared folder")
	assert.Empty(t, store.deleteCalls, "delete must not run when copy failed")
}

func TestMoveToSharedEnqueuesEnhancement(t *testing.T) {
	store := newFakeStore()
	enq := &fakeEnqueuer{}
	h := uploads.NewHandler(store, nil)
	h.SetEnhancement(enq, "-enhanced", false)
	router := newRouter(h)

	w := postJSON(router, "/api/move-to-shared", `{"filename":"memo.webm"}`)
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, enq.payloads, 1)
	assert.Equal(t, "shared/memo.webm", enq.payloads[0].Key)
	assert.Equal(t, "-enhanced", enq.payloads[0].OutputSuffix)
	assert.False(t, enq.payloads[0].Overwrite)
}
