package uploads

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vocalshare/backend/pkg/queue"
	"github.com/vocalshare/backend/pkg/response"
	"github.com/vocalshare/backend/pkg/storage"
)

// ObjectStore is the storage capability surface the upload pipeline needs.
// Satisfied by *storage.S3.
type ObjectStore interface {
	PresignUpload(ctx context.Context, key, contentType string, expires time.Duration) (string, error)
	Copy(ctx context.Context, srcKey, dstKey string) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
	PresignExpire() time.Duration
}

// Enqueuer hands audio enhancement jobs to the background worker.
type Enqueuer interface {
	EnqueueAudioEnhance(ctx context.Context, payload queue.AudioEnhancePayload) error
}

// GetUploadURLRequest is the body for POST /api/get-upload-url.
type GetUploadURLRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

// MoveToSharedRequest is the body for POST /api/move-to-shared.
type MoveToSharedRequest struct {
	Filename string `json:"filename"`
}

// Handler coordinates the publish handshake: issue a scoped write grant for
// uploads/, then relocate the finished object to shared/.
type Handler struct {
	store         ObjectStore
	enhanceQueue  Enqueuer // nil when enhancement is disabled
	enhanceSuffix string
	enhanceOver   bool
	logger        *zap.Logger
}

// NewHandler creates an uploads handler.
func NewHandler(store ObjectStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// SetEnhancement enables fire-and-forget audio enhancement after publish.
func (h *Handler) SetEnhancement(q Enqueuer, outputSuffix string, overwrite bool) {
	h.enhanceQueue = q
	h.enhanceSuffix = outputSuffix
	h.enhanceOver = overwrite
}

// GetUploadURL handles POST /api/get-upload-url. Issues a short-lived
// presigned PUT grant scoped to uploads/<sanitized filename>.
func (h *Handler) GetUploadURL(c *gin.Context) {
	var req GetUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Filename == "" {
		response.BadRequest(c, "Filename is required")
		return
	}
	if !IsValidAudioFile(req.Filename) {
		response.BadRequest(c, "Invalid file type. Only audio files are allowed.")
		return
	}

	sanitized := SanitizeFilename(req.Filename)
	key := storage.UploadKey(sanitized)
	contentType := req.ContentType
	if contentType == "" {
		contentType = "audio/webm"
	}

	uploadURL, err := h.store.PresignUpload(c.Request.Context(), key, contentType, h.store.PresignExpire())
	if err != nil {
		h.logger.Error("generate upload URL failed", zap.Error(err), zap.String("key", key))
		response.Internal(c, "Failed to generate upload URL")
		return
	}

	response.OK(c, gin.H{
		"uploadUrl": uploadURL,
		"key":       key,
		"filename":  sanitized,
	})
}

// MoveToShared handles POST /api/move-to-shared. Publishes a completed
// upload by copying uploads/<name> to shared/<name> and deleting the source.
// Copy-then-delete is not atomic: a crash between the two steps leaves the
// object under both keys, never under neither.
func (h *Handler) MoveToShared(c *gin.Context) {
	var req MoveToSharedRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Filename == "" {
		response.BadRequest(c, "Filename is required")
		return
	}

	sanitized := SanitizeFilename(req.Filename)
	sourceKey := storage.UploadKey(sanitized)
	destinationKey := storage.SharedKey(sanitized)

	ctx := c.Request.Context()
	if err := h.store.Copy(ctx, sourceKey, destinationKey); err != nil {
		h.logger.Error("publish copy failed", zap.Error(err), zap.String("source", sourceKey), zap.String("destination", destinationKey))
		response.Internal(c, "Failed to move file to shared folder")
		return
	}
	if err := h.store.Delete(ctx, sourceKey); err != nil {
		h.logger.Error("publish delete failed", zap.Error(err), zap.String("source", sourceKey))
		response.Internal(c, "Failed to move file to shared folder")
		return
	}

	response.OK(c, gin.H{
		"success":      true,
		"shareableUrl": h.store.PublicURL(destinationKey),
		"filename":     sanitized,
	})

	// Fire-and-forget: the publish response never waits on enhancement and
	// never fails because of it.
	if h.enhanceQueue != nil {
		payload := queue.AudioEnhancePayload{
			Key:          destinationKey,
			OutputSuffix: h.enhanceSuffix,
			Overwrite:    h.enhanceOver,
		}
		if err := h.enhanceQueue.EnqueueAudioEnhance(context.WithoutCancel(ctx), payload); err != nil {
			h.logger.Warn("enqueue audio enhancement failed", zap.Error(err), zap.String("key", destinationKey))
		}
	}
}
