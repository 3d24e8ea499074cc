package recordings

import (
	"context"
	"path"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vocalshare/backend/internal/uploads"
	"github.com/vocalshare/backend/pkg/response"
	"github.com/vocalshare/backend/pkg/storage"
)

// ObjectStore is the storage capability surface the catalog needs.
// Satisfied by *storage.S3.
type ObjectStore interface {
	List(ctx context.Context, prefix string) ([]storage.Object, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// Recording is one published recording as returned by the list endpoint.
type Recording struct {
	Filename     string    `json:"filename"`
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
	URL          string    `json:"url"`
}

// Handler exposes the published-recordings catalog: list and delete.
type Handler struct {
	store  ObjectStore
	logger *zap.Logger
}

// NewHandler creates a recordings handler.
func NewHandler(store ObjectStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// List handles GET /api/recordings. Returns shared/ objects most recent first.
func (h *Handler) List(c *gin.Context) {
	objects, err := h.store.List(c.Request.Context(), storage.FolderShared+"/")
	if err != nil {
		h.logger.Error("list recordings failed", zap.Error(err))
		response.Internal(c, "Failed to list recordings")
		return
	}

	recordings := make([]Recording, 0, len(objects))
	for _, obj := range objects {
		recordings = append(recordings, Recording{
			Filename:     path.Base(obj.Key),
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
			URL:          h.store.PublicURL(obj.Key),
		})
	}
	response.OK(c, gin.H{"recordings": recordings})
}

// Delete handles DELETE /api/recordings/:filename. Removes a single shared object.
func (h *Handler) Delete(c *gin.Context) {
	filename := c.Param("filename")
	if filename == "" {
		response.BadRequest(c, "Filename is required")
		return
	}

	key := storage.SharedKey(uploads.SanitizeFilename(filename))
	if err := h.store.Delete(c.Request.Context(), key); err != nil {
		h.logger.Error("delete recording failed", zap.Error(err), zap.String("key", key))
		response.Internal(c, "Failed to delete recording")
		return
	}

	response.OK(c, gin.H{
		"success": true,
		"message": "Recording deleted successfully",
	})
}
