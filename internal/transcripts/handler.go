package transcripts

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vocalshare/backend/pkg/response"
)

// TranscribeRequest is the body for POST /api/transcribe.
type TranscribeRequest struct {
	FileURL string `json:"fileUrl"`
}

// Handler exposes the transcribe-and-title operation over HTTP.
type Handler struct {
	service *Service // nil when no speech-to-text credential is configured
	logger  *zap.Logger
}

// NewHandler creates a transcription handler. Pass a nil service when the
// speech-to-text credential is missing; requests then fail with a
// configuration error while the rest of the API keeps serving.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

// Transcribe handles POST /api/transcribe.
func (h *Handler) Transcribe(c *gin.Context) {
	var req TranscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.FileURL == "" {
		response.BadRequest(c, "File URL is required")
		return
	}
	if h.service == nil {
		response.Internal(c, "OpenAI API key not configured. Please set OPENAI_API_KEY environment variable.")
		return
	}

	result, err := h.service.TranscribeAndTitle(c.Request.Context(), req.FileURL)
	if err != nil {
		h.logger.Error("transcription failed", zap.Error(err), zap.String("file_url", req.FileURL))
		if errors.Is(err, ErrDownload) {
			response.Internal(c, "Failed to download audio file")
			return
		}
		response.Internal(c, "Failed to transcribe audio")
		return
	}

	var title interface{}
	if result.Title != "" {
		title = result.Title
	}
	response.OK(c, gin.H{
		"success":       true,
		"transcription": result.Text,
		"language":      result.Language,
		"title":         title,
		"filename":      result.Filename,
		"shareableUrl":  result.ShareableURL,
	})
}
