package transcripts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vocalshare/backend/pkg/storage"
)

// ErrDownload marks a failure to fetch the recording from its public URL.
// It is terminal for the whole transcription operation.
var ErrDownload = errors.New("failed to download audio file")

// Store is the storage capability surface the titling rename needs.
// Satisfied by *storage.S3.
type Store interface {
	Exists(ctx context.Context, key string) (bool, error)
	Copy(ctx context.Context, srcKey, dstKey string) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// SpeechClient provides the speech-to-text and text-generation capabilities.
// Satisfied by *openai.Client.
type SpeechClient interface {
	Transcribe(ctx context.Context, filename string, audio []byte, language string) (string, error)
	GenerateTitle(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error)
}

// ServiceConfig controls transcription language and title generation.
type ServiceConfig struct {
	Language         string
	TitlesEnabled    bool
	TitlePrompt      string
	TitleTemperature float64
	TitleMaxTokens   int
}

// Result is the outcome of one transcribe-and-title operation. Filename and
// ShareableURL reflect the rename when one happened, the original otherwise.
type Result struct {
	Text         string
	Language     string
	Title        string
	Filename     string
	ShareableURL string
}

// Service transcribes published recordings and renames them after a
// generated title.
type Service struct {
	store  Store
	ai     SpeechClient
	httpc  *http.Client
	cfg    ServiceConfig
	logger *zap.Logger
}

// NewService creates a transcription service.
func NewService(store Store, ai SpeechClient, cfg ServiceConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		ai:     ai,
		httpc:  &http.Client{Timeout: 2 * time.Minute},
		cfg:    cfg,
		logger: logger,
	}
}

// SetHTTPClient overrides the client used to fetch public recording URLs.
func (s *Service) SetHTTPClient(c *http.Client) { s.httpc = c }

// TranscribeAndTitle fetches the object behind fileURL, transcribes it and,
// when titling is enabled and a usable title comes back, renames the shared
// object to a collision-free slug of that title. Titling and rename failures
// degrade to "transcript only": the returned error is non-nil only when the
// fetch or the transcription itself fails.
func (s *Service) TranscribeAndTitle(ctx context.Context, fileURL string) (*Result, error) {
	parsed, err := url.Parse(fileURL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("%w: invalid url", ErrDownload)
	}

	audio, err := s.fetch(ctx, fileURL)
	if err != nil {
		return nil, err
	}

	filename := path.Base(parsed.Path)
	text, err := s.ai.Transcribe(ctx, filename, audio, s.cfg.Language)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}

	result := &Result{
		Text:         text,
		Language:     s.cfg.Language,
		Filename:     filename,
		ShareableURL: fileURL,
	}

	if !s.cfg.TitlesEnabled || text == "" {
		return result, nil
	}

	title, err := s.generateTitle(ctx, text)
	if err != nil {
		s.logger.Warn("title generation failed", zap.Error(err), zap.String("file", filename))
		return result, nil
	}
	if title == "" {
		return result, nil
	}
	result.Title = title

	currentKey := strings.TrimPrefix(parsed.Path, "/")
	if !strings.HasPrefix(currentKey, storage.FolderShared+"/") {
		return result, nil
	}
	s.renameToTitle(ctx, result, title, currentKey)
	return result, nil
}

func (s *Service) fetch(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownload, err)
	}
	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownload, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrDownload, resp.StatusCode)
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownload, err)
	}
	return audio, nil
}

func (s *Service) generateTitle(ctx context.Context, transcript string) (string, error) {
	prompt := s.cfg.TitlePrompt + "\n\nTranscript:\n" + transcript
	raw, err := s.ai.GenerateTitle(ctx, prompt, s.cfg.TitleTemperature, s.cfg.TitleMaxTokens)
	if err != nil {
		return "", err
	}
	return CleanGeneratedTitle(raw), nil
}

// renameToTitle performs the best-effort copy-then-delete rename. Failures
// are logged and the result keeps the original key; a failed delete after a
// successful copy leaves the object duplicated rather than lost.
func (s *Service) renameToTitle(ctx context.Context, result *Result, title, currentKey string) {
	extension := path.Ext(currentKey)
	if extension == "" {
		extension = ".webm"
	}

	newFilename, err := GenerateFilenameFromTitle(ctx, s.store, title, extension, currentKey)
	if err != nil {
		s.logger.Warn("collision check failed", zap.Error(err), zap.String("key", currentKey))
		return
	}
	newKey := storage.SharedKey(newFilename)
	if newKey == currentKey {
		return
	}

	if err := s.store.Copy(ctx, currentKey, newKey); err != nil {
		s.logger.Warn("rename copy failed", zap.Error(err), zap.String("from", currentKey), zap.String("to", newKey))
		return
	}
	if err := s.store.Delete(ctx, currentKey); err != nil {
		s.logger.Warn("rename delete failed, source object retained", zap.Error(err), zap.String("key", currentKey))
	}

	result.Filename = newFilename
	result.ShareableURL = s.store.PublicURL(newKey)
}
