package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/vocalshare/backend/internal/enhance"
	"github.com/vocalshare/backend/pkg/queue"
	"github.com/vocalshare/backend/pkg/storage"
)

// EnhanceProcessor processes audio enhancement jobs: download the published
// object, run ffmpeg over it and upload the result. The originating publish
// request never observes the outcome; success and failure are only logged.
type EnhanceProcessor struct {
	store    *storage.S3
	queue    *queue.Queue
	enhancer *enhance.Enhancer
	logger   *zap.Logger
}

// NewEnhanceProcessor creates an audio enhancement processor.
func NewEnhanceProcessor(store *storage.S3, q *queue.Queue, enhancer *enhance.Enhancer, logger *zap.Logger) *EnhanceProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnhanceProcessor{store: store, queue: q, enhancer: enhancer, logger: logger}
}

// Process executes one audio enhancement job.
func (p *EnhanceProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeAudioEnhance {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.AudioEnhancePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	body, contentType, err := p.store.Download(ctx, payload.Key)
	if err != nil {
		return fmt.Errorf("download %s: %w", payload.Key, err)
	}
	defer body.Close()
	if payload.ContentType != "" {
		contentType = payload.ContentType
	}

	ext := path.Ext(payload.Key)
	input, err := os.CreateTemp("", "enhance-in-*"+ext)
	if err != nil {
		return fmt.Errorf("create temp input: %w", err)
	}
	defer os.Remove(input.Name())
	if _, err := io.Copy(input, body); err != nil {
		input.Close()
		return fmt.Errorf("write temp input: %w", err)
	}
	if err := input.Close(); err != nil {
		return fmt.Errorf("close temp input: %w", err)
	}

	outputPath := input.Name() + "-out" + ext
	defer os.Remove(outputPath)
	if err := p.enhancer.Process(ctx, input.Name(), outputPath); err != nil {
		return err
	}

	output, err := os.Open(outputPath)
	if err != nil {
		return fmt.Errorf("open enhanced output: %w", err)
	}
	defer output.Close()
	info, err := output.Stat()
	if err != nil {
		return fmt.Errorf("stat enhanced output: %w", err)
	}

	destKey := enhance.OutputKey(payload.Key, payload.OutputSuffix, payload.Overwrite)
	if _, err := p.store.Upload(ctx, destKey, contentType, output, info.Size()); err != nil {
		return fmt.Errorf("upload enhanced audio: %w", err)
	}

	p.logger.Info("audio enhancement completed",
		zap.String("job_id", job.ID),
		zap.String("source_key", payload.Key),
		zap.String("dest_key", destKey),
		zap.Int64("size", info.Size()))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *EnhanceProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("enhancement worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Info("enhancement worker stopping")
				return
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
