package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/jarvis-ai/jarvis/engine/capture"
	"github.com/jarvis-ai/jarvis/engine/queue"
)

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(filepath.Join(cfg.DataDir, "captures"), 0o755); err != nil {
		return fmt.Errorf("create capture dir: %w", err)
	}

	q, err := queue.Open(cfg.QueueDBPath)
	if err != nil {
		return fmt.Errorf("open upload queue: %w", err)
	}
	defer q.Close()

	capturer := capture.NewGrimCapturer(cfg.JPEGQuality)
	if !capturer.Available() {
		logger.Warn("grim not found on PATH; captures will fail until it is installed")
	}

	windowProbe := capture.NewSwayWindowProbe()
	idleProbe := capture.NewXPrintIdleProbe(cfg.IdleThreshold)
	detector := capture.NewChangeDetector(cfg.CaptureMinInterval)
	exclusion := capture.NewExclusionFilter(cfg.ExclusionsPath, logger)

	stopWatch := make(chan struct{})
	defer close(stopWatch)
	if err := exclusion.Watch(stopWatch); err != nil {
		logger.Warn("exclusions file watch failed; edits require a restart", "err", err)
	}

	loop := capture.NewLoop(capturer, detector, exclusion, idleProbe, windowProbe, logger)
	loop.OnCapture(func(res capture.Result) {
		if err := enqueueCapture(q, cfg.DataDir, res); err != nil {
			logger.Error("enqueue capture failed", "err", err)
		}
	})
	loop.OnSkip(func(reason string) {
		logger.Debug("capture skipped", "reason", reason)
	})

	uploader := queue.NewUploader(q, cfg.UploadEndpoint, logger)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := loop.Run(ctx); err != nil {
			logger.Error("capture loop exited", "err", err)
		}
	}()

	go func() {
		defer wg.Done()
		runDrainTicker(ctx, uploader, cfg.DrainInterval, logger)
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")
	wg.Wait()
	return nil
}

func runDrainTicker(ctx context.Context, uploader *queue.Uploader, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := uploader.Drain(ctx); err != nil {
				logger.Error("queue drain failed", "err", err)
			}
		}
	}
}

type captureMetadata struct {
	MonitorIndex int       `json:"monitor_index"`
	Timestamp    time.Time `json:"timestamp"`
	Reason       string    `json:"reason"`
}

func enqueueCapture(q *queue.Queue, dataDir string, res capture.Result) error {
	fileName := fmt.Sprintf("%s-monitor%d.jpg", res.Timestamp.UTC().Format("20060102T150405.000000000Z"), res.MonitorIndex)
	filePath := filepath.Join(dataDir, "captures", fileName)

	if err := os.WriteFile(filePath, res.Bytes, 0o644); err != nil {
		return fmt.Errorf("write capture file: %w", err)
	}

	metadata, err := json.Marshal(captureMetadata{
		MonitorIndex: res.MonitorIndex,
		Timestamp:    res.Timestamp,
		Reason:       res.Reason,
	})
	if err != nil {
		return fmt.Errorf("marshal capture metadata: %w", err)
	}

	if _, err := q.Enqueue(filePath, string(metadata)); err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}
	return nil
}
