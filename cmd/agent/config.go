package main

import (
	"os"
	"strconv"
	"time"
)

// Config holds all environment-based configuration for the capture agent.
type Config struct {
	DataDir            string
	QueueDBPath         string
	ExclusionsPath      string
	UploadEndpoint      string
	JPEGQuality         int
	CaptureMinInterval  time.Duration
	IdleThreshold       time.Duration
	DrainInterval       time.Duration
}

func loadConfig() Config {
	dataDir := envOr("JARVIS_DATA_DIR", "/var/lib/jarvis-agent")
	return Config{
		DataDir:            dataDir,
		QueueDBPath:         envOr("JARVIS_QUEUE_DB", dataDir+"/queue.db"),
		ExclusionsPath:      envOr("JARVIS_EXCLUSIONS_FILE", dataDir+"/exclusions.yaml"),
		UploadEndpoint:      envOr("JARVIS_UPLOAD_ENDPOINT", "http://localhost:8080/api/v1/captures"),
		JPEGQuality:         envIntOr("JARVIS_JPEG_QUALITY", 85),
		CaptureMinInterval:  envDurationOr("JARVIS_CAPTURE_MIN_INTERVAL", 5*time.Minute),
		IdleThreshold:       envDurationOr("JARVIS_IDLE_THRESHOLD", 3*time.Minute),
		DrainInterval:       envDurationOr("JARVIS_DRAIN_INTERVAL", 30*time.Second),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
