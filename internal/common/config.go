package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Raster RasterConfig
	Output OutputConfig
	Batch  BatchConfig
	Log    LogConfig
}

// RasterConfig holds rasterization-related configuration
type RasterConfig struct {
	Backend        string // "fitz" | "pdftoppm"
	DPI            int
	Pdftoppm       string
	Pdfinfo        string
	ScratchDir     string // "" -> os.TempDir()
	CommandTimeout time.Duration
}

// OutputConfig holds encoding and resize defaults
type OutputConfig struct {
	Encoding        string
	JPEGQuality     int
	ThumbnailWidth  int
	ThumbnailHeight int
	Interpolation   string
}

// BatchConfig holds directory conversion and watch settings
type BatchConfig struct {
	TaskTimeout   time.Duration
	WatchDebounce time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug | info | warn | error
	Format string // json | text
}

// Backend names accepted by RASTER_BACKEND.
const (
	BackendFitz     = "fitz"
	BackendPdftoppm = "pdftoppm"
)

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Raster: RasterConfig{
			Backend:        strings.ToLower(getEnv("RASTER_BACKEND", BackendFitz)),
			DPI:            getEnvAsInt("RASTER_DPI", 200),
			Pdftoppm:       getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Pdfinfo:        getEnv("PDFINFO_BIN", "pdfinfo"),
			ScratchDir:     getEnv("RASTER_SCRATCH_DIR", ""),
			CommandTimeout: getEnvAsDuration("RASTER_COMMAND_TIMEOUT", 2*time.Minute),
		},
		Output: OutputConfig{
			Encoding:        strings.ToLower(getEnv("OUTPUT_ENCODING", "jpeg")),
			JPEGQuality:     getEnvAsInt("JPEG_QUALITY", 90),
			ThumbnailWidth:  getEnvAsInt("THUMB_WIDTH", 200),
			ThumbnailHeight: getEnvAsInt("THUMB_HEIGHT", 150),
			Interpolation:   strings.ToLower(getEnv("RESIZE_INTERPOLATION", "catmullrom")),
		},
		Batch: BatchConfig{
			TaskTimeout:   getEnvAsDuration("BATCH_TASK_TIMEOUT", 3*time.Minute),
			WatchDebounce: getEnvAsDuration("WATCH_DEBOUNCE", 500*time.Millisecond),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "json")),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("RASTER_BACKEND", c.Raster.Backend, OneOf(BackendFitz, BackendPdftoppm)).
		Field("RASTER_DPI", c.Raster.DPI, Positive).
		Field("JPEG_QUALITY", c.Output.JPEGQuality, Range(1, 100)).
		Field("THUMB_WIDTH", c.Output.ThumbnailWidth, Positive).
		Field("THUMB_HEIGHT", c.Output.ThumbnailHeight, Positive).
		Field("LOG_FORMAT", c.Log.Format, OneOf("json", "text"))
	if c.Raster.Backend == BackendPdftoppm {
		v.Field("PDFTOPPM_BIN", c.Raster.Pdftoppm, Required).
			Field("PDFINFO_BIN", c.Raster.Pdfinfo, Required)
	}
	if v.HasErrors() {
		return NewAppError(CodeConfig, v.ErrorMessage(), nil)
	}
	if c.Raster.ScratchDir != "" {
		if st, err := os.Stat(c.Raster.ScratchDir); err != nil || !st.IsDir() {
			return NewAppError(CodeConfig, fmt.Sprintf("RASTER_SCRATCH_DIR %q is not a directory", c.Raster.ScratchDir), err)
		}
	}
	return nil
}
