package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Settings carries all environment-driven configuration. Loaded once in main;
// connection singletons (Postgres, Redis, Mongo) are initialized separately.
type Settings struct {
	APIHost string
	APIPort int

	// Speech to text
	STTProvider     string // local | openai | google
	STTChunkSeconds float64
	STTLanguage     string
	WhisperURL      string
	OpenAIAPIKey    string
	OpenAISTTModel  string

	// Session buffering
	MaxBufferSeconds int

	// Suggestions
	LLMProvider      string // openrouter | vertex
	OpenRouterAPIKey string
	LLMModel         string
	LLMFallbackModel string
	VertexProjectID  string
	VertexLocation   string

	// Storage
	StorageBucket        string
	StoragePublicBaseURL string
	StorageLocalDir      string

	// Archive worker
	ArchiveWorkers int
}

func LoadSettings() (*Settings, error) {
	s := &Settings{
		APIHost: getEnv("API_HOST", "0.0.0.0"),
		APIPort: getEnvInt("API_PORT", 8000),

		STTProvider:     strings.ToLower(getEnv("STT_PROVIDER", "local")),
		STTChunkSeconds: getEnvFloat("STT_CHUNK_SECONDS", 2.0),
		STTLanguage:     getEnv("STT_LANGUAGE", "ru"),
		WhisperURL:      getEnv("WHISPER_URL", "http://127.0.0.1:9090"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAISTTModel:  getEnv("OPENAI_STT_MODEL", "whisper-1"),

		MaxBufferSeconds: getEnvInt("MAX_BUFFER_SECONDS", 30),

		LLMProvider:      strings.ToLower(getEnv("LLM_PROVIDER", "openrouter")),
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		LLMModel:         getEnv("LLM_MODEL", "google/gemini-2.0-flash-001"),
		LLMFallbackModel: getEnv("LLM_FALLBACK_MODEL", "google/gemini-2.5-flash"),
		VertexProjectID:  os.Getenv("VERTEX_PROJECT_ID"),
		VertexLocation:   getEnv("VERTEX_LOCATION", "us-central1"),

		StorageBucket:        os.Getenv("STORAGE_BUCKET"),
		StoragePublicBaseURL: os.Getenv("STORAGE_PUBLIC_BASE_URL"),
		StorageLocalDir:      getEnv("STORAGE_LOCAL_DIR", "./storage"),

		ArchiveWorkers: getEnvInt("ARCHIVE_WORKERS", 3),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) Validate() error {
	switch s.STTProvider {
	case "local", "openai", "google":
	default:
		return fmt.Errorf("invalid STT_PROVIDER %q (expected local, openai or google)", s.STTProvider)
	}
	switch s.LLMProvider {
	case "openrouter", "vertex":
	default:
		return fmt.Errorf("invalid LLM_PROVIDER %q (expected openrouter or vertex)", s.LLMProvider)
	}
	if s.STTChunkSeconds <= 0 {
		return fmt.Errorf("STT_CHUNK_SECONDS must be positive, got %v", s.STTChunkSeconds)
	}
	if s.MaxBufferSeconds <= 0 {
		return fmt.Errorf("MAX_BUFFER_SECONDS must be positive, got %d", s.MaxBufferSeconds)
	}
	if s.APIPort <= 0 || s.APIPort > 65535 {
		return fmt.Errorf("API_PORT out of range: %d", s.APIPort)
	}
	if s.ArchiveWorkers <= 0 {
		s.ArchiveWorkers = 3
	}
	return nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
