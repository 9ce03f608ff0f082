package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, "memory://", cfg.StoreURL)
	assert.Equal(t, "upstage", cfg.LLMProvider)
	assert.Equal(t, 120*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 3, cfg.LLMMaxRetries)
	assert.Equal(t, int64(52428800), cfg.MaxUploadBytes)
	assert.Equal(t, 700, cfg.ChunkTargetWords)
	assert.Equal(t, 400, cfg.ChunkHeaderFloorWords)
	assert.InDelta(t, 0.4, cfg.TitleFillerRatio, 1e-9)
	assert.Equal(t, 100, cfg.HeaderMaxLength)
	assert.Equal(t, time.Hour, cfg.RunTTL)
	assert.True(t, cfg.PDFFallbackPdftotext)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("CHUNK_TARGET_WORDS", "300")
	t.Setenv("RUN_TTL", "10m")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "false")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "sk-test", cfg.LLMAPIKey)
	assert.Equal(t, 300, cfg.ChunkTargetWords)
	assert.Equal(t, 10*time.Minute, cfg.RunTTL)
	assert.False(t, cfg.PDFFallbackPdftotext)
}

func TestLoad_NonPositiveFallsBack(t *testing.T) {
	t.Setenv("CHUNK_TARGET_WORDS", "0")
	t.Setenv("WORKER_COUNT", "-2")
	t.Setenv("TITLE_FILLER_RATIO", "-1")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 700, cfg.ChunkTargetWords)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.InDelta(t, 0.4, cfg.TitleFillerRatio, 1e-9)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docuproof.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"7000\"\nstore_url: sqlite://data.db\nworker_count: 8\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "sqlite://data.db", cfg.StoreURL)
	assert.Equal(t, 8, cfg.WorkerCount)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_JWT_SECRET")
	assert.Contains(t, err.Error(), "LLM_API_KEY")

	cfg.AuthJWTSecret = "secret"
	cfg.LLMAPIKey = "key"
	assert.NoError(t, cfg.Validate())
}

func TestMasked(t *testing.T) {
	cfg := Default()
	cfg.LLMAPIKey = "up_abcdefghijkl"
	cfg.AuthJWTSecret = "short"
	cfg.StoreURL = "postgres://docu:hunter2@db:5432/docuproof"

	m := cfg.Masked()
	assert.Equal(t, "up_a****", m.LLMAPIKey)
	assert.Equal(t, "****", m.AuthJWTSecret)
	assert.Equal(t, "postgres://docu:****@db:5432/docuproof", m.StoreURL)
	assert.Equal(t, "up_abcdefghijkl", cfg.LLMAPIKey)
}

func TestChunkerConfig(t *testing.T) {
	cfg := Default()
	cfg.ChunkTargetWords = 250
	cc := cfg.Chunker()
	assert.Equal(t, 250, cc.TargetWords)
	assert.Equal(t, 400, cc.HeaderFloorWords)
}
