package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/fdamcp/configs"
)

func baseConfig() *configs.Config {
	return &configs.Config{
		Transport:         configs.TransportStdio,
		LogLevel:          "INFO",
		HTTPClientTimeout: 30 * time.Second,
	}
}

func TestParseAndApplyFlags(t *testing.T) {
	tests := []struct {
		name          string
		args          []string
		wantParseErr  bool
		wantApplyErr  bool
		wantLevel     string
		wantTransport string
	}{
		{name: "No flags keep configuration", args: nil, wantLevel: "INFO", wantTransport: "stdio"},
		{name: "Log level flag", args: []string{"--log-level", "DEBUG"}, wantLevel: "DEBUG", wantTransport: "stdio"},
		{name: "Transport flag", args: []string{"--transport=sse"}, wantLevel: "INFO", wantTransport: "sse"},
		{name: "Warning level", args: []string{"-log-level", "WARNING"}, wantLevel: "WARNING", wantTransport: "stdio"},
		{name: "Invalid log level", args: []string{"--log-level", "LOUD"}, wantApplyErr: true},
		{name: "Invalid transport", args: []string{"--transport", "websocket"}, wantApplyErr: true},
		{name: "Unknown flag", args: []string{"--port", "80"}, wantParseErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			opts, err := parseFlags(tt.args, &stderr)
			if tt.wantParseErr {
				assert.Error(t, err)
				assert.NotEmpty(t, stderr.String())
				return
			}
			require.NoError(t, err)

			cfg := baseConfig()
			err = applyFlags(cfg, opts)
			if tt.wantApplyErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLevel, cfg.LogLevel)
			assert.Equal(t, tt.wantTransport, cfg.Transport)
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("stderr at configured level", func(t *testing.T) {
		cfg := baseConfig()
		cfg.LogLevel = "WARNING"
		var stderr bytes.Buffer

		logger, closeFn, err := newLogger(cfg, &stderr)
		require.NoError(t, err)
		defer closeFn()

		logger.Info("hidden")
		logger.Warn("shown")
		assert.NotContains(t, stderr.String(), "hidden")
		assert.Contains(t, stderr.String(), "shown")
		assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	})

	t.Run("log file", func(t *testing.T) {
		cfg := baseConfig()
		cfg.LogFile = filepath.Join(t.TempDir(), "fdamcp.log")
		var stderr bytes.Buffer

		logger, closeFn, err := newLogger(cfg, &stderr)
		require.NoError(t, err)
		logger.Info("to file")
		require.NoError(t, closeFn())

		data, err := os.ReadFile(cfg.LogFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), "to file")
		assert.Empty(t, stderr.String())
	})

	t.Run("invalid level", func(t *testing.T) {
		cfg := baseConfig()
		cfg.LogLevel = "TRACE"
		_, _, err := newLogger(cfg, &bytes.Buffer{})
		assert.Error(t, err)
	})
}

func TestInitOtelProvider_Disabled(t *testing.T) {
	shutdown, err := initOtelProvider(baseConfig())
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitOtelProvider_Stdout(t *testing.T) {
	cfg := baseConfig()
	cfg.OtelTracesStdout = true

	shutdown, err := initOtelProvider(cfg)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
