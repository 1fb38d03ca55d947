package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() AppConfig {
	return AppConfig{
		Host:        "127.0.0.1",
		Port:        8080,
		LogLevel:    "info",
		SendBuffer:  256,
		ReadLimit:   4096,
		PongWait:    time.Minute,
		RedisPort:   6379,
		PresenceTTL: 24 * time.Hour,
	}
}

func TestAppConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(cfg *AppConfig)
		wantErr bool
	}{
		{name: "valid", modify: func(cfg *AppConfig) {}},
		{name: "debug level", modify: func(cfg *AppConfig) { cfg.LogLevel = "DEBUG" }},
		{name: "zero port", modify: func(cfg *AppConfig) { cfg.Port = 0 }, wantErr: true},
		{name: "port out of range", modify: func(cfg *AppConfig) { cfg.Port = 70000 }, wantErr: true},
		{name: "zero send buffer", modify: func(cfg *AppConfig) { cfg.SendBuffer = 0 }, wantErr: true},
		{name: "negative read limit", modify: func(cfg *AppConfig) { cfg.ReadLimit = -1 }, wantErr: true},
		{name: "zero pong wait", modify: func(cfg *AppConfig) { cfg.PongWait = 0 }, wantErr: true},
		{name: "unknown log level", modify: func(cfg *AppConfig) { cfg.LogLevel = "LOUD" }, wantErr: true},
		{name: "presence without ttl", modify: func(cfg *AppConfig) {
			cfg.RedisHost = "localhost"
			cfg.PresenceTTL = 0
		}, wantErr: true},
		{name: "no presence ignores ttl", modify: func(cfg *AppConfig) { cfg.PresenceTTL = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := validConfig()
	cfg.SendBuffer = 0

	assert.Error(t, Run(context.Background(), &cfg))
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	return l.Addr().(*net.TCPAddr).Port
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	mr := miniredis.RunT(t)
	redisPort, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	cfg := validConfig()
	cfg.Port = freePort(t)
	cfg.RedisHost = mr.Host()
	cfg.RedisPort = redisPort

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, &cfg)
	}()

	url := fmt.Sprintf("http://127.0.0.1:%d/api/v1/healthz", cfg.Port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()

		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
