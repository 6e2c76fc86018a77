package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/fgeck/clipperhub/internal/models"
	"github.com/fgeck/clipperhub/internal/services/platform"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockHTTPClient struct {
	calls  int
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.calls++
	if m.doFunc != nil {
		return m.doFunc(req)
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(`{"ok":true}`)),
	}, nil
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testConfig() models.TelegramConfig {
	return models.TelegramConfig{
		Enabled:   true,
		BotToken:  "T",
		ChannelID: "C",
	}
}

func respond(status int, body string) func(*http.Request) (*http.Response, error) {
	return func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader(body)),
		}, nil
	}
}

func TestSendMessage_Success(t *testing.T) {
	var capturedRequest *http.Request
	var capturedBody []byte

	httpClient := &mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			capturedRequest = req
			capturedBody, _ = io.ReadAll(req.Body)
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(`{"ok":true}`)),
			}, nil
		},
	}

	svc := NewWithClient(testLogger(), httpClient, "https://api.telegram.org")

	result := svc.SendMessage(context.Background(), "hello", testConfig())

	assert.True(t, result.Success)
	assert.Empty(t, result.Error)
	assert.Equal(t, 1, httpClient.calls)

	require.NotNil(t, capturedRequest)
	assert.Equal(t, http.MethodPost, capturedRequest.Method)
	assert.Equal(t, "https://api.telegram.org/botT/sendMessage", capturedRequest.URL.String())
	assert.Equal(t, "application/json", capturedRequest.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"chat_id":"C","text":"hello"}`, string(capturedBody))
}

func TestSendMessage_ProviderRejection(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected string
	}{
		{"description", http.StatusBadRequest, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`, "Bad Request: chat not found"},
		{"error code only", http.StatusUnauthorized, `{"ok":false,"error_code":401}`, "错误代码: 401"},
		{"empty envelope", http.StatusOK, `{"ok":false}`, "未知错误"},
		{"undecodable body", http.StatusBadGateway, `<html>bad gateway</html>`, "HTTP 502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewWithClient(testLogger(), &mockHTTPClient{doFunc: respond(tt.status, tt.body)}, DefaultBaseURL)

			result := svc.SendMessage(context.Background(), "hello", testConfig())

			assert.False(t, result.Success)
			assert.Equal(t, tt.expected, result.Error)
		})
	}
}

func TestSendMessage_TransportError(t *testing.T) {
	httpClient := &mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("network error")
		},
	}

	svc := NewWithClient(testLogger(), httpClient, DefaultBaseURL)

	result := svc.SendMessage(context.Background(), "hello", testConfig())

	assert.False(t, result.Success)
	assert.Equal(t, "network error", result.Error)
}

func TestSendMessage_InvalidConfigSkipsNetwork(t *testing.T) {
	httpClient := &mockHTTPClient{}
	svc := NewWithClient(testLogger(), httpClient, DefaultBaseURL)

	result := svc.SendMessage(context.Background(), "hello", models.TelegramConfig{Enabled: true, BotToken: "T"})

	assert.False(t, result.Success)
	assert.Equal(t, "请先配置 Bot Token 和 Channel ID", result.Error)
	assert.Zero(t, httpClient.calls)
}

func TestValidateConfig(t *testing.T) {
	svc := New(testLogger(), 0)

	tests := []struct {
		name     string
		cfg      models.DestinationConfig
		expected bool
	}{
		{"valid", testConfig(), true},
		{"pointer", &models.TelegramConfig{BotToken: "T", ChannelID: "C"}, true},
		{"missing token", models.TelegramConfig{ChannelID: "C"}, false},
		{"missing channel", models.TelegramConfig{BotToken: "T"}, false},
		{"blank token", models.TelegramConfig{BotToken: "  ", ChannelID: "C"}, false},
		{"nil pointer", (*models.TelegramConfig)(nil), false},
		{"wrong variant", models.DiscordConfig{WebhookURL: "https://discord.com/api/webhooks/1/a"}, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, svc.ValidateConfig(tt.cfg))
		})
	}
}

func TestTestConnection(t *testing.T) {
	var captured map[string]string
	httpClient := &mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			body, _ := io.ReadAll(req.Body)
			_ = json.Unmarshal(body, &captured)
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(`{"ok":true}`)),
			}, nil
		},
	}
	svc := NewWithClient(testLogger(), httpClient, DefaultBaseURL)

	result := svc.TestConnection(context.Background(), testConfig())

	assert.True(t, result.Success)
	assert.Equal(t, platform.TestMessage, captured["text"])
}

func TestTestConnection_InvalidConfig(t *testing.T) {
	httpClient := &mockHTTPClient{}
	svc := NewWithClient(testLogger(), httpClient, DefaultBaseURL)

	result := svc.TestConnection(context.Background(), models.TelegramConfig{})

	assert.False(t, result.Success)
	assert.Equal(t, "请先填写 Bot Token 和 Channel ID", result.Error)
	assert.Zero(t, httpClient.calls)
}

func TestSendMessage_ContextCancelled(t *testing.T) {
	httpClient := &mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			return nil, context.Canceled
		},
	}

	svc := NewWithClient(testLogger(), httpClient, DefaultBaseURL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := svc.SendMessage(ctx, "hello", testConfig())

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}
