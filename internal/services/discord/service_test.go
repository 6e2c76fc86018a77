package discord

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/fgeck/clipperhub/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhook = "https://discord.com/api/webhooks/123/abcDEF"

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
		StatusCode: http.StatusNoContent,
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testConfig() models.DiscordConfig {
	return models.DiscordConfig{Enabled: true, WebhookURL: testWebhook}
}

func respond(status int, body string) func(*http.Request) (*http.Response, error) {
	return func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader(body)),
		}, nil
	}
}

func TestIsValidWebhookURL(t *testing.T) {
	tests := []struct {
		url      string
		expected bool
	}{
		{"https://discord.com/api/webhooks/123/abcDEF", true},
		{"https://discordapp.com/api/webhooks/123/abc_DEF-9", true},
		{"https://evil.com/api/webhooks/123/abc", false},
		{"http://discord.com/api/webhooks/123/abc", false},
		{"https://discord.com/api/webhooks/abc/abc", false},
		{"https://discord.com/api/webhooks/123/abc/extra", false},
		{"https://discord.com.evil.com/api/webhooks/123/abc", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValidWebhookURL(tt.url))
		})
	}
}

func TestValidateConfig(t *testing.T) {
	svc := New(testLogger(), 0)

	assert.True(t, svc.ValidateConfig(testConfig()))
	assert.True(t, svc.ValidateConfig(&models.DiscordConfig{WebhookURL: testWebhook}))
	assert.False(t, svc.ValidateConfig(models.DiscordConfig{Enabled: true}))
	assert.False(t, svc.ValidateConfig(models.DiscordConfig{WebhookURL: "https://evil.com/api/webhooks/123/abc"}))
	assert.False(t, svc.ValidateConfig(models.TelegramConfig{BotToken: "T", ChannelID: "C"}))
	assert.False(t, svc.ValidateConfig(nil))
}

func TestSendMessage_Success(t *testing.T) {
	var capturedRequest *http.Request
	var capturedBody []byte

	httpClient := &mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			capturedRequest = req
			capturedBody, _ = io.ReadAll(req.Body)
			return &http.Response{
				StatusCode: http.StatusNoContent,
				Body:       io.NopCloser(strings.NewReader("")),
			}, nil
		},
	}

	svc := NewWithClient(testLogger(), httpClient)

	result := svc.SendMessage(context.Background(), "hello", testConfig())

	assert.True(t, result.Success)
	assert.Equal(t, "消息已发送到 Discord", result.Message)
	require.NotNil(t, capturedRequest)
	assert.Equal(t, http.MethodPost, capturedRequest.Method)
	assert.Equal(t, testWebhook, capturedRequest.URL.String())
	assert.Equal(t, "application/json", capturedRequest.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"content":"hello"}`, string(capturedBody))
}

func TestSendMessage_DisplayOverrides(t *testing.T) {
	var capturedBody []byte
	httpClient := &mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			capturedBody, _ = io.ReadAll(req.Body)
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("{}"))}, nil
		},
	}
	svc := NewWithClient(testLogger(), httpClient)

	cfg := testConfig()
	cfg.Username = "Clipper"
	cfg.AvatarURL = "https://example.com/a.png"

	result := svc.SendMessage(context.Background(), "hello", cfg)

	assert.True(t, result.Success)
	assert.JSONEq(t, `{"content":"hello","username":"Clipper","avatar_url":"https://example.com/a.png"}`, string(capturedBody))
}

func TestSendMessage_ProviderRejection(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected string
	}{
		{"message field", http.StatusBadRequest, `{"code":50006,"message":"Cannot send an empty message"}`, "Cannot send an empty message"},
		{"unknown webhook", http.StatusNotFound, `{"code":10015,"message":"Unknown Webhook"}`, "Unknown Webhook"},
		{"code without message", http.StatusNotFound, `{"code":10015}`, "HTTP 404"},
		{"no message", http.StatusForbidden, `{}`, "HTTP 403"},
		{"not json", http.StatusInternalServerError, `oops`, "HTTP 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewWithClient(testLogger(), &mockHTTPClient{doFunc: respond(tt.status, tt.body)})

			result := svc.SendMessage(context.Background(), "hello", testConfig())

			assert.False(t, result.Success)
			assert.Equal(t, tt.expected, result.Error)
		})
	}
}

func TestSendMessage_TransportError(t *testing.T) {
	httpClient := &mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("dial tcp: connection refused")
		},
	}
	svc := NewWithClient(testLogger(), httpClient)

	result := svc.SendMessage(context.Background(), "hello", testConfig())

	assert.False(t, result.Success)
	assert.Equal(t, "dial tcp: connection refused", result.Error)
}

func TestTestConnection_InvalidConfig(t *testing.T) {
	httpClient := &mockHTTPClient{}
	svc := NewWithClient(testLogger(), httpClient)

	result := svc.TestConnection(context.Background(), models.DiscordConfig{WebhookURL: "https://evil.com/api/webhooks/123/abc"})

	assert.False(t, result.Success)
	assert.Equal(t, "请先填写有效的 Discord Webhook URL", result.Error)
	assert.Zero(t, httpClient.calls)
}

func TestTestConnection_Sends(t *testing.T) {
	httpClient := &mockHTTPClient{}
	svc := NewWithClient(testLogger(), httpClient)

	result := svc.TestConnection(context.Background(), testConfig())

	assert.True(t, result.Success)
	assert.Equal(t, 1, httpClient.calls)
}
