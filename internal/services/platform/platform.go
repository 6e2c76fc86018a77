// Package platform defines the contract every relay destination implements.
package platform

import (
	"context"
	"net/http"

	"github.com/fgeck/clipperhub/internal/models"
)

// Adapter is implemented by each destination service.
type Adapter interface {
	Meta() models.PlatformMeta

	// ValidateConfig reports whether cfg is usable by this adapter. It performs
	// structural checks only and never touches the network.
	ValidateConfig(cfg models.DestinationConfig) bool

	// SendMessage performs one request to the provider. All failures are
	// reported through the returned result.
	SendMessage(ctx context.Context, text string, cfg models.DestinationConfig) models.SendResult

	// TestConnection sends a canned message when cfg is valid.
	TestConnection(ctx context.Context, cfg models.DestinationConfig) models.SendResult
}

// HTTPClient allows mocking HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// TestMessage is the text sent by TestConnection.
const TestMessage = "🔗 连接测试成功!\n这是来自 Clipper Hub 的测试消息。"

// TransportError renders a request failure that produced no response.
func TransportError(provider string, err error) string {
	if err == nil || err.Error() == "" {
		return "网络错误或无法连接到 " + provider
	}
	return err.Error()
}
