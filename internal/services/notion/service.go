// Package notion saves clips as pages in a Notion database.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/fgeck/clipperhub/internal/models"
	"github.com/fgeck/clipperhub/internal/services/platform"
	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is the public Notion API host.
	DefaultBaseURL = "https://api.notion.com"

	// APIVersion is sent as the Notion-Version header.
	APIVersion = "2022-06-28"

	// MaxTextLength is the per rich-text object limit enforced by Notion.
	MaxTextLength = 2000

	untitled         = "未命名剪藏"
	sourceMarker     = "来源:"
	maxResponseBytes = 1 << 20
)

var (
	uuidPattern    = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	compactPattern = regexp.MustCompile(`(?i)^[0-9a-f]{32}$`)
)

var meta = models.PlatformMeta{
	ID:          models.Notion,
	Name:        "Notion",
	Icon:        "📝",
	Description: "将内容保存到 Notion 数据库",
}

// Impl implements platform.Adapter for Notion databases.
type Impl struct {
	httpClient platform.HTTPClient
	logger     zerolog.Logger
	baseURL    string
	now        func() time.Time
}

// New creates a new Notion adapter.
func New(logger zerolog.Logger, timeout time.Duration) *Impl {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Impl{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		baseURL: DefaultBaseURL,
		now:     time.Now,
	}
}

// NewWithClient creates a new Notion adapter with a custom HTTP client (for testing).
func NewWithClient(logger zerolog.Logger, httpClient platform.HTTPClient, baseURL string) *Impl {
	return &Impl{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
		now:        time.Now,
	}
}

type createPageRequest struct {
	Parent     pageParent          `json:"parent"`
	Properties map[string]property `json:"properties"`
}

type pageParent struct {
	DatabaseID string `json:"database_id"`
}

type property struct {
	Title    []richText `json:"title,omitempty"`
	RichText []richText `json:"rich_text,omitempty"`
	URL      string     `json:"url,omitempty"`
}

type richText struct {
	Text textContent `json:"text"`
}

type textContent struct {
	Content string `json:"content"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Clip is a piece of text split into Notion page fields.
type Clip struct {
	Title   string
	Content string
	Source  string
}

// IsValidDatabaseID reports whether id is a dashed UUID or 32 hex digits.
func IsValidDatabaseID(id string) bool {
	return uuidPattern.MatchString(id) || compactPattern.MatchString(id)
}

// Meta implements platform.Adapter.
func (s *Impl) Meta() models.PlatformMeta {
	return meta
}

// ValidateConfig implements platform.Adapter.
func (s *Impl) ValidateConfig(cfg models.DestinationConfig) bool {
	c, ok := asConfig(cfg)
	if !ok {
		return false
	}
	return strings.TrimSpace(c.IntegrationToken) != "" &&
		strings.TrimSpace(c.DatabaseID) != "" &&
		IsValidDatabaseID(c.DatabaseID)
}

// SendMessage implements platform.Adapter.
func (s *Impl) SendMessage(ctx context.Context, text string, cfg models.DestinationConfig) models.SendResult {
	if !s.ValidateConfig(cfg) {
		return models.Failed("请先配置有效的 Integration Token 和 Database ID")
	}
	c, _ := asConfig(cfg)

	clip := SplitClip(text)

	s.logger.Debug().
		Str("database_id", c.DatabaseID).
		Str("title", clip.Title).
		Bool("has_source", clip.Source != "").
		Msg("creating Notion page")

	jsonBody, err := json.Marshal(buildRequest(c, clip))
	if err != nil {
		return models.Failed(fmt.Sprintf("failed to marshal request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/pages", bytes.NewReader(jsonBody))
	if err != nil {
		return models.Failed(fmt.Sprintf("failed to create request: %v", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.IntegrationToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", APIVersion)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Notion request failed")
		return models.Failed(platform.TransportError("Notion API", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errMsg := decodeError(resp)
		s.logger.Warn().
			Int("status", resp.StatusCode).
			Str("error", errMsg).
			Msg("Notion rejected page")
		return models.Failed(errMsg)
	}

	s.logger.Info().Str("database_id", c.DatabaseID).Msg("Notion page created")
	return models.Succeeded("内容已保存到 Notion")
}

// TestConnection implements platform.Adapter.
func (s *Impl) TestConnection(ctx context.Context, cfg models.DestinationConfig) models.SendResult {
	if !s.ValidateConfig(cfg) {
		return models.Failed("请先填写 Integration Token 和 Database ID")
	}
	msg := fmt.Sprintf("🔗 连接测试成功!\n\n这是来自 Clipper Hub 的测试消息\n\n时间: %s",
		s.now().Format("2006/1/2 15:04:05"))
	return s.SendMessage(ctx, msg, cfg)
}

// SplitClip splits text into a title (first non-empty line), content (the
// remaining lines) and an optional trailing source line.
func SplitClip(text string) Clip {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	var clip Clip
	if n := len(lines); n > 0 {
		last := lines[n-1]
		if strings.HasPrefix(last, "http://") || strings.HasPrefix(last, "https://") || strings.Contains(last, sourceMarker) {
			clip.Source = strings.TrimSpace(strings.Replace(last, sourceMarker, "", 1))
			lines = lines[:n-1]
		}
	}

	clip.Title = untitled
	if len(lines) > 0 {
		clip.Title = lines[0]
	}

	// A single-line clip keeps the whole text as content so nothing is lost.
	clip.Content = text
	if len(lines) > 1 {
		clip.Content = strings.Join(lines[1:], "\n")
	}

	return clip
}

// SplitText cuts text into segments of at most MaxTextLength characters.
func SplitText(text string) []string {
	runes := []rune(text)
	if len(runes) <= MaxTextLength {
		return []string{text}
	}

	chunks := make([]string, 0, (len(runes)+MaxTextLength-1)/MaxTextLength)
	for i := 0; i < len(runes); i += MaxTextLength {
		end := min(i+MaxTextLength, len(runes))
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}

func buildRequest(cfg models.NotionConfig, clip Clip) createPageRequest {
	titleProp := orDefault(cfg.TitleProperty, models.DefaultNotionTitleProperty)
	contentProp := orDefault(cfg.ContentProperty, models.DefaultNotionContentProperty)
	sourceProp := orDefault(cfg.SourceProperty, models.DefaultNotionSourceProperty)

	properties := map[string]property{
		titleProp: {
			Title: []richText{{Text: textContent{Content: truncate(clip.Title, MaxTextLength)}}},
		},
	}

	if clip.Content != "" {
		chunks := SplitText(clip.Content)
		blocks := make([]richText, 0, len(chunks))
		for _, chunk := range chunks {
			blocks = append(blocks, richText{Text: textContent{Content: chunk}})
		}
		properties[contentProp] = property{RichText: blocks}
	}

	if clip.Source != "" && isValidURL(clip.Source) {
		properties[sourceProp] = property{URL: clip.Source}
	}

	return createPageRequest{
		Parent:     pageParent{DatabaseID: strings.ReplaceAll(cfg.DatabaseID, "-", "")},
		Properties: properties,
	}
}

func decodeError(resp *http.Response) string {
	var body errorResponse
	// An undecodable body leaves the zero value, which falls through to the status.
	_ = json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body)

	switch {
	case body.Code == "unauthorized":
		return "Integration Token 无效或已过期"
	case body.Code == "object_not_found":
		return "Database ID 不存在或 Integration 未连接到该数据库"
	case body.Code == "validation_error":
		return "数据验证失败: " + orDefault(body.Message, "请检查数据库属性配置")
	case body.Message != "":
		return body.Message
	default:
		return fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
}

func isValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme != "" && (u.Host != "" || u.Opaque != "")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func asConfig(cfg models.DestinationConfig) (models.NotionConfig, bool) {
	switch c := cfg.(type) {
	case models.NotionConfig:
		return c, true
	case *models.NotionConfig:
		if c == nil {
			return models.NotionConfig{}, false
		}
		return *c, true
	default:
		return models.NotionConfig{}, false
	}
}
