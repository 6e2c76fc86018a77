package models

// Default Notion database property names.
const (
	DefaultNotionTitleProperty   = "标题"
	DefaultNotionContentProperty = "内容"
	DefaultNotionSourceProperty  = "来源"
)

// NotionConfig holds Notion database destination configuration.
type NotionConfig struct {
	Enabled          bool   `json:"enabled" yaml:"enabled"`
	IntegrationToken string `json:"integrationToken" yaml:"integration_token"`
	DatabaseID       string `json:"databaseId" yaml:"database_id"`
	TitleProperty    string `json:"titleProperty" yaml:"title_property"`
	ContentProperty  string `json:"contentProperty" yaml:"content_property"`
	SourceProperty   string `json:"sourceProperty" yaml:"source_property"`
}

// Destination implements DestinationConfig.
func (c NotionConfig) Destination() DestinationID { return Notion }

// IsEnabled implements DestinationConfig.
func (c NotionConfig) IsEnabled() bool { return c.Enabled }
