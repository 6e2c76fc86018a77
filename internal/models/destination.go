// Package models contains the data structures used throughout clipperhub.
package models

import "fmt"

// DestinationID identifies one of the fixed set of relay destinations.
type DestinationID string

// Known destinations.
const (
	Telegram DestinationID = "telegram"
	Discord  DestinationID = "discord"
	Notion   DestinationID = "notion"
)

// AllDestinations lists every destination in presentation order.
var AllDestinations = []DestinationID{Telegram, Discord, Notion}

// ParseDestinationID converts a raw identifier into a DestinationID.
func ParseDestinationID(s string) (DestinationID, error) {
	for _, id := range AllDestinations {
		if string(id) == s {
			return id, nil
		}
	}
	return "", fmt.Errorf("unknown destination %q", s)
}

// DestinationConfig is implemented by TelegramConfig, DiscordConfig and NotionConfig.
type DestinationConfig interface {
	Destination() DestinationID
	IsEnabled() bool
}

// PlatformMeta describes a destination for presentation.
type PlatformMeta struct {
	ID          DestinationID `json:"id"`
	Name        string        `json:"name"`
	Icon        string        `json:"icon"`
	Description string        `json:"description"`
}

// SendResult is the outcome of one send attempt to one destination.
type SendResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Succeeded returns a successful result carrying msg.
func Succeeded(msg string) SendResult {
	return SendResult{Success: true, Message: msg}
}

// Failed returns a failed result carrying errMsg.
func Failed(errMsg string) SendResult {
	return SendResult{Success: false, Error: errMsg}
}

// ConfigSet holds the configuration of every destination.
type ConfigSet struct {
	Telegram TelegramConfig `json:"telegram" yaml:"telegram"`
	Discord  DiscordConfig  `json:"discord" yaml:"discord"`
	Notion   NotionConfig   `json:"notion" yaml:"notion"`
}

// Get returns the configuration for id.
func (s ConfigSet) Get(id DestinationID) (DestinationConfig, bool) {
	switch id {
	case Telegram:
		return s.Telegram, true
	case Discord:
		return s.Discord, true
	case Notion:
		return s.Notion, true
	default:
		return nil, false
	}
}

// Set replaces the configuration of the destination cfg belongs to.
func (s *ConfigSet) Set(cfg DestinationConfig) error {
	switch c := cfg.(type) {
	case TelegramConfig:
		s.Telegram = c
	case *TelegramConfig:
		s.Telegram = *c
	case DiscordConfig:
		s.Discord = c
	case *DiscordConfig:
		s.Discord = *c
	case NotionConfig:
		s.Notion = c
	case *NotionConfig:
		s.Notion = *c
	default:
		return fmt.Errorf("unsupported destination config %T", cfg)
	}
	return nil
}
