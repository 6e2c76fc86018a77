package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fgeck/clipperhub/internal/models"
	"github.com/fgeck/clipperhub/internal/services/dispatch"
	"github.com/fgeck/clipperhub/internal/services/extract"
	"github.com/go-chi/chi/v5"
)

type sendRequest struct {
	Text      string                 `json:"text"`
	HTML      string                 `json:"html"`
	Platforms []models.DestinationID `json:"platforms"`
}

type bookmarkRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type sendResponse struct {
	Results map[models.DestinationID]models.SendResult `json:"results"`
	Summary dispatch.Summary                           `json:"summary"`
}

func (s *Server) handleGetConfigs(w http.ResponseWriter, r *http.Request) error {
	respondJSON(w, http.StatusOK, s.settings.Load(r.Context()))
	return nil
}

func (s *Server) handlePutConfigs(w http.ResponseWriter, r *http.Request) error {
	var cfg models.ConfigSet
	if err := decodeJSON(w, r, &cfg); err != nil {
		return err
	}
	if err := s.settings.Save(r.Context(), cfg); err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, s.settings.Load(r.Context()))
	return nil
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) error {
	id, err := destinationParam(r)
	if err != nil {
		return err
	}
	cfg, err := s.settings.LoadOne(r.Context(), id)
	if err != nil {
		return errNotFound(dispatch.ErrPlatformNotFound)
	}
	respondJSON(w, http.StatusOK, cfg)
	return nil
}

func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) error {
	id, err := destinationParam(r)
	if err != nil {
		return err
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return errBadRequest("failed to read body", err)
	}
	cfg, err := decodeConfig(id, body)
	if err != nil {
		return err
	}
	if err := s.settings.SaveOne(r.Context(), cfg); err != nil {
		return err
	}
	saved, err := s.settings.LoadOne(r.Context(), id)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, saved)
	return nil
}

func (s *Server) handleGetPlatforms(w http.ResponseWriter, _ *http.Request) error {
	respondJSON(w, http.StatusOK, s.dispatcher.Platforms())
	return nil
}

func (s *Server) handleGetEnabledPlatforms(w http.ResponseWriter, r *http.Request) error {
	metas := s.dispatcher.EnabledPlatforms(r.Context())
	if metas == nil {
		metas = []models.PlatformMeta{}
	}
	respondJSON(w, http.StatusOK, metas)
	return nil
}

func (s *Server) handleGetConfigured(w http.ResponseWriter, r *http.Request) error {
	respondJSON(w, http.StatusOK, map[string]bool{"configured": s.dispatcher.HasAnyConfigured(r.Context())})
	return nil
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) error {
	var req sendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	text, err := s.clipText(req.Text, req.HTML)
	if err != nil {
		return err
	}

	var results map[models.DestinationID]models.SendResult
	if len(req.Platforms) == 0 {
		results = s.dispatcher.SendToAll(r.Context(), text)
	} else {
		results = s.dispatcher.SendToSelected(r.Context(), text, req.Platforms)
	}

	respondJSON(w, http.StatusOK, sendResponse{Results: results, Summary: dispatch.Summarize(results)})
	return nil
}

func (s *Server) handleSendOne(w http.ResponseWriter, r *http.Request) error {
	id, err := destinationParam(r)
	if err != nil {
		return err
	}
	var req sendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	text, err := s.clipText(req.Text, req.HTML)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, s.dispatcher.SendToOne(r.Context(), id, text))
	return nil
}

func (s *Server) handleBookmark(w http.ResponseWriter, r *http.Request) error {
	var req bookmarkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.URL) == "" {
		return errBadRequest("url is required", nil)
	}

	results := s.dispatcher.SendToAll(r.Context(), extract.Bookmark(req.Title, req.URL))
	respondJSON(w, http.StatusOK, sendResponse{Results: results, Summary: dispatch.Summarize(results)})
	return nil
}

// handleTest tests the configuration in the request body, or the stored one
// when the body is empty.
func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) error {
	id, err := destinationParam(r)
	if err != nil {
		return err
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return errBadRequest("failed to read body", err)
	}

	var cfg models.DestinationConfig
	if len(strings.TrimSpace(string(body))) == 0 {
		cfg, err = s.settings.LoadOne(r.Context(), id)
	} else {
		cfg, err = decodeConfig(id, body)
	}
	if err != nil {
		return err
	}

	respondJSON(w, http.StatusOK, s.dispatcher.TestConnection(r.Context(), id, cfg))
	return nil
}

func (s *Server) clipText(text, html string) (string, error) {
	if strings.TrimSpace(html) != "" {
		if extracted := s.extractor.FromHTML(html); extracted != "" {
			return extracted, nil
		}
	}
	if strings.TrimSpace(text) == "" {
		return "", errBadRequest("text or html is required", nil)
	}
	return text, nil
}

func destinationParam(r *http.Request) (models.DestinationID, error) {
	id, err := models.ParseDestinationID(chi.URLParam(r, paramID))
	if err != nil {
		return "", errNotFound(dispatch.ErrPlatformNotFound)
	}
	return id, nil
}

func decodeConfig(id models.DestinationID, body []byte) (models.DestinationConfig, error) {
	var (
		cfg models.DestinationConfig
		err error
	)
	switch id {
	case models.Telegram:
		var c models.TelegramConfig
		err = json.Unmarshal(body, &c)
		cfg = c
	case models.Discord:
		var c models.DiscordConfig
		err = json.Unmarshal(body, &c)
		cfg = c
	case models.Notion:
		var c models.NotionConfig
		err = json.Unmarshal(body, &c)
		cfg = c
	default:
		return nil, errNotFound(dispatch.ErrPlatformNotFound)
	}
	if err != nil {
		return nil, errBadRequest(fmt.Sprintf("invalid %s config", id), err)
	}
	return cfg, nil
}
