// ABOUTME: HTTP API handlers for bot configuration management
// ABOUTME: Provides config upsert, lookup, and listing endpoints as JSON

package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/2389/parley-gateway/internal/store"
)

// AddConfigRequest is the JSON request body for POST /add_config.
type AddConfigRequest struct {
	ClientID string         `json:"client_id"`
	ConfigID string         `json:"config_id"`
	BotName  string         `json:"bot_name,omitempty"`
	Config   map[string]any `json:"config"`
}

// StatusResponse is the JSON response for successful mutations.
type StatusResponse struct {
	Status string `json:"status"`
}

// ClientListResponse is the JSON response for GET /client/list.
type ClientListResponse struct {
	Clients []string `json:"clients"`
}

// ConfigListResponse is the JSON response for GET /list/{client_id}.
type ConfigListResponse struct {
	Configs []string `json:"configs"`
}

// ConfigResponse is the JSON response for GET /get_config.
type ConfigResponse struct {
	Config  map[string]any `json:"config"`
	BotName string         `json:"bot_name"`
}

// handleClientList handles GET /client/list requests.
func (g *Gateway) handleClientList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	clients, err := g.store.ListClients(r.Context())
	if err != nil {
		g.logger.Error("failed to list clients", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "storage error")
		return
	}
	if clients == nil {
		clients = []string{}
	}

	g.sendJSON(w, http.StatusOK, ClientListResponse{Clients: clients})
}

// handleConfigList handles GET /list/{client_id} requests.
func (g *Gateway) handleConfigList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	clientID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/list"), "/")
	if clientID == "" || strings.Contains(clientID, "/") {
		g.sendJSONError(w, http.StatusBadRequest, "expected /list/{client_id}")
		return
	}

	configs, err := g.store.ListConfigs(r.Context(), clientID)
	if err != nil {
		g.logger.Error("failed to list configs", "client_id", clientID, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "storage error")
		return
	}
	if configs == nil {
		configs = []string{}
	}

	g.sendJSON(w, http.StatusOK, ConfigListResponse{Configs: configs})
}

// handleAddConfig handles POST /add_config requests. The config payload is
// stored opaquely; option keys are interpreted at chat time, so an upsert
// never validates model names or generation parameters.
func (g *Gateway) handleAddConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	req, err := parseAddConfigRequest(r.Body)
	if err != nil {
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg := &store.AgentConfig{
		ClientID:  req.ClientID,
		ConfigID:  req.ConfigID,
		BotName:   req.BotName,
		Options:   req.Config,
		UpdatedAt: time.Now().UTC(),
	}
	if cfg.BotName == "" {
		cfg.BotName = "Untitled Bot"
	}

	if err := g.store.UpsertConfig(r.Context(), cfg); err != nil {
		g.logger.Error("failed to upsert config",
			"client_id", req.ClientID,
			"config_id", req.ConfigID,
			"error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "storage error")
		return
	}

	g.logger.Info("config stored", "client_id", req.ClientID, "config_id", req.ConfigID)
	g.sendJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleGetConfig handles GET /get_config?client_id=&config_id= requests.
func (g *Gateway) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	clientID := r.URL.Query().Get("client_id")
	configID := r.URL.Query().Get("config_id")
	if clientID == "" || configID == "" {
		g.sendJSONError(w, http.StatusBadRequest, "client_id and config_id are required")
		return
	}

	cfg, err := g.store.GetConfig(r.Context(), clientID, configID)
	if errors.Is(err, store.ErrNotFound) {
		g.sendJSONError(w, http.StatusNotFound, "config not found")
		return
	}
	if err != nil {
		g.logger.Error("failed to get config",
			"client_id", clientID,
			"config_id", configID,
			"error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "storage error")
		return
	}

	g.sendJSON(w, http.StatusOK, ConfigResponse{Config: cfg.Options, BotName: cfg.BotName})
}

// parseAddConfigRequest parses and validates an AddConfigRequest from the
// given reader. Returns an error if the JSON is invalid or required fields
// (client_id, config_id, config) are missing.
func parseAddConfigRequest(r io.Reader) (*AddConfigRequest, error) {
	var req AddConfigRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if req.ClientID == "" {
		return nil, errors.New("client_id is required")
	}
	if req.ConfigID == "" {
		return nil, errors.New("config_id is required")
	}
	if req.Config == nil {
		return nil, errors.New("config is required")
	}
	return &req, nil
}

// sendJSON writes a JSON response with the given status code.
func (g *Gateway) sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		g.logger.Debug("failed to encode response", "error", err)
	}
}

// sendJSONError writes a JSON error response with the given status code.
func (g *Gateway) sendJSONError(w http.ResponseWriter, status int, message string) {
	g.sendJSON(w, status, map[string]string{"error": message})
}

// corsMiddleware applies the configured CORS policy. An empty origin list
// allows any origin, mirroring the WebSocket accept behavior.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				if len(allowed) == 0 {
					w.Header().Set("Access-Control-Allow-Origin", "*")
				} else if allowed[origin] {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Vary", "Origin")
				}
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
