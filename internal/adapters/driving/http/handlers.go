package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/tkgathr2/bulk/internal/core/domain"
	"github.com/tkgathr2/bulk/internal/core/ports/driving"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"query is required"`
}

// OKResponse represents a simple acknowledgement
// @Description Simple acknowledgement
type OKResponse struct {
	OK bool `json:"ok" example:"true"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// DisconnectResponse is returned by POST /auth/{service}/disconnect
// @Description Disconnect acknowledgement
type DisconnectResponse struct {
	OK      bool                    `json:"ok"`
	Service domain.ServiceID        `json:"service"`
	Status  domain.ConnectionStatus `json:"status"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Tags         Health
// @Produce      json
// @Success      200  {object}  OKResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Checks the token and history store
// @Tags         Health
// @Produce      json
// @Success      200  {object}  OKResponse
// @Failure      503  {object}  ErrorResponse  "Store unreachable"
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			s.logger.Warn("readiness check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

// handleVersion godoc
// @Summary      Get API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

// Search endpoints

// handleSearch godoc
// @Summary      Federated search
// @Description  Fans the query out to every requested service. One service failing never fails the request.
// @Tags         Search
// @Accept       json
// @Produce      json
// @Param        request  body      domain.SearchRequest  true  "Search query"
// @Success      200      {object}  domain.SearchResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request or missing query"
// @Failure      500      {object}  ErrorResponse  "Search failed"
// @Router       /search [post]
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req domain.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.searchService.Search(r.Context(), GetSessionID(r.Context()), req)
	if err != nil {
		s.writeServiceError(w, err, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleListHistory godoc
// @Summary      List search history
// @Description  Newest first, at most 30 entries
// @Tags         Search
// @Produce      json
// @Success      200  {array}   domain.SearchHistoryEntry
// @Router       /search/history [get]
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.historyService.List(r.Context(), GetSessionID(r.Context()))
	if err != nil {
		s.writeServiceError(w, err, "failed to list history")
		return
	}
	if entries == nil {
		entries = []*domain.SearchHistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleSaveHistory godoc
// @Summary      Save search history entry
// @Tags         Search
// @Accept       json
// @Produce      json
// @Param        request  body      driving.SaveHistoryRequest  true  "Search to record"
// @Success      200      {object}  domain.SearchHistoryEntry
// @Failure      400      {object}  ErrorResponse  "Missing query"
// @Router       /search/history [post]
func (s *Server) handleSaveHistory(w http.ResponseWriter, r *http.Request) {
	var req driving.SaveHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := s.historyService.Save(r.Context(), GetSessionID(r.Context()), req)
	if err != nil {
		s.writeServiceError(w, err, "failed to save history")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// handleDeleteHistory godoc
// @Summary      Delete search history entry
// @Tags         Search
// @Produce      json
// @Param        id   path      string  true  "History entry ID"
// @Success      200  {object}  OKResponse
// @Failure      404  {object}  ErrorResponse  "Entry not found"
// @Router       /search/history/{id} [delete]
func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.historyService.Delete(r.Context(), GetSessionID(r.Context()), id); err != nil {
		s.writeServiceError(w, err, "failed to delete history")
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

// handleClearHistory godoc
// @Summary      Clear search history
// @Tags         Search
// @Produce      json
// @Success      200  {object}  OKResponse
// @Router       /search/history [delete]
func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.historyService.Clear(r.Context(), GetSessionID(r.Context())); err != nil {
		s.writeServiceError(w, err, "failed to clear history")
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

// Service connection endpoints

// handleServicesStatus godoc
// @Summary      List service connections
// @Description  Connection status is derived from the stored token of the session
// @Tags         Services
// @Produce      json
// @Success      200  {array}   domain.ServiceConnection
// @Router       /services/status [get]
func (s *Server) handleServicesStatus(w http.ResponseWriter, r *http.Request) {
	connections, err := s.connectionService.List(r.Context(), GetSessionID(r.Context()))
	if err != nil {
		s.writeServiceError(w, err, "failed to load service status")
		return
	}
	writeJSON(w, http.StatusOK, connections)
}

// handleDisconnectService godoc
// @Summary      Disconnect a service
// @Tags         Services
// @Produce      json
// @Param        id   path      string  true  "Service ID"
// @Success      200  {object}  domain.ServiceConnection
// @Failure      404  {object}  ErrorResponse  "Unknown service"
// @Router       /services/{id}/disconnect [post]
func (s *Server) handleDisconnectService(w http.ResponseWriter, r *http.Request) {
	service, err := domain.ParseServiceID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "service not found")
		return
	}

	conn, err := s.connectionService.Disconnect(r.Context(), GetSessionID(r.Context()), service)
	if err != nil {
		s.writeServiceError(w, err, "failed to disconnect service")
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

// handleAuthDisconnect godoc
// @Summary      Disconnect a service
// @Tags         OAuth
// @Produce      json
// @Param        service  path      string  true  "Service ID"
// @Success      200      {object}  DisconnectResponse
// @Failure      404      {object}  ErrorResponse  "Unknown service"
// @Router       /auth/{service}/disconnect [post]
func (s *Server) handleAuthDisconnect(w http.ResponseWriter, r *http.Request) {
	service, err := domain.ParseServiceID(r.PathValue("service"))
	if err != nil {
		writeError(w, http.StatusNotFound, "service not found")
		return
	}

	conn, err := s.connectionService.Disconnect(r.Context(), GetSessionID(r.Context()), service)
	if err != nil {
		s.writeServiceError(w, err, "failed to disconnect service")
		return
	}
	writeJSON(w, http.StatusOK, DisconnectResponse{OK: true, Service: conn.ID, Status: conn.Status})
}

// OAuth endpoints

// handleLogin godoc
// @Summary      Sign in with Google
// @Tags         OAuth
// @Success      302
// @Failure      503  {object}  ErrorResponse  "Google OAuth not configured"
// @Router       /auth/google/login [get]
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.authorize(w, r, domain.TargetLogin)
}

// handleLoginCallback godoc
// @Summary      Google sign-in callback
// @Tags         OAuth
// @Param        code   query  string  false  "Authorization code"
// @Param        state  query  string  false  "State parameter"
// @Param        error  query  string  false  "Error from provider"
// @Success      302
// @Router       /auth/google/login/callback [get]
func (s *Server) handleLoginCallback(w http.ResponseWriter, r *http.Request) {
	s.callback(w, r, domain.TargetLogin)
}

// handleGoogleAuthorize godoc
// @Summary      Connect Gmail or Google Drive
// @Tags         OAuth
// @Param        service  path  string  true  "gmail or drive"
// @Success      302
// @Failure      404  {object}  ErrorResponse  "Unknown service"
// @Failure      503  {object}  ErrorResponse  "Google OAuth not configured"
// @Router       /auth/google/{service}/authorize [get]
func (s *Server) handleGoogleAuthorize(w http.ResponseWriter, r *http.Request) {
	target, ok := googleServiceTarget(r.PathValue("service"))
	if !ok {
		writeError(w, http.StatusNotFound, "service not found")
		return
	}
	s.authorize(w, r, target)
}

// handleGoogleCallback godoc
// @Summary      Gmail or Google Drive OAuth callback
// @Tags         OAuth
// @Param        service  path   string  true   "gmail or drive"
// @Param        code     query  string  false  "Authorization code"
// @Param        state    query  string  false  "State parameter"
// @Success      302
// @Router       /auth/google/{service}/callback [get]
func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	target, ok := googleServiceTarget(r.PathValue("service"))
	if !ok {
		writeError(w, http.StatusNotFound, "service not found")
		return
	}
	s.callback(w, r, target)
}

// handleProviderAuthorize godoc
// @Summary      Connect Slack or Dropbox
// @Tags         OAuth
// @Success      302
// @Failure      503  {object}  ErrorResponse  "OAuth not configured"
// @Router       /auth/slack/authorize [get]
// @Router       /auth/dropbox/authorize [get]
func (s *Server) handleProviderAuthorize(w http.ResponseWriter, r *http.Request) {
	s.authorize(w, r, pathTarget(r))
}

// handleProviderCallback godoc
// @Summary      Slack or Dropbox OAuth callback
// @Tags         OAuth
// @Success      302
// @Router       /auth/slack/callback [get]
// @Router       /auth/dropbox/callback [get]
func (s *Server) handleProviderCallback(w http.ResponseWriter, r *http.Request) {
	s.callback(w, r, pathTarget(r))
}

// handleMe godoc
// @Summary      Current user
// @Tags         OAuth
// @Produce      json
// @Success      200  {object}  driving.MeResponse
// @Router       /auth/google/me [get]
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	resp, err := s.oauthService.Me(r.Context(), GetSessionID(r.Context()))
	if err != nil {
		s.writeServiceError(w, err, "failed to load session")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleLogout godoc
// @Summary      Sign out
// @Description  Forgets the user, tokens and history of the session and clears the cookie
// @Tags         OAuth
// @Produce      json
// @Success      200  {object}  OKResponse
// @Router       /auth/google/logout [post]
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.oauthService.Logout(r.Context(), GetSessionID(r.Context())); err != nil {
		s.writeServiceError(w, err, "logout failed")
		return
	}
	s.sessions.clear(w)
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

// authorize redirects to the provider, or answers JSON when the client asks for it
func (s *Server) authorize(w http.ResponseWriter, r *http.Request, target domain.OAuthTarget) {
	resp, err := s.oauthService.Authorize(r.Context(), GetSessionID(r.Context()), target)
	if err != nil {
		if errors.Is(err, domain.ErrProviderNotConfigured) {
			writeError(w, http.StatusServiceUnavailable, notConfiguredMessage(target.Provider()))
			return
		}
		s.writeServiceError(w, err, "failed to start authorization")
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	http.Redirect(w, r, resp.AuthorizationURL, http.StatusFound)
}

func (s *Server) callback(w http.ResponseWriter, r *http.Request, target domain.OAuthTarget) {
	q := r.URL.Query()
	resp := s.oauthService.Callback(r.Context(), GetSessionID(r.Context()), target, driving.CallbackRequest{
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	})
	http.Redirect(w, r, resp.RedirectURL, http.StatusFound)
}

// googleServiceTarget accepts only the Google-backed service targets
func googleServiceTarget(raw string) (domain.OAuthTarget, bool) {
	target, err := domain.ParseOAuthTarget(raw)
	if err != nil || target == domain.TargetLogin || target.Provider() != domain.ProviderGoogle {
		return "", false
	}
	return target, true
}

// pathTarget reads the target from /auth/<target>/...
func pathTarget(r *http.Request) domain.OAuthTarget {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 {
		return ""
	}
	return domain.OAuthTarget(parts[1])
}

func notConfiguredMessage(provider domain.ProviderType) string {
	switch provider {
	case domain.ProviderSlack:
		return "Slack OAuth is not configured. Set SLACK_CLIENT_ID and SLACK_CLIENT_SECRET in .env"
	case domain.ProviderDropbox:
		return "Dropbox OAuth is not configured. Set DROPBOX_APP_KEY and DROPBOX_APP_SECRET in .env"
	default:
		return "Google OAuth is not configured. Set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET in .env"
	}
}

// Helper functions

// writeServiceError maps domain errors to a status code.
// Validation failures echo the error; anything unexpected is logged and hidden.
func (s *Server) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrQueryRequired),
		errors.Is(err, domain.ErrQueryTooLong),
		errors.Is(err, domain.ErrUnknownService),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrInvalidFileType),
		errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrProviderNotConfigured),
		errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error(fallback, "error", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
