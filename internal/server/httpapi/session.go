package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/polarmc/yggdrasil/internal/common"
)

type joinRequest struct {
	AccessToken     string `json:"accessToken"`
	SelectedProfile string `json:"selectedProfile"`
	ServerID        string `json:"serverId"`
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.AccessToken == "" || req.SelectedProfile == "" || req.ServerID == "" {
		badRequest(w, "accessToken, selectedProfile and serverId are required.")
		return
	}

	err := s.sessions.Join(r.Context(), req.AccessToken, req.SelectedProfile, req.ServerID, clientIP(r))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleHasJoined answers the game server's verification call. A miss is a
// plain 204, not an error body; vanilla servers treat any non-200 as "not
// joined".
func (s *Server) handleHasJoined(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	username := q.Get("username")
	serverID := q.Get("serverId")
	if username == "" || serverID == "" {
		badRequest(w, "username and serverId are required.")
		return
	}

	profile, err := s.sessions.HasJoined(r.Context(), username, serverID, q.Get("ip"))
	if err != nil {
		if errors.Is(err, common.ErrNotJoined) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	unsigned := r.URL.Query().Get("unsigned") != "false"
	profile, err := s.profiles.GetPublicProfile(r.Context(), chi.URLParam(r, "uuid"), unsigned)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// handleProfileByName is the name-to-UUID lookup. Only id and name are
// returned; clients fetch textures through the profile endpoint.
func (s *Server) handleProfileByName(w http.ResponseWriter, r *http.Request) {
	profile, err := s.profiles.GetPublicProfileByName(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profilePayload{ID: profile.ID, Name: profile.Name})
}
