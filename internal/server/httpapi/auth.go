package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/polarmc/yggdrasil/internal/common"
)

// Wire shapes follow the launcher protocol: camelCase keys, undashed
// profile ids, optional fields omitted rather than nulled.

type agentPayload struct {
	Name    string `json:"name"`
	Version int    `json:"version"`
}

type profilePayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type userPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type authenticateRequest struct {
	Agent       *agentPayload `json:"agent,omitempty"`
	Username    string        `json:"username"`
	Password    string        `json:"password"`
	ClientToken string        `json:"clientToken,omitempty"`
	RequestUser bool          `json:"requestUser,omitempty"`
}

type authenticateResponse struct {
	AccessToken       string           `json:"accessToken"`
	ClientToken       string           `json:"clientToken"`
	AvailableProfiles []profilePayload `json:"availableProfiles"`
	SelectedProfile   profilePayload   `json:"selectedProfile"`
	User              *userPayload     `json:"user,omitempty"`
}

type tokenRequest struct {
	AccessToken     string          `json:"accessToken"`
	ClientToken     string          `json:"clientToken,omitempty"`
	SelectedProfile *profilePayload `json:"selectedProfile,omitempty"`
}

type refreshResponse struct {
	AccessToken     string         `json:"accessToken"`
	ClientToken     string         `json:"clientToken"`
	SelectedProfile profilePayload `json:"selectedProfile"`
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerResponse struct {
	ID      string         `json:"id"`
	Profile profilePayload `json:"profile"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "Malformed JSON body.")
		return false
	}
	return true
}

func (s *Server) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	var req authenticateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, common.ErrInvalidCredentials)
		return
	}

	res, err := s.tokens.Authenticate(r.Context(), req.Username, req.Password, req.ClientToken)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := authenticateResponse{
		AccessToken:       res.Token.AccessToken,
		ClientToken:       res.ClientToken,
		AvailableProfiles: make([]profilePayload, 0, len(res.Profiles)),
		SelectedProfile: profilePayload{
			ID:   common.StripUUID(res.Selected.ID),
			Name: res.Selected.Name,
		},
	}
	for _, p := range res.Profiles {
		resp.AvailableProfiles = append(resp.AvailableProfiles, profilePayload{
			ID:   common.StripUUID(p.ID),
			Name: p.Name,
		})
	}
	if req.RequestUser {
		resp.User = &userPayload{ID: common.StripUUID(res.User.ID), Username: res.User.Username}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.AccessToken == "" || req.ClientToken == "" {
		writeError(w, common.ErrInvalidToken)
		return
	}
	// sending selectedProfile to refresh is a protocol error upstream
	if req.SelectedProfile != nil {
		badRequest(w, "Access token already has a profile assigned.")
		return
	}

	token, profile, err := s.tokens.Refresh(r.Context(), req.AccessToken, req.ClientToken)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, refreshResponse{
		AccessToken: token.AccessToken,
		ClientToken: token.ClientToken,
		SelectedProfile: profilePayload{
			ID:   common.StripUUID(token.ProfileID),
			Name: profile.Name,
		},
	})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ok, err := s.tokens.Validate(r.Context(), req.AccessToken, req.ClientToken)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeError(w, common.ErrInvalidToken)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.tokens.Invalidate(r.Context(), req.AccessToken, req.ClientToken); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSignout(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.tokens.Signout(r.Context(), req.Username, req.Password); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" || req.Username == "" || req.Password == "" {
		badRequest(w, "email, username and password are required.")
		return
	}
	if len(req.Username) > 16 {
		badRequest(w, "username must be 16 characters or fewer.")
		return
	}

	user, profile, err := s.tokens.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{
		ID: common.StripUUID(user.ID),
		Profile: profilePayload{
			ID:   common.StripUUID(profile.ID),
			Name: profile.Name,
		},
	})
}
