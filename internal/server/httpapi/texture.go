package httpapi

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/polarmc/yggdrasil/internal/imagex"
)

// bearerToken extracts the access token from the Authorization header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return h[7:]
	}
	return ""
}

// readTextureBody reads the upload capped just past the texture limit so the
// validator, not the transport, produces the too-large error.
func readTextureBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(io.LimitReader(r.Body, imagex.MaxTextureBytes+1))
	if err != nil {
		badRequest(w, "Could not read request body.")
		return nil, false
	}
	return data, true
}

type uploadResponse struct {
	Hash  string `json:"hash"`
	URL   string `json:"url"`
	Model string `json:"model,omitempty"`
}

func (s *Server) handleUploadSkin(w http.ResponseWriter, r *http.Request) {
	s.handleUpload(w, r, s.textures.UploadSkin)
}

func (s *Server) handleUploadCape(w http.ResponseWriter, r *http.Request) {
	s.handleUpload(w, r, s.textures.UploadCape)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, upload func(ctx context.Context, accessToken, profileID string, data []byte) (*imagex.Info, error)) {
	data, ok := readTextureBody(w, r)
	if !ok {
		return
	}
	info, err := upload(r.Context(), bearerToken(r), chi.URLParam(r, "uuid"), data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{
		Hash:  info.Hash,
		URL:   s.textures.TextureURL(info.Hash),
		Model: info.Model,
	})
}

func (s *Server) handleResetSkin(w http.ResponseWriter, r *http.Request) {
	if err := s.textures.ResetSkin(r.Context(), bearerToken(r), chi.URLParam(r, "uuid")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetCape(w http.ResponseWriter, r *http.Request) {
	if err := s.textures.ResetCape(r.Context(), bearerToken(r), chi.URLParam(r, "uuid")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetTexture(w http.ResponseWriter, r *http.Request) {
	data, err := s.textures.GetTexture(r.Context(), chi.URLParam(r, "hash"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	_, _ = w.Write(data)
}
