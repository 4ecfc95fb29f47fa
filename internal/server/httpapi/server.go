package httpapi

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/polarmc/yggdrasil/internal/imagex"
	"github.com/polarmc/yggdrasil/internal/logging"
	"github.com/polarmc/yggdrasil/internal/server/models"
	"github.com/polarmc/yggdrasil/internal/server/services"
)

// TokenAPI is the slice of the token service the HTTP layer needs.
type TokenAPI interface {
	Register(ctx context.Context, email, username, password string) (*models.User, *models.Profile, error)
	Authenticate(ctx context.Context, identifier, password, clientToken string) (*services.AuthResult, error)
	Refresh(ctx context.Context, accessToken, clientToken string) (*models.AccessToken, *models.Profile, error)
	Validate(ctx context.Context, accessToken, clientToken string) (bool, error)
	Invalidate(ctx context.Context, accessToken, clientToken string) error
	Signout(ctx context.Context, identifier, password string) error
}

// SessionAPI is the join/hasJoined handshake.
type SessionAPI interface {
	Join(ctx context.Context, accessToken, selectedProfile, serverID, clientIP string) error
	HasJoined(ctx context.Context, username, serverID, clientIP string) (*services.ProfileResponse, error)
}

// ProfileAPI resolves public profiles.
type ProfileAPI interface {
	GetPublicProfile(ctx context.Context, profileID string, unsigned bool) (*services.ProfileResponse, error)
	GetPublicProfileByName(ctx context.Context, name string) (*services.ProfileResponse, error)
}

// TextureAPI uploads, resets and serves textures.
type TextureAPI interface {
	UploadSkin(ctx context.Context, accessToken, profileID string, data []byte) (*imagex.Info, error)
	UploadCape(ctx context.Context, accessToken, profileID string, data []byte) (*imagex.Info, error)
	ResetSkin(ctx context.Context, accessToken, profileID string) error
	ResetCape(ctx context.Context, accessToken, profileID string) error
	GetTexture(ctx context.Context, hash string) ([]byte, error)
	TextureURL(hash string) string
}

// Server wires the services into an http.Server speaking the launcher and
// game-server protocol.
type Server struct {
	tokens   TokenAPI
	sessions SessionAPI
	profiles ProfileAPI
	textures TextureAPI
	log      logging.Logger
	httpSrv  *http.Server
}

func NewServer(addr string, tokens TokenAPI, sessions SessionAPI, profiles ProfileAPI, textures TextureAPI, log logging.Logger) *Server {
	s := &Server{
		tokens:   tokens,
		sessions: sessions,
		profiles: profiles,
		textures: textures,
		log:      log.With("module", "httpapi"),
	}
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router builds the chi route tree. Exposed separately so tests can drive
// handlers through httptest without binding a socket.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/authserver", func(r chi.Router) {
		r.Post("/authenticate", s.handleAuthenticate)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/validate", s.handleValidate)
		r.Post("/invalidate", s.handleInvalidate)
		r.Post("/signout", s.handleSignout)
	})

	r.Route("/sessionserver/session/minecraft", func(r chi.Router) {
		r.Post("/join", s.handleJoin)
		r.Get("/hasJoined", s.handleHasJoined)
		r.Get("/profile/{uuid}", s.handleProfile)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Put("/profiles/{uuid}/skin", s.handleUploadSkin)
		r.Delete("/profiles/{uuid}/skin", s.handleResetSkin)
		r.Put("/profiles/{uuid}/cape", s.handleUploadCape)
		r.Delete("/profiles/{uuid}/cape", s.handleResetCape)
	})

	r.Get("/users/profiles/minecraft/{username}", s.handleProfileByName)

	r.Get("/textures/{hash}", s.handleGetTexture)

	return r
}

// Run serves until ctx is cancelled, then drains with a grace period.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "http server listening", "addr", s.httpSrv.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(shutdownCtx)
}

// clientIP extracts the remote IP, already rewritten by middleware.RealIP
// when a proxy header was present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
