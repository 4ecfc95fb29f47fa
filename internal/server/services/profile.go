package services

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/polarmc/yggdrasil/internal/common"
	"github.com/polarmc/yggdrasil/internal/imagex"
	"github.com/polarmc/yggdrasil/internal/logging"
	"github.com/polarmc/yggdrasil/internal/server/config"
	"github.com/polarmc/yggdrasil/internal/server/models"
	"github.com/polarmc/yggdrasil/internal/server/repositories/repomanager"
)

// Property is a named, base64-valued profile attribute. Signature is only
// emitted when set; this deployment does not sign properties.
type Property struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Signature string `json:"signature,omitempty"`
}

// ProfileResponse is the wire form of a resolved profile: undashed id,
// display name and the properties list. Properties is always present, empty
// when the profile carries no textures.
type ProfileResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Properties []Property `json:"properties"`
}

type textureEntry struct {
	URL      string           `json:"url"`
	Metadata *textureMetadata `json:"metadata,omitempty"`
}

type textureMetadata struct {
	Model string `json:"model"`
}

type texturesSection struct {
	Skin *textureEntry `json:"SKIN,omitempty"`
	Cape *textureEntry `json:"CAPE,omitempty"`
}

type texturePayload struct {
	Timestamp   int64           `json:"timestamp"`
	ProfileID   string          `json:"profileId"`
	ProfileName string          `json:"profileName"`
	Textures    texturesSection `json:"textures"`
}

// ProfileService resolves profiles to their wire representation.
type ProfileService struct {
	db           *sql.DB
	repos        repomanager.RepositoryManager
	log          logging.Logger
	storeTimeout time.Duration
}

func NewProfileService(db *sql.DB, repos repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *ProfileService {
	return &ProfileService{
		db:           db,
		repos:        repos,
		log:          log.With("module", "profile_service"),
		storeTimeout: cfg.StoreTimeout,
	}
}

// Resolve builds the wire form of a profile. When the profile has at least
// one texture a "textures" property is attached: base64 of a JSON document
// carrying an epoch-millisecond timestamp, the undashed profile id, the
// name, and per-slot URLs. Slim skins carry metadata.model = "slim";
// classic skins carry no metadata at all. The unsigned flag is accepted for
// upstream compatibility; responses are never signed here, so it changes
// nothing.
func (s *ProfileService) Resolve(profile *models.Profile, unsigned bool) *ProfileResponse {
	resp := &ProfileResponse{
		ID:         common.StripUUID(profile.ID),
		Name:       profile.Name,
		Properties: []Property{},
	}

	if profile.SkinURL == "" && profile.CapeURL == "" {
		return resp
	}

	payload := texturePayload{
		Timestamp:   time.Now().UnixMilli(),
		ProfileID:   common.StripUUID(profile.ID),
		ProfileName: profile.Name,
	}
	if profile.SkinURL != "" {
		entry := &textureEntry{URL: profile.SkinURL}
		if profile.SkinModel == imagex.ModelSlim {
			entry.Metadata = &textureMetadata{Model: imagex.ModelSlim}
		}
		payload.Textures.Skin = entry
	}
	if profile.CapeURL != "" {
		payload.Textures.Cape = &textureEntry{URL: profile.CapeURL}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		// payload is built from plain strings, this cannot happen
		s.log.Error(context.Background(), "texture payload marshal failed", "error", err)
		return resp
	}

	resp.Properties = append(resp.Properties, Property{
		Name:  "textures",
		Value: base64.StdEncoding.EncodeToString(raw),
	})
	return resp
}

// GetPublicProfile resolves a profile by id for the anonymous lookup
// endpoint. Nonexistent, hidden and owner-deactivated profiles are all
// reported as ErrProfileNotFound so the endpoint cannot be used to discover
// which of the three it was.
func (s *ProfileService) GetPublicProfile(ctx context.Context, profileID string, unsigned bool) (*ProfileResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if !common.IsUUID(profileID) {
		return nil, common.ErrProfileNotFound
	}
	id := common.FormatUUID(common.StripUUID(profileID))

	profile, err := common.RetryWithResult(ctx, func(ctx context.Context) (*models.Profile, error) {
		return s.repos.Profiles(s.db).GetByID(ctx, id)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrProfileNotFound
		}
		return nil, err
	}
	if !profile.IsPublic {
		return nil, common.ErrProfileNotFound
	}

	user, err := common.RetryWithResult(ctx, func(ctx context.Context) (*models.User, error) {
		return s.repos.Users(s.db).GetByID(ctx, profile.UserID)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrProfileNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, common.ErrProfileNotFound
	}

	return s.Resolve(profile, unsigned), nil
}

// GetPublicProfileByName resolves a profile by display name for the
// name-to-UUID lookup endpoint. The same hiding rules as GetPublicProfile
// apply: unknown, hidden and owner-deactivated names are indistinguishable.
func (s *ProfileService) GetPublicProfileByName(ctx context.Context, name string) (*ProfileResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if name == "" {
		return nil, common.ErrProfileNotFound
	}

	profile, err := common.RetryWithResult(ctx, func(ctx context.Context) (*models.Profile, error) {
		return s.repos.Profiles(s.db).GetByName(ctx, name)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrProfileNotFound
		}
		return nil, err
	}
	if !profile.IsPublic {
		return nil, common.ErrProfileNotFound
	}

	user, err := common.RetryWithResult(ctx, func(ctx context.Context) (*models.User, error) {
		return s.repos.Users(s.db).GetByID(ctx, profile.UserID)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrProfileNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, common.ErrProfileNotFound
	}

	return s.Resolve(profile, true), nil
}
