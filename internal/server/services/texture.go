package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/polarmc/yggdrasil/internal/common"
	"github.com/polarmc/yggdrasil/internal/imagex"
	"github.com/polarmc/yggdrasil/internal/logging"
	"github.com/polarmc/yggdrasil/internal/server/blobstore"
	"github.com/polarmc/yggdrasil/internal/server/config"
	"github.com/polarmc/yggdrasil/internal/server/models"
	"github.com/polarmc/yggdrasil/internal/server/repositories/repomanager"
)

// TextureService validates uploaded PNGs, stores them content-addressed in
// the blob store, and attaches or detaches them on profiles. Storage is
// keyed by SHA-256 so re-uploading identical bytes writes nothing new.
type TextureService struct {
	db           *sql.DB
	repos        repomanager.RepositoryManager
	blobs        blobstore.Store
	log          logging.Logger
	baseURL      string
	storeTimeout time.Duration
}

func NewTextureService(db *sql.DB, repos repomanager.RepositoryManager, blobs blobstore.Store, cfg *config.Config, log logging.Logger) *TextureService {
	return &TextureService{
		db:           db,
		repos:        repos,
		blobs:        blobs,
		log:          log.With("module", "texture_service"),
		baseURL:      strings.TrimRight(cfg.TextureBaseURL, "/"),
		storeTimeout: cfg.StoreTimeout,
	}
}

// UploadSkin validates, stores, and attaches a skin for the profile. The
// caller must hold a live token belonging to the profile's owner.
func (s *TextureService) UploadSkin(ctx context.Context, accessToken, profileID string, data []byte) (*imagex.Info, error) {
	return s.upload(ctx, accessToken, profileID, data, imagex.KindSkin)
}

// UploadCape validates, stores, and attaches a cape for the profile.
func (s *TextureService) UploadCape(ctx context.Context, accessToken, profileID string, data []byte) (*imagex.Info, error) {
	return s.upload(ctx, accessToken, profileID, data, imagex.KindCape)
}

// ResetSkin detaches the profile's skin. The stored texture bytes stay in
// the blob store; other profiles may reference the same hash.
func (s *TextureService) ResetSkin(ctx context.Context, accessToken, profileID string) error {
	return s.reset(ctx, accessToken, profileID, imagex.KindSkin)
}

// ResetCape detaches the profile's cape.
func (s *TextureService) ResetCape(ctx context.Context, accessToken, profileID string) error {
	return s.reset(ctx, accessToken, profileID, imagex.KindCape)
}

// GetTexture returns the stored PNG bytes for a hash, for serving texture
// URLs directly from this process. The metadata row is the source of truth
// for which hashes exist; a blob with no row is treated as unknown.
func (s *TextureService) GetTexture(ctx context.Context, hash string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	_, err := common.RetryWithResult(ctx, func(ctx context.Context) (*models.Texture, error) {
		return s.repos.Textures(s.db).GetByHash(ctx, hash)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}

	data, err := s.blobs.Get(ctx, blobKey(hash))
	if err != nil {
		return nil, common.ErrorNotFound
	}
	return data, nil
}

// TextureURL derives the public URL for a stored hash.
func (s *TextureService) TextureURL(hash string) string {
	return s.baseURL + "/textures/" + hash
}

func (s *TextureService) upload(ctx context.Context, accessToken, profileID string, data []byte, kind imagex.Kind) (*imagex.Info, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	token, profile, err := s.requireProfileAccess(ctx, accessToken, profileID)
	if err != nil {
		return nil, err
	}

	info, err := imagex.Validate(data, kind)
	if err != nil {
		return nil, err
	}

	// Blob first, row second: a crash between the two leaves an orphaned
	// blob, never a dangling metadata row.
	if err := s.blobs.Put(ctx, blobKey(info.Hash), data, "image/png"); err != nil {
		s.log.Error(ctx, "blob store write failed", "hash", info.Hash, "error", err)
		return nil, common.ErrorInternal
	}

	texture := &models.Texture{
		Hash:       info.Hash,
		Kind:       string(kind),
		Width:      info.Width,
		Height:     info.Height,
		Model:      info.Model,
		UploadedBy: token.UserID,
		IsPublic:   true,
	}
	err = common.Retry(ctx, func(ctx context.Context) error {
		inserted, err := s.repos.Textures(s.db).Put(ctx, texture)
		if err != nil {
			return err
		}
		if !inserted {
			s.log.Info(ctx, "texture deduplicated", "hash", info.Hash)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	url := s.TextureURL(info.Hash)
	err = common.Retry(ctx, func(ctx context.Context) error {
		if kind == imagex.KindSkin {
			return s.repos.Profiles(s.db).UpdateSkin(ctx, profile.ID, info.Hash, url, info.Model)
		}
		return s.repos.Profiles(s.db).UpdateCape(ctx, profile.ID, info.Hash, url)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "texture attached", "kind", kind, "profile", profile.Name, "hash", info.Hash)
	return info, nil
}

func (s *TextureService) reset(ctx context.Context, accessToken, profileID string, kind imagex.Kind) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	_, profile, err := s.requireProfileAccess(ctx, accessToken, profileID)
	if err != nil {
		return err
	}

	err = common.Retry(ctx, func(ctx context.Context) error {
		if kind == imagex.KindSkin {
			return s.repos.Profiles(s.db).UpdateSkin(ctx, profile.ID, "", "", "")
		}
		return s.repos.Profiles(s.db).UpdateCape(ctx, profile.ID, "", "")
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "texture detached", "kind", kind, "profile", profile.Name)
	return nil
}

// requireProfileAccess resolves the bearer token and the target profile and
// checks ownership. Token failures and ownership failures surface as
// different sentinels so the transport can keep its error contract.
func (s *TextureService) requireProfileAccess(ctx context.Context, accessToken, profileID string) (*models.AccessToken, *models.Profile, error) {
	token, err := common.RetryWithResult(ctx, func(ctx context.Context) (*models.AccessToken, error) {
		return s.repos.AccessTokens(s.db).FindLive(ctx, accessToken)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrInvalidToken
		}
		return nil, nil, err
	}

	if !common.IsUUID(profileID) {
		return nil, nil, common.ErrProfileNotFound
	}
	id := common.FormatUUID(common.StripUUID(profileID))
	profile, err := common.RetryWithResult(ctx, func(ctx context.Context) (*models.Profile, error) {
		return s.repos.Profiles(s.db).GetByID(ctx, id)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrProfileNotFound
		}
		return nil, nil, err
	}
	if profile.UserID != token.UserID {
		return nil, nil, common.ErrInvalidProfile
	}
	return token, profile, nil
}

func blobKey(hash string) string {
	return "textures/" + hash
}
