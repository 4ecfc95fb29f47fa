// Package services contains the protocol engine: token issuance and
// rotation, the join/hasJoined handshake, profile resolution, and texture
// storage. Services hold no global state; everything is injected at
// construction.
package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/polarmc/yggdrasil/internal/common"
	"github.com/polarmc/yggdrasil/internal/dbx"
	"github.com/polarmc/yggdrasil/internal/logging"
	"github.com/polarmc/yggdrasil/internal/server/config"
	"github.com/polarmc/yggdrasil/internal/server/models"
	"github.com/polarmc/yggdrasil/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

const accessTokenBytes = 32 // 256 bits of entropy per token value

// dummyHash is a valid bcrypt digest compared against when the user row is
// absent, so the failure path costs the same as a wrong password and does
// not leak account existence through timing.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// AuthResult is what a successful Authenticate hands back to the transport.
type AuthResult struct {
	Token       *models.AccessToken
	ClientToken string
	Profiles    []*models.Profile
	Selected    *models.Profile
	User        *models.User
}

// TokenService implements the token manager: Authenticate, Refresh,
// Validate, Invalidate, Signout, plus account registration.
type TokenService struct {
	db            *sql.DB
	repos         repomanager.RepositoryManager
	log           logging.Logger
	tokenValidity time.Duration
	bcryptCost    int
	storeTimeout  time.Duration
}

// NewTokenService constructs a TokenService using repositories and server config.
func NewTokenService(db *sql.DB, repos repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *TokenService {
	return &TokenService{
		db:            db,
		repos:         repos,
		log:           log.With("module", "token_service"),
		tokenValidity: cfg.AccessTokenValidityDuration,
		bcryptCost:    cfg.BcryptCost,
		storeTimeout:  cfg.StoreTimeout,
	}
}

// Register creates a user and a same-named public profile in one
// transaction. Duplicate email, username or profile name yields
// common.ErrAlreadyExists.
func (s *TokenService) Register(ctx context.Context, email, username, password string) (*models.User, *models.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	pw := []byte(password)
	defer common.WipeByteArray(pw)
	hash, err := bcrypt.GenerateFromPassword(pw, s.bcryptCost)
	if err != nil {
		return nil, nil, common.ErrorInternal
	}

	user := &models.User{Email: email, Username: username, PasswordHash: string(hash)}
	profile := &models.Profile{Name: username, IsPublic: true}

	err = common.Retry(ctx, func(ctx context.Context) error {
		return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			u, err := s.repos.Users(tx).Create(ctx, user)
			if err != nil {
				return err
			}
			user = u
			profile.UserID = u.ID
			p, err := s.repos.Profiles(tx).Create(ctx, profile)
			if err != nil {
				return err
			}
			profile = p
			return nil
		})
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Info(ctx, "user registered", "username", username)
	return user, profile, nil
}

// Authenticate verifies credentials and mints a fresh access token bound to
// the user's first profile (a fixed, deterministic choice). clientToken is
// caller-supplied or generated; it is an opaque correlation id, never
// derived from credentials.
//
// Absent user, inactive user and wrong password all collapse to
// ErrInvalidCredentials.
func (s *TokenService) Authenticate(ctx context.Context, identifier, password, clientToken string) (*AuthResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	user, err := s.verifyCredentials(ctx, identifier, password)
	if err != nil {
		return nil, err
	}

	profiles, err := common.RetryWithResult(ctx, func(ctx context.Context) ([]*models.Profile, error) {
		return s.repos.Profiles(s.db).ListByUserID(ctx, user.ID)
	})
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		s.log.Warn(ctx, "authenticate: user without profile", "user_id", user.ID)
		return nil, common.ErrInvalidCredentials
	}
	selected := profiles[0]

	value, err := common.MakeRandHexString(accessTokenBytes)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if clientToken == "" {
		clientToken = uuid.NewString()
	}

	token := &models.AccessToken{
		UserID:      user.ID,
		ProfileID:   selected.ID,
		AccessToken: value,
		ClientToken: clientToken,
		ExpiresAt:   time.Now().Add(s.tokenValidity),
	}
	token, err = common.RetryWithResult(ctx, func(ctx context.Context) (*models.AccessToken, error) {
		return s.repos.AccessTokens(s.db).Create(ctx, token)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "token issued", "user_id", user.ID, "profile", selected.Name)
	return &AuthResult{
		Token:       token,
		ClientToken: clientToken,
		Profiles:    profiles,
		Selected:    selected,
		User:        user,
	}, nil
}

// Refresh rotates the token value of the live token matching both values and
// extends expiry by the fixed window. Row identity, user and profile
// bindings are preserved; only the value and expiry change. The bound
// profile is returned alongside so transports can echo it.
func (s *TokenService) Refresh(ctx context.Context, accessToken, clientToken string) (*models.AccessToken, *models.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	newValue, err := common.MakeRandHexString(accessTokenBytes)
	if err != nil {
		return nil, nil, common.ErrorInternal
	}

	token, err := common.RetryWithResult(ctx, func(ctx context.Context) (*models.AccessToken, error) {
		return s.repos.AccessTokens(s.db).Rotate(ctx, accessToken, clientToken, newValue, time.Now().Add(s.tokenValidity))
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrInvalidToken
		}
		return nil, nil, err
	}

	profile, err := common.RetryWithResult(ctx, func(ctx context.Context) (*models.Profile, error) {
		return s.repos.Profiles(s.db).GetByID(ctx, token.ProfileID)
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Info(ctx, "token rotated", "token_id", token.ID)
	return token, profile, nil
}

// Validate is a pure liveness check. The clientToken match is enforced only
// when the caller supplies one; callers holding just the access token get
// the asymmetric check the upstream protocol allows.
func (s *TokenService) Validate(ctx context.Context, accessToken, clientToken string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	token, err := common.RetryWithResult(ctx, func(ctx context.Context) (*models.AccessToken, error) {
		return s.repos.AccessTokens(s.db).FindLive(ctx, accessToken)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	if clientToken != "" && token.ClientToken != clientToken {
		return false, nil
	}
	return true, nil
}

// Invalidate revokes the single token matching both values. Invalidating an
// already-invalid or nonexistent token is not an error at the protocol
// boundary.
func (s *TokenService) Invalidate(ctx context.Context, accessToken, clientToken string) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	return common.Retry(ctx, func(ctx context.Context) error {
		return s.repos.AccessTokens(s.db).Deactivate(ctx, accessToken, clientToken)
	})
}

// Signout re-verifies credentials and revokes every token the user owns: a
// logout-everywhere operation. Bad credentials fail with
// ErrInvalidCredentials regardless of which tokens exist.
func (s *TokenService) Signout(ctx context.Context, identifier, password string) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	user, err := s.verifyCredentials(ctx, identifier, password)
	if err != nil {
		return err
	}

	err = common.Retry(ctx, func(ctx context.Context) error {
		return s.repos.AccessTokens(s.db).DeactivateAllForUser(ctx, user.ID)
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "signed out everywhere", "user_id", user.ID)
	return nil
}

// verifyCredentials maps every failure mode (absent user, inactive user,
// password mismatch) to the same ErrInvalidCredentials. The plaintext copy
// handed to bcrypt is zeroed before returning.
func (s *TokenService) verifyCredentials(ctx context.Context, identifier, password string) (*models.User, error) {
	pw := []byte(password)
	defer common.WipeByteArray(pw)

	user, err := common.RetryWithResult(ctx, func(ctx context.Context) (*models.User, error) {
		return s.repos.Users(s.db).GetByEmail(ctx, identifier)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// burn a compare anyway, see dummyHash
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), pw)
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), pw); err != nil {
		return nil, common.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, common.ErrInvalidCredentials
	}
	return user, nil
}
