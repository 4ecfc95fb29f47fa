package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/polarmc/yggdrasil/internal/common"
	"github.com/polarmc/yggdrasil/internal/dbx"
	"github.com/polarmc/yggdrasil/internal/logging"
	"github.com/polarmc/yggdrasil/internal/server/config"
	"github.com/polarmc/yggdrasil/internal/server/models"
	"github.com/polarmc/yggdrasil/internal/server/repositories/repomanager"
)

const sharedSecretBytes = 16

// SessionService implements the join/hasJoined handshake. A session is a
// short-lived, single-use claim "this profile intends to join this server";
// hasJoined is the one chance to redeem it.
type SessionService struct {
	db              *sql.DB
	repos           repomanager.RepositoryManager
	profiles        *ProfileService
	log             logging.Logger
	sessionValidity time.Duration
	storeTimeout    time.Duration
}

func NewSessionService(db *sql.DB, repos repomanager.RepositoryManager, profiles *ProfileService, cfg *config.Config, log logging.Logger) *SessionService {
	return &SessionService{
		db:              db,
		repos:           repos,
		profiles:        profiles,
		log:             log.With("module", "session_service"),
		sessionValidity: cfg.GameSessionValidityDuration,
		storeTimeout:    cfg.StoreTimeout,
	}
}

// Join records the client's intent to join serverID. The token must be live
// and selectedProfile must be the profile the token is bound to (compared
// dash-insensitively). Re-joining the same server replaces the previous
// session for that profile/server pair, so at most one is live per pair.
func (s *SessionService) Join(ctx context.Context, accessToken, selectedProfile, serverID, clientIP string) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	token, err := common.RetryWithResult(ctx, func(ctx context.Context) (*models.AccessToken, error) {
		return s.repos.AccessTokens(s.db).FindLive(ctx, accessToken)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidToken
		}
		return err
	}
	if common.StripUUID(selectedProfile) != common.StripUUID(token.ProfileID) {
		return common.ErrInvalidProfile
	}

	secret, err := common.MakeRandHexString(sharedSecretBytes)
	if err != nil {
		return common.ErrorInternal
	}
	session := &models.GameSession{
		ProfileID:    token.ProfileID,
		ServerID:     serverID,
		SharedSecret: secret,
		IPAddress:    clientIP,
		ExpiresAt:    time.Now().Add(s.sessionValidity),
	}

	err = common.Retry(ctx, func(ctx context.Context) error {
		return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			sessions := s.repos.GameSessions(tx)
			if err := sessions.DeleteForProfileServer(ctx, token.ProfileID, serverID); err != nil {
				return err
			}
			if _, err := sessions.Create(ctx, session); err != nil {
				return err
			}
			return s.repos.AccessTokens(tx).Touch(ctx, token.ID)
		})
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "session stored", "serverId", serverID, "profile_id", token.ProfileID)
	return nil
}

// HasJoined redeems the newest live session for serverID, checking the
// claimed username (case-insensitively) and, when both sides supply one, the
// client IP. The session is consumed exactly once: the conditional delete
// inside the transaction is what decides a race between two verifiers, and
// only the winner receives the profile. Every failure mode is ErrNotJoined.
func (s *SessionService) HasJoined(ctx context.Context, username, serverID, clientIP string) (*ProfileResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	var profile *models.Profile
	err := common.Retry(ctx, func(ctx context.Context) error {
		profile = nil
		return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			session, err := s.repos.GameSessions(tx).FindLiveByServer(ctx, serverID)
			if err != nil {
				if errors.Is(err, common.ErrorNotFound) {
					return common.ErrNotJoined
				}
				return err
			}
			p, err := s.repos.Profiles(tx).GetByID(ctx, session.ProfileID)
			if err != nil {
				if errors.Is(err, common.ErrorNotFound) {
					return common.ErrNotJoined
				}
				return err
			}
			if !strings.EqualFold(p.Name, username) {
				return common.ErrNotJoined
			}
			if clientIP != "" && session.IPAddress != "" && session.IPAddress != clientIP {
				return common.ErrNotJoined
			}
			consumed, err := s.repos.GameSessions(tx).Consume(ctx, session.ID)
			if err != nil {
				return err
			}
			if !consumed {
				// another verifier got there first
				return common.ErrNotJoined
			}
			profile = p
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "session verified", "serverId", serverID, "profile", profile.Name)
	return s.profiles.Resolve(profile, false), nil
}

// SweepExpired deletes sessions whose expiry has passed and reports how many
// were removed. Run periodically; correctness does not depend on it since
// FindLiveByServer filters on expiry anyway.
func (s *SessionService) SweepExpired(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	n, err := common.RetryWithResult(ctx, func(ctx context.Context) (int64, error) {
		return s.repos.GameSessions(s.db).DeleteExpired(ctx, time.Now())
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info(ctx, "expired sessions swept", "count", n)
	}
	return n, nil
}
