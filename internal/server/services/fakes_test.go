package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/polarmc/yggdrasil/internal/common"
	"github.com/polarmc/yggdrasil/internal/dbx"
	"github.com/polarmc/yggdrasil/internal/imagex"
	"github.com/polarmc/yggdrasil/internal/logging"
	"github.com/polarmc/yggdrasil/internal/server/config"
	"github.com/polarmc/yggdrasil/internal/server/models"
	"github.com/polarmc/yggdrasil/internal/server/repositories/accesstokens"
	"github.com/polarmc/yggdrasil/internal/server/repositories/gamesessions"
	"github.com/polarmc/yggdrasil/internal/server/repositories/profiles"
	"github.com/polarmc/yggdrasil/internal/server/repositories/repomanager"
	"github.com/polarmc/yggdrasil/internal/server/repositories/textures"
	"github.com/polarmc/yggdrasil/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"

	_ "modernc.org/sqlite"
)

// In-memory repositories honoring the same contracts as the postgres ones,
// so service tests exercise real protocol flow without a database. The
// transactional services still need a DB to open transactions against; an
// in-memory sqlite handle serves, the fakes simply ignore which DBTX they
// were vended for.

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.BcryptCost = bcrypt.MinCost
	cfg.StoreTimeout = 2 * time.Second
	return cfg
}

type fakeRepos struct {
	users    *fakeUsers
	profiles *fakeProfiles
	tokens   *fakeTokens
	sessions *fakeSessions
	textures *fakeTextures
}

var _ repomanager.RepositoryManager = (*fakeRepos)(nil)

func newFakeRepos() *fakeRepos {
	return &fakeRepos{
		users:    &fakeUsers{byID: map[string]*models.User{}},
		profiles: &fakeProfiles{byID: map[string]*models.Profile{}},
		tokens:   &fakeTokens{byID: map[string]*models.AccessToken{}},
		sessions: &fakeSessions{byID: map[string]*models.GameSession{}},
		textures: &fakeTextures{byHash: map[string]*models.Texture{}},
	}
}

func (f *fakeRepos) RunMigrations(context.Context, *sql.DB) error  { return nil }
func (f *fakeRepos) Users(dbx.DBTX) users.Repository               { return f.users }
func (f *fakeRepos) Profiles(dbx.DBTX) profiles.Repository         { return f.profiles }
func (f *fakeRepos) AccessTokens(dbx.DBTX) accesstokens.Repository { return f.tokens }
func (f *fakeRepos) GameSessions(dbx.DBTX) gamesessions.Repository { return f.sessions }
func (f *fakeRepos) Textures(dbx.DBTX) textures.Repository         { return f.textures }

type fakeUsers struct {
	mu   sync.Mutex
	byID map[string]*models.User
}

func (f *fakeUsers) Create(_ context.Context, user *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == user.Email || u.Username == user.Username {
			return nil, common.ErrAlreadyExists
		}
	}
	stored := *user
	stored.ID = uuid.NewString()
	stored.IsActive = true
	stored.CreatedAt = time.Now()
	f.byID[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *u
	return &out, nil
}

func (f *fakeUsers) setActive(id string, active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		u.IsActive = active
	}
}

type fakeProfiles struct {
	mu    sync.Mutex
	byID  map[string]*models.Profile
	order []string
}

func (f *fakeProfiles) Create(_ context.Context, profile *models.Profile) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byID {
		if strings.EqualFold(p.Name, profile.Name) {
			return nil, common.ErrAlreadyExists
		}
	}
	stored := *profile
	stored.ID = uuid.NewString()
	if stored.SkinModel == "" {
		stored.SkinModel = imagex.ModelClassic
	}
	stored.CreatedAt = time.Now()
	f.byID[stored.ID] = &stored
	f.order = append(f.order, stored.ID)
	out := stored
	return &out, nil
}

func (f *fakeProfiles) GetByID(_ context.Context, id string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *p
	return &out, nil
}

func (f *fakeProfiles) GetByName(_ context.Context, name string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byID {
		if p.Name == name {
			out := *p
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeProfiles) ListByUserID(_ context.Context, userID string) ([]*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []*models.Profile
	for _, id := range f.order {
		if p := f.byID[id]; p != nil && p.UserID == userID {
			out := *p
			res = append(res, &out)
		}
	}
	return res, nil
}

func (f *fakeProfiles) UpdateSkin(_ context.Context, profileID, hash, url, model string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[profileID]
	if !ok {
		return common.ErrorNotFound
	}
	p.SkinHash, p.SkinURL = hash, url
	if model == "" {
		model = imagex.ModelClassic
	}
	p.SkinModel = model
	return nil
}

func (f *fakeProfiles) UpdateCape(_ context.Context, profileID, hash, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[profileID]
	if !ok {
		return common.ErrorNotFound
	}
	p.CapeHash, p.CapeURL = hash, url
	return nil
}

type fakeTokens struct {
	mu   sync.Mutex
	byID map[string]*models.AccessToken
}

func (f *fakeTokens) Create(_ context.Context, token *models.AccessToken) (*models.AccessToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *token
	stored.ID = uuid.NewString()
	stored.IsActive = true
	stored.CreatedAt = time.Now()
	f.byID[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (f *fakeTokens) FindLive(_ context.Context, accessToken string) (*models.AccessToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for _, t := range f.byID {
		if t.AccessToken == accessToken && t.Live(now) {
			out := *t
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeTokens) Rotate(_ context.Context, accessToken, clientToken, newValue string, expiresAt time.Time) (*models.AccessToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for _, t := range f.byID {
		if t.AccessToken == accessToken && t.ClientToken == clientToken && t.Live(now) {
			t.AccessToken = newValue
			t.ExpiresAt = expiresAt
			t.LastUsedAt = now
			out := *t
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeTokens) Touch(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.byID[id]; ok {
		t.LastUsedAt = time.Now()
	}
	return nil
}

func (f *fakeTokens) Deactivate(_ context.Context, accessToken, clientToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.byID {
		if t.AccessToken == accessToken && t.ClientToken == clientToken {
			t.IsActive = false
		}
	}
	return nil
}

func (f *fakeTokens) DeactivateAllForUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.byID {
		if t.UserID == userID {
			t.IsActive = false
		}
	}
	return nil
}

func (f *fakeTokens) expire(accessToken string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.byID {
		if t.AccessToken == accessToken {
			t.ExpiresAt = time.Now().Add(-time.Minute)
		}
	}
}

type fakeSessions struct {
	mu   sync.Mutex
	byID map[string]*models.GameSession
	seq  int
}

func (f *fakeSessions) Create(_ context.Context, session *models.GameSession) (*models.GameSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *session
	stored.ID = uuid.NewString()
	f.seq++
	stored.CreatedAt = time.Now().Add(time.Duration(f.seq) * time.Microsecond)
	f.byID[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (f *fakeSessions) DeleteForProfileServer(_ context.Context, profileID, serverID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, s := range f.byID {
		if s.ProfileID == profileID && s.ServerID == serverID {
			delete(f.byID, id)
		}
	}
	return nil
}

func (f *fakeSessions) FindLiveByServer(_ context.Context, serverID string) (*models.GameSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	var live []*models.GameSession
	for _, s := range f.byID {
		if s.ServerID == serverID && s.ExpiresAt.After(now) {
			live = append(live, s)
		}
	}
	if len(live) == 0 {
		return nil, common.ErrorNotFound
	}
	sort.Slice(live, func(i, j int) bool { return live[i].CreatedAt.After(live[j].CreatedAt) })
	out := *live[0]
	return &out, nil
}

func (f *fakeSessions) Consume(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return false, nil
	}
	delete(f.byID, id)
	return true, nil
}

func (f *fakeSessions) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, s := range f.byID {
		if s.ExpiresAt.Before(before) {
			delete(f.byID, id)
			n++
		}
	}
	return n, nil
}

type fakeTextures struct {
	mu     sync.Mutex
	byHash map[string]*models.Texture
	puts   int
}

func (f *fakeTextures) Put(_ context.Context, texture *models.Texture) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if _, ok := f.byHash[texture.Hash]; ok {
		return false, nil
	}
	stored := *texture
	stored.CreatedAt = time.Now()
	f.byHash[stored.Hash] = &stored
	return true, nil
}

func (f *fakeTextures) GetByHash(_ context.Context, hash string) (*models.Texture, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byHash[hash]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *t
	return &out, nil
}
