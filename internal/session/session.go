// Package session holds the bearer token used to authorize gateway
// calls and the coarse role used for navigation gating. Like the cart,
// the manager is a session-scoped singleton.
package session

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mlefevre/storefront/internal/metrics"
	"github.com/mlefevre/storefront/internal/models"
	"github.com/mlefevre/storefront/internal/storage"
)

// persisted is the one canonical record kept under storage.KeySession.
type persisted struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

type Manager struct {
	mu    sync.Mutex
	token string
	role  models.Role
	user  *models.User
	state storage.Store
	log   *slog.Logger

	// onInvalidate is the redirect-to-login hook, fired at most once per
	// established session no matter how many concurrent requests observe
	// an unauthorized response.
	onInvalidate func()
}

func NewManager(state storage.Store, log *slog.Logger) *Manager {
	m := &Manager{state: state, log: log, role: models.RoleGuest}
	m.restore()

	return m
}

// OnInvalidate registers the forced-logout hook.
func (m *Manager) OnInvalidate(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.onInvalidate = fn
}

// restore loads the canonical record, falling back to a one-time
// migration read of the legacy token key. Tokens already expired are
// dropped; an absent token always means guest.
func (m *Manager) restore() {
	raw, ok := m.state.Get(storage.KeySession)
	if ok {
		var rec persisted
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			m.log.Warn("discarding corrupted persisted session", slog.String("error", err.Error()))
			m.deletePersisted()

			return
		}

		m.adoptRestored(rec.Token, models.ParseRole(rec.Role))

		return
	}

	// Legacy key migration: read once, rewrite under the canonical key,
	// delete the old one. No perpetual dual writes.
	legacy, ok := m.state.Get(storage.KeyLegacyToken)
	if !ok || legacy == "" {
		return
	}

	m.log.Info("migrating session token from legacy key")
	m.adoptRestored(legacy, models.RoleUser)

	if err := m.state.Delete(storage.KeyLegacyToken); err != nil {
		m.log.Warn("failed to delete legacy token key", slog.String("error", err.Error()))
	}
}

func (m *Manager) adoptRestored(token string, role models.Role) {
	if token == "" || tokenExpired(token) {
		m.deletePersisted()

		return
	}

	m.token = token
	m.role = role
	m.persistLocked()
}

// tokenExpired inspects the JWT exp claim without verifying the
// signature; verification is the server's job. Tokens that cannot be
// parsed are kept and left for the server to reject.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}

	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return exp.Before(time.Now())
}

// SetToken stores the credential. An empty token clears the token, the
// role and any cached profile, and erases the persisted record.
func (m *Manager) SetToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if token == "" {
		m.clearLocked()

		return
	}

	m.token = token
	if m.role == models.RoleGuest {
		m.role = models.RoleUser
	}

	m.persistLocked()
}

// SetUser caches the profile from a login/register response and adopts
// its role.
func (m *Manager) SetUser(u models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user := u
	m.user = &user
	m.role = models.ParseRole(u.Role)
	m.persistLocked()
}

func (m *Manager) Logout() {
	m.SetToken("")
}

// Invalidate is the forced logout on an unauthorized response. The clear
// and the hook fire exactly once per established session; concurrent
// in-flight requests seeing the same dead credential are no-ops.
func (m *Manager) Invalidate() {
	m.mu.Lock()

	if m.token == "" {
		m.mu.Unlock()

		return
	}

	m.clearLocked()
	hook := m.onInvalidate
	m.mu.Unlock()

	m.log.Info("session invalidated by unauthorized response")
	metrics.CountSessionInvalidation()

	if hook != nil {
		hook()
	}
}

// Token satisfies the gateway's token source.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.token
}

// Role is guest whenever no token is present, regardless of stored value.
func (m *Manager) Role() models.Role {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token == "" {
		return models.RoleGuest
	}

	return m.role
}

func (m *Manager) User() *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.user == nil {
		return nil
	}

	user := *m.user

	return &user
}

func (m *Manager) Authenticated() bool {
	return m.Token() != ""
}

func (m *Manager) clearLocked() {
	m.token = ""
	m.role = models.RoleGuest
	m.user = nil
	m.deletePersisted()
}

func (m *Manager) persistLocked() {
	raw, err := json.Marshal(persisted{Token: m.token, Role: string(m.role)})
	if err != nil {
		m.log.Warn("failed to encode session", slog.String("error", err.Error()))

		return
	}

	if err := m.state.Set(storage.KeySession, string(raw)); err != nil {
		m.log.Warn("failed to persist session", slog.String("error", err.Error()))
	}
}

func (m *Manager) deletePersisted() {
	if err := m.state.Delete(storage.KeySession); err != nil {
		m.log.Warn("failed to erase persisted session", slog.String("error", err.Error()))
	}
}
