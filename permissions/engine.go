package permissions

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"planvite/models"

	"gorm.io/gorm"
)

// DefaultCacheTTL bounds how long a resolved permission set is reused before
// it is re-read from the store. Role changes call Invalidate explicitly, so
// the TTL only matters for out-of-band edits to the role_permissions table.
const DefaultCacheTTL = 5 * time.Minute

// MembershipSource supplies the two rows the engine resolves from. The
// production implementation reads organization_members and role_permissions;
// tests substitute fakes.
type MembershipSource interface {
	// Membership returns the role and status for (userID, orgID).
	// gorm.ErrRecordNotFound when no membership exists.
	Membership(ctx context.Context, userID, orgID uint) (role string, status string, err error)

	// PermissionSet returns the two permission collections for a role.
	// gorm.ErrRecordNotFound when the role has no row.
	PermissionSet(ctx context.Context, role string) (eventPerms, systemPerms []string, err error)
}

// Engine answers "can this user perform this action in this organization".
// Every check fails closed: no identity, no membership, missing or malformed
// permission rows and store errors all resolve to a plain false. Checks never
// return an error to the caller.
type Engine struct {
	source MembershipSource
	logger *log.Logger
	ttl    time.Duration

	mu    sync.RWMutex
	cache map[cacheKey]cacheEntry
}

type cacheKey struct {
	UserID uint
	OrgID  uint
}

type cacheEntry struct {
	res       resolution
	expiresAt time.Time
}

type resolution struct {
	role        string
	eventPerms  map[string]struct{}
	systemPerms map[string]struct{}
}

// NewEngine creates an engine backed by the database.
func NewEngine(db *gorm.DB, logger *log.Logger) *Engine {
	return NewEngineWithSource(&gormSource{db: db}, logger)
}

// NewEngineWithSource creates an engine over an arbitrary membership source.
func NewEngineWithSource(source MembershipSource, logger *log.Logger) *Engine {
	return &Engine{
		source: source,
		logger: logger,
		ttl:    DefaultCacheTTL,
		cache:  make(map[cacheKey]cacheEntry),
	}
}

// HasEventPermission reports whether the user's role in the organization
// grants the given event-scoped permission.
func (e *Engine) HasEventPermission(ctx context.Context, userID, orgID uint, perm string) bool {
	res, ok := e.resolve(ctx, userID, orgID)
	if !ok {
		return false
	}
	_, granted := res.eventPerms[perm]
	return granted
}

// HasAllEventPermissions reports whether every listed permission is granted.
// An empty list is vacuously true; callers must not read that as "has at
// least one relevant permission".
func (e *Engine) HasAllEventPermissions(ctx context.Context, userID, orgID uint, perms []string) bool {
	for _, p := range perms {
		if !e.HasEventPermission(ctx, userID, orgID, p) {
			return false
		}
	}
	return true
}

// HasSystemPermission reports whether the user's role grants the given
// system-scoped token.
func (e *Engine) HasSystemPermission(ctx context.Context, userID, orgID uint, token string) bool {
	res, ok := e.resolve(ctx, userID, orgID)
	if !ok {
		return false
	}
	_, granted := res.systemPerms[token]
	return granted
}

// Role returns the resolved role for (user, org), or "" when resolution
// fails. Handlers use it for display only, never for authorization.
func (e *Engine) Role(ctx context.Context, userID, orgID uint) string {
	res, ok := e.resolve(ctx, userID, orgID)
	if !ok {
		return ""
	}
	return res.role
}

// Invalidate drops the cached resolution for one (user, org) pair. Called
// after role changes and member removal.
func (e *Engine) Invalidate(userID, orgID uint) {
	e.mu.Lock()
	delete(e.cache, cacheKey{UserID: userID, OrgID: orgID})
	e.mu.Unlock()
}

// InvalidateUser drops every cached resolution for a user. Called on
// sign-out and account deactivation.
func (e *Engine) InvalidateUser(userID uint) {
	e.mu.Lock()
	for k := range e.cache {
		if k.UserID == userID {
			delete(e.cache, k)
		}
	}
	e.mu.Unlock()
}

func (e *Engine) resolve(ctx context.Context, userID, orgID uint) (resolution, bool) {
	if userID == 0 || orgID == 0 {
		return resolution{}, false
	}

	key := cacheKey{UserID: userID, OrgID: orgID}
	e.mu.RLock()
	entry, found := e.cache[key]
	e.mu.RUnlock()
	if found && time.Now().Before(entry.expiresAt) {
		return entry.res, true
	}

	role, status, err := e.source.Membership(ctx, userID, orgID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			e.logger.Printf("membership lookup failed for user %d org %d: %v", userID, orgID, err)
		}
		return resolution{}, false
	}
	if status != models.MemberStatusActive {
		return resolution{}, false
	}

	eventPerms, systemPerms, err := e.source.PermissionSet(ctx, role)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			e.logger.Printf("permission set lookup failed for role %q: %v", role, err)
		}
		return resolution{}, false
	}

	// The payload is untyped at rest; a row missing either collection is
	// treated as malformed and denies everything.
	if eventPerms == nil || systemPerms == nil {
		e.logger.Printf("malformed permission set for role %q, denying all checks", role)
		return resolution{}, false
	}

	res := resolution{
		role:        role,
		eventPerms:  make(map[string]struct{}, len(eventPerms)),
		systemPerms: make(map[string]struct{}, len(systemPerms)),
	}
	for _, p := range eventPerms {
		res.eventPerms[p] = struct{}{}
	}
	for _, t := range systemPerms {
		res.systemPerms[t] = struct{}{}
	}

	e.mu.Lock()
	e.cache[key] = cacheEntry{res: res, expiresAt: time.Now().Add(e.ttl)}
	e.mu.Unlock()

	return res, true
}

// gormSource reads memberships and permission sets from the database.
type gormSource struct {
	db *gorm.DB
}

func (s *gormSource) Membership(ctx context.Context, userID, orgID uint) (string, string, error) {
	var member models.OrganizationMember
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND organization_id = ?", userID, orgID).
		First(&member).Error
	if err != nil {
		return "", "", err
	}
	return member.Role, member.Status, nil
}

func (s *gormSource) PermissionSet(ctx context.Context, role string) ([]string, []string, error) {
	var rp models.RolePermission
	err := s.db.WithContext(ctx).Where("role = ?", role).First(&rp).Error
	if err != nil {
		return nil, nil, err
	}
	return rp.EventPermissions, rp.SystemPermissions, nil
}
