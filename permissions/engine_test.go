package permissions

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"planvite/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeMembership struct {
	role   string
	status string
}

type fakeSource struct {
	memberships map[cacheKey]fakeMembership
	eventPerms  map[string][]string
	systemPerms map[string][]string

	membershipErr   error
	permissionErr   error
	membershipCalls int
	permissionCalls int
}

func (f *fakeSource) Membership(ctx context.Context, userID, orgID uint) (string, string, error) {
	f.membershipCalls++
	if f.membershipErr != nil {
		return "", "", f.membershipErr
	}
	m, ok := f.memberships[cacheKey{UserID: userID, OrgID: orgID}]
	if !ok {
		return "", "", gorm.ErrRecordNotFound
	}
	return m.role, m.status, nil
}

func (f *fakeSource) PermissionSet(ctx context.Context, role string) ([]string, []string, error) {
	f.permissionCalls++
	if f.permissionErr != nil {
		return nil, nil, f.permissionErr
	}
	ep, ok := f.eventPerms[role]
	if !ok {
		return nil, nil, gorm.ErrRecordNotFound
	}
	return ep, f.systemPerms[role], nil
}

func newTestEngine(source *fakeSource) *Engine {
	return NewEngineWithSource(source, log.New(io.Discard, "", 0))
}

func defaultSource() *fakeSource {
	return &fakeSource{
		memberships: map[cacheKey]fakeMembership{
			{UserID: 1, OrgID: 10}: {role: models.RoleOwner, status: models.MemberStatusActive},
			{UserID: 2, OrgID: 10}: {role: models.RoleMember, status: models.MemberStatusActive},
			{UserID: 3, OrgID: 10}: {role: models.RoleAdmin, status: models.MemberStatusSuspended},
		},
		eventPerms: map[string][]string{
			models.RoleOwner: {
				models.PermView, models.PermEdit, models.PermDelete,
				models.PermManageGuests, models.PermManageBudget, models.PermManageLogistics,
				models.PermSendInvitations, models.PermViewReports,
			},
			models.RoleMember: {models.PermView, models.PermViewReports},
		},
		systemPerms: map[string][]string{
			models.RoleOwner:  {models.TokenMemberManagement, models.TokenBillingManagement, models.TokenOrgSettings},
			models.RoleMember: {},
		},
	}
}

func TestHasEventPermissionGrantedOnlyWhenInSet(t *testing.T) {
	engine := newTestEngine(defaultSource())
	ctx := context.Background()

	assert.True(t, engine.HasEventPermission(ctx, 1, 10, models.PermDelete))
	assert.True(t, engine.HasEventPermission(ctx, 2, 10, models.PermView))
	assert.True(t, engine.HasEventPermission(ctx, 2, 10, models.PermViewReports))

	// Members hold exactly VIEW and VIEW_REPORTS; everything else is denied
	assert.False(t, engine.HasEventPermission(ctx, 2, 10, models.PermEdit))
	assert.False(t, engine.HasEventPermission(ctx, 2, 10, models.PermManageGuests))
	assert.False(t, engine.HasEventPermission(ctx, 2, 10, models.PermDelete))
}

func TestChecksFailClosed(t *testing.T) {
	ctx := context.Background()

	t.Run("no membership", func(t *testing.T) {
		engine := newTestEngine(defaultSource())
		assert.False(t, engine.HasEventPermission(ctx, 99, 10, models.PermView))
		assert.False(t, engine.HasSystemPermission(ctx, 99, 10, models.TokenOrgSettings))
	})

	t.Run("unknown organization", func(t *testing.T) {
		engine := newTestEngine(defaultSource())
		assert.False(t, engine.HasEventPermission(ctx, 1, 999, models.PermView))
	})

	t.Run("zero identifiers", func(t *testing.T) {
		source := defaultSource()
		engine := newTestEngine(source)
		assert.False(t, engine.HasEventPermission(ctx, 0, 10, models.PermView))
		assert.False(t, engine.HasEventPermission(ctx, 1, 0, models.PermView))
		assert.Zero(t, source.membershipCalls, "zero IDs must short-circuit before the store")
	})

	t.Run("suspended member", func(t *testing.T) {
		engine := newTestEngine(defaultSource())
		assert.False(t, engine.HasEventPermission(ctx, 3, 10, models.PermView))
	})

	t.Run("membership store error", func(t *testing.T) {
		source := defaultSource()
		source.membershipErr = errors.New("connection refused")
		engine := newTestEngine(source)
		assert.False(t, engine.HasEventPermission(ctx, 1, 10, models.PermView))
	})

	t.Run("permission store error", func(t *testing.T) {
		source := defaultSource()
		source.permissionErr = errors.New("connection refused")
		engine := newTestEngine(source)
		assert.False(t, engine.HasEventPermission(ctx, 1, 10, models.PermView))
	})

	t.Run("role without permission row", func(t *testing.T) {
		source := defaultSource()
		source.memberships[cacheKey{UserID: 4, OrgID: 10}] = fakeMembership{role: "ghost", status: models.MemberStatusActive}
		engine := newTestEngine(source)
		assert.False(t, engine.HasEventPermission(ctx, 4, 10, models.PermView))
	})
}

func TestMalformedPermissionSetDeniesEverything(t *testing.T) {
	source := defaultSource()
	source.eventPerms[models.RoleMember] = nil
	engine := newTestEngine(source)
	ctx := context.Background()

	// nil collections mean the stored row is malformed; even permissions the
	// role would normally hold are denied
	assert.False(t, engine.HasEventPermission(ctx, 2, 10, models.PermView))
	assert.False(t, engine.HasSystemPermission(ctx, 2, 10, models.TokenOrgSettings))
}

func TestHasAllEventPermissions(t *testing.T) {
	engine := newTestEngine(defaultSource())
	ctx := context.Background()

	assert.True(t, engine.HasAllEventPermissions(ctx, 1, 10, []string{models.PermView, models.PermEdit}))
	assert.False(t, engine.HasAllEventPermissions(ctx, 2, 10, []string{models.PermView, models.PermEdit}))

	// An empty list is vacuously true even for a non-member
	assert.True(t, engine.HasAllEventPermissions(ctx, 99, 10, nil))
	assert.True(t, engine.HasAllEventPermissions(ctx, 99, 10, []string{}))
}

func TestRole(t *testing.T) {
	engine := newTestEngine(defaultSource())
	ctx := context.Background()

	assert.Equal(t, models.RoleOwner, engine.Role(ctx, 1, 10))
	assert.Equal(t, models.RoleMember, engine.Role(ctx, 2, 10))
	assert.Equal(t, "", engine.Role(ctx, 99, 10))
}

func TestResolutionIsCached(t *testing.T) {
	source := defaultSource()
	engine := newTestEngine(source)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.True(t, engine.HasEventPermission(ctx, 1, 10, models.PermView))
	}
	assert.Equal(t, 1, source.membershipCalls)
	assert.Equal(t, 1, source.permissionCalls)
}

func TestFailedResolutionIsNotCached(t *testing.T) {
	source := defaultSource()
	source.membershipErr = errors.New("down")
	engine := newTestEngine(source)
	ctx := context.Background()

	assert.False(t, engine.HasEventPermission(ctx, 1, 10, models.PermView))

	// Store recovers; the next check must hit it again rather than reuse a
	// cached denial
	source.membershipErr = nil
	assert.True(t, engine.HasEventPermission(ctx, 1, 10, models.PermView))
}

func TestInvalidateForcesReRead(t *testing.T) {
	source := defaultSource()
	engine := newTestEngine(source)
	ctx := context.Background()

	require.True(t, engine.HasEventPermission(ctx, 2, 10, models.PermView))
	require.False(t, engine.HasEventPermission(ctx, 2, 10, models.PermEdit))

	// Promote the member and invalidate; the new role takes effect on the
	// next check
	source.memberships[cacheKey{UserID: 2, OrgID: 10}] = fakeMembership{role: models.RoleOwner, status: models.MemberStatusActive}
	engine.Invalidate(2, 10)

	assert.True(t, engine.HasEventPermission(ctx, 2, 10, models.PermEdit))
}

func TestInvalidateUserDropsAllOrgs(t *testing.T) {
	source := defaultSource()
	source.memberships[cacheKey{UserID: 2, OrgID: 20}] = fakeMembership{role: models.RoleMember, status: models.MemberStatusActive}
	engine := newTestEngine(source)
	ctx := context.Background()

	require.True(t, engine.HasEventPermission(ctx, 2, 10, models.PermView))
	require.True(t, engine.HasEventPermission(ctx, 2, 20, models.PermView))
	callsBefore := source.membershipCalls

	engine.InvalidateUser(2)

	engine.HasEventPermission(ctx, 2, 10, models.PermView)
	engine.HasEventPermission(ctx, 2, 20, models.PermView)
	assert.Equal(t, callsBefore+2, source.membershipCalls)
}

func TestSystemTokensAreSeparateFromEventPermissions(t *testing.T) {
	engine := newTestEngine(defaultSource())
	ctx := context.Background()

	assert.True(t, engine.HasSystemPermission(ctx, 1, 10, models.TokenMemberManagement))
	assert.False(t, engine.HasSystemPermission(ctx, 2, 10, models.TokenMemberManagement))

	// An event permission string never matches as a system token
	assert.False(t, engine.HasSystemPermission(ctx, 1, 10, models.PermView))
}
