package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var allRoles = []Role{Owner, Admin, Manager, Member, Pending}

var allCapabilities = []Capability{
	CapManageAdmins,
	CapManageManagers,
	CapManageMembers,
	CapApproveRegistrations,
	CapViewLogs,
	CapManageEvents,
	CapDeleteEvents,
	CapViewEvents,
	CapEditSettings,
}

func TestOwnerHasEveryCapability(t *testing.T) {
	for _, c := range allCapabilities {
		assert.True(t, HasPermission(Owner, c), "owner should hold %s", c)
	}
}

func TestPendingHasNoCapability(t *testing.T) {
	for _, c := range allCapabilities {
		assert.False(t, HasPermission(Pending, c), "pending should not hold %s", c)
	}
}

func TestAdminAndManagerDiverge(t *testing.T) {
	// The table is not monotonic by rank: it must be consulted directly.
	assert.False(t, HasPermission(Admin, CapManageAdmins))
	assert.False(t, HasPermission(Admin, CapEditSettings))
	assert.True(t, HasPermission(Admin, CapApproveRegistrations))

	assert.False(t, HasPermission(Manager, CapApproveRegistrations))
	assert.False(t, HasPermission(Manager, CapDeleteEvents))
	assert.True(t, HasPermission(Manager, CapManageMembers))
	assert.True(t, HasPermission(Manager, CapManageEvents))
}

func TestMemberViewOnly(t *testing.T) {
	assert.True(t, HasPermission(Member, CapViewEvents))
	for _, c := range allCapabilities {
		if c == CapViewEvents {
			continue
		}
		assert.False(t, HasPermission(Member, c), "member should not hold %s", c)
	}
}

func TestUnknownRoleOrCapabilityIsClosed(t *testing.T) {
	assert.False(t, HasPermission(Role("superuser"), CapViewEvents))
	for _, r := range allRoles {
		assert.False(t, HasPermission(r, Capability("launch-rockets")))
	}
}

func TestEveryRoleListsEveryCapability(t *testing.T) {
	// Guards against a new command adding a capability for some roles only,
	// which would silently rely on the closed-world default.
	for _, r := range allRoles {
		for _, c := range allCapabilities {
			_, listed := rolePermissions[r][c]
			assert.True(t, listed, "role %s is missing an explicit entry for %s", r, c)
		}
	}
}

func TestRoleRankOrdering(t *testing.T) {
	assert.Greater(t, Owner.Rank(), Admin.Rank())
	assert.Greater(t, Admin.Rank(), Manager.Rank())
	assert.Greater(t, Manager.Rank(), Member.Rank())
	assert.Greater(t, Member.Rank(), Pending.Rank())
	assert.Equal(t, 0, Role("nonsense").Rank())
}
