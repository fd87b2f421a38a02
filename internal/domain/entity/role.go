package entity

// Role is the single access level a directory user holds.
type Role string

const (
	Owner   Role = "owner"
	Admin   Role = "admin"
	Manager Role = "manager"
	Member  Role = "member"
	Pending Role = "pending"
)

// Rank orders roles for display purposes only. Authorization always goes
// through the permission table, never by rank comparison.
func (r Role) Rank() int {
	switch r {
	case Owner:
		return 5
	case Admin:
		return 4
	case Manager:
		return 3
	case Member:
		return 2
	case Pending:
		return 1
	default:
		return 0
	}
}

func (r Role) Valid() bool {
	switch r {
	case Owner, Admin, Manager, Member, Pending:
		return true
	default:
		return false
	}
}

// Capability names one guarded bot operation group.
type Capability string

const (
	CapManageAdmins         Capability = "manage-admins"
	CapManageManagers       Capability = "manage-managers"
	CapManageMembers        Capability = "manage-members"
	CapApproveRegistrations Capability = "approve-registrations"
	CapViewLogs             Capability = "view-logs"
	CapManageEvents         Capability = "manage-events"
	CapDeleteEvents         Capability = "delete-events"
	CapViewEvents           Capability = "view-events"
	CapEditSettings         Capability = "edit-settings"
)

// rolePermissions is the complete grant table. Every role lists every
// capability explicitly, so a grant is never implied by rank and a missing
// entry can be caught in tests. Roles are not strictly ordered: an admin
// approves registrations but cannot edit settings, a manager runs events
// but cannot approve registrations.
var rolePermissions = map[Role]map[Capability]bool{
	Owner: {
		CapManageAdmins:         true,
		CapManageManagers:       true,
		CapManageMembers:        true,
		CapApproveRegistrations: true,
		CapViewLogs:             true,
		CapManageEvents:         true,
		CapDeleteEvents:         true,
		CapViewEvents:           true,
		CapEditSettings:         true,
	},
	Admin: {
		CapManageAdmins:         false,
		CapManageManagers:       true,
		CapManageMembers:        true,
		CapApproveRegistrations: true,
		CapViewLogs:             true,
		CapManageEvents:         true,
		CapDeleteEvents:         true,
		CapViewEvents:           true,
		CapEditSettings:         false,
	},
	Manager: {
		CapManageAdmins:         false,
		CapManageManagers:       false,
		CapManageMembers:        true,
		CapApproveRegistrations: false,
		CapViewLogs:             false,
		CapManageEvents:         true,
		CapDeleteEvents:         false,
		CapViewEvents:           true,
		CapEditSettings:         false,
	},
	Member: {
		CapManageAdmins:         false,
		CapManageManagers:       false,
		CapManageMembers:        false,
		CapApproveRegistrations: false,
		CapViewLogs:             false,
		CapManageEvents:         false,
		CapDeleteEvents:         false,
		CapViewEvents:           true,
		CapEditSettings:         false,
	},
	Pending: {
		CapManageAdmins:         false,
		CapManageManagers:       false,
		CapManageMembers:        false,
		CapApproveRegistrations: false,
		CapViewLogs:             false,
		CapManageEvents:         false,
		CapDeleteEvents:         false,
		CapViewEvents:           false,
		CapEditSettings:         false,
	},
}

// HasPermission consults the grant table. Unknown roles and unknown
// capabilities fall out as false, access stays closed by default.
func HasPermission(role Role, capability Capability) bool {
	return rolePermissions[role][capability]
}
