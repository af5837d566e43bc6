package identity

import "strings"

// Role is the fixed set of platform roles.
// SysAdmin is platform-wide; every other role is bound to one organization.
type Role string

const (
	RoleSysAdmin  Role = "sys_admin"
	RoleOrgAdmin  Role = "org_admin"
	RoleManager   Role = "manager"
	RoleInspector Role = "inspector"
	RoleClient    Role = "client"
)

// AllRoles returns every role from most to least privileged
func AllRoles() []Role {
	return []Role{RoleSysAdmin, RoleOrgAdmin, RoleManager, RoleInspector, RoleClient}
}

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	for _, known := range AllRoles() {
		if r == known {
			return true
		}
	}
	return false
}

// rank orders roles; lower is more privileged
func (r Role) rank() int {
	for i, known := range AllRoles() {
		if r == known {
			return i
		}
	}
	return len(AllRoles())
}

// Outranks reports whether r is at least as privileged as other
func (r Role) Outranks(other Role) bool {
	return r.rank() <= other.rank()
}

// SeesDescendants reports whether the role's visibility extends to child organizations
func (r Role) SeesDescendants() bool {
	return r == RoleOrgAdmin || r == RoleManager
}

// CanAssign reports whether a user holding r may grant target to someone else.
// Only a sys_admin creates sys_admins; org admins hand out roles below their own.
func (r Role) CanAssign(target Role) bool {
	if !target.IsValid() {
		return false
	}
	switch r {
	case RoleSysAdmin:
		return true
	case RoleOrgAdmin:
		return target != RoleSysAdmin
	case RoleManager:
		return target == RoleInspector || target == RoleClient
	default:
		return false
	}
}

// Permission codes, formatted resource:action
const (
	PermOrganizationRead   = "organization:read"
	PermOrganizationCreate = "organization:create"
	PermOrganizationUpdate = "organization:update"
	PermOrganizationManage = "organization:manage"

	PermUserRead   = "user:read"
	PermUserCreate = "user:create"
	PermUserUpdate = "user:update"
	PermUserDelete = "user:delete"

	PermInspectionRead     = "inspection:read"
	PermInspectionCreate   = "inspection:create"
	PermInspectionUpdate   = "inspection:update"
	PermInspectionDelete   = "inspection:delete"
	PermInspectionFinalize = "inspection:finalize"
	PermInspectionReopen   = "inspection:reopen"

	PermChecklistRead   = "checklist:read"
	PermChecklistCreate = "checklist:create"
	PermChecklistUpdate = "checklist:update"
	PermChecklistDelete = "checklist:delete"

	PermActionItemRead   = "action_item:read"
	PermActionItemCreate = "action_item:create"
	PermActionItemUpdate = "action_item:update"
	PermActionItemDelete = "action_item:delete"

	PermAtaRead     = "ata:read"
	PermAtaGenerate = "ata:generate"

	PermMediaRead   = "media:read"
	PermMediaUpload = "media:upload"
	PermMediaDelete = "media:delete"

	PermDashboardRead = "dashboard:read"

	PermCRMRead   = "crm:read"
	PermCRMWrite  = "crm:write"
	PermCRMDelete = "crm:delete"

	PermAuditRead   = "audit:read"
	PermBillingRead = "billing:read"

	// PermAll grants every permission
	PermAll = "*"
)

var rolePermissions = map[Role][]string{
	RoleSysAdmin: {PermAll},
	RoleOrgAdmin: {
		PermOrganizationRead, PermOrganizationCreate, PermOrganizationUpdate,
		PermUserRead, PermUserCreate, PermUserUpdate, PermUserDelete,
		PermInspectionRead, PermInspectionCreate, PermInspectionUpdate, PermInspectionDelete,
		PermInspectionFinalize, PermInspectionReopen,
		PermChecklistRead, PermChecklistCreate, PermChecklistUpdate, PermChecklistDelete,
		PermActionItemRead, PermActionItemCreate, PermActionItemUpdate, PermActionItemDelete,
		PermAtaRead, PermAtaGenerate,
		PermMediaRead, PermMediaUpload, PermMediaDelete,
		PermDashboardRead,
		PermCRMRead, PermCRMWrite, PermCRMDelete,
		PermAuditRead, PermBillingRead,
	},
	RoleManager: {
		PermOrganizationRead,
		PermUserRead, PermUserCreate,
		PermInspectionRead, PermInspectionCreate, PermInspectionUpdate, PermInspectionDelete,
		PermInspectionFinalize, PermInspectionReopen,
		PermChecklistRead, PermChecklistCreate, PermChecklistUpdate,
		PermActionItemRead, PermActionItemCreate, PermActionItemUpdate, PermActionItemDelete,
		PermAtaRead, PermAtaGenerate,
		PermMediaRead, PermMediaUpload, PermMediaDelete,
		PermDashboardRead,
		PermCRMRead, PermCRMWrite,
		PermBillingRead,
	},
	RoleInspector: {
		PermOrganizationRead,
		PermInspectionRead, PermInspectionCreate, PermInspectionUpdate, PermInspectionFinalize,
		PermChecklistRead,
		PermActionItemRead, PermActionItemCreate, PermActionItemUpdate,
		PermAtaRead, PermAtaGenerate,
		PermMediaRead, PermMediaUpload,
		PermDashboardRead,
	},
	RoleClient: {
		PermOrganizationRead,
		PermInspectionRead,
		PermChecklistRead,
		PermActionItemRead,
		PermAtaRead,
		PermMediaRead,
		PermDashboardRead,
	},
}

// Permissions returns a copy of the role's permission codes
func (r Role) Permissions() []string {
	perms := rolePermissions[r]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// HasPermission checks code against the role's matrix.
// "resource:*" in the matrix would grant every action on resource.
func (r Role) HasPermission(code string) bool {
	return PermissionGranted(rolePermissions[r], code)
}

// PermissionGranted checks code against an arbitrary permission list
func PermissionGranted(granted []string, code string) bool {
	resource, _, _ := strings.Cut(code, ":")
	for _, p := range granted {
		if p == PermAll || p == code || p == resource+":*" {
			return true
		}
	}
	return false
}
