package identity

import "strings"

// PermissionWildcard authorizes every action when present in a user's
// explicit permission set
const PermissionWildcard = "*"

// Permission tags follow the resource:action pattern
const (
	PermPaymentCreate = "payment:create"
	PermPaymentRead   = "payment:read"
	PermPaymentUpdate = "payment:update"
	PermPaymentCancel = "payment:cancel"
	PermPaymentPay    = "payment:pay"

	PermFundCreate = "fund:create"
	PermFundRead   = "fund:read"
	PermFundManage = "fund:manage"

	PermChequeIssue  = "cheque:issue"
	PermChequeRead   = "cheque:read"
	PermChequeManage = "cheque:manage"

	PermWorkflowInitiate          = "workflow:initiate"
	PermWorkflowRead              = "workflow:read"
	PermApproveFinancialDirector  = "workflow:approve_financial_director"
	PermApproveRector             = "workflow:approve_rector"
	PermApproveAdmin              = "workflow:approve_admin"
	PermApproveUser               = "workflow:approve_user"

	PermNotificationRead = "notification:read"
	PermUserManage       = "user:manage"
	PermBackupExport     = "backup:export"
	PermBackupImport     = "backup:import"
	PermAuditRead        = "audit:read"
)

// ApprovePermissionForRole returns the permission tag required to decide
// a workflow step bound to the given role
func ApprovePermissionForRole(role Role) string {
	switch role {
	case RoleFinancialDirector:
		return PermApproveFinancialDirector
	case RoleRector:
		return PermApproveRector
	case RoleAdmin:
		return PermApproveAdmin
	default:
		return PermApproveUser
	}
}

// PermissionTable maps roles and permission groups to their permission
// sets. It is loaded once at process start and treated as immutable for
// the lifetime of a running instance.
type PermissionTable struct {
	roleDefaults map[Role][]string
	groups       map[string][]string
}

// NewPermissionTable builds a table from explicit role and group mappings
func NewPermissionTable(roleDefaults map[Role][]string, groups map[string][]string) *PermissionTable {
	t := &PermissionTable{
		roleDefaults: make(map[Role][]string, len(roleDefaults)),
		groups:       make(map[string][]string, len(groups)),
	}
	for role, perms := range roleDefaults {
		t.roleDefaults[role] = append([]string(nil), perms...)
	}
	for group, perms := range groups {
		t.groups[group] = append([]string(nil), perms...)
	}
	return t
}

// DefaultPermissionTable returns the built-in role and group configuration
func DefaultPermissionTable() *PermissionTable {
	return NewPermissionTable(
		map[Role][]string{
			RoleFinancialDirector: {
				PermPaymentCreate, PermPaymentRead, PermPaymentUpdate,
				PermPaymentCancel, PermPaymentPay,
				PermFundCreate, PermFundRead, PermFundManage,
				PermChequeIssue, PermChequeRead, PermChequeManage,
				PermWorkflowInitiate, PermWorkflowRead,
				PermApproveFinancialDirector,
				PermNotificationRead, PermAuditRead,
			},
			RoleRector: {
				PermPaymentRead, PermFundRead, PermChequeRead,
				PermWorkflowRead, PermApproveRector,
				PermNotificationRead, PermAuditRead,
			},
			RoleUser: {
				PermPaymentRead, PermWorkflowRead, PermNotificationRead,
			},
		},
		map[string][]string{
			"treasury": {
				PermFundCreate, PermFundRead, PermFundManage,
				PermChequeIssue, PermChequeRead, PermChequeManage,
			},
			"payments": {
				PermPaymentCreate, PermPaymentRead, PermPaymentUpdate,
				PermPaymentPay, PermWorkflowInitiate,
			},
			"backup_operators": {
				PermBackupExport, PermBackupImport,
			},
		},
	)
}

// RoleDefaults returns a copy of the default permission set for a role
func (t *PermissionTable) RoleDefaults(role Role) []string {
	return append([]string(nil), t.roleDefaults[role]...)
}

// GroupPermissions returns a copy of the permission set for a group
func (t *PermissionTable) GroupPermissions(groupID string) []string {
	return append([]string(nil), t.groups[groupID]...)
}

// Authorize resolves whether the user may perform the action named by the
// permission tag. Resolution is the logical OR of, in order: the admin
// role, explicit permissions (including the wildcard), permissions
// contributed by the user's groups, and the role's default set. There is
// no deny-override. Pure function of the user snapshot and the tag.
func (t *PermissionTable) Authorize(user *User, permission string) bool {
	if user == nil || !user.IsActive {
		return false
	}
	permission = strings.TrimSpace(permission)
	if permission == "" {
		return false
	}

	if user.Role == RoleAdmin {
		return true
	}

	for _, p := range user.Permissions {
		if p == PermissionWildcard || p == permission {
			return true
		}
	}

	for _, g := range user.PermissionGroups {
		for _, p := range t.groups[g] {
			if p == permission {
				return true
			}
		}
	}

	for _, p := range t.roleDefaults[user.Role] {
		if p == permission {
			return true
		}
	}

	return false
}
