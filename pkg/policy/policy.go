// Package policy decides which membership roles may perform which vault
// actions. Decisions are pure functions of the actor role, whether the actor
// targets itself, the action and the target role.
package policy

import "github.com/goliatone/go-crypta/pkg/domain"

// Action enumerates the guarded vault operations.
type Action string

const (
	ActionChangeRole     Action = "change_role"
	ActionPromoteToOwner Action = "promote_to_owner"
	ActionRemoveMember   Action = "remove_member"
	ActionCreateInvite   Action = "create_invite"
	ActionResendInvite   Action = "resend_invite"
	ActionRevokeInvite   Action = "revoke_invite"
	ActionRenewInvite    Action = "renew_invite"
	ActionReadSecret     Action = "read_secret"
	ActionWriteSecret    Action = "write_secret"
	ActionManageVault    Action = "manage_vault"
	ActionDeleteVault    Action = "delete_vault"
	ActionRestoreVault   Action = "restore_vault"
)

// Actions lists every guarded action.
var Actions = []Action{
	ActionChangeRole,
	ActionPromoteToOwner,
	ActionRemoveMember,
	ActionCreateInvite,
	ActionResendInvite,
	ActionRevokeInvite,
	ActionRenewInvite,
	ActionReadSecret,
	ActionWriteSecret,
	ActionManageVault,
	ActionDeleteVault,
	ActionRestoreVault,
}

// Decision is the outcome of a policy check.
type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

func (d Decision) String() string {
	if d {
		return "allow"
	}
	return "deny"
}

// Can evaluates the decision table. Unknown roles or actions deny.
//
// For membership actions target is the current role of the membership and
// self reports whether it belongs to the actor. For invite actions target is
// the offered role and self reports whether the actor sent the invite.
func Can(actor domain.Role, self bool, action Action, target domain.Role) Decision {
	if !actor.Valid() || !target.Valid() {
		return Deny
	}
	switch action {
	case ActionChangeRole, ActionRemoveMember:
		if self {
			return Deny
		}
		return manages(actor, target)
	case ActionPromoteToOwner:
		if self {
			return Deny
		}
		return Decision(actor == domain.RoleOwner)
	case ActionCreateInvite:
		return Decision(actor == domain.RoleOwner)
	case ActionResendInvite:
		return manages(actor, target)
	case ActionRevokeInvite, ActionRenewInvite:
		if actor == domain.RoleAdmin && target == domain.RoleOwner {
			return Decision(self)
		}
		return manages(actor, target)
	case ActionReadSecret:
		return Allow
	case ActionWriteSecret, ActionManageVault:
		return Decision(actor.IsManager())
	case ActionDeleteVault, ActionRestoreVault:
		return Decision(actor == domain.RoleOwner)
	default:
		return Deny
	}
}

// manages holds for owners over anyone and for admins over non-owners.
func manages(actor, target domain.Role) Decision {
	switch actor {
	case domain.RoleOwner:
		return Allow
	case domain.RoleAdmin:
		return Decision(target != domain.RoleOwner)
	default:
		return Deny
	}
}
