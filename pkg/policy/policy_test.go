package policy

import (
	"testing"

	"github.com/goliatone/go-crypta/pkg/domain"
)

// Each row lists the decisions for actor (owner, admin, member) crossed with
// target (owner, admin, member); A allows, D denies.
var decisionTable = map[Action][2]string{
	//                      self=false   self=true
	ActionChangeRole:     {"AAADAADDD", "DDDDDDDDD"},
	ActionPromoteToOwner: {"AAADDDDDD", "DDDDDDDDD"},
	ActionRemoveMember:   {"AAADAADDD", "DDDDDDDDD"},
	ActionCreateInvite:   {"AAADDDDDD", "AAADDDDDD"},
	ActionResendInvite:   {"AAADAADDD", "AAADAADDD"},
	ActionRevokeInvite:   {"AAADAADDD", "AAAAAADDD"},
	ActionRenewInvite:    {"AAADAADDD", "AAAAAADDD"},
	ActionReadSecret:     {"AAAAAAAAA", "AAAAAAAAA"},
	ActionWriteSecret:    {"AAAAAADDD", "AAAAAADDD"},
	ActionManageVault:    {"AAAAAADDD", "AAAAAADDD"},
	ActionDeleteVault:    {"AAADDDDDD", "AAADDDDDD"},
	ActionRestoreVault:   {"AAADDDDDD", "AAADDDDDD"},
}

func TestCanMatchesDecisionTable(t *testing.T) {
	if len(decisionTable) != len(Actions) {
		t.Fatalf("decision table covers %d actions, expected %d", len(decisionTable), len(Actions))
	}
	for _, action := range Actions {
		rows, ok := decisionTable[action]
		if !ok {
			t.Fatalf("missing table rows for %s", action)
		}
		for selfIdx, self := range []bool{false, true} {
			row := rows[selfIdx]
			for ai, actor := range domain.Roles {
				for ti, target := range domain.Roles {
					want := Decision(row[ai*3+ti] == 'A')
					if got := Can(actor, self, action, target); got != want {
						t.Errorf("Can(%s, self=%v, %s, %s) = %s, want %s", actor, self, action, target, got, want)
					}
				}
			}
		}
	}
}

func TestCanExamples(t *testing.T) {
	if Can(domain.RoleAdmin, false, ActionPromoteToOwner, domain.RoleMember) != Deny {
		t.Fatalf("admin must not promote to owner")
	}
	if Can(domain.RoleOwner, false, ActionChangeRole, domain.RoleAdmin) != Allow {
		t.Fatalf("owner must change an admin role")
	}
	if Can(domain.RoleAdmin, false, ActionCreateInvite, domain.RoleMember) != Deny {
		t.Fatalf("admin must not create invites")
	}
	if Can(domain.RoleOwner, true, ActionChangeRole, domain.RoleOwner) != Deny {
		t.Fatalf("self role change must be denied")
	}
}

func TestCanDeniesUnknownInputs(t *testing.T) {
	if Can(domain.Role("root"), false, ActionReadSecret, domain.RoleMember) != Deny {
		t.Fatalf("unknown actor role must deny")
	}
	if Can(domain.RoleOwner, false, ActionReadSecret, domain.Role("")) != Deny {
		t.Fatalf("unknown target role must deny")
	}
	if Can(domain.RoleOwner, false, Action("format_disk"), domain.RoleMember) != Deny {
		t.Fatalf("unknown action must deny")
	}
}
