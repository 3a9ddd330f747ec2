package render

import "github.com/goliatone/go-crypta/pkg/notify"

// DefaultTemplates returns the stock email bodies keyed by the default
// template ids.
func DefaultTemplates() map[string]Template {
	return map[string]Template{
		notify.DefaultTemplates[notify.KindInviteSent]: {
			HTML: `<p>Hi {{ invitee_name }},</p>
<p>{{ inviter_name }} invited you to join <strong>{{ vault_name }}</strong> as {{ role }}.</p>
<p>Your invite code is <code>{{ token }}</code>. It expires on {{ expires_on|date:"2006-01-02" }}.</p>`,
		},
		notify.DefaultTemplates[notify.KindInviteAccepted]: {
			HTML: `<p>{{ invitee_name }} ({{ invitee_email }}) joined <strong>{{ vault_name }}</strong> as {{ role }}.</p>`,
		},
		notify.DefaultTemplates[notify.KindRolePromoted]: {
			Subject: `You were promoted in {{ vault_name }}`,
			HTML:    `<p>Hi {{ member_name }}, your role in <strong>{{ vault_name }}</strong> changed from {{ previous_role }} to {{ role }}.</p>`,
		},
		notify.DefaultTemplates[notify.KindRoleDemoted]: {
			Subject: `Your role changed in {{ vault_name }}`,
			HTML:    `<p>Hi {{ member_name }}, your role in <strong>{{ vault_name }}</strong> changed from {{ previous_role }} to {{ role }}.</p>`,
		},
	}
}
