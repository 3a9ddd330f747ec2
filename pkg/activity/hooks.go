package activity

import (
	"context"
	"sync"
	"time"
)

// Verbs emitted after committed vault mutations.
const (
	VerbVaultCreated  = "vault.created"
	VerbVaultRenamed  = "vault.renamed"
	VerbVaultExcluded = "vault.excluded"
	VerbVaultRestored = "vault.restored"

	VerbInviteCreated  = "invite.created"
	VerbInviteAccepted = "invite.accepted"
	VerbInviteRevoked  = "invite.revoked"
	VerbInviteRenewed  = "invite.renewed"
	VerbInviteResent   = "invite.resent"

	VerbRoleChanged     = "membership.role_changed"
	VerbMemberExcluded  = "membership.excluded"
	VerbPasswordChanged = "member.password_changed"

	VerbSecretCreated  = "secret.created"
	VerbSecretUpdated  = "secret.updated"
	VerbSecretDeleted  = "secret.deleted"
	VerbSecretRevealed = "secret.revealed"
)

// Object types carried by events.
const (
	ObjectVault      = "vault"
	ObjectInvite     = "invite"
	ObjectMembership = "membership"
	ObjectSecret     = "secret"
)

// Event captures a vault lifecycle change. Metadata never carries plaintext,
// passwords or tokens.
type Event struct {
	Verb       string
	ActorID    string
	VaultID    string
	ObjectType string
	ObjectID   string
	Metadata   map[string]any
	OccurredAt time.Time
}

// Hook observers receive activity events.
type Hook interface {
	Notify(ctx context.Context, evt Event)
}

// Hooks provides a convenient fan-out collection.
type Hooks []Hook

// Notify delivers the event to every hook, skipping nil entries.
func (h Hooks) Notify(ctx context.Context, evt Event) {
	if len(h) == 0 {
		return
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	for _, hook := range h {
		if hook == nil {
			continue
		}
		hook.Notify(ctx, evt)
	}
}

// Nop is a no-op hook useful for defaults.
type Nop struct{}

func (Nop) Notify(_ context.Context, _ Event) {}

// Recorder keeps events in memory. Notify and Verbs are safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
}

func (r *Recorder) Notify(_ context.Context, evt Event) {
	evt.Metadata = CloneMetadata(evt.Metadata)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, evt)
}

// Verbs returns the recorded verbs in order.
func (r *Recorder) Verbs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Events))
	for _, evt := range r.Events {
		out = append(out, evt.Verb)
	}
	return out
}

// CloneMetadata makes a shallow copy so hooks can mutate without affecting callers.
func CloneMetadata(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
