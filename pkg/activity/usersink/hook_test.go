package usersink

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-crypta/pkg/activity"
	"github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []types.ActivityRecord
}

func (s *recordingSink) Log(_ context.Context, rec types.ActivityRecord) error {
	s.records = append(s.records, rec)
	return nil
}

func TestHookNotifyMapsFields(t *testing.T) {
	sink := &recordingSink{}
	hook := Hook{Sink: sink}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	actor := uuid.New()
	vaultID := uuid.New().String()

	evt := activity.Event{
		Verb:       activity.VerbInviteCreated,
		ActorID:    actor.String(),
		VaultID:    vaultID,
		ObjectType: activity.ObjectInvite,
		ObjectID:   uuid.New().String(),
		Metadata:   map[string]any{"role": "member"},
		OccurredAt: now,
	}

	hook.Notify(context.Background(), evt)

	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	rec := sink.records[0]
	if rec.Verb != evt.Verb {
		t.Fatalf("verb mismatch: %s", rec.Verb)
	}
	if rec.ActorID != actor || rec.UserID != actor {
		t.Fatalf("actor not mapped: %v/%v", rec.ActorID, rec.UserID)
	}
	if rec.ObjectType != evt.ObjectType || rec.ObjectID != evt.ObjectID {
		t.Fatalf("object fields not mapped")
	}
	if rec.Data["vault_id"] != vaultID {
		t.Fatalf("vault id not propagated: %v", rec.Data)
	}
	if rec.Data["role"] != "member" {
		t.Fatalf("metadata not propagated")
	}
	if rec.OccurredAt != now {
		t.Fatalf("occurred_at mismatch: %v", rec.OccurredAt)
	}
	if evt.Metadata["vault_id"] != nil {
		t.Fatalf("caller metadata must not be mutated")
	}
}

func TestHookIgnoresMissingSinkAndBadIDs(t *testing.T) {
	Hook{}.Notify(context.Background(), activity.Event{Verb: "vault.created"})

	sink := &recordingSink{}
	Hook{Sink: sink}.Notify(context.Background(), activity.Event{Verb: "vault.created", ActorID: "not-a-uuid"})
	if len(sink.records) != 1 {
		t.Fatalf("expected record")
	}
	if sink.records[0].ActorID != uuid.Nil {
		t.Fatalf("expected nil actor for invalid id")
	}
	if sink.records[0].OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to default")
	}
}
