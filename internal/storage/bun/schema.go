package bunrepo

import (
	"context"
	"fmt"

	"github.com/goliatone/go-crypta/pkg/domain"
	"github.com/uptrace/bun"
)

// Models lists the persisted entities in creation order.
func Models() []any {
	return []any{
		(*domain.Vault)(nil),
		(*domain.Membership)(nil),
		(*domain.Invite)(nil),
		(*domain.Secret)(nil),
	}
}

// CreateSchema creates tables and secondary indexes when missing. Unique
// constraints on vault slug, (member, vault) and (vault, invitee) come from
// the model tags.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	for _, model := range Models() {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("bunrepo: create table %T: %w", model, err)
		}
	}

	indexes := []struct {
		model  any
		name   string
		column string
	}{
		{(*domain.Membership)(nil), "crypta_memberships_member_idx", "member_id"},
		{(*domain.Invite)(nil), "crypta_invites_invitee_idx", "invitee_id"},
		{(*domain.Secret)(nil), "crypta_secrets_vault_idx", "vault_id"},
	}
	for _, idx := range indexes {
		_, err := db.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			Column(idx.column).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("bunrepo: create index %s: %w", idx.name, err)
		}
	}
	return nil
}
