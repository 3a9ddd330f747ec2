package bunrepo

import (
	"github.com/goliatone/go-crypta/pkg/domain"
	"github.com/goliatone/go-crypta/pkg/interfaces/store"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func withID(id uuid.UUID) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("id = ?", id)
	}
}

func withWhere(query string, args ...any) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where(query, args...)
	}
}

// withMemberVaults restricts column to vaults where memberID holds an active
// membership, optionally limited to roles.
func withMemberVaults(db bun.IDB, column, memberID string, roles ...domain.Role) repository.SelectCriteria {
	sub := db.NewSelect().
		Model((*domain.Membership)(nil)).
		Column("vault_id").
		Where("m.member_id = ?", memberID).
		Where("m.status = ?", domain.MembershipActive)
	if len(roles) > 0 {
		sub = sub.Where("m.role IN (?)", bun.In(roles))
	}
	return withWhere(column+" IN (?)", sub)
}

func withPage(opts store.ListOptions, order string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		if opts.Limit > 0 {
			q = q.Limit(opts.Limit)
		}
		if opts.Offset > 0 {
			q = q.Offset(opts.Offset)
		}
		return q.OrderExpr(order)
	}
}
