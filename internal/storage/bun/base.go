package bunrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-crypta/pkg/domain"
	"github.com/goliatone/go-crypta/pkg/interfaces/store"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// baseRepository writes through the transaction carried by ctx, when there
// is one, and reads through go-repository-bun otherwise.
type baseRepository[T any] struct {
	repo    repository.Repository[*T]
	db      *bun.DB
	extract func(*T) *domain.RecordMeta
}

func newBaseRepository[T any](db *bun.DB, handlers repository.ModelHandlers[*T], extract func(*T) *domain.RecordMeta) baseRepository[T] {
	return baseRepository[T]{
		repo:    repository.MustNewRepository[*T](db, handlers),
		db:      db,
		extract: extract,
	}
}

func (r baseRepository[T]) create(ctx context.Context, record *T) error {
	base := r.extract(record)
	base.EnsureID()
	now := time.Now().UTC()
	if base.CreatedAt.IsZero() {
		base.CreatedAt = now
	}
	if base.UpdatedAt.IsZero() {
		base.UpdatedAt = base.CreatedAt
	}
	_, err := conn(ctx, r.db).NewInsert().Model(record).Exec(ctx)
	return mapError(err)
}

func (r baseRepository[T]) update(ctx context.Context, record *T) error {
	base := r.extract(record)
	if base.ID == uuid.Nil {
		return store.ErrNotFound
	}
	if base.UpdatedAt.IsZero() {
		base.UpdatedAt = time.Now().UTC()
	}
	res, err := conn(ctx, r.db).NewUpdate().Model(record).WherePK().Exec(ctx)
	if err != nil {
		return mapError(err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r baseRepository[T]) get(ctx context.Context, criteria ...repository.SelectCriteria) (*T, error) {
	if tx, ok := txFromContext(ctx); ok {
		record := new(T)
		q := tx.NewSelect().Model(record)
		for _, c := range criteria {
			q = c(q)
		}
		if err := q.Limit(1).Scan(ctx); err != nil {
			return nil, mapError(err)
		}
		return record, nil
	}
	record, err := r.repo.Get(ctx, criteria...)
	if err != nil {
		return nil, mapError(err)
	}
	return record, nil
}

func (r baseRepository[T]) getByID(ctx context.Context, id uuid.UUID) (*T, error) {
	return r.get(ctx, withID(id))
}

func (r baseRepository[T]) list(ctx context.Context, criteria ...repository.SelectCriteria) (store.ListResult[T], error) {
	if tx, ok := txFromContext(ctx); ok {
		var records []T
		q := tx.NewSelect().Model(&records)
		for _, c := range criteria {
			q = c(q)
		}
		total, err := q.ScanAndCount(ctx)
		if err != nil {
			return store.ListResult[T]{}, mapError(err)
		}
		return store.ListResult[T]{Items: records, Total: total}, nil
	}

	records, total, err := r.repo.List(ctx, criteria...)
	if err != nil {
		return store.ListResult[T]{}, mapError(err)
	}
	items := make([]T, len(records))
	for i, rec := range records {
		items[i] = *rec
	}
	return store.ListResult[T]{Items: items, Total: total}, nil
}

func (r baseRepository[T]) deleteByID(ctx context.Context, id uuid.UUID) error {
	res, err := conn(ctx, r.db).NewDelete().
		Model((*T)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return mapError(err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err) {
		return store.ErrNotFound
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %v", store.ErrConflict, err)
	}
	return err
}

// isUniqueViolation matches the sqlite and postgres driver messages.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key value")
}
