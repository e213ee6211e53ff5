package repository

import (
	stderrors "errors"

	repo "storefront/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// gorm/pgのエラーをrepositoryのエラーに寄せる
func mapErr(err error, op string) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return repo.ErrNotFound
	}
	if isUniqueViolation(err) {
		return errors.Wrap(repo.ErrConflict, op)
	}
	return errors.Wrap(err, op)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return stderrors.Is(err, gorm.ErrDuplicatedKey)
}
