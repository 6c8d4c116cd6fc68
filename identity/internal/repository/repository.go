package repository

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/campuslib/lending-service/identity/internal/errs"
	"github.com/campuslib/lending-service/identity/internal/model"
)

type Repository interface {
	UpsertCredential(ctx context.Context, cred model.Credential) error
	GetCredential(ctx context.Context, subjectID int, role string) (model.Credential, error)
}

type repository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewRepository(db *sqlx.DB, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	credentialsTableName = `credentials`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func (r *repository) UpsertCredential(ctx context.Context, cred model.Credential) error {
	query, args, err := qb.Insert(credentialsTableName).
		Columns("subject_id", "role", "name", "password_hash").
		Values(cred.SubjectID, cred.Role, cred.Name, cred.PasswordHash).
		Suffix(`on conflict (subject_id, role) do update
			set name = excluded.name, password_hash = excluded.password_hash`).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.log.Error("UpsertCredential", zap.String("q", query))
		return err
	}
	return nil
}

func (r *repository) GetCredential(ctx context.Context, subjectID int, role string) (model.Credential, error) {
	query, args, err := qb.Select("subject_id", "role", "name", "password_hash").
		From(credentialsTableName).
		Where(sq.Eq{"subject_id": subjectID, "role": role}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Credential{}, err
	}
	var cred model.Credential
	if err := r.db.GetContext(ctx, &cred, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Credential{}, errs.ErrNotFound
		}
		return model.Credential{}, err
	}
	return cred, nil
}
