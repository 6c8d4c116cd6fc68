package service

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campuslib/lending-service/identity/internal/errs"
	"github.com/campuslib/lending-service/identity/internal/model"
	"github.com/campuslib/lending-service/identity/internal/repository"
)

type Service struct {
	log  *zap.Logger
	repo repository.Repository
}

func NewService(repo repository.Repository, log *zap.Logger) *Service {
	return &Service{
		log:  log,
		repo: repo,
	}
}

// Register stores a bcrypt hash of the password. There is no default
// password: a subject that never registered cannot authorize.
func (s *Service) Register(ctx context.Context, req model.RegisterRequest) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "bcrypt")
	}
	return s.repo.UpsertCredential(ctx, model.Credential{
		SubjectID:    req.SubjectID,
		Role:         req.Role,
		Name:         req.Name,
		PasswordHash: string(hash),
	})
}

// Verify is the opaque pass/fail authentication check; unknown subjects
// and wrong passwords are indistinguishable to the caller.
func (s *Service) Verify(ctx context.Context, req model.AuthRequest) (model.Credential, error) {
	cred, err := s.repo.GetCredential(ctx, req.SubjectID, req.Role)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.Credential{}, errs.ErrInvalidCredentials
		}
		return model.Credential{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(req.Password)); err != nil {
		return model.Credential{}, errs.ErrInvalidCredentials
	}
	return cred, nil
}
