package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuslib/lending-service/identity/internal/errs"
	"github.com/campuslib/lending-service/identity/internal/model"
	"github.com/campuslib/lending-service/identity/internal/repository"
	"github.com/campuslib/lending-service/identity/internal/service"
)

type credKey struct {
	subjectID int
	role      string
}

type fakeRepo struct {
	creds map[credKey]model.Credential
}

var _ repository.Repository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{creds: make(map[credKey]model.Credential)}
}

func (f *fakeRepo) UpsertCredential(_ context.Context, cred model.Credential) error {
	f.creds[credKey{cred.SubjectID, cred.Role}] = cred
	return nil
}

func (f *fakeRepo) GetCredential(_ context.Context, subjectID int, role string) (model.Credential, error) {
	cred, ok := f.creds[credKey{subjectID, role}]
	if !ok {
		return model.Credential{}, errs.ErrNotFound
	}
	return cred, nil
}

func TestService_RegisterAndVerify(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newFakeRepo()
	svc := service.NewService(repo, zap.NewNop())

	err := svc.Register(ctx, model.RegisterRequest{
		SubjectID: 7,
		Role:      "student",
		Name:      "Alice",
		Password:  "correct-horse",
	})
	require.NoError(t, err)

	// Only the hash is stored.
	stored := repo.creds[credKey{7, "student"}]
	require.NotEmpty(t, stored.PasswordHash)
	require.NotEqual(t, "correct-horse", stored.PasswordHash)

	cred, err := svc.Verify(ctx, model.AuthRequest{SubjectID: 7, Role: "student", Password: "correct-horse"})
	require.NoError(t, err)
	require.Equal(t, "Alice", cred.Name)
	require.Equal(t, "student", cred.Role)

	_, err = svc.Verify(ctx, model.AuthRequest{SubjectID: 7, Role: "student", Password: "wrong"})
	require.ErrorIs(t, err, errs.ErrInvalidCredentials)

	// Unknown subjects fail the same way as wrong passwords.
	_, err = svc.Verify(ctx, model.AuthRequest{SubjectID: 8, Role: "student", Password: "correct-horse"})
	require.ErrorIs(t, err, errs.ErrInvalidCredentials)

	// Same subject under another role is a separate credential.
	_, err = svc.Verify(ctx, model.AuthRequest{SubjectID: 7, Role: "librarian", Password: "correct-horse"})
	require.ErrorIs(t, err, errs.ErrInvalidCredentials)
}

func TestService_RegisterOverwrites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newFakeRepo()
	svc := service.NewService(repo, zap.NewNop())

	require.NoError(t, svc.Register(ctx, model.RegisterRequest{
		SubjectID: 3, Role: "librarian", Name: "Clerk", Password: "first",
	}))
	require.NoError(t, svc.Register(ctx, model.RegisterRequest{
		SubjectID: 3, Role: "librarian", Name: "Clerk", Password: "second",
	}))

	_, err := svc.Verify(ctx, model.AuthRequest{SubjectID: 3, Role: "librarian", Password: "first"})
	require.ErrorIs(t, err, errs.ErrInvalidCredentials)
	_, err = svc.Verify(ctx, model.AuthRequest{SubjectID: 3, Role: "librarian", Password: "second"})
	require.NoError(t, err)
}
