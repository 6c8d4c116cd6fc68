package handler

import (
	"context"

	"github.com/campuslib/lending-service/identity/internal/model"
	"github.com/campuslib/lending-service/identity/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type AuthService interface {
	Register(ctx context.Context, req model.RegisterRequest) error
	Verify(ctx context.Context, req model.AuthRequest) (model.Credential, error)
}

var _ AuthService = (*service.Service)(nil)
