package auth

import (
	"context"
	"os"

	"github.com/golang-jwt/jwt/v4"
)

const (
	RoleStudent   = "student"
	RoleLibrarian = "librarian"
)

// JWTKey signs and verifies access tokens. Override via JWT_KEY.
var JWTKey = []byte("lending-service-dev-key")

func init() {
	if key := os.Getenv("JWT_KEY"); key != "" {
		JWTKey = []byte(key)
	}
}

type Claims struct {
	SubjectID int    `json:"subjectId"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

type ctxKey struct{}

type Identity struct {
	SubjectID int
	Role      string
}

func SetAuthContext(ctx context.Context, subjectID int, role string) context.Context {
	return context.WithValue(ctx, ctxKey{}, Identity{SubjectID: subjectID, Role: role})
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
