package model

type Credential struct {
	SubjectID    int    `db:"subject_id"`
	Role         string `db:"role"`
	Name         string `db:"name"`
	PasswordHash string `db:"password_hash"`
}

type RegisterRequest struct {
	SubjectID int    `json:"id" validate:"required"`
	Role      string `json:"role" validate:"required,oneof=student librarian"`
	Name      string `json:"name" validate:"required"`
	Password  string `json:"password" validate:"required,min=6"`
}

type AuthRequest struct {
	SubjectID int    `json:"id" validate:"required"`
	Role      string `json:"role" validate:"required,oneof=student librarian"`
	Password  string `json:"password" validate:"required"`
}

type AuthResponse struct {
	ExpiresIn   int    `json:"expiresIn"`
	AccessToken string `json:"accessToken"`
}
