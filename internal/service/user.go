package service

import (
	"context"

	"github.com/iliyamo/tenant-auth/internal/model"
	"github.com/iliyamo/tenant-auth/internal/repository"
)

// UserService orchestrates user CRUD over the repository: hashing on
// create, email-uniqueness checks, and affected-row verification on
// mutation.
type UserService struct {
	users *repository.UserRepo
	creds *CredentialService
}

func NewUserService(users *repository.UserRepo, creds *CredentialService) *UserService {
	return &UserService{users: users, creds: creds}
}

// Create hashes the password and inserts the user.  The caller decides the
// role: registration always passes model.RoleCustomer, admin creation
// passes the requested role.  A taken email maps to
// repository.ErrEmailExists, whether caught by the pre-check or by the
// unique constraint (the pre-check leaves a race window; the constraint is
// the source of truth).
func (s *UserService) Create(ctx context.Context, firstName, lastName, email, password, role string, tenantID *uint64) (model.User, error) {
	taken, err := s.users.EmailExists(ctx, email, 0)
	if err != nil {
		return model.User{}, err
	}
	if taken {
		return model.User{}, repository.ErrEmailExists
	}

	hash, err := s.creds.HashPassword(password)
	if err != nil {
		return model.User{}, err
	}
	u := model.User{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		TenantID:     tenantID,
	}
	id, err := s.users.Create(ctx, &u)
	if err != nil {
		return model.User{}, err
	}
	u.ID = id
	u.PasswordHash = ""
	return u, nil
}

// CheckEmail reports whether the email belongs to a user other than
// excludeID.
func (s *UserService) CheckEmail(ctx context.Context, email string, excludeID uint64) (bool, error) {
	return s.users.EmailExists(ctx, email, excludeID)
}

// GetCredentialsByEmail returns the user including the password hash.
// Login is the only caller.
func (s *UserService) GetCredentialsByEmail(ctx context.Context, email string) (model.User, error) {
	return s.users.GetCredentialsByEmail(ctx, email)
}

// FindByID returns the user without the password hash.
func (s *UserService) FindByID(ctx context.Context, id uint64) (model.User, error) {
	return s.users.GetByID(ctx, id)
}

// ListAll returns every user without password hashes.
func (s *UserService) ListAll(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

// Update applies a partial update and returns the number of affected rows.
func (s *UserService) Update(ctx context.Context, id uint64, upd repository.UserUpdate) (int64, error) {
	return s.users.Update(ctx, id, upd)
}

// Delete removes a user and returns the number of affected rows.  Dependent
// rows block the delete at the database level.
func (s *UserService) Delete(ctx context.Context, id uint64) (int64, error) {
	return s.users.Delete(ctx, id)
}
