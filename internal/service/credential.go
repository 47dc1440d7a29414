package service

import "golang.org/x/crypto/bcrypt"

// CredentialService hashes and verifies passwords.  The bcrypt cost is
// fixed at construction; verifying is constant-time and a wrong password is
// a boolean false, never an error.
type CredentialService struct{ cost int }

func NewCredentialService(cost int) *CredentialService {
	return &CredentialService{cost: cost}
}

// HashPassword returns the bcrypt hash of a plain password.
func (s *CredentialService) HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), s.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword safely compares a plain password against a stored hash.
func (s *CredentialService) CheckPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
