package auth

import "golang.org/x/crypto/bcrypt"

// PasswordHasher wraps bcrypt with a configurable cost factor. bcrypt salts
// every digest itself, so hashing the same password twice yields different
// digests that both verify.
type PasswordHasher struct {
	Cost int
}

func (h PasswordHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h PasswordHasher) Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
