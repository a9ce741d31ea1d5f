package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// HashString bcrypt-hashes a secret at the default cost. Used for
// both passwords and refresh tokens, so neither is stored in clear.
func HashString(originalString string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(originalString), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(bytes), nil
}

// VerifyHashedString reports whether originalString matches the
// bcrypt hash in hashedString.
func VerifyHashedString(originalString, hashedString string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedString), []byte(originalString))

	return err == nil
}
