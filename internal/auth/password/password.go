// Package password hashes and checks account passwords with bcrypt.
package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt truncates input at 72 bytes; reject longer passwords instead
// of silently comparing a prefix.
const maxPasswordBytes = 72

const hashCost = 12

var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

func Hash(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func Verify(password, encoded string) bool {
	if len(password) > maxPasswordBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password)) == nil
}
