package crypto

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost 12 keeps hashing around 250ms, slow enough to blunt brute force.
const bcryptCost = 12

func HashPassword(password string) (string, error) {
	if len(password) > 72 {
		// bcrypt silently truncates beyond 72 bytes; reject instead.
		return "", errors.New("password too long")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
