package utils

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// HashAccessCode returns the bcrypt hash to put in admin.access_code_hash.
func HashAccessCode(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckAccessCode compares a submitted code with the bcrypt hash when one is
// configured, otherwise with the plain code in constant time.
func CheckAccessCode(submitted, plain, hash string) bool {
	if hash != "" {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(submitted)) == nil
	}
	if plain == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(plain)) == 1
}
