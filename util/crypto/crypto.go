// Package crypto provides password hashing and verification.
package crypto

import (
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when no stored hash exists, so a lookup miss
// costs the same as a password mismatch.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("prestamos-dummy-password"), bcrypt.DefaultCost)

// HashPasswordAsBcrypt generates a salted bcrypt hash of the given password.
func HashPasswordAsBcrypt(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

// CheckPasswordHash verifies if the given password matches the bcrypt hash.
// Any failure, including a malformed hash, is reported as false.
func CheckPasswordHash(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// BurnPasswordCheck runs a comparison that always fails.
func BurnPasswordCheck(password string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}
