package utils

import (
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// HashPassword hashes a password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

// CheckPassword verifies a password against its bcrypt hash.
func CheckPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// ValidateEmail checks basic email shape.
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidatePassword requires at least 8 characters.
func ValidatePassword(password string) bool {
	return len(password) >= 8
}

// ValidateName requires a display name of 1-100 characters.
func ValidateName(name string) bool {
	return len(name) >= 1 && len(name) <= 100
}

// ValidateGroupName requires a group name of 1-50 characters.
func ValidateGroupName(name string) bool {
	return len(name) >= 1 && len(name) <= 50
}
