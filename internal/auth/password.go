// internal/auth/password.go
package auth

import (
	"crypto/subtle"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// IsPasswordHash сообщает, что сохранённое значение является bcrypt-хэшем, а не открытым паролем.
func IsPasswordHash(stored string) bool {
	_, err := bcrypt.Cost([]byte(stored))
	return err == nil
}

// PasswordMatches сравнивает пароль с сохранённым значением: через bcrypt для хэшей,
// иначе точным совпадением строк.
func PasswordMatches(stored, given string) bool {
	if stored == "" || given == "" {
		return false
	}
	if IsPasswordHash(stored) {
		return CheckPasswordHash(given, stored)
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

func IsPasswordComplex(password string) bool {
	if len(password) < 8 {
		return false
	}
	var (
		hasLetter bool
		hasDigit  bool
		hasSymbol bool
	)
	for _, char := range password {
		switch {
		case unicode.IsLetter(char):
			hasLetter = true
		case unicode.IsDigit(char):
			hasDigit = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSymbol = true
		}
	}
	return hasLetter && hasDigit && hasSymbol
}
