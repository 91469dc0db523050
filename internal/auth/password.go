package auth

import (
	"golang.org/x/crypto/bcrypt"

	"room-reservation-api/internal/apperr"
)

const bcryptCost = bcrypt.DefaultCost

func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "hash password", err)
	}
	return string(hash), nil
}

func VerifyPassword(hash, plain string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)); err != nil {
		return apperr.New(apperr.Unauthenticated, "invalid email or password")
	}
	return nil
}
