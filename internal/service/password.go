package service

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword indica que se intentó hashear una contraseña vacía.
var ErrEmptyPassword = errors.New("password must not be empty")

// PasswordHasher genera y verifica hashes bcrypt con salt aleatorio por llamada.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher crea un hasher con el costo indicado.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash devuelve el hash bcrypt de la contraseña.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", ErrEmptyPassword
	}
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashBytes), nil
}

// Verify indica si la contraseña corresponde al hash. Una contraseña
// incorrecta devuelve false, nunca error.
func (h *PasswordHasher) Verify(password, hash string) bool {
	if password == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
