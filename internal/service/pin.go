// internal/service/pin.go
package service

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"

	"remitflow-wallet/internal/domain"
)

// PinVerifier checks transaction PINs against bcrypt hashes.
type PinVerifier struct {
	bypass        []byte
	bypassEnabled bool
}

// NewPinVerifier builds a verifier. When bypassEnabled is set, bypass is accepted
// in place of the user's PIN; callers only enable it outside production.
func NewPinVerifier(bypass string, bypassEnabled bool) *PinVerifier {
	return &PinVerifier{bypass: []byte(bypass), bypassEnabled: bypassEnabled && bypass != ""}
}

// VerifyPin reports whether pin unlocks user.
func (v *PinVerifier) VerifyPin(user *domain.User, pin string) bool {
	if v.bypassEnabled && subtle.ConstantTimeCompare([]byte(pin), v.bypass) == 1 {
		return true
	}
	if user == nil || user.PinHash == nil || *user.PinHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*user.PinHash), []byte(pin)) == nil
}

// HashPin returns a bcrypt hash for storing a new PIN.
func HashPin(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
