package service

import "golang.org/x/crypto/bcrypt"

// Coste reducido para códigos de 6 dígitos y tokens de invitación: también
// caducan y pasan por el rate limiter, así que no necesitan el coste de un
// password.
const codeCost = 6

// HashPassword aplica bcrypt con el coste por defecto.
func HashPassword(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// HashCode aplica bcrypt con coste reducido para secretos de corta vida.
func HashCode(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), codeCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifySecret compara un secreto en claro contra su hash. Un hash vacío o
// ausente devuelve false en lugar de error: los llamadores responden con su
// propio código (NO_VERIFICATION_CODE_SENT, INVALID_*) y nunca con un 500.
func VerifySecret(secret, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
