package auth

import "github.com/alexedwards/argon2id"

// HashPassword derives a salted argon2id hash from the plaintext.
// The salt is generated per call and embedded in the encoded hash.
func HashPassword(password string) (string, error) {
	return argon2id.CreateHash(password, argon2id.DefaultParams)
}

// VerifyPassword reports whether the plaintext matches the encoded
// hash. A malformed hash counts as a mismatch.
func VerifyPassword(password, hash string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil {
		return false
	}
	return match
}
