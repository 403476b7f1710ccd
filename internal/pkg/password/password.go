package password

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt reads at most 72 bytes, so it hashes the hex sha256 of the password
// and matching stays exact for any length.
func prehash(plain string) []byte {
	sum := sha256.Sum256([]byte(plain))
	return []byte(hex.EncodeToString(sum[:]))
}

func Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(prehash(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func Compare(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), prehash(plain))
}
