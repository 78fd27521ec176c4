package fakeserver

import (
	"crypto/rand"
	"encoding/hex"
	"io"

	"golang.org/x/crypto/bcrypt"
)

const (
	saltBytes = 32

	// bcrypt rejects inputs over 72 bytes, and the salt takes 32 of
	// them. Longer passwords must be refused before hashing.
	maxPasswordLength = 72 - saltBytes
)

// makePassword returns the salt and hash to store for a cleartext
// password.
func makePassword(password string) (string, string) {
	salt := make([]byte, saltBytes)
	_, err := io.ReadFull(rand.Reader, salt)
	if err != nil {
		panic(err)
	}

	hash, err := bcrypt.GenerateFromPassword(
		append(salt, []byte(password)...),
		bcrypt.MinCost,
	)
	if err != nil {
		panic(err)
	}

	return hex.EncodeToString(salt), hex.EncodeToString(hash)
}

// passwordMatch verifies if the input cleartext password matches the salt and hashed password.
func passwordMatch(salt, hashedPassword, clearTextPassword string) bool {
	decodedSalt, _ := hex.DecodeString(salt)
	hashedPasswordBytes, _ := hex.DecodeString(hashedPassword)
	return bcrypt.CompareHashAndPassword(
		hashedPasswordBytes,
		append(decodedSalt, []byte(clearTextPassword)...),
	) == nil
}
