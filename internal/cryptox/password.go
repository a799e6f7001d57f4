// Package cryptox implements the one-way credential derivation used by the
// credential store. Raw secrets are never persisted: only a PHC-encoded
// argon2id string carrying the salt and the derived key.
package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/okulikov/authd/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4

	saltLength = 16
	keyLength  = 32
)

func deriveKey(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, keyLength)
}

// HashPassword derives a verifier from password with a fresh random salt and
// returns it in PHC string format, e.g.
//
//	$argon2id$v=19$m=65536,t=1,p=4$c29tZXNhbHQ$aGFzaGhhc2g
func HashPassword(password []byte) (string, error) {
	salt, err := common.MakeRandByteArray(saltLength)
	if err != nil {
		return "", err
	}

	key := deriveKey(password, salt)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, nil
}

// VerifyPassword re-derives candidate with the parameters and salt stored in
// encoded and compares the result in constant time. A mismatch yields
// common.ErrInvalidCredential; a malformed stored value yields a parse error.
func VerifyPassword(encoded string, candidate []byte) error {
	salt, key, err := decode(encoded)
	if err != nil {
		return err
	}

	candidateKey := deriveKey(candidate, salt)

	if subtle.ConstantTimeCompare(key, candidateKey) != 1 {
		return common.ErrInvalidCredential
	}
	return nil
}

func decode(encoded string) (salt []byte, key []byte, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, fmt.Errorf("malformed credential record")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, fmt.Errorf("malformed credential version: %w", err)
	}
	if version != argon2.Version {
		return nil, nil, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return nil, nil, fmt.Errorf("malformed credential parameters: %w", err)
	}
	if memory != argonMemory || time != argonTime || threads != argonThreads {
		return nil, nil, fmt.Errorf("unsupported credential parameters")
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, fmt.Errorf("malformed credential salt: %w", err)
	}

	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, fmt.Errorf("malformed credential key: %w", err)
	}

	return salt, key, nil
}
