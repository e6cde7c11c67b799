// Package cryptox implements the password hashing scheme of the
// identity core: argon2id with a per-password random salt, serialized in
// the PHC string format, verified with a constant-time comparison.
package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/cfpio/identity/common"
)

// argon2id parameters. Memory-hard on purpose; a fast general-purpose
// digest would not resist offline brute force.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltLen      = 16
)

// ErrMalformedHash is returned when an encoded hash cannot be parsed.
var ErrMalformedHash = errors.New("malformed password hash")

// HashPassword derives an argon2id digest of clearPassword under a fresh
// random salt and returns it encoded as
//
//	$argon2id$v=19$m=65536,t=1,p=4$<b64(salt)>$<b64(digest)>
func HashPassword(clearPassword string) (string, error) {
	salt, err := common.GenerateRandByteArray(saltLen)
	if err != nil {
		return "", err
	}

	digest := argon2.IDKey([]byte(clearPassword), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest),
	), nil
}

// VerifyPassword recomputes the digest of clearPassword with the salt
// and parameters stored in encoded and compares the results in constant
// time. It returns false for a mismatch and an error only when encoded
// cannot be parsed.
func VerifyPassword(clearPassword, encoded string) (bool, error) {
	salt, digest, time, memory, threads, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(clearPassword), salt, time, memory, threads, uint32(len(digest)))

	return subtle.ConstantTimeCompare(digest, candidate) == 1, nil
}

func decodeHash(encoded string) (salt, digest []byte, time, memory uint32, threads uint8, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, 0, 0, 0, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, nil, 0, 0, 0, ErrMalformedHash
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return nil, nil, 0, 0, 0, ErrMalformedHash
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, 0, 0, 0, ErrMalformedHash
	}

	digest, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, 0, 0, 0, ErrMalformedHash
	}

	return salt, digest, time, memory, threads, nil
}
