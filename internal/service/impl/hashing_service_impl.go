package impl

import (
	"errors"

	"github.com/alexedwards/argon2id"

	"intercom/internal/domain"
)

// HashingServiceArgon2id hashes door secrets with argon2id and encodes the
// result as a PHC string, so parameters and salt travel with the hash and
// old hashes stay verifiable after a policy bump.
type HashingServiceArgon2id struct {
	params *argon2id.Params
}

func NewHashingServiceArgon2id() *HashingServiceArgon2id {
	return &HashingServiceArgon2id{
		params: &argon2id.Params{
			Memory:      64 * 1024, // KiB
			Iterations:  3,
			Parallelism: 1,
			SaltLength:  16,
			KeyLength:   32,
		},
	}
}

func (h *HashingServiceArgon2id) Hash(secret string) (string, error) {
	if secret == "" {
		return "", domain.ErrEmptySecret
	}
	return argon2id.CreateHash(secret, h.params)
}

// Verify reports whether secret matches hash. A malformed stored hash is a
// mismatch, not an error; the engine must keep evaluating other tiers.
func (h *HashingServiceArgon2id) Verify(secret, hash string) (bool, error) {
	ok, err := argon2id.ComparePasswordAndHash(secret, hash)
	if err != nil {
		if errors.Is(err, argon2id.ErrInvalidHash) || errors.Is(err, argon2id.ErrIncompatibleVariant) || errors.Is(err, argon2id.ErrIncompatibleVersion) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}
