package service

// HashingService is the one-way hashing primitive for door secrets. Hash
// output embeds algorithm parameters and salt; Verify runs in constant time
// with respect to the secret.
type HashingService interface {
	Hash(secret string) (string, error)
	Verify(secret, hash string) (bool, error)
}
