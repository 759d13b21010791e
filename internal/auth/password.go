package auth

import "golang.org/x/crypto/bcrypt"

// bcrypt ignores everything past 72 bytes of input. Truncate explicitly on
// both the hash and verify paths so the two always see the same bytes;
// otherwise verification of long passwords depends on library behavior.
const maxPasswordBytes = 72

func truncatePassword(pw string) []byte {
	b := []byte(pw)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}

// Hasher hashes and verifies passwords with bcrypt. Each hash carries its
// own random salt, so outputs differ across calls on the same input.
type Hasher struct {
	cost int
}

func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return Hasher{cost: cost}
}

func (h Hasher) Hash(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword(truncatePassword(pw), h.cost)
	return string(b), err
}

// Verify reports whether pw matches the stored hash.
func (h Hasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), truncatePassword(pw)) == nil
}
