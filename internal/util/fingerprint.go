package util

import (
	"fmt"
	"hash/fnv"
)

// Fingerprint returns a short hex digest of a handshake blob. Both peers log
// it so a user can check that a pasted link arrived intact. The digest is
// for eyeballing only and carries no security meaning.
func Fingerprint(blob string) string {
	h := fnv.New32a()
	h.Write([]byte(blob))
	return fmt.Sprintf("%08x", h.Sum32())
}
