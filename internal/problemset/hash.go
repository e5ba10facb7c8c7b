package problemset

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"

	"github.com/verte-zerg/tuiorder/internal/model"
)

// Hash returns an order-sensitive digest over every token and note.
// Strings are length-prefixed so that no two different sets share an encoding.
func Hash(set model.ProblemSet) string {
	h := sha256.New()
	writeLen(h, len(set))
	for _, p := range set {
		writeLen(h, len(p.Tokens))
		for _, tok := range p.Tokens {
			writeString(h, tok)
		}
		writeString(h, p.Note)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeLen(h hash.Hash, n int) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(n))
	_, _ = h.Write(buf[:])
}

func writeString(h hash.Hash, s string) {
	writeLen(h, len(s))
	_, _ = h.Write([]byte(s))
}
