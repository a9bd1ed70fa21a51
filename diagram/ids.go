package diagram

import "math/rand/v2"

const base62Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

func randomBase62(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = base62Alphabet[rand.IntN(len(base62Alphabet))]
	}
	return string(b)
}

// uniqueID returns a random base62 id not present in taken. Short ids are
// tried first; the length grows by one each time a candidate collides.
func uniqueID(taken func(string) bool) string {
	for length := 1; ; length++ {
		id := randomBase62(length)
		if !taken(id) {
			return id
		}
	}
}
