package seeds

import (
	"fmt"
	"math/rand"
)

const letterBytes = "abcdefghijklmnopqrstuvwxyz"

func RandStringBytes(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letterBytes[rand.Intn(len(letterBytes))]
	}
	return string(b)
}

// RandomSessionID returns a plausible client-generated session identifier.
func RandomSessionID() string {
	return fmt.Sprintf("upload-%s", RandStringBytes(12))
}

// RandomChunk returns n pseudo-random payload bytes.
func RandomChunk(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(rand.Intn(256))
	}
	return b
}
