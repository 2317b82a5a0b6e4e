// Package util provides utility functions for the naapim application.
package util

import (
	"math/rand/v2"
	"strings"
)

// GenerateRandomID generates a random ID with the specified prefix and hex length.
// The returned ID will be in the format: "{prefix}{hex_string}".
func GenerateRandomID(prefix string, hexLength int) string {
	return prefix + GenerateRandomHex(hexLength)
}

// GenerateRandomHex generates a random hexadecimal string of the specified length.
// Uses math/rand/v2; not for cryptographic purposes.
func GenerateRandomHex(length int) string {
	if length <= 0 {
		return ""
	}

	const hexChars = "0123456789abcdef"
	var builder strings.Builder
	builder.Grow(length)

	for i := 0; i < length; i++ {
		builder.WriteByte(hexChars[rand.IntN(16)])
	}

	return builder.String()
}

// GenerateParticipantID generates a unique participant ID with "p_" prefix.
func GenerateParticipantID() string {
	return GenerateRandomID("p_", 32)
}

// GenerateSessionCode generates a short human-shareable session code.
// The alphabet omits easily confused characters (0/O, 1/I/L).
func GenerateSessionCode() string {
	const chars = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"
	const length = 6

	var builder strings.Builder
	builder.Grow(length)
	for i := 0; i < length; i++ {
		builder.WriteByte(chars[rand.IntN(len(chars))])
	}
	return builder.String()
}

// Sampler draws distinct elements from a slice. The zero value uses the
// global generator; tests inject a seeded source for deterministic draws.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler creates a sampler using the shared global generator.
func NewSampler() *Sampler {
	return &Sampler{}
}

// NewSeededSampler creates a sampler with a deterministic seed.
func NewSeededSampler(seed uint64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewPCG(seed, seed))}
}

// Sample returns n distinct elements of keys in shuffled order. When n is
// greater than or equal to len(keys), a shuffled copy of all keys is returned.
func (s *Sampler) Sample(keys []string, n int) []string {
	shuffled := make([]string, len(keys))
	copy(shuffled, keys)
	s.shuffle(shuffled)
	if n >= len(shuffled) {
		return shuffled
	}
	return shuffled[:n]
}

func (s *Sampler) shuffle(keys []string) {
	swap := func(i, j int) { keys[i], keys[j] = keys[j], keys[i] }
	if s.rng != nil {
		s.rng.Shuffle(len(keys), swap)
		return
	}
	rand.Shuffle(len(keys), swap)
}
