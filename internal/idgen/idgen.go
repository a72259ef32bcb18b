// Package idgen generates UUIDv4, UUIDv7, ULID, NanoID and CUID identifiers
// from an injectable random source and clock.
package idgen

// Generator defines the interface for producing identifiers of one format.
type Generator interface {
	// Generate creates a new identifier.
	Generate() (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func() (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate() (string, error) {
	return f()
}
