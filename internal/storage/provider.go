// Package storage defines the directory-rooted file abstraction used for
// the dump input and rendered output trees.
package storage

// Provider is the interface for file operations under a fixed root.
type Provider interface {
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
	// WriteIfChanged writes content unless the file already holds exactly
	// these bytes. It reports whether a physical write happened.
	WriteIfChanged(path string, content []byte) (bool, error)
	// Remove deletes the file at path (relative to root).
	Remove(path string) error
	// CountFiles returns the number of regular files directly under root
	// whose name contains a dot.
	CountFiles() (int, error)
	// Abs resolves path against the root for handing to external tools.
	Abs(path string) (string, error)
}
