// Package gallery holds the in-memory snapshot of enrolled identities used
// for matching, and builds it from the gallery store once per run.
package gallery

import "github.com/MrCodeEU/facewatch/pkg/recognition"

// Identity is one enrolled face.
type Identity struct {
	Name      string
	Embedding recognition.Descriptor
}

// Gallery is an ordered, read-only list of identities. Names need not be
// unique; order is load order.
type Gallery struct {
	entries []Identity
}

// New builds a gallery from entries, copying them.
func New(entries ...Identity) *Gallery {
	return &Gallery{entries: append([]Identity(nil), entries...)}
}

// Len returns the number of identities. A nil gallery is empty.
func (g *Gallery) Len() int {
	if g == nil {
		return 0
	}
	return len(g.entries)
}

// At returns the identity at index i.
func (g *Gallery) At(i int) Identity {
	return g.entries[i]
}

// Names returns the identity names in gallery order.
func (g *Gallery) Names() []string {
	names := make([]string, g.Len())
	for i := range names {
		names[i] = g.entries[i].Name
	}
	return names
}
