package matcher

import (
	"math"

	"github.com/MrCodeEU/facewatch/pkg/gallery"
	"github.com/MrCodeEU/facewatch/pkg/recognition"
)

// Unknown labels a face with no accepted gallery match.
const Unknown = "Unknown"

// Decision is the outcome of matching one embedding against a gallery.
type Decision struct {
	Label    string
	Index    int // nearest gallery entry, -1 for an empty gallery
	Distance float64
	Accepted bool
}

// Decide finds the nearest gallery entry to d (the first one on ties) and
// labels with its name only if that same entry is within threshold. A
// farther entry that happens to be within threshold is never chosen
// instead. An empty gallery always yields Unknown.
func Decide(g *gallery.Gallery, d recognition.Descriptor, threshold float64) Decision {
	if g.Len() == 0 {
		return Decision{Label: Unknown, Index: -1, Distance: math.Inf(1)}
	}

	best := 0
	bestDist := recognition.EuclideanDistance(g.At(0).Embedding, d)
	for i := 1; i < g.Len(); i++ {
		if dist := recognition.EuclideanDistance(g.At(i).Embedding, d); dist < bestDist {
			best, bestDist = i, dist
		}
	}

	dec := Decision{Label: Unknown, Index: best, Distance: bestDist}
	if bestDist <= threshold {
		dec.Label = g.At(best).Name
		dec.Accepted = true
	}
	return dec
}
