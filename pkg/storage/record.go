package storage

import (
	"fmt"
	"time"

	"github.com/MrCodeEU/facewatch/pkg/recognition"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Record is one enrolled identity as stored in the gallery collection.
// fname, age and enrolled_at are enrollment metadata; matching only reads
// name and either the image or a precomputed embedding.
type Record struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Name            string             `bson:"name"`
	FName           string             `bson:"fname,omitempty"`
	Age             int                `bson:"age,omitempty"`
	ImageBinary     []byte             `bson:"image_binary,omitempty"`
	Embedding       []float64          `bson:"embedding,omitempty"` // BSON doubles
	SealedEmbedding []byte             `bson:"embedding_sealed,omitempty"`
	EnrolledAt      time.Time          `bson:"enrolled_at,omitempty"`
}

// Key returns the record's delete key.
func (r Record) Key() string {
	return r.ID.Hex()
}

// HasEmbedding reports whether the record carries a precomputed embedding
// in either form.
func (r Record) HasEmbedding() bool {
	return len(r.Embedding) > 0 || len(r.SealedEmbedding) > 0
}

// StoredDescriptor returns the precomputed embedding. ok is false when the
// record has none. A sealed embedding needs a non-nil sealer.
func (r Record) StoredDescriptor(sealer *Sealer) (d recognition.Descriptor, ok bool, err error) {
	if len(r.SealedEmbedding) > 0 {
		if sealer == nil {
			return d, false, fmt.Errorf("%w: sealed embedding but no seal key configured", ErrEncryption)
		}
		d, err = sealer.OpenDescriptor(r.SealedEmbedding)
		if err != nil {
			return d, false, err
		}
		return d, true, nil
	}

	if len(r.Embedding) == 0 {
		return d, false, nil
	}
	d, ok = recognition.DescriptorFromFloat64s(r.Embedding)
	if !ok {
		return d, false, fmt.Errorf("stored embedding has %d dimensions, want %d", len(r.Embedding), recognition.DescriptorSize)
	}
	return d, true, nil
}

// SetDescriptor stores d on the record, sealed when sealer is non-nil.
func (r *Record) SetDescriptor(d recognition.Descriptor, sealer *Sealer) error {
	if sealer != nil {
		sealed, err := sealer.SealDescriptor(d)
		if err != nil {
			return err
		}
		r.SealedEmbedding = sealed
		r.Embedding = nil
		return nil
	}

	r.Embedding = make([]float64, len(d))
	for i, v := range d {
		r.Embedding[i] = float64(v)
	}
	r.SealedEmbedding = nil
	return nil
}
