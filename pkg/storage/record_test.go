package storage

import (
	"errors"
	"testing"

	"github.com/MrCodeEU/facewatch/pkg/recognition"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRecord_StoredDescriptor(t *testing.T) {
	sealer, _ := NewSealer("secret")
	d := recognition.Descriptor{0: 0.25, 64: -0.5}

	sealedRec := Record{Name: "ada"}
	if err := sealedRec.SetDescriptor(d, sealer); err != nil {
		t.Fatalf("SetDescriptor failed: %v", err)
	}
	plainRec := Record{Name: "ada"}
	if err := plainRec.SetDescriptor(d, nil); err != nil {
		t.Fatalf("SetDescriptor failed: %v", err)
	}

	tests := []struct {
		name    string
		rec     Record
		sealer  *Sealer
		wantOK  bool
		wantErr error
	}{
		{"plain", plainRec, nil, true, nil},
		{"plain ignores sealer", plainRec, sealer, true, nil},
		{"sealed", sealedRec, sealer, true, nil},
		{"sealed without key", sealedRec, nil, false, ErrEncryption},
		{"no embedding", Record{Name: "ada", ImageBinary: []byte{1}}, sealer, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := tt.rec.StoredDescriptor(tt.sealer)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != d {
				t.Error("descriptor mismatch")
			}
		})
	}
}

func TestRecord_StoredDescriptor_WrongDimensions(t *testing.T) {
	rec := Record{Name: "ada", Embedding: []float64{1, 2, 3}}
	if _, ok, err := rec.StoredDescriptor(nil); ok || err == nil {
		t.Errorf("expected dimension error, got ok=%v err=%v", ok, err)
	}
}

func TestRecord_SetDescriptorSwitchesForm(t *testing.T) {
	sealer, _ := NewSealer("secret")
	var rec Record

	_ = rec.SetDescriptor(recognition.Descriptor{}, sealer)
	if rec.Embedding != nil || len(rec.SealedEmbedding) == 0 {
		t.Error("sealed form should replace plain embedding")
	}

	_ = rec.SetDescriptor(recognition.Descriptor{}, nil)
	if rec.SealedEmbedding != nil || len(rec.Embedding) != recognition.DescriptorSize {
		t.Error("plain form should replace sealed embedding")
	}
}

func TestRecord_BSONFieldNames(t *testing.T) {
	rec := Record{
		ID:          primitive.NewObjectID(),
		Name:        "Ada",
		FName:       "Lovelace",
		Age:         36,
		ImageBinary: []byte{0xff, 0xd8},
	}

	raw, err := bson.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	for _, field := range []string{"_id", "name", "fname", "age", "image_binary"} {
		if _, ok := doc[field]; !ok {
			t.Errorf("field %q missing from document", field)
		}
	}
	for _, field := range []string{"embedding", "embedding_sealed"} {
		if _, ok := doc[field]; ok {
			t.Errorf("empty field %q should be omitted", field)
		}
	}
	if rec.Key() != rec.ID.Hex() {
		t.Error("Key should be the hex object id")
	}
}
