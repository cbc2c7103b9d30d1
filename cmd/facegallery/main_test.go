package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrCodeEU/facewatch/pkg/gallery"
	"github.com/MrCodeEU/facewatch/pkg/recognition"
	"github.com/MrCodeEU/facewatch/pkg/storage"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fixedProvider struct {
	faces []recognition.Face
	err   error
}

func (p fixedProvider) Recognize(image.Image) ([]recognition.Face, error) {
	return p.faces, p.err
}

func writePNG(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
	path := filepath.Join(t.TempDir(), "face.png")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("Failed to write png: %v", err)
	}
	return path
}

func TestBuildRecord(t *testing.T) {
	path := writePNG(t)

	rec, err := buildRecord(enrollment{Name: "Ada", FName: "Lovelace", Age: 36, ImagePath: path}, nil, nil)
	if err != nil {
		t.Fatalf("buildRecord() error = %v", err)
	}
	if rec.Name != "Ada" || rec.FName != "Lovelace" || rec.Age != 36 {
		t.Errorf("record = %+v", rec)
	}
	if len(rec.ImageBinary) == 0 {
		t.Error("image bytes were not stored")
	}
	if rec.HasEmbedding() {
		t.Error("embedding stored without --precompute")
	}
}

func TestBuildRecord_Invalid(t *testing.T) {
	path := writePNG(t)
	garbage := filepath.Join(t.TempDir(), "garbage.png")
	if err := os.WriteFile(garbage, []byte("not an image"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	tests := []struct {
		name string
		e    enrollment
	}{
		{"missing name", enrollment{FName: "Lovelace", Age: 36, ImagePath: path}},
		{"missing family name", enrollment{Name: "Ada", Age: 36, ImagePath: path}},
		{"zero age", enrollment{Name: "Ada", FName: "Lovelace", ImagePath: path}},
		{"missing file", enrollment{Name: "Ada", FName: "Lovelace", Age: 36, ImagePath: path + ".nope"}},
		{"undecodable image", enrollment{Name: "Ada", FName: "Lovelace", Age: 36, ImagePath: garbage}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := buildRecord(tt.e, nil, nil); err == nil {
				t.Error("buildRecord() should fail")
			}
		})
	}
}

func TestBuildRecord_Precompute(t *testing.T) {
	path := writePNG(t)
	want := recognition.Descriptor{0: 0.25, 127: -0.5}
	provider := fixedProvider{faces: []recognition.Face{{Descriptor: want}}}
	e := enrollment{Name: "Ada", FName: "Lovelace", Age: 36, ImagePath: path, Precompute: true}

	rec, err := buildRecord(e, provider, nil)
	if err != nil {
		t.Fatalf("buildRecord() error = %v", err)
	}
	got, ok, err := rec.StoredDescriptor(nil)
	if err != nil || !ok || got != want {
		t.Errorf("StoredDescriptor() = %v, %v, %v", got, ok, err)
	}

	sealer, err := storage.NewSealer("secret")
	if err != nil {
		t.Fatalf("NewSealer() error = %v", err)
	}
	rec, err = buildRecord(e, provider, sealer)
	if err != nil {
		t.Fatalf("buildRecord() sealed error = %v", err)
	}
	if len(rec.SealedEmbedding) == 0 || len(rec.Embedding) != 0 {
		t.Fatalf("expected only a sealed embedding, got %+v", rec)
	}
	got, ok, err = rec.StoredDescriptor(sealer)
	if err != nil || !ok || got != want {
		t.Errorf("sealed StoredDescriptor() = %v, %v, %v", got, ok, err)
	}
}

func TestBuildRecord_PrecomputeNoFace(t *testing.T) {
	path := writePNG(t)
	e := enrollment{Name: "Ada", FName: "Lovelace", Age: 36, ImagePath: path, Precompute: true}

	_, err := buildRecord(e, fixedProvider{}, nil)
	if !errors.Is(err, gallery.ErrNoFace) {
		t.Errorf("buildRecord() error = %v, want ErrNoFace", err)
	}
}

func TestRemoveTarget(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		fname   string
		given   string
		wantKey string
		wantErr bool
	}{
		{"by id", []string{"65a1"}, "", "", "65a1", false},
		{"by name pair", nil, "Lovelace", "Ada", "", false},
		{"id and name", []string{"65a1"}, "", "Ada", "", true},
		{"name only", nil, "", "Ada", "", true},
		{"family name only", nil, "Lovelace", "", "", true},
		{"nothing", nil, "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := removeTarget(tt.args, tt.given, tt.fname)
			if (err != nil) != tt.wantErr {
				t.Fatalf("removeTarget() error = %v, wantErr %v", err, tt.wantErr)
			}
			if key != tt.wantKey {
				t.Errorf("removeTarget() = %q, want %q", key, tt.wantKey)
			}
		})
	}
}

func TestPrintRecords(t *testing.T) {
	var buf bytes.Buffer
	printRecords(&buf, nil)
	if !strings.Contains(buf.String(), "No identities enrolled.") {
		t.Errorf("empty output = %q", buf.String())
	}

	id := primitive.NewObjectID()
	buf.Reset()
	printRecords(&buf, []storage.Record{{ID: id, Name: "Ada", FName: "Lovelace"}})
	out := buf.String()
	if !strings.Contains(out, id.Hex()+"  Ada - Lovelace") {
		t.Errorf("output missing record line: %q", out)
	}
	if !strings.Contains(out, "Total: 1 identity") {
		t.Errorf("output missing total: %q", out)
	}
}

func TestExecute_CleansUpOnCommandError(t *testing.T) {
	runErr := errors.New("insert failed")
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"command fails", runErr, runErr},
		{"command succeeds", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{
				Use:           "test",
				SilenceUsage:  true,
				SilenceErrors: true,
				RunE:          func(*cobra.Command, []string) error { return tt.err },
			}
			cmd.SetArgs([]string{})

			cleaned := 0
			err := execute(context.Background(), cmd, func() { cleaned++ })
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("execute() error = %v, want %v", err, tt.wantErr)
			}
			if cleaned != 1 {
				t.Errorf("cleanup ran %d times, want 1", cleaned)
			}
		})
	}
}

func TestCloseStore_NoConnection(t *testing.T) {
	store = nil
	closeStore()
	if store != nil {
		t.Error("store should stay nil")
	}
}
