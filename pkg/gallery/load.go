package gallery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/MrCodeEU/facewatch/pkg/logging"
	"github.com/MrCodeEU/facewatch/pkg/recognition"
	"github.com/MrCodeEU/facewatch/pkg/storage"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrImageDecode is returned when a reference image cannot be decoded.
var ErrImageDecode = errors.New("cannot decode reference image")

// ErrNoFace is returned when a reference image contains no face.
var ErrNoFace = errors.New("no face detected in reference image")

// Source enumerates every record in the gallery store.
type Source interface {
	All(ctx context.Context) ([]storage.Record, error)
}

// Options tune Load.
type Options struct {
	// Sealer opens sealed precomputed embeddings. Without it such records
	// fall back to their image.
	Sealer *storage.Sealer
	// Progress, if set, is called after each record.
	Progress func(done, total int)
}

// SkippedRecord describes a record left out of the gallery.
type SkippedRecord struct {
	Key  string
	Name string
	Err  error
}

// Report summarises a load.
type Report struct {
	Total    int
	Computed int
	Reused   int
	Skipped  []SkippedRecord
}

// Load reads every record from src and builds the gallery. A record's
// precomputed embedding is reused when available; otherwise its image is
// decoded and the first detected face's embedding is used. Records that
// cannot produce an embedding are skipped and reported, never replaced by a
// zero vector. Only a failure to enumerate the store fails the load.
func Load(ctx context.Context, src Source, provider recognition.Provider, opts Options) (*Gallery, Report, error) {
	log := logging.Component("gallery")
	var report Report

	records, err := src.All(ctx)
	if err != nil {
		return nil, report, fmt.Errorf("failed to enumerate gallery: %w", err)
	}
	report.Total = len(records)

	entries := make([]Identity, 0, len(records))
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}

		d, reused, err := descriptorFor(rec, provider, opts.Sealer)
		if err != nil {
			log.WithFields(logging.Fields{"key": rec.Key(), "name": rec.Name}).
				WithError(err).Warn("Skipping gallery record")
			report.Skipped = append(report.Skipped, SkippedRecord{Key: rec.Key(), Name: rec.Name, Err: err})
		} else {
			entries = append(entries, Identity{Name: rec.Name, Embedding: d})
			if reused {
				report.Reused++
			} else {
				report.Computed++
			}
		}

		if opts.Progress != nil {
			opts.Progress(i+1, len(records))
		}
	}

	log.Infof("Loaded %d of %d identities (%d computed, %d reused, %d skipped)",
		len(entries), report.Total, report.Computed, report.Reused, len(report.Skipped))
	return &Gallery{entries: entries}, report, nil
}

func descriptorFor(rec storage.Record, provider recognition.Provider, sealer *storage.Sealer) (recognition.Descriptor, bool, error) {
	d, ok, err := rec.StoredDescriptor(sealer)
	if ok {
		return d, true, nil
	}
	if err != nil {
		if len(rec.ImageBinary) == 0 {
			return d, false, err
		}
		logging.Component("gallery").WithError(err).Debugf("Falling back to image for %s", rec.Name)
	}

	d, err = Encode(provider, rec.ImageBinary)
	return d, false, err
}

// Encode decodes an encoded reference image and returns the embedding of the
// first face the provider detects.
func Encode(provider recognition.Provider, data []byte) (recognition.Descriptor, error) {
	var d recognition.Descriptor

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return d, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}

	faces, err := provider.Recognize(img)
	if err != nil {
		return d, err
	}
	if len(faces) == 0 {
		return d, ErrNoFace
	}
	if len(faces) > 1 {
		logging.Component("gallery").Debugf("Reference image has %d faces, using the first", len(faces))
	}
	return faces[0].Descriptor, nil
}
