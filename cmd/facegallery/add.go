package main

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/MrCodeEU/facewatch/pkg/acceleration"
	"github.com/MrCodeEU/facewatch/pkg/gallery"
	"github.com/MrCodeEU/facewatch/pkg/recognition"
	"github.com/MrCodeEU/facewatch/pkg/recognition/dlib"
	"github.com/MrCodeEU/facewatch/pkg/storage"
	"github.com/spf13/cobra"
)

type enrollment struct {
	Name       string
	FName      string
	Age        int
	ImagePath  string
	Precompute bool
}

var enroll enrollment

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Enroll a new identity from a face image",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var provider recognition.Provider
		if enroll.Precompute {
			r := dlib.NewRecognizer(acceleration.SelectDetector(cfg.Recognition.Detector, acceleration.DetectBackends()))
			if err := r.LoadModels(cfg.Recognition.ModelPath); err != nil {
				return err
			}
			defer func() { _ = r.Close() }()
			provider = r
		}

		var sealer *storage.Sealer
		if cfg.Gallery.SealKey != "" {
			var err error
			if sealer, err = storage.NewSealer(cfg.Gallery.SealKey); err != nil {
				return err
			}
		}

		rec, err := buildRecord(enroll, provider, sealer)
		if err != nil {
			return err
		}
		key, err := store.Insert(cmd.Context(), rec)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Enrolled %s %s (%s)\n", rec.Name, rec.FName, key)
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&enroll.Name, "name", "", "Given name (the label shown on screen)")
	addCmd.Flags().StringVar(&enroll.FName, "fname", "", "Family name")
	addCmd.Flags().IntVar(&enroll.Age, "age", 0, "Age")
	addCmd.Flags().StringVar(&enroll.ImagePath, "image", "", "Path to a face image")
	addCmd.Flags().BoolVar(&enroll.Precompute, "precompute", false, "Store the face embedding alongside the image")
	for _, f := range []string{"name", "fname", "age", "image"} {
		_ = addCmd.MarkFlagRequired(f)
	}
}

// buildRecord validates an enrollment and turns it into a store record.
// With a provider the embedding is computed now and stored, sealed when
// sealer is set.
func buildRecord(e enrollment, provider recognition.Provider, sealer *storage.Sealer) (storage.Record, error) {
	if e.Name == "" || e.FName == "" {
		return storage.Record{}, errors.New("name and family name are required")
	}
	if e.Age <= 0 {
		return storage.Record{}, fmt.Errorf("age must be positive, got %d", e.Age)
	}

	data, err := os.ReadFile(e.ImagePath)
	if err != nil {
		return storage.Record{}, fmt.Errorf("failed to read image: %w", err)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return storage.Record{}, fmt.Errorf("%w: %s: %v", gallery.ErrImageDecode, e.ImagePath, err)
	}

	rec := storage.Record{
		Name:        e.Name,
		FName:       e.FName,
		Age:         e.Age,
		ImageBinary: data,
	}
	if provider == nil {
		return rec, nil
	}

	d, err := gallery.Encode(provider, data)
	if err != nil {
		return storage.Record{}, err
	}
	if err := rec.SetDescriptor(d, sealer); err != nil {
		return storage.Record{}, err
	}
	return rec, nil
}
