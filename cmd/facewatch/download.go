package main

import (
	"compress/bzip2"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/MrCodeEU/facewatch/pkg/logging"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

const modelBaseURL = "http://dlib.net/files/"

// dlib model files, stored bzip2 compressed upstream.
var models = []string{
	"shape_predictor_5_face_landmarks.dat",
	"dlib_face_recognition_resnet_model_v1.dat",
	"mmod_human_face_detector.dat",
}

var downloadCmd = &cobra.Command{
	Use:   "download-models [dir]",
	Short: "Download the dlib model files",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		modelDir := cfg.Recognition.ModelPath
		if len(args) > 0 {
			modelDir = args[0]
		}
		client := &http.Client{Timeout: 10 * time.Minute}
		return downloadModels(cmd.Context(), client, modelBaseURL, modelDir, cmd.ErrOrStderr())
	},
}

func downloadModels(ctx context.Context, client *http.Client, baseURL, modelDir string, progress io.Writer) error {
	logging.Infof("Downloading models to: %s", modelDir)

	if err := os.MkdirAll(modelDir, 0755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	for _, name := range models {
		targetPath := filepath.Join(modelDir, name)
		if _, err := os.Stat(targetPath); err == nil {
			logging.Infof("Model %s already exists, skipping", name)
			continue
		}

		if err := downloadAndExtract(ctx, client, baseURL+name+".bz2", targetPath, progress); err != nil {
			return fmt.Errorf("failed to download %s: %w", name, err)
		}
		logging.Infof("Successfully downloaded %s", name)
	}

	logging.Info("All models downloaded successfully!")
	return nil
}

func downloadAndExtract(ctx context.Context, client *http.Client, url, targetPath string, progress io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	// Write to a temporary name so an interrupted download is not mistaken
	// for a complete model on the next run.
	tmpPath := targetPath + ".part"
	out, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmpPath) }()

	bar := progressbar.NewOptions64(resp.ContentLength,
		progressbar.OptionSetDescription(filepath.Base(targetPath)),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionShowBytes(true),
	)
	_, err = io.Copy(out, bzip2.NewReader(io.TeeReader(resp.Body, bar)))
	_ = bar.Finish()
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	return os.Rename(tmpPath, targetPath)
}
