package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/MrCodeEU/facewatch/pkg/acceleration"
	"github.com/MrCodeEU/facewatch/pkg/camera/opencv"
	"github.com/MrCodeEU/facewatch/pkg/display"
	gocvdisplay "github.com/MrCodeEU/facewatch/pkg/display/opencv"
	"github.com/MrCodeEU/facewatch/pkg/gallery"
	"github.com/MrCodeEU/facewatch/pkg/logging"
	"github.com/MrCodeEU/facewatch/pkg/matcher"
	"github.com/MrCodeEU/facewatch/pkg/pipeline"
	"github.com/MrCodeEU/facewatch/pkg/recognition/dlib"
	"github.com/MrCodeEU/facewatch/pkg/storage"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var headless bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Watch the camera and label recognised faces",
	RunE:  runWatch,
}

func init() {
	runCmd.Flags().BoolVar(&headless, "headless", false, "Run without a window; stop with Ctrl+C")
}

type presenter interface {
	pipeline.Presenter
	Close() error
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logging.WithField("run_id", uuid.NewString())

	store, err := storage.Connect(ctx, cfg.Gallery)
	if err != nil {
		return fmt.Errorf("gallery store at %s: %w", cfg.Gallery.Redacted(), err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = store.Close(closeCtx)
	}()

	detector := acceleration.SelectDetector(cfg.Recognition.Detector, acceleration.DetectBackends())
	recognizer := dlib.NewRecognizer(detector)
	if err := recognizer.LoadModels(cfg.Recognition.ModelPath); err != nil {
		return fmt.Errorf("%w (run 'facewatch download-models' first)", err)
	}
	defer func() { _ = recognizer.Close() }()
	log.WithField("detector", recognizer.Mode()).Info("Recognition models loaded")

	var sealer *storage.Sealer
	if cfg.Gallery.SealKey != "" {
		if sealer, err = storage.NewSealer(cfg.Gallery.SealKey); err != nil {
			return err
		}
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Loading gallery"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)
	g, report, err := gallery.Load(ctx, store, recognizer, gallery.Options{
		Sealer: sealer,
		Progress: func(done, total int) {
			bar.ChangeMax(total)
			_ = bar.Set(done)
		},
	})
	_ = bar.Finish()
	if err != nil {
		return err
	}
	log.WithFields(logging.Fields{
		"identities": g.Len(),
		"computed":   report.Computed,
		"reused":     report.Reused,
		"skipped":    len(report.Skipped),
	}).Info("Gallery loaded")
	if g.Len() == 0 {
		log.Warn("Gallery is empty, every face will be labelled Unknown")
	} else {
		log.WithField("names", g.Names()).Debug("Gallery identities")
	}

	var view presenter
	if cfg.Display.Enabled && !headless {
		w, err := gocvdisplay.NewWindow(cfg.Display.WindowTitle, cfg.Display.StopKey)
		if err != nil {
			return err
		}
		view = w
	} else {
		view = display.NewHeadless()
	}
	defer func() { _ = view.Close() }()

	loop := &pipeline.Loop{
		Camera:             opencv.NewCamera(cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.FPS),
		Device:             cfg.Camera.Device,
		Matcher:            matcher.New(recognizer, cfg.Recognition.Tolerance, cfg.Recognition.DownscaleFactor),
		Gallery:            g,
		Presenter:          view,
		MaxCaptureFailures: cfg.Pipeline.MaxCaptureFailures,
		CaptureBackoff:     pipeline.DefaultCaptureBackoff,
	}

	start := time.Now()
	stats, err := loop.Run(ctx)
	log.WithFields(logging.Fields{
		"iterations":       stats.Iterations,
		"computed":         stats.Computed,
		"reused":           stats.Reused,
		"capture_failures": stats.CaptureFailures,
		"match_failures":   stats.MatchFailures,
		"elapsed":          time.Since(start).Round(time.Millisecond).String(),
	}).Info("Capture loop finished")

	if errors.Is(err, pipeline.ErrCaptureLost) {
		return fmt.Errorf("%w (check the camera at %s)", err, cfg.Camera.Device)
	}
	return err
}
