// Package pipeline runs the capture loop: pull a frame, match it every other
// iteration, hand the frame and current results to a presenter, and stop on
// request.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrCodeEU/facewatch/pkg/camera"
	"github.com/MrCodeEU/facewatch/pkg/gallery"
	"github.com/MrCodeEU/facewatch/pkg/logging"
	"github.com/MrCodeEU/facewatch/pkg/matcher"
)

// ErrCaptureLost is returned when too many consecutive captures fail.
var ErrCaptureLost = errors.New("camera stopped delivering frames")

// DefaultCaptureBackoff is the pause after a failed capture.
const DefaultCaptureBackoff = 20 * time.Millisecond

// Matcher labels faces in a frame.
type Matcher interface {
	Match(frame camera.Frame, g *gallery.Gallery) ([]matcher.Result, error)
}

// Presenter shows a frame with its results and reports whether the user
// asked to stop. Poll checks for a stop request on ticks without a frame.
type Presenter interface {
	Present(frame camera.Frame, results []matcher.Result) (stop bool, err error)
	Poll() (stop bool, err error)
}

// Stats counts what happened during a run.
type Stats struct {
	Iterations      int
	Computed        int
	Reused          int
	CaptureFailures int
	MatchFailures   int
}

// Loop owns the camera for the duration of Run.
type Loop struct {
	Camera    camera.Camera
	Device    string
	Matcher   Matcher
	Gallery   *gallery.Gallery
	Presenter Presenter

	// MaxCaptureFailures aborts the run after this many consecutive capture
	// failures. Zero means never.
	MaxCaptureFailures int

	// CaptureBackoff is how long to wait after a failed capture.
	CaptureBackoff time.Duration
}

// Run opens the camera and loops until the presenter asks to stop, ctx is
// cancelled, or a fatal error occurs. The camera is closed exactly once
// before Run returns, including when a collaborator panics.
func (l *Loop) Run(ctx context.Context) (stats Stats, err error) {
	if l.Camera == nil || l.Matcher == nil || l.Presenter == nil {
		return stats, errors.New("pipeline: camera, matcher and presenter are required")
	}

	log := logging.Component("pipeline")

	if err := l.Camera.Open(l.Device); err != nil {
		return stats, fmt.Errorf("failed to open camera %q: %w", l.Device, err)
	}
	defer func() {
		if cerr := l.Camera.Close(); cerr != nil {
			log.WithError(cerr).Warn("Failed to release camera")
			if err == nil {
				err = fmt.Errorf("failed to release camera: %w", cerr)
			}
		}
	}()

	sched := NewScheduler()
	var current []matcher.Result
	consecutive := 0

	for {
		if ctx.Err() != nil {
			log.Info("Stop requested")
			return stats, nil
		}

		stats.Iterations++
		phase := sched.Next()

		frame, cerr := l.Camera.Capture()
		if cerr != nil {
			stats.CaptureFailures++
			consecutive++
			log.WithError(cerr).Debug("Frame capture failed, skipping")
			if l.MaxCaptureFailures > 0 && consecutive >= l.MaxCaptureFailures {
				return stats, fmt.Errorf("%w: %d consecutive failures: %v", ErrCaptureLost, consecutive, cerr)
			}

			stop, perr := l.Presenter.Poll()
			if perr != nil {
				return stats, fmt.Errorf("failed to poll presenter: %w", perr)
			}
			if stop {
				log.Info("Stop key pressed")
				return stats, nil
			}
			l.backoff(ctx)
			continue
		}
		consecutive = 0

		switch phase {
		case Compute:
			stats.Computed++
			results, merr := l.Matcher.Match(frame, l.Gallery)
			if merr != nil {
				stats.MatchFailures++
				log.WithError(merr).Debug("Matching failed, keeping previous results")
			} else {
				current = results
			}
		case Reuse:
			stats.Reused++
		}

		stop, perr := l.Presenter.Present(frame, current)
		if perr != nil {
			return stats, fmt.Errorf("failed to present frame: %w", perr)
		}
		if stop {
			log.Info("Stop key pressed")
			return stats, nil
		}
	}
}

func (l *Loop) backoff(ctx context.Context) {
	if l.CaptureBackoff <= 0 {
		return
	}
	t := time.NewTimer(l.CaptureBackoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
