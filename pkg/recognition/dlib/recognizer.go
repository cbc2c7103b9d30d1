// Package dlib provides the embedding provider backed by dlib through
// go-face. It detects faces with either the HOG or the CNN detector and
// computes a 128-d descriptor per face.
package dlib

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"sync"

	"github.com/Kagami/go-face"
	"github.com/MrCodeEU/facewatch/pkg/logging"
	"github.com/MrCodeEU/facewatch/pkg/recognition"
)

// Detection modes.
const (
	ModeHOG = "hog"
	ModeCNN = "cnn"
)

// jpegQuality is used when handing images to dlib, which only accepts
// encoded JPEG data.
const jpegQuality = 95

// FaceEngine is the subset of *face.Recognizer the recognizer uses.
type FaceEngine interface {
	Recognize(imgData []byte) ([]face.Face, error)
	RecognizeCNN(imgData []byte) ([]face.Face, error)
	Close()
}

// EngineFactory loads a FaceEngine from a model directory.
type EngineFactory func(modelPath string) (FaceEngine, error)

func newGoFaceEngine(modelPath string) (FaceEngine, error) {
	rec, err := face.NewRecognizer(modelPath)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Recognizer implements recognition.Provider using dlib via go-face.
type Recognizer struct {
	engine    FaceEngine
	factory   EngineFactory
	modelPath string
	mode      string
	loaded    bool
	mu        sync.RWMutex
}

// NewRecognizer creates a Recognizer using the given detection mode.
// Unknown modes fall back to HOG.
func NewRecognizer(mode string) *Recognizer {
	if mode != ModeCNN {
		mode = ModeHOG
	}
	return &Recognizer{
		factory: newGoFaceEngine,
		mode:    mode,
	}
}

// Mode returns the detection mode in use.
func (r *Recognizer) Mode() string {
	return r.mode
}

// LoadModels loads the dlib models from the specified path.
// The path should contain:
// - shape_predictor_5_face_landmarks.dat
// - dlib_face_recognition_resnet_model_v1.dat
// - mmod_human_face_detector.dat (CNN mode only)
func (r *Recognizer) LoadModels(modelPath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loaded {
		return nil
	}

	logging.Component("dlib").Infof("Loading face recognition models from: %s (detector: %s)", modelPath, r.mode)

	engine, err := r.factory(modelPath)
	if err != nil {
		return fmt.Errorf("failed to load models: %w", err)
	}

	r.engine = engine
	r.modelPath = modelPath
	r.loaded = true
	return nil
}

// Close releases the recognizer resources.
func (r *Recognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.engine != nil {
		r.engine.Close()
		r.engine = nil
	}
	r.loaded = false
	return nil
}

// Recognize detects every face in img and returns them in detection order.
// An image without faces yields an empty slice and no error.
func (r *Recognizer) Recognize(img image.Image) ([]recognition.Face, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return r.RecognizeJPEG(buf.Bytes())
}

// RecognizeJPEG is Recognize for already encoded JPEG data.
func (r *Recognizer) RecognizeJPEG(data []byte) ([]recognition.Face, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.loaded {
		return nil, recognition.ErrModelNotLoaded
	}

	var (
		faces []face.Face
		err   error
	)
	if r.mode == ModeCNN {
		faces, err = r.engine.RecognizeCNN(data)
	} else {
		faces, err = r.engine.Recognize(data)
	}
	if err != nil {
		return nil, fmt.Errorf("face detection failed: %w", err)
	}

	result := make([]recognition.Face, len(faces))
	for i, f := range faces {
		result[i] = recognition.Face{
			Box:        recognition.BoxFromRect(f.Rectangle),
			Descriptor: recognition.Descriptor(f.Descriptor),
		}
	}
	return result, nil
}
