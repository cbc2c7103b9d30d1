// Package acceleration detects compute backends and chooses the face
// detector accordingly. dlib's CNN detector is only practical on a CUDA
// device; on CPU the HOG detector keeps interactive frame rates.
package acceleration

import (
	"os/exec"
	"runtime"
	"strings"

	"github.com/MrCodeEU/facewatch/pkg/config"
	"github.com/MrCodeEU/facewatch/pkg/logging"
)

// Backend represents a compute backend type.
type Backend string

const (
	// BackendCPU is always available.
	BackendCPU Backend = "cpu"
	// BackendCUDA is an NVIDIA GPU visible through nvidia-smi.
	BackendCUDA Backend = "cuda"
)

// BackendInfo contains information about a backend.
type BackendInfo struct {
	Backend     Backend
	Name        string
	Available   bool
	Version     string
	DeviceName  string
	DeviceCount int
}

// execCommand is replaced in tests.
var execCommand = exec.Command

// DetectBackends returns every backend found on this machine. CPU is
// always first.
func DetectBackends() []BackendInfo {
	backends := []BackendInfo{{
		Backend:     BackendCPU,
		Name:        "CPU (dlib)",
		Available:   true,
		DeviceCount: runtime.NumCPU(),
	}}
	if cuda := detectCUDA(); cuda != nil {
		backends = append(backends, *cuda)
	}
	return backends
}

// detectCUDA detects NVIDIA CUDA availability.
func detectCUDA() *BackendInfo {
	output, err := execCommand("nvidia-smi", "--query-gpu=name,driver_version", "--format=csv,noheader").Output()
	if err != nil {
		return nil
	}

	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return nil
	}

	info := &BackendInfo{
		Backend:     BackendCUDA,
		Name:        "NVIDIA CUDA",
		Available:   true,
		DeviceCount: len(lines),
	}
	parts := strings.Split(lines[0], ",")
	info.DeviceName = strings.TrimSpace(parts[0])
	if len(parts) >= 2 {
		info.Version = strings.TrimSpace(parts[1])
	}
	return info
}

// SelectDetector resolves the configured detector name. "hog" and "cnn" are
// returned unchanged; "auto" picks "cnn" when a CUDA backend is available.
func SelectDetector(preferred string, backends []BackendInfo) string {
	if preferred != config.DetectorAuto {
		return preferred
	}
	for _, b := range backends {
		if b.Backend == BackendCUDA && b.Available {
			logging.Component("acceleration").Infof("Using CNN detector on %s (%s)", b.Name, b.DeviceName)
			return config.DetectorCNN
		}
	}
	logging.Component("acceleration").Info("No CUDA device found, using HOG detector")
	return config.DetectorHOG
}
