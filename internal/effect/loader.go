package effect

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/jutsu/internal/compositor"
	"github.com/ayusman/jutsu/internal/gesture"
)

// audioExtensions are tried in order next to an effect file.
var audioExtensions = []string{".mp3", ".wav", ".m4a"}

// stillExtensions are decoded with IMRead instead of a video capture.
var stillExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".bmp": true}

// LoadAssets decodes every catalog entry found under dir. Entries whose file is
// missing or undecodable are logged and left out; they never fail the load.
// Only an invalid catalog returns an error.
func LoadAssets(dir string, specs []Spec, logger *zap.Logger) (map[string]*Asset, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	assets := make(map[string]*Asset, len(specs))
	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			closeAssets(assets)
			return nil, err
		}
		if _, dup := assets[spec.Name]; dup {
			closeAssets(assets)
			return nil, fmt.Errorf("duplicate effect %q", spec.Name)
		}

		path := filepath.Join(dir, spec.File)
		if _, err := os.Stat(path); err != nil {
			logger.Info("effect asset missing", zap.String("effect", spec.Name), zap.String("path", path))
			continue
		}

		frames, err := decodeFrames(path)
		if err != nil {
			logger.Warn("effect asset unreadable", zap.String("effect", spec.Name), zap.Error(err))
			continue
		}

		asset := &Asset{
			Name:          spec.Name,
			Mode:          spec.Mode,
			Frames:        frames,
			Audio:         findAudio(path),
			FixedDuration: spec.FixedDuration,
		}
		assets[spec.Name] = asset

		logger.Info("effect loaded",
			zap.String("effect", spec.Name),
			zap.Int("frames", len(frames)),
			zap.Bool("audio", asset.Audio != ""))
	}
	return assets, nil
}

// CloseAssets releases every asset in the map.
func CloseAssets(assets map[string]*Asset) {
	closeAssets(assets)
}

func closeAssets(assets map[string]*Asset) {
	for _, a := range assets {
		a.Close()
	}
}

// decodeFrames reads every frame of a GIF or video, or a single still image.
func decodeFrames(path string) ([]compositor.Source, error) {
	if stillExtensions[strings.ToLower(filepath.Ext(path))] {
		img := gocv.IMRead(path, gocv.IMReadUnchanged)
		if img.Empty() {
			img.Close()
			return nil, fmt.Errorf("decode %s: empty image", path)
		}
		return []compositor.Source{compositor.NewSource(img)}, nil
	}

	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer capture.Close()

	var frames []compositor.Source
	for {
		frame := gocv.NewMat()
		if ok := capture.Read(&frame); !ok || frame.Empty() {
			frame.Close()
			break
		}
		frames = append(frames, compositor.NewSource(frame))
	}

	if len(frames) == 0 {
		return nil, fmt.Errorf("decode %s: no frames", path)
	}
	return frames, nil
}

// findAudio returns the first sibling audio file sharing path's base name.
func findAudio(path string) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	for _, ext := range audioExtensions {
		candidate := base + ext
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// LoadGuides reads the seal guide stamps in dir. Each PNG is keyed by its base
// name, matched case-insensitively against the seal vocabulary; other files
// are ignored. A missing directory yields an empty set.
func LoadGuides(dir string, logger *zap.Logger) (*Guides, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	images := make(map[gesture.Gesture]compositor.Source)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		logger.Info("seal guide directory missing", zap.String("dir", dir))
		return NewGuides(images), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seal guides: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(name), ".png") {
			continue
		}

		seal, err := gesture.ParseGesture(strings.TrimSuffix(name, filepath.Ext(name)))
		if err != nil || seal == gesture.None {
			logger.Debug("ignoring guide image", zap.String("file", name))
			continue
		}

		img := gocv.IMRead(filepath.Join(dir, name), gocv.IMReadUnchanged)
		if img.Empty() {
			img.Close()
			logger.Warn("seal guide unreadable", zap.String("file", name))
			continue
		}

		if old, ok := images[seal]; ok {
			old.Close()
		}
		images[seal] = compositor.NewSource(img)
	}

	return NewGuides(images), nil
}
