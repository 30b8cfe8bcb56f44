package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ArtifactVersion is bumped whenever the artifact layout changes.
const ArtifactVersion = 1

var (
	ErrArtifactVersion = errors.New("classifier: unsupported artifact version")
	ErrArtifactBackend = errors.New("classifier: artifact backend mismatch")
)

// Artifact is the persisted form of a trained classifier. Examples are always
// present so any backend can be refitted; State is the fitted model for
// backends that can restore it directly.
type Artifact struct {
	Version  int             `json:"version"`
	Backend  string          `json:"backend"`
	SavedAt  time.Time       `json:"saved_at"`
	Examples []Example       `json:"examples"`
	State    json.RawMessage `json:"state,omitempty"`
}

// WriteArtifact writes a to path atomically: the data goes to a temp file in
// the same directory, is synced, then renamed over path.
func WriteArtifact(path string, a Artifact) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	f, err := os.CreateTemp(dir, ".classifier-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	if err = json.NewEncoder(f).Encode(a); err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("sync artifact: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename artifact: %w", err)
	}
	return nil
}

// ReadArtifact loads and version-checks the artifact at path.
func ReadArtifact(path string) (Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return Artifact{}, err
	}
	defer f.Close()

	var a Artifact
	if err := json.NewDecoder(f).Decode(&a); err != nil {
		return Artifact{}, fmt.Errorf("decode artifact %s: %w", path, err)
	}
	if a.Version != ArtifactVersion {
		return Artifact{}, fmt.Errorf("%w: %d", ErrArtifactVersion, a.Version)
	}
	return a, nil
}
