package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/matzehuels/arteria/pkg/errors"
	"github.com/matzehuels/arteria/pkg/pipeline"
)

// artifactPath returns dir/label.<ext> for a format.
func artifactPath(dir, label, format string) string {
	return filepath.Join(dir, label+"."+pipeline.Extension(format))
}

// writeArtifacts writes every format in order and returns the paths.
func writeArtifacts(dir, label string, artifacts map[string][]byte, formats []string) ([]string, error) {
	if err := errors.ValidateLabel(label); err != nil {
		return nil, err
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		data, ok := artifacts[f]
		if !ok {
			return paths, fmt.Errorf("no %s artifact was rendered", f)
		}
		path := artifactPath(dir, label, f)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
