package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigName is the file name of a project configuration.
const ConfigName = "nodeattr.yaml"

// FindRoot looks upwards from startDir for a project root, marked by a
// nodeattr.yaml file or a .nodeattr directory, and returns its absolute path.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if hasFile(dir, ConfigName) || hasFile(dir, ".nodeattr") {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("root not found")
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
