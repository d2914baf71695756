package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// RootMarkers identify a vault directory.
var RootMarkers = []string{".obsidian", ConfigName + ".yaml", ".git"}

// FindRoot walks upwards from startDir looking for a vault root indicator.
// Indicators are: .obsidian directory, noterelay.yaml file, or .git directory.
// It returns the absolute path of the first directory that has one.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		for _, marker := range RootMarkers {
			if hasFile(dir, marker) {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("vault root not found above %s", abs)
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
