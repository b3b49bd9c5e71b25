package paths

import (
	"os"
	"path/filepath"
)

var (
	// UserHome is the user's home directory
	UserHome = func() string {
		h, _ := os.UserHomeDir()
		return h
	}()
	// Relctl is the full path to the ~/.relctl directory
	Relctl = relctl()
)

func relctl() string {
	return filepath.Join(UserHome, ".relctl")
}
