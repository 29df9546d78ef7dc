//go:build windows

package storage

import (
	"os"
	"path/filepath"
)

func platformConfigDefault() string {
	return filepath.Join(os.Getenv("APPDATA"), "compass", "config")
}

func platformDataDefault() string {
	return filepath.Join(os.Getenv("APPDATA"), "compass", "data")
}

func platformStateDefault() string {
	return filepath.Join(os.Getenv("LOCALAPPDATA"), "compass", "state")
}
