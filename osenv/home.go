// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package osenv

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

// dataHome stores the path to the azsm data directory.
var dataHome = struct {
	sync.Mutex
	dir string
}{}

// SetDataHome sets the value of the azsm data home and returns
// the previous value.
func SetDataHome(newDir string) string {
	dataHome.Lock()
	defer dataHome.Unlock()

	oldDir := dataHome.dir
	dataHome.dir = newDir
	return oldDir
}

// DataHome returns the current data home as set by SetDataHome.
func DataHome() string {
	dataHome.Lock()
	defer dataHome.Unlock()
	return dataHome.dir
}

// DataHomePath returns the path to a file in the current data home.
func DataHomePath(names ...string) string {
	all := append([]string{DataHomeDir()}, names...)
	return filepath.Join(all...)
}

// DataHomeDir returns the directory where azsm keeps its
// subscription store, checking SetDataHome, then $AZSM_DATA_HOME,
// then the XDG data directory.
func DataHomeDir() string {
	if dir := DataHome(); dir != "" {
		return dir
	}
	if dir := os.Getenv(AzsmDataHomeEnvKey); dir != "" {
		return dir
	}
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("APPDATA"), "Azsm")
	}
	if dir := os.Getenv(XDGDataHome); dir != "" {
		return filepath.Join(dir, "azsm")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "azsm")
}
