// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package subctlpath derives file and directory paths from the subctl base directory.
//
// The base directory (--dir flag) contains:
//
//	subctl.yaml         Config file
//	data/               Key-value files for the dir storage backend
//	data/subctl.db      SQLite database for the sqlite storage backend
package subctlpath

import "path/filepath"

// ConfigFileName is the well-known config file name within the base directory.
const ConfigFileName = "subctl.yaml"

// DatabaseFileName is the SQLite database file name within the data directory.
const DatabaseFileName = "subctl.db"

// ConfigFilePath returns the path to the config file within the base directory.
func ConfigFilePath(dirPath string) string {
	return filepath.Join(dirPath, ConfigFileName)
}

// DataDirPath returns the directory for persistent subscription and cache data.
func DataDirPath(dirPath string) string {
	return filepath.Join(dirPath, "data")
}

// DatabaseFilePath returns the path to the SQLite database.
func DatabaseFilePath(dirPath string) string {
	return filepath.Join(dirPath, "data", DatabaseFileName)
}
