// Copyright 2026 Peter Edge
//
// All rights reserved.

package kvstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// NewDirStore returns a Store that keeps one {key}.json file per key in dirPath.
//
// The directory is created on first write. Writes go to a temporary file in
// the same directory that is then renamed over the target.
func NewDirStore(dirPath string) Store {
	return &dirStore{
		dirPath: dirPath,
	}
}

// *** PRIVATE ***

type dirStore struct {
	dirPath string
	lock    sync.Mutex
}

func (d *dirStore) Get(_ context.Context, key string) (string, bool, error) {
	filePath, err := d.filePath(key)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

func (d *dirStore) Set(_ context.Context, key string, value string) error {
	filePath, err := d.filePath(key)
	if err != nil {
		return err
	}
	d.lock.Lock()
	defer d.lock.Unlock()
	if err := os.MkdirAll(d.dirPath, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", d.dirPath, err)
	}
	tempFile, err := os.CreateTemp(d.dirPath, ".tmp-"+key+"-*")
	if err != nil {
		return err
	}
	tempPath := tempFile.Name()
	if _, err := tempFile.WriteString(value); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return err
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return err
	}
	if err := os.Rename(tempPath, filePath); err != nil {
		_ = os.Remove(tempPath)
		return err
	}
	return nil
}

func (d *dirStore) Delete(_ context.Context, key string) error {
	filePath, err := d.filePath(key)
	if err != nil {
		return err
	}
	d.lock.Lock()
	defer d.lock.Unlock()
	if err := os.Remove(filePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (d *dirStore) filePath(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(d.dirPath, key+".json"), nil
}
