// Copyright (c) 2025 Memo Labs
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package fileutil

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// FileExists checks if a file or a directory already exists
func FileExists(path string) bool {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false
	}
	return true
}

// EnsureParentDir creates the parent directory of path if it does not exist yet
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if FileExists(dir) {
		return nil
	}
	return errors.Wrapf(os.MkdirAll(dir, 0o755), "failed to create directory %s", dir)
}
