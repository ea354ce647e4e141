package safety

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"umbrasol/internal/logging"
)

// Snapshot creates a timestamped copy of path under backupDir before a
// destructive action touches it. Directories are copied recursively.
// A non-existent path returns ("", nil): nothing to protect.
func Snapshot(backupDir, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	stamp := time.Now().Format("20060102_150405")
	dest := filepath.Join(backupDir, fmt.Sprintf("%s_%s", filepath.Base(path), stamp))

	if info.IsDir() {
		err = copyTree(path, dest)
	} else {
		err = copyFile(path, dest, info.Mode())
	}
	if err != nil {
		return "", fmt.Errorf("failed to snapshot %s: %w", path, err)
	}
	logging.Infof("safety: snapshot created for %s at %s", path, dest)
	return dest, nil
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func copyTree(src, dst string) error {
	return filepath.Walk(src, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, info.Mode())
		}
		return copyFile(p, target, info.Mode())
	})
}
