package site

// assets.go — copies the static asset tree (stylesheets, scripts, images)
// into the generated docs directory.

import (
	"io"
	"os"
	"path/filepath"
)

// CopyAssets recursively copies assetsDir into outputDir/assets. A missing
// assets directory is not an error.
func CopyAssets(assetsDir, outputDir string) error {
	info, err := os.Stat(assetsDir)
	if err != nil || !info.IsDir() {
		return nil
	}
	return copyDir(assetsDir, filepath.Join(outputDir, "assets"))
}

// copyDir recursively copies src to dst.
func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, info.Mode())
		}
		return copyFile(path, target)
	})
}

// copyFile copies a single file from src to dst, preserving permissions.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
