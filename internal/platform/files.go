package platform

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// File permissions
const (
	DefaultDirPermissions  = 0755
	DefaultFilePermissions = 0644
)

// File extensions to skip when looking at a work directory
var (
	SkippedExtensions = []string{".part", ".ytdl", ".temp"}
)

// CreateDirectoryIfNotExists creates directory if it doesn't exist
func CreateDirectoryIfNotExists(dirPath string) error {
	if dirPath == "" {
		return fmt.Errorf("directory path is empty")
	}
	info, err := os.Stat(dirPath)
	if os.IsNotExist(err) {
		return os.MkdirAll(dirPath, DefaultDirPermissions)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists and is not a directory: %s", dirPath)
	}
	return nil
}

// FileExists reports whether filePath exists and is a regular file
func FileExists(filePath string) bool {
	info, err := os.Stat(filePath)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// ReplaceExtension swaps the extension of filePath for ext (".mp3" or "mp3")
func ReplaceExtension(filePath, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	base := strings.TrimSuffix(filePath, filepath.Ext(filePath))
	return base + ext
}

// RemoveFile deletes a single file. A file that is already gone is not an error.
func RemoveFile(filePath string) error {
	if filePath == "" {
		return fmt.Errorf("file path is empty")
	}
	if err := os.Remove(filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", filePath, err)
	}
	return nil
}

// RemoveDirIfEmpty removes dirPath only when it holds no entries. It returns
// true when the directory was removed.
func RemoveDirIfEmpty(dirPath string) (bool, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if len(entries) > 0 {
		return false, nil
	}
	if err := os.Remove(dirPath); err != nil {
		return false, err
	}
	return true, nil
}

// ListDownloadedFiles returns the finished files in dirPath, skipping
// temporary and partial downloads
func ListDownloadedFiles(dirPath string) ([]string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || isPartialDownload(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dirPath, entry.Name()))
	}
	return files, nil
}

// CopyFile copies src into dstDir keeping its base name and returns the new path
func CopyFile(src, dstDir string) (string, error) {
	if err := CreateDirectoryIfNotExists(dstDir); err != nil {
		return "", fmt.Errorf("failed to ensure destination dir: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	dst := filepath.Join(dstDir, filepath.Base(src))
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, DefaultFilePermissions)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", fmt.Errorf("failed to copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return dst, nil
}

// isPartialDownload checks if a filename belongs to an unfinished download
func isPartialDownload(filename string) bool {
	for _, ext := range SkippedExtensions {
		if strings.HasSuffix(filename, ext) {
			return true
		}
	}
	return false
}
