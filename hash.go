package main

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

func hashFile(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

func hashDirectory(dirPath string) (string, error) {
	hash := sha256.New()
	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			fileHash, err := hashFile(path)
			if err != nil {
				return err
			}
			hash.Write([]byte(path))
			hash.Write([]byte(fileHash))
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// hashSources hashes files and directories in the given order. Paths that do
// not exist are skipped, so an optional go.sum does not fail the build.
func hashSources(paths ...string) (string, error) {
	hash := sha256.New()
	for _, p := range paths {
		info, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		var h string
		if info.IsDir() {
			h, err = hashDirectory(p)
		} else {
			h, err = hashFile(p)
		}
		if err != nil {
			return "", err
		}
		hash.Write([]byte(p))
		hash.Write([]byte(h))
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
