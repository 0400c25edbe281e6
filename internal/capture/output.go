package capture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// maxStemAttempts bounds the search for a free stem.
const maxStemAttempts = 1000

// reserveStem returns base, or base_N for the smallest N that collides with
// neither output file in dir.
func reserveStem(dir, base string) (string, error) {
	stem := base
	for n := 1; n <= maxStemAttempts; n++ {
		taken, err := stemTaken(dir, stem)
		if err != nil {
			return "", err
		}
		if !taken {
			return stem, nil
		}
		stem = fmt.Sprintf("%s_%d", base, n)
	}
	return "", fmt.Errorf("no free file name for %s after %d attempts", base, maxStemAttempts)
}

func stemTaken(dir, stem string) (bool, error) {
	for _, ext := range []string{".png", ".json"} {
		ok, err := exists(filepath.Join(dir, stem+ext))
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("check %s: %w", path, err)
	}
}

// stageFile writes data to a hidden temp file in dir and fsyncs it, ready to
// be renamed into place.
func stageFile(dir string, data []byte) (string, error) {
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to set permissions: %w", err)
	}
	return tmpPath, nil
}

// writePair puts <stem>.png and <stem>.json into dir together. Both are
// staged first; if the second rename fails the first file is removed, so a
// reader never sees one without the other.
func writePair(dir, stem string, png, meta []byte) (pngPath, jsonPath string, err error) {
	pngTmp, err := stageFile(dir, png)
	if err != nil {
		return "", "", fmt.Errorf("stage screenshot: %w", err)
	}
	jsonTmp, err := stageFile(dir, meta)
	if err != nil {
		os.Remove(pngTmp)
		return "", "", fmt.Errorf("stage metadata: %w", err)
	}

	pngPath = filepath.Join(dir, stem+".png")
	jsonPath = filepath.Join(dir, stem+".json")

	if err := os.Rename(pngTmp, pngPath); err != nil {
		os.Remove(pngTmp)
		os.Remove(jsonTmp)
		return "", "", fmt.Errorf("place screenshot: %w", err)
	}
	if err := os.Rename(jsonTmp, jsonPath); err != nil {
		os.Remove(pngPath)
		os.Remove(jsonTmp)
		return "", "", fmt.Errorf("place metadata: %w", err)
	}
	return pngPath, jsonPath, nil
}
