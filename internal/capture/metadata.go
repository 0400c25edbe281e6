package capture

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Metadata is the JSON sidecar written next to every screenshot.
type Metadata struct {
	URL        string       `json:"url"`
	Timestamp  string       `json:"timestamp"`
	Dimensions Dimensions   `json:"dimensions"`
	Metadata   PageMetadata `json:"metadata"`
}

type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type PageMetadata struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	UserAgent string `json:"user_agent"`
}

// Encode renders the sidecar as 2-space indented UTF-8 JSON. Non-ASCII and
// HTML characters are written as-is.
func (m Metadata) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ReadMetadata loads a sidecar from disk.
func ReadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode metadata %s: %w", path, err)
	}
	return &m, nil
}
