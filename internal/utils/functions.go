package utils

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

func ParseHeaderArgs(headers []string) map[string]string {
	result := make(map[string]string)
	for _, header := range headers {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			result[key] = value
		}
	}
	return result
}

// OutputPathFromURL derives a file name from the last path element of link.
func OutputPathFromURL(link string) string {
	parsedURL, err := url.Parse(link)
	if err != nil {
		return "download"
	}
	name := path.Base(parsedURL.Path)
	if name == "" || name == "." || name == "/" {
		return "download"
	}
	return name
}

// ReadDownloadList parses a YAML list of {op, link, size} entries.
func ReadDownloadList(fs afero.Fs, filePath string) ([]DownloadEntry, error) {
	data, err := afero.ReadFile(fs, filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading YAML file: %w", err)
	}
	var entries []DownloadEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("error parsing YAML file: %w", err)
	}
	for i, entry := range entries {
		if entry.URL == "" {
			return nil, fmt.Errorf("missing URL for entry %d", i+1)
		}
		if entry.OutputPath == "" {
			entries[i].OutputPath = OutputPathFromURL(entry.URL)
		}
		if entry.Size != nil && *entry.Size < 0 {
			return nil, fmt.Errorf("negative size for entry %d", i+1)
		}
	}
	log.Debug().Str("op", "utils/batch").Int("count", len(entries)).Msg("entries loaded from YAML")
	return entries, nil
}

func (e DownloadEntry) Request() FileRequest {
	return NewFileRequest(e.URL, e.OutputPath, e.Size)
}
