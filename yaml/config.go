// Package yaml loads crawl configuration files using gopkg.in/yaml.v3.
package yaml

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/fwojciec/sitecrawl"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the configuration file looked up in the working
// directory when no path is given.
const DefaultConfigFile = "sitecrawl.yaml"

// LoadConfig reads the YAML file at path into cfg. Keys absent from the file
// leave the corresponding cfg fields untouched, so cfg should hold defaults.
// Durations are written as strings such as "3s" or "500ms".
//
// Returns ENOTFOUND if the file does not exist and EINVALID if it cannot be
// decoded or contains unknown keys.
func LoadConfig(path string, cfg *sitecrawl.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return sitecrawl.Errorf(sitecrawl.ENOTFOUND, "config file %s not found", path)
		}
		return err
	}
	return DecodeConfig(bytes.NewReader(data), cfg)
}

// DecodeConfig decodes a YAML document from r into cfg.
func DecodeConfig(r io.Reader, cfg *sitecrawl.Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return sitecrawl.Errorf(sitecrawl.EINVALID, "invalid config: %v", err)
	}
	return nil
}

// FindConfigFile returns path if it is set, otherwise DefaultConfigFile when
// it exists in the working directory, otherwise "".
func FindConfigFile(path string) string {
	if path != "" {
		return path
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}
	return ""
}
