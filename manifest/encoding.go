package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	version "github.com/hashicorp/go-version"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// FormatVersion is the manifest format written by this package.
const FormatVersion = "1.0.0"

// supportedVersions are the manifest format versions Decode accepts.
const supportedVersions = ">= 1.0.0, < 2.0.0"

var versionConstraint = mustConstraint(supportedVersions)

func mustConstraint(s string) version.Constraints {
	c, err := version.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Format is a manifest encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatMsgpack Format = "msgpack"
)

var ErrUnknownFormat = errors.New("unknown manifest format")

// ParseFormat parses a format name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "msgpack", "mpk":
		return FormatMsgpack, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// VersionError is returned when decoding a manifest of an unsupported format version.
type VersionError struct {
	Version     string
	Constraints string
	Err         error
}

func (e *VersionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid manifest version %q: %v", e.Version, e.Err)
	}
	return fmt.Sprintf("manifest version %s does not satisfy %s", e.Version, e.Constraints)
}

func (e *VersionError) Unwrap() error {
	return e.Err
}

// CheckVersion verifies the manifest format version is supported.
func CheckVersion(v string) error {
	parsed, err := version.NewVersion(v)
	if err != nil {
		return &VersionError{Version: v, Constraints: supportedVersions, Err: err}
	}
	if !versionConstraint.Check(parsed) {
		return &VersionError{Version: v, Constraints: supportedVersions}
	}
	return nil
}

// Encode writes the manifest in the given format.
func (m *Manifest) Encode(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return err
		}
		return enc.Close()
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(m)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Decode reads a manifest in the given format, then checks its version and entries.
func Decode(r io.Reader, format Format) (*Manifest, error) {
	m := &Manifest{}
	var err error
	switch format {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(m)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(m)
	case FormatMsgpack:
		err = msgpack.NewDecoder(r).Decode(m)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s manifest: %w", format, err)
	}
	if err := CheckVersion(m.Version); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// WriteFile encodes the manifest to path, the format following the extension.
func (m *Manifest) WriteFile(path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := m.Encode(f, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile decodes the manifest at path, the format following the extension.
func ReadFile(path string) (*Manifest, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f, format)
}
