package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/vast-data/go-invoke/discovery"
	"github.com/vast-data/go-invoke/manifest"
	"gopkg.in/yaml.v3"
)

func isScanErr(err error) bool {
	var scanErrs discovery.ScanErrors
	return errors.As(err, &scanErrs)
}

func (a *app) printManifest(w io.Writer, m *manifest.Manifest) error {
	switch a.output() {
	case "table", "":
		writeLine(w, "%s", m.Render())
		return nil
	case "json":
		return m.Encode(w, manifest.FormatJSON)
	case "yaml":
		return m.Encode(w, manifest.FormatYAML)
	}
	return fmt.Errorf("unsupported output format %q", a.output())
}

// printDocument prints v as indented JSON, or as YAML when requested.
func printDocument(w io.Writer, v any, output string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if output != "yaml" {
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	}
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}
