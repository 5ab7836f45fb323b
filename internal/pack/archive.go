package pack

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"starforge-server/internal/export"
)

// PlaceholderName is used when sanitization leaves nothing of the
// scenario name.
const PlaceholderName = "untitled_scenario"

var (
	whitespacePattern = regexp.MustCompile(`\s+`)
	invalidRunes      = regexp.MustCompile(`[^A-Za-z0-9_-]`)
)

// Sanitize turns a scenario name into a safe path segment: trim, collapse
// whitespace runs to single underscores, strip everything outside
// [A-Za-z0-9_-], and fall back to a placeholder when nothing remains.
func Sanitize(name string) string {
	name = strings.TrimSpace(name)
	name = whitespacePattern.ReplaceAllString(name, "_")
	name = invalidRunes.ReplaceAllString(name, "")
	if name == "" {
		return PlaceholderName
	}
	return name
}

type fillings struct {
	Version int `json:"version"`
}

type entry struct {
	path string
	data []byte
}

// BuildArchive assembles the downloadable bundle: an outer archive whose
// root directory is the sanitized scenario name, containing the mod
// metadata, uniforms, localized text, and a nested .scenario archive
// with the chart documents and rendered picture. Entries carry no
// timestamps so an unchanged scenario packs to byte-identical output.
func BuildArchive(pkg export.Package, picture []byte) ([]byte, error) {
	inner, err := buildScenarioArchive(pkg, picture)
	if err != nil {
		return nil, fmt.Errorf("failed to build scenario archive: %w", err)
	}

	entries := []entry{
		{path: pkg.Name + "/.mod_meta_data", data: nil},
		{path: pkg.Name + "/uniforms/scenario.uniforms", data: nil},
		{path: pkg.Name + "/scenarios/" + pkg.Name + ".scenario", data: inner},
		{path: pkg.Name + "/localized_text/en.localized_text", data: nil},
	}

	if entries[0].data, err = marshalDocument(pkg.ModMetaData); err != nil {
		return nil, err
	}
	if entries[1].data, err = marshalDocument(pkg.Uniforms); err != nil {
		return nil, err
	}
	if entries[3].data, err = marshalDocument(pkg.LocalizedText); err != nil {
		return nil, err
	}

	if pkg.HasLogo {
		entries = append(entries, entry{path: pkg.Name + "/logo.png", data: pkg.LogoPNG})
	}

	return writeArchive(entries)
}

// buildScenarioArchive packs the nested <name>.scenario archive. The
// chart documents sit at its root, not under a directory.
func buildScenarioArchive(pkg export.Package, picture []byte) ([]byte, error) {
	var (
		entries []entry
		err     error
	)

	add := func(path string, doc interface{}) {
		if err != nil {
			return
		}
		var data []byte
		if data, err = marshalDocument(doc); err == nil {
			entries = append(entries, entry{path: path, data: data})
		}
	}

	add("scenario_info.json", pkg.ScenarioInfo)
	add("galaxy_chart.json", pkg.GalaxyChart)
	add("galaxy_chart_fillings.json", fillings{Version: 1})
	if err != nil {
		return nil, err
	}

	entries = append(entries, entry{path: "picture.png", data: picture})

	return writeArchive(entries)
}

func marshalDocument(doc interface{}) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode archive document: %w", err)
	}
	return append(data, '\n'), nil
}

func writeArchive(entries []entry) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	for _, e := range entries {
		// A bare FileHeader keeps the zero modification time, which is
		// what makes repeated exports byte-identical.
		f, err := w.CreateHeader(&zip.FileHeader{
			Name:   e.path,
			Method: zip.Deflate,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create archive entry %s: %w", e.path, err)
		}
		if _, err := f.Write(e.data); err != nil {
			return nil, fmt.Errorf("failed to write archive entry %s: %w", e.path, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}
