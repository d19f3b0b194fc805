package form

import (
	"bytes"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest lists form definitions to load in bulk. Markup is either inline
// or read from MarkupFile, relative to the manifest.
//
//	forms:
//	  - name: Visit note
//	    version: "1.2"
//	    markupFile: visit-note.xml
type Manifest struct {
	Forms []ManifestEntry `yaml:"forms"`
}

type ManifestEntry struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
	Markup      string `yaml:"markup"`
	MarkupFile  string `yaml:"markupFile"`
	Retired     bool   `yaml:"retired"`
}

// LoadManifest reads the manifest at name in fsys and resolves every entry
// into a Form ready to be created.
func LoadManifest(fsys fs.FS, name string) ([]*Form, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", name, err)
	}

	dir := path.Dir(name)
	forms := make([]*Form, 0, len(m.Forms))
	for i, e := range m.Forms {
		if e.Markup != "" && e.MarkupFile != "" {
			return nil, fmt.Errorf("manifest entry %d (%s): markup and markupFile are exclusive", i, e.Name)
		}
		markup := e.Markup
		if e.MarkupFile != "" {
			b, err := fs.ReadFile(fsys, path.Join(dir, e.MarkupFile))
			if err != nil {
				return nil, fmt.Errorf("manifest entry %d (%s): %w", i, e.Name, err)
			}
			markup = string(b)
		}

		f := &Form{
			Name:    e.Name,
			Version: e.Version,
			Markup:  markup,
			Retired: e.Retired,
		}
		if d := strings.TrimSpace(e.Description); d != "" {
			f.Description = &d
		}
		forms = append(forms, f)
	}
	return forms, nil
}
