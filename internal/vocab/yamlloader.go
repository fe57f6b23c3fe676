package vocab

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// PackFile is the top-level structure of a word-pack YAML file.
//
// Example:
//
//	pack:
//	  name: "Forest Animals"
//	  language: en
//	words:
//	  - text: "Squirrel"
//	    phonetic: "ˈskwɜːrəl"
//	    tags: [animals]
type PackFile struct {
	Pack  PackMeta `yaml:"pack"`
	Words []Word   `yaml:"words"`
}

// PackMeta holds top-level metadata for a word pack.
type PackMeta struct {
	// Name is the pack's display name.
	Name string `yaml:"name"`

	// Description is a free-text summary of the pack.
	Description string `yaml:"description"`

	// Language is the default BCP-47 tag applied to words that do not set
	// their own.
	Language string `yaml:"language"`
}

// LoadPackFile reads and parses a word-pack YAML file from disk.
func LoadPackFile(path string) (*PackFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vocab: open pack file %q: %w", path, err)
	}
	defer f.Close()

	pf, err := LoadPackFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("vocab: parse pack file %q: %w", path, err)
	}
	return pf, nil
}

// LoadPackFromReader parses word-pack YAML from an [io.Reader].
// The reader is consumed entirely; the caller is responsible for closing it.
func LoadPackFromReader(r io.Reader) (*PackFile, error) {
	var pf PackFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true) // reject unknown keys to catch typos
	if err := dec.Decode(&pf); err != nil {
		return nil, fmt.Errorf("vocab: decode pack yaml: %w", err)
	}

	for i := range pf.Words {
		if pf.Words[i].Language == "" {
			pf.Words[i].Language = pf.Pack.Language
		}
	}
	return &pf, nil
}

// ImportPack imports all words from a parsed [PackFile] into store.
// Returns the number of words successfully imported. An error from the
// store aborts the import and returns the count so far.
func ImportPack(ctx context.Context, store Store, pack *PackFile) (int, error) {
	if pack == nil {
		return 0, fmt.Errorf("vocab: pack must not be nil")
	}
	n, err := store.BulkImport(ctx, pack.Words)
	if err != nil {
		return n, fmt.Errorf("vocab: import pack %q: %w", pack.Pack.Name, err)
	}
	return n, nil
}
