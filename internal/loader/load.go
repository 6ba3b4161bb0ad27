package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/mapview/internal/mapping"
)

// Parse decodes data according to the extension of file.
func Parse(file string, data []byte) (*Document, error) {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".cue":
		return ParseCUE(file, data)
	case ".yaml", ".yml", ".json":
		return ParseYAML(file, data)
	default:
		return nil, fmt.Errorf("parse %s: unsupported mapping document extension", file)
	}
}

// Load reads every mapping document named by paths and resolves them
// together. A directory contributes each document below it, in lexical
// order.
//
// The error reports files that could not be found or parsed; structural
// problems are returned as diagnostics instead, alongside a nil collection
// when any is an error.
func Load(paths ...string) (*mapping.Collection, mapping.Diagnostics, error) {
	files, err := FindDocuments(paths...)
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no mapping documents found in %s", strings.Join(paths, ", "))
	}

	var (
		docs []*Document
		errs []error
	)
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", f, err))
			continue
		}
		doc, err := Parse(f, data)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		docs = append(docs, doc)
	}
	if len(errs) > 0 {
		return nil, nil, errors.Join(errs...)
	}

	col, diags := Resolve(docs...)
	return col, diags, nil
}

// FindDocuments expands paths into mapping document files. Files are kept
// as given; directories are walked for .yaml, .yml, .json and .cue files.
func FindDocuments(paths ...string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("mapping path %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		var found []string
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isDocument(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", p, err)
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

func isDocument(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json", ".cue":
		return true
	}
	return false
}
