package coordinator

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// skip list for directories that never contain first-party source.
var excludedDirs = map[string]bool{
	".git":          true,
	"node_modules":  true,
	"vendor":        true,
	"venv":          true,
	".venv":         true,
	"env":           true,
	"__pycache__":   true,
	".pytest_cache": true,
	".tox":          true,
	".next":         true,
	".nuxt":         true,
	"dist":          true,
	"build":         true,
	"out":           true,
	"target":        true,
	"coverage":      true,
	".nyc_output":   true,
	".cache":        true,
	".idea":         true,
	".vscode":       true,
	"__mocks__":     true,
}

// suffixes of generated or bundled files that would only pollute the graph.
var generatedSuffixes = []string{
	".min.js",
	".bundle.js",
	".generated.js",
	".generated.ts",
	".pb.js",
	".pb.ts",
	".d.ts",
}

// walkSourceFiles enumerates candidate source files under root, skipping
// excluded directories and generated files. Walk errors on individual
// entries are collected, not fatal.
func walkSourceFiles(root string) ([]string, []string) {
	var files []string
	var warnings []string

	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			warnings = append(warnings, "walk: "+err.Error())
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && excludedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if isGeneratedFile(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})

	return files, warnings
}

func isGeneratedFile(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	for _, suffix := range generatedSuffixes {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	return false
}
