package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/archlens/archlens/internal/models"
)

// Extractor turns one source file into entities and relationships.
// Implementations are tolerant pattern-based extractors: they never return
// a hard failure for malformed syntax, only partial results with per-file
// error entries.
type Extractor interface {
	// Language returns the normalized language key this extractor handles.
	Language() string

	// Extensions returns the file extensions this extractor claims.
	Extensions() []string

	// CanParseFile reports whether the path's extension is in the
	// extractor's declared set. Never opens the file.
	CanParseFile(path string) bool

	// ParseFile extracts entities and relationships from one file.
	// Missing file: empty result with a "not found" error entry.
	// Empty file: empty successful result. Never panics, never aborts
	// the caller.
	ParseFile(path, projectRoot string) *models.ParseResult

	// Stats returns this instance's accumulated counters.
	Stats() ExtractorStats
}

// ExtractorStats are per-instance counters; no state is shared across
// extractor instances.
type ExtractorStats struct {
	FilesProcessed     int `json:"files_processed"`
	FilesSuccessful    int `json:"files_successful"`
	FilesWithErrors    int `json:"files_with_errors"`
	TotalEntities      int `json:"total_entities_found"`
	TotalRelationships int `json:"total_relationships_found"`
}

// statsRecorder is embedded by every concrete extractor to own its counters.
type statsRecorder struct {
	mu    sync.Mutex
	stats ExtractorStats
}

func (s *statsRecorder) record(result *models.ParseResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.FilesProcessed++
	if result.Successful() {
		s.stats.FilesSuccessful++
	} else {
		s.stats.FilesWithErrors++
	}
	s.stats.TotalEntities += len(result.Entities)
	s.stats.TotalRelationships += len(result.Relationships)
}

func (s *statsRecorder) Stats() ExtractorStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// hasExtension checks path against a declared extension set.
func hasExtension(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// readSource loads a file for extraction. The bool reports whether the
// caller should proceed; on a missing or unreadable file the result already
// carries the error entry.
func readSource(path string, result *models.ParseResult) ([]byte, bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			result.Errors = append(result.Errors, fmt.Sprintf("file not found: %s", path))
		} else {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to read %s: %v", path, err))
		}
		return nil, false
	}
	return content, true
}

// moduleFromPath derives a module name from the file's location relative to
// the project root. Used when the language has no in-file package
// declaration, or the declaration is absent.
func moduleFromPath(path, projectRoot string) string {
	rel := path
	if projectRoot != "" {
		if r, err := filepath.Rel(projectRoot, path); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
		}
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	rel = strings.ReplaceAll(rel, string(filepath.Separator), ".")
	return strings.TrimPrefix(rel, ".")
}

// relFilePath returns the path relative to the project root when possible,
// so entity keys stay stable across checkouts at different locations.
func relFilePath(path, projectRoot string) string {
	if projectRoot == "" {
		return path
	}
	if r, err := filepath.Rel(projectRoot, path); err == nil && !strings.HasPrefix(r, "..") {
		return filepath.ToSlash(r)
	}
	return path
}
