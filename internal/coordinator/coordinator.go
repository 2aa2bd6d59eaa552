package coordinator

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/archlens/archlens/internal/errors"
	"github.com/archlens/archlens/internal/extract"
	"github.com/archlens/archlens/internal/models"
)

// ProjectContext is what the upstream acquisition layer hands us: a cloned
// tree plus the languages detected in it.
type ProjectContext struct {
	CodePath           string
	DetectedLanguages  []string
	LanguageStatistics map[string]int
	RepositoryURL      string
}

// Config tunes the per-file worker pool.
type Config struct {
	Workers     int           // concurrent file parses (default: 8)
	FileTimeout time.Duration // per-file budget (default: 30s)
}

// DefaultConfig returns the coordinator defaults.
func DefaultConfig() Config {
	return Config{
		Workers:     8,
		FileTimeout: 30 * time.Second,
	}
}

// Stats are per-coordinator counters. Independent coordinators never share
// them, so concurrent instances cannot cross-contaminate.
type Stats struct {
	CoordinationSessions      int     `json:"coordination_sessions"`
	TotalFilesProcessed       int     `json:"total_files_processed"`
	TotalEntitiesFound        int     `json:"total_entities_found"`
	AverageEntitiesPerSession float64 `json:"average_entities_per_session"`
}

// Coordinator owns one extractor per language, dispatches project files to
// the matching extractor, and folds per-file results into per-language and
// whole-project aggregates.
type Coordinator struct {
	mu         sync.Mutex
	extractors map[string]extract.Extractor
	config     Config
	logger     *logrus.Logger
	cache      *ParseCache
	stats      Stats
}

// New creates a coordinator with no registered extractors.
func New(config Config, logger *logrus.Logger) *Coordinator {
	if config.Workers <= 0 {
		config.Workers = DefaultConfig().Workers
	}
	if config.FileTimeout <= 0 {
		config.FileTimeout = DefaultConfig().FileTimeout
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Coordinator{
		extractors: make(map[string]extract.Extractor),
		config:     config,
		logger:     logger,
	}
}

// WithCache attaches an optional parse cache; unchanged files are served
// from it on repeated runs.
func (c *Coordinator) WithCache(cache *ParseCache) *Coordinator {
	c.cache = cache
	return c
}

// Register adds an extractor under its declared language key. The last
// registration for a language wins.
func (c *Coordinator) Register(extractor extract.Extractor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.extractors[extractor.Language()] = extractor
}

// Extractor returns the registered extractor for a language, if any.
func (c *Coordinator) Extractor(language string) (extract.Extractor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ex, ok := c.extractors[language]
	return ex, ok
}

// Validate rejects an unusable project context before any work starts.
func (c *Coordinator) Validate(project ProjectContext) []error {
	var errs []error
	if project.CodePath == "" {
		errs = append(errs, apperrors.ValidationError("project code path is empty"))
	} else if info, err := os.Stat(project.CodePath); err != nil || !info.IsDir() {
		errs = append(errs, apperrors.ValidationErrorf("project code path is not a readable directory: %s", project.CodePath))
	}
	if len(project.DetectedLanguages) == 0 {
		errs = append(errs, apperrors.ValidationError("detected languages list is empty"))
	}
	return errs
}

// Coordinate runs the full dispatch-and-aggregate pass over a project.
// File-level failures are isolated: one bad file never blocks the rest.
func (c *Coordinator) Coordinate(ctx context.Context, project ProjectContext) *models.CoordinatorParseResult {
	start := time.Now()
	result := &models.CoordinatorParseResult{
		ProjectRoot:     project.CodePath,
		LanguageResults: make(map[string]*models.LanguageParseResult),
	}

	if errs := c.Validate(project); len(errs) > 0 {
		for _, err := range errs {
			result.Errors = append(result.Errors, err.Error())
		}
		result.Duration = time.Since(start)
		return result
	}

	allFiles, walkWarnings := walkSourceFiles(project.CodePath)
	result.Warnings = append(result.Warnings, walkWarnings...)

	c.logger.WithFields(logrus.Fields{
		"project":   project.CodePath,
		"languages": project.DetectedLanguages,
		"files":     len(allFiles),
	}).Info("coordination started")

	for _, language := range project.DetectedLanguages {
		extractor, ok := c.Extractor(language)
		if !ok {
			result.Errors = append(result.Errors, apperrors.UnsupportedLanguageError(language).Error())
			continue
		}

		var candidates []string
		for _, f := range allFiles {
			if extractor.CanParseFile(f) {
				candidates = append(candidates, f)
			}
		}

		langResult := c.coordinateLanguage(ctx, extractor, candidates, project.CodePath)
		result.LanguageResults[language] = langResult

		result.TotalFiles += langResult.FilesTotal
		result.SuccessfulFiles += langResult.FilesSuccessful
		result.TotalEntities += len(langResult.Entities)
		result.TotalRelationships += len(langResult.Relationships)
		result.Errors = append(result.Errors, langResult.Errors...)
		result.Warnings = append(result.Warnings, langResult.Warnings...)
	}

	result.Duration = time.Since(start)

	c.mu.Lock()
	c.stats.CoordinationSessions++
	c.stats.TotalFilesProcessed += result.TotalFiles
	c.stats.TotalEntitiesFound += result.TotalEntities
	c.stats.AverageEntitiesPerSession = float64(c.stats.TotalEntitiesFound) / float64(c.stats.CoordinationSessions)
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"files":         result.TotalFiles,
		"entities":      result.TotalEntities,
		"relationships": result.TotalRelationships,
		"success_rate":  fmt.Sprintf("%.2f", result.SuccessRate()),
		"duration":      result.Duration,
	}).Info("coordination complete")

	return result
}

// coordinateLanguage parses one language's candidate files through the
// bounded worker pool, folding results under a mutex.
func (c *Coordinator) coordinateLanguage(ctx context.Context, extractor extract.Extractor, files []string, projectRoot string) *models.LanguageParseResult {
	start := time.Now()
	langResult := &models.LanguageParseResult{Language: extractor.Language()}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Workers)

	for _, filePath := range files {
		filePath := filePath
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			parseResult := c.parseOne(extractor, filePath, projectRoot)

			mu.Lock()
			defer mu.Unlock()
			langResult.FilesTotal++
			if parseResult.Successful() {
				langResult.FilesSuccessful++
			} else {
				langResult.FilesWithErrors++
				langResult.Errors = append(langResult.Errors, parseResult.Errors...)
			}
			langResult.Warnings = append(langResult.Warnings, parseResult.Warnings...)
			langResult.Entities = append(langResult.Entities, parseResult.Entities...)
			langResult.Relationships = append(langResult.Relationships, parseResult.Relationships...)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		langResult.Errors = append(langResult.Errors, fmt.Sprintf("coordination interrupted: %v", err))
	}

	langResult.Duration = time.Since(start)
	return langResult
}

// parseOne runs one extraction, serving from the cache when the file is
// unchanged and enforcing the per-file time budget.
func (c *Coordinator) parseOne(extractor extract.Extractor, filePath, projectRoot string) *models.ParseResult {
	if c.cache != nil {
		if cached, ok := c.cache.Get(filePath); ok {
			return cached
		}
	}

	done := make(chan *models.ParseResult, 1)
	go func() {
		done <- extractor.ParseFile(filePath, projectRoot)
	}()

	select {
	case result := <-done:
		if c.cache != nil && result.Successful() {
			c.cache.Put(filePath, result)
		}
		return result
	case <-time.After(c.config.FileTimeout):
		c.logger.WithField("file", filePath).Warn("file parse timed out")
		err := apperrors.ParseError(fmt.Errorf("parse timed out after %s", c.config.FileTimeout), filePath)
		return &models.ParseResult{
			FilePath: filePath,
			Language: extractor.Language(),
			Errors:   []string{err.Error()},
		}
	}
}

// Stats returns a copy of this coordinator's counters.
func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
