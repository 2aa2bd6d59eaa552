package extract

import (
	"os"
	"regexp"
	"strings"

	"github.com/archlens/archlens/internal/models"
)

var (
	tsImportRe = regexp.MustCompile(`^import\s+(?:type\s+)?(?:[\w${},*\s]+\s+from\s+)?['"]([^'"]+)['"]`)
	tsClassRe  = regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+(\w+)(?:<[^>]*>)?(?:\s+extends\s+([\w.]+)(?:<[^>]*>)?)?`)
	tsIfaceRe  = regexp.MustCompile(`^(?:export\s+)?interface\s+(\w+)(?:<[^>]*>)?(?:\s+extends\s+([\w.,\s<>]+?))?\s*\{`)
	tsImplRe   = regexp.MustCompile(`\bimplements\s+([\w.,\s<>]+?)\s*\{`)
	tsFuncRe   = regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*(\w+)\s*(?:<[^>]*>)?\(([^)]*)`)
	tsArrowRe  = regexp.MustCompile(`^(?:export\s+)?(?:const|let|var)\s+(\w+)(?:\s*:\s*[\w.<>\[\], ]+)?\s*=\s*(?:async\s+)?(?:\([^)]*\)|\w+)(?:\s*:\s*[\w.<>\[\], ]+)?\s*=>`)
	tsMethodRe = regexp.MustCompile(`^(?:public\s+|protected\s+|private\s+)?(?:static\s+)?(?:readonly\s+)?(?:async\s+)?(?:get\s+|set\s+)?(\w+)\s*(?:<[^>]*>)?\(([^)]*)\)(?:\s*:\s*[\w.<>\[\], |]+)?\s*\{?\s*$`)
)

// TypeScriptExtractor extends the JavaScript pattern scanner with
// interfaces, implements clauses, and declared member visibility.
type TypeScriptExtractor struct {
	statsRecorder
}

func NewTypeScriptExtractor() *TypeScriptExtractor {
	return &TypeScriptExtractor{}
}

func (e *TypeScriptExtractor) Language() string { return "typescript" }

func (e *TypeScriptExtractor) Extensions() []string {
	return []string{".ts", ".tsx", ".mts", ".cts"}
}

func (e *TypeScriptExtractor) CanParseFile(path string) bool {
	return hasExtension(path, e.Extensions())
}

func (e *TypeScriptExtractor) recorder() *statsRecorder { return &e.statsRecorder }

func (e *TypeScriptExtractor) ParseFile(path, projectRoot string) *models.ParseResult {
	result := parseCStyleFile(e, path, projectRoot, cStyleRules{
		importRes:  []*regexp.Regexp{tsImportRe, jsRequireRe},
		classRe:    tsClassRe,
		ifaceRe:    tsIfaceRe,
		implRe:     tsImplRe,
		funcRes:    []*regexp.Regexp{tsFuncRe, tsArrowRe},
		methodRe:   tsMethodRe,
		visibility: jsVisibility,
	})
	applyTSMemberVisibility(result, path)
	return result
}

// applyTSMemberVisibility re-reads declared modifiers for class members;
// the shared scanner only knows export-based visibility.
func applyTSMemberVisibility(result *models.ParseResult, path string) {
	content, err := readLines(path)
	if err != nil {
		return
	}
	for i := range result.Entities {
		ent := &result.Entities[i]
		if ent.Type != models.EntityMethod && ent.Type != models.EntityConstructor {
			continue
		}
		if ent.StartLine <= 0 || ent.StartLine > len(content) {
			continue
		}
		line := strings.TrimSpace(content[ent.StartLine-1])
		switch {
		case strings.HasPrefix(line, "private "):
			ent.Visibility = models.VisibilityPrivate
		case strings.HasPrefix(line, "protected "):
			ent.Visibility = models.VisibilityProtected
		case strings.HasPrefix(line, "public "):
			ent.Visibility = models.VisibilityPublic
		}
	}
}

func readLines(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return strings.Split(string(content), "\n"), nil
}
