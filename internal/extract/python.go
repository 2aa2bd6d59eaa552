package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/archlens/archlens/internal/models"
)

var (
	pyClassRe  = regexp.MustCompile(`^class\s+([A-Za-z_]\w*)\s*(?:\(([^)]*)\))?\s*:`)
	pyDefRe    = regexp.MustCompile(`^(?:async\s+)?def\s+([A-Za-z_]\w*)\s*\(([^)]*)`)
	pyImportRe = regexp.MustCompile(`^import\s+([\w.]+(?:\s*,\s*[\w.]+)*)`)
	pyFromRe   = regexp.MustCompile(`^from\s+([\w.]+)\s+import\s+(.+)`)
)

// PythonExtractor is a tolerant, pattern-based structural extractor for
// Python sources. It recognizes class and def declarations by indentation
// and line patterns rather than a full grammar, which keeps it immune to
// syntactically broken input.
type PythonExtractor struct {
	statsRecorder
}

func NewPythonExtractor() *PythonExtractor {
	return &PythonExtractor{}
}

func (e *PythonExtractor) Language() string { return "python" }

func (e *PythonExtractor) Extensions() []string {
	return []string{".py", ".pyi", ".pyw"}
}

func (e *PythonExtractor) CanParseFile(path string) bool {
	return hasExtension(path, e.Extensions())
}

// pyScope is one open class or function block during the line scan.
type pyScope struct {
	kind      string // "class" or "func"
	qualified string
	indent    int
	entityIdx int
	body      []string
	bodyLine  int // line of the first body statement
	lastLine  int
}

func (e *PythonExtractor) ParseFile(path, projectRoot string) *models.ParseResult {
	start := time.Now()
	result := &models.ParseResult{FilePath: path, Language: e.Language()}
	defer func() {
		if r := recover(); r != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("internal extraction failure in %s: %v", path, r))
		}
		result.Duration = time.Since(start)
		e.record(result)
	}()

	content, ok := readSource(path, result)
	if !ok {
		return result
	}
	if len(strings.TrimSpace(string(content))) == 0 {
		return result
	}

	module := moduleFromPath(path, projectRoot)
	relPath := relFilePath(path, projectRoot)

	result.Entities = append(result.Entities, models.CodeEntity{
		Name:          relPath,
		QualifiedName: relPath,
		Type:          models.EntityFile,
		FilePath:      relPath,
		StartLine:     1,
		Visibility:    models.VisibilityPublic,
		Language:      e.Language(),
	})

	var stack []*pyScope

	closeScope := func(s *pyScope) {
		ent := &result.Entities[s.entityIdx]
		ent.EndLine = s.lastLine
		if s.kind != "func" {
			return
		}
		ent.Complexity = complexityEstimate(s.body)
		seen := map[string]bool{}
		for i, line := range s.body {
			for _, callee := range scanCallSites(line) {
				if seen[callee] {
					continue
				}
				seen[callee] = true
				result.Relationships = append(result.Relationships, models.Relationship{
					Type:       models.RelCalls,
					FromName:   s.qualified,
					FromType:   models.EntityMethod,
					ToName:     callee,
					ToType:     models.EntityMethod,
					FilePath:   relPath,
					LineNumber: s.bodyLine + i,
					Language:   e.Language(),
					Confidence: 0.6,
				})
			}
		}
	}

	parentOf := func() (name string, typ models.EntityType) {
		for i := len(stack) - 1; i >= 0; i-- {
			if stack[i].kind == "class" {
				return stack[i].qualified, models.EntityClass
			}
		}
		return relPath, models.EntityFile
	}

	lines := strings.Split(string(content), "\n")
	for i, raw := range lines {
		lineNo := i + 1
		line := stripLineComment(raw, "#")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		indent := indentWidth(line)

		// close scopes the dedent just left
		for len(stack) > 0 && indent <= stack[len(stack)-1].indent {
			closeScope(stack[len(stack)-1])
			stack = stack[:len(stack)-1]
		}
		for _, s := range stack {
			s.lastLine = lineNo
			if s.kind == "func" {
				s.body = append(s.body, trimmed)
				if s.bodyLine == 0 {
					s.bodyLine = lineNo
				}
			}
		}

		if m := pyClassRe.FindStringSubmatch(trimmed); m != nil {
			parent, parentType := parentOf()
			qualified := module + "." + m[1]
			if parentType == models.EntityClass {
				qualified = parent + "." + m[1]
			}
			result.Entities = append(result.Entities, models.CodeEntity{
				Name:          m[1],
				QualifiedName: qualified,
				Type:          models.EntityClass,
				FilePath:      relPath,
				StartLine:     lineNo,
				Visibility:    pyVisibility(m[1]),
				ParentEntity:  parent,
				Language:      e.Language(),
			})
			result.Relationships = append(result.Relationships, models.Relationship{
				Type: models.RelContains, FromName: parent, FromType: parentType,
				ToName: qualified, ToType: models.EntityClass,
				FilePath: relPath, LineNumber: lineNo, Language: e.Language(),
			})
			for _, base := range splitList(m[2]) {
				if base == "object" {
					continue
				}
				result.Relationships = append(result.Relationships, models.Relationship{
					Type: models.RelExtends, FromName: qualified, FromType: models.EntityClass,
					ToName: base, ToType: models.EntityClass,
					FilePath: relPath, LineNumber: lineNo, Language: e.Language(),
					Confidence: 0.9,
				})
			}
			stack = append(stack, &pyScope{
				kind: "class", qualified: qualified, indent: indent,
				entityIdx: len(result.Entities) - 1, lastLine: lineNo,
			})
			continue
		}

		if m := pyDefRe.FindStringSubmatch(trimmed); m != nil {
			parent, parentType := parentOf()
			qualified := parent + "." + m[1]
			if parentType == models.EntityFile {
				qualified = module + "." + m[1]
			}
			entityType := models.EntityMethod
			if m[1] == "__init__" && parentType == models.EntityClass {
				entityType = models.EntityConstructor
			}
			result.Entities = append(result.Entities, models.CodeEntity{
				Name:          m[1],
				QualifiedName: qualified,
				Type:          entityType,
				FilePath:      relPath,
				StartLine:     lineNo,
				Visibility:    pyVisibility(m[1]),
				ParentEntity:  parent,
				Language:      e.Language(),
				Signature:     fmt.Sprintf("def %s(%s)", m[1], strings.TrimSpace(m[2])),
			})
			result.Relationships = append(result.Relationships, models.Relationship{
				Type: models.RelContains, FromName: parent, FromType: parentType,
				ToName: qualified, ToType: entityType,
				FilePath: relPath, LineNumber: lineNo, Language: e.Language(),
			})
			stack = append(stack, &pyScope{
				kind: "func", qualified: qualified, indent: indent,
				entityIdx: len(result.Entities) - 1, lastLine: lineNo,
			})
			continue
		}

		if indent == 0 {
			if m := pyImportRe.FindStringSubmatch(trimmed); m != nil {
				for _, target := range strings.Split(m[1], ",") {
					e.addImport(result, relPath, strings.TrimSpace(target), lineNo)
				}
				continue
			}
			if m := pyFromRe.FindStringSubmatch(trimmed); m != nil {
				e.addImport(result, relPath, m[1], lineNo)
			}
		}
	}

	for len(stack) > 0 {
		closeScope(stack[len(stack)-1])
		stack = stack[:len(stack)-1]
	}
	if n := len(result.Entities); n > 0 {
		result.Entities[0].EndLine = len(lines)
	}
	return result
}

func (e *PythonExtractor) addImport(result *models.ParseResult, relPath, target string, lineNo int) {
	if target == "" {
		return
	}
	result.Entities = append(result.Entities, models.CodeEntity{
		Name:          target,
		QualifiedName: fmt.Sprintf("%s:import:%s", relPath, target),
		Type:          models.EntityImport,
		FilePath:      relPath,
		StartLine:     lineNo,
		Visibility:    models.VisibilityPrivate,
		ParentEntity:  relPath,
		Language:      e.Language(),
	})
	result.Relationships = append(result.Relationships, models.Relationship{
		Type: models.RelImports, FromName: relPath, FromType: models.EntityFile,
		ToName: target, ToType: models.EntityFile,
		FilePath: relPath, LineNumber: lineNo, Language: e.Language(),
	})
}

// pyVisibility follows the underscore convention: __name is private, _name
// is protected, dunders and everything else are public.
func pyVisibility(name string) models.Visibility {
	if strings.HasPrefix(name, "__") && !strings.HasSuffix(name, "__") {
		return models.VisibilityPrivate
	}
	if strings.HasPrefix(name, "_") && !strings.HasPrefix(name, "__") {
		return models.VisibilityProtected
	}
	return models.VisibilityPublic
}
