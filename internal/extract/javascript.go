package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/archlens/archlens/internal/models"
)

var (
	jsImportRe  = regexp.MustCompile(`^import\s+(?:[\w${},*\s]+\s+from\s+)?['"]([^'"]+)['"]`)
	jsRequireRe = regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`)
	jsClassRe   = regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?class\s+(\w+)(?:\s+extends\s+([\w.]+))?`)
	jsFuncRe    = regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*(\w+)\s*\(([^)]*)`)
	jsArrowRe   = regexp.MustCompile(`^(?:export\s+)?(?:const|let|var)\s+(\w+)\s*=\s*(?:async\s+)?(?:\([^)]*\)|\w+)\s*=>`)
	jsMethodRe  = regexp.MustCompile(`^(?:static\s+)?(?:async\s+)?(?:get\s+|set\s+)?([#\w]+)\s*\(([^)]*)\)\s*\{?\s*$`)
)

// JavaScriptExtractor is a tolerant, pattern-based structural extractor for
// JavaScript and JSX sources. Scope tracking is brace-depth based; broken
// syntax degrades extraction quality but never fails the file.
type JavaScriptExtractor struct {
	statsRecorder
}

func NewJavaScriptExtractor() *JavaScriptExtractor {
	return &JavaScriptExtractor{}
}

func (e *JavaScriptExtractor) Language() string { return "javascript" }

func (e *JavaScriptExtractor) Extensions() []string {
	return []string{".js", ".jsx", ".mjs", ".cjs"}
}

func (e *JavaScriptExtractor) CanParseFile(path string) bool {
	return hasExtension(path, e.Extensions())
}

func (e *JavaScriptExtractor) ParseFile(path, projectRoot string) *models.ParseResult {
	return parseCStyleFile(e, path, projectRoot, cStyleRules{
		importRes:  []*regexp.Regexp{jsImportRe, jsRequireRe},
		classRe:    jsClassRe,
		funcRes:    []*regexp.Regexp{jsFuncRe, jsArrowRe},
		methodRe:   jsMethodRe,
		visibility: jsVisibility,
	})
}

// record is promoted from statsRecorder; parseCStyleFile needs the
// extractor's language and recorder through one seam.
func (e *JavaScriptExtractor) recorder() *statsRecorder { return &e.statsRecorder }

// jsVisibility: #private fields are private, exported declarations public,
// the rest module-scoped.
func jsVisibility(name string, exported bool) models.Visibility {
	if strings.HasPrefix(name, "#") {
		return models.VisibilityPrivate
	}
	if exported {
		return models.VisibilityPublic
	}
	return models.VisibilityPackage
}

// cStyleRules parameterizes the shared brace-depth scanner over the small
// syntactic differences between JavaScript and TypeScript.
type cStyleRules struct {
	importRes  []*regexp.Regexp
	classRe    *regexp.Regexp // groups: name, extends clause
	ifaceRe    *regexp.Regexp // optional; groups: name, extends clause
	implRe     *regexp.Regexp // optional; captures implements clause
	funcRes    []*regexp.Regexp
	methodRe   *regexp.Regexp
	visibility func(name string, exported bool) models.Visibility
}

type cStyleExtractor interface {
	Language() string
	recorder() *statsRecorder
}

// cScope is one open block (class, interface, or function) tracked by
// brace depth.
type cScope struct {
	kind      string
	qualified string
	depth     int // depth at which the block opened
	entityIdx int
	body      []string
	bodyLine  int
}

func parseCStyleFile(ex cStyleExtractor, path, projectRoot string, rules cStyleRules) *models.ParseResult {
	start := time.Now()
	lang := ex.Language()
	result := &models.ParseResult{FilePath: path, Language: lang}
	defer func() {
		if r := recover(); r != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("internal extraction failure in %s: %v", path, r))
		}
		result.Duration = time.Since(start)
		ex.recorder().record(result)
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
		Language:      lang,
	})

	var stack []*cScope
	depth := 0
	inBlockComment := false

	closeScope := func(s *cScope, lineNo int) {
		ent := &result.Entities[s.entityIdx]
		ent.EndLine = lineNo
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
					Language:   lang,
					Confidence: 0.6,
				})
			}
		}
	}

	enclosing := func(kind string) *cScope {
		for i := len(stack) - 1; i >= 0; i-- {
			if stack[i].kind == kind {
				return stack[i]
			}
		}
		return nil
	}

	lines := strings.Split(string(content), "\n")
	for i, raw := range lines {
		lineNo := i + 1
		line := raw

		if inBlockComment {
			if idx := strings.Index(line, "*/"); idx >= 0 {
				line = line[idx+2:]
				inBlockComment = false
			} else {
				continue
			}
		}
		if idx := strings.Index(line, "/*"); idx >= 0 && !strings.Contains(line[:idx], "//") {
			if end := strings.Index(line[idx:], "*/"); end >= 0 {
				line = line[:idx] + line[idx+end+2:]
			} else {
				line = line[:idx]
				inBlockComment = true
			}
		}
		line = stripLineComment(line, "//")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		for _, s := range stack {
			if s.kind == "func" {
				s.body = append(s.body, trimmed)
				if s.bodyLine == 0 {
					s.bodyLine = lineNo
				}
			}
		}

		exported := strings.HasPrefix(trimmed, "export ")
		matched := false

		for _, re := range rules.importRes {
			if m := re.FindStringSubmatch(trimmed); m != nil {
				addCStyleImport(result, relPath, m[1], lineNo, lang)
				matched = true
				break
			}
		}

		if !matched && rules.classRe != nil {
			if m := rules.classRe.FindStringSubmatch(trimmed); m != nil {
				addCStyleType(result, &stack, relPath, module, m[1], lineNo, depth, lang,
					models.EntityClass, rules.visibility(m[1], exported))
				qualified := stack[len(stack)-1].qualified
				if m[2] != "" {
					result.Relationships = append(result.Relationships, models.Relationship{
						Type: models.RelExtends, FromName: qualified, FromType: models.EntityClass,
						ToName: lastSegment(m[2]), ToType: models.EntityClass,
						FilePath: relPath, LineNumber: lineNo, Language: lang, Confidence: 0.9,
					})
				}
				if rules.implRe != nil {
					if im := rules.implRe.FindStringSubmatch(trimmed); im != nil {
						for _, iface := range splitList(im[1]) {
							result.Relationships = append(result.Relationships, models.Relationship{
								Type: models.RelImplements, FromName: qualified, FromType: models.EntityClass,
								ToName: iface, ToType: models.EntityInterface,
								FilePath: relPath, LineNumber: lineNo, Language: lang, Confidence: 0.9,
							})
						}
					}
				}
				matched = true
			}
		}

		if !matched && rules.ifaceRe != nil {
			if m := rules.ifaceRe.FindStringSubmatch(trimmed); m != nil {
				addCStyleType(result, &stack, relPath, module, m[1], lineNo, depth, lang,
					models.EntityInterface, rules.visibility(m[1], exported))
				if m[2] != "" {
					qualified := stack[len(stack)-1].qualified
					for _, base := range splitList(m[2]) {
						result.Relationships = append(result.Relationships, models.Relationship{
							Type: models.RelExtends, FromName: qualified, FromType: models.EntityInterface,
							ToName: base, ToType: models.EntityInterface,
							FilePath: relPath, LineNumber: lineNo, Language: lang, Confidence: 0.9,
						})
					}
				}
				matched = true
			}
		}

		if !matched {
			for _, re := range rules.funcRes {
				if m := re.FindStringSubmatch(trimmed); m != nil && enclosing("class") == nil {
					name := m[1]
					qualified := module + "." + name
					sig := ""
					if len(m) > 2 {
						sig = fmt.Sprintf("%s(%s)", name, strings.TrimSpace(m[2]))
					}
					result.Entities = append(result.Entities, models.CodeEntity{
						Name: name, QualifiedName: qualified, Type: models.EntityMethod,
						FilePath: relPath, StartLine: lineNo,
						Visibility: rules.visibility(name, exported),
						ParentEntity: relPath, Language: lang, Signature: sig,
					})
					result.Relationships = append(result.Relationships, models.Relationship{
						Type: models.RelContains, FromName: relPath, FromType: models.EntityFile,
						ToName: qualified, ToType: models.EntityMethod,
						FilePath: relPath, LineNumber: lineNo, Language: lang,
					})
					stack = append(stack, &cScope{
						kind: "func", qualified: qualified, depth: depth,
						entityIdx: len(result.Entities) - 1,
					})
					matched = true
					break
				}
			}
		}

		if !matched && rules.methodRe != nil {
			cls := enclosing("class")
			if cls == nil {
				cls = enclosing("interface")
			}
			if cls != nil && enclosing("func") == nil && depth == cls.depth+1 {
				// "constructor" sits in the keyword blocklist for call-site
				// scanning but is a legitimate member name here.
				if m := rules.methodRe.FindStringSubmatch(trimmed); m != nil && (m[1] == "constructor" || !nonCallKeywords[m[1]]) {
					name := m[1]
					qualified := cls.qualified + "." + name
					entityType := models.EntityMethod
					if name == "constructor" {
						entityType = models.EntityConstructor
					}
					result.Entities = append(result.Entities, models.CodeEntity{
						Name: name, QualifiedName: qualified, Type: entityType,
						FilePath: relPath, StartLine: lineNo,
						Visibility:   rules.visibility(name, true),
						ParentEntity: cls.qualified, Language: lang,
						Signature: fmt.Sprintf("%s(%s)", name, strings.TrimSpace(m[2])),
					})
					result.Relationships = append(result.Relationships, models.Relationship{
						Type: models.RelContains, FromName: cls.qualified, FromType: models.EntityClass,
						ToName: qualified, ToType: entityType,
						FilePath: relPath, LineNumber: lineNo, Language: lang,
					})
					stack = append(stack, &cScope{
						kind: "func", qualified: qualified, depth: depth,
						entityIdx: len(result.Entities) - 1,
					})
				}
			}
		}

		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if depth < 0 {
			depth = 0
		}
		for len(stack) > 0 && depth <= stack[len(stack)-1].depth {
			closeScope(stack[len(stack)-1], lineNo)
			stack = stack[:len(stack)-1]
		}
	}

	for len(stack) > 0 {
		closeScope(stack[len(stack)-1], len(lines))
		stack = stack[:len(stack)-1]
	}
	result.Entities[0].EndLine = len(lines)
	return result
}

func addCStyleImport(result *models.ParseResult, relPath, target string, lineNo int, lang string) {
	result.Entities = append(result.Entities, models.CodeEntity{
		Name:          target,
		QualifiedName: fmt.Sprintf("%s:import:%s", relPath, target),
		Type:          models.EntityImport,
		FilePath:      relPath,
		StartLine:     lineNo,
		Visibility:    models.VisibilityPrivate,
		ParentEntity:  relPath,
		Language:      lang,
	})
	result.Relationships = append(result.Relationships, models.Relationship{
		Type: models.RelImports, FromName: relPath, FromType: models.EntityFile,
		ToName: target, ToType: models.EntityFile,
		FilePath: relPath, LineNumber: lineNo, Language: lang,
	})
}

func addCStyleType(result *models.ParseResult, stack *[]*cScope, relPath, module, name string,
	lineNo, depth int, lang string, entityType models.EntityType, vis models.Visibility) {
	qualified := module + "." + name
	result.Entities = append(result.Entities, models.CodeEntity{
		Name: name, QualifiedName: qualified, Type: entityType,
		FilePath: relPath, StartLine: lineNo,
		Visibility: vis, ParentEntity: relPath, Language: lang,
	})
	result.Relationships = append(result.Relationships, models.Relationship{
		Type: models.RelContains, FromName: relPath, FromType: models.EntityFile,
		ToName: qualified, ToType: entityType,
		FilePath: relPath, LineNumber: lineNo, Language: lang,
	})
	kind := "class"
	if entityType == models.EntityInterface {
		kind = "interface"
	}
	*stack = append(*stack, &cScope{
		kind: kind, qualified: qualified, depth: depth,
		entityIdx: len(result.Entities) - 1,
	})
}

func lastSegment(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}
