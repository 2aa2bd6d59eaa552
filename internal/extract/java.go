package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/archlens/archlens/internal/models"
)

var (
	javaPackageRe = regexp.MustCompile(`^package\s+([\w.]+)\s*;`)
	javaImportRe  = regexp.MustCompile(`^import\s+(?:static\s+)?([\w.*]+)\s*;`)
	javaTypeRe    = regexp.MustCompile(`^((?:public|protected|private)\s+)?(?:(?:static|final|abstract|sealed|non-sealed)\s+)*(class|interface|enum|record)\s+(\w+)(?:<[^>]*>)?(?:\s+extends\s+([\w.,\s<>]+?))?(?:\s+implements\s+([\w.,\s<>]+?))?\s*\{`)
	javaMethodRe  = regexp.MustCompile(`^((?:public|protected|private)\s+)?(?:(?:static|final|abstract|synchronized|native|default)\s+)*(?:<[^>]*>\s+)?([\w.<>\[\], ?]+?)\s+(\w+)\s*\(([^)]*)\)\s*(?:throws\s+[\w.,\s]+)?\s*[{;]`)
	javaCtorRe    = regexp.MustCompile(`^((?:public|protected|private)\s+)?(\w+)\s*\(([^)]*)\)\s*(?:throws\s+[\w.,\s]+)?\s*\{`)
	javaFieldRe   = regexp.MustCompile(`^((?:public|protected|private)\s+)(?:(?:static|final|volatile|transient)\s+)*([\w.<>\[\], ?]+?)\s+(\w+)\s*(?:=|;)`)
)

// JavaExtractor is a tolerant, pattern-based structural extractor for Java
// sources. Declarations are recognized line-wise with brace-depth scoping;
// annotation and generic noise is tolerated, not understood.
type JavaExtractor struct {
	statsRecorder
}

func NewJavaExtractor() *JavaExtractor {
	return &JavaExtractor{}
}

func (e *JavaExtractor) Language() string { return "java" }

func (e *JavaExtractor) Extensions() []string {
	return []string{".java"}
}

func (e *JavaExtractor) CanParseFile(path string) bool {
	return hasExtension(path, e.Extensions())
}

func (e *JavaExtractor) ParseFile(path, projectRoot string) *models.ParseResult {
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

	relPath := relFilePath(path, projectRoot)
	pkg := ""

	result.Entities = append(result.Entities, models.CodeEntity{
		Name:          relPath,
		QualifiedName: relPath,
		Type:          models.EntityFile,
		FilePath:      relPath,
		StartLine:     1,
		Visibility:    models.VisibilityPublic,
		Language:      e.Language(),
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
					Language:   e.Language(),
					Confidence: 0.6,
				})
			}
		}
	}

	enclosingType := func() *cScope {
		for i := len(stack) - 1; i >= 0; i-- {
			if stack[i].kind == "class" || stack[i].kind == "interface" {
				return stack[i]
			}
		}
		return nil
	}
	inFunc := func() bool {
		for i := len(stack) - 1; i >= 0; i-- {
			if stack[i].kind == "func" {
				return true
			}
		}
		return false
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
		if idx := strings.Index(line, "/*"); idx >= 0 {
			if end := strings.Index(line[idx:], "*/"); end >= 0 {
				line = line[:idx] + line[idx+end+2:]
			} else {
				line = line[:idx]
				inBlockComment = true
			}
		}
		line = stripLineComment(line, "//")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "@") {
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

		matched := false

		if pkg == "" && depth == 0 {
			if m := javaPackageRe.FindStringSubmatch(trimmed); m != nil {
				pkg = m[1]
				result.Entities = append(result.Entities, models.CodeEntity{
					Name: pkg, QualifiedName: pkg, Type: models.EntityPackage,
					FilePath: relPath, StartLine: lineNo,
					Visibility: models.VisibilityPublic, Language: e.Language(),
				})
				result.Relationships = append(result.Relationships, models.Relationship{
					Type: models.RelContains, FromName: pkg, FromType: models.EntityPackage,
					ToName: relPath, ToType: models.EntityFile,
					FilePath: relPath, LineNumber: lineNo, Language: e.Language(),
				})
				matched = true
			}
		}

		if !matched && depth == 0 {
			if m := javaImportRe.FindStringSubmatch(trimmed); m != nil {
				addCStyleImport(result, relPath, m[1], lineNo, e.Language())
				matched = true
			}
		}

		if !matched {
			if m := javaTypeRe.FindStringSubmatch(trimmed); m != nil {
				name := m[3]
				entityType := models.EntityClass
				kind := "class"
				if m[2] == "interface" {
					entityType = models.EntityInterface
					kind = "interface"
				}
				owner := pkg
				if owner == "" {
					owner = moduleFromPath(path, projectRoot)
				}
				qualified := owner + "." + name
				if outer := enclosingType(); outer != nil {
					qualified = outer.qualified + "." + name
				}
				result.Entities = append(result.Entities, models.CodeEntity{
					Name: name, QualifiedName: qualified, Type: entityType,
					FilePath: relPath, StartLine: lineNo,
					Visibility:   javaVisibility(m[1]),
					ParentEntity: relPath, Language: e.Language(),
				})
				result.Relationships = append(result.Relationships, models.Relationship{
					Type: models.RelContains, FromName: relPath, FromType: models.EntityFile,
					ToName: qualified, ToType: entityType,
					FilePath: relPath, LineNumber: lineNo, Language: e.Language(),
				})
				for _, base := range splitList(m[4]) {
					result.Relationships = append(result.Relationships, models.Relationship{
						Type: models.RelExtends, FromName: qualified, FromType: entityType,
						ToName: lastSegment(base), ToType: entityType,
						FilePath: relPath, LineNumber: lineNo, Language: e.Language(), Confidence: 0.9,
					})
				}
				for _, iface := range splitList(m[5]) {
					result.Relationships = append(result.Relationships, models.Relationship{
						Type: models.RelImplements, FromName: qualified, FromType: models.EntityClass,
						ToName: lastSegment(iface), ToType: models.EntityInterface,
						FilePath: relPath, LineNumber: lineNo, Language: e.Language(), Confidence: 0.9,
					})
				}
				stack = append(stack, &cScope{
					kind: kind, qualified: qualified, depth: depth,
					entityIdx: len(result.Entities) - 1,
				})
				matched = true
			}
		}

		if !matched && !inFunc() {
			if outer := enclosingType(); outer != nil && depth == outer.depth+1 {
				if m := javaCtorRe.FindStringSubmatch(trimmed); m != nil && m[2] == result.Entities[outer.entityIdx].Name {
					qualified := outer.qualified + "." + m[2]
					result.Entities = append(result.Entities, models.CodeEntity{
						Name: m[2], QualifiedName: qualified, Type: models.EntityConstructor,
						FilePath: relPath, StartLine: lineNo,
						Visibility:   javaVisibility(m[1]),
						ParentEntity: outer.qualified, Language: e.Language(),
						Signature: fmt.Sprintf("%s(%s)", m[2], strings.TrimSpace(m[3])),
					})
					result.Relationships = append(result.Relationships, models.Relationship{
						Type: models.RelContains, FromName: outer.qualified, FromType: models.EntityClass,
						ToName: qualified, ToType: models.EntityConstructor,
						FilePath: relPath, LineNumber: lineNo, Language: e.Language(),
					})
					stack = append(stack, &cScope{
						kind: "func", qualified: qualified, depth: depth,
						entityIdx: len(result.Entities) - 1,
					})
					matched = true
				} else if m := javaMethodRe.FindStringSubmatch(trimmed); m != nil && !nonCallKeywords[m[3]] {
					qualified := outer.qualified + "." + m[3]
					result.Entities = append(result.Entities, models.CodeEntity{
						Name: m[3], QualifiedName: qualified, Type: models.EntityMethod,
						FilePath: relPath, StartLine: lineNo,
						Visibility:   javaVisibility(m[1]),
						ParentEntity: outer.qualified, Language: e.Language(),
						Signature: fmt.Sprintf("%s %s(%s)", strings.TrimSpace(m[2]), m[3], strings.TrimSpace(m[4])),
					})
					result.Relationships = append(result.Relationships, models.Relationship{
						Type: models.RelContains, FromName: outer.qualified, FromType: models.EntityClass,
						ToName: qualified, ToType: models.EntityMethod,
						FilePath: relPath, LineNumber: lineNo, Language: e.Language(),
					})
					if strings.HasSuffix(trimmed, "{") {
						stack = append(stack, &cScope{
							kind: "func", qualified: qualified, depth: depth,
							entityIdx: len(result.Entities) - 1,
						})
					}
					matched = true
				} else if m := javaFieldRe.FindStringSubmatch(trimmed); m != nil {
					qualified := outer.qualified + "." + m[3]
					result.Entities = append(result.Entities, models.CodeEntity{
						Name: m[3], QualifiedName: qualified, Type: models.EntityField,
						FilePath: relPath, StartLine: lineNo, EndLine: lineNo,
						Visibility:   javaVisibility(m[1]),
						ParentEntity: outer.qualified, Language: e.Language(),
						Signature:    strings.TrimSpace(m[2]) + " " + m[3],
					})
					result.Relationships = append(result.Relationships, models.Relationship{
						Type: models.RelContains, FromName: outer.qualified, FromType: models.EntityClass,
						ToName: qualified, ToType: models.EntityField,
						FilePath: relPath, LineNumber: lineNo, Language: e.Language(),
					})
					matched = true
				}
			}
		}
		_ = matched

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

// javaVisibility maps the declared modifier; no modifier means
// package-private.
func javaVisibility(modifier string) models.Visibility {
	switch strings.TrimSpace(modifier) {
	case "public":
		return models.VisibilityPublic
	case "protected":
		return models.VisibilityProtected
	case "private":
		return models.VisibilityPrivate
	default:
		return models.VisibilityPackage
	}
}
