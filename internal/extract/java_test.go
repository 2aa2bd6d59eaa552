package extract

import (
	"testing"

	"github.com/archlens/archlens/internal/models"
)

const javaFixture = `package com.example.app;

import java.util.List;
import com.example.core.Validator;

public class UserService extends BaseService implements AutoCloseable {
    private final List<String> cache;

    public UserService(List<String> cache) {
        this.cache = cache;
    }

    public String findUser(String id) {
        if (id == null) {
            return null;
        }
        return lookup(id);
    }

    String lookup(String id) {
        return cache.get(0);
    }

    public void close() {
    }
}
`

func TestJavaExtractor_ParseFile(t *testing.T) {
	root := t.TempDir()
	path := writeFixture(t, root, "com/example/app/UserService.java", javaFixture)

	result := NewJavaExtractor().ParseFile(path, root)
	if !result.Successful() {
		t.Fatalf("expected success, got errors: %v", result.Errors)
	}

	if findEntity(result.Entities, "com.example.app", models.EntityPackage) == nil {
		t.Error("missing Package entity com.example.app")
	}
	if !hasRelationship(result.Relationships, models.RelContains, "com.example.app", "com/example/app/UserService.java") {
		t.Error("missing CONTAINS package -> file")
	}

	svc := findEntity(result.Entities, "com.example.app.UserService", models.EntityClass)
	if svc == nil {
		t.Fatal("missing Class entity com.example.app.UserService")
	}
	if svc.Visibility != models.VisibilityPublic {
		t.Errorf("class visibility = %s, want public", svc.Visibility)
	}

	if !hasRelationship(result.Relationships, models.RelExtends, "com.example.app.UserService", "BaseService") {
		t.Error("missing EXTENDS UserService -> BaseService")
	}
	if !hasRelationship(result.Relationships, models.RelImplements, "com.example.app.UserService", "AutoCloseable") {
		t.Error("missing IMPLEMENTS UserService -> AutoCloseable")
	}

	ctor := findEntity(result.Entities, "com.example.app.UserService.UserService", models.EntityConstructor)
	if ctor == nil {
		t.Fatal("constructor should be extracted (name matches class)")
	}

	find := findEntity(result.Entities, "com.example.app.UserService.findUser", models.EntityMethod)
	if find == nil {
		t.Fatal("missing Method entity findUser")
	}
	if find.Complexity < 2 {
		t.Errorf("findUser complexity = %d, want >= 2", find.Complexity)
	}

	lookup := findEntity(result.Entities, "com.example.app.UserService.lookup", models.EntityMethod)
	if lookup == nil {
		t.Fatal("missing Method entity lookup")
	}
	if lookup.Visibility != models.VisibilityPackage {
		t.Errorf("no-modifier method visibility = %s, want package", lookup.Visibility)
	}

	field := findEntity(result.Entities, "com.example.app.UserService.cache", models.EntityField)
	if field == nil {
		t.Fatal("missing Field entity cache")
	}
	if field.Visibility != models.VisibilityPrivate {
		t.Errorf("field visibility = %s, want private", field.Visibility)
	}

	if !hasRelationship(result.Relationships, models.RelCalls, "com.example.app.UserService.findUser", "lookup") {
		t.Error("missing CALLS findUser -> lookup")
	}
	if !hasRelationship(result.Relationships, models.RelImports, "com/example/app/UserService.java", "java.util.List") {
		t.Error("missing IMPORTS file -> java.util.List")
	}
}

func TestJavaExtractor_AbstractMethodNoBody(t *testing.T) {
	root := t.TempDir()
	path := writeFixture(t, root, "Shape.java", `package geo;

public abstract class Shape {
    public abstract double area();
}
`)

	result := NewJavaExtractor().ParseFile(path, root)
	area := findEntity(result.Entities, "geo.Shape.area", models.EntityMethod)
	if area == nil {
		t.Fatal("abstract method declaration should still be extracted")
	}
	// no body, so no call edges from it
	for _, r := range result.Relationships {
		if r.Type == models.RelCalls && r.FromName == "geo.Shape.area" {
			t.Errorf("abstract method should not produce call edges, got -> %s", r.ToName)
		}
	}
}
