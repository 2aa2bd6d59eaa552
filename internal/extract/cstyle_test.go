package extract

import (
	"testing"

	"github.com/archlens/archlens/internal/models"
)

const jsFixture = `import { api } from './api';
const db = require('./db');

export class Repository extends BaseRepository {
  constructor(pool) {
    this.pool = pool;
  }

  findAll() {
    return this.pool.query('SELECT 1');
  }
}

export function buildRepository(pool) {
  return new Repository(pool);
}

const shutdown = async () => {
  closePool();
};
`

func TestJavaScriptExtractor_ParseFile(t *testing.T) {
	root := t.TempDir()
	path := writeFixture(t, root, "src/repo.js", jsFixture)

	result := NewJavaScriptExtractor().ParseFile(path, root)
	if !result.Successful() {
		t.Fatalf("expected success, got errors: %v", result.Errors)
	}

	repo := findEntity(result.Entities, "src.repo.Repository", models.EntityClass)
	if repo == nil {
		t.Fatal("missing Class entity src.repo.Repository")
	}
	if repo.Visibility != models.VisibilityPublic {
		t.Errorf("exported class visibility = %s, want public", repo.Visibility)
	}

	if findEntity(result.Entities, "src.repo.Repository.constructor", models.EntityConstructor) == nil {
		t.Error("constructor should be extracted as a Constructor entity")
	}
	if findEntity(result.Entities, "src.repo.Repository.findAll", models.EntityMethod) == nil {
		t.Error("missing Method entity findAll")
	}
	if findEntity(result.Entities, "src.repo.buildRepository", models.EntityMethod) == nil {
		t.Error("missing top-level function buildRepository")
	}
	if findEntity(result.Entities, "src.repo.shutdown", models.EntityMethod) == nil {
		t.Error("missing arrow function shutdown")
	}

	if !hasRelationship(result.Relationships, models.RelExtends, "src.repo.Repository", "BaseRepository") {
		t.Error("missing EXTENDS Repository -> BaseRepository")
	}
	if !hasRelationship(result.Relationships, models.RelImports, "src/repo.js", "./api") {
		t.Error("missing IMPORTS src/repo.js -> ./api")
	}
	if !hasRelationship(result.Relationships, models.RelImports, "src/repo.js", "./db") {
		t.Error("missing IMPORTS src/repo.js -> ./db (require)")
	}
	if !hasRelationship(result.Relationships, models.RelCalls, "src.repo.Repository.findAll", "query") {
		t.Error("missing CALLS findAll -> query")
	}
}

const tsFixture = `import { Logger } from './logger';

export interface Store<T> extends Closeable {
  get(id: string): T;
}

export class MemoryStore implements Store {
  private items: Map<string, string>;

  constructor(private logger: Logger) {
  }

  get(id: string): string {
    return this.items.get(id);
  }

  private evict(): void {
    this.items.clear();
  }
}
`

func TestTypeScriptExtractor_ParseFile(t *testing.T) {
	root := t.TempDir()
	path := writeFixture(t, root, "src/store.ts", tsFixture)

	result := NewTypeScriptExtractor().ParseFile(path, root)
	if !result.Successful() {
		t.Fatalf("expected success, got errors: %v", result.Errors)
	}

	if findEntity(result.Entities, "src.store.Store", models.EntityInterface) == nil {
		t.Fatal("missing Interface entity src.store.Store")
	}
	if findEntity(result.Entities, "src.store.MemoryStore", models.EntityClass) == nil {
		t.Fatal("missing Class entity src.store.MemoryStore")
	}

	if !hasRelationship(result.Relationships, models.RelExtends, "src.store.Store", "Closeable") {
		t.Error("missing EXTENDS Store -> Closeable")
	}
	if !hasRelationship(result.Relationships, models.RelImplements, "src.store.MemoryStore", "Store") {
		t.Error("missing IMPLEMENTS MemoryStore -> Store")
	}

	evict := findEntity(result.Entities, "src.store.MemoryStore.evict", models.EntityMethod)
	if evict == nil {
		t.Fatal("missing Method entity evict")
	}
	if evict.Visibility != models.VisibilityPrivate {
		t.Errorf("evict visibility = %s, want private (declared modifier)", evict.Visibility)
	}
}

func TestCStyleExtractor_CommentsIgnored(t *testing.T) {
	root := t.TempDir()
	path := writeFixture(t, root, "c.js", `// class Fake {}
/* class AlsoFake {} */
export class Real {
}
`)

	result := NewJavaScriptExtractor().ParseFile(path, root)
	if findEntity(result.Entities, "c.Fake", models.EntityClass) != nil {
		t.Error("commented-out class should not be extracted")
	}
	if findEntity(result.Entities, "c.AlsoFake", models.EntityClass) != nil {
		t.Error("block-commented class should not be extracted")
	}
	if findEntity(result.Entities, "c.Real", models.EntityClass) == nil {
		t.Error("missing class Real")
	}
}
