package graph

import (
	"github.com/archlens/archlens/internal/models"
)

// nodeLabels is the static entity-type to node-label table. Labels are
// fixed at compile time, never inferred from data.
var nodeLabels = map[models.EntityType]string{
	models.EntityFile:        "File",
	models.EntityPackage:     "Package",
	models.EntityClass:       "Class",
	models.EntityInterface:   "Interface",
	models.EntityMethod:      "Method",
	models.EntityConstructor: "Constructor",
	models.EntityField:       "Field",
	models.EntityVariable:    "Variable",
	models.EntityImport:      "Import",
}

// edgeTypes is the static relationship-type to edge-type table.
var edgeTypes = map[models.RelationshipType]string{
	models.RelCalls:      "CALLS",
	models.RelExtends:    "EXTENDS",
	models.RelImplements: "IMPLEMENTS",
	models.RelContains:   "CONTAINS",
	models.RelImports:    "IMPORTS",
}

// NodeLabelFor returns the node label for an entity type; unknown types
// fall back to a generic label rather than failing the build.
func NodeLabelFor(entityType models.EntityType) string {
	if label, ok := nodeLabels[entityType]; ok {
		return label
	}
	return "Entity"
}

// EdgeTypeFor returns the edge type for a relationship type.
func EdgeTypeFor(relType models.RelationshipType) (string, bool) {
	t, ok := edgeTypes[relType]
	return t, ok
}
