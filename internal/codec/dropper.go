package codec

import "github.com/p-blackswan/ksync/internal/version"

// VolatileFields lists, per family, the server-owned attribute paths
// stripped from a record on pull, since writing them back on push would either be
// rejected or silently ignored by the server (spec §4.3, §4.5). Dropping
// is idempotent: running it twice on an already-clean object is a no-op.
var VolatileFields = map[version.Family][]string{
	version.FamilySavedObjects: {
		"id",
		"updated_at",
		"updated_by",
		"created_at",
		"created_by",
		"version",
		"namespaces",
		"migrationVersion",
		"coreMigrationVersion",
		"typeMigrationVersion",
		"managed",
	},
	version.FamilyWorkflows: {
		"createdAt",
		"updatedAt",
		"createdBy",
		"updatedBy",
		"lastRun",
	},
	version.FamilyAgents: {
		"createdAt",
		"updatedAt",
	},
	version.FamilyTools: {
		"createdAt",
		"updatedAt",
		"readonly",
	},
}

// DropVolatileFields removes every configured volatile path from obj,
// leaving paths that aren't present untouched.
func DropVolatileFields(obj *Object, family version.Family) {
	for _, path := range VolatileFields[family] {
		DeletePath(obj, path)
	}
}
