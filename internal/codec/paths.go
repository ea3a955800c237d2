package codec

import "github.com/p-blackswan/ksync/internal/version"

// MultilinePaths lists the dot-separated attribute paths that, when the
// value there is a string containing a newline, are re-emitted as
// triple-quoted blocks on write (spec §4.3). The table is a static,
// non-normative convenience list built from the saved-object types most
// likely to carry hand-authored multi-line payloads — it is not an
// exhaustive schema of every Kibana object type.
//
// A path may point one level inside an already-expanded NestedJSONPaths
// value: "attributes.visState.params.spec" only resolves once
// ExpandNestedJSON has turned the visState string into a structured
// object, per original_source/src/transform/vega_spec.rs's handling of
// Vega/TSVB spec text embedded inside a visualization's visState. The
// Vega spec leaf itself is never further JSON-decoded — it is plain
// (possibly comment-bearing) text — so decoding the surrounding visState
// document is enough to turn its escaped "\n" runs into real newlines;
// this path just tells the writer where to find that already-unescaped
// string so it round-trips as a triple-quoted block instead of a single
// escaped line. Vega specs embedded in dashboard panels (panelsJSON's
// array entries) are not covered: paths in this table walk object keys
// only (see value.go's navigate), and panelsJSON's payload is an array.
var MultilinePaths = map[version.Family][]string{
	version.FamilySavedObjects: {
		"attributes.description",
		"attributes.kibanaSavedObjectMeta.searchSourceJSON",
		"attributes.visState",
		"attributes.visState.params.spec",
		"attributes.panelsJSON",
		"attributes.optionsJSON",
		"attributes.uiStateJSON",
		"attributes.params.markdown",
	},
	version.FamilyWorkflows: {
		"definition",
		"description",
	},
	version.FamilyAgents: {
		"instructions",
		"description",
	},
	version.FamilyTools: {
		"description",
		"configuration.script",
		"configuration.query",
		"configuration.esql",
	},
}

// NestedJSONPaths lists the attribute paths whose string value is itself a
// JSON document serialized inline (spec §4.3's nested-JSON-in-string
// escaping requirement, generalized from the Vega-spec handling in
// original_source/src/transform/vega_spec.rs to every family's known
// nested-JSON attributes rather than just visualization specs).
var NestedJSONPaths = map[version.Family][]string{
	version.FamilySavedObjects: {
		"attributes.kibanaSavedObjectMeta.searchSourceJSON",
		"attributes.visState",
		"attributes.panelsJSON",
		"attributes.optionsJSON",
		"attributes.uiStateJSON",
		"attributes.visualizationJSON",
	},
}
