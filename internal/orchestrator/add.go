package orchestrator

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/p-blackswan/ksync/internal/codec"
	"github.com/p-blackswan/ksync/internal/family"
	"github.com/p-blackswan/ksync/internal/httpclient"
	"github.com/p-blackswan/ksync/internal/manifest"
	"github.com/p-blackswan/ksync/internal/version"
)

// AddResult reports what Add actually did for the requested selectors and
// every dependency discovered along the way.
type AddResult struct {
	Added    []AddedEntry
	Warnings []string
}

// AddedEntry is one id touched by Add. Added is false when the id was
// already managed — spec §8 property 7's "no change" outcome.
type AddedEntry struct {
	Space  string
	Family version.Family
	ID     string
	Added  bool
}

// workItem is one pending fetch in the dependency-closure work-list.
type workItem struct {
	family version.Family
	id     string
}

// Add fetches and manages the requested objects (spec §4.7), optionally
// following the dependency closure to a fixed point: agent → tools →
// workflow, plus workflows' own recursive *_id reference search. Missing
// dependencies produce a warning, not an error; re-adding an
// already-managed id (including one discovered only via the closure) is a
// no-op (spec §8 property 7).
func (o *Orchestrator) Add(ctx context.Context, spaceID string, fam version.Family, selectors []string, includeDeps bool) (*AddResult, error) {
	sp, err := o.client.Space(spaceID)
	if err != nil {
		return nil, err
	}

	result := &AddResult{}
	seen := map[workItem]bool{}
	queue := make([]workItem, 0, len(selectors))
	for _, id := range selectors {
		queue = append(queue, workItem{family: fam, id: id})
	}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		if seen[item] {
			continue
		}
		seen[item] = true

		added, obj, err := o.addOne(ctx, spaceID, sp, item.family, item.id)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("space=%s family=%s id=%s: %v", spaceID, item.family, item.id, err))
			continue
		}
		result.Added = append(result.Added, AddedEntry{Space: spaceID, Family: item.family, ID: item.id, Added: added})
		if !includeDeps || obj == nil {
			continue
		}

		for _, dep := range dependenciesOf(item.family, obj) {
			if !seen[dep] {
				queue = append(queue, dep)
			}
		}
	}
	return result, nil
}

// addOne fetches one object from the Server and adds it to the per-space
// manifest and object file, unless it's already managed — in which case
// the existing on-disk copy is returned so closure traversal can still
// continue through it.
func (o *Orchestrator) addOne(ctx context.Context, spaceID string, sp *httpclient.SpaceClient, fam version.Family, id string) (bool, *codec.Object, error) {
	paths := manifest.Resolve(o.root, spaceID, fam)
	m, err := manifest.LoadItemManifest(paths.ManifestFile)
	if err != nil {
		return false, nil, err
	}
	if m.Has(id) {
		obj, err := (&diskItemExtractor{Root: o.root, SpaceID: spaceID, Family: fam}).Get(ctx, id)
		return false, obj, err
	}

	extractor, ok := httpExtractorFor(fam, sp)
	if !ok {
		return false, nil, fmt.Errorf("add: unsupported family %q", fam)
	}
	obj, err := extractor.Get(ctx, id)
	if err != nil {
		return false, nil, err
	}

	codec.DropVolatileFields(obj, fam)
	if err := codec.ExpandNestedJSON(obj, fam); err != nil {
		return false, nil, err
	}

	name := ""
	if n, ok := obj.Get("name"); ok {
		if s, ok := n.(string); ok {
			name = s
		}
	}
	updated, added := m.WithAdded(id, name)
	if !added {
		return false, obj, nil
	}
	if err := manifest.SaveItemManifest(paths.ManifestFile, updated); err != nil {
		return false, nil, err
	}
	if err := (&diskItemLoader{Root: o.root, SpaceID: spaceID, Family: fam}).write(id, obj); err != nil {
		return false, nil, err
	}
	return true, obj, nil
}

func httpExtractorFor(fam version.Family, sp *httpclient.SpaceClient) (family.Extractor, bool) {
	switch fam {
	case version.FamilyAgents:
		return &family.AgentExtractor{Space: sp}, true
	case version.FamilyTools:
		return &family.ToolExtractor{Space: sp}, true
	case version.FamilyWorkflows:
		return &family.WorkflowExtractor{Space: sp}, true
	default:
		return nil, false
	}
}

// dependenciesOf derives the next work-list items from a fetched record,
// per family-specific traversal rules (spec §4.7).
func dependenciesOf(fam version.Family, obj *codec.Object) []workItem {
	switch fam {
	case version.FamilyAgents:
		return toolDependencies(obj)
	case version.FamilyTools:
		return workflowDependency(obj)
	case version.FamilyWorkflows:
		return recursiveIDReferences(obj)
	default:
		return nil
	}
}

// toolDependencies reads configuration.tools: [id...] (spec §4.7: "Agent →
// references tools").
func toolDependencies(obj *codec.Object) []workItem {
	v, ok := codec.GetPath(obj, "configuration.tools")
	if !ok {
		return nil
	}
	arr, ok := v.([]interface{})
	if !ok {
		return nil
	}
	items := make([]workItem, 0, len(arr))
	for _, e := range arr {
		if id, ok := e.(string); ok {
			items = append(items, workItem{family: version.FamilyTools, id: id})
		}
	}
	return items
}

// workflowDependency reads configuration.workflow_id (spec §4.7: "Tool →
// references workflows").
func workflowDependency(obj *codec.Object) []workItem {
	v, ok := codec.GetPath(obj, "configuration.workflow_id")
	if !ok {
		return nil
	}
	id, ok := v.(string)
	if !ok || id == "" {
		return nil
	}
	return []workItem{{family: version.FamilyWorkflows, id: id}}
}

var refKeyPattern = regexp.MustCompile(`(?i)^(agent_id|agentid|tool_id|toolid|workflow_id|workflowid)$`)

// recursiveIDReferences walks the entire JSON body looking for keys
// matching agent_id|tool_id|workflow_id (and camelCase variants),
// collecting their string values (spec §4.7: workflows' recursive search).
func recursiveIDReferences(obj *codec.Object) []workItem {
	var items []workItem
	walkValue(obj, func(key string, value interface{}) {
		if !refKeyPattern.MatchString(key) {
			return
		}
		s, ok := value.(string)
		if !ok || s == "" {
			return
		}
		items = append(items, workItem{family: familyForRefKey(key), id: s})
	})
	return items
}

func familyForRefKey(key string) version.Family {
	switch lower := strings.ToLower(key); {
	case strings.HasPrefix(lower, "agent"):
		return version.FamilyAgents
	case strings.HasPrefix(lower, "tool"):
		return version.FamilyTools
	default:
		return version.FamilyWorkflows
	}
}

// walkValue visits every key/value pair in v and its descendants,
// recursing into nested objects and arrays.
func walkValue(v interface{}, visit func(key string, value interface{})) {
	switch t := v.(type) {
	case *codec.Object:
		for _, k := range t.Keys() {
			val, _ := t.Get(k)
			visit(k, val)
			walkValue(val, visit)
		}
	case []interface{}:
		for _, e := range t {
			walkValue(e, visit)
		}
	}
}
