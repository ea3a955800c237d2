package orchestrator

import (
	"context"
	"fmt"

	"github.com/p-blackswan/ksync/internal/apperrors"
	"github.com/p-blackswan/ksync/internal/codec"
	"github.com/p-blackswan/ksync/internal/family"
	"github.com/p-blackswan/ksync/internal/httpclient"
	"github.com/p-blackswan/ksync/internal/manifest"
	"github.com/p-blackswan/ksync/internal/pipeline"
	"github.com/p-blackswan/ksync/internal/version"
)

// Pull runs the Server→disk direction for every requested space and
// family (spec §2, §4.7). spaces/families filters are empty to mean "all
// registered"/"all families". After every pull task completes, the root
// spaces.yml is updated with the detected Server version (spec §4.7,
// §8 property 5).
func (o *Orchestrator) Pull(ctx context.Context, spaces []string, families []version.Family, force bool) (*Summary, error) {
	spaceIDs, err := o.resolveSpaces(spaces)
	if err != nil {
		return nil, err
	}
	requested := resolveFamilies(families)

	summary := fanOutSpaces(spaceIDs, func(spaceID string) *Summary {
		return o.pullOneSpace(ctx, spaceID, requested, force)
	})

	if ctx.Err() != nil {
		return summary, fmt.Errorf("%w: %v", apperrors.ErrCancelled, ctx.Err())
	}

	if err := o.recordVersion(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (o *Orchestrator) pullOneSpace(ctx context.Context, spaceID string, families []version.Family, force bool) *Summary {
	summary := &Summary{}
	sp, err := o.client.Space(spaceID)
	if err != nil {
		summary.ItemErrors = append(summary.ItemErrors, err)
		return summary
	}

	for _, fam := range families {
		decision := o.gate(fam, force)
		if decision == gateSkip {
			summary.Skipped = append(summary.Skipped, SkipRecord{Space: spaceID, Family: fam, Reason: o.client.UnsupportedReason(fam)})
			continue
		}
		if decision == gateForced {
			summary.ForcedWarnings = append(summary.ForcedWarnings, ForcedWarning{
				Space: spaceID, Family: fam,
				Message: "forcing unsupported family: " + o.client.UnsupportedReason(fam),
			})
			o.logger.Warn().Str("space", spaceID).Str("family", string(fam)).Msg("forcing unsupported family")
		}

		written, itemErrs := o.pullFamily(ctx, spaceID, fam, sp)
		summary.Written += written
		summary.ItemErrors = append(summary.ItemErrors, itemErrs...)
	}
	return summary
}

func (o *Orchestrator) pullFamily(ctx context.Context, spaceID string, fam version.Family, sp *httpclient.SpaceClient) (int, []error) {
	switch fam {
	case version.FamilySavedObjects:
		return o.pullSavedObjects(ctx, spaceID, sp)
	case version.FamilySpaces:
		return o.pullSpace(ctx, spaceID, sp)
	default:
		return o.pullPerItem(ctx, spaceID, fam, sp)
	}
}

func (o *Orchestrator) pullPerItem(ctx context.Context, spaceID string, fam version.Family, sp *httpclient.SpaceClient) (int, []error) {
	adapter := buildAdapter(o.root, spaceID, fam, sp)
	disk := &diskItemExtractor{Root: o.root, SpaceID: spaceID, Family: fam}
	keys, err := disk.List(ctx)
	if err != nil {
		return 0, []error{err}
	}

	result := pipeline.Run(ctx, spaceID, string(fam), keys, o.concurrency,
		adapter.PullExtractor.Get,
		pullTransforms(fam),
		func(ctx context.Context, key string, obj *codec.Object) error {
			return adapter.PullLoader.Create(ctx, key, obj)
		},
	)
	return result.Written, result.Errors
}

func (o *Orchestrator) pullSpace(ctx context.Context, spaceID string, sp *httpclient.SpaceClient) (int, []error) {
	extractor := &family.SpaceExtractor{Space: sp}
	obj, err := extractor.Get(ctx, spaceID)
	if err != nil {
		return 0, []error{&apperrors.ItemError{Space: spaceID, Family: string(version.FamilySpaces), ID: spaceID, Err: err}}
	}
	codec.DropVolatileFields(obj, version.FamilySpaces)
	if err := writeSpaceDefinitionFile(o.root, spaceID, obj); err != nil {
		return 0, []error{&apperrors.ItemError{Space: spaceID, Family: string(version.FamilySpaces), ID: spaceID, Err: err}}
	}
	return 1, nil
}

func (o *Orchestrator) pullSavedObjects(ctx context.Context, spaceID string, sp *httpclient.SpaceClient) (int, []error) {
	paths := manifest.Resolve(o.root, spaceID, version.FamilySavedObjects)
	m, err := manifest.LoadSavedObjectsManifest(paths.ManifestFile)
	if err != nil {
		return 0, []error{err}
	}
	if len(m.Objects) == 0 {
		return 0, nil
	}

	bulk := &family.SavedObjectsBulk{Space: sp}
	records, err := bulk.Export(ctx, m)
	if err != nil {
		return 0, []error{&apperrors.ItemError{Space: spaceID, Family: string(version.FamilySavedObjects), Err: err}}
	}

	var errs []error
	written := 0
	for _, record := range records {
		id, _ := record.Get("id")
		objType, _ := record.Get("type")
		key := fmt.Sprintf("%v/%v", objType, id)

		bulk.SanitizeForPull(record)
		if err := codec.ExpandNestedJSON(record, version.FamilySavedObjects); err != nil {
			errs = append(errs, &apperrors.ItemError{Space: spaceID, Family: string(version.FamilySavedObjects), ID: key, Err: err})
			continue
		}
		objTypeStr, _ := objType.(string)
		idStr, _ := id.(string)
		path := manifest.SavedObjectPath(o.root, spaceID, objTypeStr, idStr)
		if err := writeSavedObjectFile(path, record); err != nil {
			errs = append(errs, &apperrors.ItemError{Space: spaceID, Family: string(version.FamilySavedObjects), ID: key, Err: err})
			continue
		}
		written++
	}
	return written, errs
}
