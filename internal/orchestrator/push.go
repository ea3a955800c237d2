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

// Push runs the disk→Server direction (spec §2, §4.7). It enforces the
// push floor before any mutation: if the root spaces.yml records a prior
// pull version incompatible with the currently-detected one, the command
// aborts unless force is set.
func (o *Orchestrator) Push(ctx context.Context, spaces []string, families []version.Family, managed bool, force bool) (*Summary, error) {
	summary := &Summary{}

	blocked, reason, err := o.checkPushFloor()
	if err != nil {
		return nil, err
	}
	if blocked {
		if !force {
			return summary, fmt.Errorf("%w: %s", apperrors.ErrPushFloor, reason)
		}
		summary.ForcedWarnings = append(summary.ForcedWarnings, ForcedWarning{Message: "push floor bypassed: " + reason})
		o.logger.Warn().Str("reason", reason).Msg("push floor bypassed by --force")
	}

	spaceIDs, err := o.resolveSpaces(spaces)
	if err != nil {
		return nil, err
	}
	requested := resolveFamilies(families)

	perSpace := fanOutSpaces(spaceIDs, func(spaceID string) *Summary {
		return o.pushOneSpace(ctx, spaceID, requested, managed, force)
	})
	summary.Written += perSpace.Written
	summary.Skipped = append(summary.Skipped, perSpace.Skipped...)
	summary.ForcedWarnings = append(summary.ForcedWarnings, perSpace.ForcedWarnings...)
	summary.ItemErrors = append(summary.ItemErrors, perSpace.ItemErrors...)

	if ctx.Err() != nil {
		return summary, fmt.Errorf("%w: %v", apperrors.ErrCancelled, ctx.Err())
	}
	return summary, nil
}

// checkPushFloor implements spec §4.7/§8 property 6: read kibana.version
// from root spaces.yml; block iff the major versions differ or the
// current minor regressed below the recorded one.
func (o *Orchestrator) checkPushFloor() (blocked bool, reason string, err error) {
	f, err := manifest.LoadSpacesFile(o.root)
	if err != nil {
		return false, "", fmt.Errorf("loading spaces.yml for push-floor check: %w", err)
	}
	recorded, ok, err := f.RecordedVersion()
	if err != nil {
		return false, "", err
	}
	if !ok {
		return false, "", nil
	}
	current := o.client.Version()
	if version.IsPushCompatible(recorded, current) {
		return false, "", nil
	}
	return true, fmt.Sprintf("recorded %s, detected %s", recorded, current), nil
}

func (o *Orchestrator) pushOneSpace(ctx context.Context, spaceID string, families []version.Family, managed, force bool) *Summary {
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

		written, itemErrs := o.pushFamily(ctx, spaceID, fam, sp, managed)
		summary.Written += written
		summary.ItemErrors = append(summary.ItemErrors, itemErrs...)
	}
	return summary
}

func (o *Orchestrator) pushFamily(ctx context.Context, spaceID string, fam version.Family, sp *httpclient.SpaceClient, managed bool) (int, []error) {
	switch fam {
	case version.FamilySavedObjects:
		return o.pushSavedObjects(ctx, spaceID, sp, managed)
	case version.FamilySpaces:
		return o.pushSpace(ctx, spaceID, sp, managed)
	default:
		return o.pushPerItem(ctx, spaceID, fam, sp, managed)
	}
}

func (o *Orchestrator) pushPerItem(ctx context.Context, spaceID string, fam version.Family, sp *httpclient.SpaceClient, managed bool) (int, []error) {
	adapter := buildAdapter(o.root, spaceID, fam, sp)
	disk := &diskItemExtractor{Root: o.root, SpaceID: spaceID, Family: fam}
	keys, err := disk.List(ctx)
	if err != nil {
		return 0, []error{err}
	}

	result := pipeline.Run(ctx, spaceID, string(fam), keys, o.concurrency,
		adapter.PushExtractor.Get,
		pushTransforms(fam, managed),
		func(ctx context.Context, key string, obj *codec.Object) error {
			_, err := family.Upsert(ctx, adapter.PushLoader, key, obj)
			return err
		},
	)
	return result.Written, result.Errors
}

func (o *Orchestrator) pushSpace(ctx context.Context, spaceID string, sp *httpclient.SpaceClient, managed bool) (int, []error) {
	obj, err := readSpaceDefinitionFile(o.root, spaceID)
	if err != nil {
		return 0, []error{&apperrors.ItemError{Space: spaceID, Family: string(version.FamilySpaces), ID: spaceID, Err: err}}
	}
	if err := codec.CollapseNestedJSON(obj, version.FamilySpaces); err != nil {
		return 0, []error{&apperrors.ItemError{Space: spaceID, Family: string(version.FamilySpaces), ID: spaceID, Err: err}}
	}
	codec.MarkManaged(obj, managed)
	loader := &family.SpaceLoader{Space: sp}
	if _, err := family.Upsert(ctx, loader, spaceID, obj); err != nil {
		return 0, []error{&apperrors.ItemError{Space: spaceID, Family: string(version.FamilySpaces), ID: spaceID, Err: err}}
	}
	return 1, nil
}

func (o *Orchestrator) pushSavedObjects(ctx context.Context, spaceID string, sp *httpclient.SpaceClient, managed bool) (int, []error) {
	paths := manifest.Resolve(o.root, spaceID, version.FamilySavedObjects)
	m, err := manifest.LoadSavedObjectsManifest(paths.ManifestFile)
	if err != nil {
		return 0, []error{err}
	}
	if len(m.Objects) == 0 {
		return 0, nil
	}

	var records []*codec.Object
	var errs []error
	for _, ref := range m.Objects {
		path := manifest.SavedObjectPath(o.root, spaceID, ref.Type, ref.ID)
		obj, err := readSavedObjectFile(path)
		if err != nil {
			errs = append(errs, &apperrors.ItemError{Space: spaceID, Family: string(version.FamilySavedObjects), ID: ref.Type + "/" + ref.ID, Err: err})
			continue
		}
		if err := codec.CollapseNestedJSON(obj, version.FamilySavedObjects); err != nil {
			errs = append(errs, &apperrors.ItemError{Space: spaceID, Family: string(version.FamilySavedObjects), ID: ref.Type + "/" + ref.ID, Err: err})
			continue
		}
		codec.MarkManaged(obj, managed)
		records = append(records, obj)
	}
	if len(records) == 0 {
		return 0, errs
	}

	bulk := &family.SavedObjectsBulk{Space: sp}
	if err := bulk.Import(ctx, records); err != nil {
		errs = append(errs, &apperrors.ItemError{Space: spaceID, Family: string(version.FamilySavedObjects), Err: err})
		return 0, errs
	}
	return len(records), errs
}
