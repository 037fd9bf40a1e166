package services

import (
	"context"

	"github.com/pkg/errors"

	"github.com/iota-uz/presence/modules/reconcile/domain/diff"
	"github.com/iota-uz/presence/modules/reconcile/domain/hierarchy"
	"github.com/iota-uz/presence/modules/reconcile/domain/identity"
	"github.com/iota-uz/presence/modules/roster/domain/aggregates/entry"
	rosterservices "github.com/iota-uz/presence/modules/roster/services"
	"github.com/iota-uz/presence/pkg/composables"
)

type DiffService struct {
	roster     *rosterservices.RosterService
	repo       entry.Repository
	tracker    TrackerClient
	hr         HRClient
	normalizer *hierarchy.Normalizer
	clock      Clock
}

func NewDiffService(
	roster *rosterservices.RosterService,
	repo entry.Repository,
	trackerClient TrackerClient,
	hrClient HRClient,
	normalizer *hierarchy.Normalizer,
	clock Clock,
) *DiffService {
	if clock == nil {
		clock = SystemClock()
	}
	return &DiffService{
		roster:     roster,
		repo:       repo,
		tracker:    trackerClient,
		hr:         hrClient,
		normalizer: normalizer,
		clock:      clock,
	}
}

// Compute fetches both upstream snapshots and partitions them against the
// roster. Either fetch may fail; the report carries the error string and
// the surviving side's sets.
func (s *DiffService) Compute(ctx context.Context) (diff.Result, error) {
	rc := newRunContext(s.tracker, s.hr)

	var trackerSnap, hrSnap *diff.Snapshot
	trackerUsers, trackerErr := rc.trackerSnapshot(ctx)
	if trackerErr == nil {
		records := make([]diff.Candidate, 0, len(trackerUsers))
		for _, u := range trackerUsers {
			records = append(records, trackerCandidate(u))
		}
		trackerSnap = &diff.Snapshot{FetchedAt: s.clock.Now(), Records: records}
	}

	hrEmployees, hrErr := rc.hrSnapshot(ctx)
	if hrErr == nil {
		records := make([]diff.Candidate, 0, len(hrEmployees))
		for _, e := range hrEmployees {
			records = append(records, hrCandidate(e))
		}
		hrSnap = &diff.Snapshot{FetchedAt: s.clock.Now(), Records: records}
	}

	roster, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]entry.Entry, error) {
		return s.repo.GetAll(txCtx)
	})
	if err != nil {
		return diff.Result{}, err
	}

	return diff.Compute(trackerSnap, trackerErr, hrSnap, hrErr, roster), nil
}

// AddToRoster is the one-click admission of an unmatched diff row. The
// candidate's hierarchy is normalized before the entry is created.
func (s *DiffService) AddToRoster(ctx context.Context, c diff.Candidate) (entry.Entry, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return entry.Entry{}, err
	}
	if entry.DeriveKey(c.Raw.DisplayName, c.Raw.Email) == "" {
		return entry.Entry{}, errors.New("candidate has no usable name or email")
	}

	fresh := entry.New(tenantID, c.Raw.DisplayName, c.Raw.Email)
	patch := candidatePatch(c, s.normalizer)
	fresh, _ = entry.Merge(fresh, patch)

	return s.roster.Create(ctx, fresh)
}

func candidatePatch(c diff.Candidate, n *hierarchy.Normalizer) entry.Patch {
	var p entry.Patch
	switch {
	case c.Raw.Source == identity.SourceTracker && c.Raw.ExternalID != 0:
		p.TrackerID = entry.Ptr(c.Raw.ExternalID)
	case c.Raw.ExternalID != 0:
		p.HRID = entry.Ptr(c.Raw.ExternalID)
	}
	if c.ManagerID != 0 {
		p.ControlManagers = entry.Ptr([]int64{c.ManagerID})
	}

	path, _ := n.Normalize(c.ManagerName, hierarchy.Path{Division: c.Division})
	if path.Division != "" {
		p.Division = entry.Ptr(path.Division)
	}
	if path.Direction != "" {
		p.Direction = entry.Ptr(path.Direction)
	}
	if path.Unit != "" {
		p.Unit = entry.Ptr(path.Unit)
	}
	if path.Team != "" {
		p.Team = entry.Ptr(path.Team)
	}
	return p
}
