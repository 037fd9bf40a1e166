package services

import (
	"github.com/iota-uz/presence/modules/reconcile/domain/diff"
	"github.com/iota-uz/presence/modules/reconcile/domain/hierarchy"
	"github.com/iota-uz/presence/modules/reconcile/domain/identity"
	"github.com/iota-uz/presence/modules/reconcile/infrastructure/hrsys"
	"github.com/iota-uz/presence/modules/reconcile/infrastructure/tracker"
	"github.com/iota-uz/presence/modules/roster/domain/aggregates/entry"
)

func trackerRaw(u tracker.User) identity.RawRecord {
	name, email := tracker.SplitDisplayName(u.DisplayName)
	return identity.RawRecord{
		Source:      identity.SourceTracker,
		ExternalID:  u.ID,
		Email:       email,
		DisplayName: name,
	}
}

// trackerPatch writes only what the tracker actually knows: its own id and
// whatever the display name yields. Empty values stay nil so merge never
// blanks a field sync didn't fetch.
func trackerPatch(u tracker.User) entry.Patch {
	raw := trackerRaw(u)
	p := entry.Patch{TrackerID: entry.Ptr(u.ID)}
	if raw.DisplayName != "" {
		p.Name = entry.Ptr(raw.DisplayName)
	}
	if raw.Email != "" {
		p.Email = entry.Ptr(raw.Email)
	}
	return p
}

func hrRaw(e hrsys.Employee) identity.RawRecord {
	return identity.RawRecord{
		Source:      identity.SourceHR,
		ExternalID:  e.ID,
		Email:       e.Email,
		DisplayName: e.FullName(),
	}
}

// hrDirectory indexes a snapshot by external id so a row's manager can be
// resolved to its own directory entry.
func hrDirectory(emps []hrsys.Employee) map[int64]hrsys.Employee {
	dir := make(map[int64]hrsys.Employee, len(emps))
	for _, e := range emps {
		dir[e.ID] = e
	}
	return dir
}

func hrPatch(e hrsys.Employee, directory map[int64]hrsys.Employee, n *hierarchy.Normalizer) entry.Patch {
	p := entry.Patch{HRID: entry.Ptr(e.ID)}
	if name := e.FullName(); name != "" {
		p.Name = entry.Ptr(name)
	}
	if e.Email != "" {
		p.Email = entry.Ptr(e.Email)
	}
	if e.Contact != "" {
		p.Contact = entry.Ptr(e.Contact)
	}
	if e.Manager != nil {
		p.ControlManagers = entry.Ptr([]int64{e.Manager.ID})
		if mgr, ok := directory[e.Manager.ID]; ok && mgr.Contact != "" {
			p.ManagerContact = entry.Ptr(mgr.Contact)
		}
	}

	path, _ := n.Normalize(e.ManagerName(), hierarchy.Path{Division: e.Division})
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

func trackerCandidate(u tracker.User) diff.Candidate {
	return diff.Candidate{Raw: trackerRaw(u)}
}

func hrCandidate(e hrsys.Employee) diff.Candidate {
	c := diff.Candidate{
		Raw:         hrRaw(e),
		Division:    e.Division,
		Department:  e.Department,
		ManagerName: e.ManagerName(),
		HireDate:    e.HireDate,
	}
	if e.Manager != nil {
		c.ManagerID = e.Manager.ID
	}
	return c
}
