package entry

import "strings"

// Patch carries freshly fetched field values. Nil pointers mean "no value
// fetched for this field"; pointers to zero values are real writes.
type Patch struct {
	Name            *string
	Email           *string
	TrackerID       *int64
	HRID            *int64
	Division        *string
	Direction       *string
	Unit            *string
	Team            *string
	Location        *string
	PlanStart       *string
	ControlManagers *[]int64
	Contact         *string
	ManagerContact  *string
}

func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.TrackerID == nil && p.HRID == nil &&
		p.Division == nil && p.Direction == nil && p.Unit == nil && p.Team == nil &&
		p.Location == nil && p.PlanStart == nil && p.ControlManagers == nil &&
		p.Contact == nil && p.ManagerContact == nil
}

// Fields lists the fields a patch would touch, in KnownFields order.
func (p Patch) Fields() []Field {
	out := make([]Field, 0, 4)
	for _, f := range KnownFields() {
		switch f {
		case FieldName:
			if p.Name != nil {
				out = append(out, f)
			}
		case FieldEmail:
			if p.Email != nil {
				out = append(out, f)
			}
		case FieldTrackerID:
			if p.TrackerID != nil {
				out = append(out, f)
			}
		case FieldHRID:
			if p.HRID != nil {
				out = append(out, f)
			}
		case FieldDivision:
			if p.Division != nil {
				out = append(out, f)
			}
		case FieldDirection:
			if p.Direction != nil {
				out = append(out, f)
			}
		case FieldUnit:
			if p.Unit != nil {
				out = append(out, f)
			}
		case FieldTeam:
			if p.Team != nil {
				out = append(out, f)
			}
		case FieldLocation:
			if p.Location != nil {
				out = append(out, f)
			}
		case FieldPlanStart:
			if p.PlanStart != nil {
				out = append(out, f)
			}
		case FieldControlManagers:
			if p.ControlManagers != nil {
				out = append(out, f)
			}
		case FieldContact:
			if p.Contact != nil {
				out = append(out, f)
			}
		case FieldManagerContact:
			if p.ManagerContact != nil {
				out = append(out, f)
			}
		}
	}
	return out
}

type mergeConfig struct {
	ignoreOverrides bool
}

type MergeOption func(*mergeConfig)

// IgnoreOverrides forces writes even against overridden fields. Admin-only
// escape hatch; the override set itself is still left untouched.
func IgnoreOverrides() MergeOption {
	return func(c *mergeConfig) { c.ignoreOverrides = true }
}

// Merge writes patch values into a copy of the entry, honoring the override
// set, and returns the updated entry plus the fields actually changed.
// Overridden fields are skipped silently. The override set is never mutated.
// Merging the same patch twice reports no changes the second time.
func Merge(e Entry, p Patch, opts ...MergeOption) (Entry, []Field) {
	cfg := mergeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	changed := make([]Field, 0, 4)
	write := func(f Field, unset bool, apply func()) {
		if !unset && !cfg.ignoreOverrides && e.overrides.IsSet(f) {
			return
		}
		apply()
		changed = append(changed, f)
	}

	if p.Name != nil {
		v := strings.TrimSpace(*p.Name)
		if v != e.name {
			write(FieldName, e.name == "", func() { e.name = v })
		}
	}
	if p.Email != nil {
		v := strings.ToLower(strings.TrimSpace(*p.Email))
		if v != e.email {
			write(FieldEmail, e.email == "", func() { e.email = v })
		}
	}
	if p.TrackerID != nil && *p.TrackerID != e.trackerID {
		v := *p.TrackerID
		write(FieldTrackerID, e.trackerID == 0, func() { e.trackerID = v })
	}
	if p.HRID != nil && *p.HRID != e.hrID {
		v := *p.HRID
		write(FieldHRID, e.hrID == 0, func() { e.hrID = v })
	}
	if p.Division != nil && *p.Division != e.division {
		v := *p.Division
		write(FieldDivision, e.division == "", func() { e.division = v })
	}
	if p.Direction != nil && *p.Direction != e.direction {
		v := *p.Direction
		write(FieldDirection, e.direction == "", func() { e.direction = v })
	}
	if p.Unit != nil && *p.Unit != e.unit {
		v := *p.Unit
		write(FieldUnit, e.unit == "", func() { e.unit = v })
	}
	if p.Team != nil && *p.Team != e.team {
		v := *p.Team
		write(FieldTeam, e.team == "", func() { e.team = v })
	}
	if p.Location != nil && *p.Location != e.location {
		v := *p.Location
		write(FieldLocation, e.location == "", func() { e.location = v })
	}
	if p.PlanStart != nil && *p.PlanStart != e.planStart {
		v := *p.PlanStart
		write(FieldPlanStart, e.planStart == "", func() { e.planStart = v })
	}
	if p.ControlManagers != nil && !equalManagers(*p.ControlManagers, e.controlManagers) {
		v := make([]int64, len(*p.ControlManagers))
		copy(v, *p.ControlManagers)
		write(FieldControlManagers, len(e.controlManagers) == 0, func() { e.controlManagers = v })
	}
	if p.Contact != nil && *p.Contact != e.contact {
		v := *p.Contact
		write(FieldContact, e.contact == "", func() { e.contact = v })
	}
	if p.ManagerContact != nil && *p.ManagerContact != e.managerContact {
		v := *p.ManagerContact
		write(FieldManagerContact, e.managerContact == "", func() { e.managerContact = v })
	}

	return e, changed
}

func equalManagers(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Ptr is a convenience for building patches.
func Ptr[T any](v T) *T { return &v }
