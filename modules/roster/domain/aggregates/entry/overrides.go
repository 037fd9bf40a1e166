package entry

// Field names the merge-controllable attributes of a roster entry.
type Field string

const (
	FieldName            Field = "name"
	FieldEmail           Field = "email"
	FieldTrackerID       Field = "tracker_id"
	FieldHRID            Field = "hr_id"
	FieldDivision        Field = "division"
	FieldDirection       Field = "direction"
	FieldUnit            Field = "unit"
	FieldTeam            Field = "team"
	FieldLocation        Field = "location"
	FieldPlanStart       Field = "plan_start"
	FieldControlManagers Field = "control_managers"
	FieldContact         Field = "contact"
	FieldManagerContact  Field = "manager_contact"
)

func KnownFields() []Field {
	return []Field{
		FieldName,
		FieldEmail,
		FieldTrackerID,
		FieldHRID,
		FieldDivision,
		FieldDirection,
		FieldUnit,
		FieldTeam,
		FieldLocation,
		FieldPlanStart,
		FieldControlManagers,
		FieldContact,
		FieldManagerContact,
	}
}

// Overrides records which fields were set by a human and must survive sync.
// One tagged boolean per field keeps "is this field protected" a typed
// question instead of a free-form map lookup.
type Overrides struct {
	Name            bool `json:"name,omitempty"`
	Email           bool `json:"email,omitempty"`
	TrackerID       bool `json:"tracker_id,omitempty"`
	HRID            bool `json:"hr_id,omitempty"`
	Division        bool `json:"division,omitempty"`
	Direction       bool `json:"direction,omitempty"`
	Unit            bool `json:"unit,omitempty"`
	Team            bool `json:"team,omitempty"`
	Location        bool `json:"location,omitempty"`
	PlanStart       bool `json:"plan_start,omitempty"`
	ControlManagers bool `json:"control_managers,omitempty"`
	Contact         bool `json:"contact,omitempty"`
	ManagerContact  bool `json:"manager_contact,omitempty"`
}

func (o Overrides) IsSet(f Field) bool {
	switch f {
	case FieldName:
		return o.Name
	case FieldEmail:
		return o.Email
	case FieldTrackerID:
		return o.TrackerID
	case FieldHRID:
		return o.HRID
	case FieldDivision:
		return o.Division
	case FieldDirection:
		return o.Direction
	case FieldUnit:
		return o.Unit
	case FieldTeam:
		return o.Team
	case FieldLocation:
		return o.Location
	case FieldPlanStart:
		return o.PlanStart
	case FieldControlManagers:
		return o.ControlManagers
	case FieldContact:
		return o.Contact
	case FieldManagerContact:
		return o.ManagerContact
	}
	return false
}

func (o Overrides) With(fields ...Field) Overrides {
	for _, f := range fields {
		o.set(f, true)
	}
	return o
}

func (o Overrides) Without(fields ...Field) Overrides {
	for _, f := range fields {
		o.set(f, false)
	}
	return o
}

func (o Overrides) Any() bool {
	for _, f := range KnownFields() {
		if o.IsSet(f) {
			return true
		}
	}
	return false
}

func (o *Overrides) set(f Field, v bool) {
	switch f {
	case FieldName:
		o.Name = v
	case FieldEmail:
		o.Email = v
	case FieldTrackerID:
		o.TrackerID = v
	case FieldHRID:
		o.HRID = v
	case FieldDivision:
		o.Division = v
	case FieldDirection:
		o.Direction = v
	case FieldUnit:
		o.Unit = v
	case FieldTeam:
		o.Team = v
	case FieldLocation:
		o.Location = v
	case FieldPlanStart:
		o.PlanStart = v
	case FieldControlManagers:
		o.ControlManagers = v
	case FieldContact:
		o.Contact = v
	case FieldManagerContact:
		o.ManagerContact = v
	}
}
