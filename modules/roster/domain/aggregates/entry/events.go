package entry

// CreatedEvent is published after a new roster entry is persisted.
type CreatedEvent struct {
	Result Entry
}

// UpdatedEvent is published after an admin edit is persisted.
type UpdatedEvent struct {
	Result Entry
}

// MergedEvent is published after a sync merge changed at least one field.
type MergedEvent struct {
	Result  Entry
	Changed []Field
}

// ArchivedEvent is published when sync archives an entry gone from upstream.
type ArchivedEvent struct {
	Result Entry
}
