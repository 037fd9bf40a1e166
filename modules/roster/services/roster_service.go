package services

import (
	"context"

	"github.com/pkg/errors"

	"github.com/iota-uz/presence/modules/roster/domain/aggregates/entry"
	"github.com/iota-uz/presence/pkg/composables"
	"github.com/iota-uz/presence/pkg/eventbus"
)

type RosterService struct {
	repo      entry.Repository
	publisher eventbus.EventBus
}

func NewRosterService(repo entry.Repository, publisher eventbus.EventBus) *RosterService {
	return &RosterService{
		repo:      repo,
		publisher: publisher,
	}
}

func (s *RosterService) Count(ctx context.Context) (int64, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (int64, error) {
		return s.repo.Count(txCtx)
	})
}

func (s *RosterService) GetAll(ctx context.Context) ([]entry.Entry, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]entry.Entry, error) {
		return s.repo.GetAll(txCtx)
	})
}

func (s *RosterService) GetPaginated(ctx context.Context, params *entry.FindParams) ([]entry.Entry, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]entry.Entry, error) {
		return s.repo.GetPaginated(txCtx, params)
	})
}

func (s *RosterService) GetByKey(ctx context.Context, key string) (entry.Entry, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (entry.Entry, error) {
		return s.repo.GetByKey(txCtx, key)
	})
}

func (s *RosterService) Create(ctx context.Context, e entry.Entry) (entry.Entry, error) {
	if e.Key() == "" {
		return entry.Entry{}, errors.New("roster entry must have a name or email")
	}
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (entry.Entry, error) {
		created, err := s.repo.Create(txCtx, e)
		if err != nil {
			return entry.Entry{}, err
		}
		s.publisher.Publish(entry.CreatedEvent{Result: created})
		return created, nil
	})
}

// AdminUpdate applies an operator's edit. Edits write through overrides,
// and every field an edit actually changed becomes overridden, so the next
// sync won't undo it.
func (s *RosterService) AdminUpdate(ctx context.Context, key string, patch entry.Patch) (entry.Entry, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (entry.Entry, error) {
		e, err := s.repo.GetByKey(txCtx, key)
		if err != nil {
			return entry.Entry{}, err
		}
		merged, changed := entry.Merge(e, patch, entry.IgnoreOverrides())
		if len(changed) == 0 {
			return e, nil
		}
		merged = merged.WithOverrides(merged.Overrides().With(changed...))
		if err := s.repo.Update(txCtx, merged); err != nil {
			return entry.Entry{}, err
		}
		s.publisher.Publish(entry.UpdatedEvent{Result: merged})
		return merged, nil
	})
}

// BulkAssignManager adds a control manager to every listed entry. Entries
// whose manager list is overridden are skipped silently and counted,
// unless force is set.
func (s *RosterService) BulkAssignManager(ctx context.Context, keys []string, managerID int64, force bool) (updated, skipped int, err error) {
	err = composables.InTenantTx(ctx, func(txCtx context.Context) error {
		for _, key := range keys {
			e, err := s.repo.GetByKey(txCtx, key)
			if err != nil {
				return errors.Wrapf(err, "bulk assign: entry %q", key)
			}
			if e.HasControlManager(managerID) {
				continue
			}
			if !force && e.Overrides().IsSet(entry.FieldControlManagers) {
				skipped++
				continue
			}
			managers := append(e.ControlManagers(), managerID)
			merged, changed := entry.Merge(e, entry.Patch{ControlManagers: &managers}, bulkOpts(force)...)
			if len(changed) == 0 {
				continue
			}
			if err := s.repo.Update(txCtx, merged); err != nil {
				return errors.Wrapf(err, "bulk assign: entry %q", key)
			}
			s.publisher.Publish(entry.UpdatedEvent{Result: merged})
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return updated, skipped, nil
}

// BulkRemoveManager is the inverse of BulkAssignManager, with the same
// override semantics.
func (s *RosterService) BulkRemoveManager(ctx context.Context, keys []string, managerID int64, force bool) (updated, skipped int, err error) {
	err = composables.InTenantTx(ctx, func(txCtx context.Context) error {
		for _, key := range keys {
			e, err := s.repo.GetByKey(txCtx, key)
			if err != nil {
				return errors.Wrapf(err, "bulk remove: entry %q", key)
			}
			if !e.HasControlManager(managerID) {
				continue
			}
			if !force && e.Overrides().IsSet(entry.FieldControlManagers) {
				skipped++
				continue
			}
			managers := make([]int64, 0, len(e.ControlManagers()))
			for _, id := range e.ControlManagers() {
				if id != managerID {
					managers = append(managers, id)
				}
			}
			merged, changed := entry.Merge(e, entry.Patch{ControlManagers: &managers}, bulkOpts(force)...)
			if len(changed) == 0 {
				continue
			}
			if err := s.repo.Update(txCtx, merged); err != nil {
				return errors.Wrapf(err, "bulk remove: entry %q", key)
			}
			s.publisher.Publish(entry.UpdatedEvent{Result: merged})
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return updated, skipped, nil
}

func bulkOpts(force bool) []entry.MergeOption {
	if force {
		return []entry.MergeOption{entry.IgnoreOverrides()}
	}
	return nil
}

func (s *RosterService) SetArchived(ctx context.Context, key string, archived bool) (entry.Entry, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (entry.Entry, error) {
		e, err := s.repo.GetByKey(txCtx, key)
		if err != nil {
			return entry.Entry{}, err
		}
		if e.Archived() == archived {
			return e, nil
		}
		updated := e.WithArchived(archived)
		if err := s.repo.Update(txCtx, updated); err != nil {
			return entry.Entry{}, err
		}
		if archived {
			s.publisher.Publish(entry.ArchivedEvent{Result: updated})
		} else {
			s.publisher.Publish(entry.UpdatedEvent{Result: updated})
		}
		return updated, nil
	})
}

func (s *RosterService) SetIgnored(ctx context.Context, key string, ignored bool) (entry.Entry, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (entry.Entry, error) {
		e, err := s.repo.GetByKey(txCtx, key)
		if err != nil {
			return entry.Entry{}, err
		}
		if e.Ignored() == ignored {
			return e, nil
		}
		updated := e.WithIgnored(ignored)
		if err := s.repo.Update(txCtx, updated); err != nil {
			return entry.Entry{}, err
		}
		s.publisher.Publish(entry.UpdatedEvent{Result: updated})
		return updated, nil
	})
}

// ResetOverrides clears the whole override set, handing every field back
// to sync.
func (s *RosterService) ResetOverrides(ctx context.Context, key string) (entry.Entry, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (entry.Entry, error) {
		e, err := s.repo.GetByKey(txCtx, key)
		if err != nil {
			return entry.Entry{}, err
		}
		if !e.Overrides().Any() {
			return e, nil
		}
		updated := e.WithOverrides(entry.Overrides{})
		if err := s.repo.Update(txCtx, updated); err != nil {
			return entry.Entry{}, err
		}
		s.publisher.Publish(entry.UpdatedEvent{Result: updated})
		return updated, nil
	})
}
