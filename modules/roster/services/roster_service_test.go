package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/presence/modules/roster/domain/aggregates/entry"
	"github.com/iota-uz/presence/pkg/itf"
)

var testTenant = uuid.MustParse("11111111-1111-1111-1111-111111111111")

type mockRosterRepo struct {
	entries map[string]entry.Entry
	updated []string
	created []string
}

func newMockRosterRepo(entries ...entry.Entry) *mockRosterRepo {
	m := &mockRosterRepo{entries: map[string]entry.Entry{}}
	for _, e := range entries {
		m.entries[e.Key()] = e
	}
	return m
}

func (m *mockRosterRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(m.entries)), nil
}

func (m *mockRosterRepo) GetAll(ctx context.Context) ([]entry.Entry, error) {
	out := make([]entry.Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out, nil
}

func (m *mockRosterRepo) GetPaginated(ctx context.Context, params *entry.FindParams) ([]entry.Entry, error) {
	return m.GetAll(ctx)
}

func (m *mockRosterRepo) GetByKey(ctx context.Context, key string) (entry.Entry, error) {
	e, ok := m.entries[key]
	if !ok {
		return entry.Entry{}, entry.ErrNotFound
	}
	return e, nil
}

func (m *mockRosterRepo) Create(ctx context.Context, e entry.Entry) (entry.Entry, error) {
	if _, ok := m.entries[e.Key()]; ok {
		return entry.Entry{}, entry.ErrKeyTaken
	}
	m.entries[e.Key()] = e
	m.created = append(m.created, e.Key())
	return e, nil
}

func (m *mockRosterRepo) Update(ctx context.Context, e entry.Entry) error {
	if _, ok := m.entries[e.Key()]; !ok {
		return entry.ErrNotFound
	}
	m.entries[e.Key()] = e
	m.updated = append(m.updated, e.Key())
	return nil
}

type stubPublisher struct {
	events []interface{}
}

func (s *stubPublisher) Publish(args ...interface{})     { s.events = append(s.events, args...) }
func (s *stubPublisher) Subscribe(handler interface{})   {}
func (s *stubPublisher) Unsubscribe(handler interface{}) {}
func (s *stubPublisher) Clear()                          {}
func (s *stubPublisher) SubscribersCount() int           { return 0 }

func testCtx() context.Context {
	return itf.WithStubTx(context.Background())
}

func TestRosterService_AdminUpdateSetsOverrides(t *testing.T) {
	e := entry.New(testTenant, "Ivan Petrenko", "ivan@corp.example")
	repo := newMockRosterRepo(e)
	pub := &stubPublisher{}
	svc := NewRosterService(repo, pub)

	got, err := svc.AdminUpdate(testCtx(), e.Key(), entry.Patch{
		Division: entry.Ptr("IT"),
		Team:     entry.Ptr("Core Services"),
	})
	require.NoError(t, err)
	require.Equal(t, "IT", got.Division())
	require.True(t, got.Overrides().IsSet(entry.FieldDivision))
	require.True(t, got.Overrides().IsSet(entry.FieldTeam))
	require.False(t, got.Overrides().IsSet(entry.FieldName))
	require.Len(t, pub.events, 1)
}

func TestRosterService_AdminUpdateWritesThroughExistingOverride(t *testing.T) {
	e := entry.New(testTenant, "Ivan Petrenko", "ivan@corp.example")
	e, _ = entry.Merge(e, entry.Patch{Division: entry.Ptr("IT")})
	e = e.WithOverrides(e.Overrides().With(entry.FieldDivision))
	repo := newMockRosterRepo(e)
	svc := NewRosterService(repo, &stubPublisher{})

	got, err := svc.AdminUpdate(testCtx(), e.Key(), entry.Patch{Division: entry.Ptr("Operations")})
	require.NoError(t, err)
	require.Equal(t, "Operations", got.Division())
	require.True(t, got.Overrides().IsSet(entry.FieldDivision))
}

func TestRosterService_AdminUpdateNoChangeIsNoop(t *testing.T) {
	e := entry.New(testTenant, "Ivan Petrenko", "ivan@corp.example")
	repo := newMockRosterRepo(e)
	pub := &stubPublisher{}
	svc := NewRosterService(repo, pub)

	got, err := svc.AdminUpdate(testCtx(), e.Key(), entry.Patch{Name: entry.Ptr("Ivan Petrenko")})
	require.NoError(t, err)
	require.False(t, got.Overrides().Any())
	require.Empty(t, repo.updated)
	require.Empty(t, pub.events)
}

func TestRosterService_BulkAssignManager(t *testing.T) {
	plain := entry.New(testTenant, "Ivan Petrenko", "ivan@corp.example")

	overridden := entry.New(testTenant, "Olha Sydorenko", "olha@corp.example")
	overridden = overridden.WithOverrides(overridden.Overrides().With(entry.FieldControlManagers))

	already, _ := entry.Merge(
		entry.New(testTenant, "Taras Bondar", "taras@corp.example"),
		entry.Patch{ControlManagers: &[]int64{42}},
	)

	repo := newMockRosterRepo(plain, overridden, already)
	svc := NewRosterService(repo, &stubPublisher{})

	updated, skipped, err := svc.BulkAssignManager(
		testCtx(),
		[]string{plain.Key(), overridden.Key(), already.Key()},
		42,
		false,
	)
	require.NoError(t, err)
	require.Equal(t, 1, updated)
	require.Equal(t, 1, skipped, "overridden manager list must be skipped silently")

	got, err := repo.GetByKey(testCtx(), plain.Key())
	require.NoError(t, err)
	require.True(t, got.HasControlManager(42))

	untouched, err := repo.GetByKey(testCtx(), overridden.Key())
	require.NoError(t, err)
	require.False(t, untouched.HasControlManager(42))
	require.True(t, untouched.Overrides().IsSet(entry.FieldControlManagers), "override set must survive bulk ops")
}

func TestRosterService_BulkAssignManagerForceWritesThroughOverride(t *testing.T) {
	overridden := entry.New(testTenant, "Olha Sydorenko", "olha@corp.example")
	overridden = overridden.WithOverrides(overridden.Overrides().With(entry.FieldControlManagers))

	repo := newMockRosterRepo(overridden)
	svc := NewRosterService(repo, &stubPublisher{})

	updated, skipped, err := svc.BulkAssignManager(testCtx(), []string{overridden.Key()}, 42, true)
	require.NoError(t, err)
	require.Equal(t, 1, updated)
	require.Zero(t, skipped)

	got, err := repo.GetByKey(testCtx(), overridden.Key())
	require.NoError(t, err)
	require.True(t, got.HasControlManager(42))
	require.True(t, got.Overrides().IsSet(entry.FieldControlManagers), "force mode must not clear the override flag")
}

func TestRosterService_BulkRemoveManager(t *testing.T) {
	withManager, _ := entry.Merge(
		entry.New(testTenant, "Ivan Petrenko", "ivan@corp.example"),
		entry.Patch{ControlManagers: &[]int64{42, 7}},
	)
	repo := newMockRosterRepo(withManager)
	svc := NewRosterService(repo, &stubPublisher{})

	updated, skipped, err := svc.BulkRemoveManager(testCtx(), []string{withManager.Key()}, 42, false)
	require.NoError(t, err)
	require.Equal(t, 1, updated)
	require.Zero(t, skipped)

	got, err := repo.GetByKey(testCtx(), withManager.Key())
	require.NoError(t, err)
	require.False(t, got.HasControlManager(42))
	require.True(t, got.HasControlManager(7))
}

func TestRosterService_SetArchivedPublishesArchivedEvent(t *testing.T) {
	e := entry.New(testTenant, "Ivan Petrenko", "ivan@corp.example")
	repo := newMockRosterRepo(e)
	pub := &stubPublisher{}
	svc := NewRosterService(repo, pub)

	got, err := svc.SetArchived(testCtx(), e.Key(), true)
	require.NoError(t, err)
	require.True(t, got.Archived())
	require.Len(t, pub.events, 1)
	require.IsType(t, entry.ArchivedEvent{}, pub.events[0])
}

func TestRosterService_ResetOverrides(t *testing.T) {
	e := entry.New(testTenant, "Ivan Petrenko", "ivan@corp.example")
	e = e.WithOverrides(e.Overrides().With(entry.FieldDivision, entry.FieldTeam))
	repo := newMockRosterRepo(e)
	svc := NewRosterService(repo, &stubPublisher{})

	got, err := svc.ResetOverrides(testCtx(), e.Key())
	require.NoError(t, err)
	require.False(t, got.Overrides().Any())
}

func TestRosterService_CreateRejectsEmptyKey(t *testing.T) {
	svc := NewRosterService(newMockRosterRepo(), &stubPublisher{})

	_, err := svc.Create(testCtx(), entry.New(testTenant, "", ""))
	require.Error(t, err)
}
