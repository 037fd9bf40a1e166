package identity_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/presence/modules/reconcile/domain/identity"
	"github.com/iota-uz/presence/modules/roster/domain/aggregates/entry"
)

var testTenant = uuid.MustParse("11111111-1111-1111-1111-111111111111")

func mkEntry(t *testing.T, name, email string, patch entry.Patch) entry.Entry {
	t.Helper()
	e := entry.New(testTenant, name, email)
	e, _ = entry.Merge(e, patch)
	return e
}

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Ivan Petrenko", "ivan petrenko"},
		{"  IVAN   PETRENKO  ", "ivan petrenko"},
		{"Pëtrenko Ïvan", "petrenko ivan"},
		{"José García", "jose garcia"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, identity.NormalizeName(tc.in), "in=%q", tc.in)
	}
}

func TestSwapLeadingTokens(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"ivan petrenko", "petrenko ivan"},
		{"petrenko ivan oleksandrovych", "ivan petrenko oleksandrovych"},
		{"madonna", "madonna"},
		{"", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, identity.SwapLeadingTokens(tc.in), "in=%q", tc.in)
	}
}

func TestResolve_ByStoredTrackerID(t *testing.T) {
	roster := []entry.Entry{
		mkEntry(t, "Ivan Petrenko", "ivan@co.com", entry.Patch{TrackerID: entry.Ptr(int64(77))}),
		mkEntry(t, "Olha Bondar", "olha@co.com", entry.Patch{TrackerID: entry.Ptr(int64(78))}),
	}

	got, ok := identity.Resolve(identity.RawRecord{
		Source:      identity.SourceTracker,
		ExternalID:  78,
		DisplayName: "Someone Else Entirely",
	}, roster)

	require.True(t, ok)
	require.Equal(t, "olha@co.com", got.Key())
}

func TestResolve_IDNamespacesAreSeparate(t *testing.T) {
	roster := []entry.Entry{
		mkEntry(t, "Ivan Petrenko", "ivan@co.com", entry.Patch{TrackerID: entry.Ptr(int64(77))}),
	}

	// HR id 77 must not match a tracker id 77.
	_, ok := identity.Resolve(identity.RawRecord{Source: identity.SourceHR, ExternalID: 77}, roster)
	require.False(t, ok)
}

func TestResolve_ByEmailCaseInsensitive(t *testing.T) {
	roster := []entry.Entry{
		mkEntry(t, "Ivan Petrenko", "ivan@co.com", entry.Patch{}),
	}

	got, ok := identity.Resolve(identity.RawRecord{
		Source: identity.SourceHR,
		Email:  "  IVAN@CO.COM ",
	}, roster)

	require.True(t, ok)
	require.Equal(t, "ivan@co.com", got.Key())
}

func TestResolve_ByNameTokenOrder(t *testing.T) {
	roster := []entry.Entry{
		mkEntry(t, "Ivan Petrenko", "", entry.Patch{}),
	}

	for _, name := range []string{"Ivan Petrenko", "Petrenko Ivan", "PETRENKO   IVAN"} {
		got, ok := identity.Resolve(identity.RawRecord{
			Source:      identity.SourceTracker,
			DisplayName: name,
		}, roster)
		require.True(t, ok, "name=%q", name)
		require.Equal(t, "Ivan Petrenko", got.Name())
	}
}

func TestResolve_AmbiguousNameIsNoMatch(t *testing.T) {
	roster := []entry.Entry{
		mkEntry(t, "Ivan Petrenko", "", entry.Patch{}),
		mkEntry(t, "Petrenko Ivan", "x@co.com", entry.Patch{}),
	}

	_, ok := identity.Resolve(identity.RawRecord{
		Source:      identity.SourceTracker,
		DisplayName: "Ivan Petrenko",
	}, roster)

	require.False(t, ok, "swapped-token collision must resolve to no match, not a guess")
}

func TestResolve_DiacriticsFold(t *testing.T) {
	roster := []entry.Entry{
		mkEntry(t, "José García", "", entry.Patch{}),
	}

	got, ok := identity.Resolve(identity.RawRecord{
		Source:      identity.SourceHR,
		DisplayName: "Garcia Jose",
	}, roster)

	require.True(t, ok)
	require.Equal(t, "José García", got.Name())
}

func TestResolve_MultiWordSurnameKeepsTrailingTokens(t *testing.T) {
	roster := []entry.Entry{
		mkEntry(t, "Anna van der Berg", "", entry.Patch{}),
	}

	// Only the two leading tokens swap, so "van Anna der Berg" matches but a
	// full reversal does not.
	_, ok := identity.Resolve(identity.RawRecord{
		Source:      identity.SourceHR,
		DisplayName: "Berg van der Anna",
	}, roster)
	require.False(t, ok)

	got, ok := identity.Resolve(identity.RawRecord{
		Source:      identity.SourceHR,
		DisplayName: "van Anna der Berg",
	}, roster)
	require.True(t, ok)
	require.Equal(t, "Anna van der Berg", got.Name())
}

func TestResolve_NoMatchForEmptyRecord(t *testing.T) {
	roster := []entry.Entry{mkEntry(t, "Ivan Petrenko", "ivan@co.com", entry.Patch{})}

	_, ok := identity.Resolve(identity.RawRecord{Source: identity.SourceTracker}, roster)
	require.False(t, ok)
	require.False(t, identity.RawRecord{}.Valid())
}

func TestResolve_IDMatchBeatsConflictingName(t *testing.T) {
	roster := []entry.Entry{
		mkEntry(t, "Ivan Petrenko", "ivan@co.com", entry.Patch{TrackerID: entry.Ptr(int64(1))}),
		mkEntry(t, "Olha Bondar", "olha@co.com", entry.Patch{TrackerID: entry.Ptr(int64(2))}),
	}

	// The stored id wins even when the display name points elsewhere.
	got, ok := identity.Resolve(identity.RawRecord{
		Source:      identity.SourceTracker,
		ExternalID:  2,
		DisplayName: "Ivan Petrenko",
	}, roster)

	require.True(t, ok)
	require.Equal(t, "olha@co.com", got.Key())
}
