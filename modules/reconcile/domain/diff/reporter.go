package diff

import (
	"sort"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/iota-uz/presence/modules/reconcile/domain/identity"
	"github.com/iota-uz/presence/modules/roster/domain/aggregates/entry"
)

const (
	maxSuggestions  = 3
	maxEditDistance = 3
)

// Candidate is one upstream row with the raw fields an operator needs to
// decide whether it belongs on the roster.
type Candidate struct {
	Raw         identity.RawRecord
	Division    string
	Department  string
	ManagerID   int64
	ManagerName string
	HireDate    string
}

// Snapshot is the full set of rows one upstream returned for a single run.
type Snapshot struct {
	FetchedAt time.Time
	Records   []Candidate
}

// Row is an unmatched upstream candidate annotated with near-match roster
// names, so an operator can tell a genuinely new person from a misspelling.
type Row struct {
	Candidate   Candidate
	Suggestions []string
}

// Result partitions the compared population into the four reconciliation
// sets: roster entries each source failed to account for, and upstream rows
// no roster entry claims. Each side is computed independently from its own
// snapshot, so one upstream being down never hides what the other proves;
// a failed fetch sets the error string and leaves that source's sets empty,
// since a missing snapshot cannot prove absence.
type Result struct {
	Matched            []string
	TrackerOnly        []Row
	HROnly             []Row
	MissingFromTracker []entry.Entry
	MissingFromHR      []entry.Entry
	TrackerError       string
	HRError            string
}

// Compute builds the reconciliation report. It never fails: upstream fetch
// errors degrade the result instead of aborting it. Ignored roster entries
// still absorb their upstream rows but are reported in no set.
func Compute(trackerSnap *Snapshot, trackerErr error, hrSnap *Snapshot, hrErr error, roster []entry.Entry) Result {
	var res Result
	if trackerErr != nil {
		res.TrackerError = trackerErr.Error()
	}
	if hrErr != nil {
		res.HRError = hrErr.Error()
	}

	names := make([]string, 0, len(roster))
	for _, e := range roster {
		if !e.Ignored() {
			names = append(names, e.Name())
		}
	}

	match := func(snap *Snapshot) ([]Row, map[string]struct{}) {
		seen := make(map[string]struct{})
		var only []Row
		for _, c := range snap.Records {
			if !c.Raw.Valid() {
				continue
			}
			e, ok := identity.Resolve(c.Raw, roster)
			if !ok {
				only = append(only, Row{Candidate: c, Suggestions: suggest(c.Raw.DisplayName, names)})
				continue
			}
			if !e.Ignored() {
				seen[e.Key()] = struct{}{}
			}
		}
		return only, seen
	}

	trackerOK := trackerErr == nil && trackerSnap != nil
	hrOK := hrErr == nil && hrSnap != nil

	var trackerSeen, hrSeen map[string]struct{}
	if trackerOK {
		res.TrackerOnly, trackerSeen = match(trackerSnap)
	}
	if hrOK {
		res.HROnly, hrSeen = match(hrSnap)
	}

	for _, e := range roster {
		if e.Ignored() {
			continue
		}
		_, inTracker := trackerSeen[e.Key()]
		_, inHR := hrSeen[e.Key()]
		if trackerOK && !inTracker {
			res.MissingFromTracker = append(res.MissingFromTracker, e)
		}
		if hrOK && !inHR {
			res.MissingFromHR = append(res.MissingFromHR, e)
		}
		if inTracker || inHR {
			res.Matched = append(res.Matched, e.Key())
		}
	}
	sort.Strings(res.Matched)
	return res
}

// suggest ranks roster names by edit distance against the unmatched name.
// Subsequence matching is too strict for the misspellings this catches
// (transliteration drift, a swapped letter), so plain Levenshtein it is.
func suggest(name string, rosterNames []string) []string {
	norm := identity.NormalizeName(name)
	if norm == "" {
		return nil
	}
	type ranked struct {
		name string
		dist int
	}
	var hits []ranked
	for _, rn := range rosterNames {
		d := fuzzy.LevenshteinDistance(norm, identity.NormalizeName(rn))
		if d <= maxEditDistance {
			hits = append(hits, ranked{name: rn, dist: d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })
	if len(hits) > maxSuggestions {
		hits = hits[:maxSuggestions]
	}
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.name)
	}
	return out
}
