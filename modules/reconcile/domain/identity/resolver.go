package identity

import (
	"strings"

	"github.com/iota-uz/presence/modules/roster/domain/aggregates/entry"
)

// Source tags which upstream a raw record came from; it picks the numeric
// identifier the resolver matches against.
type Source string

const (
	SourceTracker Source = "tracker"
	SourceHR      Source = "hr"
)

// RawRecord is the resolver's view of an upstream record.
type RawRecord struct {
	Source      Source
	ExternalID  int64
	Email       string
	DisplayName string
}

// Valid reports whether the record carries enough identity to be considered.
// Records with neither an identifier nor a name are dropped by callers.
func (r RawRecord) Valid() bool {
	return r.ExternalID != 0 || strings.TrimSpace(r.DisplayName) != "" || strings.TrimSpace(r.Email) != ""
}

// Resolve matches a raw upstream record to at most one roster entry.
//
// Cascade, strict to loose, stopping at the first success:
//  1. the source-specific numeric id already stored on an entry,
//  2. normalized email, exact,
//  3. normalized name, compared against each entry's name and against the
//     name with its two leading tokens swapped; two or more candidates at
//     this stage mean ambiguity and resolve to "no match", never a guess.
//
// Read-only; "no match" is an expected outcome, not an error.
func Resolve(raw RawRecord, roster []entry.Entry) (entry.Entry, bool) {
	if raw.ExternalID != 0 {
		for _, e := range roster {
			if externalID(raw.Source, e) == raw.ExternalID {
				return e, true
			}
		}
	}

	if email := NormalizeEmail(raw.Email); email != "" {
		for _, e := range roster {
			if e.Email() == email {
				return e, true
			}
		}
	}

	name := NormalizeName(raw.DisplayName)
	if name == "" {
		return entry.Entry{}, false
	}
	swapped := SwapLeadingTokens(name)

	var (
		match entry.Entry
		hits  int
	)
	for _, e := range roster {
		entryName := NormalizeName(e.Name())
		if entryName == "" {
			continue
		}
		if entryName == name || entryName == swapped {
			match = e
			hits++
			if hits > 1 {
				return entry.Entry{}, false
			}
		}
	}
	if hits == 1 {
		return match, true
	}
	return entry.Entry{}, false
}

func externalID(source Source, e entry.Entry) int64 {
	switch source {
	case SourceTracker:
		return e.TrackerID()
	case SourceHR:
		return e.HRID()
	}
	return 0
}
