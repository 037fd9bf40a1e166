package hierarchy

import (
	_ "embed"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/iota-uz/presence/modules/reconcile/domain/identity"
)

//go:embed lookup.toml
var lookupTOML []byte

// Path is a canonical four-level organizational placement.
type Path struct {
	Division  string
	Direction string
	Unit      string
	Team      string
}

type lookupFile struct {
	Divisions map[string]string `toml:"divisions"`
	Managers  []managerEntry    `toml:"managers"`
}

type managerEntry struct {
	Name      string `toml:"name"`
	Division  string `toml:"division"`
	Direction string `toml:"direction"`
	Unit      string `toml:"unit"`
	Team      string `toml:"team"`
}

// Normalizer resolves manager names and raw division labels into the
// canonical taxonomy. Lookups are case- and diacritic-insensitive and
// tolerate the usual surname-first inversions.
type Normalizer struct {
	managers  map[string]Path
	divisions map[string]string
}

func NewNormalizer() (*Normalizer, error) {
	var f lookupFile
	if err := toml.Unmarshal(lookupTOML, &f); err != nil {
		return nil, errors.Wrap(err, "failed to parse hierarchy lookup table")
	}
	n := &Normalizer{
		managers:  make(map[string]Path, len(f.Managers)*2),
		divisions: make(map[string]string, len(f.Divisions)),
	}
	for _, m := range f.Managers {
		p := Path{
			Division:  m.Division,
			Direction: m.Direction,
			Unit:      m.Unit,
			Team:      m.Team,
		}
		key := identity.NormalizeName(m.Name)
		n.managers[key] = p
		if swapped := identity.SwapLeadingTokens(key); swapped != key {
			n.managers[swapped] = p
		}
	}
	for raw, canonical := range f.Divisions {
		n.divisions[identity.NormalizeName(raw)] = canonical
	}
	return n, nil
}

// ByManager returns the canonical path for a manager name. The second
// return is false when the manager is unknown.
func (n *Normalizer) ByManager(name string) (Path, bool) {
	key := identity.NormalizeName(name)
	if key == "" {
		return Path{}, false
	}
	if p, ok := n.managers[key]; ok {
		return p, true
	}
	if p, ok := n.managers[identity.SwapLeadingTokens(key)]; ok {
		return p, true
	}
	return Path{}, false
}

// Division maps a raw division label onto the canonical vocabulary.
// Unknown labels come back trimmed but otherwise unchanged, with ok=false.
func (n *Normalizer) Division(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if canonical, ok := n.divisions[identity.NormalizeName(trimmed)]; ok {
		return canonical, true
	}
	return trimmed, false
}

// Normalize rewrites the four hierarchy levels of the given placement.
// When the manager is known the full canonical path wins; otherwise only
// the division label is normalized. The second return reports whether
// anything changed.
func (n *Normalizer) Normalize(managerName string, current Path) (Path, bool) {
	if p, ok := n.ByManager(managerName); ok {
		return p, p != current
	}
	division, ok := n.Division(current.Division)
	if !ok || division == current.Division {
		return current, false
	}
	out := current
	out.Division = division
	return out, true
}
