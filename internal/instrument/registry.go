package instrument

// registry.go — loads the full instrument registry from an instruments/
// directory tree. Retired instruments live under a retired/ subtree and are
// excluded from the build.

import (
	"path/filepath"
	"strings"

	"fleetdash/internal/ledger"
)

// Registry is the normalized instrument registry of one build.
type Registry struct {
	// Instruments in source-path order, one per unique ID.
	Instruments []*Instrument
	// LoadErrors accumulated while reading the tree; the build continues
	// with the valid subset.
	LoadErrors []*ledger.LoadError

	byID map[string]*Instrument
}

// Get returns the instrument with the given id, or nil.
func (r *Registry) Get(id string) *Instrument {
	return r.byID[id]
}

// IDs returns the registry's instrument ids in source-path order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.Instruments))
	for _, inst := range r.Instruments {
		ids = append(ids, inst.ID)
	}
	return ids
}

// LoadRegistry scans instrumentsDir, normalizes every YAML mapping found
// outside retired/ subtrees, and returns the registry. An ID collision is
// disambiguated deterministically by appending the slug of the colliding
// file's stem, so reruns over the same tree always assign the same ids and
// no record is ever silently overwritten. In strict mode, records whose
// identity does not normalize are excluded and reported as load errors.
func LoadRegistry(instrumentsDir string, opts Options) *Registry {
	reg := &Registry{byID: make(map[string]*Instrument)}

	for _, path := range ledger.Scan(instrumentsDir) {
		if isRetired(instrumentsDir, path) {
			continue
		}
		payload, lerr := ledger.LoadMapping(path)
		if lerr != nil {
			reg.LoadErrors = append(reg.LoadErrors, lerr)
			continue
		}
		inst, err := Normalize(payload, path, opts)
		if err != nil {
			reg.LoadErrors = append(reg.LoadErrors, &ledger.LoadError{Path: path, Message: err.Error()})
			continue
		}
		if _, taken := reg.byID[inst.ID]; taken {
			inst.ID = inst.ID + "-" + Slugify(fileStem(path))
		}
		if _, taken := reg.byID[inst.ID]; taken {
			// Suffixed id still collides (identical stems). First wins;
			// the validator reports the duplicate either way.
			reg.LoadErrors = append(reg.LoadErrors, &ledger.LoadError{
				Path:    path,
				Message: "instrument id " + inst.ID + " already registered",
			})
			continue
		}
		reg.byID[inst.ID] = inst
		reg.Instruments = append(reg.Instruments, inst)
	}
	return reg
}

// isRetired reports whether path sits under a retired/ segment relative to
// the registry root.
func isRetired(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part == "retired" {
			return true
		}
	}
	return false
}
