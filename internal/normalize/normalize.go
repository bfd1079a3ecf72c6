// Package normalize reshapes raw UniProt and Ensembl lookup responses into
// flat records keyed by identifier.
//
// Both normalizers are pure: they never touch the network and never modify
// their input, so normalizing the same payload twice gives equal results.
// A single malformed entry aborts the whole batch.
package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"seqinfo/internal/accession"
)

// NoFunction is reported when a UniProt entry has no FUNCTION comment.
const NoFunction = "NA"

var ErrMalformedResponse = errors.New("malformed response")

// MalformedResponseError names the JSON path that was missing or had an
// unexpected type.
type MalformedResponseError struct {
	Field string
	Err   error
}

func (e *MalformedResponseError) Error() string {
	field := e.Field
	if field == "" {
		field = "<root>"
	}
	if e.Err != nil {
		return fmt.Sprintf("malformed response: %s: %v", field, e.Err)
	}
	return fmt.Sprintf("malformed response: missing %s", field)
}

func (e *MalformedResponseError) Is(target error) bool { return target == ErrMalformedResponse }

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Records holds the normalized output of one batch. Exactly one of the maps
// is populated, depending on Family.
type Records struct {
	Family   accession.Family
	Proteins map[string]ProteinRecord
	Features map[string]*FeatureRecord
}

// Normalize dispatches raw to the normalizer of the given family.
func Normalize(raw []byte, f accession.Family) (Records, error) {
	return NormalizeFor(raw, f, nil)
}

// NormalizeFor is Normalize for a known request. Ensembl identifiers in ids
// that the response does not mention are reported as nil records. UniProt
// omits unknown accessions from its results, so ids only affect Ensembl.
func NormalizeFor(raw []byte, f accession.Family, ids []string) (Records, error) {
	switch f {
	case accession.FamilyUniProt:
		p, err := UniProt(raw)
		if err != nil {
			return Records{}, err
		}
		return Records{Family: f, Proteins: p}, nil
	case accession.FamilyEnsembl:
		g, err := EnsemblFor(raw, ids)
		if err != nil {
			return Records{}, err
		}
		return Records{Family: f, Features: g}, nil
	}
	return Records{}, fmt.Errorf("normalize: unknown family %d", int(f))
}

// Len returns the number of identifiers in the batch.
func (r Records) Len() int {
	if r.Family == accession.FamilyEnsembl {
		return len(r.Features)
	}
	return len(r.Proteins)
}

// IDs returns the identifiers in sorted order.
func (r Records) IDs() []string {
	ids := make([]string, 0, r.Len())
	if r.Family == accession.FamilyEnsembl {
		for id := range r.Features {
			ids = append(ids, id)
		}
	} else {
		for id := range r.Proteins {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Get returns the record for id. A known Ensembl identifier without
// annotation yields (nil, true).
func (r Records) Get(id string) (any, bool) {
	if r.Family == accession.FamilyEnsembl {
		rec, ok := r.Features[id]
		if !ok {
			return nil, false
		}
		if rec == nil {
			return nil, true
		}
		return rec, true
	}
	rec, ok := r.Proteins[id]
	if !ok {
		return nil, false
	}
	return rec, true
}

// MarshalJSON encodes the populated map as a JSON object keyed by identifier.
func (r Records) MarshalJSON() ([]byte, error) {
	if r.Family == accession.FamilyEnsembl {
		if r.Features == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(r.Features)
	}
	if r.Proteins == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r.Proteins)
}

type object map[string]json.RawMessage

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// require returns obj[key] or a MalformedResponseError naming path.key.
func (obj object) require(path, key string) (json.RawMessage, error) {
	v, ok := obj[key]
	if !ok {
		return nil, &MalformedResponseError{Field: join(path, key)}
	}
	return v, nil
}

// optional reports whether key is present with a non-null value.
func (obj object) optional(key string) (json.RawMessage, bool) {
	v, ok := obj[key]
	if !ok || isNull(v) {
		return nil, false
	}
	return v, true
}

func (obj object) requireString(path, key string) (string, error) {
	v, err := obj.require(path, key)
	if err != nil {
		return "", err
	}
	return decodeAt[string](v, join(path, key))
}

func (obj object) requireObject(path, key string) (object, error) {
	v, err := obj.require(path, key)
	if err != nil {
		return nil, err
	}
	return decodeAt[object](v, join(path, key))
}

func decodeAt[T any](raw json.RawMessage, path string) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, &MalformedResponseError{Field: path, Err: err}
	}
	return v, nil
}
