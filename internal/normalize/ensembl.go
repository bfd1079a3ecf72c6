package normalize

import (
	"encoding/json"
	"fmt"
)

// FeatureRecord is the normalized form of one Ensembl /lookup/id annotation.
type FeatureRecord struct {
	Species      string  `json:"species"`
	ObjectType   string  `json:"object_type"`
	Biotype      string  `json:"biotype"`
	AssemblyName string  `json:"assembly_name"`
	Strand       int     `json:"strand"`
	Coordinates  string  `json:"coordinates"`
	DisplayName  *string `json:"display_name,omitempty"`
	Description  *string `json:"description,omitempty"`
}

// Ensembl normalizes a POST /lookup/id response. Every identifier in the
// response becomes a key; identifiers Ensembl could not annotate map to nil.
func Ensembl(raw []byte) (map[string]*FeatureRecord, error) {
	out := make(map[string]*FeatureRecord)
	if isNull(raw) {
		return out, nil
	}
	env, err := decodeAt[object](raw, "")
	if err != nil {
		return nil, err
	}
	for id, ann := range env {
		rec, err := featureRecord(ann, id)
		if err != nil {
			return nil, err
		}
		out[id] = rec
	}
	return out, nil
}

// EnsemblFor normalizes raw like Ensembl and then adds a nil entry for every
// requested identifier the response left out.
func EnsemblFor(raw []byte, ids []string) (map[string]*FeatureRecord, error) {
	out, err := Ensembl(raw)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			out[id] = nil
		}
	}
	return out, nil
}

func featureRecord(raw json.RawMessage, path string) (*FeatureRecord, error) {
	if isNull(raw) {
		return nil, nil
	}
	ann, err := decodeAt[object](raw, path)
	if err != nil {
		return nil, err
	}
	if len(ann) == 0 {
		return nil, nil
	}

	region, err := ann.require(path, "seq_region_name")
	if err != nil {
		return nil, err
	}
	start, err := ann.require(path, "start")
	if err != nil {
		return nil, err
	}
	end, err := ann.require(path, "end")
	if err != nil {
		return nil, err
	}
	coords := make([]string, 3)
	for i, part := range []struct {
		key string
		raw json.RawMessage
	}{{"seq_region_name", region}, {"start", start}, {"end", end}} {
		if coords[i], err = scalarText(part.raw, join(path, part.key)); err != nil {
			return nil, err
		}
	}

	rec := &FeatureRecord{Coordinates: fmt.Sprintf("%s:%s-%s", coords[0], coords[1], coords[2])}
	for _, f := range []struct {
		key string
		dst *string
	}{
		{"species", &rec.Species},
		{"object_type", &rec.ObjectType},
		{"biotype", &rec.Biotype},
		{"assembly_name", &rec.AssemblyName},
	} {
		if *f.dst, err = ann.requireString(path, f.key); err != nil {
			return nil, err
		}
	}
	strand, err := ann.require(path, "strand")
	if err != nil {
		return nil, err
	}
	if rec.Strand, err = decodeAt[int](strand, join(path, "strand")); err != nil {
		return nil, err
	}

	if v, ok := ann.optional("display_name"); ok {
		s, err := decodeAt[string](v, join(path, "display_name"))
		if err != nil {
			return nil, err
		}
		rec.DisplayName = &s
	}
	if v, ok := ann.optional("description"); ok {
		s, err := decodeAt[string](v, join(path, "description"))
		if err != nil {
			return nil, err
		}
		rec.Description = &s
	}
	return rec, nil
}

// scalarText renders a JSON string or number the way it should appear inside
// a coordinate string: strings unquoted, numbers as written.
func scalarText(raw json.RawMessage, path string) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	n, err := decodeAt[json.Number](raw, path)
	if err != nil {
		return "", err
	}
	return n.String(), nil
}
