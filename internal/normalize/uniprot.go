package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ProteinRecord is the normalized form of one UniProtKB entry.
type ProteinRecord struct {
	Organism     string          `json:"organism"`
	GeneInfo     json.RawMessage `json:"gene_info"`
	Function     string          `json:"function"`
	SequenceInfo json.RawMessage `json:"sequence_info"`
}

// UniProt normalizes a /uniprotkb/accessions response. Entries are keyed by
// primaryAccession. An empty or null payload yields an empty map.
func UniProt(raw []byte) (map[string]ProteinRecord, error) {
	out := make(map[string]ProteinRecord)
	if isEmptyPayload(raw) {
		return out, nil
	}

	env, err := decodeAt[object](raw, "")
	if err != nil {
		return nil, err
	}
	rawResults, err := env.require("", "results")
	if err != nil {
		return nil, err
	}
	results, err := decodeAt[[]object](rawResults, "results")
	if err != nil {
		return nil, err
	}

	for i, entry := range results {
		path := fmt.Sprintf("results[%d]", i)
		acc, rec, err := proteinRecord(entry, path)
		if err != nil {
			return nil, err
		}
		out[acc] = rec
	}
	return out, nil
}

func proteinRecord(entry object, path string) (string, ProteinRecord, error) {
	var rec ProteinRecord
	acc, err := entry.requireString(path, "primaryAccession")
	if err != nil {
		return "", rec, err
	}
	org, err := entry.requireObject(path, "organism")
	if err != nil {
		return "", rec, err
	}
	if rec.Organism, err = org.requireString(join(path, "organism"), "scientificName"); err != nil {
		return "", rec, err
	}
	if rec.GeneInfo, err = entry.require(path, "genes"); err != nil {
		return "", rec, err
	}
	if rec.SequenceInfo, err = entry.require(path, "sequence"); err != nil {
		return "", rec, err
	}

	rec.Function = NoFunction
	if comments, ok := entry.optional("comments"); ok {
		fn, found, err := functionComment(comments, join(path, "comments"))
		if err != nil {
			return "", rec, err
		}
		if found {
			rec.Function = fn
		}
	}
	return acc, rec, nil
}

type commentText struct {
	Value string `json:"value"`
}

type comment struct {
	CommentType string        `json:"commentType"`
	Value       *string       `json:"value"`
	Texts       []commentText `json:"texts"`
}

// functionComment returns the text of the first comment whose commentType is
// FUNCTION. UniProt puts the text under texts[].value and the last text of
// the comment is reported; a flat value field is accepted as well.
func functionComment(raw json.RawMessage, path string) (string, bool, error) {
	comments, err := decodeAt[[]comment](raw, path)
	if err != nil {
		return "", false, err
	}
	for _, c := range comments {
		if c.CommentType != "FUNCTION" {
			continue
		}
		if c.Value != nil {
			return *c.Value, true, nil
		}
		if len(c.Texts) > 0 {
			return c.Texts[len(c.Texts)-1].Value, true, nil
		}
	}
	return "", false, nil
}

// isEmptyPayload treats an empty body, null or {} as "nothing returned".
func isEmptyPayload(raw []byte) bool {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 || bytes.Equal(t, []byte("null")) {
		return true
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(t, &obj); err == nil && len(obj) == 0 {
		return true
	}
	return false
}
