// Package report joins FASTA sequences with the database records of the
// identifiers found in their descriptions.
package report

import (
	"context"
	"fmt"

	"seqinfo/internal/accession"
	"seqinfo/internal/fasta"
	"seqinfo/internal/normalize"
	"seqinfo/internal/stats"
)

// SeqInfo is one sequence of the input file. DBID is nil when no identifier
// was found in the description; DBInfo stays an empty object until a record
// is merged in, and is JSON null for an Ensembl id without annotation.
type SeqInfo struct {
	Description string  `json:"description"`
	Seq         string  `json:"seq"`
	DBID        *string `json:"db_id"`
	DB          string  `json:"db"`
	DBInfo      any     `json:"db_info"`
}

type Report struct {
	FastaInfo stats.FastaStats `json:"fasta_info"`
	SeqInfo   []SeqInfo        `json:"seq_info"`

	// Missing counts identified sequences the lookup returned no record for.
	// Their db_info stays an empty object.
	Missing int `json:"-"`
}

// Lookuper resolves a batch of identifiers of a known family.
type Lookuper interface {
	LookupFamily(ctx context.Context, f accession.Family, ids []string) (normalize.Records, error)
}

// Build creates one SeqInfo per record and returns the distinct identifiers
// found, in input order.
func Build(records []fasta.FastaRecord, f accession.Family) ([]SeqInfo, []string) {
	infos := make([]SeqInfo, 0, len(records))
	var ids []string
	seen := make(map[string]bool)
	for _, r := range records {
		si := SeqInfo{
			Description: r.Header,
			Seq:         r.Sequence,
			DB:          f.String(),
			DBInfo:      map[string]any{},
		}
		if id, ok := accession.Find(f, r.Header); ok {
			si.DBID = &id
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
		infos = append(infos, si)
	}
	return infos, ids
}

// Merge attaches records to the sequences by identifier and returns how many
// identified sequences had no entry in recs.
func (r *Report) Merge(recs normalize.Records) (missing int) {
	for i := range r.SeqInfo {
		si := &r.SeqInfo[i]
		if si.DBID == nil {
			continue
		}
		rec, ok := recs.Get(*si.DBID)
		if !ok {
			missing++
			continue
		}
		si.DBInfo = rec
	}
	return missing
}

// Enrich builds the report for records: the database is chosen from the
// sequence type in st, all identifiers go out in a single lookup, and the
// normalized records are merged back onto the sequences.
func Enrich(ctx context.Context, l Lookuper, st stats.FastaStats, records []fasta.FastaRecord) (*Report, error) {
	fam := st.Family()
	infos, ids := Build(records, fam)
	rep := &Report{FastaInfo: st, SeqInfo: infos}
	if len(ids) == 0 {
		return rep, nil
	}
	recs, err := l.LookupFamily(ctx, fam, ids)
	if err != nil {
		return nil, fmt.Errorf("lookup %d %s ids: %w", len(ids), fam, err)
	}
	rep.Missing = rep.Merge(recs)
	return rep, nil
}
