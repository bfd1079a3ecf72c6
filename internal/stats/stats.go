// Package stats produces FASTA summary statistics in the shape reported by
// `seqkit stats`. It can either run seqkit or compute the numbers itself.
package stats

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"seqinfo/internal/accession"
	"seqinfo/internal/fasta"
)

// FastaStats mirrors one row of the `seqkit stats` table.
type FastaStats struct {
	File    string  `json:"file"`
	Format  string  `json:"format"`
	Type    string  `json:"type"`
	NumSeqs int     `json:"num_seqs"`
	SumLen  int     `json:"sum_len"`
	MinLen  int     `json:"min_len"`
	AvgLen  float64 `json:"avg_len"`
	MaxLen  int     `json:"max_len"`
}

const (
	TypeDNA     = "DNA"
	TypeRNA     = "RNA"
	TypeProtein = "Protein"
)

var ErrBadStatsTable = errors.New("unexpected seqkit stats output")

// Family returns the database that sequences of this type are looked up in:
// proteins go to UniProt, nucleotide files to Ensembl.
func (s FastaStats) Family() accession.Family {
	if s.Type == TypeProtein {
		return accession.FamilyUniProt
	}
	return accession.FamilyEnsembl
}

// Compute derives statistics from already parsed records.
func Compute(path string, records []fasta.FastaRecord) FastaStats {
	st := FastaStats{File: path, Format: "FASTA", NumSeqs: len(records)}
	for i, r := range records {
		n := len(r.Sequence)
		st.SumLen += n
		if i == 0 || n < st.MinLen {
			st.MinLen = n
		}
		if n > st.MaxLen {
			st.MaxLen = n
		}
	}
	if st.NumSeqs > 0 {
		st.AvgLen = math.Round(float64(st.SumLen)/float64(st.NumSeqs)*10) / 10
	}
	st.Type = guessType(records)
	return st
}

// guessType classifies the alphabet of all sequences. Any letter outside the
// nucleotide alphabets makes the file a protein file.
func guessType(records []fasta.FastaRecord) string {
	hasT, hasU := false, false
	for _, r := range records {
		for _, c := range strings.ToUpper(r.Sequence) {
			switch c {
			case 'A', 'C', 'G', 'N', '-', '.', '*':
			case 'T':
				hasT = true
			case 'U':
				hasU = true
			default:
				return TypeProtein
			}
		}
	}
	if hasU && !hasT {
		return TypeRNA
	}
	return TypeDNA
}

// RunSeqkit runs `seqkit stats` on path and parses its table. If timeout is
// not positive a one minute limit is used.
//
// This function does not log; callers decide whether to fall back to Compute.
func RunSeqkit(ctx context.Context, seqkitPath, path string, timeout time.Duration) (FastaStats, error) {
	if seqkitPath == "" {
		return FastaStats{}, errors.New("seqkit path is empty")
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, seqkitPath, "stats", path)
	out, err := cmd.Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) && len(ee.Stderr) > 0 {
			return FastaStats{}, fmt.Errorf("seqkit stats %s: %w: %s", path, err, strings.TrimSpace(string(ee.Stderr)))
		}
		return FastaStats{}, fmt.Errorf("seqkit stats %s: %w", path, err)
	}
	return ParseSeqkitTable(strings.NewReader(string(out)))
}

// ParseSeqkitTable parses the default (space aligned) `seqkit stats` output:
// a header line followed by one data row. Thousands separators are removed.
func ParseSeqkitTable(r io.Reader) (FastaStats, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		return FastaStats{}, fmt.Errorf("%w: missing header", ErrBadStatsTable)
	}
	if !sc.Scan() {
		return FastaStats{}, fmt.Errorf("%w: missing data row", ErrBadStatsTable)
	}
	fields := strings.Fields(sc.Text())
	if len(fields) < 8 {
		return FastaStats{}, fmt.Errorf("%w: expected 8 columns, got %d", ErrBadStatsTable, len(fields))
	}
	// file names may contain spaces; the last seven columns never do
	n := len(fields)
	cols := fields[n-7:]
	st := FastaStats{
		File:   strings.Join(fields[:n-7], " "),
		Format: cols[0],
		Type:   cols[1],
	}

	ints := []*int{&st.NumSeqs, &st.SumLen, &st.MinLen}
	for i, dst := range ints {
		v, err := atoi(cols[2+i])
		if err != nil {
			return FastaStats{}, err
		}
		*dst = v
	}
	avg, err := strconv.ParseFloat(strings.ReplaceAll(cols[5], ",", ""), 64)
	if err != nil {
		return FastaStats{}, fmt.Errorf("%w: avg_len %q", ErrBadStatsTable, cols[5])
	}
	st.AvgLen = avg
	if st.MaxLen, err = atoi(cols[6]); err != nil {
		return FastaStats{}, err
	}
	return st, nil
}

func atoi(s string) (int, error) {
	v, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrBadStatsTable, s)
	}
	return v, nil
}
