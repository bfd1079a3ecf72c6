// Package accession decides which database an identifier belongs to.
//
// Two families are supported: UniProtKB accessions
// (https://www.uniprot.org/help/accession_numbers) and Ensembl stable IDs
// (https://www.ensembl.org/info/genome/stable_ids/index.html, MGP prefixes
// ignored).
package accession

import (
	"errors"
	"fmt"
	"regexp"
)

// Family identifies the database an identifier comes from.
type Family int

const (
	FamilyUniProt Family = iota + 1
	FamilyEnsembl
)

// String returns the database label used in reports.
func (f Family) String() string {
	switch f {
	case FamilyUniProt:
		return "Uniprot"
	case FamilyEnsembl:
		return "Ensembl"
	default:
		return "unknown"
	}
}

// RE2 classes \w and \d match ASCII only.
const (
	uniprotPattern = `[OPQ][0-9][A-Z0-9]{3}[0-9]|[A-NR-Z][0-9]([A-Z][A-Z0-9]{2}[0-9]){1,2}`
	ensemblPattern = `ENS(\w{3})?\w{1,2}\d{11}`
)

var (
	uniprotFull = regexp.MustCompile(`^(?:` + uniprotPattern + `)$`)
	ensemblFull = regexp.MustCompile(`^(?:` + ensemblPattern + `)$`)

	uniprotSearch = regexp.MustCompile(uniprotPattern)
	ensemblSearch = regexp.MustCompile(ensemblPattern)
)

var (
	ErrUnsupportedIdentifier = errors.New("unsupported identifier")
	ErrEmptyBatch            = errors.New("empty identifier batch")
)

// UnsupportedIdentifierError carries the identifier that matched no family.
type UnsupportedIdentifierError struct {
	ID string
}

func (e *UnsupportedIdentifierError) Error() string {
	return fmt.Sprintf("ID %s doesn't match any supported DB accession types", e.ID)
}

func (e *UnsupportedIdentifierError) Is(target error) bool {
	return target == ErrUnsupportedIdentifier
}

// Classify returns the family whose grammar fully matches sample.
// UniProt is tried first.
func Classify(sample string) (Family, error) {
	switch {
	case uniprotFull.MatchString(sample):
		return FamilyUniProt, nil
	case ensemblFull.MatchString(sample):
		return FamilyEnsembl, nil
	}
	return 0, &UnsupportedIdentifierError{ID: sample}
}

// ClassifyBatch classifies a batch by its first element. The batch is
// assumed to come from a single database; later elements are not checked.
func ClassifyBatch(ids []string) (Family, error) {
	if len(ids) == 0 {
		return 0, ErrEmptyBatch
	}
	return Classify(ids[0])
}

// Find returns the first identifier of the given family found anywhere in
// text, e.g. a FASTA description line.
func Find(f Family, text string) (string, bool) {
	var re *regexp.Regexp
	switch f {
	case FamilyUniProt:
		re = uniprotSearch
	case FamilyEnsembl:
		re = ensemblSearch
	default:
		return "", false
	}
	m := re.FindString(text)
	return m, m != ""
}
