package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"seqinfo/internal/accession"
	"seqinfo/internal/normalize"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func clientWith(rt roundTripperFunc) *Client {
	c := New(0)
	c.HTTPClient = &http.Client{Transport: rt}
	return c
}

func TestFetchUniProtRequest(t *testing.T) {
	var got *http.Request
	c := clientWith(func(r *http.Request) (*http.Response, error) {
		got = r
		return respond(200, `{"results": []}`), nil
	})
	body, err := c.FetchUniProt(context.Background(), []string{"A2BC19", "P12345", "Q9Y2H6"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != `{"results": []}` {
		t.Fatalf("unexpected body %s", body)
	}
	if got.Method != http.MethodGet {
		t.Fatalf("expected GET, got %s", got.Method)
	}
	if got.URL.Host != "rest.uniprot.org" || got.URL.Path != "/uniprotkb/accessions" {
		t.Fatalf("unexpected url %s", got.URL)
	}
	if acc := got.URL.Query()["accessions"]; !reflect.DeepEqual(acc, []string{"A2BC19", "P12345", "Q9Y2H6"}) {
		t.Fatalf("expected repeated accessions parameter, got %v", acc)
	}
	if got.Header.Get("User-Agent") != DefaultUserAgent {
		t.Fatalf("expected user agent %q, got %q", DefaultUserAgent, got.Header.Get("User-Agent"))
	}
}

func TestFetchEnsemblRequest(t *testing.T) {
	var payload struct {
		IDs []string `json:"ids"`
	}
	var got *http.Request
	c := clientWith(func(r *http.Request) (*http.Response, error) {
		got = r
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		return respond(200, `{}`), nil
	})
	ids := []string{"ENSMUSG00000031201", "ENSG00000012048"}
	if _, err := c.FetchEnsembl(context.Background(), ids); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Method != http.MethodPost || got.URL.String() != DefaultEnsemblURL {
		t.Fatalf("unexpected request %s %s", got.Method, got.URL)
	}
	if got.Header.Get("Content-Type") != "application/json" || got.Header.Get("Accept") != "application/json" {
		t.Fatalf("unexpected headers %v", got.Header)
	}
	if !reflect.DeepEqual(payload.IDs, ids) {
		t.Fatalf("expected ids %v, got %v", ids, payload.IDs)
	}
}

func TestLookupEnsemblKeepsNullEntries(t *testing.T) {
	c := clientWith(func(r *http.Request) (*http.Response, error) {
		return respond(200, `{
			"ENSG00000012048": {"seq_region_name": "17", "start": 43044295, "end": 43125483, "species": "homo_sapiens",
				"object_type": "Gene", "biotype": "protein_coding", "assembly_name": "GRCh38", "strand": -1, "display_name": "BRCA1"},
			"ENSGT00560000077204": null
		}`), nil
	})
	recs, err := c.Lookup(context.Background(), []string{"ENSG00000012048", "ENSGT00560000077204"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recs.Family != accession.FamilyEnsembl || recs.Len() != 2 {
		t.Fatalf("unexpected records: %+v", recs)
	}
	if rec := recs.Features["ENSG00000012048"]; rec == nil || rec.Coordinates != "17:43044295-43125483" {
		t.Fatalf("unexpected BRCA1 record: %+v", rec)
	}
	if rec, ok := recs.Features["ENSGT00560000077204"]; !ok || rec != nil {
		t.Fatalf("expected explicit nil entry, got %v (present=%v)", rec, ok)
	}
}

func TestLookupEnsemblBackfillsOmittedIDs(t *testing.T) {
	c := clientWith(func(r *http.Request) (*http.Response, error) {
		return respond(200, `{"ENSG00000012048": {"seq_region_name": "17", "start": 1, "end": 2, "species": "homo_sapiens",
			"object_type": "Gene", "biotype": "protein_coding", "assembly_name": "GRCh38", "strand": 1}}`), nil
	})
	recs, err := c.Lookup(context.Background(), []string{"ENSG00000012048", "ENSG00000139618"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec, ok := recs.Features["ENSG00000139618"]; !ok || rec != nil {
		t.Fatalf("expected omitted id as nil entry, got %v (present=%v)", rec, ok)
	}
	b, err := json.Marshal(recs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"ENSG00000139618":null`) {
		t.Fatalf("expected ENSG00000139618 as null, got %s", b)
	}
}

func TestLookupUniProt(t *testing.T) {
	calls := 0
	c := clientWith(func(r *http.Request) (*http.Response, error) {
		calls++
		return respond(200, `{"results": [{"primaryAccession": "P12345", "organism": {"scientificName": "Oryctolagus cuniculus"},
			"genes": [{"geneName": {"value": "GOT2"}}], "sequence": {"value": "MALLH", "length": 5},
			"comments": [{"commentType": "FUNCTION", "texts": [{"value": "Catalyzes transamination"}]}]}]}`), nil
	})
	recs, err := c.Lookup(context.Background(), []string{"P12345"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one request, got %d", calls)
	}
	rec, ok := recs.Proteins["P12345"]
	if !ok || rec.Function != "Catalyzes transamination" || rec.Organism != "Oryctolagus cuniculus" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestLookupUnsupportedMakesNoRequest(t *testing.T) {
	c := clientWith(func(r *http.Request) (*http.Response, error) {
		t.Fatalf("HTTP should not be called for unsupported identifiers")
		return nil, nil
	})
	_, err := c.Lookup(context.Background(), []string{"ABOBABA32282"})
	if !errors.Is(err, accession.ErrUnsupportedIdentifier) {
		t.Fatalf("expected ErrUnsupportedIdentifier, got %v", err)
	}
}

func TestLookupStatusError(t *testing.T) {
	c := clientWith(func(r *http.Request) (*http.Response, error) {
		return respond(400, `{"error": "bad ids"}`), nil
	})
	_, err := c.Lookup(context.Background(), []string{"ENSG00000012048"})
	var te *TransportError
	if !errors.As(err, &te) || te.Status != 400 || te.Service != "ensembl" {
		t.Fatalf("expected ensembl 400 TransportError, got %v", err)
	}
	if !errors.Is(err, ErrTransport) || !strings.Contains(te.Body, "bad ids") {
		t.Fatalf("expected body in error, got %v", err)
	}
}

func TestLookupTransportFailure(t *testing.T) {
	boom := errors.New("connection refused")
	c := clientWith(func(r *http.Request) (*http.Response, error) {
		return nil, boom
	})
	_, err := c.Lookup(context.Background(), []string{"P12345"})
	if !errors.Is(err, ErrTransport) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped transport error, got %v", err)
	}
}

func TestLookupMalformedResponse(t *testing.T) {
	c := clientWith(func(r *http.Request) (*http.Response, error) {
		return respond(200, `{"results": [{"primaryAccession": "P12345"}]}`), nil
	})
	_, err := c.Lookup(context.Background(), []string{"P12345"})
	if !errors.Is(err, normalize.ErrMalformedResponse) {
		t.Fatalf("expected malformed response error, got %v", err)
	}
}

func TestFetchUnknownFamily(t *testing.T) {
	if _, err := New(0).Fetch(context.Background(), accession.Family(0), nil); err == nil {
		t.Fatalf("expected error for unknown family")
	}
}
