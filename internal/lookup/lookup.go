// Package lookup resolves batches of accessions against the UniProt and
// Ensembl REST services. Each batch is one request: there is no retry,
// pagination or caching, and transport failures are returned to the caller.
package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"seqinfo/internal/accession"
	"seqinfo/internal/normalize"
)

const (
	DefaultUniProtURL = "https://rest.uniprot.org/uniprotkb/accessions"
	DefaultEnsemblURL = "https://rest.ensembl.org/lookup/id"
	DefaultUserAgent  = "seqinfo/1.0"
	DefaultTimeout    = 60 * time.Second
)

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 2048

var ErrTransport = errors.New("lookup transport error")

// TransportError reports a failed request or a non-2xx response.
type TransportError struct {
	Service string
	Status  int
	Body    string
	Err     error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s lookup failed: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("%s lookup returned status %d: %s", e.Service, e.Status, e.Body)
}

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

func (e *TransportError) Unwrap() error { return e.Err }

// Client performs batch lookups. The zero value is usable and talks to the
// public endpoints.
type Client struct {
	HTTPClient *http.Client
	UniProtURL string
	EnsemblURL string
	UserAgent  string
}

// New returns a client with the default endpoints and the given timeout.
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		HTTPClient: &http.Client{Timeout: timeout},
		UniProtURL: DefaultUniProtURL,
		EnsemblURL: DefaultEnsemblURL,
		UserAgent:  DefaultUserAgent,
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// FetchUniProt requests all ids in one GET with a repeated accessions
// parameter and returns the raw JSON body.
func (c *Client) FetchUniProt(ctx context.Context, ids []string) ([]byte, error) {
	u, err := url.Parse(orDefault(c.UniProtURL, DefaultUniProtURL))
	if err != nil {
		return nil, err
	}
	q := u.Query()
	for _, id := range ids {
		q.Add("accessions", id)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, "uniprot")
}

// FetchEnsembl posts {"ids": [...]} and returns the raw JSON body.
func (c *Client) FetchEnsembl(ctx context.Context, ids []string) ([]byte, error) {
	if ids == nil {
		ids = []string{}
	}
	payload, err := json.Marshal(struct {
		IDs []string `json:"ids"`
	}{ids})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, orDefault(c.EnsemblURL, DefaultEnsemblURL), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.do(req, "ensembl")
}

// Fetch dispatches to the service of the given family.
func (c *Client) Fetch(ctx context.Context, f accession.Family, ids []string) ([]byte, error) {
	switch f {
	case accession.FamilyUniProt:
		return c.FetchUniProt(ctx, ids)
	case accession.FamilyEnsembl:
		return c.FetchEnsembl(ctx, ids)
	}
	return nil, fmt.Errorf("lookup: unknown family %d", int(f))
}

// Lookup classifies the batch by its first identifier, fetches the whole
// batch from the matching service and normalizes the response. No request
// is made when the first identifier is unsupported.
func (c *Client) Lookup(ctx context.Context, ids []string) (normalize.Records, error) {
	fam, err := accession.ClassifyBatch(ids)
	if err != nil {
		return normalize.Records{}, err
	}
	return c.LookupFamily(ctx, fam, ids)
}

// LookupFamily fetches and normalizes ids of an already known family. Every
// requested Ensembl identifier appears in the result, nil when unannotated.
func (c *Client) LookupFamily(ctx context.Context, f accession.Family, ids []string) (normalize.Records, error) {
	raw, err := c.Fetch(ctx, f, ids)
	if err != nil {
		return normalize.Records{}, err
	}
	recs, err := normalize.NormalizeFor(raw, f, ids)
	if err != nil {
		return normalize.Records{}, fmt.Errorf("%s response: %w", f, err)
	}
	return recs, nil
}

func (c *Client) do(req *http.Request, service string) ([]byte, error) {
	req.Header.Set("User-Agent", orDefault(c.UserAgent, DefaultUserAgent))
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, &TransportError{Service: service, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Service: service, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body := data
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &TransportError{Service: service, Status: resp.StatusCode, Body: string(body)}
	}
	return data, nil
}
