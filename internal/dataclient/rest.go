package dataclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Remote talks to the hosted store's REST interface (PostgREST dialect).
// Unlike the emulator, every failure here surfaces through the result
// envelope's Error field for the caller to render.
type Remote struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
	log        *slog.Logger
}

// NewRemote creates a client for the hosted store. The transport timeout is
// the only bounded wait in the data path; there are no retries.
func NewRemote(baseURL, serviceKey string, log *slog.Logger) *Remote {
	return &Remote{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        log,
	}
}

// From starts a query chain against the named table.
func (r *Remote) From(table string) Query {
	return Query{exec: r, table: table}
}

// Close is a no-op; the HTTP client holds no per-connection state worth
// tearing down explicitly.
func (r *Remote) Close() error { return nil }

func (r *Remote) execute(ctx context.Context, q Query) Result {
	req, err := r.buildRequest(ctx, q)
	if err != nil {
		return Result{Error: err}
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Result{Error: fmt.Errorf("remote store request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Error: fmt.Errorf("reading remote response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r.log.Warn("remote store error", "table", q.table, "status", resp.StatusCode)
		return Result{Error: fmt.Errorf("remote store returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	return decodeBody(q, body)
}

func (r *Remote) buildRequest(ctx context.Context, q Query) (*http.Request, error) {
	endpoint := r.baseURL + "/rest/v1/" + url.PathEscape(q.table)
	params := filterParams(q)

	var method string
	var body io.Reader
	prefer := []string{}

	switch q.op {
	case opInsert:
		method = http.MethodPost
		prefer = append(prefer, "return=representation")
		payload := any(q.payload)
		if !q.bulk && len(q.payload) == 1 {
			payload = q.payload[0]
		}
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding insert payload: %w", err)
		}
		body = bytes.NewReader(raw)
	case opUpdate:
		method = http.MethodPatch
		prefer = append(prefer, "return=representation")
		raw, err := json.Marshal(q.patch())
		if err != nil {
			return nil, fmt.Errorf("encoding update payload: %w", err)
		}
		body = bytes.NewReader(raw)
	case opDelete:
		method = http.MethodDelete
	case opUpsert:
		method = http.MethodPost
		prefer = append(prefer, "return=representation", "resolution=merge-duplicates")
		if q.conflictKey != "" {
			params.Set("on_conflict", q.conflictKey)
		}
		raw, err := json.Marshal(q.patch())
		if err != nil {
			return nil, fmt.Errorf("encoding upsert payload: %w", err)
		}
		body = bytes.NewReader(raw)
	default: // opNone, opSelect
		method = http.MethodGet
		params.Set("select", "*")
		if q.orderBy != "" {
			dir := "asc"
			if q.descending {
				dir = "desc"
			}
			params.Set("order", q.orderBy+"."+dir)
		}
		if q.limit > 0 {
			params.Set("limit", strconv.Itoa(q.limit))
		}
	}

	if enc := params.Encode(); enc != "" {
		endpoint += "?" + enc
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("building remote request: %w", err)
	}

	req.Header.Set("apikey", r.serviceKey)
	req.Header.Set("Authorization", "Bearer "+r.serviceKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if len(prefer) > 0 {
		req.Header.Set("Prefer", strings.Join(prefer, ","))
	}
	return req, nil
}

// filterParams renders the accumulated filters in PostgREST syntax:
// equality as col=eq.value, set membership as col=in.(a,b).
func filterParams(q Query) url.Values {
	params := url.Values{}
	for _, f := range q.filters {
		switch f.Kind {
		case filterEq:
			params.Add(f.Column, "eq."+fmt.Sprint(f.Value))
		case filterIn:
			vals := make([]string, len(f.Values))
			for i, v := range f.Values {
				vals[i] = fmt.Sprint(v)
			}
			params.Add(f.Column, "in.("+strings.Join(vals, ",")+")")
		}
	}
	return params
}

// decodeBody maps the REST response onto the envelope with the same shapes
// the emulator produces: slices for bulk reads and inserts, single records
// under Single(), nil data where the contract says so.
func decodeBody(q Query, body []byte) Result {
	if q.op == opDelete {
		return Result{}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return Result{}
	}

	var records []Record
	if err := json.Unmarshal(body, &records); err != nil {
		// The representation of a non-bulk write can be a bare object.
		var rec Record
		if err2 := json.Unmarshal(body, &rec); err2 != nil {
			return Result{Error: fmt.Errorf("decoding remote response: %w", err)}
		}
		records = []Record{rec}
	}

	switch q.op {
	case opInsert:
		if q.bulk {
			return Result{Data: records}
		}
		if len(records) == 0 {
			return Result{}
		}
		return Result{Data: records[0]}
	case opUpdate:
		if len(records) == 0 {
			return Result{}
		}
		if len(records) == 1 {
			return Result{Data: records[0]}
		}
		return Result{Data: records}
	case opUpsert:
		if len(records) == 0 {
			return Result{}
		}
		return Result{Data: records[0]}
	default:
		if q.single {
			if len(records) == 0 {
				return Result{}
			}
			return Result{Data: records[0]}
		}
		return Result{Data: records}
	}
}
