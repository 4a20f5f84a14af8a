// Package dataclient provides a single capability set (filterable select,
// insert, update, delete, upsert) over three interchangeable backends: a
// hosted PostgREST-dialect store, a directly-connected Postgres database,
// and a local emulator used when neither is configured. Callers build a
// Query against any backend and receive the same Result envelope.
package dataclient

import "context"

// Record is one row of a table, schema-free. Values round-trip through JSON,
// so numbers read back from storage arrive as float64.
type Record = map[string]any

// Result is the envelope every executed query resolves to. Data is a Record,
// a []Record, or nil depending on the operation. Error is nil on success;
// the emulator backend never populates it.
type Result struct {
	Data  any   `json:"data"`
	Error error `json:"error"`
}

// Records returns Data as a record slice. A single record becomes a
// one-element slice; nil data is an empty slice.
func (r Result) Records() []Record {
	switch v := r.Data.(type) {
	case []Record:
		return v
	case Record:
		return []Record{v}
	default:
		return nil
	}
}

// Record returns Data as a single record, or nil.
func (r Result) Record() Record {
	switch v := r.Data.(type) {
	case Record:
		return v
	case []Record:
		if len(v) > 0 {
			return v[0]
		}
	}
	return nil
}

// Datastore is the abstract store the rest of the application is written
// against. All three backends satisfy it.
type Datastore interface {
	// From starts a query chain against the named table.
	From(table string) Query
	// Close releases backend resources. Safe on every backend.
	Close() error
}

// executor runs a fully-built query. Each backend implements it.
type executor interface {
	execute(ctx context.Context, q Query) Result
}
