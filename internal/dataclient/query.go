package dataclient

import "context"

// opKind tags the pending operation a Query carries. A query with opNone
// executes as a select, matching the hosted client where awaiting a bare
// table reference reads the whole table.
type opKind int

const (
	opNone opKind = iota
	opSelect
	opInsert
	opUpdate
	opDelete
	opUpsert
)

// filterKind distinguishes equality filters from in-set filters.
type filterKind int

const (
	filterEq filterKind = iota
	filterIn
)

// Filter is one accumulated predicate. Filters compose with logical AND;
// there is no OR.
type Filter struct {
	Kind   filterKind
	Column string
	Value  any
	Values []any
}

// Query is an immutable builder value. Every chain call returns a new Query
// carrying the accumulated state forward, so a base query can be shared and
// extended concurrently without interference. Nothing executes until Exec.
type Query struct {
	exec executor

	table       string
	op          opKind
	filters     []Filter
	orderBy     string
	descending  bool
	limit       int
	single      bool
	payload     []Record // insert rows, or the update/upsert payload
	bulk        bool     // insert was given a slice; result stays a slice
	conflictKey string
}

// withFilter returns a copy of q with one more filter. The filter slice is
// copied so the original query value is never aliased.
func (q Query) withFilter(f Filter) Query {
	filters := make([]Filter, len(q.filters), len(q.filters)+1)
	copy(filters, q.filters)
	q.filters = append(filters, f)
	return q
}

// Select marks read intent. It does not execute.
func (q Query) Select() Query {
	q.op = opSelect
	return q
}

// Eq appends an equality filter on column.
func (q Query) Eq(column string, value any) Query {
	return q.withFilter(Filter{Kind: filterEq, Column: column, Value: value})
}

// In appends a set-membership filter on column.
func (q Query) In(column string, values []any) Query {
	return q.withFilter(Filter{Kind: filterIn, Column: column, Values: values})
}

// Order sets the result ordering column.
func (q Query) Order(column string, descending bool) Query {
	q.orderBy = column
	q.descending = descending
	return q
}

// Limit caps the number of records a select returns.
func (q Query) Limit(n int) Query {
	q.limit = n
	return q
}

// Single resolves the query to the first matching record instead of a slice.
// No match yields nil data, nil error.
func (q Query) Single() Query {
	q.single = true
	return q
}

// Insert stages one record for insertion. The backend assigns the identifier
// and creation timestamp on execution.
func (q Query) Insert(record Record) Query {
	q.op = opInsert
	q.payload = []Record{record}
	q.bulk = false
	return q
}

// InsertMany stages a batch of records for insertion. The result keeps the
// slice shape even for a single element.
func (q Query) InsertMany(records []Record) Query {
	q.op = opInsert
	q.payload = records
	q.bulk = true
	return q
}

// Update stages a partial record to shallow-merge into every record matching
// the accumulated filters. Zero matches resolve to nil data, nil error.
func (q Query) Update(patch Record) Query {
	q.op = opUpdate
	q.payload = []Record{patch}
	return q
}

// Delete stages removal of every record matching the accumulated filters.
// Resolves to nil data, nil error whether or not anything was removed.
func (q Query) Delete() Query {
	q.op = opDelete
	return q
}

// Upsert stages a record keyed by equality on conflictKey: an existing match
// is shallow-merged, otherwise the record is inserted.
func (q Query) Upsert(record Record, conflictKey string) Query {
	q.op = opUpsert
	q.payload = []Record{record}
	q.conflictKey = conflictKey
	return q
}

// Exec runs the accumulated operation against the backend and returns the
// result envelope. This is the only point at which anything happens.
func (q Query) Exec(ctx context.Context) Result {
	return q.exec.execute(ctx, q)
}

// patch returns the staged update/upsert payload, or nil.
func (q Query) patch() Record {
	if len(q.payload) == 0 {
		return nil
	}
	return q.payload[0]
}
