package dataclient

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/claude/liftlog/internal/localstore"
)

// Emulator reproduces the hosted store's externally-observed contract against
// the local store, so code written for the remote backend runs unmodified
// with no backend configured. It is a frictionless stand-in: no operation
// ever resolves with a populated error. A storage fault underneath it is
// logged and surfaced as an empty result, not as part of the contract.
//
// Every mutation is a read-modify-write of the full table, which makes it
// O(table size) and racy across concurrent processes. Both are accepted at
// the development scale the emulator exists for.
type Emulator struct {
	store *localstore.Store
	log   *slog.Logger
	now   func() time.Time
	seq   atomic.Int64
}

// NewEmulator creates an emulator over the given local store.
func NewEmulator(store *localstore.Store, log *slog.Logger) *Emulator {
	return &Emulator{store: store, log: log, now: time.Now}
}

// From starts a query chain against the named table.
func (e *Emulator) From(table string) Query {
	return Query{exec: e, table: table}
}

// Close is a no-op; the emulator does not own the store's lifetime.
func (e *Emulator) Close() error { return nil }

// nextID generates a record identifier from a coarse timestamp and a
// sequence suffix. Uniqueness across processes is only probabilistic.
func (e *Emulator) nextID() string {
	return fmt.Sprintf("mock-%d-%d", e.now().UnixMilli(), e.seq.Add(1))
}

func (e *Emulator) execute(_ context.Context, q Query) Result {
	records, err := e.store.Get(q.table)
	if err != nil {
		e.log.Error("emulator read failed", "table", q.table, "error", err)
		return Result{}
	}

	switch q.op {
	case opInsert:
		return e.execInsert(q, records)
	case opUpdate:
		return e.execUpdate(q, records)
	case opDelete:
		return e.execDelete(q, records)
	case opUpsert:
		return e.execUpsert(q, records)
	default: // opNone, opSelect
		return e.execSelect(q, records)
	}
}

func (e *Emulator) execSelect(q Query, records []Record) Result {
	matched := filterRecords(records, q.filters)

	if q.orderBy != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			a, b := matched[i][q.orderBy], matched[j][q.orderBy]
			if q.descending {
				a, b = b, a
			}
			return looseLess(a, b)
		})
	}
	if q.limit > 0 && len(matched) > q.limit {
		matched = matched[:q.limit]
	}

	if q.single {
		if len(matched) == 0 {
			return Result{}
		}
		return Result{Data: matched[0]}
	}
	return Result{Data: matched}
}

func (e *Emulator) execInsert(q Query, records []Record) Result {
	inserted := make([]Record, 0, len(q.payload))
	stamp := e.now().UTC().Format(time.RFC3339)

	for _, in := range q.payload {
		rec := cloneRecord(in)
		if id, _ := rec["id"].(string); id == "" {
			rec["id"] = e.nextID()
		}
		rec["created_at"] = stamp
		records = append(records, rec)
		inserted = append(inserted, rec)
	}

	if err := e.store.Set(q.table, records); err != nil {
		e.log.Error("emulator write failed", "table", q.table, "error", err)
		return Result{}
	}

	if q.bulk {
		return Result{Data: inserted}
	}
	if len(inserted) == 0 {
		return Result{}
	}
	return Result{Data: inserted[0]}
}

func (e *Emulator) execUpdate(q Query, records []Record) Result {
	patch := q.patch()
	stamp := e.now().UTC().Format(time.RFC3339)

	var updated []Record
	for _, rec := range records {
		if !matchesAll(rec, q.filters) {
			continue
		}
		for k, v := range patch {
			rec[k] = v
		}
		rec["updated_at"] = stamp
		updated = append(updated, rec)
	}

	// Absence of a match is not an error condition.
	if len(updated) == 0 {
		return Result{}
	}

	if err := e.store.Set(q.table, records); err != nil {
		e.log.Error("emulator write failed", "table", q.table, "error", err)
		return Result{}
	}

	if len(updated) == 1 {
		return Result{Data: updated[0]}
	}
	return Result{Data: updated}
}

func (e *Emulator) execDelete(q Query, records []Record) Result {
	kept := records[:0:0]
	for _, rec := range records {
		if !matchesAll(rec, q.filters) {
			kept = append(kept, rec)
		}
	}

	if len(kept) != len(records) {
		if err := e.store.Set(q.table, kept); err != nil {
			e.log.Error("emulator write failed", "table", q.table, "error", err)
		}
	}
	// nil data, nil error regardless of whether anything was removed.
	return Result{}
}

func (e *Emulator) execUpsert(q Query, records []Record) Result {
	in := q.patch()
	stamp := e.now().UTC().Format(time.RFC3339)

	for _, rec := range records {
		if !looseEqual(rec[q.conflictKey], in[q.conflictKey]) {
			continue
		}
		for k, v := range in {
			rec[k] = v
		}
		rec["updated_at"] = stamp
		if err := e.store.Set(q.table, records); err != nil {
			e.log.Error("emulator write failed", "table", q.table, "error", err)
			return Result{}
		}
		return Result{Data: rec}
	}

	rec := cloneRecord(in)
	if id, _ := rec["id"].(string); id == "" {
		rec["id"] = e.nextID()
	}
	rec["created_at"] = stamp
	records = append(records, rec)
	if err := e.store.Set(q.table, records); err != nil {
		e.log.Error("emulator write failed", "table", q.table, "error", err)
		return Result{}
	}
	return Result{Data: rec}
}

func filterRecords(records []Record, filters []Filter) []Record {
	matched := make([]Record, 0, len(records))
	for _, rec := range records {
		if matchesAll(rec, filters) {
			matched = append(matched, rec)
		}
	}
	return matched
}

func matchesAll(rec Record, filters []Filter) bool {
	for _, f := range filters {
		switch f.Kind {
		case filterEq:
			if !looseEqual(rec[f.Column], f.Value) {
				return false
			}
		case filterIn:
			found := false
			for _, v := range f.Values {
				if looseEqual(rec[f.Column], v) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

// looseEqual compares values across the JSON round trip, where every number
// comes back as float64 regardless of how it went in.
func looseEqual(a, b any) bool {
	if a == b {
		return true
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return false
}

func looseLess(a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af < bf
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return as < bs
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func cloneRecord(rec Record) Record {
	out := make(Record, len(rec)+2)
	for k, v := range rec {
		out[k] = v
	}
	return out
}
