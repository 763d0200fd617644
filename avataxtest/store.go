package avataxtest

import (
	"cmp"
	"slices"
	"sync"

	"github.com/adamwoolhether/avatax16/document"
)

// record is a stored calculation or transaction: the request as received
// and the response computed for it.
type record struct {
	request  document.Request
	response document.Response
}

func (r record) position() cursor {
	return cursor{code: r.request.Header.DocumentCode, typ: r.request.Header.TransactionType}
}

type docKey struct {
	account string
	company string
	typ     document.TransactionType
	code    string
}

// store keeps calculations and transactions in memory.
type store struct {
	mu           sync.RWMutex
	calculations map[docKey]record
	transactions map[docKey]record
}

func newStore() *store {
	return &store{
		calculations: make(map[docKey]record),
		transactions: make(map[docKey]record),
	}
}

// putCalculation stores rec, replacing a calculation of the same code.
func (s *store) putCalculation(key docKey, rec record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calculations[key] = rec
}

func (s *store) calculation(key docKey) (record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.calculations[key]
	return rec, ok
}

// calculationFilter selects a page of calculations.
type calculationFilter struct {
	startDate string
	endDate   string
	startCode string
	startType document.TransactionType
	limit     int
}

// cursor is the position of a calculation in list order.
type cursor struct {
	code string
	typ  document.TransactionType
}

func (c cursor) compare(o cursor) int {
	return cmp.Or(cmp.Compare(c.code, o.code), cmp.Compare(c.typ, o.typ))
}

// listCalculations returns the calculations of one company ordered by
// document code then transaction type, and the position the next page
// starts at. An empty startType starts at the first type of startCode.
func (s *store) listCalculations(account, company string, f calculationFilter) ([]document.Response, cursor) {
	start := cursor{code: f.startCode, typ: f.startType}

	s.mu.RLock()
	var matched []record
	for key, rec := range s.calculations {
		if key.account != account || key.company != company {
			continue
		}

		date := rec.request.Header.TransactionDate
		switch {
		case f.startDate != "" && date < f.startDate:
		case f.endDate != "" && date > f.endDate:
		case f.startCode != "" && (cursor{code: key.code, typ: key.typ}).compare(start) < 0:
		default:
			matched = append(matched, rec)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b record) int {
		return a.position().compare(b.position())
	})

	var next cursor
	if f.limit > 0 && len(matched) > f.limit {
		next = matched[f.limit].position()
		matched = matched[:f.limit]
	}

	items := make([]document.Response, len(matched))
	for i, rec := range matched {
		items[i] = rec.response
	}

	return items, next
}

// addTransaction stores rec unless a transaction with the same key exists.
func (s *store) addTransaction(key docKey, rec record) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transactions[key]; ok {
		return false
	}
	s.transactions[key] = rec

	return true
}

func (s *store) transaction(key docKey) (record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.transactions[key]
	return rec, ok
}

// updateTransaction applies fn to a stored transaction under the write
// lock. fn returns the error to report, in which case nothing changes.
func (s *store) updateTransaction(key docKey, fn func(*record) error) (record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.transactions[key]
	if !ok {
		return record{}, false, nil
	}

	if err := fn(&rec); err != nil {
		return record{}, true, err
	}
	s.transactions[key] = rec

	return rec, true, nil
}
