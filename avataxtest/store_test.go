package avataxtest

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/adamwoolhether/avatax16/document"
)

func storedRecord(code, date string) record {
	header := document.Header{TransactionType: document.TransactionSale, DocumentCode: code, TransactionDate: date}

	return record{
		request:  document.Request{Header: &header},
		response: document.Response{Header: &document.ResponseHeader{Header: header, TransactionState: statePending}},
	}
}

func TestStore_ListCalculations(t *testing.T) {
	s := newStore()

	seed := []struct{ company, code, date string }{
		{"A", "C-3", "2026-03-01"},
		{"A", "C-1", "2026-01-01"},
		{"A", "C-2", "2026-02-01"},
		{"B", "C-0", "2026-01-01"},
	}
	for _, r := range seed {
		key := docKey{account: "1", company: r.company, typ: document.TransactionSale, code: r.code}
		s.putCalculation(key, storedRecord(r.code, r.date))
	}

	tests := map[string]struct {
		filter   calculationFilter
		expCodes []string
		expNext  cursor
	}{
		"allOfCompany": {
			filter:   calculationFilter{limit: 10},
			expCodes: []string{"C-1", "C-2", "C-3"},
		},
		"paged": {
			filter:   calculationFilter{limit: 1},
			expCodes: []string{"C-1"},
			expNext:  cursor{code: "C-2", typ: document.TransactionSale},
		},
		"startCode": {
			filter:   calculationFilter{limit: 10, startCode: "C-2"},
			expCodes: []string{"C-2", "C-3"},
		},
		"dates": {
			filter:   calculationFilter{limit: 10, startDate: "2026-01-15", endDate: "2026-02-28"},
			expCodes: []string{"C-2"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			items, next := s.listCalculations("1", "A", tc.filter)

			codes := make([]string, len(items))
			for i, item := range items {
				codes[i] = item.Header.DocumentCode
			}

			if diff := cmp.Diff(tc.expCodes, codes); diff != "" {
				t.Errorf("codes mismatch (-want +got):\n%s", diff)
			}
			if next != tc.expNext {
				t.Errorf("expected next %+v, got %+v", tc.expNext, next)
			}
		})
	}
}

func TestStore_ListCalculationsSharedCode(t *testing.T) {
	s := newStore()

	for _, typ := range []document.TransactionType{document.TransactionSale, document.TransactionPurchase, document.TransactionUse} {
		rec := storedRecord("A", "2026-01-01")
		rec.request.Header.TransactionType = typ
		rec.response.Header.TransactionType = typ
		s.putCalculation(docKey{account: "1", company: "A", typ: typ, code: "A"}, rec)
	}

	var got []document.TransactionType
	f := calculationFilter{limit: 1}
	for range 4 {
		items, next := s.listCalculations("1", "A", f)
		for _, item := range items {
			got = append(got, item.Header.TransactionType)
		}
		if next.code == "" {
			break
		}
		f.startCode, f.startType = next.code, next.typ
	}

	exp := []document.TransactionType{document.TransactionPurchase, document.TransactionSale, document.TransactionUse}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Errorf("types mismatch (-want +got):\n%s", diff)
	}

	items, _ := s.listCalculations("1", "A", calculationFilter{limit: 10, startCode: "A"})
	if len(items) != 3 {
		t.Errorf("expected a code without a type to start at its first type, got %d items", len(items))
	}
}

func TestStore_Transactions(t *testing.T) {
	s := newStore()
	key := docKey{account: "1", company: "A", typ: document.TransactionSale, code: "T-1"}

	if !s.addTransaction(key, storedRecord("T-1", "2026-01-01")) {
		t.Fatal("expected first add to succeed")
	}
	if s.addTransaction(key, storedRecord("T-1", "2026-01-01")) {
		t.Error("expected duplicate add to fail")
	}

	errStop := errors.New("stop")
	_, ok, err := s.updateTransaction(key, func(*record) error {
		return errStop
	})
	if !ok || !errors.Is(err, errStop) {
		t.Fatalf("expected errStop for existing key, got ok=%t err=%v", ok, err)
	}

	rec, ok, err := s.updateTransaction(key, func(rec *record) error {
		header := *rec.response.Header
		header.TransactionState = "Committed"
		rec.response.Header = &header
		return nil
	})
	if !ok || err != nil {
		t.Fatalf("unexpected result: ok=%t err=%v", ok, err)
	}
	if rec.response.Header.TransactionState != "Committed" {
		t.Errorf("expected Committed, got %s", rec.response.Header.TransactionState)
	}

	stored, _ := s.transaction(key)
	if stored.response.Header.TransactionState != "Committed" {
		t.Errorf("update not stored: %s", stored.response.Header.TransactionState)
	}

	if _, ok, _ := s.updateTransaction(docKey{code: "missing"}, func(*record) error { return nil }); ok {
		t.Error("expected missing key to report not found")
	}
}
