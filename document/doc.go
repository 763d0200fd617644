// Package document defines the envelopes exchanged with the AvaTax v16
// service: the calculation/transaction request, its response, and the
// nested parts (header, lines, locations, feedback and latency data).
//
// Every type is a plain struct whose JSON tags mirror the wire schema.
// Optional nested objects are pointers and optional scalars are omitted
// when empty, so a field missing from a payload stays absent after a
// round trip.
//
//	req := document.NewRequest(document.Header{
//		TransactionType: document.TransactionSale,
//		DocumentCode:    "INV-1001",
//		TransactionDate: "2026-10-01",
//	}, document.Line{LineCode: "1", LineAmount: 100})
//
//	if err := req.Validate(); err != nil {
//		// err is a FieldErrors keyed by JSON field path.
//	}
package document
