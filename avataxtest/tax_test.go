package avataxtest

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/adamwoolhether/avatax16/document"
)

func TestCalculate(t *testing.T) {
	shipTo := func(region string) map[string]document.Location {
		return map[string]document.Location{
			document.LocationShipTo: {Address: document.Address{Region: region, Country: "US"}},
		}
	}

	tests := map[string]struct {
		rate       float64
		typ        document.TransactionType
		defaults   map[string]document.Location
		lines      []document.Line
		expTax     []float64
		expTaxable []float64
		expJuris   []string
		expType    string
		expTotal   float64
	}{
		"sale": {
			rate:       0.1,
			typ:        document.TransactionSale,
			lines:      []document.Line{{LineCode: "1", LineAmount: 100}, {LineCode: "2", LineAmount: 33.33}},
			expTax:     []float64{10, 3.33},
			expTaxable: []float64{100, 33.33},
			expJuris:   []string{"FLAT", "FLAT"},
			expType:    "Sales",
			expTotal:   146.66,
		},
		"taxIncluded": {
			rate:       0.1,
			typ:        document.TransactionSale,
			lines:      []document.Line{{LineCode: "1", LineAmount: 110, TaxIncluded: true}},
			expTax:     []float64{10},
			expTaxable: []float64{100},
			expJuris:   []string{"FLAT"},
			expType:    "Sales",
			expTotal:   110,
		},
		"purchaseUsesHeaderRegion": {
			rate:       0.05,
			typ:        document.TransactionPurchase,
			defaults:   shipTo("CA"),
			lines:      []document.Line{{LineCode: "1", LineAmount: 20}},
			expTax:     []float64{1},
			expTaxable: []float64{20},
			expJuris:   []string{"CA"},
			expType:    "SellersUse",
			expTotal:   21,
		},
		"lineRegionWins": {
			rate:     0.05,
			typ:      document.TransactionConsumption,
			defaults: shipTo("CA"),
			lines: []document.Line{
				{LineCode: "1", LineAmount: 20, Locations: shipTo("NV")},
				{LineCode: "2", LineAmount: 40},
			},
			expTax:     []float64{1, 2},
			expTaxable: []float64{20, 40},
			expJuris:   []string{"NV", "CA"},
			expType:    "ConsumerUse",
			expTotal:   63,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := document.NewRequest(document.Header{
				TransactionType:  tc.typ,
				DocumentCode:     "DOC",
				DefaultLocations: tc.defaults,
			}, tc.lines...)

			resp := calculate(req, tc.rate, time.Now())

			var gotTax, gotTaxable []float64
			var gotJuris []string
			for _, line := range resp.Lines {
				detail := line.CalculatedTax.Details[0]
				gotTax = append(gotTax, line.CalculatedTax.Tax)
				gotTaxable = append(gotTaxable, detail.Taxable)
				gotJuris = append(gotJuris, detail.JurisdictionName)

				if detail.TaxType != tc.expType {
					t.Errorf("line %s: expected tax type %s, got %s", line.LineCode, tc.expType, detail.TaxType)
				}
			}

			if diff := cmp.Diff(tc.expTax, gotTax); diff != "" {
				t.Errorf("tax mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tc.expTaxable, gotTaxable); diff != "" {
				t.Errorf("taxable mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tc.expJuris, gotJuris); diff != "" {
				t.Errorf("jurisdiction mismatch (-want +got):\n%s", diff)
			}

			if got := resp.CalculatedTaxSummary.GrandTotal; got != tc.expTotal {
				t.Errorf("expected grand total %v, got %v", tc.expTotal, got)
			}
			if got := resp.CalculatedTaxSummary.NumberOfLines; got != len(tc.lines) {
				t.Errorf("expected %d lines, got %d", len(tc.lines), got)
			}

			if resp.Header.DocumentCode != "DOC" {
				t.Errorf("header not echoed: %+v", resp.Header)
			}
			if resp.ProcessingInfo.ModelVersion != modelVersion || resp.ProcessingInfo.TransactionID == "" {
				t.Errorf("unexpected processing info: %+v", resp.ProcessingInfo)
			}
			if resp.Feedback.LatencyData == nil {
				t.Error("expected latency data")
			}
		})
	}
}

func TestRoundCents(t *testing.T) {
	tests := map[string]struct {
		in  float64
		exp float64
	}{
		"exact":     {in: 1.25, exp: 1.25},
		"roundUp":   {in: 1.236, exp: 1.24},
		"roundDown": {in: 1.234, exp: 1.23},
		"negative":  {in: -0.456, exp: -0.46},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := roundCents(tc.in); got != tc.exp {
				t.Errorf("roundCents(%v) = %v, want %v", tc.in, got, tc.exp)
			}
		})
	}
}
