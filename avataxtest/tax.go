package avataxtest

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/adamwoolhether/avatax16/document"
)

// DefaultRate is the flat tax rate applied unless WithRate overrides it.
const DefaultRate = 0.0825

const modelVersion = "16.0.0"

// taxTypes maps a transaction type to the tax type it reports.
var taxTypes = map[document.TransactionType]string{
	document.TransactionSale:        "Sales",
	document.TransactionPurchase:    "SellersUse",
	document.TransactionUse:         "ConsumerUse",
	document.TransactionConsumption: "ConsumerUse",
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// calculate applies a flat rate to every line of req. Lines marked
// taxIncluded have the tax carved out of their amount.
func calculate(req *document.Request, rate float64, received time.Time) document.Response {
	preCalc := time.Since(received)
	calcStart := time.Now()

	taxType := taxTypes[req.Header.TransactionType]

	summary := document.CalculatedTaxSummary{
		NumberOfLines: len(req.Lines),
		TaxByType:     make(map[string]float64),
	}

	lines := make([]document.ResponseLine, len(req.Lines))
	for i, line := range req.Lines {
		taxable := line.LineAmount
		var tax float64
		if line.TaxIncluded {
			taxable = roundCents(line.LineAmount / (1 + rate))
			tax = roundCents(line.LineAmount - taxable)
		} else {
			tax = roundCents(taxable * rate)
		}

		lines[i] = document.ResponseLine{
			Line: line,
			CalculatedTax: &document.CalculatedTax{
				Tax: tax,
				Details: []document.TaxDetail{{
					JurisdictionName: jurisdiction(req.Header, line),
					JurisdictionType: "State",
					TaxType:          taxType,
					Rate:             rate,
					Taxable:          taxable,
					Tax:              tax,
				}},
			},
		}

		summary.Subtotal += taxable
		summary.TotalTax += tax
		summary.TaxByType[taxType] += tax
	}

	summary.Subtotal = roundCents(summary.Subtotal)
	summary.TotalTax = roundCents(summary.TotalTax)
	summary.GrandTotal = roundCents(summary.Subtotal + summary.TotalTax)
	summary.TaxByType[taxType] = roundCents(summary.TaxByType[taxType])

	calc := time.Since(calcStart)
	postStart := time.Now()

	resp := document.Response{
		Header:               &document.ResponseHeader{Header: *req.Header},
		Lines:                lines,
		CalculatedTaxSummary: &summary,
		ProcessingInfo: &document.ProcessingInfo{
			TransactionID:   uuid.NewString(),
			ModelVersion:    modelVersion,
			ServerTimestamp: received.Format(time.RFC3339),
		},
	}

	postCalc := time.Since(postStart)
	resp.Feedback = &document.Feedback{
		LatencyData: &document.LatencyData{
			PreCalc:  preCalc.Milliseconds(),
			Calc:     calc.Milliseconds(),
			PostCalc: postCalc.Milliseconds(),
			Total:    time.Since(received).Milliseconds(),
		},
	}

	return resp
}

// jurisdiction names the region the line ships to, falling back to the
// header's default ship-to location.
func jurisdiction(h *document.Header, line document.Line) string {
	if loc, ok := line.Locations[document.LocationShipTo]; ok && loc.Address.Region != "" {
		return loc.Address.Region
	}
	if loc, ok := h.DefaultLocations[document.LocationShipTo]; ok && loc.Address.Region != "" {
		return loc.Address.Region
	}

	return "FLAT"
}
