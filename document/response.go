package document

import "time"

// Response is the envelope returned for a calculation or a transaction.
type Response struct {
	Status

	Header               *ResponseHeader       `json:"header,omitempty"`
	Lines                []ResponseLine        `json:"lines,omitempty"`
	CalculatedTaxSummary *CalculatedTaxSummary `json:"calculatedTaxSummary,omitempty"`
	ProcessingInfo       *ProcessingInfo       `json:"processingInfo,omitempty"`
	Feedback             *Feedback             `json:"feedback,omitempty"`
}

// ResponseHeader echoes the request header along with the state of the
// transaction, when the response describes one.
type ResponseHeader struct {
	Header

	TransactionState string `json:"transactionState,omitempty"`
}

// ResponseLine is a request line with its calculated tax.
type ResponseLine struct {
	Line

	CalculatedTax *CalculatedTax `json:"calculatedTax,omitempty"`
}

// CalculatedTax is the tax computed for a single line.
type CalculatedTax struct {
	Tax     float64     `json:"tax"`
	Details []TaxDetail `json:"details,omitempty"`
}

// TaxDetail is the portion of a line's tax owed to one jurisdiction.
type TaxDetail struct {
	JurisdictionName string  `json:"jurisdictionName,omitempty"`
	JurisdictionType string  `json:"jurisdictionType,omitempty"`
	TaxType          string  `json:"taxType,omitempty"`
	Rate             float64 `json:"rate"`
	Taxable          float64 `json:"taxable"`
	Exempt           float64 `json:"exempt,omitempty"`
	Tax              float64 `json:"tax"`
	Comment          string  `json:"comment,omitempty"`
}

// CalculatedTaxSummary totals the tax of every line.
type CalculatedTaxSummary struct {
	NumberOfLines int                `json:"numberOfLines"`
	Subtotal      float64            `json:"subtotal"`
	TotalTax      float64            `json:"totalTax"`
	GrandTotal    float64            `json:"grandTotal"`
	TaxByType     map[string]float64 `json:"taxByType,omitempty"`
}

// ProcessingInfo identifies how and when the service handled a document.
type ProcessingInfo struct {
	TransactionID   string `json:"transactionId,omitempty"`
	ModelVersion    string `json:"modelVersion,omitempty"`
	ServerTimestamp string `json:"serverTimestamp,omitempty"`
}

// Latency returns the total latency reported in the response feedback,
// or zero when the service sent none.
func (r *Response) Latency() time.Duration {
	if r.Feedback == nil || r.Feedback.LatencyData == nil {
		return 0
	}

	return time.Duration(r.Feedback.LatencyData.Total) * time.Millisecond
}

// CalculationList is one page of calculations. Calculations are ordered
// by document code then transaction type, so the next page starts at
// NextStartCode and NextStartType together.
type CalculationList struct {
	Status

	Items         []Response      `json:"items"`
	NextStartCode string          `json:"nextStartCode,omitempty"`
	NextStartType TransactionType `json:"nextStartType,omitempty"`
}

// ResolvedAddress is the result of resolving an address to its taxing
// jurisdictions.
type ResolvedAddress struct {
	Status

	Address           Address        `json:"address"`
	Coordinates       *Coordinates   `json:"coordinates,omitempty"`
	ResolutionQuality string         `json:"resolutionQuality,omitempty"`
	TaxAuthorities    []TaxAuthority `json:"taxAuthorities,omitempty"`
}

// Coordinates is a geographic position.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// TaxAuthority is a jurisdiction that taxes a resolved address.
type TaxAuthority struct {
	AvalaraID        string `json:"avalaraId,omitempty"`
	JurisdictionName string `json:"jurisdictionName"`
	JurisdictionType string `json:"jurisdictionType,omitempty"`
}

// PingResult reports the service version and whether the caller's
// credentials were accepted.
type PingResult struct {
	Status

	Version            string `json:"version"`
	Authenticated      bool   `json:"authenticated"`
	AuthenticationType string `json:"authenticationType,omitempty"`
}
