package document

// TransactionType identifies the kind of document being taxed.
type TransactionType string

const (
	TransactionSale        TransactionType = "Sale"
	TransactionPurchase    TransactionType = "Purchase"
	TransactionUse         TransactionType = "Use"
	TransactionConsumption TransactionType = "Consumption"
)

// Location purposes used as keys of Header.DefaultLocations and Line.Locations.
const (
	LocationShipFrom               = "ShipFrom"
	LocationShipTo                 = "ShipTo"
	LocationPointOfOrderOrigin     = "PointOfOrderOrigin"
	LocationPointOfOrderAcceptance = "PointOfOrderAcceptance"
)

// Status carries the client-side failure state of an envelope. It is set
// when a call carrying the envelope fails and is never serialized.
type Status struct {
	HasError bool              `json:"-"`
	Errors   map[string]string `json:"-"`
}

// Fail marks the envelope as failed with the given errors.
func (s *Status) Fail(errs map[string]string) {
	s.HasError = true
	s.Errors = errs
}

// Failed reports whether the call carrying the envelope failed.
func (s *Status) Failed() bool {
	return s.HasError
}

// Request is the envelope sent to create a calculation or a transaction.
type Request struct {
	Status

	Header   *Header   `json:"header" validate:"required"`
	Lines    []Line    `json:"lines" validate:"required,min=1,dive"`
	Feedback *Feedback `json:"feedback,omitempty"`
}

// NewRequest builds a Request from a header and its lines.
func NewRequest(header Header, lines ...Line) *Request {
	return &Request{
		Header: &header,
		Lines:  lines,
	}
}

// Validate checks the request against its declared constraints.
func (r *Request) Validate() error {
	return Validate(r)
}

// Header holds the document-level fields of a request.
type Header struct {
	AccountID           string              `json:"accountId" validate:"required"`
	CompanyCode         string              `json:"companyCode" validate:"required"`
	TransactionType     TransactionType     `json:"transactionType" validate:"required,oneof=Sale Purchase Use Consumption"`
	DocumentCode        string              `json:"documentCode" validate:"required,max=50"`
	CustomerCode        string              `json:"customerCode,omitempty"`
	VendorCode          string              `json:"vendorCode,omitempty"`
	TransactionDate     string              `json:"transactionDate" validate:"required,datetime=2006-01-02"`
	TaxCalculationDate  string              `json:"taxCalculationDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Currency            string              `json:"currency,omitempty" validate:"omitempty,len=3"`
	DefaultLocations    map[string]Location `json:"defaultLocations,omitempty" validate:"omitempty,dive"`
	DefaultTaxPayerCode string              `json:"defaultTaxPayerCode,omitempty"`
	DefaultBuyerType    string              `json:"defaultBuyerType,omitempty"`
	DefaultUseType      string              `json:"defaultUseType,omitempty"`
	PurchaseOrderNumber string              `json:"purchaseOrderNumber,omitempty"`
	DebugMode           bool                `json:"debugMode,omitempty"`
	Metadata            map[string]string   `json:"metadata,omitempty"`
}

// Line is a single taxable item of a request.
type Line struct {
	LineCode                    string              `json:"lineCode" validate:"required"`
	ItemCode                    string              `json:"itemCode,omitempty"`
	AvalaraGoodsAndServicesType string              `json:"avalaraGoodsAndServicesType,omitempty"`
	NumberOfItems               float64             `json:"numberOfItems,omitempty" validate:"gte=0"`
	LineAmount                  float64             `json:"lineAmount"`
	ItemDescription             string              `json:"itemDescription,omitempty"`
	UnitOfMeasurement           string              `json:"unitOfMeasurement,omitempty"`
	Discounted                  bool                `json:"discounted,omitempty"`
	TaxIncluded                 bool                `json:"taxIncluded,omitempty"`
	Locations                   map[string]Location `json:"locations,omitempty" validate:"omitempty,dive"`
	TaxPayerCode                string              `json:"taxPayerCode,omitempty"`
	BuyerType                   string              `json:"buyerType,omitempty"`
	UseType                     string              `json:"useType,omitempty"`
	Metadata                    map[string]string   `json:"metadata,omitempty"`
}

// Location ties an address to a tax location purpose.
type Location struct {
	Address            Address `json:"address"`
	TaxLocationPurpose string  `json:"taxLocationPurpose,omitempty"`
	ResolutionQuality  string  `json:"resolutionQuality,omitempty"`
}

// Address is a postal address.
type Address struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	Line3      string `json:"line3,omitempty"`
	City       string `json:"city,omitempty"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country" validate:"required,len=2"`
}

// Feedback carries service diagnostics attached to an envelope.
type Feedback struct {
	LatencyData *LatencyData `json:"latencyData,omitempty"`
}

// LatencyData reports the time, in milliseconds, spent in each
// processing stage of a calculation.
type LatencyData struct {
	PreCalc  int64 `json:"preCalc"`
	Calc     int64 `json:"calc"`
	PostCalc int64 `json:"postCalc"`
	Total    int64 `json:"total"`
}

// StateTransition moves a transaction to a new state.
type StateTransition struct {
	Type    TransitionType `json:"type" validate:"required,oneof=Committed Voided"`
	Comment string         `json:"comment,omitempty"`
}

// TransitionType is a target transaction state.
type TransitionType string

const (
	TransitionCommitted TransitionType = "Committed"
	TransitionVoided    TransitionType = "Voided"
)

// TransactionFromCalculation promotes an existing calculation to a
// transaction, optionally recalculating it first.
type TransactionFromCalculation struct {
	Comment     string `json:"comment,omitempty"`
	Recalculate bool   `json:"recalculate"`
}
