package avatax16

import (
	"context"
	"iter"
	"net/http"
	"strconv"

	"github.com/adamwoolhether/avatax16/document"
)

// CreateCalculation computes the tax of req without recording a
// transaction. An empty header account or company is filled in from the
// Service before req is validated.
func (s *Service) CreateCalculation(ctx context.Context, req *document.Request) (*document.Response, error) {
	const op = "create calculation"

	if err := s.prepare(req); err != nil {
		return rejected[document.Response](op, err)
	}

	ref := s.Company(req.Header.CompanyCode).companyRef("calculations")

	return invoke[document.Response](ctx, s, op, http.MethodPost, ref, nil, req)
}

// GetCalculation fetches a stored calculation.
func (s *Service) GetCalculation(ctx context.Context, typ document.TransactionType, code string) (*document.Response, error) {
	ref := s.companyRef("calculations", string(typ), code)

	return invoke[document.Response](ctx, s, "get calculation", http.MethodGet, ref, nil, nil)
}

// ListOptions selects a page of calculations. Zero fields are not sent.
type ListOptions struct {
	// Limit caps the page size. The service default applies when zero.
	Limit int
	// StartDate and EndDate bound the transaction date, as YYYY-MM-DD.
	StartDate string
	EndDate   string
	// StartCode and StartType are the position the page starts at,
	// usually the NextStartCode and NextStartType of the previous page.
	// Without StartType the page starts at the first type of StartCode.
	StartCode string
	StartType document.TransactionType
}

func (o ListOptions) query() map[string]string {
	q := make(map[string]string)
	if o.Limit > 0 {
		q["limit"] = strconv.Itoa(o.Limit)
	}
	if o.StartDate != "" {
		q["startDate"] = o.StartDate
	}
	if o.EndDate != "" {
		q["endDate"] = o.EndDate
	}
	if o.StartCode != "" {
		q["startCode"] = o.StartCode
	}
	if o.StartType != "" {
		q["startType"] = string(o.StartType)
	}

	return q
}

// ListCalculations returns one page of the company's calculations ordered
// by document code then transaction type.
func (s *Service) ListCalculations(ctx context.Context, opts ListOptions) (*document.CalculationList, error) {
	return invoke[document.CalculationList](ctx, s, "list calculations", http.MethodGet, s.companyRef("calculations"), opts.query(), nil)
}

// Calculations iterates over every calculation matching opts, fetching
// pages as needed. Iteration stops after the first error.
//
//	for calc, err := range svc.Calculations(ctx, avatax16.ListOptions{Limit: 50}) {
//		if err != nil {
//			return err
//		}
//		fmt.Println(calc.Header.DocumentCode)
//	}
func (s *Service) Calculations(ctx context.Context, opts ListOptions) iter.Seq2[document.Response, error] {
	return func(yield func(document.Response, error) bool) {
		for {
			page, err := s.ListCalculations(ctx, opts)
			if err != nil {
				yield(document.Response{}, err)
				return
			}

			for _, item := range page.Items {
				if !yield(item, nil) {
					return
				}
			}

			if page.NextStartCode == "" {
				return
			}
			if page.NextStartCode == opts.StartCode && page.NextStartType == opts.StartType {
				return
			}
			opts.StartCode, opts.StartType = page.NextStartCode, page.NextStartType
		}
	}
}
