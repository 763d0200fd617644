package avataxtest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/adamwoolhether/avatax16/avataxtest/internal/web"
	"github.com/adamwoolhether/avatax16/avataxtest/internal/web/errs"
	"github.com/adamwoolhether/avatax16/avataxtest/internal/web/middleware"
	"github.com/adamwoolhether/avatax16/avataxtest/internal/web/mux"
	"github.com/adamwoolhether/avatax16/document"
)

const (
	stateCalculated = "Calculated"
	statePending    = "Pending"

	defaultPageSize = 10
	maxPageSize     = 100
)

type handlers struct {
	store      *store
	rate       float64
	accountID  string
	licenseKey string
}

func (h handlers) routes(app *mux.App) {
	app.Get("/v2/ping", h.ping)
	app.Post("/v2/address/resolve", h.resolveAddress, middleware.Authenticate(h.licenseKey))

	company := app.Mount("/v2/account/{accountId}/company/{companyCode}")
	company.Use(middleware.Authenticate(h.licenseKey))

	company.Post("/calculations", h.createCalculation)
	company.Get("/calculations", h.listCalculations)
	company.Get("/calculations/{transactionType}/{documentCode}", h.getCalculation)

	company.Post("/transactions", h.createTransaction)
	company.Get("/transactions/{transactionType}/{documentCode}", h.getTransaction)
	company.Get("/transactions/{transactionType}/{documentCode}/source", h.getTransactionInput)
	company.Post("/transactions/{transactionType}/{documentCode}/fromCalculation", h.createTransactionFromCalculation)
	company.Post("/transactions/{transactionType}/{documentCode}/stateTransitions", h.transitionState)
}

func (h handlers) ping(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	scheme, key, _ := strings.Cut(r.Header.Get("Authorization"), " ")

	result := document.PingResult{Version: modelVersion}
	if scheme == middleware.AuthScheme && key == h.licenseKey {
		result.Authenticated = true
		result.AuthenticationType = middleware.AuthScheme
	}

	return web.RespondJSON(ctx, w, http.StatusOK, result)
}

func (h handlers) resolveAddress(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var addr document.Address
	if err := web.Decode(r, &addr); err != nil {
		return err
	}

	addr.Region = strings.ToUpper(addr.Region)
	addr.Country = strings.ToUpper(addr.Country)

	resolved := document.ResolvedAddress{
		Address:           addr,
		ResolutionQuality: "Country",
	}

	switch {
	case addr.PostalCode != "":
		resolved.ResolutionQuality = "PostalCentroid"
	case addr.Region != "":
		resolved.ResolutionQuality = "Region"
	}

	if addr.Region != "" {
		resolved.TaxAuthorities = append(resolved.TaxAuthorities, document.TaxAuthority{
			JurisdictionName: addr.Region,
			JurisdictionType: "State",
		})
	}
	if addr.City != "" {
		resolved.TaxAuthorities = append(resolved.TaxAuthorities, document.TaxAuthority{
			JurisdictionName: strings.ToUpper(addr.City),
			JurisdictionType: "City",
		})
	}

	return web.RespondJSON(ctx, w, http.StatusOK, resolved)
}

func (h handlers) createCalculation(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	account, company, err := h.company(r)
	if err != nil {
		return err
	}

	req, err := h.decodeRequest(r, account, company)
	if err != nil {
		return err
	}

	resp := h.calculate(ctx, &req)
	resp.Header.TransactionState = stateCalculated

	key := docKey{account: account, company: company, typ: req.Header.TransactionType, code: req.Header.DocumentCode}
	h.store.putCalculation(key, record{request: req, response: resp})

	return web.RespondJSON(ctx, w, http.StatusCreated, resp)
}

func (h handlers) getCalculation(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	key, err := h.docKey(r)
	if err != nil {
		return err
	}

	rec, ok := h.store.calculation(key)
	if !ok {
		return notFound("calculation", key)
	}

	return web.RespondJSON(ctx, w, http.StatusOK, rec.response)
}

func (h handlers) listCalculations(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	account, company, err := h.company(r)
	if err != nil {
		return err
	}

	limit, err := web.QueryInt(r, "limit", defaultPageSize)
	if err != nil {
		return err
	}
	if limit < 1 || limit > maxPageSize {
		return errs.New(http.StatusBadRequest, errs.CodeBadRequest, fmt.Errorf("limit must be between 1 and %d", maxPageSize))
	}

	q := r.URL.Query()
	items, next := h.store.listCalculations(account, company, calculationFilter{
		startDate: q.Get("startDate"),
		endDate:   q.Get("endDate"),
		startCode: q.Get("startCode"),
		startType: document.TransactionType(q.Get("startType")),
		limit:     limit,
	})

	return web.RespondJSON(ctx, w, http.StatusOK, document.CalculationList{
		Items:         items,
		NextStartCode: next.code,
		NextStartType: next.typ,
	})
}

func (h handlers) createTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	account, company, err := h.company(r)
	if err != nil {
		return err
	}

	req, err := h.decodeRequest(r, account, company)
	if err != nil {
		return err
	}

	resp := h.calculate(ctx, &req)
	resp.Header.TransactionState = statePending

	key := docKey{account: account, company: company, typ: req.Header.TransactionType, code: req.Header.DocumentCode}
	if !h.store.addTransaction(key, record{request: req, response: resp}) {
		return conflict(key)
	}

	return web.RespondJSON(ctx, w, http.StatusCreated, resp)
}

func (h handlers) createTransactionFromCalculation(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	key, err := h.docKey(r)
	if err != nil {
		return err
	}

	var from document.TransactionFromCalculation
	if err := web.Decode(r, &from); err != nil {
		return err
	}

	calc, ok := h.store.calculation(key)
	if !ok {
		return notFound("calculation", key)
	}

	resp := calc.response
	if from.Recalculate {
		resp = h.calculate(ctx, &calc.request)
	}

	header := *resp.Header
	header.TransactionState = statePending
	resp.Header = &header

	if !h.store.addTransaction(key, record{request: calc.request, response: resp}) {
		return conflict(key)
	}

	return web.RespondJSON(ctx, w, http.StatusCreated, resp)
}

func (h handlers) getTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	key, err := h.docKey(r)
	if err != nil {
		return err
	}

	rec, ok := h.store.transaction(key)
	if !ok {
		return notFound("transaction", key)
	}

	return web.RespondJSON(ctx, w, http.StatusOK, rec.response)
}

func (h handlers) getTransactionInput(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	key, err := h.docKey(r)
	if err != nil {
		return err
	}

	rec, ok := h.store.transaction(key)
	if !ok {
		return notFound("transaction", key)
	}

	return web.RespondJSON(ctx, w, http.StatusOK, rec.request)
}

var errVoided = errors.New("transaction is voided")

func (h handlers) transitionState(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	key, err := h.docKey(r)
	if err != nil {
		return err
	}

	var transition document.StateTransition
	if err := web.Decode(r, &transition); err != nil {
		return err
	}

	rec, ok, err := h.store.updateTransaction(key, func(rec *record) error {
		if rec.response.Header.TransactionState == string(document.TransitionVoided) {
			return errVoided
		}

		header := *rec.response.Header
		header.TransactionState = string(transition.Type)
		rec.response.Header = &header

		return nil
	})
	switch {
	case errors.Is(err, errVoided):
		return errs.New(http.StatusConflict, errs.CodeInvalidState, err)
	case err != nil:
		return err
	case !ok:
		return notFound("transaction", key)
	}

	return web.RespondJSON(ctx, w, http.StatusOK, rec.response)
}

// calculate runs the flat rate calculation inside its own span.
func (h handlers) calculate(ctx context.Context, req *document.Request) document.Response {
	_, span := mux.AddSpan(ctx, "avataxtest.calculate",
		attribute.String("document_code", req.Header.DocumentCode),
		attribute.Int("lines", len(req.Lines)),
	)
	defer span.End()

	return calculate(req, h.rate, mux.GetValues(ctx).Now)
}

// company returns the account and company of the request path.
func (h handlers) company(r *http.Request) (string, string, error) {
	account, err := web.Param(r, "accountId")
	if err != nil {
		return "", "", err
	}
	if account != h.accountID {
		return "", "", errs.New(http.StatusNotFound, errs.CodeNotFound, fmt.Errorf("account %s not found", account))
	}

	company, err := web.Param(r, "companyCode")
	if err != nil {
		return "", "", err
	}

	return account, company, nil
}

// docKey identifies the document named by the request path.
func (h handlers) docKey(r *http.Request) (docKey, error) {
	account, company, err := h.company(r)
	if err != nil {
		return docKey{}, err
	}

	typ, err := web.Param(r, "transactionType")
	if err != nil {
		return docKey{}, err
	}
	if _, ok := taxTypes[document.TransactionType(typ)]; !ok {
		return docKey{}, errs.New(http.StatusBadRequest, errs.CodeBadRequest, fmt.Errorf("unknown transaction type %q", typ))
	}

	code, err := web.Param(r, "documentCode")
	if err != nil {
		return docKey{}, err
	}

	return docKey{account: account, company: company, typ: document.TransactionType(typ), code: code}, nil
}

// decodeRequest decodes and validates an envelope addressed to the
// account and company of the path.
func (h handlers) decodeRequest(r *http.Request, account, company string) (document.Request, error) {
	var req document.Request
	if err := web.Decode(r, &req); err != nil {
		return document.Request{}, err
	}

	var fields document.FieldErrors
	if req.Header.AccountID != account {
		fields = append(fields, document.FieldError{Field: "header.accountId", Err: "Must match the account of the request path"})
	}
	if req.Header.CompanyCode != company {
		fields = append(fields, document.FieldError{Field: "header.companyCode", Err: "Must match the company of the request path"})
	}
	if len(fields) > 0 {
		return document.Request{}, errs.FromValidation(fields)
	}

	return req, nil
}

func notFound(kind string, key docKey) error {
	return errs.New(http.StatusNotFound, errs.CodeNotFound, fmt.Errorf("%s %s/%s not found", kind, key.typ, key.code))
}

func conflict(key docKey) error {
	return errs.New(http.StatusConflict, errs.CodeConflict, fmt.Errorf("transaction %s/%s already exists", key.typ, key.code))
}
