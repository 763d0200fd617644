package avatax16

import (
	"context"
	"fmt"
	"net/http"

	"github.com/adamwoolhether/avatax16/document"
)

// CreateTransaction computes the tax of req and records it as a pending
// transaction. The service refuses a second transaction with the same
// type and document code.
func (s *Service) CreateTransaction(ctx context.Context, req *document.Request) (*document.Response, error) {
	const op = "create transaction"

	if err := s.prepare(req); err != nil {
		return rejected[document.Response](op, err)
	}

	ref := s.Company(req.Header.CompanyCode).companyRef("transactions")

	return invoke[document.Response](ctx, s, op, http.MethodPost, ref, nil, req)
}

// CreateTransactionFromCalculation records an existing calculation as a
// pending transaction.
func (s *Service) CreateTransactionFromCalculation(ctx context.Context, typ document.TransactionType, code string, from document.TransactionFromCalculation) (*document.Response, error) {
	ref := s.companyRef("transactions", string(typ), code, "fromCalculation")

	return invoke[document.Response](ctx, s, "create transaction from calculation", http.MethodPost, ref, nil, from)
}

// GetTransaction fetches a recorded transaction.
func (s *Service) GetTransaction(ctx context.Context, typ document.TransactionType, code string) (*document.Response, error) {
	ref := s.companyRef("transactions", string(typ), code)

	return invoke[document.Response](ctx, s, "get transaction", http.MethodGet, ref, nil, nil)
}

// GetTransactionInput fetches the request a transaction was created from.
func (s *Service) GetTransactionInput(ctx context.Context, typ document.TransactionType, code string) (*document.Request, error) {
	ref := s.companyRef("transactions", string(typ), code, "source")

	return invoke[document.Request](ctx, s, "get transaction input", http.MethodGet, ref, nil, nil)
}

// TransitionTransactionState commits or voids a transaction. A voided
// transaction cannot change state again.
func (s *Service) TransitionTransactionState(ctx context.Context, typ document.TransactionType, code string, transition document.StateTransition) (*document.Response, error) {
	const op = "transition transaction state"

	if err := document.Validate(transition); err != nil {
		return rejected[document.Response](op, fmt.Errorf("%w: %w", ErrValidation, err))
	}

	ref := s.companyRef("transactions", string(typ), code, "stateTransitions")

	return invoke[document.Response](ctx, s, op, http.MethodPost, ref, nil, transition)
}
