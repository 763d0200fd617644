package avatax16

import (
	"context"
	"errors"
	"fmt"

	"github.com/adamwoolhether/avatax16/client"
	"github.com/adamwoolhether/avatax16/document"
)

// envelope is a document type that records the failure of the call that
// produced it.
type envelope[T any] interface {
	*T
	Fail(errs map[string]string)
}

// invoke sends payload to ref and decodes the reply into a new E. On
// failure the returned envelope is marked failed and the error is an
// [*APIError] for service failures or the transport error otherwise.
func invoke[T any, E envelope[T]](ctx context.Context, s *Service, op, method, ref string, q, payload any) (E, error) {
	out := E(new(T))

	fail := func(err error) (E, error) {
		err = fmt.Errorf("%s: %w", op, err)
		out.Fail(failures(err))
		s.logger.DebugContext(ctx, "avatax call failed", "op", op, "error", err)

		return out, err
	}

	u, err := s.client.ResolveURL(ref, q)
	if err != nil {
		return fail(err)
	}

	var reqOpts []client.RequestOption
	if payload != nil {
		reqOpts = append(reqOpts, client.WithPayload(payload))
	}

	req, err := s.client.Request(ctx, u, method, reqOpts...)
	if err != nil {
		return fail(err)
	}

	if _, err := s.client.Do(req, client.WithDestination((*T)(out))); err != nil {
		if statusErr, ok := errors.AsType[*client.StatusError](err); ok {
			return fail(newAPIError(statusErr))
		}
		return fail(err)
	}

	return out, nil
}

// prepare defaults the header's account and company to the Service's and
// validates req.
func (s *Service) prepare(req *document.Request) error {
	if req == nil {
		return fmt.Errorf("%w: nil request", ErrValidation)
	}

	if req.Header != nil {
		if req.Header.AccountID == "" {
			req.Header.AccountID = s.accountID
		}
		if req.Header.CompanyCode == "" {
			req.Header.CompanyCode = s.companyCode
		}
	}

	if err := req.Validate(); err != nil {
		req.Fail(failures(err))
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return nil
}

// rejected returns a failed envelope for a call that never left the client.
func rejected[T any, E envelope[T]](op string, err error) (E, error) {
	out := E(new(T))
	err = fmt.Errorf("%s: %w", op, err)
	out.Fail(failures(err))

	return out, err
}
