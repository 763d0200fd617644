package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/adamwoolhether/avatax16/avataxtest/internal/web/errs"
	"github.com/adamwoolhether/avatax16/document"
)

// Param extracts a path parameter by key and returns its string value.
func Param(r *http.Request, key string) (string, error) {
	val := r.PathValue(key)
	if val == "" {
		return "", errs.New(http.StatusBadRequest, errs.CodeBadRequest, fmt.Errorf("path param[%s] not found", key))
	}

	return val, nil
}

// QueryInt extracts a query parameter by key and parses it as an int,
// returning def when it is absent.
func QueryInt(r *http.Request, key string, def int) (int, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return def, nil
	}

	v, err := strconv.Atoi(val)
	if err != nil {
		return 0, errs.New(http.StatusBadRequest, errs.CodeBadRequest, fmt.Errorf("query param[%s] must be integer: %w", key, err))
	}

	return v, nil
}

// Decode reads the body of an HTTP request looking for a JSON document. The
// body is decoded into the provided value and checked for validation tags.
func Decode[T any](r *http.Request, val *T) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(val); err != nil {
		return errs.New(http.StatusBadRequest, errs.CodeBadRequest, fmt.Errorf("decode: %w", err))
	}

	if err := document.Validate(val); err != nil {
		if _, ok := errors.AsType[document.FieldErrors](err); ok {
			return errs.FromValidation(err)
		}
		return errs.NewInternal(err)
	}

	return nil
}
