package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Get resolves ref against the base URL, appends the query data q and
// sends a GET request.
func (c *Client) Get(ctx context.Context, ref string, q any, opts ...RequestOption) (*Response, error) {
	return c.send(ctx, http.MethodGet, ref, q, nil, opts)
}

// Head sends a HEAD request. The response never has a body.
func (c *Client) Head(ctx context.Context, ref string, q any, opts ...RequestOption) (*Response, error) {
	return c.send(ctx, http.MethodHead, ref, q, nil, opts)
}

// Options sends an OPTIONS request.
func (c *Client) Options(ctx context.Context, ref string, q any, opts ...RequestOption) (*Response, error) {
	return c.send(ctx, http.MethodOptions, ref, q, nil, opts)
}

// Delete sends a DELETE request with optional query data and body.
func (c *Client) Delete(ctx context.Context, ref string, q, data any, opts ...RequestOption) (*Response, error) {
	return c.send(ctx, http.MethodDelete, ref, q, data, opts)
}

// Post sends data, encoded by [EncodeBody], in a POST request.
func (c *Client) Post(ctx context.Context, ref string, data any, opts ...RequestOption) (*Response, error) {
	return c.send(ctx, http.MethodPost, ref, nil, data, opts)
}

// Put sends data in a PUT request. The Content-Length header is always
// sent, including for an empty body. A reader of unknown length is read
// into memory first.
func (c *Client) Put(ctx context.Context, ref string, data any, opts ...RequestOption) (*Response, error) {
	switch b := data.(type) {
	case nil:
		data = []byte{}
	case *bytes.Buffer, *bytes.Reader, *strings.Reader:
	case io.Reader:
		buf, err := io.ReadAll(b)
		if err != nil {
			return nil, fmt.Errorf("buffering put payload: %w", err)
		}
		data = buf
	}

	return c.send(ctx, http.MethodPut, ref, nil, data, opts)
}

// Patch sends data in a PATCH request.
func (c *Client) Patch(ctx context.Context, ref string, data any, opts ...RequestOption) (*Response, error) {
	return c.send(ctx, http.MethodPatch, ref, nil, data, opts)
}

func (c *Client) send(ctx context.Context, method, ref string, q, data any, opts []RequestOption) (*Response, error) {
	u, err := c.ResolveURL(ref, q)
	if err != nil {
		return nil, err
	}

	if data != nil {
		opts = append([]RequestOption{WithPayload(data)}, opts...)
	}

	req, err := c.Request(ctx, u, method, opts...)
	if err != nil {
		return nil, err
	}

	return c.Do(req)
}
