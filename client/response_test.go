package client_test

import (
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/adamwoolhether/avatax16/client"
)

func TestParseHeaders(t *testing.T) {
	testCases := map[string]struct {
		raw        string
		expLine    string
		expHeaders http.Header
	}{
		"single": {
			raw:     "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\nx-request-id: abc\r\n\r\n",
			expLine: "HTTP/1.1 200 OK",
			expHeaders: http.Header{
				"Content-Type": {"application/json"},
				"X-Request-Id": {"abc"},
			},
		},
		"duplicatesJoined": {
			raw:     "HTTP/1.1 200 OK\r\nSet-Cookie: a=1\r\nSet-Cookie: b=2\r\n\r\n",
			expLine: "HTTP/1.1 200 OK",
			expHeaders: http.Header{
				"Set-Cookie": {"a=1,b=2"},
			},
		},
		"lastBlockWins": {
			raw: "HTTP/1.1 100 Continue\r\n\r\n" +
				"HTTP/1.1 302 Found\r\nLocation: /next\r\n\r\n" +
				"HTTP/1.1 201 Created\r\nLocation: /v2/transactions/1\r\n\r\n",
			expLine: "HTTP/1.1 201 Created",
			expHeaders: http.Header{
				"Location": {"/v2/transactions/1"},
			},
		},
		"colonInValue": {
			raw:     "HTTP/2 200\r\nDate: Mon, 01 Jan 2024 10:00:00 GMT\r\n",
			expLine: "HTTP/2 200",
			expHeaders: http.Header{
				"Date": {"Mon, 01 Jan 2024 10:00:00 GMT"},
			},
		},
		"empty": {
			expHeaders: http.Header{},
		},
		"noStatusLine": {
			raw:        "X-Foo: bar\r\n\r\n",
			expHeaders: http.Header{},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			line, headers := client.ParseHeaders(tc.raw)

			if line != tc.expLine {
				t.Errorf("exp line %q, got %q", tc.expLine, line)
			}
			if diff := cmp.Diff(tc.expHeaders, headers); diff != "" {
				t.Errorf("headers mismatch (-exp +got):\n%s", diff)
			}
		})
	}
}

func TestResponse_RawHeader(t *testing.T) {
	resp := &client.Response{
		StatusLine: "HTTP/1.1 404 Not Found",
		Header: http.Header{
			"Content-Type": {"application/json"},
			"Vary":         {"Accept", "Origin"},
		},
	}

	line, headers := client.ParseHeaders(resp.RawHeader())

	if line != resp.StatusLine {
		t.Errorf("exp line %q, got %q", resp.StatusLine, line)
	}
	if got := headers.Get("Vary"); got != resp.HeaderValue("Vary") {
		t.Errorf("exp joined Vary %q, got %q", resp.HeaderValue("Vary"), got)
	}
	if got := headers.Get("Content-Type"); got != "application/json" {
		t.Errorf("exp content type, got %q", got)
	}
}

func TestResponse_Decode(t *testing.T) {
	t.Run("xml", func(t *testing.T) {
		resp := &client.Response{
			ContentType: "application/xml",
			Raw:         []byte(`<ping><version>16</version></ping>`),
		}

		var out struct {
			Version string `xml:"version"`
		}
		if err := resp.Decode(&out); err != nil {
			t.Fatal(err)
		}
		if out.Version != "16" {
			t.Errorf("exp version 16, got %q", out.Version)
		}
	})

	t.Run("empty", func(t *testing.T) {
		resp := &client.Response{ContentType: "application/json"}

		var out map[string]any
		if err := resp.Decode(&out); err == nil {
			t.Error("exp err decoding empty body")
		}
	})
}

func TestIsJSON(t *testing.T) {
	testCases := map[string]struct {
		contentType string
		exp         bool
	}{
		"plain":         {contentType: "application/json", exp: true},
		"withCharset":   {contentType: "application/json; charset=utf-8", exp: true},
		"vendor":        {contentType: "application/vnd.api+json", exp: true},
		"textJSON":      {contentType: "text/json", exp: true},
		"problem":       {contentType: "application/problem+json", exp: true},
		"xJSON":         {contentType: "application/x-json", exp: true},
		"xml":           {contentType: "application/xml"},
		"html":          {contentType: "text/html"},
		"empty":         {},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			if got := client.IsJSON(tc.contentType); got != tc.exp {
				t.Errorf("IsJSON(%q): exp %v, got %v", tc.contentType, tc.exp, got)
			}
		})
	}
}
