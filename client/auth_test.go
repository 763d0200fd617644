package client

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

const (
	digestRealm = "avatax"
	digestNonce = "dcd98b7102dd2f0e8b11d0f600bfb0c093"
)

func md5Hex(parts ...string) string {
	sum := md5.Sum([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(sum[:])
}

// digestServer checks the digest response for user:secret and echoes the
// request body once authorized.
func digestServer(t *testing.T, attempts *atomic.Int32) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)

		authz := r.Header.Get("Authorization")
		if authz == "" {
			w.Header().Set("WWW-Authenticate", `Digest realm="`+digestRealm+`", qop="auth,auth-int", nonce="`+digestNonce+`", opaque="5ccc069c"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		params := make(map[string]string)
		for _, p := range splitParams(strings.TrimPrefix(authz, "Digest ")) {
			k, v, _ := strings.Cut(p, "=")
			params[strings.TrimSpace(k)] = strings.Trim(strings.TrimSpace(v), `"`)
		}

		ha1 := md5Hex("user", digestRealm, "secret")
		ha2 := md5Hex(r.Method, params["uri"])
		exp := md5Hex(ha1, digestNonce, params["nc"], params["cnonce"], params["qop"], ha2)

		if params["response"] != exp || params["opaque"] != "5ccc069c" || params["uri"] != r.URL.RequestURI() {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		body, _ := io.ReadAll(r.Body)
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)

	return server
}

func TestDigestAuth(t *testing.T) {
	var attempts atomic.Int32
	server := digestServer(t, &attempts)

	c, err := Build(WithBaseURL(server.URL), WithDigestAuth("user", "secret"))
	if err != nil {
		t.Fatal(err)
	}

	resp, err := c.Post(t.Context(), "/v2/ping?verbose=1", "hello")
	if err != nil {
		t.Fatalf("exp nil err, got: %v", err)
	}

	if string(resp.Raw) != "hello" {
		t.Errorf("exp replayed body %q, got %q", "hello", resp.Raw)
	}
	if n := attempts.Load(); n != 2 {
		t.Errorf("exp challenge then authorized attempt, got %d attempts", n)
	}
	if !strings.HasPrefix(resp.RequestHeader.Get("Authorization"), "Digest ") {
		t.Errorf("exp recorded digest header, got %q", resp.RequestHeader.Get("Authorization"))
	}
}

func TestDigestAuth_WrongPassword(t *testing.T) {
	var attempts atomic.Int32
	server := digestServer(t, &attempts)

	c, err := Build(WithBaseURL(server.URL), WithDigestAuth("user", "wrong"))
	if err != nil {
		t.Fatal(err)
	}

	resp, err := c.Get(t.Context(), "/v2/ping", nil)
	if err == nil {
		t.Fatal("exp err for wrong password")
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("exp 403, got %d", resp.StatusCode)
	}
}

func TestParseChallenge(t *testing.T) {
	testCases := map[string]struct {
		header string
		exp    challenge
		expOK  bool
	}{
		"full": {
			header: `Digest realm="a, b", nonce="n1", opaque="o", algorithm=SHA-256, qop="auth"`,
			exp:    challenge{realm: "a, b", nonce: "n1", opaque: "o", algorithm: "SHA-256", qop: "auth"},
			expOK:  true,
		},
		"basic": {
			header: `Basic realm="x"`,
		},
		"noNonce": {
			header: `Digest realm="x"`,
			exp:    challenge{realm: "x"},
		},
		"empty": {},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			got, ok := parseChallenge(tc.header)
			if ok != tc.expOK {
				t.Fatalf("exp ok %v, got %v", tc.expOK, ok)
			}
			if got != tc.exp {
				t.Errorf("exp %+v, got %+v", tc.exp, got)
			}
		})
	}
}
