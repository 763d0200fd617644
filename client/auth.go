package client

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// digestAuth is an http.RoundTripper that answers a digest challenge
// (RFC 7616) by replaying the request with an Authorization header.
type digestAuth struct {
	creds credentials
	next  http.RoundTripper

	mu sync.Mutex
	nc uint32
}

func (d *digestAuth) RoundTrip(r *http.Request) (*http.Response, error) {
	resp, err := d.next.RoundTrip(r)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	chal, ok := parseChallenge(resp.Header.Get("WWW-Authenticate"))
	if !ok {
		return resp, nil
	}

	if r.Body != nil && r.Body != http.NoBody && r.GetBody == nil {
		return resp, nil
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	cpy := r.Clone(r.Context())
	if r.GetBody != nil {
		body, err := r.GetBody()
		if err != nil {
			return nil, fmt.Errorf("replaying body: %w", err)
		}
		cpy.Body = body
	}

	authz, err := d.authorization(chal, r.Method, r.URL.RequestURI())
	if err != nil {
		return nil, err
	}
	cpy.Header.Set("Authorization", authz)

	return d.next.RoundTrip(cpy)
}

type challenge struct {
	realm     string
	nonce     string
	opaque    string
	algorithm string
	qop       string
}

// parseChallenge reads a "Digest k=v, k=\"v\"" header value.
func parseChallenge(header string) (challenge, bool) {
	scheme, params, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Digest") {
		return challenge{}, false
	}

	var chal challenge
	for _, param := range splitParams(params) {
		key, value, ok := strings.Cut(param, "=")
		if !ok {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"`)

		switch strings.ToLower(strings.TrimSpace(key)) {
		case "realm":
			chal.realm = value
		case "nonce":
			chal.nonce = value
		case "opaque":
			chal.opaque = value
		case "algorithm":
			chal.algorithm = value
		case "qop":
			chal.qop = value
		}
	}

	return chal, chal.nonce != ""
}

// splitParams splits on commas that are not inside quotes.
func splitParams(s string) []string {
	var (
		params []string
		quoted bool
		start  int
	)
	for i, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
		case r == ',' && !quoted:
			params = append(params, s[start:i])
			start = i + 1
		}
	}

	return append(params, s[start:])
}

func (d *digestAuth) authorization(chal challenge, method, uri string) (string, error) {
	var newHash func() hash.Hash
	switch strings.ToUpper(chal.algorithm) {
	case "", "MD5", "MD5-SESS":
		newHash = md5.New
	case "SHA-256", "SHA-256-SESS":
		newHash = sha256.New
	default:
		return "", fmt.Errorf("unsupported digest algorithm %q", chal.algorithm)
	}

	h := func(parts ...string) string {
		sum := newHash()
		io.WriteString(sum, strings.Join(parts, ":"))
		return hex.EncodeToString(sum.Sum(nil))
	}

	cnonce := strings.ReplaceAll(uuid.NewString(), "-", "")

	d.mu.Lock()
	d.nc++
	nc := fmt.Sprintf("%08x", d.nc)
	d.mu.Unlock()

	ha1 := h(d.creds.username, chal.realm, d.creds.password)
	if strings.HasSuffix(strings.ToUpper(chal.algorithm), "-SESS") {
		ha1 = h(ha1, chal.nonce, cnonce)
	}
	ha2 := h(method, uri)

	qop := ""
	for opt := range strings.SplitSeq(chal.qop, ",") {
		if strings.TrimSpace(opt) == "auth" {
			qop = "auth"
		}
	}

	var response string
	if qop == "" {
		response = h(ha1, chal.nonce, ha2)
	} else {
		response = h(ha1, chal.nonce, nc, cnonce, qop, ha2)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Digest username="%s", realm="%s", nonce="%s", uri="%s", response="%s"`,
		d.creds.username, chal.realm, chal.nonce, uri, response)
	if chal.algorithm != "" {
		fmt.Fprintf(&b, ", algorithm=%s", chal.algorithm)
	}
	if chal.opaque != "" {
		fmt.Fprintf(&b, `, opaque="%s"`, chal.opaque)
	}
	if qop != "" {
		fmt.Fprintf(&b, `, qop=%s, nc=%s, cnonce="%s"`, qop, nc, cnonce)
	}

	return b.String(), nil
}
