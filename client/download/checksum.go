package download

import (
	"encoding/hex"
	"hash"
	"strings"
)

// checksumVerifier hashes the bytes written through it. Verify compares
// the digest with the expected one, which is accepted in any case and as
// a checksum file line ("<hex>  rates.csv"). A nil verifier always passes.
type checksumVerifier struct {
	hash     hash.Hash
	expected string
	written  int64
}

func newChecksumVerifier(h hash.Hash, expected string) *checksumVerifier {
	if fields := strings.Fields(expected); len(fields) > 0 {
		expected = fields[0]
	}

	return &checksumVerifier{hash: h, expected: strings.ToLower(expected)}
}

func (v *checksumVerifier) Write(p []byte) (int, error) {
	n, err := v.hash.Write(p)
	v.written += int64(n)

	return n, err
}

func (v *checksumVerifier) Verify() error {
	if v == nil {
		return nil
	}

	actual := hex.EncodeToString(v.hash.Sum(nil))
	if actual == v.expected {
		return nil
	}

	return &Error{
		Expected: v.expected,
		Actual:   actual,
		Written:  v.written,
		Err:      ErrChecksumMismatch,
	}
}
