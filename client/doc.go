// Package client provides the HTTP transport used to talk to the tax
// service, built on [net/http].
//
// # Building a Client
//
// Use [Build] to create a [Client] with functional options:
//
//	c, err := client.Build(
//		client.WithBaseURL("https://tax.example.com"),
//		client.WithHeader("Authorization", "AvalaraAuth "+key),
//		client.WithTimeout(10 * time.Second),
//	)
//
// # Making Requests
//
// The verb helpers resolve a reference against the base URL, encode the
// body and return the decoded [Response]:
//
//	resp, err := c.Post(ctx, "/v2/address/resolve", address)
//	var out Resolved
//	err = resp.Decode(&out)
//
// For full control construct a [URL] and [Request], then execute it with
// [Client.Do]:
//
//	u := client.URL("https", "api.example.com", "/v1/resource")
//	req, err := client.Request(ctx, u, http.MethodGet)
//	resp, err := c.Do(req, client.WithDestination(&result))
//
// # Errors
//
// A call fails with a [*TransportError] when no response arrived and a
// [*StatusError] for 4xx and 5xx responses. [Classify] reduces either
// to a code and a message.
//
// # Downloading Files
//
// Stream a response body directly to disk with optional checksum
// verification and progress reporting:
//
//	err = c.Download(req, "/tmp/rates.csv",
//		client.WithChecksum(sha256.New(), expectedHex),
//		client.WithProgress(),
//	)
package client
