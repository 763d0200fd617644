package client

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/textproto"
	"net/url"
	"regexp"
	"strings"
)

var (
	jsonPattern = regexp.MustCompile(`(?i)^(?:application|text)/(?:[a-z]+(?:[.-][0-9a-z]+)*[+.]|x-)?json(?:-[a-z]+)?`)
	xmlPattern  = regexp.MustCompile(`(?i)^(?:text/|application/(?:atom\+|rss\+)?)xml`)
)

// IsJSON reports whether contentType declares a JSON body, including
// vendor types such as application/vnd.api+json.
func IsJSON(contentType string) bool {
	return jsonPattern.MatchString(contentType)
}

// IsXML reports whether contentType declares an XML body, including
// Atom and RSS feeds.
func IsXML(contentType string) bool {
	return xmlPattern.MatchString(contentType)
}

// Response is a fully read HTTP response along with the request line
// and headers that produced it.
type Response struct {
	StatusCode int
	// StatusLine is the first response line, e.g. "HTTP/1.1 404 Not Found".
	StatusLine string
	Proto      string
	Header     http.Header
	// RequestLine and RequestHeader describe the request as it left the
	// client, after every transport layer had modified it.
	RequestLine   string
	RequestHeader http.Header
	URL           *url.URL
	ContentType   string
	Raw           []byte
	// Body is Raw decoded by content type: the result of the client's
	// JSONDecoder for JSON, an *XMLNode for XML, and Raw itself otherwise
	// or when decoding fails.
	Body any

	cookies []*http.Cookie
}

func (c *Client) newResponse(r *http.Response, sent *sentRequest, raw []byte) *Response {
	resp := Response{
		StatusCode:    r.StatusCode,
		StatusLine:    statusLine(r),
		Proto:         r.Proto,
		Header:        r.Header,
		RequestLine:   sent.line,
		RequestHeader: sent.header,
		ContentType:   r.Header.Get("Content-Type"),
		Raw:           raw,
		cookies:       r.Cookies(),
	}

	if r.Request != nil {
		resp.URL = r.Request.URL
	}

	resp.Body = c.decodeBody(resp.ContentType, raw)

	return &resp
}

func statusLine(r *http.Response) string {
	proto := r.Proto
	if proto == "" {
		proto = "HTTP/1.1"
	}

	status := r.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", r.StatusCode, http.StatusText(r.StatusCode))
	}

	return proto + " " + status
}

func (c *Client) decodeBody(contentType string, raw []byte) any {
	if len(raw) == 0 {
		return raw
	}

	switch {
	case IsJSON(contentType):
		v, err := c.jsonDecoder(raw)
		if err != nil {
			c.logger.Debug("response body is not valid json", "error", err)
			return raw
		}
		return v

	case IsXML(contentType):
		var node XMLNode
		if err := xml.Unmarshal(raw, &node); err != nil {
			c.logger.Debug("response body is not valid xml", "error", err)
			return raw
		}
		return &node
	}

	return raw
}

func decodeJSON(data []byte) (any, error) {
	d := json.NewDecoder(bytes.NewReader(data))
	d.UseNumber()

	var v any
	if err := d.Decode(&v); err != nil {
		return nil, err
	}

	return v, nil
}

// Decode unmarshals the raw body into v, as XML when the response
// declares an XML content type and as JSON otherwise.
func (r *Response) Decode(v any) error {
	return r.decode(v, false)
}

func (r *Response) decode(v any, useJSONNum bool) error {
	if len(r.Raw) == 0 {
		return errors.New("empty response body")
	}

	if IsXML(r.ContentType) {
		return xml.Unmarshal(r.Raw, v)
	}

	d := json.NewDecoder(bytes.NewReader(r.Raw))
	if useJSONNum {
		d.UseNumber()
	}

	return d.Decode(v)
}

// HeaderValue returns every value of the response header key joined
// with a comma, or "" when it is absent.
func (r *Response) HeaderValue(key string) string {
	return strings.Join(r.Header.Values(key), ",")
}

// RawHeader renders the status line and headers as they appear on the
// wire. [ParseHeaders] reverses it.
func (r *Response) RawHeader() string {
	var b strings.Builder
	b.WriteString(r.StatusLine)
	b.WriteString("\r\n")
	_ = r.Header.Write(&b)
	b.WriteString("\r\n")

	return b.String()
}

// Cookie returns the value of the cookie set by the response.
func (r *Response) Cookie(name string) (string, bool) {
	for _, ck := range r.cookies {
		if ck.Name == name {
			return ck.Value, true
		}
	}

	return "", false
}

// Cookies returns every cookie set by the response.
func (r *Response) Cookies() []*http.Cookie {
	return r.cookies
}

// ParseHeaders parses a raw header block into its first line and its
// headers. When raw holds several blocks, as it does after redirects or
// a 100 Continue, the last block starting with "HTTP/" wins. Without
// such a block the line and headers are empty. Repeated keys are joined
// with a comma.
func ParseHeaders(raw string) (string, http.Header) {
	blocks := strings.Split(raw, "\r\n\r\n")

	var block string
	for i := len(blocks) - 1; i >= 0; i-- {
		if hasPrefixFold(blocks[i], "HTTP/") {
			block = blocks[i]
			break
		}
	}
	if block == "" {
		return "", make(http.Header)
	}

	var lines []string
	for line := range strings.SplitSeq(block, "\r\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}

	header := make(http.Header)
	if len(lines) == 0 {
		return "", header
	}

	for _, line := range lines[1:] {
		key, value, _ := strings.Cut(line, ":")
		key = textproto.CanonicalMIMEHeaderKey(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		if prev, ok := header[key]; ok {
			header[key] = []string{prev[0] + "," + value}
			continue
		}
		header[key] = []string{value}
	}

	return lines[0], header
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// XMLNode is a generic XML element tree.
type XMLNode struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Content string     `xml:",chardata"`
	Nodes   []XMLNode  `xml:",any"`
}

// Text returns the element's character data without surrounding space.
func (n *XMLNode) Text() string {
	return strings.TrimSpace(n.Content)
}

// Attr returns the value of the attribute with the given local name.
func (n *XMLNode) Attr(name string) string {
	for _, attr := range n.Attrs {
		if attr.Name.Local == name {
			return attr.Value
		}
	}

	return ""
}

// Find returns the first child element with the given local name.
func (n *XMLNode) Find(name string) *XMLNode {
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == name {
			return &n.Nodes[i]
		}
	}

	return nil
}
