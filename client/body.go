package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/adamwoolhether/avatax16/query"
)

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// File is a form value uploaded as a multipart file part.
type File struct {
	// Path is the file read from disk.
	Path string
	// Name is the filename sent for the part. It defaults to the base
	// name of Path.
	Name string
	// ContentType is the part's type. It is detected from the file
	// content when empty.
	ContentType string
}

// EncodeBody encodes data as a request body. contentType is the
// Content-Type the caller intends to send, or "" when unset. It returns
// the body and the Content-Type the encoding implies, which is "" for
// raw bodies.
//
//   - nil yields no body.
//   - []byte, string and io.Reader are sent unchanged.
//   - url.Values is form encoded.
//   - A map holding a [File] value is sent as multipart/form-data.
//   - Other maps and slices are JSON when contentType is a JSON type.
//     Otherwise nested data uses bracketed keys (see [query.Build]) and
//     flat data is plain form encoded.
//   - Any other value is JSON.
func EncodeBody(data any, contentType string) (io.Reader, string, error) {
	switch b := data.(type) {
	case nil:
		return nil, "", nil
	case json.RawMessage:
		return bytes.NewReader(b), contentTypeJSON, nil
	case []byte:
		return bytes.NewReader(b), "", nil
	case string:
		return strings.NewReader(b), "", nil
	case io.Reader:
		return b, "", nil
	case url.Values:
		return strings.NewReader(b.Encode()), contentTypeForm, nil
	}

	if !query.IsContainer(data) {
		return encodeJSON(data, contentType)
	}

	if form, ok := data.(map[string]any); ok && hasFile(form) {
		return encodeMultipart(form)
	}

	switch {
	case IsJSON(contentType):
		return encodeJSON(data, contentType)
	case query.IsMultiDim(data):
		return strings.NewReader(query.Build(data)), contentTypeForm, nil
	default:
		return strings.NewReader(query.Encode(data)), contentTypeForm, nil
	}
}

func encodeJSON(data any, contentType string) (io.Reader, string, error) {
	var payload bytes.Buffer
	if err := json.NewEncoder(&payload).Encode(data); err != nil {
		return nil, "", fmt.Errorf("encoding json: %w", err)
	}

	if !IsJSON(contentType) {
		contentType = contentTypeJSON
	}

	return &payload, contentType, nil
}

func hasFile(form map[string]any) bool {
	for _, v := range form {
		switch v.(type) {
		case File, *File:
			return true
		}
	}

	return false
}

func encodeMultipart(form map[string]any) (io.Reader, string, error) {
	var payload bytes.Buffer
	mw := multipart.NewWriter(&payload)

	fields := make(map[string]any, len(form))
	files := make(map[string]File)
	for k, v := range form {
		switch f := v.(type) {
		case File:
			files[k] = f
		case *File:
			files[k] = *f
		default:
			fields[k] = v
		}
	}

	values := query.Values(fields)
	for _, key := range slices.Sorted(maps.Keys(values)) {
		for _, v := range values[key] {
			if err := mw.WriteField(key, v); err != nil {
				return nil, "", fmt.Errorf("writing field %s: %w", key, err)
			}
		}
	}

	for _, key := range slices.Sorted(maps.Keys(files)) {
		if err := writeFile(mw, key, files[key]); err != nil {
			return nil, "", err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart writer: %w", err)
	}

	return &payload, mw.FormDataContentType(), nil
}

func writeFile(mw *multipart.Writer, field string, f File) error {
	contentType := f.ContentType
	if contentType == "" {
		mtype, err := mimetype.DetectFile(f.Path)
		if err != nil {
			return fmt.Errorf("detecting type of %s: %w", f.Path, err)
		}
		contentType = mtype.String()
	}

	name := f.Name
	if name == "" {
		name = filepath.Base(f.Path)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, name))
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("creating part %s: %w", field, err)
	}

	file, err := os.Open(f.Path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", f.Path, err)
	}
	defer file.Close()

	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copying %s: %w", f.Path, err)
	}

	return nil
}

func isMultipart(contentType string) bool {
	return strings.HasPrefix(contentType, "multipart/")
}
