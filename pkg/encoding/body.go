package encoding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/saturnines/storefront-dispatch/pkg/errors"
)

// ContentTypeJSON is the default content-type of every non-multipart request.
const ContentTypeJSON = "application/json"

// EncodeBody serializes data as JSON text. A nil payload encodes to "null",
// matching what a JSON encoder produces for an absent value.
func EncodeBody(data any) ([]byte, error) {
	buf, err := json.Marshal(data)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrEncoding, "encode body")
	}
	return buf, nil
}

// Multipart is an already assembled multipart body.
// ContentType carries the boundary; it is not a request header.
type Multipart interface {
	Multipart() (body []byte, contentType string, err error)
}

type formPart struct {
	field    string
	filename string
	data     []byte
}

// Form builds a multipart/form-data body. The boundary is picked once,
// so encoding the same Form twice yields identical bytes.
type Form struct {
	parts    []formPart
	boundary string
}

// NewForm creates an empty Form with a random boundary
func NewForm() *Form {
	return &Form{boundary: multipart.NewWriter(io.Discard).Boundary()}
}

// AddField appends a plain text field
func (f *Form) AddField(name, value string) *Form {
	f.parts = append(f.parts, formPart{field: name, data: []byte(value)})
	return f
}

// AddFile appends a file part, reading r fully
func (f *Form) AddFile(field, filename string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}
	f.parts = append(f.parts, formPart{field: field, filename: filename, data: data})
	return nil
}

// Multipart implements Multipart
func (f *Form) Multipart() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.SetBoundary(f.boundary); err != nil {
		return nil, "", errors.WrapError(err, errors.ErrEncoding, "encode multipart")
	}

	for _, p := range f.parts {
		var (
			part io.Writer
			err  error
		)
		if p.filename != "" {
			part, err = w.CreateFormFile(p.field, p.filename)
		} else {
			part, err = w.CreateFormField(p.field)
		}
		if err != nil {
			return nil, "", errors.WrapError(err, errors.ErrEncoding, "encode multipart")
		}
		if _, err := part.Write(p.data); err != nil {
			return nil, "", errors.WrapError(err, errors.ErrEncoding, "encode multipart")
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", errors.WrapError(err, errors.ErrEncoding, "encode multipart")
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// RawMultipart passes a pre-built multipart body through untouched.
type RawMultipart struct {
	Body        []byte
	ContentType string
}

// Multipart implements Multipart
func (r RawMultipart) Multipart() ([]byte, string, error) {
	return r.Body, r.ContentType, nil
}
