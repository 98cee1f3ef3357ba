package api

import (
	"bytes"
	"io"
	"mime/multipart"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/olympia/core/keycase"
)

// Multipart is a multipart/form-data request body. It is sent as is: field names are not converted.
type Multipart struct {
	Fields map[string]string
	Files  []FormFile
}

type FormFile struct {
	Field    string
	Filename string
	Content  io.Reader
}

var _ keycase.Opaque = (*Multipart)(nil)

func (*Multipart) OpaqueJSON() {}

func (m *Multipart) AddField(name, value string) *Multipart {
	if m.Fields == nil {
		m.Fields = make(map[string]string)
	}
	m.Fields[name] = value
	return m
}

func (m *Multipart) AddFile(field, filename string, content io.Reader) *Multipart {
	m.Files = append(m.Files, FormFile{Field: field, Filename: filename, Content: content})
	return m
}

// Encode writes the form, fields first (sorted by name) then files, and returns the body and its content type.
func (m *Multipart) Encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	names := make([]string, 0, len(m.Fields))
	for name := range m.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := w.WriteField(name, m.Fields[name]); err != nil {
			return nil, "", errors.Wrapf(err, "writing field %q", name)
		}
	}

	for _, f := range m.Files {
		part, err := w.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return nil, "", errors.Wrapf(err, "creating file %q", f.Field)
		}
		if _, err = io.Copy(part, f.Content); err != nil {
			return nil, "", errors.Wrapf(err, "writing file %q", f.Field)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", errors.Wrap(err, "closing multipart writer")
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
