package api

import (
	"bytes"
	"io"
	"mime/multipart"
)

// Progress reports bytes sent out of total.
type Progress func(sent, total int64)

// Multipart is an ordered multipart/form-data body. Empty values are
// skipped, matching how the dashboard drops null/undefined fields.
type Multipart struct {
	fields   []field
	files    []file
	progress Progress
}

type field struct{ name, value string }

type file struct {
	field, name string
	r           io.Reader
}

func NewMultipart() *Multipart { return &Multipart{} }

func (m *Multipart) Field(name, value string) *Multipart {
	if value != "" {
		m.fields = append(m.fields, field{name, value})
	}
	return m
}

// Set adds name even when value is empty.
func (m *Multipart) Set(name, value string) *Multipart {
	m.fields = append(m.fields, field{name, value})
	return m
}

// File attaches r under field; a nil reader is ignored.
func (m *Multipart) File(fieldName, fileName string, r io.Reader) *Multipart {
	if r != nil {
		m.files = append(m.files, file{fieldName, fileName, r})
	}
	return m
}

func (m *Multipart) OnProgress(p Progress) *Multipart {
	m.progress = p
	return m
}

func (m *Multipart) HasFile() bool { return len(m.files) > 0 }

// Value returns the first value set for name.
func (m *Multipart) Value(name string) (string, bool) {
	for _, f := range m.fields {
		if f.name == name {
			return f.value, true
		}
	}
	return "", false
}

func (m *Multipart) encode() (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range m.fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}
	for _, f := range m.files {
		part, err := w.CreateFormFile(f.field, f.name)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, f.r); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func (m *Multipart) track(r io.Reader, total int64) io.Reader {
	if m.progress == nil {
		return r
	}
	return &progressReader{r: r, total: total, fn: m.progress}
}

type progressReader struct {
	r     io.Reader
	sent  int64
	total int64
	fn    Progress
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.fn(p.sent, p.total)
	}
	return n, err
}

// Percent rounds sent/total to a 0..100 integer.
func Percent(sent, total int64) int {
	if total <= 0 {
		return 0
	}
	pct := (sent*100 + total/2) / total
	if pct > 100 {
		pct = 100
	}
	return int(pct)
}
