// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package record models the rows submitted to a bulk job and renders them
// as the CSV body the batch endpoints accept.
//
// A Record keeps its fields in insertion order. A field whose value satisfies
// Attachment (an open *os.File is the usual case) is treated as a file to be
// uploaded rather than as a scalar; classification is structural and never
// depends on the field name.
package record

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// Attachment is a field value that refers to a local file.
type Attachment interface {
	io.Reader
	Name() string
}

// Field is a single named value of a Record.
type Field struct {
	Name  string
	Value any
}

// Record is an ordered mapping from field name to value.
type Record []Field

// New builds a Record from alternating name/value arguments.
// A trailing name without a value is stored with a nil value.
func New(pairs ...any) Record {
	r := make(Record, 0, (len(pairs)+1)/2)
	for i := 0; i < len(pairs); i += 2 {
		name := fmt.Sprint(pairs[i])
		var v any
		if i+1 < len(pairs) {
			v = pairs[i+1]
		}
		r = r.Set(name, v)
	}
	return r
}

// Get returns the value stored under name.
func (r Record) Get(name string) (any, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Set replaces the value under name, or appends the field when absent.
func (r Record) Set(name string, value any) Record {
	for i := range r {
		if r[i].Name == name {
			r[i].Value = value
			return r
		}
	}
	return append(r, Field{Name: name, Value: value})
}

// Names returns the field names in order.
func (r Record) Names() []string {
	names := make([]string, len(r))
	for i, f := range r {
		names[i] = f.Name
	}
	return names
}

// Clone returns a copy that can be rewritten without touching r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	copy(out, r)
	return out
}

// IsAttachment reports whether v refers to a local file.
func IsAttachment(v any) bool {
	_, ok := v.(Attachment)
	return ok
}

// AttachmentKeys returns the names of fields that hold an attachment in at
// least one record, in first-seen order. An empty batch yields nil.
func AttachmentKeys(records []Record) []string {
	var keys []string
	seen := make(map[string]struct{})
	for _, r := range records {
		for _, f := range r {
			if !IsAttachment(f.Value) {
				continue
			}
			if _, ok := seen[f.Name]; ok {
				continue
			}
			seen[f.Name] = struct{}{}
			keys = append(keys, f.Name)
		}
	}
	return keys
}

// Headers returns the union of field names across records in first-seen order.
func Headers(records []Record) []string {
	var headers []string
	seen := make(map[string]struct{})
	for _, r := range records {
		for _, f := range r {
			if _, ok := seen[f.Name]; ok {
				continue
			}
			seen[f.Name] = struct{}{}
			headers = append(headers, f.Name)
		}
	}
	return headers
}

// ToCSV renders records as one header row followed by one row per record.
// Fields missing from a record render as empty cells. No records (or records
// without fields) render as an empty payload.
func ToCSV(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCSV streams the CSV rendering of records to w.
func WriteCSV(w io.Writer, records []Record) error {
	headers := Headers(records)
	if len(headers) == 0 {
		return nil
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return err
	}
	row := make([]string, len(headers))
	for _, r := range records {
		for i, h := range headers {
			v, _ := r.Get(h)
			row[i] = scalar(v)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case Attachment:
		return t.Name()
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
