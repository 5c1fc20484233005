// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

package record

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T, name string) *os.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))
	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestAttachmentKeys(t *testing.T) {
	pdf := openTemp(t, "a.pdf")

	tests := []struct {
		name    string
		records []Record
		want    []string
	}{
		{
			name:    "empty batch",
			records: nil,
			want:    nil,
		},
		{
			name:    "scalars only",
			records: []Record{New("Name", "Acme", "Employees", 12)},
			want:    nil,
		},
		{
			name:    "file value",
			records: []Record{New("ParentId", "00Kk0001908kqkDEAQ", "Body", pdf)},
			want:    []string{"Body"},
		},
		{
			name: "attachment in a later record only",
			records: []Record{
				New("ParentId", "1", "Body", nil),
				New("ParentId", "2", "Body", pdf),
			},
			want: []string{"Body"},
		},
		{
			name:    "path string is a scalar",
			records: []Record{New("Body", pdf.Name())},
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AttachmentKeys(tt.records))
		})
	}
}

func TestToCSV(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
		want    string
	}{
		{
			name:    "single record",
			records: []Record{New("Name", "Acme")},
			want:    "Name\nAcme\n",
		},
		{
			name:    "no records",
			records: nil,
			want:    "",
		},
		{
			name: "header union in first-seen order",
			records: []Record{
				New("Name", "Acme", "Phone", "555"),
				New("Name", "Globex", "Website", "globex.example"),
			},
			want: "Name,Phone,Website\nAcme,555,\nGlobex,,globex.example\n",
		},
		{
			name:    "escaping",
			records: []Record{New("Description", "a, \"quoted\"\nvalue")},
			want:    "Description\n\"a, \"\"quoted\"\"\nvalue\"\n",
		},
		{
			name:    "nil and numbers",
			records: []Record{New("Amount", 10.5, "Closed", false, "Owner", nil)},
			want:    "Amount,Closed,Owner\n10.5,false,\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToCSV(tt.records)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestRecordSetKeepsOrder(t *testing.T) {
	r := New("B", 1, "A", 2)
	r = r.Set("B", 3)
	r = r.Set("C", 4)

	assert.Equal(t, []string{"B", "A", "C"}, r.Names())
	v, ok := r.Get("B")
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	clone := r.Clone()
	clone.Set("A", "changed")
	orig, _ := r.Get("A")
	assert.Equal(t, 2, orig)
}
