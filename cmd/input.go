// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	bferrors "bulkforce/cli/internal/errors"
	"bulkforce/cli/internal/record"
)

// readRecords parses a CSV file with a header row into records. Values in
// attachmentFields are paths, relative to the CSV file's directory, and are
// opened as files. The returned close function releases them.
func readRecords(path string, attachmentFields []string) ([]record.Record, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, bferrors.Wrap(bferrors.Config, "open input", err)
	}
	defer f.Close()

	var opened []*os.File
	closeAll := func() error {
		var errs []error
		for _, o := range opened {
			errs = append(errs, o.Close())
		}
		return errors.Join(errs...)
	}

	records, err := parseRecords(f, filepath.Dir(path), attachmentFields, func(p string) (*os.File, error) {
		o, err := os.Open(p)
		if err == nil {
			opened = append(opened, o)
		}
		return o, err
	})
	if err != nil {
		_ = closeAll()
		return nil, nil, err
	}
	return records, closeAll, nil
}

func parseRecords(r io.Reader, dir string, attachmentFields []string, open func(string) (*os.File, error)) ([]record.Record, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, bferrors.Wrap(bferrors.Config, "read csv header", err)
	}
	for _, name := range attachmentFields {
		if !slices.Contains(header, name) {
			return nil, bferrors.New(bferrors.Config, fmt.Sprintf("attachment field %q is not a column", name))
		}
	}

	var out []record.Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, bferrors.Wrap(bferrors.Config, "read csv", err)
		}

		rec := make(record.Record, 0, len(header))
		for i, name := range header {
			if !slices.Contains(attachmentFields, name) {
				rec = rec.Set(name, row[i])
				continue
			}
			if row[i] == "" {
				rec = rec.Set(name, nil)
				continue
			}
			p := row[i]
			if !filepath.IsAbs(p) {
				p = filepath.Join(dir, p)
			}
			file, err := open(p)
			if err != nil {
				return nil, &bferrors.PackagingError{Path: p, Err: fmt.Errorf("line %d: %w", line, err)}
			}
			rec = rec.Set(name, file)
		}
		out = append(out, rec)
	}
}
