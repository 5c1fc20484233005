// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package packager turns a batch of records into the body of a bulk batch.
//
// Records without attachments become a plain CSV body. Records that carry
// attachments become a ZIP archive holding every referenced file at its
// root-relative path plus a CSV manifest (request.txt) in which each
// attachment value is replaced by "#<relative path>".
package packager

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bferrors "bulkforce/cli/internal/errors"
	"bulkforce/cli/internal/record"
)

// ContentType is the job content type a payload must be submitted with.
type ContentType string

const (
	ContentCSV    ContentType = "CSV"
	ContentZipCSV ContentType = "ZIP_CSV"
)

// ManifestName is the archive entry holding the CSV request.
const ManifestName = "request.txt"

// referencePrefix marks a CSV cell as a pointer into the archive.
const referencePrefix = "#"

// Options configures a Packager.
type Options struct {
	// Root is the directory attachment paths are made relative to.
	// Empty means the filesystem root of each attachment.
	Root string
	// TempDir is where archives are written. Empty means os.TempDir().
	TempDir string
	// Logger receives debug output about skipped duplicates.
	Logger *zap.Logger
}

// Packager builds payloads. It holds no per-call state and may be shared.
type Packager struct {
	root    string
	tempDir string
	log     *zap.Logger
}

// New creates a Packager.
func New(opts Options) *Packager {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Packager{root: opts.Root, tempDir: opts.TempDir, log: log}
}

// Payload is the packaged form of one batch.
type Payload struct {
	ContentType ContentType
	// Data is the CSV body for ContentCSV payloads.
	Data []byte
	// ArchivePath is the ZIP file for ContentZipCSV payloads.
	ArchivePath string
	// Manifest is the CSV stored under ManifestName in the archive.
	Manifest []byte
	// Entries lists archive entry names in the order they were added.
	Entries []string
	// Records are the submitted records, attachments replaced by references.
	Records []record.Record
}

// Cleanup removes the temporary files backing p. Safe to call more than once.
func (p *Payload) Cleanup() error {
	if p == nil || p.ArchivePath == "" {
		return nil
	}
	err := os.Remove(p.ArchivePath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Package classifies records and builds the matching payload.
func (pk *Packager) Package(records []record.Record) (*Payload, error) {
	keys := record.AttachmentKeys(records)
	if len(keys) == 0 {
		data, err := record.ToCSV(records)
		if err != nil {
			return nil, &bferrors.PackagingError{Path: ManifestName, Err: err}
		}
		return &Payload{ContentType: ContentCSV, Data: data, Records: records}, nil
	}
	return pk.archive(records, keys)
}

func (pk *Packager) archive(records []record.Record, keys []string) (p *Payload, err error) {
	dir := pk.tempDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, fmt.Sprintf("bulk_upload-%s.zip", uuid.NewString()))

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, &bferrors.PackagingError{Path: path, Err: err}
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(path)
		}
	}()

	zw := zip.NewWriter(f)
	rewritten := make([]record.Record, len(records))
	for i, r := range records {
		rewritten[i] = r.Clone()
	}

	var entries []string
	seen := make(map[string]struct{})
	for _, key := range keys {
		for i, r := range rewritten {
			v, _ := r.Get(key)
			att, ok := v.(record.Attachment)
			if !ok {
				continue
			}
			abs, err := filepath.Abs(att.Name())
			if err != nil {
				return nil, &bferrors.PackagingError{Path: att.Name(), Err: err}
			}
			rel, err := pk.relative(abs)
			if err != nil {
				return nil, &bferrors.PackagingError{Path: abs, Err: err}
			}
			rewritten[i] = r.Set(key, referencePrefix+rel)

			if _, dup := seen[rel]; dup {
				pk.log.Debug("attachment already archived", zap.String("entry", rel))
				continue
			}
			if err := addFile(zw, rel, abs); err != nil {
				return nil, &bferrors.PackagingError{Path: abs, Err: err}
			}
			seen[rel] = struct{}{}
			entries = append(entries, rel)
		}
	}

	manifest, err := record.ToCSV(rewritten)
	if err != nil {
		return nil, &bferrors.PackagingError{Path: ManifestName, Err: err}
	}
	w, err := zw.Create(ManifestName)
	if err != nil {
		return nil, &bferrors.PackagingError{Path: ManifestName, Err: err}
	}
	if _, err := w.Write(manifest); err != nil {
		return nil, &bferrors.PackagingError{Path: ManifestName, Err: err}
	}
	entries = append(entries, ManifestName)

	if err := zw.Close(); err != nil {
		return nil, &bferrors.PackagingError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return nil, &bferrors.PackagingError{Path: path, Err: err}
	}

	pk.log.Debug("archive packaged",
		zap.String("path", path),
		zap.Int("entries", len(entries)),
		zap.Int("records", len(records)))

	return &Payload{
		ContentType: ContentZipCSV,
		ArchivePath: path,
		Manifest:    manifest,
		Entries:     entries,
		Records:     rewritten,
	}, nil
}

// relative maps an absolute path to its slash-separated archive name.
func (pk *Packager) relative(abs string) (string, error) {
	var rel string
	if pk.root == "" {
		rel = strings.TrimPrefix(abs, filepath.VolumeName(abs))
		rel = strings.TrimLeft(rel, `/\`)
	} else {
		root, err := filepath.Abs(pk.root)
		if err != nil {
			return "", err
		}
		rel, err = filepath.Rel(root, abs)
		if err != nil {
			return "", err
		}
		if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("outside attachment root %s", root)
		}
	}
	rel = filepath.ToSlash(rel)
	if rel == "" || rel == "." || rel == ManifestName {
		return "", fmt.Errorf("invalid archive name %q", rel)
	}
	return rel, nil
}

func addFile(zw *zip.Writer, name, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}

	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
