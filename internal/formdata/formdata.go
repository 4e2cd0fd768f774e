// Package formdata implements a multipart/form-data decoder scoped to the two
// part kinds the API uses: plain text fields and uploaded files. Uploaded
// files are written to disk under a collision-resistant generated name.
package formdata

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// File describes an uploaded file persisted to the upload directory.
type File struct {
	OriginalFilename string
	Filename         string
	Path             string
	ContentType      string
	Size             int64
}

// Form is the result of decoding a multipart body.
type Form struct {
	Fields map[string]string
	Files  map[string]File
}

// ErrNotMultipart indicates the request Content-Type is not multipart/form-data
// or carries no boundary.
var ErrNotMultipart = errors.New("content type is not multipart/form-data")

var (
	nameRe     = regexp.MustCompile(`name="([^"]+)"`)
	filenameRe = regexp.MustCompile(`filename="([^"]+)"`)
	partTypeRe = regexp.MustCompile(`Content-Type: ([^\r\n]+)`)
	unsafeRe   = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// Boundary extracts the boundary token from a Content-Type header value.
func Boundary(contentType string) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "multipart/form-data" {
		return "", ErrNotMultipart
	}
	boundary := params["boundary"]
	if boundary == "" {
		return "", ErrNotMultipart
	}
	return boundary, nil
}

// Decode splits body into parts delimited by the boundary and classifies each
// part as a field or a file. File contents are saved under uploadDir. Parts
// without a header/body separator or without a name attribute are skipped;
// callers validate required fields afterwards.
func Decode(body []byte, boundary, uploadDir string) (*Form, error) {
	delim := []byte("--" + boundary)
	form := &Form{
		Fields: map[string]string{},
		Files:  map[string]File{},
	}

	var parts [][]byte
	idx := bytes.Index(body, delim)
	for idx != -1 {
		next := bytes.Index(body[idx+len(delim):], delim)
		if next == -1 {
			break
		}
		next += idx + len(delim)
		parts = append(parts, body[idx+len(delim):next])
		idx = next
	}

	for _, part := range parts {
		if len(part) < 4 {
			continue
		}
		sep := bytes.Index(part, []byte("\r\n\r\n"))
		if sep == -1 {
			continue
		}
		headers := string(part[:sep])
		content := part[sep+4:]
		// Strip the trailing \r\n preceding the next boundary marker.
		if len(content) >= 2 {
			content = content[:len(content)-2]
		}

		nameMatch := nameRe.FindStringSubmatch(headers)
		if nameMatch == nil {
			continue
		}
		fieldName := nameMatch[1]

		filenameMatch := filenameRe.FindStringSubmatch(headers)
		if filenameMatch == nil {
			form.Fields[fieldName] = string(content)
			continue
		}

		contentType := "application/octet-stream"
		if m := partTypeRe.FindStringSubmatch(headers); m != nil {
			contentType = strings.TrimSpace(m[1])
		}

		saved, err := saveFile(content, filenameMatch[1], contentType, uploadDir)
		if err != nil {
			// Don't leave earlier parts of a failed body on disk.
			for _, f := range form.Files {
				_ = f.Remove()
			}
			return nil, fmt.Errorf("save uploaded file %q: %w", filenameMatch[1], err)
		}
		form.Files[fieldName] = saved
	}

	return form, nil
}

// saveFile writes content under a name built from the sanitized basename plus
// a timestamp, preserving the original extension.
func saveFile(content []byte, originalFilename, contentType, uploadDir string) (File, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return File{}, err
	}
	ext := filepath.Ext(originalFilename)
	base := strings.TrimSuffix(filepath.Base(originalFilename), ext)
	safe := unsafeRe.ReplaceAllString(base, "_")
	name := safe + "_" + strconv.FormatInt(time.Now().UnixMilli(), 10) + ext

	path := filepath.Join(uploadDir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return File{}, err
	}
	return File{
		OriginalFilename: originalFilename,
		Filename:         name,
		Path:             path,
		ContentType:      contentType,
		Size:             int64(len(content)),
	}, nil
}

// Remove deletes a previously saved upload. Used as compensation when
// validation or persistence fails after the file was written.
func (f File) Remove() error {
	if f.Path == "" {
		return nil
	}
	return os.Remove(f.Path)
}
