// Package upload receives a single file from a multipart request into a
// temporary file, enforcing name patterns, a size cap and a text-content check.
package upload

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/remiges-tech/txnanalyzer/validations"
)

var (
	ErrNoFile    = errors.New("no file uploaded")
	ErrFileType  = errors.New("file type not allowed")
	ErrTooLarge  = errors.New("file too large")
	ErrMalformed = errors.New("malformed multipart request")
)

// multipartOverhead is the room left above MaxBytes for boundaries, part
// headers and other form fields.
const multipartOverhead = 64 * 1024

type Config struct {
	Dir      string
	MaxBytes int64
	Patterns []string
}

// File is an uploaded file stored on local disk. The caller owns it and must
// call Remove.
type File struct {
	Name string
	Path string
	Size int64
}

// Remove deletes the stored file. Removing a file that is already gone is not an error.
func (f *File) Remove() error {
	if f == nil || f.Path == "" {
		return nil
	}
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

type Receiver struct {
	cfg Config
}

// NewReceiver creates the upload directory if needed.
func NewReceiver(cfg Config) (*Receiver, error) {
	if cfg.MaxBytes <= 0 {
		return nil, fmt.Errorf("max upload size must be positive, got %d", cfg.MaxBytes)
	}
	if cfg.Dir == "" {
		cfg.Dir = os.TempDir()
	}
	if err := os.MkdirAll(cfg.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	return &Receiver{cfg: cfg}, nil
}

// MaxBytes is the largest file the receiver accepts.
func (r *Receiver) MaxBytes() int64 {
	return r.cfg.MaxBytes
}

// MaxBodyBytes is the request body limit to apply with http.MaxBytesReader.
func (r *Receiver) MaxBodyBytes() int64 {
	return r.cfg.MaxBytes + multipartOverhead
}

// Receive streams the first file part named field to a new file in the
// upload directory. Other parts are skipped. On error nothing is left on disk.
func (r *Receiver) Receive(req *http.Request, field string) (*File, error) {
	mr, err := req.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoFile, err)
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, ErrNoFile
		}
		if err != nil {
			return nil, classify(err)
		}
		if part.FormName() != field || part.FileName() == "" {
			part.Close()
			continue
		}
		f, err := r.store(part)
		part.Close()
		return f, err
	}
}

func (r *Receiver) store(part *multipart.Part) (*File, error) {
	name := part.FileName()
	if !validations.MatchesAnyPattern(name, r.cfg.Patterns) {
		return nil, fmt.Errorf("%w: %s", ErrFileType, name)
	}

	br := bufio.NewReaderSize(part, validations.SniffLen)
	head, err := br.Peek(validations.SniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, classify(err)
	}
	if !validations.IsTextContent(head) {
		return nil, fmt.Errorf("%w: %s has %s content", ErrFileType, name, validations.DetectContentType(head))
	}

	path := filepath.Join(r.cfg.Dir, uuid.NewString()+".upload")
	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}

	n, err := io.Copy(out, io.LimitReader(br, r.cfg.MaxBytes+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > r.cfg.MaxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		os.Remove(path)
		return nil, classify(err)
	}
	return &File{Name: name, Path: path, Size: n}, nil
}

func classify(err error) error {
	var mbe *http.MaxBytesError
	switch {
	case errors.Is(err, ErrTooLarge):
		return err
	case errors.As(err, &mbe):
		return fmt.Errorf("%w: %v", ErrTooLarge, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
