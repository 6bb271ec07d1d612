package upload

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "TransactionID,UserID,Date,Amount,Transaction Type\nT1,U1,2024-01-01,100,Credit\n"

type formPart struct {
	field    string
	fileName string
	content  string
}

func multipartRequest(t *testing.T, parts ...formPart) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, p := range parts {
		if p.fileName == "" {
			require.NoError(t, mw.WriteField(p.field, p.content))
			continue
		}
		w, err := mw.CreateFormFile(p.field, p.fileName)
		require.NoError(t, err)
		_, err = w.Write([]byte(p.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/analyze-transactions", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func newTestReceiver(t *testing.T, maxBytes int64) (*Receiver, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "uploads")
	r, err := NewReceiver(Config{Dir: dir, MaxBytes: maxBytes, Patterns: []string{"*.csv"}})
	require.NoError(t, err)
	return r, dir
}

func dirEntries(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return entries
}

func TestReceiveStoresFile(t *testing.T) {
	r, dir := newTestReceiver(t, 1024)

	f, err := r.Receive(multipartRequest(t,
		formPart{field: "comment", content: "monthly export"},
		formPart{field: "file", fileName: "transactions.csv", content: sampleCSV},
	), "file")
	require.NoError(t, err)

	assert.Equal(t, "transactions.csv", f.Name)
	assert.EqualValues(t, len(sampleCSV), f.Size)
	assert.Equal(t, dir, filepath.Dir(f.Path))

	data, err := os.ReadFile(f.Path)
	require.NoError(t, err)
	assert.Equal(t, sampleCSV, string(data))

	require.NoError(t, f.Remove())
	assert.Empty(t, dirEntries(t, dir))
	assert.NoError(t, f.Remove(), "second remove is a no-op")
}

func TestReceiveErrors(t *testing.T) {
	png := "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01"

	tests := []struct {
		name    string
		req     func(t *testing.T) *http.Request
		wantErr error
	}{
		{
			name: "no parts",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t)
			},
			wantErr: ErrNoFile,
		},
		{
			name: "wrong field name",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, formPart{field: "upload", fileName: "a.csv", content: sampleCSV})
			},
			wantErr: ErrNoFile,
		},
		{
			name: "field without a file",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, formPart{field: "file", content: sampleCSV})
			},
			wantErr: ErrNoFile,
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/analyze-transactions", strings.NewReader(sampleCSV))
				req.Header.Set("Content-Type", "text/csv")
				return req
			},
			wantErr: ErrNoFile,
		},
		{
			name: "wrong extension",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, formPart{field: "file", fileName: "transactions.txt", content: sampleCSV})
			},
			wantErr: ErrFileType,
		},
		{
			name: "binary content",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, formPart{field: "file", fileName: "image.csv", content: png})
			},
			wantErr: ErrFileType,
		},
		{
			name: "too large",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, formPart{field: "file", fileName: "big.csv", content: strings.Repeat("a,b\n", 300)})
			},
			wantErr: ErrTooLarge,
		},
		{
			name: "truncated body",
			req: func(t *testing.T) *http.Request {
				req := multipartRequest(t, formPart{field: "file", fileName: "a.csv", content: sampleCSV})
				body := new(bytes.Buffer)
				_, err := body.ReadFrom(req.Body)
				require.NoError(t, err)
				trunc := httptest.NewRequest(http.MethodPost, "/analyze-transactions", bytes.NewReader(body.Bytes()[:body.Len()-20]))
				trunc.Header.Set("Content-Type", req.Header.Get("Content-Type"))
				return trunc
			},
			wantErr: ErrMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, dir := newTestReceiver(t, 1024)

			f, err := r.Receive(tt.req(t), "file")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, f)
			assert.Empty(t, dirEntries(t, dir), "nothing left on disk")
		})
	}
}

func TestReceiveExactlyAtLimit(t *testing.T) {
	content := strings.Repeat("x", 64)
	r, _ := newTestReceiver(t, int64(len(content)))

	f, err := r.Receive(multipartRequest(t, formPart{field: "file", fileName: "a.csv", content: content}), "file")
	require.NoError(t, err)
	defer f.Remove()
	assert.EqualValues(t, 64, f.Size)
}

func TestReceiveRequestBodyLimit(t *testing.T) {
	r, dir := newTestReceiver(t, 1<<20)
	req := multipartRequest(t, formPart{field: "file", fileName: "a.csv", content: strings.Repeat("a,b\n", 100_000)})
	req.Body = http.MaxBytesReader(httptest.NewRecorder(), req.Body, 512)

	_, err := r.Receive(req, "file")
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Empty(t, dirEntries(t, dir))
}

func TestNewReceiver(t *testing.T) {
	_, err := NewReceiver(Config{Dir: t.TempDir(), MaxBytes: 0})
	assert.Error(t, err)

	r, err := NewReceiver(Config{Dir: t.TempDir(), MaxBytes: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 10, r.MaxBytes())
	assert.Greater(t, r.MaxBodyBytes(), r.MaxBytes())
}
