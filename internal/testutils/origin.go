// Package testutils provides shared test infrastructure: a stand-in for
// the trip-record origin and, behind the integration tag, a MinIO bucket
// destination.
package testutils

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"path"
	"strconv"
	"sync"
	"testing"

	"github.com/ligustah/tlcfetch/internal/catalog"
)

// ParquetFile generates a deterministic file body of the given size that
// starts and ends with the parquet magic.
func ParquetFile(size int, seed byte) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i%251) + seed
	}
	if size >= 8 {
		copy(data, "PAR1")
		copy(data[size-4:], "PAR1")
	}
	return data
}

// Origin serves trip-record files by name, like the public CDN.
type Origin struct {
	*httptest.Server

	mu       sync.Mutex
	files    map[string][]byte
	failures map[string]int
	requests map[string]int
}

// NewOrigin starts an origin with no files. Every unknown name is a 404.
func NewOrigin(t *testing.T) *Origin {
	t.Helper()

	o := &Origin{
		files:    make(map[string][]byte),
		failures: make(map[string]int),
		requests: make(map[string]int),
	}
	o.Server = httptest.NewServer(http.HandlerFunc(o.serve))
	t.Cleanup(o.Close)
	return o
}

// StartOrigin starts an origin serving one file per category and month.
// Sizes differ slightly per file so that mix-ups are detectable.
func StartOrigin(t *testing.T, categories []catalog.Category, months []catalog.Month, size int) *Origin {
	t.Helper()

	o := NewOrigin(t)
	for i, c := range categories {
		for j, m := range months {
			o.Add(catalog.FileName(c, m), ParquetFile(size+i*100+j, byte(i+j)))
		}
	}
	return o
}

func (o *Origin) serve(w http.ResponseWriter, r *http.Request) {
	name := path.Base(r.URL.Path)

	o.mu.Lock()
	o.requests[name]++
	fail := o.failures[name]
	if fail > 0 {
		o.failures[name]--
	}
	data, ok := o.files[name]
	o.mu.Unlock()

	if fail != 0 {
		w.WriteHeader(http.StatusBadGateway)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("ETag", fmt.Sprintf(`"%s"`, name))
	w.Write(data)
}

// Add serves data under name.
func (o *Origin) Add(name string, data []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.files[name] = data
}

// File returns the body served for name.
func (o *Origin) File(name string) []byte {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.files[name]
}

// FailNext makes the next n requests for name fail with 502. A negative n
// fails every request.
func (o *Origin) FailNext(name string, n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures[name] = n
}

// Requests returns the number of requests made for name.
func (o *Origin) Requests(name string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.requests[name]
}
