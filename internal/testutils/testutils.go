// Package testutils provides fakes shared by the downloader tests.
package testutils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/tanq16/chunkr/internal/chunk"
	"github.com/tanq16/chunkr/internal/fetch"
)

// GenerateTestData returns size bytes of a deterministic pattern.
func GenerateTestData(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte((i*7 + i/251) % 256)
	}
	return data
}

// Object is one remote resource served by FakeTransport.
type Object struct {
	Data []byte
	// HideLength makes unranged responses report ContentLength -1.
	HideLength bool
	// Status overrides the status of the unranged response.
	Status int
	// RangeStatus overrides the status of ranged responses keyed by range start.
	RangeStatus map[int64]int
	// RangeErr fails ranged requests keyed by range start at the transport level.
	RangeErr map[int64]error
	// RangeData replaces the body of ranged responses keyed by range start.
	RangeData map[int64][]byte
	// IgnoreRange answers ranged requests with 200 and the full body.
	IgnoreRange bool
}

// FakeTransport is an in-memory fetch.Transport. Ranged requests can be held
// back on a gate so tests control completion order.
type FakeTransport struct {
	mu       sync.Mutex
	objects  map[string]*Object
	gates    map[string]chan struct{}
	requests []string
	started  chan string
}

func NewFakeTransport() *FakeTransport {
	return &FakeTransport{
		objects: make(map[string]*Object),
		gates:   make(map[string]chan struct{}),
		started: make(chan string, 1024),
	}
}

func (f *FakeTransport) Add(url string, obj *Object) *FakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[url] = obj
	return f
}

// Gate holds the ranged request for url starting at start until the
// returned channel is closed. A start of -1 gates unranged requests.
func (f *FakeTransport) Gate(url string, start int64) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := gateKey(url, start)
	ch, ok := f.gates[key]
	if !ok {
		ch = make(chan struct{})
		f.gates[key] = ch
	}
	return ch
}

// Started receives "url range" for every request as it arrives.
func (f *FakeTransport) Started() <-chan string {
	return f.started
}

// Requests returns "url range" for every request seen so far; the range is
// empty for unranged requests.
func (f *FakeTransport) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// RangedRequests counts requests that carried a range.
func (f *FakeTransport) RangedRequests() int {
	n := 0
	for _, r := range f.Requests() {
		if !strings.HasSuffix(r, " ") {
			n++
		}
	}
	return n
}

func (f *FakeTransport) Get(ctx context.Context, url string, r *chunk.ByteRange) (*fetch.Response, error) {
	header := ""
	if r != nil {
		header = r.Header()
	}
	entry := url + " " + header

	f.mu.Lock()
	f.requests = append(f.requests, entry)
	obj, ok := f.objects[url]
	gate := f.gates[gateKey(url, -1)]
	if r != nil {
		gate = f.gates[gateKey(url, r.Start)]
	}
	f.mu.Unlock()

	select {
	case f.started <- entry:
	default:
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ok {
		return emptyResponse(http.StatusNotFound), nil
	}

	if r == nil || obj.IgnoreRange {
		if obj.Status != 0 {
			return emptyResponse(obj.Status), nil
		}
		length := int64(len(obj.Data))
		if obj.HideLength {
			length = -1
		}
		return &fetch.Response{
			StatusCode:    http.StatusOK,
			ContentLength: length,
			Body:          io.NopCloser(bytes.NewReader(obj.Data)),
		}, nil
	}

	if err, ok := obj.RangeErr[r.Start]; ok {
		return nil, err
	}
	if status, ok := obj.RangeStatus[r.Start]; ok {
		return emptyResponse(status), nil
	}
	if body, ok := obj.RangeData[r.Start]; ok {
		return &fetch.Response{
			StatusCode:    http.StatusPartialContent,
			ContentLength: int64(len(body)),
			Body:          io.NopCloser(bytes.NewReader(body)),
		}, nil
	}
	end := min(r.End, int64(len(obj.Data))-1)
	if r.Start > end {
		return emptyResponse(http.StatusRequestedRangeNotSatisfiable), nil
	}
	body := obj.Data[r.Start : end+1]
	return &fetch.Response{
		StatusCode:    http.StatusPartialContent,
		ContentLength: int64(len(body)),
		Body:          io.NopCloser(bytes.NewReader(body)),
	}, nil
}

func emptyResponse(status int) *fetch.Response {
	return &fetch.Response{StatusCode: status, ContentLength: 0, Body: http.NoBody}
}

func gateKey(url string, start int64) string {
	return fmt.Sprintf("%s@%d", url, start)
}

// StartRangeServer serves files (keyed by path) with Range support and
// records the Range and Authorization headers it receives.
func StartRangeServer(t *testing.T, files map[string][]byte) (*httptest.Server, *RequestLog) {
	t.Helper()
	reqLog := &RequestLog{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqLog.add(r)
		data, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		size := int64(len(data))
		rangeHeader := r.Header.Get("Range")
		if rangeHeader == "" {
			w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
			w.Write(data)
			return
		}
		rangeHeader = strings.TrimPrefix(rangeHeader, "bytes=")
		parts := strings.Split(rangeHeader, "-")
		start, _ := strconv.ParseInt(parts[0], 10, 64)
		end, _ := strconv.ParseInt(parts[1], 10, 64)
		if end >= size {
			end = size - 1
		}
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
		w.Header().Set("Content-Length", strconv.FormatInt(end-start+1, 10))
		w.WriteHeader(http.StatusPartialContent)
		w.Write(data[start : end+1])
	}))
	t.Cleanup(server.Close)
	return server, reqLog
}

type RequestLog struct {
	mu      sync.Mutex
	entries []http.Header
}

func (l *RequestLog) add(r *http.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, r.Header.Clone())
}

func (l *RequestLog) Headers() []http.Header {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]http.Header(nil), l.entries...)
}
