// Package testutil provides testing utilities for the catalog browser.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// ArtworksPath is the path the catalog client requests, relative to the base URL.
const ArtworksPath = "/api/v1/artworks"

// MockCatalogResponse defines a canned response for the artworks endpoint.
type MockCatalogResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockCatalog is an httptest catalog serving Total synthetic records with
// ids starting at FirstID.
type MockCatalog struct {
	server *httptest.Server

	mu       sync.RWMutex
	total    int
	firstID  int
	override *MockCatalogResponse
	delays   map[int]time.Duration
	etag     string

	// Tracking
	requestCount     int
	conditionalCount int
	lastQuery        map[string]string
	lastHeader       http.Header
}

// NewMockCatalog starts a mock catalog with total records.
func NewMockCatalog(total int) *MockCatalog {
	m := &MockCatalog{
		total:   total,
		firstID: 1000,
		delays:  make(map[int]time.Duration),
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

// URL returns the base URL to configure the catalog client with.
func (m *MockCatalog) URL() string {
	return m.server.URL + "/api/v1"
}

// Close shuts down the mock server.
func (m *MockCatalog) Close() {
	m.server.Close()
}

// SetTotal changes the number of records served.
func (m *MockCatalog) SetTotal(total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total = total
}

// SetResponse replaces every artworks response with resp until ClearResponse.
func (m *MockCatalog) SetResponse(resp MockCatalogResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.override = &resp
}

// ClearResponse restores generated pages.
func (m *MockCatalog) ClearResponse() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.override = nil
}

// SetPageDelay delays responses for one page number.
func (m *MockCatalog) SetPageDelay(page int, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays[page] = d
}

// SetETag makes generated pages carry etag and answer matching
// If-None-Match requests with 304.
func (m *MockCatalog) SetETag(etag string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.etag = etag
}

// RequestCount returns the number of requests made to the server.
func (m *MockCatalog) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// ConditionalCount returns the number of conditional requests.
func (m *MockCatalog) ConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conditionalCount
}

// LastQuery returns the query parameters of the last request.
func (m *MockCatalog) LastQuery() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastQuery
}

// LastHeader returns the headers of the last request.
func (m *MockCatalog) LastHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHeader
}

// RecordID returns the id of the record at 0-based row index.
func (m *MockCatalog) RecordID(row int) int {
	return m.firstID + row
}

func (m *MockCatalog) handle(w http.ResponseWriter, r *http.Request) {
	query := make(map[string]string)
	for k := range r.URL.Query() {
		query[k] = r.URL.Query().Get(k)
	}

	m.mu.Lock()
	m.requestCount++
	m.lastQuery = query
	m.lastHeader = r.Header.Clone()
	if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
		m.conditionalCount++
	}
	override := m.override
	total := m.total
	etag := m.etag
	m.mu.Unlock()

	if r.URL.Path != ArtworksPath {
		http.NotFound(w, r)
		return
	}

	if override != nil {
		if override.Delay > 0 {
			time.Sleep(override.Delay)
		}
		for key, value := range override.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(override.StatusCode)
		if override.Body != "" {
			w.Write([]byte(override.Body))
		}
		return
	}

	page, _ := strconv.Atoi(query["page"])
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(query["limit"])
	if limit < 1 {
		limit = 12
	}

	m.mu.RLock()
	delay := m.delays[page]
	m.mu.RUnlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if etag != "" {
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "no-cache")
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	body, err := json.Marshal(m.pageBody(page, limit, total))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

type artwork struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	PlaceOfOrigin string  `json:"place_of_origin"`
	ArtistDisplay string  `json:"artist_display"`
	Inscriptions  *string `json:"inscriptions"`
	DateStart     int     `json:"date_start"`
	DateEnd       int     `json:"date_end"`
}

type pagination struct {
	Total       int `json:"total"`
	Limit       int `json:"limit"`
	Offset      int `json:"offset"`
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
}

type pageBody struct {
	Data       []artwork  `json:"data"`
	Pagination pagination `json:"pagination"`
}

func (m *MockCatalog) pageBody(page, limit, total int) pageBody {
	offset := (page - 1) * limit
	data := make([]artwork, 0, limit)
	for i := offset; i < offset+limit && i < total; i++ {
		data = append(data, artwork{
			ID:            m.RecordID(i),
			Title:         fmt.Sprintf("Artwork %d", i+1),
			PlaceOfOrigin: "Chicago",
			ArtistDisplay: fmt.Sprintf("Artist %d\nAmerican, 1850-1920", i%7),
			DateStart:     1850 + i%70,
			DateEnd:       1860 + i%70,
		})
	}
	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return pageBody{
		Data: data,
		Pagination: pagination{
			Total:       total,
			Limit:       limit,
			Offset:      offset,
			TotalPages:  totalPages,
			CurrentPage: page,
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockCatalogResponse {
	return MockCatalogResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"status":500,"error":"Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response with quota headers.
func NewRateLimitResponse() MockCatalogResponse {
	return MockCatalogResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"status":429,"error":"Too many requests"}`,
		Headers: map[string]string{
			"Content-Type":          "application/json",
			"X-RateLimit-Limit":     "60",
			"X-RateLimit-Remaining": "0",
			"X-RateLimit-Reset":     "30",
		},
	}
}

// NewMalformedResponse creates a 200 response that is not a page envelope.
func NewMalformedResponse() MockCatalogResponse {
	return MockCatalogResponse{
		StatusCode: http.StatusOK,
		Body:       `{"detail":"not a page"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}
