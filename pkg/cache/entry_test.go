package cache

import (
	"net/http"
	"testing"
	"time"
)

func TestCacheEntry_IsExpired(t *testing.T) {
	tests := []struct {
		name    string
		expires time.Time
		want    bool
	}{
		{name: "expired entry", expires: time.Now().Add(-1 * time.Hour), want: true},
		{name: "valid entry", expires: time.Now().Add(1 * time.Hour), want: false},
		{name: "just expired", expires: time.Now().Add(-1 * time.Second), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &CacheEntry{Expires: tt.expires}
			if got := entry.IsExpired(); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCacheEntry_TTL_NeverNegative(t *testing.T) {
	entry := &CacheEntry{Expires: time.Now().Add(-time.Minute)}
	if ttl := entry.TTL(); ttl != 0 {
		t.Errorf("TTL() = %v, want 0", ttl)
	}
}

func TestNewEntry_Freshness(t *testing.T) {
	tests := []struct {
		name    string
		headers http.Header
		wantMin time.Duration
		wantMax time.Duration
	}{
		{
			name:    "max-age wins over expires",
			headers: http.Header{"Cache-Control": []string{"public, max-age=60"}, "Expires": []string{time.Now().Add(time.Hour).Format(http.TimeFormat)}},
			wantMin: 55 * time.Second,
			wantMax: 61 * time.Second,
		},
		{
			name:    "expires header",
			headers: http.Header{"Expires": []string{time.Now().Add(10 * time.Minute).Format(http.TimeFormat)}},
			wantMin: 9 * time.Minute,
			wantMax: 10*time.Minute + time.Second,
		},
		{
			name:    "no freshness info uses default",
			headers: http.Header{},
			wantMin: DefaultTTL - time.Second,
			wantMax: DefaultTTL,
		},
		{
			name:    "unparseable expires uses default",
			headers: http.Header{"Expires": []string{"tomorrow-ish"}},
			wantMin: DefaultTTL - time.Second,
			wantMax: DefaultTTL,
		},
		{
			name:    "no-cache is stale immediately",
			headers: http.Header{"Cache-Control": []string{"no-cache"}},
			wantMin: 0,
			wantMax: 0,
		},
		{
			name:    "past expires is stale",
			headers: http.Header{"Expires": []string{time.Now().Add(-time.Hour).Format(http.TimeFormat)}},
			wantMin: 0,
			wantMax: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := NewEntry(http.StatusOK, tt.headers, []byte(`{}`))
			ttl := entry.TTL()
			if ttl < tt.wantMin || ttl > tt.wantMax {
				t.Errorf("TTL() = %v, want between %v and %v", ttl, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestNewEntry_Validators(t *testing.T) {
	lastMod := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	headers := http.Header{
		"Etag":          []string{`"abc123"`},
		"Last-Modified": []string{lastMod.Format(http.TimeFormat)},
	}

	entry := NewEntry(http.StatusOK, headers, []byte(`{"data":[]}`))

	if entry.ETag != `"abc123"` {
		t.Errorf("ETag = %q, want %q", entry.ETag, `"abc123"`)
	}
	if !entry.LastModified.Equal(lastMod) {
		t.Errorf("LastModified = %v, want %v", entry.LastModified, lastMod)
	}
	if string(entry.Data) != `{"data":[]}` {
		t.Errorf("Data = %s", entry.Data)
	}

	headers.Set("Etag", "changed")
	if entry.Headers.Get("Etag") != `"abc123"` {
		t.Error("entry headers must be a copy")
	}
}

func TestConditionalHeaders(t *testing.T) {
	tests := []struct {
		name      string
		entry     *CacheEntry
		wantCond  bool
		wantMatch string
		wantSince bool
	}{
		{name: "nil entry", entry: nil, wantCond: false},
		{name: "no validators", entry: &CacheEntry{}, wantCond: false},
		{name: "etag", entry: &CacheEntry{ETag: `"v1"`}, wantCond: true, wantMatch: `"v1"`},
		{name: "last modified only", entry: &CacheEntry{LastModified: time.Now()}, wantCond: true, wantSince: true},
		{name: "etag preferred", entry: &CacheEntry{ETag: `"v2"`, LastModified: time.Now()}, wantCond: true, wantMatch: `"v2"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldMakeConditionalRequest(tt.entry); got != tt.wantCond {
				t.Fatalf("ShouldMakeConditionalRequest() = %v, want %v", got, tt.wantCond)
			}

			req, _ := http.NewRequest(http.MethodGet, "http://example.com/api/v1/artworks", nil)
			AddConditionalHeaders(req, tt.entry)

			if got := req.Header.Get("If-None-Match"); got != tt.wantMatch {
				t.Errorf("If-None-Match = %q, want %q", got, tt.wantMatch)
			}
			if got := req.Header.Get("If-Modified-Since") != ""; got != tt.wantSince {
				t.Errorf("If-Modified-Since present = %v, want %v", got, tt.wantSince)
			}
		})
	}
}
