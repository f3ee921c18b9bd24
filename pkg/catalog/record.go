// Package catalog provides the artwork catalog HTTP client: one GET per page,
// typed response envelope, error classification and optional caching and
// throttling.
package catalog

import (
	"strconv"
)

// Fields is the field projection requested for every page.
var Fields = []string{
	"id",
	"title",
	"place_of_origin",
	"artist_display",
	"inscriptions",
	"date_start",
	"date_end",
}

// Record is one artwork as returned by the catalog. Records are immutable
// once fetched and are replaced wholesale on every page fetch. Dates are nil
// when the catalog has no value; year 0 is a real year.
type Record struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	PlaceOfOrigin string `json:"place_of_origin"`
	ArtistDisplay string `json:"artist_display"`
	Inscriptions  string `json:"inscriptions"`
	DateStart     *int   `json:"date_start"`
	DateEnd       *int   `json:"date_end"`
}

// Year returns a pointer to y, for building records with known dates.
func Year(y int) *int {
	return &y
}

// Dates renders the record's date range, e.g. "1890–1895" or "1890".
// Returns "" when the catalog has no dates for the record.
func (r Record) Dates() string {
	switch {
	case r.DateStart == nil && r.DateEnd == nil:
		return ""
	case r.DateEnd == nil:
		return strconv.Itoa(*r.DateStart)
	case r.DateStart == nil || *r.DateStart == *r.DateEnd:
		return strconv.Itoa(*r.DateEnd)
	default:
		return strconv.Itoa(*r.DateStart) + "–" + strconv.Itoa(*r.DateEnd)
	}
}

// Pagination is the server-reported pagination block.
type Pagination struct {
	Total       int `json:"total"`
	Limit       int `json:"limit"`
	Offset      int `json:"offset"`
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
}

// Page is one fetched batch of records plus its pagination metadata.
type Page struct {
	Records    []Record
	Pagination Pagination
}

// IDs returns the record identifiers of the page in page order.
func (p *Page) IDs() []int {
	if p == nil {
		return nil
	}
	ids := make([]int, len(p.Records))
	for i, r := range p.Records {
		ids[i] = r.ID
	}
	return ids
}

// Len returns the number of records on the page.
func (p *Page) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Records)
}

// TotalPages returns ceil(total/limit), or 0 when limit is not positive.
func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// envelope is the wire shape of a page response. Pointers distinguish a
// missing block from an empty one.
type envelope struct {
	Data       *[]wireRecord `json:"data"`
	Pagination *Pagination   `json:"pagination"`
}

// wireRecord tolerates JSON nulls, which the catalog uses for unknown values.
type wireRecord struct {
	ID            int     `json:"id"`
	Title         *string `json:"title"`
	PlaceOfOrigin *string `json:"place_of_origin"`
	ArtistDisplay *string `json:"artist_display"`
	Inscriptions  *string `json:"inscriptions"`
	DateStart     *int    `json:"date_start"`
	DateEnd       *int    `json:"date_end"`
}

func (w wireRecord) record() Record {
	return Record{
		ID:            w.ID,
		Title:         deref(w.Title),
		PlaceOfOrigin: deref(w.PlaceOfOrigin),
		ArtistDisplay: deref(w.ArtistDisplay),
		Inscriptions:  deref(w.Inscriptions),
		DateStart:     w.DateStart,
		DateEnd:       w.DateEnd,
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
