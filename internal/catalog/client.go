// file: internal/catalog/client.go
// version: 1.4.0
// guid: 2a3b4c5d-6e7f-8a9b-0c1d-2e3f4a5b6c7e

package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/jdfalk/audibleshelf/internal/models"
)

// responseGroups requested for full product lookups. The keyword search
// endpoint only returns product_attrs regardless, so search results are
// partial until the matched ASIN is fetched directly.
const (
	productResponseGroups = "contributors,media,product_attrs,product_desc,product_details,rating,series"
	productImageSizes     = "500,700,1000"
	searchNumResults      = 5
)

// coverSizePreference lists product_images keys best-first.
var coverSizePreference = []string{"1000", "700", "500"}

// Client talks to the Audible catalog API. Base URLs are injectable so tests
// can point it at an httptest server and operators at a regional mirror.
type Client struct {
	httpClient *http.Client
	apiBase    string
	webBase    string
}

// NewClient creates a catalog client for the given API and web base URLs.
func NewClient(apiBase, webBase string) *Client {
	if apiBase == "" {
		apiBase = "https://api.audible.com"
	}
	if webBase == "" {
		webBase = "https://www.audible.com"
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiBase:    strings.TrimRight(apiBase, "/"),
		webBase:    strings.TrimRight(webBase, "/"),
	}
}

// Name returns the display name for this metadata source.
func (c *Client) Name() string {
	return "Audible catalog"
}

// Catalog API response types
type catalogContributor struct {
	Name string `json:"name"`
}

type catalogSeries struct {
	Title    string      `json:"title"`
	Sequence flexiString `json:"sequence"`
}

type catalogRatings struct {
	AverageRating float64 `json:"average_rating"`
}

type catalogProduct struct {
	ASIN             string               `json:"asin"`
	Title            string               `json:"title"`
	Subtitle         string               `json:"subtitle"`
	Authors          []catalogContributor `json:"authors"`
	Narrators        []catalogContributor `json:"narrators"`
	Series           []catalogSeries      `json:"series"`
	PublisherSummary string               `json:"publisher_summary"`
	ReleaseDate      string               `json:"release_date"`
	RatingsSummary   *catalogRatings      `json:"ratings_summary"`
	ProductImages    map[string]string    `json:"product_images"`
}

type productEnvelope struct {
	Product *catalogProduct `json:"product"`
}

type searchEnvelope struct {
	Products []catalogProduct `json:"products"`
}

// flexiString decodes a JSON string or number into a string. The catalog's
// series sequence field has been observed as both.
type flexiString string

func (f *flexiString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexiString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexiString(n.String())
	return nil
}

// FetchByASIN fetches the full catalog record for one ASIN. The direct
// endpoint is fast but occasionally refuses known-good ASINs, so a failed
// direct lookup falls back through keyword search before giving up.
func (c *Client) FetchByASIN(asin string) (*models.MetadataRecord, error) {
	record, err := c.fetchDirect(asin)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, ErrNotFound) && !errors.Is(err, errStatus) {
		return nil, err
	}

	log.Printf("[WARN] direct lookup failed for %s, falling back to keyword search: %v", asin, err)

	candidates, searchErr := c.searchKeywords(asin, 1)
	if searchErr != nil || len(candidates) == 0 {
		return nil, err
	}
	if candidates[0].ASIN != asin {
		log.Printf("[WARN] keyword search for %s returned different ASIN %s", asin, candidates[0].ASIN)
		return nil, ErrNotFound
	}

	// The search confirmed the ASIN exists. Retry the direct endpoint for the
	// full record, settling for the partial search result if it still fails.
	if record, err = c.fetchDirect(asin); err == nil {
		return record, nil
	}
	partial := candidates[0]
	return &partial, nil
}

// errStatus marks NetworkErrors caused by a non-2xx status rather than a
// transport failure. Only status failures are worth a search fallback.
var errStatus = errors.New("unexpected response status")

func (c *Client) fetchDirect(asin string) (*models.MetadataRecord, error) {
	reqURL := fmt.Sprintf("%s/1.0/catalog/products/%s?response_groups=%s&image_sizes=%s",
		c.apiBase, url.PathEscape(asin), productResponseGroups, productImageSizes)

	resp, err := c.httpClient.Get(reqURL)
	if err != nil {
		return nil, &NetworkError{URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, &NetworkError{URL: reqURL, Err: fmt.Errorf("%w %d", errStatus, resp.StatusCode)}
	}

	var envelope productEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &ParseError{URL: reqURL, Err: err}
	}
	if envelope.Product == nil {
		return nil, ErrNotFound
	}

	return c.productToRecord(envelope.Product), nil
}

// Search runs a keyword query built from title and author and returns the
// candidates in the catalog's own relevance order.
func (c *Client) Search(title, author string) ([]models.MetadataRecord, error) {
	keywords := strings.TrimSpace(strings.TrimSpace(author) + " " + strings.TrimSpace(title))
	if keywords == "" {
		return nil, nil
	}
	return c.searchKeywords(keywords, searchNumResults)
}

// SearchKeywords runs a raw keyword query, for callers that already have a
// prepared search term (for example a cleaned-up filename).
func (c *Client) SearchKeywords(keywords string) ([]models.MetadataRecord, error) {
	return c.searchKeywords(keywords, searchNumResults)
}

func (c *Client) searchKeywords(keywords string, numResults int) ([]models.MetadataRecord, error) {
	reqURL := fmt.Sprintf("%s/1.0/catalog/products?response_groups=product_attrs&products_sort_by=Relevance&num_results=%d&keywords=%s",
		c.apiBase, numResults, url.QueryEscape(keywords))

	resp, err := c.httpClient.Get(reqURL)
	if err != nil {
		return nil, &NetworkError{URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &NetworkError{URL: reqURL, Err: fmt.Errorf("%w %d", errStatus, resp.StatusCode)}
	}

	var envelope searchEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &ParseError{URL: reqURL, Err: err}
	}

	records := make([]models.MetadataRecord, 0, len(envelope.Products))
	for i := range envelope.Products {
		records = append(records, *c.productToRecord(&envelope.Products[i]))
	}
	return records, nil
}

// productToRecord maps the catalog JSON shape onto a MetadataRecord.
func (c *Client) productToRecord(p *catalogProduct) *models.MetadataRecord {
	record := &models.MetadataRecord{
		ASIN:        p.ASIN,
		Title:       p.Title,
		Subtitle:    p.Subtitle,
		Authors:     contributorNames(p.Authors),
		Narrators:   contributorNames(p.Narrators),
		Description: strings.TrimSpace(p.PublisherSummary),
		ReleaseDate: p.ReleaseDate,
	}

	if len(p.Series) > 0 {
		record.Series = p.Series[0].Title
		record.SeriesSequence = normalizeSequence(string(p.Series[0].Sequence))
	}

	if p.ReleaseDate != "" {
		record.Year = strings.SplitN(p.ReleaseDate, "-", 2)[0]
	}

	if p.RatingsSummary != nil && p.RatingsSummary.AverageRating > 0 {
		rating := p.RatingsSummary.AverageRating
		record.Rating = &rating
	}

	for _, size := range coverSizePreference {
		if u, ok := p.ProductImages[size]; ok && u != "" {
			record.CoverURL = u
			break
		}
	}

	if p.ASIN != "" {
		record.ProductURL = fmt.Sprintf("%s/pd/%s", c.webBase, p.ASIN)
	}

	return record
}

func contributorNames(contributors []catalogContributor) []string {
	names := make([]string, 0, len(contributors))
	for _, c := range contributors {
		if name := strings.TrimSpace(c.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// normalizeSequence turns catalog sequence values like "Book 2", "2" or 2.0
// into a zero-padded position ("02"). Non-numeric values pass through.
func normalizeSequence(seq string) string {
	seq = strings.TrimSpace(strings.ToLower(seq))
	seq = strings.TrimSpace(strings.TrimPrefix(seq, "book"))
	if seq == "" {
		return ""
	}
	var f float64
	if _, err := fmt.Sscanf(seq, "%g", &f); err == nil {
		return fmt.Sprintf("%02d", int(f))
	}
	return seq
}

// DownloadCover streams the cover image at coverURL to destPath. Only image
// content types are accepted and the body is capped at 20 MB. A partial file
// is removed on failure.
func (c *Client) DownloadCover(coverURL, destPath string) error {
	if coverURL == "" {
		return fmt.Errorf("empty cover URL")
	}

	resp, err := c.httpClient.Get(coverURL)
	if err != nil {
		return &NetworkError{URL: coverURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &NetworkError{URL: coverURL, Err: fmt.Errorf("%w %d", errStatus, resp.StatusCode)}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("unexpected cover content type: %s", contentType)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create cover file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, io.LimitReader(resp.Body, 20*1024*1024)); err != nil {
		os.Remove(destPath)
		return fmt.Errorf("failed to write cover file: %w", err)
	}

	return nil
}
