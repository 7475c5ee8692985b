package zolo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toronto-housing/config"
	"toronto-housing/utils"
)

func card(address, price string, details ...string) string {
	var b strings.Builder
	b.WriteString(`<article class="card-listing">`)
	if address != "" {
		fmt.Fprintf(&b, `<a class="address" href="#"> %s </a>`, address)
	}
	if price != "" {
		fmt.Fprintf(&b, `<ul><li class="price"><span itemprop="price">%s</span></li></ul>`, price)
	}
	b.WriteString(`<ul class="card-listing--values">`)
	for _, d := range details {
		fmt.Fprintf(&b, "<li>%s</li>", d)
	}
	b.WriteString(`</ul></article>`)
	return b.String()
}

func pageHTML(next bool, cards ...string) string {
	nav := ""
	if next {
		nav = `<a aria-label="next page of results" href="?page=2">Next</a>`
	}
	return "<html><body>" + strings.Join(cards, "") + nav + "</body></html>"
}

func TestParsePage(t *testing.T) {
	html := pageHTML(true,
		card("1 Yonge St", "$1,299,000", "Condo", "3+1 bed", "2 bath", "1000-1499 sqft"),
		card("", "$500,000", "Condo", "1 bed", "1 bath", "500 sqft"),
		card("2 Bay St", "", "House", "4 bed"),
	)

	page, err := ParsePage(html)

	require.NoError(t, err)
	assert.Equal(t, 3, page.Cards)
	assert.True(t, page.HasNext)
	require.Len(t, page.Listings, 2)

	first := page.Listings[0]
	assert.Equal(t, "1 Yonge St", first.Address)
	assert.Equal(t, "1299000", *first.Price)
	assert.Equal(t, "3+1 bed", *first.Beds)
	assert.Equal(t, "2 bath", *first.Baths)
	assert.Equal(t, "1000-1499 sqft", *first.Sqft)

	second := page.Listings[1]
	assert.Equal(t, "2 Bay St", second.Address)
	assert.Nil(t, second.Price)
	assert.Equal(t, "4 bed", *second.Beds)
	assert.Nil(t, second.Baths)
	assert.Nil(t, second.Sqft)
}

func TestParsePageWithoutCards(t *testing.T) {
	page, err := ParsePage("<html><body><p>No results</p></body></html>")
	require.NoError(t, err)
	assert.Equal(t, 0, page.Cards)
	assert.False(t, page.HasNext)
	assert.Empty(t, page.Listings)
}

type fakeBrowser struct {
	pages     []string
	current   int
	navigated string
	clicks    int
	htmlErrs  int
}

func (f *fakeBrowser) Navigate(_ context.Context, url string) error {
	f.navigated = url
	return nil
}

func (f *fakeBrowser) HTML(context.Context) (string, error) {
	if f.htmlErrs > 0 {
		f.htmlErrs--
		return "", errors.New("target closed")
	}
	return f.pages[f.current], nil
}

func (f *fakeBrowser) ClickNext(context.Context) error {
	f.clicks++
	if f.current+1 >= len(f.pages) {
		return errors.New("no node")
	}
	f.current++
	return nil
}

func testScraper(maxPages int) *Scraper {
	cfg := &config.Config{BaseURL: "https://example.test/toronto", MaxPages: maxPages, MaxRetries: 2}
	s := New(cfg, utils.NewNopLogger())
	s.retry.BaseDelay = 0
	return s
}

func TestRunStopsWhenNoNextLink(t *testing.T) {
	b := &fakeBrowser{pages: []string{
		pageHTML(true, card("1 A St", "1", "x", "1", "1", "500")),
		pageHTML(false, card("2 B St", "2", "x", "2", "1", "600"), card("3 C St", "3", "x", "3", "2", "700")),
	}}

	got, err := testScraper(395).Run(context.Background(), b)

	require.NoError(t, err)
	assert.Equal(t, "https://example.test/toronto", b.navigated)
	assert.Len(t, got, 3)
	assert.Equal(t, 1, b.clicks)
}

func TestRunStopsOnEmptyPage(t *testing.T) {
	b := &fakeBrowser{pages: []string{
		pageHTML(true, card("1 A St", "1", "x", "1", "1", "500")),
		pageHTML(true),
	}}

	got, err := testScraper(395).Run(context.Background(), b)

	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRunHonorsMaxPages(t *testing.T) {
	pages := make([]string, 10)
	for i := range pages {
		pages[i] = pageHTML(true, card(fmt.Sprintf("%d Main St", i), "1", "x", "1", "1", "500"))
	}
	b := &fakeBrowser{pages: pages}

	got, err := testScraper(4).Run(context.Background(), b)

	require.NoError(t, err)
	assert.Len(t, got, 3, "pages 1..MaxPages-1 are scraped")
}

func TestRunRetriesPageSource(t *testing.T) {
	b := &fakeBrowser{
		pages:    []string{pageHTML(false, card("1 A St", "1", "x", "1", "1", "500"))},
		htmlErrs: 1,
	}

	got, err := testScraper(395).Run(context.Background(), b)

	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRunCancelled(t *testing.T) {
	b := &fakeBrowser{pages: []string{pageHTML(false, card("1 A St", "1", "x", "1", "1", "500"))}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testScraper(395).Run(ctx, b)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunSpacesPageReads(t *testing.T) {
	b := &fakeBrowser{pages: []string{
		pageHTML(true, card("1 A St", "1", "x", "1", "1", "500")),
		pageHTML(true, card("2 B St", "1", "x", "1", "1", "500")),
		pageHTML(false, card("3 C St", "1", "x", "1", "1", "500")),
	}}
	s := testScraper(395)
	s.delay = 20 * time.Millisecond

	start := time.Now()
	got, err := s.Run(context.Background(), b)

	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.GreaterOrEqual(t, time.Since(start), 55*time.Millisecond, "each page read waits one delay")
}
