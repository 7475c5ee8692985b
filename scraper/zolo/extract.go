package zolo

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"toronto-housing/models"
)

const (
	cardSelector    = "article.card-listing"
	addressSelector = "a.address"
	priceSelector   = "li.price span[itemprop='price']"
	detailSelector  = "ul.card-listing--values li"
	nextSelector    = `a[aria-label="next page of results"]`
)

// Page is what one search results page yields.
type Page struct {
	Listings []*models.RawListing
	// Cards counts every listing card, including ones skipped for having no address.
	Cards   int
	HasNext bool
}

// ParsePage extracts listing cards from a search results page.
func ParsePage(html string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("zolo: parse page: %w", err)
	}

	cards := doc.Find(cardSelector)
	page := &Page{
		Cards:   cards.Length(),
		HasNext: doc.Find(nextSelector).Length() > 0,
	}
	cards.Each(func(_ int, card *goquery.Selection) {
		if l := extractCard(card); l != nil {
			page.Listings = append(page.Listings, l)
		}
	})
	return page, nil
}

// extractCard returns nil for cards without an address.
func extractCard(card *goquery.Selection) *models.RawListing {
	address := strings.TrimSpace(card.Find(addressSelector).First().Text())
	if address == "" {
		return nil
	}

	l := &models.RawListing{Address: address}

	if price := card.Find(priceSelector).First(); price.Length() > 0 {
		p := strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(price.Text()))
		l.Price = &p
	}

	// index 0 is the listing type; beds, baths and sqft follow
	details := card.Find(detailSelector)
	l.Beds = detailText(details, 1)
	l.Baths = detailText(details, 2)
	l.Sqft = detailText(details, 3)

	return l
}

func detailText(details *goquery.Selection, i int) *string {
	if details.Length() <= i {
		return nil
	}
	text := strings.TrimSpace(details.Eq(i).Text())
	return &text
}
