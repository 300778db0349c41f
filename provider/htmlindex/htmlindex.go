// Package htmlindex is a provider that scrapes an index site's search page.
// The page layout is described by css selectors in the config.
package htmlindex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-hclog"

	"github.com/amonks/discography/config"
	"github.com/amonks/discography/provider"
	"github.com/amonks/discography/request"
)

// QueryPlaceholder is replaced by the escaped search term in SearchURL.
const QueryPlaceholder = "{query}"

type Index struct {
	cfg    config.Provider
	client *http.Client
	log    hclog.Logger
}

func New(cfg config.Provider, client *http.Client, log hclog.Logger) *Index {
	if client == nil {
		client = http.DefaultClient
	}
	return &Index{cfg: cfg, client: client, log: log.Named(cfg.ID)}
}

func (ix *Index) ID() string { return ix.cfg.ID }

func (ix *Index) Name() string {
	if ix.cfg.Name != "" {
		return ix.cfg.Name
	}
	return ix.cfg.ID
}

func (ix *Index) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		CanBacklog:     true,
		BacklogEnabled: ix.cfg.BacklogEnabled,
		SupportsMovies: true,
	}
}

// Search runs each term and returns the hits, without duplicate links.
func (ix *Index) Search(ctx context.Context, terms []string) ([]provider.Hit, error) {
	var hits []provider.Hit
	seen := map[string]struct{}{}
	for _, term := range terms {
		if err := ctx.Err(); err != nil {
			return hits, fmt.Errorf("canceled: %w", err)
		}

		found, err := ix.search(ctx, term)
		if err != nil {
			return hits, fmt.Errorf("error searching %s for '%s': %w", ix.Name(), term, err)
		}
		for _, hit := range found {
			if _, dup := seen[hit.URL]; dup {
				continue
			}
			seen[hit.URL] = struct{}{}
			hits = append(hits, hit)
		}
	}
	return hits, nil
}

func (ix *Index) search(ctx context.Context, term string) ([]provider.Hit, error) {
	searchURL := strings.ReplaceAll(ix.cfg.SearchURL, QueryPlaceholder, url.QueryEscape(term))
	base, err := url.Parse(searchURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing search url '%s': %w", searchURL, err)
	}

	doc, err := request.FetchHTML(ctx, ix.client, searchURL, nil)
	if err != nil {
		return nil, err
	}

	var hits []provider.Hit
	doc.Find(ix.cfg.Row).Each(func(i int, row *goquery.Selection) {
		hit, ok := ix.parseRow(base, row)
		if !ok {
			ix.log.Trace("skipping row", "row", i)
			return
		}
		hits = append(hits, hit)
	})
	ix.log.Debug("searched", "term", term, "hits", len(hits))
	return hits, nil
}

func (ix *Index) parseRow(base *url.URL, row *goquery.Selection) (provider.Hit, bool) {
	link := row
	if ix.cfg.Link != "" {
		link = row.Find(ix.cfg.Link).First()
	}
	href, ok := link.Attr("href")
	if !ok || href == "" {
		return provider.Hit{}, false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return provider.Hit{}, false
	}

	title := strings.TrimSpace(link.Text())
	if ix.cfg.Title != "" {
		title = text(row, ix.cfg.Title)
	}
	if title == "" {
		return provider.Hit{}, false
	}

	hit := provider.Hit{
		Name:     title,
		URL:      base.ResolveReference(ref).String(),
		Seeders:  number(text(row, ix.cfg.Seeders)),
		Leechers: number(text(row, ix.cfg.Leechers)),
	}
	if size := text(row, ix.cfg.Size); size != "" {
		if bytes, err := humanize.ParseBytes(size); err == nil {
			hit.Size = int64(bytes)
		}
	}
	return hit, true
}

func text(row *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(row.Find(selector).First().Text())
}

// number reads an integer like "1,204", or 0.
func number(s string) int {
	n, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return 0
	}
	return n
}
