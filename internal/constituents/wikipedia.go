package constituents

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog/log"

	"TradeIdeas/internal/cache"
	"TradeIdeas/internal/model"
	"TradeIdeas/internal/transport"
)

// DefaultChangesURL carries the S&P 500 additions/removals history.
const DefaultChangesURL = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"

// WikipediaSource fetches pages through the shared transport and parses them with goquery.
type WikipediaSource struct {
	Client     *transport.Client
	Cache      *cache.Cache
	Indices    map[string]Index
	ChangesURL string
}

func NewWikipediaSource(client *transport.Client, c *cache.Cache) *WikipediaSource {
	return &WikipediaSource{
		Client:     client,
		Cache:      c,
		Indices:    DefaultIndices(),
		ChangesURL: DefaultChangesURL,
	}
}

func (w *WikipediaSource) Name() string { return "wikipedia" }

// List returns the supported indices.
func (w *WikipediaSource) List() []Index { return Sorted(w.Indices) }

// Constituents returns the current members of the named index.
func (w *WikipediaSource) Constituents(ctx context.Context, name string) ([]model.Constituent, error) {
	idx, err := Lookup(w.Indices, name)
	if err != nil {
		return nil, err
	}
	return cache.GetOrLoad(ctx, w.Cache, "constituents", []any{idx.Key, idx.URL},
		func(ctx context.Context) ([]model.Constituent, error) {
			doc, err := w.document(ctx, idx.URL)
			if err != nil {
				return nil, err
			}
			members, err := ParseConstituents(doc, idx)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", model.ErrSourceUnavailable, idx.Name, err)
			}
			log.Info().Str("index", idx.Key).Int("members", len(members)).Msg("constituents loaded")
			return members, nil
		})
}

// Changes returns the index change history, newest first.
func (w *WikipediaSource) Changes(ctx context.Context) ([]model.IndexChange, error) {
	return cache.GetOrLoad(ctx, w.Cache, "changes", []any{w.ChangesURL},
		func(ctx context.Context) ([]model.IndexChange, error) {
			doc, err := w.document(ctx, w.ChangesURL)
			if err != nil {
				return nil, err
			}
			changes, err := ParseChanges(doc)
			if err != nil {
				return nil, fmt.Errorf("%w: changes: %v", model.ErrSourceUnavailable, err)
			}
			log.Info().Int("changes", len(changes)).Msg("index changes loaded")
			return changes, nil
		})
}

func (w *WikipediaSource) document(ctx context.Context, url string) (*goquery.Document, error) {
	opts := []colly.CollectorOption{
		colly.StdlibContext(ctx),
		colly.AllowURLRevisit(),
	}
	timeout := 30 * time.Second
	if w.Client != nil {
		opts = append(opts, colly.UserAgent(w.Client.UserAgent()))
		timeout = w.Client.Timeout()
	} else {
		opts = append(opts, colly.UserAgent(transport.DefaultUserAgent))
	}
	c := colly.NewCollector(opts...)
	if w.Client != nil {
		c.WithTransport(w.Client.Transport())
	}
	c.SetRequestTimeout(timeout)

	var (
		doc      *goquery.Document
		parseErr error
	)
	c.OnResponse(func(r *colly.Response) {
		doc, parseErr = goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
	})
	c.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		log.Warn().Err(err).Str("url", url).Int("status", status).Msg("page fetch failed")
	})

	if err := c.Visit(url); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrSourceUnavailable, url, err)
	}
	if parseErr != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", model.ErrSourceUnavailable, url, parseErr)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: empty response from %s", model.ErrSourceUnavailable, url)
	}
	return doc, nil
}
