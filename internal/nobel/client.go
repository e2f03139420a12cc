package nobel

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/ppiankov/nobelmap/internal/fetch"
)

const DefaultBaseURL = "https://api.nobelprize.org/2.1"

// Client pages through the laureates endpoint
type Client struct {
	fetcher  *fetch.Fetcher
	baseURL  string
	pageSize int
	logger   *log.Entry
}

// NewClient creates an API client. pageSize falls back to 100.
func NewClient(fetcher *fetch.Fetcher, baseURL string, pageSize int, logger *log.Entry) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Client{
		fetcher:  fetcher,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		pageSize: pageSize,
		logger:   logger,
	}
}

// Laureates fetches every laureate, following meta.count
func (c *Client) Laureates(ctx context.Context) ([]Laureate, error) {
	var all []Laureate
	for offset := 0; ; {
		params := url.Values{
			"offset": {strconv.Itoa(offset)},
			"limit":  {strconv.Itoa(c.pageSize)},
		}

		var p page
		if err := c.fetcher.GetJSON(ctx, c.baseURL+"/laureates?"+params.Encode(), &p); err != nil {
			return nil, fmt.Errorf("laureates page at offset %d: %w", offset, err)
		}

		all = append(all, p.Laureates...)
		offset += len(p.Laureates)
		c.logger.Debugf("fetched %d/%d laureates", offset, p.Meta.Count)

		if len(p.Laureates) == 0 || offset >= p.Meta.Count {
			break
		}
	}

	c.logger.Infof("fetched %d laureates from %s", len(all), c.baseURL)
	return all, nil
}
