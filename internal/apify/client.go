// Package apify talks to the Apify platform, the scraping collaborator that
// actually fetches raw listings from the classified-ads site.
package apify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"dealradar/internal/models"
)

const defaultBaseURL = "https://api.apify.com"

var (
	ErrNoToken = errors.New("apify token is not configured")
	ErrNoURLs  = errors.New("no start URLs provided")
)

type Client struct {
	logger   *logrus.Logger
	client   *http.Client
	baseURL  string
	token    string
	actor    string
	useProxy bool
}

func NewClient(token, actor string, useProxy bool, logger *logrus.Logger) *Client {
	return &Client{
		logger: logger,
		client: &http.Client{
			// run-sync keeps the connection open until the actor finishes
			Timeout: 5 * time.Minute,
		},
		baseURL:  defaultBaseURL,
		token:    token,
		actor:    actor,
		useProxy: useProxy,
	}
}

type actorInput struct {
	URLs             []string   `json:"urls"`
	MaxItemsPerURL   int        `json:"max_items_per_url"`
	MaxRetriesPerURL int        `json:"max_retries_per_url"`
	Proxy            proxyInput `json:"proxy"`
}

type proxyInput struct {
	UseApifyProxy bool `json:"useApifyProxy"`
}

// RunActor starts a synchronous actor run over the given search URLs and
// returns the scraped listings from its default dataset.
func (c *Client) RunActor(urls []string, maxItems int) ([]models.Listing, error) {
	if c.token == "" {
		return nil, ErrNoToken
	}
	if len(urls) == 0 {
		return nil, ErrNoURLs
	}

	input := actorInput{
		URLs:             urls,
		MaxItemsPerURL:   maxItems,
		MaxRetriesPerURL: 2,
		Proxy:            proxyInput{UseApifyProxy: c.useProxy},
	}

	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal actor input: %v", err)
	}

	// Actor IDs use "~" instead of "/" in API paths.
	actorPath := strings.ReplaceAll(c.actor, "/", "~")
	endpoint := fmt.Sprintf("%s/v2/acts/%s/run-sync-get-dataset-items?token=%s",
		c.baseURL, actorPath, url.QueryEscape(c.token))

	c.logger.WithFields(logrus.Fields{
		"actor":     c.actor,
		"urls":      len(urls),
		"max_items": maxItems,
	}).Info("Starting Apify actor run")

	resp, err := c.client.Post(endpoint, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("apify request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("apify API error (status %d): %s", resp.StatusCode, string(msg))
	}

	var items []models.Listing
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to parse dataset items: %v", err)
	}

	c.logger.WithField("items", len(items)).Info("Apify actor run completed")
	return items, nil
}
