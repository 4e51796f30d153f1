// Package imageapi finds a stock picture for an item through a remote HTTP
// image search API. The picture URL is located in the answer with a
// JSONPath expression.
package imageapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"

	"github.com/rl1809/laventory/internal/config"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	keyParam   string
	keyHeader  string
	params     map[string]string
	urlPath    string
}

func NewClient(cfg config.ImageAPI) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	keyHeader := cfg.KeyHeader
	if keyHeader == "" {
		keyHeader = "X-Api-Key"
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		keyParam:   cfg.KeyParam,
		keyHeader:  keyHeader,
		params:     cfg.Params,
		urlPath:    cfg.URLPath,
	}
}

func (c *Client) Name() string {
	return "image-api"
}

func (c *Client) ImageURL(ctx context.Context, query string) (string, error) {
	addr, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	q := addr.Query()
	for k, v := range c.params {
		q.Set(k, v)
	}
	q.Set("query", query)
	if c.apiKey != "" && c.keyParam != "" {
		q.Set(c.keyParam, c.apiKey)
	}
	addr.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr.String(), nil)
	if err != nil {
		return "", fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" && c.keyParam == "" {
		req.Header.Set(c.keyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}

	var jobj interface{}
	if err := json.NewDecoder(resp.Body).Decode(&jobj); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	jval, err := jsonpath.Get(c.urlPath, jobj)
	if err != nil {
		// the path does not match an empty result set
		return "", nil
	}
	if jlist, ok := jval.([]interface{}); ok {
		if len(jlist) == 0 {
			return "", nil
		}
		jval = jlist[0]
	}
	s, _ := jval.(string)
	return strings.TrimSpace(s), nil
}
