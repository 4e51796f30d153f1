// Package recipeapi queries a remote HTTP recipe search API. The fields of
// the answer are located with JSONPath expressions so that different APIs
// can be plugged in through configuration.
package recipeapi

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
	"github.com/rl1809/laventory/internal/core/domain"
)

type Client struct {
	httpClient       *http.Client
	baseURL          string
	apiKey           string
	namePath         string
	ingredientsPath  string
	instructionsPath string
}

func NewClient(cfg config.RecipeAPI) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient:       &http.Client{Timeout: timeout},
		baseURL:          cfg.BaseURL,
		apiKey:           cfg.APIKey,
		namePath:         cfg.NamePath,
		ingredientsPath:  cfg.IngredientsPath,
		instructionsPath: cfg.InstructionsPath,
	}
}

func (c *Client) Name() string {
	return "recipe-api"
}

func (c *Client) Recipe(ctx context.Context, ingredients []string) (*domain.Recipe, error) {
	addr, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	q := addr.Query()
	q.Set("ingredients", strings.Join(ingredients, ","))
	addr.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}

	var jobj interface{}
	if err := json.NewDecoder(resp.Body).Decode(&jobj); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	name, ok := scalar(jobj, c.namePath).(string)
	if !ok || strings.TrimSpace(name) == "" {
		return nil, nil
	}

	return &domain.Recipe{
		Name:         name,
		Ingredients:  list(jobj, c.ingredientsPath),
		Instructions: list(jobj, c.instructionsPath),
	}, nil
}

// scalar evaluates path and keeps the first answer when jsonpath returns a
// list of matches, because jsonpath never says whether it answers a list of
// one or a single value. Missing fields yield nil.
func scalar(jobj interface{}, path string) interface{} {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil
	}
	if jlist, ok := jval.([]interface{}); ok {
		if len(jlist) == 0 {
			return nil
		}
		return jlist[0]
	}
	return jval
}

// list evaluates path into a list of strings. A list of lists, as produced
// by wildcard paths, keeps the first inner list.
func list(jobj interface{}, path string) []string {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil
	}

	switch v := jval.(type) {
	case string:
		return []string{v}
	case []interface{}:
		if len(v) > 0 {
			if inner, ok := v[0].([]interface{}); ok {
				v = inner
			}
		}
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprint(e))
			}
		}
		return out
	case nil:
		return nil
	default:
		return []string{fmt.Sprint(v)}
	}
}
