package foursquare

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/xleiu/VenueSearch/src/types"
)

const unknown = "unknown"

type Config struct {
	BaseURL      string `toml:"base_url"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	Version      string `toml:"version"`
	Limit        int    `toml:"limit"`
	Timeout      int    `toml:"timeout_seconds"`
}

func (c Config) timeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

func DefaultConfig() Config {
	return Config{
		BaseURL: "https://api.foursquare.com",
		Version: "20171220",
		Limit:   20,
		Timeout: 10,
	}
}

type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.timeout()}
	}
	return &Client{cfg: cfg, http: httpClient}
}

// Search runs the request on its own goroutine; onComplete is called from it.
func (c *Client) Search(category types.Category, at types.Coordinate, onComplete func([]types.Venue, error)) {
	go func() {
		ctx := context.Background()
		if c.cfg.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.cfg.timeout())
			defer cancel()
		}
		venues, err := c.Explore(ctx, category, at)
		onComplete(venues, err)
	}()
}

type exploreResponse struct {
	Response struct {
		Groups []struct {
			Items []struct {
				Venue struct {
					Name     *string `json:"name"`
					Rating   float64 `json:"rating"`
					Location struct {
						Address  *string `json:"address"`
						Distance int     `json:"distance"`
					} `json:"location"`
				} `json:"venue"`
			} `json:"items"`
		} `json:"groups"`
	} `json:"response"`
}

// Explore performs one venues/explore request. Every failure is a *types.FetchError.
func (c *Client) Explore(ctx context.Context, category types.Category, at types.Coordinate) ([]types.Venue, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.exploreURL(category, at), nil)
	if err != nil {
		return nil, &types.FetchError{Kind: types.Network, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &types.FetchError{Kind: types.Network, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("foursquare: %s returned %d", category, resp.StatusCode)
		return nil, &types.FetchError{Kind: types.Status, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &types.FetchError{Kind: types.Network, Err: err}
	}
	if len(body) == 0 {
		return nil, &types.FetchError{Kind: types.Decode, Err: errors.New("json data is empty")}
	}

	var data exploreResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &types.FetchError{Kind: types.Decode, Err: err}
	}

	if len(data.Response.Groups) == 0 {
		return []types.Venue{}, nil
	}

	items := data.Response.Groups[0].Items
	venues := make([]types.Venue, 0, len(items))
	for _, item := range items {
		v := item.Venue
		venues = append(venues, types.Venue{
			Name:     orUnknown(v.Name),
			Address:  orUnknown(v.Location.Address),
			Distance: v.Location.Distance,
			Rating:   v.Rating,
		})
	}
	return venues, nil
}

func (c *Client) exploreURL(category types.Category, at types.Coordinate) string {
	q := url.Values{}
	q.Set("ll", fmt.Sprintf("%s,%s",
		strconv.FormatFloat(at.Lat, 'f', -1, 64),
		strconv.FormatFloat(at.Lon, 'f', -1, 64)))
	q.Set("v", c.cfg.Version)
	q.Set("section", string(category))
	q.Set("limit", strconv.Itoa(c.cfg.Limit))
	q.Set("client_id", c.cfg.ClientID)
	q.Set("client_secret", c.cfg.ClientSecret)
	return c.cfg.BaseURL + "/v2/venues/explore?" + q.Encode()
}

func orUnknown(s *string) string {
	if s == nil {
		return unknown
	}
	return *s
}
