package service

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/paulmach/orb/geojson"
)

// Default feed locations.
const (
	DefaultEarthquakeFeed = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_month.geojson"
	DefaultPlatesFeed     = "https://raw.githubusercontent.com/fraxen/tectonicplates/master/GeoJSON/PB2002_boundaries.json"
)

// FeedService fetches the two GeoJSON feeds. Each fetch is a single GET
// with no retry.
type FeedService struct {
	client        *http.Client
	earthquakeURL string
	platesURL     string
}

// NewFeedService creates a feed service. Empty URLs fall back to the defaults
// and a nil client to http.DefaultClient.
func NewFeedService(client *http.Client, earthquakeURL, platesURL string) *FeedService {
	if client == nil {
		client = http.DefaultClient
	}
	if earthquakeURL == "" {
		earthquakeURL = DefaultEarthquakeFeed
	}
	if platesURL == "" {
		platesURL = DefaultPlatesFeed
	}
	return &FeedService{client: client, earthquakeURL: earthquakeURL, platesURL: platesURL}
}

// FetchEarthquakes downloads and decodes the earthquake feed.
func (s *FeedService) FetchEarthquakes(ctx context.Context) ([]Feature, error) {
	body, err := s.get(ctx, s.earthquakeURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return DecodeEarthquakes(body)
}

// FetchPlates downloads and decodes the tectonic plate boundary feed.
func (s *FeedService) FetchPlates(ctx context.Context) (*geojson.FeatureCollection, error) {
	body, err := s.get(ctx, s.platesURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return DecodePlates(body)
}

func (s *FeedService) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("fetching %s: unexpected status %s", url, resp.Status)
	}
	return resp.Body, nil
}
