package db

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/olivere/elastic/v7"

	"github.com/xleiu/VenueSearch/src/types"
)

type Config struct {
	URL      string `toml:"url"`
	Index    string `toml:"index"`
	Schema   string `toml:"schema"`
	Data     string `toml:"data"`
	Limit    int    `toml:"limit"`
	Timeout  int    `toml:"timeout_seconds"`
	Sniffing bool   `toml:"sniff"`
}

type venueDoc struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Address  string           `json:"address"`
	Category string           `json:"category"`
	Rating   float64          `json:"rating"`
	Location elastic.GeoPoint `json:"location"`
}

type ElasticStore struct {
	Client  *elastic.Client
	Index   string
	Limit   int
	Timeout time.Duration
}

func NewElasticStore(cfg Config) (*ElasticStore, error) {
	client, err := elastic.NewClient(
		elastic.SetURL(cfg.URL),
		elastic.SetSniff(cfg.Sniffing),
		elastic.SetHealthcheck(cfg.Sniffing),
	)
	if err != nil {
		return nil, fmt.Errorf("db: creating client: %w", err)
	}
	return &ElasticStore{
		Client:  client,
		Index:   cfg.Index,
		Limit:   cfg.Limit,
		Timeout: time.Duration(cfg.Timeout) * time.Second,
	}, nil
}

// Search runs Nearby on its own goroutine; onComplete is called from it.
func (es *ElasticStore) Search(category types.Category, at types.Coordinate, onComplete func([]types.Venue, error)) {
	go func() {
		ctx := context.Background()
		if es.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, es.Timeout)
			defer cancel()
		}
		venues, err := es.Nearby(ctx, category, at)
		onComplete(venues, err)
	}()
}

// Nearby returns the venues of one category ordered by distance from at.
func (es *ElasticStore) Nearby(ctx context.Context, category types.Category, at types.Coordinate) ([]types.Venue, error) {
	searchResult, err := es.Client.Search().
		Index(es.Index).
		Query(elastic.NewBoolQuery().Filter(elastic.NewTermQuery("category", string(category)))).
		SortBy(elastic.NewGeoDistanceSort("location").
			Point(at.Lat, at.Lon).
			Asc().
			Unit("m").
			DistanceType("arc").
			IgnoreUnmapped(true)).
		Size(es.Limit).
		Do(ctx)
	if err != nil {
		return nil, searchError(err)
	}
	if searchResult.Hits == nil {
		return []types.Venue{}, nil
	}

	return decodeHits(searchResult.Hits.Hits)
}

func decodeHits(hits []*elastic.SearchHit) ([]types.Venue, error) {
	venues := make([]types.Venue, 0, len(hits))
	for _, hit := range hits {
		var doc venueDoc
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			return nil, &types.FetchError{Kind: types.Decode, Err: err}
		}
		venues = append(venues, types.Venue{
			Name:     doc.Name,
			Address:  doc.Address,
			Distance: sortDistance(hit.Sort),
			Rating:   doc.Rating,
		})
	}
	return venues, nil
}

func sortDistance(sort []interface{}) int {
	if len(sort) == 0 {
		return 0
	}
	if d, ok := sort[0].(float64); ok && !math.IsInf(d, 0) {
		return int(math.Round(d))
	}
	return 0
}

func searchError(err error) error {
	var esErr *elastic.Error
	if errors.As(err, &esErr) {
		return &types.FetchError{Kind: types.Status, StatusCode: esErr.Status, Err: err}
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &types.FetchError{Kind: types.Decode, Err: err}
	}
	return &types.FetchError{Kind: types.Network, Err: err}
}

func (es *ElasticStore) LoadData(pathData string) error {
	venues, err := readTSV(pathData)
	if err != nil {
		return err
	}
	return es.saveVenues(venues)
}

func (es *ElasticStore) CreateIndexWithMapping(index, pathStruct string) error {
	ctx := context.Background()

	exists, err := es.Client.IndexExists(index).Do(ctx)
	if err != nil {
		return fmt.Errorf("db: checking index %s: %w", index, err)
	}

	es.Index = index
	if exists {
		log.Println("Index already exists.")
		return nil
	}

	schemaBytes, err := os.ReadFile(pathStruct)
	if err != nil {
		return err
	}

	createIndex, err := es.Client.CreateIndex(index).BodyString(string(schemaBytes)).Do(ctx)
	if err != nil {
		return fmt.Errorf("db: creating index %s: %w", index, err)
	}
	if !createIndex.Acknowledged {
		log.Println("CreateIndex was not acknowledged. Check that timeout value is correct.")
	}

	settings := map[string]interface{}{
		"index": map[string]interface{}{
			"max_result_window": 20000,
		},
	}
	if err = es.updateIndexSettings(index, settings); err != nil {
		return err
	}

	log.Println("Index created!")
	return nil
}

// readTSV parses rows of id, name, address, category, rating, lon, lat.
// The first row is a header; malformed rows are skipped.
func readTSV(filePath string) ([]venueDoc, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var venues []venueDoc
	var mutex sync.Mutex
	var wg sync.WaitGroup

	for i, record := range records {
		if i == 0 {
			continue
		}

		wg.Add(1)
		go func(line int, record []string) {
			defer wg.Done()
			doc, err := parseRecord(record)
			if err != nil {
				log.Printf("%s:%d: %s", filePath, line, err)
				return
			}
			mutex.Lock()
			venues = append(venues, doc)
			mutex.Unlock()
		}(i+1, record)
	}

	wg.Wait()
	return venues, nil
}

func parseRecord(record []string) (venueDoc, error) {
	if len(record) < 7 {
		return venueDoc{}, fmt.Errorf("want 7 fields, got %d", len(record))
	}
	rating, err := strconv.ParseFloat(record[4], 64)
	if err != nil {
		return venueDoc{}, fmt.Errorf("rating: %w", err)
	}
	longitude, err := strconv.ParseFloat(record[5], 64)
	if err != nil {
		return venueDoc{}, fmt.Errorf("longitude: %w", err)
	}
	latitude, err := strconv.ParseFloat(record[6], 64)
	if err != nil {
		return venueDoc{}, fmt.Errorf("latitude: %w", err)
	}

	return venueDoc{
		ID:       record[0],
		Name:     record[1],
		Address:  record[2],
		Category: record[3],
		Rating:   rating,
		Location: elastic.GeoPoint{Lat: latitude, Lon: longitude},
	}, nil
}

func (es *ElasticStore) saveVenues(venues []venueDoc) error {
	if len(venues) == 0 {
		return nil
	}
	ctx := context.Background()
	bulkRequest := es.Client.Bulk()

	for _, venue := range venues {
		req := elastic.NewBulkIndexRequest().Index(es.Index).Id(venue.ID).Doc(venue)
		bulkRequest = bulkRequest.Add(req)
	}

	bulkResponse, err := bulkRequest.Do(ctx)
	if err != nil {
		return fmt.Errorf("db: bulk request: %w", err)
	}

	for _, item := range bulkResponse.Items {
		for _, op := range item {
			if op.Error != nil {
				log.Printf("Failed to execute operation: %s", op.Error.Reason)
			}
		}
	}

	log.Printf("Indexed %d venues", len(venues))
	return nil
}

func (es *ElasticStore) updateIndexSettings(index string, settings map[string]interface{}) error {
	ctx := context.Background()

	_, err := es.Client.IndexPutSettings(index).BodyJson(settings).Do(ctx)
	if err != nil {
		return fmt.Errorf("db: updating index settings: %w", err)
	}

	log.Println("Index settings updated successfully!")
	return nil
}
