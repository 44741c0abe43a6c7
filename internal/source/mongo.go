package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sensorpipe/internal/dataset"
)

// MongoFetcher reads every document of one collection and materializes it
// into a frame. Column order is sorted field names so the same collection
// always yields the same tabular layout.
type MongoFetcher struct {
	uri        string
	database   string
	collection string
	timeout    time.Duration
	logger     *slog.Logger
}

// MongoOption configures the MongoFetcher during construction.
type MongoOption func(*MongoFetcher)

// WithTimeout bounds each fetch (connect + query). Default 30s.
func WithTimeout(d time.Duration) MongoOption {
	return func(f *MongoFetcher) { f.timeout = d }
}

// WithLogger configures structured logging.
func WithLogger(l *slog.Logger) MongoOption {
	return func(f *MongoFetcher) { f.logger = l }
}

// NewMongoFetcher creates a fetcher for one collection.
func NewMongoFetcher(uri, database, collection string, opts ...MongoOption) (*MongoFetcher, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo: uri is required")
	}
	if database == "" || collection == "" {
		return nil, fmt.Errorf("mongo: database and collection are required")
	}
	f := &MongoFetcher{
		uri:        uri,
		database:   database,
		collection: collection,
		timeout:    30 * time.Second,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// FetchAll implements Fetcher against the configured collection. Zero
// documents is an error (ErrNoRecords) so acquisition can fall back.
func (f *MongoFetcher) FetchAll(ctx context.Context) (*dataset.Frame, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(f.uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			f.logger.Warn("mongo disconnect failed", "error", err)
		}
	}()

	coll := client.Database(f.database).Collection(f.collection)
	cur, err := coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("mongo find %s.%s: %w", f.database, f.collection, err)
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo cursor: %w", err)
	}
	if len(docs) == 0 {
		return nil, ErrNoRecords
	}

	f.logger.Info("fetched collection", "collection", f.collection, "records", len(docs))
	return framifyDocuments(docs), nil
}

// framifyDocuments flattens documents into a frame. The _id field is
// dropped; fields missing from a document become empty cells.
func framifyDocuments(docs []bson.M) *dataset.Frame {
	fields := map[string]bool{}
	for _, doc := range docs {
		for k := range doc {
			if k != "_id" {
				fields[k] = true
			}
		}
	}
	columns := make([]string, 0, len(fields))
	for k := range fields {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	rows := make([][]string, len(docs))
	for i, doc := range docs {
		row := make([]string, len(columns))
		for j, col := range columns {
			if v, ok := doc[col]; ok && v != nil {
				row[j] = fmt.Sprint(v)
			}
		}
		rows[i] = row
	}
	return &dataset.Frame{Columns: columns, Rows: rows}
}
