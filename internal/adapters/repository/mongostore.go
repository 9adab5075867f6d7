package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/okian/riskpoll/internal/domain/model"
)

// Default MongoDB settings.
const (
	DefaultMongoDatabase       = "riskpoll"
	DefaultMongoCollection     = "submissions"
	DefaultMongoConnectTimeout = 5 * time.Second
	mongoDisconnectTimeout     = 5 * time.Second
)

var _ Store = (*MongoStore)(nil)

// MongoConfig configures the document store.
type MongoConfig struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

func (c MongoConfig) withDefaults() MongoConfig {
	if c.Database == "" {
		c.Database = DefaultMongoDatabase
	}
	if c.Collection == "" {
		c.Collection = DefaultMongoCollection
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultMongoConnectTimeout
	}
	return c
}

// submissionDocument is one stored submission.
type submissionDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	RiskPercentage string             `bson:"riskPercentage"`
	Gender         string             `bson:"gender"`
	Age            float64            `bson:"age"`
	CreatedAt      time.Time          `bson:"createdAt"`
}

func newSubmissionDocument(risk string, rec model.Record, now time.Time) submissionDocument {
	return submissionDocument{
		RiskPercentage: risk,
		Gender:         string(rec.Gender),
		Age:            rec.Age,
		CreatedAt:      now.UTC(),
	}
}

func (d submissionDocument) record() model.Record {
	return model.Record{Gender: model.Gender(d.Gender), Age: d.Age}
}

// MongoStore stores one document per submission and regroups them on read,
// in insertion order.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// NewMongoStore connects and pings the server within cfg.ConnectTimeout.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo uri must not be empty")
	}
	cfg = cfg.withDefaults()

	cctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(cfg.ConnectTimeout).
		SetConnectTimeout(cfg.ConnectTimeout))
	if err != nil {
		return nil, unavailable("mongo connect", err)
	}
	if err := client.Ping(cctx, readpref.Primary()); err != nil {
		_ = disconnect(client)
		return nil, unavailable("mongo ping", err)
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		now:    time.Now,
	}, nil
}

// Backend implements Store.
func (s *MongoStore) Backend() string { return BackendMongo }

// Append implements Store.
func (s *MongoStore) Append(ctx context.Context, risk string, rec model.Record) (err error) {
	defer func(start time.Time) { observe(BackendMongo, "append", start, err) }(time.Now())

	if _, err := s.coll.InsertOne(ctx, newSubmissionDocument(risk, rec, s.now())); err != nil {
		return unavailable("mongo insert", err)
	}
	return nil
}

// LoadAll implements Store.
func (s *MongoStore) LoadAll(ctx context.Context) (groups model.Groups, err error) {
	defer func(start time.Time) { observe(BackendMongo, "load_all", start, err) }(time.Now())

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, unavailable("mongo find", err)
	}
	defer func() { _ = cur.Close(ctx) }()

	b := model.NewGroupsBuilder()
	for cur.Next(ctx) {
		var doc submissionDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, unavailable("mongo decode", err)
		}
		b.Add(doc.RiskPercentage, doc.record())
	}
	if err := cur.Err(); err != nil {
		return nil, unavailable("mongo cursor", err)
	}
	return b.Groups(), nil
}

// Close implements Store.
func (s *MongoStore) Close() error {
	return disconnect(s.client)
}

func disconnect(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}
