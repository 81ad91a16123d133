package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/ports"
)

type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	cb     *gobreaker.CircuitBreaker
}

var _ ports.DocumentStore = (*MongoStore)(nil)

// NewMongoStore connects and pings the server before returning.
func NewMongoStore(ctx context.Context, uri, database string, cb *gobreaker.CircuitBreaker) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(10*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &MongoStore{client: client, db: client.Database(database), cb: cb}, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) FindAll(ctx context.Context, collection string) ([]ports.Document, error) {
	res, err := s.execute(func() (interface{}, error) {
		cur, err := s.db.Collection(collection).Find(ctx, bson.D{})
		if err != nil {
			return nil, err
		}
		var raw []bson.M
		if err := cur.All(ctx, &raw); err != nil {
			return nil, err
		}
		docs := make([]ports.Document, 0, len(raw))
		for _, m := range raw {
			docs = append(docs, fromBSON(m))
		}
		return docs, nil
	})
	if err != nil {
		return nil, err
	}
	return res.([]ports.Document), nil
}

func (s *MongoStore) FindOne(ctx context.Context, collection string, filter ports.Filter) (ports.Document, error) {
	res, err := s.execute(func() (interface{}, error) {
		var m bson.M
		err := s.db.Collection(collection).FindOne(ctx, toBSONFilter(filter)).Decode(&m)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ports.Document(nil), nil
		}
		if err != nil {
			return nil, err
		}
		return fromBSON(m), nil
	})
	if err != nil {
		return nil, err
	}
	return res.(ports.Document), nil
}

func (s *MongoStore) InsertOne(ctx context.Context, collection string, doc ports.Document) (string, error) {
	res, err := s.execute(func() (interface{}, error) {
		out, err := s.db.Collection(collection).InsertOne(ctx, bson.M(doc))
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateID, doc["_id"])
		}
		if err != nil {
			return nil, err
		}
		return idString(out.InsertedID), nil
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

func (s *MongoStore) UpdateOne(ctx context.Context, collection string, filter ports.Filter, set ports.Document) (int64, error) {
	res, err := s.execute(func() (interface{}, error) {
		out, err := s.db.Collection(collection).UpdateOne(ctx, toBSONFilter(filter), bson.M{"$set": bson.M(set)})
		if err != nil {
			return nil, err
		}
		return out.MatchedCount, nil
	})
	if err != nil {
		return 0, err
	}
	return res.(int64), nil
}

func (s *MongoStore) DeleteOne(ctx context.Context, collection string, filter ports.Filter) (int64, error) {
	res, err := s.execute(func() (interface{}, error) {
		out, err := s.db.Collection(collection).DeleteOne(ctx, toBSONFilter(filter))
		if err != nil {
			return nil, err
		}
		return out.DeletedCount, nil
	})
	if err != nil {
		return 0, err
	}
	return res.(int64), nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) execute(fn func() (interface{}, error)) (interface{}, error) {
	if s.cb == nil {
		return fn()
	}
	return s.cb.Execute(fn)
}

// toBSONFilter lets an "_id" given as hex also match a server generated
// ObjectID.
func toBSONFilter(filter ports.Filter) bson.M {
	out := make(bson.M, len(filter))
	for k, v := range filter {
		if k == "_id" {
			if id, ok := v.(string); ok {
				if oid, err := primitive.ObjectIDFromHex(id); err == nil {
					out[k] = bson.M{"$in": bson.A{id, oid}}
					continue
				}
			}
		}
		out[k] = v
	}
	return out
}

func fromBSON(m bson.M) ports.Document {
	doc := make(ports.Document, len(m))
	for k, v := range m {
		doc[k] = normalize(v)
	}
	return doc
}

func normalize(v any) any {
	switch t := v.(type) {
	case bson.M:
		return map[string]any(fromBSON(t))
	case bson.D:
		return map[string]any(fromBSON(t.Map()))
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC()
	}
	return v
}

func idString(id any) string {
	switch t := id.(type) {
	case string:
		return t
	case primitive.ObjectID:
		return t.Hex()
	}
	return fmt.Sprint(id)
}
