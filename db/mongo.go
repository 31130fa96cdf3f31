package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore maps paths onto MongoDB: the first segment names the
// collection, the second the document _id and the rest a dotted field
// path inside that document.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{client: client, db: client.Database(database)}
}

func (s *MongoStore) Read(ctx context.Context, path string, out any) (bool, error) {
	return s.read(ctx, path, out)
}

func (s *MongoStore) Write(ctx context.Context, path string, value any) error {
	return s.write(ctx, path, value)
}

// RunTransaction runs fn inside a multi-document transaction. Transient
// transaction errors are retried by the driver. Requires a replica set.
func (s *MongoStore) RunTransaction(ctx context.Context, fn func(tx Txn) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("%w: start session: %v", ErrWriteFailed, err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(&mongoTxn{store: s, ctx: sc})
	})
	return err
}

func (s *MongoStore) read(ctx context.Context, path string, out any) (bool, error) {
	p, err := ParsePath(path)
	if err != nil {
		return false, err
	}
	coll := s.db.Collection(p.Collection)
	if p.Document == "" {
		return readCollection(ctx, coll, out)
	}

	opts := options.FindOne()
	if len(p.Fields) > 0 {
		opts.SetProjection(bson.M{p.FieldPath(): 1})
	}
	raw, err := coll.FindOne(ctx, bson.M{"_id": p.Document}, opts).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}

	if len(p.Fields) == 0 {
		if err := bson.Unmarshal(raw, out); err != nil {
			return false, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
		}
		return true, nil
	}

	val := raw.Lookup(p.Fields...)
	if val.IsZero() || val.Type == bson.TypeNull {
		return false, nil
	}
	if err := val.Unmarshal(out); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return true, nil
}

// readCollection decodes every document of coll into out as a map keyed
// by _id.
func readCollection(ctx context.Context, coll *mongo.Collection, out any) (bool, error) {
	cursor, err := coll.Find(ctx, bson.M{})
	if err != nil {
		return false, fmt.Errorf("read %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	docs := bson.D{}
	for cursor.Next(ctx) {
		id, ok := cursor.Current.Lookup("_id").StringValueOK()
		if !ok {
			continue
		}
		docs = append(docs, bson.E{Key: id, Value: bson.Raw(append([]byte(nil), cursor.Current...))})
	}
	if err := cursor.Err(); err != nil {
		return false, fmt.Errorf("read %s: %w", coll.Name(), err)
	}
	if len(docs) == 0 {
		return false, nil
	}

	data, err := bson.Marshal(docs)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrDecode, coll.Name(), err)
	}
	if err := bson.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrDecode, coll.Name(), err)
	}
	return true, nil
}

func (s *MongoStore) write(ctx context.Context, path string, value any) error {
	p, err := ParsePath(path)
	if err != nil {
		return err
	}
	if p.Document == "" {
		return fmt.Errorf("%w: %s: collection-level writes are not supported", ErrInvalidPath, path)
	}

	coll := s.db.Collection(p.Collection)
	filter := bson.M{"_id": p.Document}

	switch {
	case len(p.Fields) == 0 && value == nil:
		_, err = coll.DeleteOne(ctx, filter)
	case len(p.Fields) == 0:
		_, err = coll.ReplaceOne(ctx, filter, value, options.Replace().SetUpsert(true))
	case value == nil:
		_, err = coll.UpdateOne(ctx, filter, bson.M{"$unset": bson.M{p.FieldPath(): ""}})
	default:
		_, err = coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{p.FieldPath(): value}}, options.Update().SetUpsert(true))
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteFailed, path, err)
	}
	return nil
}

type mongoTxn struct {
	store *MongoStore
	ctx   mongo.SessionContext
}

func (t *mongoTxn) Read(path string, out any) (bool, error) {
	return t.store.read(t.ctx, path, out)
}

func (t *mongoTxn) Write(path string, value any) error {
	return t.store.write(t.ctx, path, value)
}
