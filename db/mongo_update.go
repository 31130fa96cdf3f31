package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *MongoStore) Create(ctx context.Context, path string, value any) error {
	p, err := documentPath(path)
	if err != nil {
		return err
	}
	doc, err := withID(p.Document, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteFailed, path, err)
	}
	_, err = s.db.Collection(p.Collection).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", ErrExists, path)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteFailed, path, err)
	}
	return nil
}

func (s *MongoStore) AddToSet(ctx context.Context, path string, value any) (bool, error) {
	res, err := s.updateField(ctx, path, nil, func(field string) bson.M {
		return bson.M{"$addToSet": bson.M{field: value}}
	}, true)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0 || res.UpsertedCount > 0, nil
}

func (s *MongoStore) Pull(ctx context.Context, path string, value any) (bool, error) {
	res, err := s.updateField(ctx, path, nil, func(field string) bson.M {
		return bson.M{"$pull": bson.M{field: value}}
	}, false)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (s *MongoStore) Append(ctx context.Context, path string, value any, keepLast int) error {
	_, err := s.updateField(ctx, path, nil, func(field string) bson.M {
		push := bson.M{"$each": bson.A{value}}
		if keepLast > 0 {
			push["$slice"] = -keepLast
		}
		return bson.M{"$push": bson.M{field: push}}
	}, true)
	return err
}

func (s *MongoStore) UpdateListItem(ctx context.Context, path string, item ListItem, field string, value any) (bool, error) {
	res, err := s.updateField(ctx, path, &item, func(list string) bson.M {
		return bson.M{"$set": bson.M{list + ".$." + field: value}}
	}, false)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// updateField runs one UpdateOne against the document holding the list
// at path. match narrows the filter to documents with a matching element.
func (s *MongoStore) updateField(ctx context.Context, path string, match *ListItem, update func(field string) bson.M, upsert bool) (*mongo.UpdateResult, error) {
	p, err := listPath(path)
	if err != nil {
		return nil, err
	}
	field := p.FieldPath()
	filter := bson.M{"_id": p.Document}
	if match != nil {
		filter[field+"."+match.Key] = match.Value
	}

	res, err := s.db.Collection(p.Collection).UpdateOne(ctx, filter, update(field), options.Update().SetUpsert(upsert))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrWriteFailed, path, err)
	}
	return res, nil
}

// withID encodes value as a document whose _id is id.
func withID(id string, value any) (bson.D, error) {
	data, err := bson.Marshal(value)
	if err != nil {
		return nil, err
	}
	var fields bson.D
	if err := bson.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	doc := bson.D{{Key: "_id", Value: id}}
	for _, e := range fields {
		if e.Key != "_id" {
			doc = append(doc, e)
		}
	}
	return doc, nil
}
