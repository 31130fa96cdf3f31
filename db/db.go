package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrWriteFailed = errors.New("write failed")
	ErrDecode      = errors.New("malformed document")
	ErrInvalidPath = errors.New("invalid document path")
	ErrExists      = errors.New("document already exists")
)

const connectTimeout = 10 * time.Second

// Txn is the view of the store handed to a transaction body. Reads see
// the transaction's own writes.
type Txn interface {
	Read(path string, out any) (bool, error)
	Write(path string, value any) error
}

// ListItem selects the element of a list of objects whose Key field
// equals Value.
type ListItem struct {
	Key   string
	Value any
}

// Updater holds the single-document operations. Each one is atomic on its
// own and needs no transaction, so they work against a standalone mongod.
// List paths must address a field inside a document.
type Updater interface {
	// Create writes a whole document and fails with ErrExists when one is
	// already stored at path.
	Create(ctx context.Context, path string, value any) error
	// AddToSet appends value to the list unless it is already present.
	AddToSet(ctx context.Context, path string, value any) (changed bool, err error)
	// Pull removes every element equal to value.
	Pull(ctx context.Context, path string, value any) (changed bool, err error)
	// Append adds value at the end of the list. With keepLast > 0 only the
	// newest keepLast elements are kept.
	Append(ctx context.Context, path string, value any, keepLast int) error
	// UpdateListItem sets field on the first element matching item and
	// reports whether one matched.
	UpdateListItem(ctx context.Context, path string, item ListItem, field string, value any) (found bool, err error)
}

// Store is a hierarchical document tree addressed by slash-separated
// paths. Read reports found=false for an absent path rather than an
// error. Write replaces the whole subtree at path; a nil value removes it.
type Store interface {
	Updater
	Read(ctx context.Context, path string, out any) (bool, error)
	Write(ctx context.Context, path string, value any) error
	RunTransaction(ctx context.Context, fn func(tx Txn) error) error
}

// Connect opens a MongoDB client and verifies it with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}
