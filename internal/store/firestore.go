package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore keeps each key as a document in one collection. The blob
// is stored as a string field so documents stay readable in the console.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreStore opens a client for projectID. An empty databaseID
// selects the "(default)" database; credentialsFile may be empty to use
// application default credentials.
func NewFirestoreStore(ctx context.Context, projectID, databaseID, collection, credentialsFile string) (*FirestoreStore, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	return &FirestoreStore{client: client, collection: collection}, nil
}

func (f *FirestoreStore) doc(key string) *firestore.DocumentRef {
	return f.client.Collection(f.collection).Doc(key)
}

func (f *FirestoreStore) Get(ctx context.Context, key string) ([]byte, error) {
	snap, err := f.doc(key).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}

	raw, err := snap.DataAt("value")
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}
	value, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("decoding %s: value is %T, not a string", key, raw)
	}
	return []byte(value), nil
}

func (f *FirestoreStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := f.doc(key).Set(ctx, map[string]interface{}{
		"value":     string(value),
		"updatedAt": firestore.ServerTimestamp,
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (f *FirestoreStore) Delete(ctx context.Context, key string) error {
	if _, err := f.doc(key).Delete(ctx); err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

func (f *FirestoreStore) Close() error {
	return f.client.Close()
}
