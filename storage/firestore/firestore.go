// Package firestorerepos implements the repositories on Cloud Firestore.
// Subscriptions are served by the Firestore realtime snapshots.
package firestorerepos

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/trezcool/absensi/core"
)

// Collections
const (
	usersCollection      = "users"
	teachersCollection   = "teachers"
	rosterCollection     = "roster"
	attendanceCollection = "attendance"
	studentsCollection   = "students"
)

// DB is a Firestore client whose collection names all start with a prefix.
type DB struct {
	client *firestore.Client
	prefix string
	logger core.Logger
}

// Open connects to the Firestore project of conf.
// The emulator is used when FIRESTORE_EMULATOR_HOST is set.
func Open(ctx context.Context, conf *core.Config, logger core.Logger) (*DB, error) {
	var opts []option.ClientOption
	if conf.Firestore.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(conf.Firestore.CredentialsFile))
	} else if conf.Firestore.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(conf.Firestore.CredentialsJSON)))
	}

	projectID := conf.Firestore.ProjectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "creating firestore client")
	}
	return NewDB(client, "", logger), nil
}

// NewDB wraps client. prefix is prepended to every collection name.
func NewDB(client *firestore.Client, prefix string, logger core.Logger) *DB {
	return &DB{client: client, prefix: prefix, logger: logger}
}

func (db *DB) Close() error {
	return db.client.Close()
}

func (db *DB) collection(name string) *firestore.CollectionRef {
	return db.client.Collection(db.prefix + name)
}

// doc returns the document ref of id, or nil if id is not a valid ID.
func (db *DB) doc(collection, id string) *firestore.DocumentRef {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	return db.collection(collection).Doc(id)
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// trapNotFoundErr maps the NotFound status to notFound.
func trapNotFoundErr(err, notFound error, msg string) error {
	if isNotFound(err) {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// trapTxErr returns the domain errors raised within a transaction as is.
func trapTxErr(err error, msg string, sentinels ...error) error {
	if err == nil {
		return nil
	}
	cause := errors.Cause(err)
	for _, s := range sentinels {
		if cause == s {
			return s
		}
	}
	return errors.Wrap(err, msg)
}

// readAll decodes all the documents of iter.
func readAll[T any](iter *firestore.DocumentIterator, decode func(*firestore.DocumentSnapshot) (T, error)) ([]T, error) {
	defer iter.Stop()

	items := make([]T, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading documents")
		}
		item, err := decode(doc)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// replace overwrites the document at ref, or returns notFound if it does not exist.
func (db *DB) replace(ctx context.Context, ref *firestore.DocumentRef, data interface{}, notFound error) error {
	if ref == nil {
		return notFound
	}
	err := db.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			if isNotFound(err) {
				return notFound
			}
			return err
		}
		return tx.Set(ref, data)
	})
	return trapTxErr(err, "replacing "+ref.Path, notFound)
}

func (db *DB) remove(ctx context.Context, ref *firestore.DocumentRef, notFound error) error {
	if ref == nil {
		return notFound
	}
	if _, err := ref.Delete(ctx, firestore.Exists); err != nil {
		return trapNotFoundErr(err, notFound, "deleting "+ref.Path)
	}
	return nil
}

// subscribe calls fn with the documents of q, sorted by sortFn, then again on every change,
// until the returned func is called or ctx is done.
func subscribe[T any](
	ctx context.Context,
	db *DB,
	q firestore.Query,
	decode func(*firestore.DocumentSnapshot) (T, error),
	sortFn func([]T),
	fn func([]T),
) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	it := q.Snapshots(ctx)
	go func() {
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				if ctx.Err() == nil && err != iterator.Done && status.Code(err) != codes.Canceled {
					db.logger.Error("watching firestore query", err)
				}
				return
			}
			items, err := readAll(snap.Documents, decode)
			if err != nil {
				db.logger.Error("reading firestore snapshot", err)
				continue
			}
			sortFn(items)
			if ctx.Err() != nil {
				return
			}
			fn(items)
		}
	}()
	return cancel, nil
}
