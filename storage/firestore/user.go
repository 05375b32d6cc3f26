package firestorerepos

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"

	"github.com/trezcool/absensi/core"
	"github.com/trezcool/absensi/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func decodeUser(doc *firestore.DocumentSnapshot) (user.User, error) {
	var usr user.User
	if err := doc.DataTo(&usr); err != nil {
		return user.User{}, errors.Wrap(err, "decoding user")
	}
	usr.ID = doc.Ref.ID
	return usr, nil
}

func (repo *userRepository) coll() *firestore.CollectionRef {
	return repo.db.collection(usersCollection)
}

// findBy returns the users whose field equals value.
func (repo *userRepository) findBy(ctx context.Context, field, value string) ([]user.User, error) {
	if value == "" {
		return []user.User{}, nil
	}
	return readAll(repo.coll().Where(field, "==", value).Documents(ctx), decodeUser)
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedIDs ...string) error {
	for _, check := range []struct {
		field, value string
		err          error
	}{
		{"username", username, user.ErrUsernameExists},
		{"email", email, user.ErrEmailExists},
	} {
		users, err := repo.findBy(ctx, check.field, check.value)
		if err != nil {
			return errors.Wrap(err, "checking user uniqueness")
		}
		for _, usr := range users {
			if !contains(excludedIDs, usr.ID) {
				return check.err
			}
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	ref := repo.db.doc(usersCollection, usr.ID)
	if ref == nil {
		return user.User{}, errors.Errorf("invalid user ID %q", usr.ID)
	}
	if _, err := ref.Create(ctx, usr); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	ref := repo.db.doc(usersCollection, id)
	if ref == nil {
		return user.User{}, user.ErrNotFound
	}
	doc, err := ref.Get(ctx)
	if err != nil {
		return user.User{}, trapNotFoundErr(err, user.ErrNotFound, "finding user by ID")
	}
	return decodeUser(doc)
}

func (repo *userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	for _, field := range []string{"username", "email"} {
		users, err := repo.findBy(ctx, field, username)
		if err != nil {
			return user.User{}, errors.Wrap(err, "finding user by "+field)
		}
		if len(users) > 0 {
			return users[0], nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error) {
	q := repo.coll().Query
	if filter.Group != "" {
		q = q.Where("groups", "array-contains", filter.Group)
	}
	if filter.IsActive != nil {
		q = q.Where("is_active", "==", *filter.IsActive)
	}
	all, err := readAll(q.Documents(ctx), decodeUser)
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(all))
	for _, usr := range all {
		if filter.Match(usr) {
			users = append(users, usr)
		}
	}
	user.SortUsers(users, ordering...)
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	if err := repo.db.replace(ctx, repo.db.doc(usersCollection, usr.ID), usr, user.ErrNotFound); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	batch := repo.db.client.Batch()
	n := 0
	for _, id := range ids {
		if ref := repo.db.doc(usersCollection, id); ref != nil {
			batch.Delete(ref)
			n++
		}
	}
	if n == 0 {
		return nil
	}
	if _, err := batch.Commit(ctx); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
