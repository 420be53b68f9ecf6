package repositories

import (
	"context"
	"strconv"

	"likeboard/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerUserRepository implements UserRepository using BadgerDB
type BadgerUserRepository struct {
	db   *badger.DB
	seqs *sequences
}

// userRecord is the stored form of a user; it keeps the password hash that
// models.User hides from JSON.
type userRecord struct {
	models.User
	PasswordHash []byte `json:"passwordHash"`
}

// Create creates a new user. The nickname index key doubles as the
// uniqueness constraint.
func (r *BadgerUserRepository) Create(ctx context.Context, user *models.User) error {
	id, err := r.seqs.next(UserSeqKey)
	if err != nil {
		return err
	}
	user.BeforeCreate()

	return update(ctx, r.db, func(txn *badger.Txn) error {
		taken, err := exists(txn, userNicknameKey(user.Nickname))
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicate
		}

		user.ID = id
		rec := userRecord{User: *user, PasswordHash: user.PasswordHash}
		if err := putEntity(txn, userKey(id), rec); err != nil {
			return err
		}
		return txn.Set(userNicknameKey(user.Nickname), []byte(strconv.Itoa(id)))
	})
}

// GetByID retrieves a user by ID
func (r *BadgerUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	var user *models.User
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		var err error
		user, err = getUser(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetByNickname retrieves a user through the nickname index
func (r *BadgerUserRepository) GetByNickname(ctx context.Context, nickname string) (*models.User, error) {
	var user *models.User
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		item, err := txn.Get(userNicknameKey(nickname))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var id int
		err = item.Value(func(val []byte) error {
			id, err = strconv.Atoi(string(val))
			return err
		})
		if err != nil {
			return err
		}
		user, err = getUser(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func getUser(txn *badger.Txn, id int) (*models.User, error) {
	var rec userRecord
	if err := getEntity(txn, userKey(id), &rec); err != nil {
		return nil, err
	}
	user := rec.User
	user.PasswordHash = rec.PasswordHash
	return &user, nil
}
