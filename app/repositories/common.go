package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sethvargo/go-retry"
)

const (
	// Key prefixes for different entity types
	UserKeyPrefix         = "user:"
	UserNicknameKeyPrefix = "user_nick:"
	PostKeyPrefix         = "post:"
	LikeKeyPrefix         = "like:"
	UserLikeKeyPrefix     = "user_like:"
	CommentKeyPrefix      = "comment:"
	PostCommentKeyPrefix  = "post_comment:"

	// Sequence keys for auto-incrementing IDs
	UserSeqKey    = "seq:user"
	PostSeqKey    = "seq:post"
	LikeSeqKey    = "seq:like"
	CommentSeqKey = "seq:comment"

	seqBandwidth = 100

	// writeRetries bounds retries of plain CRUD writes that lost a conflict.
	writeRetries = 10
)

func userKey(id int) []byte              { return []byte(fmt.Sprintf("%s%d", UserKeyPrefix, id)) }
func userNicknameKey(nick string) []byte { return []byte(UserNicknameKeyPrefix + nick) }
func postKey(id int) []byte              { return []byte(fmt.Sprintf("%s%d", PostKeyPrefix, id)) }
func commentKey(id int) []byte           { return []byte(fmt.Sprintf("%s%d", CommentKeyPrefix, id)) }

// likeKey is unique per (post, user): the key itself enforces one like per pair.
func likeKey(postID, userID int) []byte {
	return []byte(fmt.Sprintf("%s%d:%d", LikeKeyPrefix, postID, userID))
}

func likePrefix(postID int) []byte {
	return []byte(fmt.Sprintf("%s%d:", LikeKeyPrefix, postID))
}

func userLikeKey(userID, postID int) []byte {
	return []byte(fmt.Sprintf("%s%d:%d", UserLikeKeyPrefix, userID, postID))
}

func userLikePrefix(userID int) []byte {
	return []byte(fmt.Sprintf("%s%d:", UserLikeKeyPrefix, userID))
}

func postCommentKey(postID, commentID int) []byte {
	return []byte(fmt.Sprintf("%s%d:%d", PostCommentKeyPrefix, postID, commentID))
}

func postCommentPrefix(postID int) []byte {
	return []byte(fmt.Sprintf("%s%d:", PostCommentKeyPrefix, postID))
}

// sequences hands out IDs from Badger sequences so that concurrent creates
// never contend on a shared counter key inside their transactions.
type sequences struct {
	db    *badger.DB
	mutex sync.Mutex
	seqs  map[string]*badger.Sequence
}

func newSequences(db *badger.DB) *sequences {
	return &sequences{db: db, seqs: make(map[string]*badger.Sequence)}
}

// next gets the next available ID for a given sequence key
func (s *sequences) next(seqKey string) (int, error) {
	s.mutex.Lock()
	seq, ok := s.seqs[seqKey]
	if !ok {
		var err error
		seq, err = s.db.GetSequence([]byte(seqKey), seqBandwidth)
		if err != nil {
			s.mutex.Unlock()
			return 0, fmt.Errorf("failed to open sequence %s: %w", seqKey, err)
		}
		s.seqs[seqKey] = seq
	}
	s.mutex.Unlock()

	n, err := seq.Next()
	if err != nil {
		return 0, err
	}
	// Badger sequences start at zero; IDs start at one.
	return int(n) + 1, nil
}

func (s *sequences) release() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	var errs []error
	for key, seq := range s.seqs {
		if err := seq.Release(); err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", key, err))
		}
		delete(s.seqs, key)
	}
	return errors.Join(errs...)
}

// update runs fn in a read-write transaction, retrying a few times when
// Badger reports a conflict. A conflict that outlives the retries is
// reported as ErrTxnConflict.
func update(ctx context.Context, db *badger.DB, fn func(txn *badger.Txn) error) error {
	backoff := retry.WithMaxRetries(writeRetries, retry.WithJitter(time.Millisecond, retry.NewExponential(time.Millisecond)))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := updateOnce(ctx, db, fn)
		if errors.Is(err, ErrTxnConflict) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// updateOnce runs fn in a single read-write transaction.
func updateOnce(ctx context.Context, db *badger.DB, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := db.Update(fn)
	if errors.Is(err, badger.ErrConflict) {
		return fmt.Errorf("%w: %v", ErrTxnConflict, err)
	}
	return err
}

// view runs fn in a read-only transaction.
func view(ctx context.Context, db *badger.DB, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return db.View(fn)
}

// getEntity loads the JSON value under key into entity
func getEntity(txn *badger.Txn, key []byte, entity interface{}) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return unmarshalEntity(val, entity)
	})
}

// putEntity marshals entity and stores it under key
func putEntity(txn *badger.Txn, key []byte, entity interface{}) error {
	data, err := marshalEntity(entity)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

// exists reports whether key is present. The read is tracked by the
// transaction for conflict detection.
func exists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// keysWithPrefix returns copies of every key under prefix.
func keysWithPrefix(txn *badger.Txn, prefix []byte) [][]byte {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys
}

// trailingID parses the last ":"-separated component of key.
func trailingID(key []byte) (int, error) {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == ':' {
			var id int
			if _, err := fmt.Sscanf(string(key[i+1:]), "%d", &id); err != nil {
				return 0, fmt.Errorf("malformed key %q: %w", key, err)
			}
			return id, nil
		}
	}
	return 0, fmt.Errorf("malformed key %q", key)
}

// marshalEntity marshals an entity to JSON
func marshalEntity(entity interface{}) ([]byte, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}
	return data, nil
}

// unmarshalEntity unmarshals JSON data into an entity
func unmarshalEntity(data []byte, entity interface{}) error {
	if err := json.Unmarshal(data, entity); err != nil {
		return fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return nil
}
