package repositories

import (
	"context"
	"fmt"
	"sort"
	"time"

	"likeboard/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerPostRepository implements PostRepository using BadgerDB
type BadgerPostRepository struct {
	db   *badger.DB
	seqs *sequences
}

// Create creates a new post
func (r *BadgerPostRepository) Create(ctx context.Context, post *models.Post) error {
	id, err := r.seqs.next(PostSeqKey)
	if err != nil {
		return err
	}
	post.ID = id
	post.BeforeCreate()

	return update(ctx, r.db, func(txn *badger.Txn) error {
		return putEntity(txn, postKey(post.ID), post)
	})
}

// GetByID retrieves a post by ID
func (r *BadgerPostRepository) GetByID(ctx context.Context, id int) (*models.Post, error) {
	var post *models.Post
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		var err error
		post, err = getPost(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// List retrieves a page of posts, newest first
func (r *BadgerPostRepository) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(PostKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var post models.Post
			err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &post)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal post: %w", err)
			}
			posts = append(posts, &post)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID > posts[j].ID
	})
	return paginate(posts, limit, offset), nil
}

// UpdateContent replaces title and content of an existing post. The post
// is re-read inside the transaction so a concurrent like toggle is never
// overwritten.
func (r *BadgerPostRepository) UpdateContent(ctx context.Context, id int, title, content string) (*models.Post, error) {
	var updated *models.Post
	err := update(ctx, r.db, func(txn *badger.Txn) error {
		post, err := getPost(txn, id)
		if err != nil {
			return err
		}
		post.Title = title
		post.Content = content
		post.UpdatedAt = time.Now().UTC()
		if err := putEntity(txn, postKey(id), post); err != nil {
			return err
		}
		updated = post
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete deletes a post with its likes and comments in one transaction
func (r *BadgerPostRepository) Delete(ctx context.Context, id int) error {
	return update(ctx, r.db, func(txn *badger.Txn) error {
		if _, err := getPost(txn, id); err != nil {
			return err
		}

		for _, key := range keysWithPrefix(txn, likePrefix(id)) {
			userID, err := trailingID(key)
			if err != nil {
				return err
			}
			if err := txn.Delete(key); err != nil {
				return err
			}
			if err := txn.Delete(userLikeKey(userID, id)); err != nil {
				return err
			}
		}

		for _, key := range keysWithPrefix(txn, postCommentPrefix(id)) {
			commentID, err := trailingID(key)
			if err != nil {
				return err
			}
			if err := txn.Delete(commentKey(commentID)); err != nil {
				return err
			}
			if err := txn.Delete(key); err != nil {
				return err
			}
		}

		return txn.Delete(postKey(id))
	})
}

func getPost(txn *badger.Txn, id int) (*models.Post, error) {
	var post models.Post
	if err := getEntity(txn, postKey(id), &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// paginate slices posts; a non-positive limit returns everything after offset.
func paginate(posts []*models.Post, limit, offset int) []*models.Post {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(posts) {
		return []*models.Post{}
	}
	end := len(posts)
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}
	return posts[offset:end]
}
