package repositories

import (
	"context"
	"sort"
	"time"

	"likeboard/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerCommentRepository implements CommentRepository using BadgerDB
type BadgerCommentRepository struct {
	db   *badger.DB
	seqs *sequences
}

// Create creates a new comment. The parent post is read in the same
// transaction so a comment can't be attached to a post being deleted.
func (r *BadgerCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	id, err := r.seqs.next(CommentSeqKey)
	if err != nil {
		return err
	}
	comment.ID = id
	comment.BeforeCreate()

	return update(ctx, r.db, func(txn *badger.Txn) error {
		if _, err := getPost(txn, comment.PostID); err != nil {
			return err
		}
		if err := putEntity(txn, commentKey(comment.ID), comment); err != nil {
			return err
		}
		// Index by post for efficient listing
		return txn.Set(postCommentKey(comment.PostID, comment.ID), []byte{})
	})
}

// GetByID retrieves a comment by ID
func (r *BadgerCommentRepository) GetByID(ctx context.Context, id int) (*models.Comment, error) {
	var comment models.Comment
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		return getEntity(txn, commentKey(id), &comment)
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByPost retrieves all comments for a post, oldest first
func (r *BadgerCommentRepository) ListByPost(ctx context.Context, postID int) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		for _, key := range keysWithPrefix(txn, postCommentPrefix(postID)) {
			commentID, err := trailingID(key)
			if err != nil {
				return err
			}
			var comment models.Comment
			if err := getEntity(txn, commentKey(commentID), &comment); err != nil {
				return err
			}
			comments = append(comments, &comment)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(comments, func(i, j int) bool {
		return comments[i].ID < comments[j].ID
	})
	return comments, nil
}

// UpdateContent replaces the content of an existing comment
func (r *BadgerCommentRepository) UpdateContent(ctx context.Context, id int, content string) (*models.Comment, error) {
	var updated models.Comment
	err := update(ctx, r.db, func(txn *badger.Txn) error {
		if err := getEntity(txn, commentKey(id), &updated); err != nil {
			return err
		}
		updated.Content = content
		updated.UpdatedAt = time.Now().UTC()
		return putEntity(txn, commentKey(id), &updated)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete deletes a comment by ID
func (r *BadgerCommentRepository) Delete(ctx context.Context, id int) error {
	return update(ctx, r.db, func(txn *badger.Txn) error {
		var comment models.Comment
		if err := getEntity(txn, commentKey(id), &comment); err != nil {
			return err
		}
		if err := txn.Delete(postCommentKey(comment.PostID, id)); err != nil {
			return err
		}
		return txn.Delete(commentKey(id))
	})
}
