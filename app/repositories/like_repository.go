package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"likeboard/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerLikeRepository implements the like ledger using BadgerDB.
//
// Badger transactions are serializable snapshots: every key read inside
// Toggle (the post and the like pair) is checked at commit, so two toggles
// touching the same post cannot both commit from the same snapshot. The
// loser gets ErrTxnConflict and has written nothing.
type BadgerLikeRepository struct {
	db   *badger.DB
	seqs *sequences
}

// Toggle flips the like of userID on postID and moves the counter with it
func (r *BadgerLikeRepository) Toggle(ctx context.Context, userID, postID int) (*models.LikeToggle, error) {
	likeID, err := r.seqs.next(LikeSeqKey)
	if err != nil {
		return nil, err
	}

	var result models.LikeToggle
	err = updateOnce(ctx, r.db, func(txn *badger.Txn) error {
		post, err := getPost(txn, postID)
		if err != nil {
			return err
		}
		if post.UserID == userID {
			return ErrSelfLike
		}

		liked, err := exists(txn, likeKey(postID, userID))
		if err != nil {
			return err
		}

		if !liked {
			like := &models.Like{
				ID:        likeID,
				UserID:    userID,
				PostID:    postID,
				CreatedAt: time.Now().UTC(),
			}
			if err := putEntity(txn, likeKey(postID, userID), like); err != nil {
				return err
			}
			if err := txn.Set(userLikeKey(userID, postID), []byte{}); err != nil {
				return err
			}
			post.LikeCount++
		} else {
			if post.LikeCount <= 0 {
				return fmt.Errorf("post %d like counter would go negative", postID)
			}
			if err := txn.Delete(likeKey(postID, userID)); err != nil {
				return err
			}
			if err := txn.Delete(userLikeKey(userID, postID)); err != nil {
				return err
			}
			post.LikeCount--
		}

		if err := putEntity(txn, postKey(postID), post); err != nil {
			return err
		}
		result = models.LikeToggle{PostID: postID, Liked: !liked, LikeCount: post.LikeCount}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Get returns the like of userID on postID
func (r *BadgerLikeRepository) Get(ctx context.Context, userID, postID int) (*models.Like, error) {
	var like models.Like
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		return getEntity(txn, likeKey(postID, userID), &like)
	})
	if err != nil {
		return nil, err
	}
	return &like, nil
}

// CountByPost counts the ledger entries of a post
func (r *BadgerLikeRepository) CountByPost(ctx context.Context, postID int) (int, error) {
	var count int
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		count = len(keysWithPrefix(txn, likePrefix(postID)))
		return nil
	})
	return count, err
}

// ListLikedPosts returns the posts liked by userID, most liked first
func (r *BadgerLikeRepository) ListLikedPosts(ctx context.Context, userID int) ([]*models.Post, error) {
	var posts []*models.Post
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		for _, key := range keysWithPrefix(txn, userLikePrefix(userID)) {
			postID, err := trailingID(key)
			if err != nil {
				return err
			}
			post, err := getPost(txn, postID)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			posts = append(posts, post)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].LikeCount != posts[j].LikeCount {
			return posts[i].LikeCount > posts[j].LikeCount
		}
		return posts[i].ID > posts[j].ID
	})
	return posts, nil
}
