// Package mock provides in-memory repositories for service and controller
// tests. The like ledger keeps the same guarantees as the real stores by
// holding one lock across the ledger and counter writes.
package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"likeboard/app/models"
	"likeboard/app/repositories"
)

// Store bundles the mock repositories and shares state between them the
// way the Badger store does.
type Store struct {
	mutex    sync.RWMutex
	users    map[int]*models.User
	posts    map[int]*models.Post
	likes    map[[2]int]*models.Like
	comments map[int]*models.Comment
	nextID   int

	// ToggleErr, when set, is returned by Toggle before any state changes:
	// by the next FailToggles calls, or by every call when FailToggles is 0.
	ToggleErr   error
	FailToggles int
	// ToggleCalls counts Toggle invocations.
	ToggleCalls int

	Users    *UserRepository
	Posts    *PostRepository
	Likes    *LikeRepository
	Comments *CommentRepository
}

type UserRepository struct{ s *Store }
type PostRepository struct{ s *Store }
type LikeRepository struct{ s *Store }
type CommentRepository struct{ s *Store }

func NewStore() *Store {
	s := &Store{
		users:    make(map[int]*models.User),
		posts:    make(map[int]*models.Post),
		likes:    make(map[[2]int]*models.Like),
		comments: make(map[int]*models.Comment),
		nextID:   1,
	}
	s.Users = &UserRepository{s}
	s.Posts = &PostRepository{s}
	s.Likes = &LikeRepository{s}
	s.Comments = &CommentRepository{s}
	return s
}

func (s *Store) id() int {
	id := s.nextID
	s.nextID++
	return id
}

// UserRepository implementation
func (m *UserRepository) Create(_ context.Context, user *models.User) error {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	for _, u := range m.s.users {
		if u.Nickname == user.Nickname {
			return repositories.ErrDuplicate
		}
	}
	user.ID = m.s.id()
	user.BeforeCreate()
	cp := *user
	m.s.users[user.ID] = &cp
	return nil
}

func (m *UserRepository) GetByID(_ context.Context, id int) (*models.User, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	user, ok := m.s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (m *UserRepository) GetByNickname(_ context.Context, nickname string) (*models.User, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	for _, u := range m.s.users {
		if u.Nickname == nickname {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

// Delete removes a user; only tests use it, to simulate a vanished account.
func (m *UserRepository) Delete(id int) {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()
	delete(m.s.users, id)
}

// PostRepository implementation
func (m *PostRepository) Create(_ context.Context, post *models.Post) error {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	post.ID = m.s.id()
	post.BeforeCreate()
	cp := *post
	m.s.posts[post.ID] = &cp
	return nil
}

func (m *PostRepository) GetByID(_ context.Context, id int) (*models.Post, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	post, ok := m.s.posts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *post
	return &cp, nil
}

func (m *PostRepository) List(_ context.Context, limit, offset int) ([]*models.Post, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	var posts []*models.Post
	for _, post := range m.s.posts {
		cp := *post
		posts = append(posts, &cp)
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].ID > posts[j].ID
	})
	if offset >= len(posts) {
		return []*models.Post{}, nil
	}
	end := len(posts)
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}
	return posts[offset:end], nil
}

func (m *PostRepository) UpdateContent(_ context.Context, id int, title, content string) (*models.Post, error) {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	post, ok := m.s.posts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	post.Title = title
	post.Content = content
	post.UpdatedAt = time.Now().UTC()
	cp := *post
	return &cp, nil
}

func (m *PostRepository) Delete(_ context.Context, id int) error {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	if _, ok := m.s.posts[id]; !ok {
		return repositories.ErrNotFound
	}
	for key := range m.s.likes {
		if key[0] == id {
			delete(m.s.likes, key)
		}
	}
	for cid, c := range m.s.comments {
		if c.PostID == id {
			delete(m.s.comments, cid)
		}
	}
	delete(m.s.posts, id)
	return nil
}

// LikeRepository implementation
func (m *LikeRepository) Toggle(_ context.Context, userID, postID int) (*models.LikeToggle, error) {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	m.s.ToggleCalls++
	if m.s.ToggleErr != nil {
		err := m.s.ToggleErr
		if m.s.FailToggles > 0 {
			m.s.FailToggles--
			if m.s.FailToggles == 0 {
				m.s.ToggleErr = nil
			}
		}
		return nil, err
	}
	post, ok := m.s.posts[postID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if post.UserID == userID {
		return nil, repositories.ErrSelfLike
	}

	key := [2]int{postID, userID}
	_, liked := m.s.likes[key]
	if liked {
		delete(m.s.likes, key)
		post.LikeCount--
	} else {
		m.s.likes[key] = &models.Like{ID: m.s.id(), UserID: userID, PostID: postID, CreatedAt: time.Now().UTC()}
		post.LikeCount++
	}
	return &models.LikeToggle{PostID: postID, Liked: !liked, LikeCount: post.LikeCount}, nil
}

func (m *LikeRepository) Get(_ context.Context, userID, postID int) (*models.Like, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	like, ok := m.s.likes[[2]int{postID, userID}]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *like
	return &cp, nil
}

func (m *LikeRepository) CountByPost(_ context.Context, postID int) (int, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	count := 0
	for key := range m.s.likes {
		if key[0] == postID {
			count++
		}
	}
	return count, nil
}

func (m *LikeRepository) ListLikedPosts(_ context.Context, userID int) ([]*models.Post, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	var posts []*models.Post
	for key := range m.s.likes {
		if key[1] != userID {
			continue
		}
		if post, ok := m.s.posts[key[0]]; ok {
			cp := *post
			posts = append(posts, &cp)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].LikeCount != posts[j].LikeCount {
			return posts[i].LikeCount > posts[j].LikeCount
		}
		return posts[i].ID > posts[j].ID
	})
	return posts, nil
}

// CommentRepository implementation
func (m *CommentRepository) Create(_ context.Context, comment *models.Comment) error {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	if _, ok := m.s.posts[comment.PostID]; !ok {
		return repositories.ErrNotFound
	}
	comment.ID = m.s.id()
	comment.BeforeCreate()
	cp := *comment
	m.s.comments[comment.ID] = &cp
	return nil
}

func (m *CommentRepository) GetByID(_ context.Context, id int) (*models.Comment, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	comment, ok := m.s.comments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *comment
	return &cp, nil
}

func (m *CommentRepository) ListByPost(_ context.Context, postID int) ([]*models.Comment, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	comments := []*models.Comment{}
	for _, c := range m.s.comments {
		if c.PostID == postID {
			cp := *c
			comments = append(comments, &cp)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].ID < comments[j].ID
	})
	return comments, nil
}

func (m *CommentRepository) UpdateContent(_ context.Context, id int, content string) (*models.Comment, error) {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	comment, ok := m.s.comments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	comment.Content = content
	comment.UpdatedAt = time.Now().UTC()
	cp := *comment
	return &cp, nil
}

func (m *CommentRepository) Delete(_ context.Context, id int) error {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	if _, ok := m.s.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.s.comments, id)
	return nil
}

// compile-time checks
var (
	_ repositories.UserRepository    = (*UserRepository)(nil)
	_ repositories.PostRepository    = (*PostRepository)(nil)
	_ repositories.LikeRepository    = (*LikeRepository)(nil)
	_ repositories.CommentRepository = (*CommentRepository)(nil)
)
