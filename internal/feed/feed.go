// Package feed holds the in-process community feed: published memes with
// like and view counters. Posts live only as long as the process.
package feed

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned when a post id is not in the feed.
var ErrNotFound = errors.New("post not found")

// Post is one published meme.
type Post struct {
	ID string `json:"id"`
	// ImageURL is a data:image/png;base64 URI for published memes, or a
	// plain URL for the seeded demo posts.
	ImageURL  string    `json:"imageUrl"`
	Likes     int       `json:"likes"`
	Views     int       `json:"views"`
	Timestamp time.Time `json:"timestamp"`
	IsLiked   bool      `json:"isLiked"`
}

// Store is a newest-first list of posts, safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	posts []Post
}

// NewStore creates a store holding posts in the given order.
func NewStore(posts ...Post) *Store {
	return &Store{posts: append([]Post(nil), posts...)}
}

// SeedPosts returns the demo posts a fresh feed starts with.
func SeedPosts(now time.Time) []Post {
	return []Post{
		{ID: "1", ImageURL: "https://picsum.photos/id/102/600/600", Likes: 1205, Views: 5403, Timestamp: now.Add(-time.Hour)},
		{ID: "2", ImageURL: "https://picsum.photos/id/237/600/600", Likes: 856, Views: 2300, Timestamp: now.Add(-2 * time.Hour), IsLiked: true},
		{ID: "3", ImageURL: "https://picsum.photos/id/1084/600/600", Likes: 234, Views: 1102, Timestamp: now.Add(-2 * time.Minute)},
	}
}

// List returns a snapshot of the feed, newest first.
func (s *Store) List() []Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Post(nil), s.posts...)
}

// Len returns the number of posts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.posts)
}

// Get returns the post with the given id.
func (s *Store) Get(id string) (Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.index(id); i >= 0 {
		return s.posts[i], nil
	}
	return Post{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Prepend adds p to the head of the feed.
func (s *Store) Prepend(p Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = append([]Post{p}, s.posts...)

	log.Debug().
		Str("id", p.ID).
		Int("views", p.Views).
		Int("feed_size", len(s.posts)).
		Msg("Post published to feed")
}

// ToggleLike flips the caller's like on a post: a liked post loses one like,
// an unliked post gains one. It returns the updated post.
func (s *Store) ToggleLike(id string) (Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return Post{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	p := &s.posts[i]
	if p.IsLiked {
		p.Likes--
	} else {
		p.Likes++
	}
	p.IsLiked = !p.IsLiked
	return *p, nil
}

func (s *Store) index(id string) int {
	for i := range s.posts {
		if s.posts[i].ID == id {
			return i
		}
	}
	return -1
}

// FormatAge renders how long ago ts was, relative to now:
// "Just now", "5m ago", "3h ago" or "1d+ ago".
func FormatAge(ts, now time.Time) string {
	secs := int64(now.Sub(ts) / time.Second)
	switch {
	case secs < 60:
		return "Just now"
	case secs < 3600:
		return fmt.Sprintf("%dm ago", secs/60)
	case secs < 86400:
		return fmt.Sprintf("%dh ago", secs/3600)
	default:
		return "1d+ ago"
	}
}
