package feed

import (
	"errors"
	"sync"
	"testing"
	"time"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestToggleLike(t *testing.T) {
	tests := []struct {
		name      string
		post      Post
		wantLikes int
		wantLiked bool
	}{
		{name: "like", post: Post{ID: "a", Likes: 0}, wantLikes: 1, wantLiked: true},
		{name: "unlike", post: Post{ID: "a", Likes: 856, IsLiked: true}, wantLikes: 855, wantLiked: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(tt.post)
			got, err := s.ToggleLike("a")
			if err != nil {
				t.Fatalf("ToggleLike() error = %v", err)
			}
			if got.Likes != tt.wantLikes || got.IsLiked != tt.wantLiked {
				t.Errorf("ToggleLike() = (%d, %v), want (%d, %v)", got.Likes, got.IsLiked, tt.wantLikes, tt.wantLiked)
			}
			stored, _ := s.Get("a")
			if stored != got {
				t.Errorf("Get() = %+v, want %+v", stored, got)
			}
		})
	}
}

func TestToggleLikeTwiceRestores(t *testing.T) {
	s := NewStore(SeedPosts(now)...)
	before, _ := s.Get("2")
	s.ToggleLike("2")
	after, err := s.ToggleLike("2")
	if err != nil {
		t.Fatalf("ToggleLike() error = %v", err)
	}
	if after != before {
		t.Errorf("double toggle = %+v, want %+v", after, before)
	}
}

func TestToggleLikeOnlyTouchesTarget(t *testing.T) {
	s := NewStore(SeedPosts(now)...)
	if _, err := s.ToggleLike("1"); err != nil {
		t.Fatal(err)
	}
	posts := s.List()
	if posts[0].Likes != 1206 || !posts[0].IsLiked {
		t.Errorf("post 1 = %+v, want 1206 likes and liked", posts[0])
	}
	if posts[1].Likes != 856 || posts[2].Likes != 234 {
		t.Errorf("other posts changed: %+v", posts[1:])
	}
}

func TestToggleLikeUnknown(t *testing.T) {
	s := NewStore()
	if _, err := s.ToggleLike("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ToggleLike() error = %v, want ErrNotFound", err)
	}
	if _, err := s.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestPrependIsNewestFirst(t *testing.T) {
	s := NewStore(SeedPosts(now)...)
	s.Prepend(Post{ID: "new", Timestamp: now})

	posts := s.List()
	if len(posts) != 4 || posts[0].ID != "new" || posts[1].ID != "1" {
		t.Errorf("List() ids = %v, want new first then seeds", ids(posts))
	}
	if s.Len() != 4 {
		t.Errorf("Len() = %d, want 4", s.Len())
	}
}

func TestListIsASnapshot(t *testing.T) {
	s := NewStore(Post{ID: "a"})
	posts := s.List()
	posts[0].Likes = 99
	if got, _ := s.Get("a"); got.Likes != 0 {
		t.Errorf("mutating List() result changed the store: %+v", got)
	}
}

func TestConcurrentLikes(t *testing.T) {
	s := NewStore(Post{ID: "a"})
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.ToggleLike("a")
		}()
	}
	wg.Wait()

	got, _ := s.Get("a")
	if got.Likes != 0 || got.IsLiked {
		t.Errorf("after 100 toggles post = %+v, want 0 likes and not liked", got)
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{ago: 0, want: "Just now"},
		{ago: 59 * time.Second, want: "Just now"},
		{ago: 60 * time.Second, want: "1m ago"},
		{ago: 2 * time.Minute, want: "2m ago"},
		{ago: 59*time.Minute + 59*time.Second, want: "59m ago"},
		{ago: time.Hour, want: "1h ago"},
		{ago: 23*time.Hour + 59*time.Minute, want: "23h ago"},
		{ago: 24 * time.Hour, want: "1d+ ago"},
		{ago: 30 * 24 * time.Hour, want: "1d+ ago"},
	}
	for _, tt := range tests {
		if got := FormatAge(now.Add(-tt.ago), now); got != tt.want {
			t.Errorf("FormatAge(-%v) = %q, want %q", tt.ago, got, tt.want)
		}
	}
}

func TestSeedPosts(t *testing.T) {
	posts := SeedPosts(now)
	if len(posts) != 3 {
		t.Fatalf("len(SeedPosts()) = %d, want 3", len(posts))
	}
	if got := FormatAge(posts[2].Timestamp, now); got != "2m ago" {
		t.Errorf("third seed age = %q, want 2m ago", got)
	}
	if !posts[1].IsLiked {
		t.Error("second seed should start liked")
	}
}

func ids(posts []Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}
