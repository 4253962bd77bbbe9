package export

import (
	"context"
	"encoding/base64"
	"math/rand/v2"
	"time"

	"github.com/fpang/meme-magic/internal/feed"
	"github.com/fpang/meme-magic/internal/meme"
	"github.com/google/uuid"
)

// NoticePublished is shown after a successful publish.
const NoticePublished = "Meme published to the community!"

const msgPublishFailed = "Failed to publish meme."

// Initial view counts of a new post are drawn uniformly from
// [minInitialViews, minInitialViews+initialViewsSpan).
const (
	minInitialViews  = 50
	initialViewsSpan = 500
)

// Publisher prepends composed memes to a feed.
type Publisher struct {
	store *feed.Store
	now   func() time.Time
	views func() int
}

// NewPublisher creates a Publisher writing to store.
func NewPublisher(store *feed.Store) *Publisher {
	return &Publisher{
		store: store,
		now:   time.Now,
		views: func() int { return minInitialViews + rand.IntN(initialViewsSpan) },
	}
}

// Publish composes req and prepends it to the feed as a new post.
func (p *Publisher) Publish(ctx context.Context, r Renderer, req meme.Request) (feed.Post, error) {
	data, err := render(ctx, r, req, msgPublishFailed)
	if err != nil {
		return feed.Post{}, err
	}

	post := feed.Post{
		ID:        uuid.NewString(),
		ImageURL:  "data:" + meme.PNGMIMEType + ";base64," + base64.StdEncoding.EncodeToString(data),
		Likes:     0,
		Views:     p.views(),
		Timestamp: p.now(),
		IsLiked:   false,
	}
	p.store.Prepend(post)
	return post, nil
}
