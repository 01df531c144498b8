package bot

import (
	"context"
	"io"
	"time"

	"github.com/botweet/botweet/twitter"
)

type FeedKind int

const (
	FeedMentions FeedKind = iota
	FeedSearch
	FeedUserTimeline
	FeedMessages
)

func (k FeedKind) String() string {
	switch k {
	case FeedMentions:
		return "mentions"
	case FeedSearch:
		return "search"
	case FeedUserTimeline:
		return "user_timeline"
	case FeedMessages:
		return "messages"
	default:
		return "unknown"
	}
}

// Feed selects which remote source a loop polls.
type Feed struct {
	Kind FeedKind
	// Query is the search query (FeedSearch only).
	Query string
	// Params are passed through to the search endpoint unchanged (FeedSearch only).
	Params map[string]string
	// User is a screen name or numeric user id (FeedUserTimeline only).
	User string
	// Limit caps how many events one fetch returns. Zero means no cap.
	Limit int
}

// Event is one item of a feed: a status, or an inbound direct message.
type Event struct {
	ID         int64
	Text       string
	AuthorID   int64
	AuthorName string
	Kind       FeedKind
	// CreatedAt is zero when the API did not report it.
	CreatedAt time.Time

	// Exactly one of these is set, depending on Kind.
	Status  *twitter.Status
	Message *twitter.MessageEvent
}

type Post struct {
	Text     string
	ReplyTo  int64
	MediaIDs []int64
}

type DirectMessage struct {
	RecipientID int64
	Text        string
	MediaID     int64
}

// API is the remote capability the loops call through. Implementations must be safe
// for concurrent use by several loops.
type API interface {
	// FetchFeed returns events with ids strictly greater than sinceID, in any order.
	FetchFeed(ctx context.Context, feed Feed, sinceID int64) ([]Event, error)
	Post(ctx context.Context, p *Post) (int64, error)
	Retweet(ctx context.Context, id int64) error
	SendDirectMessage(ctx context.Context, dm *DirectMessage) (int64, error)
	UploadMedia(ctx context.Context, name string, r io.Reader) (int64, error)
	// Self returns the user id of the authenticated account.
	Self(ctx context.Context) (int64, error)
	ResolveUser(ctx context.Context, screenName string) (int64, error)
}
