package bot

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/rivo/uniseg"
)

const (
	DefaultCheckInterval = 60 * time.Second
	DefaultSinceID       = int64(1)
	DefaultSearchLimit   = 200

	MaxPostMedia    = 4
	MaxMessageMedia = 1

	// lengths in grapheme clusters
	MaxPostLength    = 280
	MaxMessageLength = 10000
)

// Trigger is what a reaction is reacting to. Event is nil for timed posts. Match
// holds the pattern's submatches (whole match first), or nil when no pattern is
// configured.
type Trigger struct {
	Event *Event
	Match []string
}

// Content is what a ReactionFunc wants posted or sent.
type Content struct {
	Text string
	// Media are local file paths or http(s) URLs.
	Media []string
	// ReplyTo overrides the status being replied to. By default a post reacting to
	// a status replies to it.
	ReplyTo int64
	// Recipient of a direct message: screen name or numeric user id. By default the
	// author of the triggering event.
	Recipient string
}

// ReactionFunc produces the content of a reaction. Returning nil content and a nil
// error skips the reaction.
type ReactionFunc func(ctx context.Context, trig *Trigger) (*Content, error)

// StaticContent returns a ReactionFunc that always produces c.
func StaticContent(c Content) ReactionFunc {
	return func(ctx context.Context, trig *Trigger) (*Content, error) {
		out := c
		out.Media = append([]string(nil), c.Media...)
		return &out, nil
	}
}

// textLength counts user-perceived characters, so an emoji with modifiers counts once.
func textLength(s string) int {
	n := 0
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		n++
	}
	return n
}

// ReactionConfig configures one reactive loop.
type ReactionConfig struct {
	// Name labels the loop in logs and metrics. Defaults to the feed kind.
	Name string
	// CheckInterval between polls; DefaultCheckInterval if zero.
	CheckInterval time.Duration
	// Regex filters events by text; nil matches every event.
	Regex *regexp.Regexp
	// SinceID is the initial high-water-mark; DefaultSinceID if zero.
	SinceID int64
	// Retweet every matched event. Mutually exclusive with Reply.
	Retweet bool
	// Reply posts the produced content, replying to the matched status.
	Reply ReactionFunc
	// Message sends the produced content as a direct message. Can be combined with
	// Retweet or Reply.
	Message ReactionFunc
	// Limit caps events fetched per poll. Zero means no cap, except for searches
	// which default to DefaultSearchLimit.
	Limit int
}

func (cfg *ReactionConfig) withDefaults(kind FeedKind) ReactionConfig {
	out := *cfg
	if out.Name == "" {
		out.Name = kind.String()
	}
	if out.CheckInterval == 0 {
		out.CheckInterval = DefaultCheckInterval
	}
	if out.SinceID == 0 {
		out.SinceID = DefaultSinceID
	}
	if out.Limit == 0 && kind == FeedSearch {
		out.Limit = DefaultSearchLimit
	}
	return out
}

func (cfg *ReactionConfig) validate(kind FeedKind) error {
	if cfg.Retweet && cfg.Reply != nil {
		return ErrConflictingReactions
	}
	if !cfg.Retweet && cfg.Reply == nil && cfg.Message == nil {
		return ErrNoReaction
	}
	if cfg.Retweet && kind == FeedMessages {
		return fmt.Errorf("%w: direct messages cannot be retweeted", ErrInvalidFeed)
	}
	if cfg.CheckInterval < 0 {
		return ErrInvalidInterval
	}
	if cfg.SinceID < 0 || cfg.Limit < 0 {
		return fmt.Errorf("%w: negative since_id or limit", ErrInvalidFeed)
	}
	return nil
}
