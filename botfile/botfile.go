// Package botfile declares bot behaviors in YAML, with reaction text rendered from
// pongo2 templates.
//
// A botfile looks like:
//
//	behaviors:
//	  - kind: mentions
//	    interval: 1m
//	    regex: "(?i)hello (\\w+)"
//	    reply:
//	      text: "hi @{{ event.AuthorName }}, say hi to {{ match.1 }}"
//	  - kind: timed
//	    interval: 6h
//	    post:
//	      text: "it is {{ now|date:\"15:04\" }}"
//	      media: ["clock.png"]
//
// Templates see "event" (nil for timed posts), "match" (the pattern's submatches)
// and "now". A template rendering to blank text with no media skips the reaction.
package botfile

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/botweet/botweet/bot"

	"gopkg.in/yaml.v3"
)

type Kind string

const (
	KindTimed        Kind = "timed"
	KindMentions     Kind = "mentions"
	KindSearch       Kind = "search"
	KindUserTimeline Kind = "user_timeline"
	KindMessages     Kind = "messages"
)

type File struct {
	Behaviors []Behavior `yaml:"behaviors"`

	// directory the file was loaded from; relative media paths resolve against it
	dir string
}

type Behavior struct {
	Kind     Kind          `yaml:"kind"`
	Name     string        `yaml:"name,omitempty"`
	Interval time.Duration `yaml:"interval,omitempty"`

	// feed selection
	Query  string            `yaml:"query,omitempty"`
	Params map[string]string `yaml:"params,omitempty"`
	User   string            `yaml:"user,omitempty"`
	Limit  int               `yaml:"limit,omitempty"`

	Regex   string `yaml:"regex,omitempty"`
	SinceID int64  `yaml:"since_id,omitempty"`

	Retweet bool      `yaml:"retweet,omitempty"`
	Reply   *Template `yaml:"reply,omitempty"`
	Message *Template `yaml:"message,omitempty"`
	// Post is the content of a timed behavior.
	Post *Template `yaml:"post,omitempty"`
}

type Template struct {
	Text      string   `yaml:"text"`
	Media     []string `yaml:"media,omitempty"`
	Recipient string   `yaml:"recipient,omitempty"`
}

// Load reads and validates a botfile.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read botfile: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.dir = filepath.Dir(path)
	return f, nil
}

// Parse decodes and validates botfile contents. Relative media paths resolve
// against the working directory.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse botfile: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) Validate() error {
	if len(f.Behaviors) == 0 {
		return fmt.Errorf("botfile declares no behaviors")
	}
	names := map[string]bool{}
	for i := range f.Behaviors {
		b := &f.Behaviors[i]
		if err := b.validate(); err != nil {
			return fmt.Errorf("behavior %d (%s): %w", i, b.label(), err)
		}
		if b.Name != "" {
			if names[b.Name] {
				return fmt.Errorf("behavior %d: duplicate name %q", i, b.Name)
			}
			names[b.Name] = true
		}
	}
	return nil
}

func (b *Behavior) label() string {
	if b.Name != "" {
		return b.Name
	}
	return string(b.Kind)
}

func (b *Behavior) validate() error {
	if b.Interval < 0 {
		return bot.ErrInvalidInterval
	}
	if b.Regex != "" {
		if _, err := regexp.Compile(b.Regex); err != nil {
			return fmt.Errorf("invalid regex: %w", err)
		}
	}
	for _, t := range []*Template{b.Reply, b.Message, b.Post} {
		if t == nil {
			continue
		}
		if _, err := compile(t.Text); err != nil {
			return err
		}
		if _, err := compile(t.Recipient); err != nil {
			return err
		}
	}

	switch b.Kind {
	case KindTimed:
		if b.Post == nil {
			return fmt.Errorf("timed behavior needs a post template")
		}
		if b.Interval == 0 {
			return fmt.Errorf("timed behavior needs an interval")
		}
		if len(b.Post.Media) > bot.MaxPostMedia {
			return bot.ErrTooManyMedia
		}
		return nil
	case KindMentions, KindMessages:
	case KindSearch:
		if b.Query == "" {
			return fmt.Errorf("%w: search behavior needs a query", bot.ErrInvalidFeed)
		}
	case KindUserTimeline:
		if b.User == "" {
			return fmt.Errorf("%w: user_timeline behavior needs a user", bot.ErrInvalidFeed)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", bot.ErrInvalidFeed, b.Kind)
	}

	if b.Post != nil {
		return fmt.Errorf("post templates are only for timed behaviors")
	}
	if b.Retweet && b.Reply != nil {
		return bot.ErrConflictingReactions
	}
	if !b.Retweet && b.Reply == nil && b.Message == nil {
		return bot.ErrNoReaction
	}
	if b.Reply != nil && len(b.Reply.Media) > bot.MaxPostMedia {
		return bot.ErrTooManyMedia
	}
	if b.Message != nil && len(b.Message.Media) > bot.MaxMessageMedia {
		return bot.ErrTooManyMedia
	}
	return nil
}

// reactionConfig converts a feed behavior; the templates are already known to compile.
func (f *File) reactionConfig(b *Behavior) (bot.ReactionConfig, error) {
	cfg := bot.ReactionConfig{
		Name:          b.Name,
		CheckInterval: b.Interval,
		SinceID:       b.SinceID,
		Retweet:       b.Retweet,
		Limit:         b.Limit,
	}
	if b.Regex != "" {
		re, err := regexp.Compile(b.Regex)
		if err != nil {
			return cfg, err
		}
		cfg.Regex = re
	}
	if b.Reply != nil {
		fn, err := f.reaction(b.Reply)
		if err != nil {
			return cfg, err
		}
		cfg.Reply = fn
	}
	if b.Message != nil {
		fn, err := f.reaction(b.Message)
		if err != nil {
			return cfg, err
		}
		cfg.Message = fn
	}
	return cfg, nil
}

// Start launches every behavior on b. If any fails to start, the ones already
// running are stopped.
func (f *File) Start(b *bot.Bot) ([]*bot.Loop, error) {
	var loops []*bot.Loop
	for i := range f.Behaviors {
		l, err := f.start(b, &f.Behaviors[i])
		if err != nil {
			bot.StopAll(loops...)
			return nil, fmt.Errorf("starting behavior %d (%s): %w", i, f.Behaviors[i].label(), err)
		}
		loops = append(loops, l)
	}
	return loops, nil
}

func (f *File) start(b *bot.Bot, beh *Behavior) (*bot.Loop, error) {
	if beh.Kind == KindTimed {
		fn, err := f.reaction(beh.Post)
		if err != nil {
			return nil, err
		}
		return b.StartNamedTimedPost(beh.Name, fn, beh.Interval)
	}

	cfg, err := f.reactionConfig(beh)
	if err != nil {
		return nil, err
	}
	switch beh.Kind {
	case KindMentions:
		return b.StartMentionReactions(cfg)
	case KindSearch:
		return b.StartSearchReactions(beh.Query, beh.Params, cfg)
	case KindUserTimeline:
		return b.StartUserTimelineReactions(beh.User, cfg)
	case KindMessages:
		return b.StartMessageReactions(cfg)
	}
	return nil, fmt.Errorf("%w: unknown kind %q", bot.ErrInvalidFeed, beh.Kind)
}
