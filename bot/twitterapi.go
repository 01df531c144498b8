package bot

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/botweet/botweet/twitter"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// TwitterAPI implements API over the REST client.
type TwitterAPI struct {
	Client *twitter.Client
	// PageSize used when walking timelines.
	PageSize int

	users *expirable.LRU[string, int64]

	selfMu sync.Mutex
	selfID int64
}

var _ API = (*TwitterAPI)(nil)

func NewTwitterAPI(c *twitter.Client) *TwitterAPI {
	return &TwitterAPI{
		Client:   c,
		PageSize: 200,
		users:    expirable.NewLRU[string, int64](1000, nil, 24*time.Hour),
	}
}

func (t *TwitterAPI) FetchFeed(ctx context.Context, feed Feed, sinceID int64) ([]Event, error) {
	var (
		statuses []twitter.Status
		err      error
	)
	switch feed.Kind {
	case FeedMentions:
		fetch := func(ctx context.Context, page twitter.TimelinePage) ([]twitter.Status, error) {
			return twitter.StatusesMentionsTimeline(ctx, t.Client, page)
		}
		statuses, err = twitter.CollectStatuses(ctx, fetch, sinceID, t.PageSize, feed.Limit)
	case FeedUserTimeline:
		fetch := func(ctx context.Context, page twitter.TimelinePage) ([]twitter.Status, error) {
			return twitter.StatusesUserTimeline(ctx, t.Client, feed.User, page)
		}
		statuses, err = twitter.CollectStatuses(ctx, fetch, sinceID, t.PageSize, feed.Limit)
	case FeedSearch:
		fetch := func(ctx context.Context, page twitter.TimelinePage) ([]twitter.Status, error) {
			res, err := twitter.SearchTweets(ctx, t.Client, feed.Query, page, feed.Params)
			if err != nil {
				return nil, err
			}
			return res.Statuses, nil
		}
		// search pages are capped at 100 server side
		statuses, err = twitter.CollectStatuses(ctx, fetch, sinceID, min(t.PageSize, 100), feed.Limit)
	case FeedMessages:
		return t.fetchMessages(ctx, sinceID, feed.Limit)
	default:
		return nil, fmt.Errorf("%w: unknown feed kind %d", ErrInvalidFeed, feed.Kind)
	}
	if err != nil {
		return nil, err
	}

	out := make([]Event, 0, len(statuses))
	for i := range statuses {
		st := &statuses[i]
		ev := Event{
			ID:        st.ID,
			Text:      st.Body(),
			Kind:      feed.Kind,
			CreatedAt: st.CreatedTime(),
			Status:    st,
		}
		if st.User != nil {
			ev.AuthorID = st.User.ID
			ev.AuthorName = st.User.ScreenName
		}
		out = append(out, ev)
	}
	return out, nil
}

func (t *TwitterAPI) fetchMessages(ctx context.Context, sinceID int64, limit int) ([]Event, error) {
	msgs, err := twitter.CollectMessageEvents(ctx, t.Client, sinceID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Event, 0, len(msgs))
	for i := range msgs {
		m := &msgs[i]
		id, err := m.NumericID()
		if err != nil {
			continue
		}
		out = append(out, Event{
			ID:        id,
			Text:      m.Text(),
			AuthorID:  m.SenderID(),
			Kind:      FeedMessages,
			CreatedAt: m.CreatedTime(),
			Message:   m,
		})
	}
	return out, nil
}

func (t *TwitterAPI) Post(ctx context.Context, p *Post) (int64, error) {
	st, err := twitter.StatusesUpdate(ctx, t.Client, &twitter.StatusesUpdate_Input{
		Status:                    p.Text,
		InReplyToStatusID:         p.ReplyTo,
		AutoPopulateReplyMetadata: p.ReplyTo > 0,
		MediaIDs:                  p.MediaIDs,
	})
	if err != nil {
		return 0, err
	}
	return st.ID, nil
}

func (t *TwitterAPI) Retweet(ctx context.Context, id int64) error {
	_, err := twitter.StatusesRetweet(ctx, t.Client, id)
	return err
}

func (t *TwitterAPI) SendDirectMessage(ctx context.Context, dm *DirectMessage) (int64, error) {
	ev, err := twitter.DirectMessagesEventsNew(ctx, t.Client, &twitter.DirectMessagesEventsNew_Input{
		RecipientID: dm.RecipientID,
		Text:        dm.Text,
		MediaID:     dm.MediaID,
	})
	if err != nil {
		return 0, err
	}
	id, err := ev.NumericID()
	if err != nil {
		return 0, fmt.Errorf("unexpected message id %q: %w", ev.ID, err)
	}
	return id, nil
}

func (t *TwitterAPI) UploadMedia(ctx context.Context, name string, r io.Reader) (int64, error) {
	m, err := twitter.MediaUpload(ctx, t.Client, name, r)
	if err != nil {
		return 0, err
	}
	return m.MediaID, nil
}

// Self is resolved once and then cached for the life of the client.
func (t *TwitterAPI) Self(ctx context.Context) (int64, error) {
	t.selfMu.Lock()
	defer t.selfMu.Unlock()
	if t.selfID != 0 {
		return t.selfID, nil
	}
	u, err := twitter.AccountVerifyCredentials(ctx, t.Client)
	if err != nil {
		return 0, err
	}
	t.selfID = u.ID
	return t.selfID, nil
}

func (t *TwitterAPI) ResolveUser(ctx context.Context, screenName string) (int64, error) {
	if id, ok := t.users.Get(screenName); ok {
		return id, nil
	}
	u, err := twitter.UsersShow(ctx, t.Client, screenName)
	if err != nil {
		return 0, err
	}
	t.users.Add(screenName, u.ID)
	return u.ID, nil
}
