package twitter

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/go-querystring/query"
)

// endpoint: statuses/mentions_timeline

// TimelinePage bounds one timeline request. Zero values are omitted.
type TimelinePage struct {
	SinceID int64
	MaxID   int64
	Count   int
}

func (p TimelinePage) params() map[string]interface{} {
	params := map[string]interface{}{
		"tweet_mode": "extended",
	}
	if p.SinceID > 0 {
		params["since_id"] = p.SinceID
	}
	if p.MaxID > 0 {
		params["max_id"] = p.MaxID
	}
	if p.Count > 0 {
		params["count"] = p.Count
	}
	return params
}

func StatusesMentionsTimeline(ctx context.Context, c *Client, page TimelinePage) ([]Status, error) {
	var out []Status
	if err := c.Do(ctx, Request{Kind: Query, Path: "statuses/mentions_timeline", Params: page.params()}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// endpoint: statuses/user_timeline

// StatusesUserTimeline fetches the timeline of user, which is either a screen name or
// a numeric user id.
func StatusesUserTimeline(ctx context.Context, c *Client, user string, page TimelinePage) ([]Status, error) {
	var out []Status

	params := page.params()
	if _, err := strconv.ParseInt(user, 10, 64); err == nil {
		params["user_id"] = user
	} else {
		params["screen_name"] = user
	}
	if err := c.Do(ctx, Request{Kind: Query, Path: "statuses/user_timeline", Params: params}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// endpoint: statuses/update

type StatusesUpdate_Input struct {
	Status                    string  `url:"status"`
	InReplyToStatusID         int64   `url:"in_reply_to_status_id,omitempty"`
	AutoPopulateReplyMetadata bool    `url:"auto_populate_reply_metadata,omitempty"`
	MediaIDs                  []int64 `url:"media_ids,comma,omitempty"`
}

func StatusesUpdate(ctx context.Context, c *Client, input *StatusesUpdate_Input) (*Status, error) {
	var out Status

	vals, err := query.Values(input)
	if err != nil {
		return nil, err
	}
	req := Request{
		Kind:        Procedure,
		Path:        "statuses/update",
		Body:        strings.NewReader(vals.Encode()),
		ContentType: "application/x-www-form-urlencoded",
	}
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// endpoint: statuses/retweet/:id

func StatusesRetweet(ctx context.Context, c *Client, id int64) (*Status, error) {
	var out Status
	path := "statuses/retweet/" + strconv.FormatInt(id, 10)
	if err := c.Do(ctx, Request{Kind: Procedure, Path: path}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
