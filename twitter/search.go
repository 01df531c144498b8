package twitter

import (
	"context"
)

// endpoint: search/tweets

// SearchTweets runs a standard search. extra holds pass-through parameters (lang,
// result_type, geocode, ...); q, since_id, max_id and count always come from the
// explicit arguments.
func SearchTweets(ctx context.Context, c *Client, q string, page TimelinePage, extra map[string]string) (*SearchResult, error) {
	var out SearchResult

	params := map[string]interface{}{}
	for k, v := range extra {
		params[k] = v
	}
	for k, v := range page.params() {
		params[k] = v
	}
	params["q"] = q
	if err := c.Do(ctx, Request{Kind: Query, Path: "search/tweets", Params: params}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
