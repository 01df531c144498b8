package twitter

import (
	"context"
)

// endpoint: account/verify_credentials

func AccountVerifyCredentials(ctx context.Context, c *Client) (*User, error) {
	var out User
	params := map[string]interface{}{
		"include_entities": false,
		"skip_status":      true,
	}
	if err := c.Do(ctx, Request{Kind: Query, Path: "account/verify_credentials", Params: params}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// endpoint: users/show

func UsersShow(ctx context.Context, c *Client, screenName string) (*User, error) {
	var out User
	params := map[string]interface{}{
		"screen_name":      screenName,
		"include_entities": false,
	}
	if err := c.Do(ctx, Request{Kind: Query, Path: "users/show", Params: params}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
