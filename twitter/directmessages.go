package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
)

// endpoint: direct_messages/events/list

func DirectMessagesEventsList(ctx context.Context, c *Client, cursor string, count int) (*MessageEventList, error) {
	var out MessageEventList

	params := map[string]interface{}{}
	if cursor != "" {
		params["cursor"] = cursor
	}
	if count > 0 {
		params["count"] = count
	}
	if err := c.Do(ctx, Request{Kind: Query, Path: "direct_messages/events/list", Params: params}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// endpoint: direct_messages/events/new

type DirectMessagesEventsNew_Input struct {
	RecipientID int64
	Text        string
	// MediaID is zero when there is no attachment.
	MediaID int64
}

type directMessageEnvelope struct {
	Event MessageEvent `json:"event"`
}

func DirectMessagesEventsNew(ctx context.Context, c *Client, input *DirectMessagesEventsNew_Input) (*MessageEvent, error) {
	data := MessageData{Text: input.Text}
	if input.MediaID > 0 {
		data.Attachment = &Attachment{
			Type:  "media",
			Media: MediaRef{ID: input.MediaID},
		}
	}
	env := directMessageEnvelope{
		Event: MessageEvent{
			Type: "message_create",
			MessageCreate: &MessageCreate{
				Target:      MessageTarget{RecipientID: strconv.FormatInt(input.RecipientID, 10)},
				MessageData: data,
			},
		},
	}
	b, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}

	var out directMessageEnvelope
	req := Request{
		Kind:        Procedure,
		Path:        "direct_messages/events/new",
		Body:        bytes.NewReader(b),
		ContentType: "application/json",
	}
	if err := c.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out.Event, nil
}
