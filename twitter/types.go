package twitter

import (
	"strconv"
	"time"

	"github.com/botweet/botweet/util"
)

type User struct {
	ID         int64  `json:"id"`
	IDStr      string `json:"id_str"`
	ScreenName string `json:"screen_name"`
	Name       string `json:"name"`
}

type Status struct {
	ID                int64  `json:"id"`
	IDStr             string `json:"id_str"`
	CreatedAt         string `json:"created_at"`
	Text              string `json:"text,omitempty"`
	FullText          string `json:"full_text,omitempty"`
	User              *User  `json:"user,omitempty"`
	InReplyToStatusID int64  `json:"in_reply_to_status_id,omitempty"`
	Retweeted         bool   `json:"retweeted"`
	Lang              string `json:"lang,omitempty"`
}

// Body returns the full text when the status was fetched in extended mode.
func (s *Status) Body() string {
	if s.FullText != "" {
		return s.FullText
	}
	return s.Text
}

// CreatedTime parses CreatedAt; zero time if absent or malformed.
func (s *Status) CreatedTime() time.Time {
	t, err := util.ParseTimestamp(s.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

type SearchMetadata struct {
	MaxID   int64  `json:"max_id"`
	SinceID int64  `json:"since_id"`
	Count   int    `json:"count"`
	Query   string `json:"query"`
}

type SearchResult struct {
	Statuses []Status       `json:"statuses"`
	Metadata SearchMetadata `json:"search_metadata"`
}

type MediaRef struct {
	ID    int64  `json:"id,omitempty"`
	IDStr string `json:"id_str,omitempty"`
}

type Attachment struct {
	Type  string   `json:"type"`
	Media MediaRef `json:"media"`
}

type MessageData struct {
	Text       string      `json:"text"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

type MessageTarget struct {
	RecipientID string `json:"recipient_id"`
}

type MessageCreate struct {
	Target      MessageTarget `json:"target"`
	SenderID    string        `json:"sender_id,omitempty"`
	MessageData MessageData   `json:"message_data"`
}

// MessageEvent is a "message_create" direct message event.
type MessageEvent struct {
	Type             string         `json:"type"`
	ID               string         `json:"id,omitempty"`
	CreatedTimestamp string         `json:"created_timestamp,omitempty"`
	MessageCreate    *MessageCreate `json:"message_create,omitempty"`
}

func (m *MessageEvent) NumericID() (int64, error) {
	return strconv.ParseInt(m.ID, 10, 64)
}

func (m *MessageEvent) CreatedTime() time.Time {
	t, err := util.ParseTimestamp(m.CreatedTimestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (m *MessageEvent) SenderID() int64 {
	if m.MessageCreate == nil {
		return 0
	}
	n, _ := strconv.ParseInt(m.MessageCreate.SenderID, 10, 64)
	return n
}

func (m *MessageEvent) Text() string {
	if m.MessageCreate == nil {
		return ""
	}
	return m.MessageCreate.MessageData.Text
}

type MessageEventList struct {
	Events     []MessageEvent `json:"events"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

type Media struct {
	MediaID          int64  `json:"media_id"`
	MediaIDString    string `json:"media_id_string"`
	Size             int64  `json:"size,omitempty"`
	ExpiresAfterSecs int    `json:"expires_after_secs,omitempty"`
}
