package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMakeParams tests the makeParams function.
func TestMakeParams(t *testing.T) {
	testCases := []struct {
		name     string
		input    map[string]interface{}
		expected string
	}{
		{
			name:     "Empty input",
			input:    map[string]interface{}{},
			expected: "",
		},
		{
			name: "Single value",
			input: map[string]interface{}{
				"key": "value",
			},
			expected: "key=value",
		},
		{
			name: "Multiple values",
			input: map[string]interface{}{
				"key1": "value1",
				"key2": 42,
			},
			expected: "key1=value1&key2=42",
		},
		{
			name: "Slice of strings",
			input: map[string]interface{}{
				"key": []string{"value1", "value2", "value3"},
			},
			expected: "key=value1%2Cvalue2%2Cvalue3",
		},
		{
			name: "Slice of ids",
			input: map[string]interface{}{
				"media_ids": []int64{1, 22, 333},
			},
			expected: "media_ids=1%2C22%2C333",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := makeParams(tc.input).Encode()
			if result != tc.expected {
				t.Errorf("got '%q', want '%q'", result, tc.expected)
			}
		})
	}
}

func testClient(srv *httptest.Server) *Client {
	return &Client{
		Client:     srv.Client(),
		Host:       srv.URL + "/1.1",
		UploadHost: srv.URL + "/upload/1.1",
	}
}

func TestErrorDecoding(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/1.1/statuses/mentions_timeline.json":
			w.Header().Set("x-rate-limit-limit", "75")
			w.Header().Set("x-rate-limit-remaining", "0")
			w.Header().Set("x-rate-limit-reset", "1700000000")
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprintln(w, `{"errors":[{"code":88,"message":"Rate limit exceeded"}]}`)
		case "/1.1/account/verify_credentials.json":
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprintln(w, `{"errors":[{"code":89,"message":"Invalid or expired token."}]}`)
		case "/1.1/statuses/update.json":
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprintln(w, `{"errors":[{"code":187,"message":"Status is a duplicate."}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintln(w, `not json`)
		}
	}))
	defer srv.Close()
	c := testClient(srv)

	_, err := StatusesMentionsTimeline(ctx, c, TimelinePage{})
	var te *Error
	require.ErrorAs(t, err, &te)
	assert.True(te.IsThrottled())
	assert.False(te.IsUnauthorized())
	require.NotNil(t, te.Ratelimit)
	assert.Equal(75, te.Ratelimit.Limit)
	assert.Equal(0, te.Ratelimit.Remaining)
	assert.Equal(int64(1700000000), te.Ratelimit.Reset.Unix())
	var ae *APIError
	require.True(t, errors.As(err, &ae))
	assert.Equal(CodeRateLimited, ae.Code)

	_, err = AccountVerifyCredentials(ctx, c)
	require.ErrorAs(t, err, &te)
	assert.True(te.IsUnauthorized())

	_, err = StatusesUpdate(ctx, c, &StatusesUpdate_Input{Status: "again"})
	require.ErrorAs(t, err, &te)
	assert.True(te.IsDuplicate())
	assert.Equal(http.StatusForbidden, te.StatusCode)

	_, err = UsersShow(ctx, c, "nobody")
	require.ErrorAs(t, err, &te)
	assert.Equal(http.StatusNotFound, te.StatusCode)
	assert.Contains(te.Error(), "failed to decode error body")
}

func TestStatusesUpdateForm(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(http.MethodPost, r.Method)
		assert.Equal("/1.1/statuses/update.json", r.URL.Path)
		assert.Equal("application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal("hello world", r.PostForm.Get("status"))
		assert.Equal("99", r.PostForm.Get("in_reply_to_status_id"))
		assert.Equal("true", r.PostForm.Get("auto_populate_reply_metadata"))
		assert.Equal("5,6", r.PostForm.Get("media_ids"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"id":1000,"id_str":"1000","text":"hello world"}`)
	}))
	defer srv.Close()

	st, err := StatusesUpdate(context.Background(), testClient(srv), &StatusesUpdate_Input{
		Status:                    "hello world",
		InReplyToStatusID:         99,
		AutoPopulateReplyMetadata: true,
		MediaIDs:                  []int64{5, 6},
	})
	require.NoError(t, err)
	assert.Equal(int64(1000), st.ID)
}

func TestRetweetPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/1.1/statuses/retweet/12345.json", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		fmt.Fprintln(w, `{"id":777}`)
	}))
	defer srv.Close()

	st, err := StatusesRetweet(context.Background(), testClient(srv), 12345)
	require.NoError(t, err)
	assert.Equal(t, int64(777), st.ID)
}

func TestUserTimelineSelector(t *testing.T) {
	assert := assert.New(t)

	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		got = append(got, q.Get("user_id")+"|"+q.Get("screen_name"))
		assert.Equal("extended", q.Get("tweet_mode"))
		fmt.Fprintln(w, `[]`)
	}))
	defer srv.Close()
	c := testClient(srv)

	_, err := StatusesUserTimeline(context.Background(), c, "783214", TimelinePage{})
	require.NoError(t, err)
	_, err = StatusesUserTimeline(context.Background(), c, "golang", TimelinePage{})
	require.NoError(t, err)
	assert.Equal([]string{"783214|", "|golang"}, got)
}

func TestSearchPassthroughParams(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal("#golang", q.Get("q"))
		assert.Equal("en", q.Get("lang"))
		assert.Equal("10", q.Get("since_id"))
		fmt.Fprintln(w, `{"statuses":[{"id":11,"full_text":"go go"}],"search_metadata":{"count":1}}`)
	}))
	defer srv.Close()

	res, err := SearchTweets(context.Background(), testClient(srv), "#golang", TimelinePage{SinceID: 10}, map[string]string{
		"lang": "en",
		// explicit arguments win over pass-through params
		"q": "ignored",
	})
	require.NoError(t, err)
	require.Len(t, res.Statuses, 1)
	assert.Equal("go go", res.Statuses[0].Body())
}

func TestDirectMessageNew(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/1.1/direct_messages/events/new.json", r.URL.Path)
		assert.Equal("application/json", r.Header.Get("Content-Type"))
		var env directMessageEnvelope
		require.NoError(t, json.NewDecoder(r.Body).Decode(&env))
		assert.Equal("message_create", env.Event.Type)
		assert.Equal("42", env.Event.MessageCreate.Target.RecipientID)
		assert.Equal("hi there", env.Event.MessageCreate.MessageData.Text)
		require.NotNil(t, env.Event.MessageCreate.MessageData.Attachment)
		assert.Equal(int64(9), env.Event.MessageCreate.MessageData.Attachment.Media.ID)
		env.Event.ID = "555"
		json.NewEncoder(w).Encode(env)
	}))
	defer srv.Close()

	ev, err := DirectMessagesEventsNew(context.Background(), testClient(srv), &DirectMessagesEventsNew_Input{
		RecipientID: 42,
		Text:        "hi there",
		MediaID:     9,
	})
	require.NoError(t, err)
	id, err := ev.NumericID()
	require.NoError(t, err)
	assert.Equal(int64(555), id)
}

func TestMediaUpload(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/upload/1.1/media/upload.json", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("media")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal("cat.png", hdr.Filename)
		b, _ := io.ReadAll(f)
		assert.Equal("PNGDATA", string(b))
		fmt.Fprintln(w, `{"media_id":710511363345354753,"media_id_string":"710511363345354753","size":7}`)
	}))
	defer srv.Close()

	m, err := MediaUpload(context.Background(), testClient(srv), "cat.png", strings.NewReader("PNGDATA"))
	require.NoError(t, err)
	assert.Equal(int64(710511363345354753), m.MediaID)
}

func TestCollectStatusesPaging(t *testing.T) {
	assert := assert.New(t)

	// ids 1..25, served newest first in pages of 10
	var requests []TimelinePage
	fetch := func(ctx context.Context, page TimelinePage) ([]Status, error) {
		requests = append(requests, page)
		var out []Status
		for id := int64(25); id >= 1 && len(out) < page.Count; id-- {
			if id <= page.SinceID {
				break
			}
			if page.MaxID != 0 && id > page.MaxID {
				continue
			}
			out = append(out, Status{ID: id, IDStr: strconv.FormatInt(id, 10)})
		}
		return out, nil
	}

	all, err := CollectStatuses(context.Background(), fetch, 3, 10, 0)
	require.NoError(t, err)
	assert.Len(all, 22)
	assert.Equal(int64(25), all[0].ID)
	assert.Equal(int64(4), all[len(all)-1].ID)
	assert.Equal(int64(0), requests[0].MaxID)
	assert.Equal(int64(15), requests[1].MaxID)

	limited, err := CollectStatuses(context.Background(), fetch, 0, 10, 12)
	require.NoError(t, err)
	assert.Len(limited, 12)
	assert.Equal(int64(14), limited[11].ID)
}

func TestCollectMessageEvents(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("cursor") {
		case "":
			fmt.Fprintln(w, `{"events":[
				{"type":"message_create","id":"30","message_create":{"sender_id":"7","message_data":{"text":"c"}}},
				{"type":"message_create","id":"20","message_create":{"sender_id":"7","message_data":{"text":"b"}}}
			],"next_cursor":"page2"}`)
		case "page2":
			fmt.Fprintln(w, `{"events":[
				{"type":"message_create","id":"15","message_create":{"sender_id":"8","message_data":{"text":"a"}}},
				{"type":"message_create","id":"5","message_create":{"sender_id":"8","message_data":{"text":"old"}}}
			],"next_cursor":"page3"}`)
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
			fmt.Fprintln(w, `{"events":[]}`)
		}
	}))
	defer srv.Close()

	evs, err := CollectMessageEvents(context.Background(), testClient(srv), 10, 0)
	require.NoError(t, err)
	require.Len(t, evs, 3)
	assert.Equal("c", evs[0].Text())
	assert.Equal(int64(8), evs[2].SenderID())
}
