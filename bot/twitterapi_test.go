package bot

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/botweet/botweet/twitter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingServer struct {
	mu   sync.Mutex
	hits map[string]int
}

func (rs *recordingServer) count(path string) int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.hits[path]
}

func newTestAPI(t *testing.T) (*TwitterAPI, *recordingServer) {
	rs := &recordingServer{hits: map[string]int{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.mu.Lock()
		rs.hits[r.URL.Path]++
		rs.mu.Unlock()

		q := r.URL.Query()
		switch r.URL.Path {
		case "/statuses/mentions_timeline.json":
			if q.Get("max_id") != "" {
				fmt.Fprint(w, `[]`)
				return
			}
			fmt.Fprint(w, `[
				{"id":12,"full_text":"second @bot","created_at":"Wed Oct 10 20:19:24 +0000 2018","user":{"id":8,"screen_name":"bob"}},
				{"id":11,"text":"first @bot","user":{"id":7,"screen_name":"alice"}}
			]`)
		case "/direct_messages/events/list.json":
			fmt.Fprint(w, `{"events":[
				{"type":"message_create","id":"31","created_timestamp":"1539202764000","message_create":{"sender_id":"7","message_data":{"text":"new"}}},
				{"type":"message_create","id":"30","message_create":{"sender_id":"7","message_data":{"text":"old"}}}
			],"next_cursor":"more"}`)
		case "/account/verify_credentials.json":
			fmt.Fprint(w, `{"id":1,"screen_name":"bot"}`)
		case "/users/show.json":
			if q.Get("screen_name") != "alice" {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"errors":[{"code":50,"message":"User not found."}]}`)
				return
			}
			fmt.Fprint(w, `{"id":7,"screen_name":"alice"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	return NewTwitterAPI(&twitter.Client{Client: srv.Client(), Host: srv.URL}), rs
}

func TestTwitterAPIMentions(t *testing.T) {
	assert := assert.New(t)

	api, rs := newTestAPI(t)
	evs, err := api.FetchFeed(context.Background(), Feed{Kind: FeedMentions}, 5)
	require.NoError(t, err)
	require.Len(t, evs, 2)

	assert.Equal(int64(12), evs[0].ID)
	assert.Equal("second @bot", evs[0].Text)
	assert.Equal(int64(8), evs[0].AuthorID)
	assert.Equal("bob", evs[0].AuthorName)
	assert.Equal(FeedMentions, evs[0].Kind)
	assert.NotNil(evs[0].Status)
	assert.Equal(2018, evs[0].CreatedAt.Year())
	assert.Equal("first @bot", evs[1].Text)
	assert.True(evs[1].CreatedAt.IsZero())

	// one page, then an empty walk-back page
	assert.Equal(2, rs.count("/statuses/mentions_timeline.json"))
}

func TestTwitterAPIMessages(t *testing.T) {
	assert := assert.New(t)

	api, rs := newTestAPI(t)
	evs, err := api.FetchFeed(context.Background(), Feed{Kind: FeedMessages}, 30)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(int64(31), evs[0].ID)
	assert.Equal(int64(7), evs[0].AuthorID)
	assert.Equal("new", evs[0].Text)
	assert.NotNil(evs[0].Message)
	assert.Equal(2018, evs[0].CreatedAt.Year())
	// reaching an already seen id ends paging even with a cursor left
	assert.Equal(1, rs.count("/direct_messages/events/list.json"))
}

func TestTwitterAPICaching(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	api, rs := newTestAPI(t)
	for range 3 {
		id, err := api.Self(ctx)
		require.NoError(t, err)
		assert.Equal(int64(1), id)

		id, err = api.ResolveUser(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(int64(7), id)
	}
	assert.Equal(1, rs.count("/account/verify_credentials.json"))
	assert.Equal(1, rs.count("/users/show.json"))

	// failures are not cached
	_, err := api.ResolveUser(ctx, "nobody")
	assert.Error(err)
	_, err = api.ResolveUser(ctx, "nobody")
	assert.Error(err)
	assert.Equal(3, rs.count("/users/show.json"))
}

func TestTwitterAPIUnknownFeed(t *testing.T) {
	api, _ := newTestAPI(t)
	_, err := api.FetchFeed(context.Background(), Feed{Kind: FeedKind(99)}, 1)
	assert.ErrorIs(t, err, ErrInvalidFeed)
}
