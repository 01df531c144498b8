package bot

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// fakeAPI serves canned feed batches and records every write.
type fakeAPI struct {
	mu sync.Mutex

	// successive FetchFeed results per kind; an exhausted queue returns nothing
	batches map[FeedKind][][]Event
	fetchErr []error

	fetches   []int64
	posts     []*Post
	retweets  []int64
	messages  []*DirectMessage
	uploads   []string
	resolved  []string
	postErr   []error
	self      int64
	users     map[string]int64
	nextID    int64
	selfCalls int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		batches: map[FeedKind][][]Event{},
		users:   map[string]int64{},
		self:    1,
		nextID:  10_000,
	}
}

func (f *fakeAPI) queue(kind FeedKind, evs ...Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range evs {
		evs[i].Kind = kind
	}
	f.batches[kind] = append(f.batches[kind], evs)
}

func (f *fakeAPI) FetchFeed(ctx context.Context, feed Feed, sinceID int64) ([]Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, sinceID)
	if len(f.fetchErr) > 0 {
		err := f.fetchErr[0]
		f.fetchErr = f.fetchErr[1:]
		if err != nil {
			return nil, err
		}
	}
	q := f.batches[feed.Kind]
	if len(q) == 0 {
		return nil, nil
	}
	f.batches[feed.Kind] = q[1:]
	return append([]Event(nil), q[0]...), nil
}

func (f *fakeAPI) Post(ctx context.Context, p *Post) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.postErr) > 0 {
		err := f.postErr[0]
		f.postErr = f.postErr[1:]
		if err != nil {
			return 0, err
		}
	}
	f.posts = append(f.posts, p)
	f.nextID++
	return f.nextID, nil
}

func (f *fakeAPI) Retweet(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retweets = append(f.retweets, id)
	return nil
}

func (f *fakeAPI) SendDirectMessage(ctx context.Context, dm *DirectMessage) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, dm)
	f.nextID++
	return f.nextID, nil
}

func (f *fakeAPI) UploadMedia(ctx context.Context, name string, r io.Reader) (int64, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, name+":"+string(b))
	// ids encode the upload content so ordering can be checked
	var n int64
	fmt.Sscanf(strings.TrimPrefix(string(b), "media-"), "%d", &n)
	return n, nil
}

func (f *fakeAPI) Self(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selfCalls++
	return f.self, nil
}

func (f *fakeAPI) ResolveUser(ctx context.Context, screenName string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolved = append(f.resolved, screenName)
	id, ok := f.users[screenName]
	if !ok {
		return 0, fmt.Errorf("user %q not found", screenName)
	}
	return id, nil
}

func (f *fakeAPI) numPosts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posts)
}

func (f *fakeAPI) numFetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetches)
}

func (f *fakeAPI) writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posts) + len(f.retweets) + len(f.messages) + len(f.uploads)
}

// memoryMedia resolves "n" to a body of "media-n" without touching the filesystem.
func memoryMedia(opened *[]string) MediaOpener {
	var mu sync.Mutex
	return func(ctx context.Context, ref string) (string, io.ReadCloser, error) {
		mu.Lock()
		*opened = append(*opened, ref)
		mu.Unlock()
		return "img.png", io.NopCloser(strings.NewReader("media-" + ref)), nil
	}
}
