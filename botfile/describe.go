package botfile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/botweet/botweet/bot"

	"github.com/xlab/treeprint"
)

// Tree renders the behaviors with their effective defaults, for review before running.
func (f *File) Tree(root string) treeprint.Tree {
	tree := treeprint.NewWithRoot(root)
	for i := range f.Behaviors {
		b := &f.Behaviors[i]
		branch := tree.AddBranch(fmt.Sprintf("%s (%s)", b.label(), b.Kind))
		describeBehavior(branch, b)
	}
	return tree
}

func describeBehavior(branch treeprint.Tree, b *Behavior) {
	interval := b.Interval
	if interval == 0 {
		interval = bot.DefaultCheckInterval
	}
	branch.AddNode("every " + interval.String())

	switch b.Kind {
	case KindTimed:
		describeTemplate(branch, "post", b.Post)
		return
	case KindSearch:
		q := fmt.Sprintf("query %q", b.Query)
		if len(b.Params) > 0 {
			keys := make([]string, 0, len(b.Params))
			for k := range b.Params {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			parts := make([]string, len(keys))
			for i, k := range keys {
				parts[i] = k + "=" + b.Params[k]
			}
			q += " [" + strings.Join(parts, " ") + "]"
		}
		branch.AddNode(q)
	case KindUserTimeline:
		branch.AddNode("user " + b.User)
	}

	if b.Regex != "" {
		branch.AddNode(fmt.Sprintf("matching /%s/", b.Regex))
	}
	sinceID := b.SinceID
	if sinceID == 0 {
		sinceID = bot.DefaultSinceID
	}
	branch.AddNode(fmt.Sprintf("since %d", sinceID))
	limit := b.Limit
	if limit == 0 && b.Kind == KindSearch {
		limit = bot.DefaultSearchLimit
	}
	if limit > 0 {
		branch.AddNode(fmt.Sprintf("at most %d per poll", limit))
	}

	if b.Retweet {
		branch.AddNode("retweet")
	}
	describeTemplate(branch, "reply", b.Reply)
	describeTemplate(branch, "message", b.Message)
}

func describeTemplate(branch treeprint.Tree, name string, t *Template) {
	if t == nil {
		return
	}
	sub := branch.AddBranch(name)
	sub.AddNode(fmt.Sprintf("text %q", t.Text))
	for _, m := range t.Media {
		sub.AddNode("media " + m)
	}
	if t.Recipient != "" {
		sub.AddNode(fmt.Sprintf("to %q", t.Recipient))
	}
}
