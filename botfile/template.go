package botfile

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/botweet/botweet/bot"

	"github.com/flosch/pongo2/v6"
)

// compile parses a template with autoescaping off; posts are plain text, not HTML.
func compile(text string) (*pongo2.Template, error) {
	if text == "" {
		return nil, nil
	}
	tpl, err := pongo2.FromString("{% autoescape off %}" + text + "{% endautoescape %}")
	if err != nil {
		return nil, fmt.Errorf("invalid template %q: %w", text, err)
	}
	return tpl, nil
}

func render(tpl *pongo2.Template, data pongo2.Context) (string, error) {
	if tpl == nil {
		return "", nil
	}
	out, err := tpl.Execute(data)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// reaction turns a template into a ReactionFunc.
func (f *File) reaction(t *Template) (bot.ReactionFunc, error) {
	text, err := compile(t.Text)
	if err != nil {
		return nil, err
	}
	recipient, err := compile(t.Recipient)
	if err != nil {
		return nil, err
	}
	media := make([]string, len(t.Media))
	for i, m := range t.Media {
		media[i] = f.mediaPath(m)
	}

	return func(ctx context.Context, trig *bot.Trigger) (*bot.Content, error) {
		data := pongo2.Context{
			"match": trig.Match,
			"now":   time.Now(),
		}
		if trig.Event != nil {
			data["event"] = trig.Event
		}
		out, err := render(text, data)
		if err != nil {
			return nil, fmt.Errorf("rendering text: %w", err)
		}
		if out == "" && len(media) == 0 {
			return nil, nil
		}
		to, err := render(recipient, data)
		if err != nil {
			return nil, fmt.Errorf("rendering recipient: %w", err)
		}
		return &bot.Content{
			Text:      out,
			Media:     append([]string(nil), media...),
			Recipient: to,
		}, nil
	}, nil
}

func (f *File) mediaPath(ref string) string {
	if f.dir == "" || strings.Contains(ref, "://") || filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(f.dir, ref)
}
