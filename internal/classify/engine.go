package classify

import (
	"context"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/xxxsen/unmask/internal/model"
	"github.com/xxxsen/unmask/internal/pattern"
)

// Engine applies a pattern library to one message at a time. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	lib *pattern.Library
}

func New(lib *pattern.Library) *Engine {
	if lib == nil {
		lib = pattern.Default()
	}
	return &Engine{lib: lib}
}

// Classify returns the tags for msg. Detector outputs are concatenated in a
// fixed order, so repeated calls yield the same tag list.
func (e *Engine) Classify(msg model.Message) []model.Tag {
	lower := strings.ToLower(msg.Text)
	tags := make([]model.Tag, 0, 4)
	tags = append(tags, e.detectPersons(lower)...)
	tags = append(tags, e.detectEx(lower)...)
	tags = append(tags, e.detectEmotions(lower)...)
	tags = append(tags, e.detectConflicts(lower)...)
	tags = append(tags, e.detectDynamics(lower)...)
	tags = append(tags, e.detectLength(msg.Text))
	for i := range tags {
		tags[i].MessageID = msg.ID
	}
	return tags
}

// ClassifyAll classifies msgs with up to workers goroutines. The result is
// index-aligned with msgs.
func (e *Engine) ClassifyAll(ctx context.Context, msgs []model.Message, workers int) ([][]model.Tag, error) {
	out := make([][]model.Tag, len(msgs))
	if workers <= 1 {
		for i := range msgs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			out[i] = e.Classify(msgs[i])
		}
		return out, nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range msgs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = e.Classify(msgs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) detectLength(text string) model.Tag {
	n := utf8.RuneCountInString(text)
	label := e.lib.LengthBuckets[len(e.lib.LengthBuckets)-1].Label
	for _, b := range e.lib.LengthBuckets {
		if b.Below == 0 || n < b.Below {
			label = b.Label
			break
		}
	}
	return model.Tag{
		Category: model.CategoryCommunicationPattern,
		Type:     pattern.TypeMessageLength,
		Value:    string(label),
		Length:   n,
	}
}
