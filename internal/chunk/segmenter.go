package chunk

import (
	"errors"
	"fmt"
	"time"

	"github.com/xxxsen/unmask/internal/model"
)

// ErrUnsorted is returned when the message feed is not in ascending timestamp order.
var ErrUnsorted = errors.New("messages not sorted by timestamp")

const (
	DefaultMaxMessages = 10
	DefaultMaxGap      = 4 * time.Hour
	DefaultSenderGap   = 30 * time.Minute
)

type Options struct {
	MaxMessages int
	MaxGap      time.Duration
	SenderGap   time.Duration
}

func DefaultOptions() Options {
	return Options{
		MaxMessages: DefaultMaxMessages,
		MaxGap:      DefaultMaxGap,
		SenderGap:   DefaultSenderGap,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxMessages <= 0 {
		o.MaxMessages = DefaultMaxMessages
	}
	if o.MaxGap <= 0 {
		o.MaxGap = DefaultMaxGap
	}
	if o.SenderGap <= 0 {
		o.SenderGap = DefaultSenderGap
	}
	return o
}

// accumulator is the fold state of a segmentation pass.
type accumulator struct {
	opts   Options
	buf    []model.Message
	nextID int
	out    []model.Chunk
}

// Segment partitions the non-empty messages of an ascending feed into chunks
// in a single forward pass. Messages without text are skipped and never
// decide a boundary.
func Segment(msgs []model.Message, opts Options) ([]model.Chunk, error) {
	if err := CheckSorted(msgs); err != nil {
		return nil, err
	}
	acc := &accumulator{opts: opts.withDefaults(), nextID: 1}
	texted := make([]int, 0, len(msgs))
	for i := range msgs {
		if msgs[i].HasText() {
			texted = append(texted, i)
		}
	}
	for k, idx := range texted {
		var next *model.Message
		if k+1 < len(texted) {
			next = &msgs[texted[k+1]]
		}
		acc.push(msgs[idx], next)
	}
	return acc.out, nil
}

func (a *accumulator) push(cur model.Message, next *model.Message) {
	a.buf = append(a.buf, cur)
	if a.shouldClose(cur, next) {
		a.flush()
	}
}

func (a *accumulator) shouldClose(cur model.Message, next *model.Message) bool {
	if len(a.buf) >= a.opts.MaxMessages {
		return true
	}
	if next == nil {
		return true
	}
	gap := next.Timestamp.Sub(cur.Timestamp)
	if gap > a.opts.MaxGap {
		return true
	}
	return cur.DisplaySender() != next.DisplaySender() && gap > a.opts.SenderGap
}

func (a *accumulator) flush() {
	if len(a.buf) == 0 {
		return
	}
	members := make([]model.Message, len(a.buf))
	copy(members, a.buf)
	c := model.Chunk{
		ID:         ChunkID(a.nextID),
		Seq:        a.nextID,
		Messages:   members,
		MessageIDs: make([]int64, 0, len(members)),
		SpanStart:  members[0].Timestamp,
		SpanEnd:    members[len(members)-1].Timestamp,
	}
	for _, m := range members {
		c.MessageIDs = append(c.MessageIDs, m.ID)
		if m.Attachment != "" {
			c.HasAttachment = true
		}
	}
	a.out = append(a.out, c)
	a.nextID++
	a.buf = a.buf[:0]
}

func ChunkID(seq int) string {
	return fmt.Sprintf("chunk_%d", seq)
}

func CheckSorted(msgs []model.Message) error {
	for i := 1; i < len(msgs); i++ {
		if msgs[i].Timestamp.Before(msgs[i-1].Timestamp) {
			return fmt.Errorf("message %d precedes message %d: %w", msgs[i].ID, msgs[i-1].ID, ErrUnsorted)
		}
	}
	return nil
}
