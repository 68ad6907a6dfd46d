package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xxxsen/unmask/internal/model"
	appErr "github.com/xxxsen/unmask/internal/pkg/errors"
	"github.com/xxxsen/unmask/internal/repo"
)

var errBoom = errors.New("boom")

var testBase = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func testMessage(id int64, offset time.Duration, sender, text string) model.Message {
	dir := model.DirectionIncoming
	if sender == "" {
		dir = model.DirectionOutgoing
	}
	return model.Message{ID: id, Timestamp: testBase.Add(offset), Sender: sender, Direction: dir, Text: text}
}

type fakeMessages struct {
	mu      sync.Mutex
	items   []model.Message
	listErr error
	inserts int
}

func (f *fakeMessages) List(_ context.Context, filter repo.MessageFilter) ([]model.Message, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := append([]model.Message(nil), f.items...)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeMessages) InsertBatch(_ context.Context, msgs []model.Message) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts++
	seen := make(map[int64]struct{}, len(f.items))
	for _, m := range f.items {
		seen[m.ID] = struct{}{}
	}
	n := 0
	for _, m := range msgs {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		f.items = append(f.items, m)
		n++
	}
	return n, nil
}

func (f *fakeMessages) MaxID(context.Context) (int64, error) {
	var id int64
	for _, m := range f.items {
		id = max(id, m.ID)
	}
	return id, nil
}

func (f *fakeMessages) Page(_ context.Context, search string, limit, offset int) ([]model.Message, int64, error) {
	var matched []model.Message
	for _, m := range f.items {
		if search == "" || strings.Contains(m.Text, search) {
			matched = append(matched, m)
		}
	}
	start := min(offset, len(matched))
	end := min(start+limit, len(matched))
	return matched[start:end], int64(len(matched)), nil
}

func (f *fakeMessages) Get(_ context.Context, id int64) (*model.Message, error) {
	for _, m := range f.items {
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, appErr.ErrNotFound
}

type fakeTags struct {
	mu       sync.Mutex
	stored   map[int64][]model.Tag
	calls    int
	failCall map[int]int
	hits     []model.TagHit
	lastQ    model.TagQuery
}

// ReplaceBatch fails a batch whose first message id is k failCall[k] times
// before succeeding.
func (f *fakeTags) ReplaceBatch(_ context.Context, batch []repo.TaggedMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	key := 0
	if len(batch) > 0 {
		key = int(batch[0].MessageID)
	}
	if f.failCall[key] > 0 {
		f.failCall[key]--
		return errBoom
	}
	if f.stored == nil {
		f.stored = map[int64][]model.Tag{}
	}
	for _, item := range batch {
		f.stored[item.MessageID] = item.Tags
	}
	return nil
}

func (f *fakeTags) Search(_ context.Context, q model.TagQuery) ([]model.TagHit, error) {
	f.lastQ = q
	var out []model.TagHit
	for _, h := range f.hits {
		if q.Category != "" && h.Tag.Category != q.Category {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

func (f *fakeTags) ListByMessage(_ context.Context, id int64) ([]model.Tag, error) {
	return f.stored[id], nil
}

type fakeChunks struct {
	stored []model.Chunk
	err    error
}

func (f *fakeChunks) ReplaceAll(_ context.Context, chunks []model.Chunk) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	keep := map[string]struct{}{}
	for _, c := range chunks {
		keep[c.ID] = struct{}{}
	}
	var stale []string
	for _, c := range f.stored {
		if _, ok := keep[c.ID]; !ok {
			stale = append(stale, c.ID)
		}
	}
	f.stored = append([]model.Chunk(nil), chunks...)
	return stale, nil
}

func (f *fakeChunks) GetByIDs(_ context.Context, ids []string) ([]model.Chunk, error) {
	want := map[string]struct{}{}
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []model.Chunk
	for _, c := range f.stored {
		if _, ok := want[c.ID]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeChunks) List(_ context.Context, contextType model.ContextType, limit, offset int) ([]model.Chunk, error) {
	var matched []model.Chunk
	for _, c := range f.stored {
		if contextType == "" || c.ContextType == contextType {
			matched = append(matched, c)
		}
	}
	start := min(offset, len(matched))
	end := min(start+limit, len(matched))
	return matched[start:end], nil
}

// fakeEmbedder maps text onto a small deterministic vector. Texts containing
// a fail substring error until fails is exhausted.
type fakeEmbedder struct {
	mu     sync.Mutex
	fail   string
	fails  int
	calls  int
	tasks  map[string]int
	always error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string, taskType string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.tasks == nil {
		f.tasks = map[string]int{}
	}
	f.tasks[taskType]++
	if f.always != nil {
		return nil, f.always
	}
	if f.fail != "" && strings.Contains(text, f.fail) && f.fails != 0 {
		if f.fails > 0 {
			f.fails--
		}
		return nil, errBoom
	}
	return []float32{float32(len(text)%7) + 1, float32(strings.Count(text, "\n")) + 1, 1}, nil
}

type fakeGenerator struct {
	out     string
	err     error
	context string
}

func (f *fakeGenerator) Insights(_ context.Context, _ string, contextText string) (string, error) {
	f.context = contextText
	return f.out, f.err
}

type memFiles struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memFiles) Type() string { return "memory" }

func (m *memFiles) Save(_ context.Context, key string, r io.ReadSeeker, _ int64) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string][]byte{}
	}
	m.data[key] = raw
	return nil
}

func (m *memFiles) Open(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (m *memFiles) keys() []string {
	out := make([]string, 0, len(m.data))
	for k := range m.data {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (f *fakeChunks) Get(_ context.Context, id string) (*model.Chunk, error) {
	for _, c := range f.stored {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, appErr.ErrNotFound
}
