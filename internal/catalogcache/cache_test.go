package catalogcache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/appcatalog/internal/apperr"
	"github.com/starford/appcatalog/internal/catalog"
	"github.com/starford/appcatalog/internal/outline"
	"github.com/starford/appcatalog/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource is an in-memory provider whose revision and failure mode can be changed by tests.
type fakeSource struct {
	mu       sync.Mutex
	revision string
	nodes    []outline.Node
	fail     error
	delay    time.Duration
	loads    atomic.Int64
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		revision: "r1",
		nodes: []outline.Node{
			outline.Heading{Depth: 2, Text: "Editors"},
			outline.AppList{Items: []outline.ListItem{
				{Mark: &outline.Mark{Title: "Vim", URL: "https://vim.org"}},
			}},
		},
	}
}

func (f *fakeSource) Locales() []string { return []string{"en"} }

func (f *fakeSource) Revision(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return "", f.fail
	}
	return f.revision, nil
}

func (f *fakeSource) Load(_ context.Context, locale string) (*source.Document, error) {
	f.loads.Add(1)
	time.Sleep(f.delay)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	return &source.Document{Locale: locale, Revision: f.revision, Nodes: f.nodes}, nil
}

func (f *fakeSource) set(revision string, nodes []outline.Node) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revision = revision
	if nodes != nil {
		f.nodes = nodes
	}
}

func (f *fakeSource) setFail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCache_GetBuildsOnce(t *testing.T) {
	src := newFakeSource()
	c := New(src, "en", WithLogger(quietLogger()))

	first, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "r1", first.Revision)
	require.Len(t, first.Catalog.Apps, 1)

	second, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, int64(1), src.loads.Load())
	assert.Equal(t, int64(1), c.Builds())
}

func TestCache_ConcurrentGetsShareOneBuild(t *testing.T) {
	src := newFakeSource()
	src.delay = 50 * time.Millisecond

	var builds atomic.Int64
	c := New(src, "en", WithLogger(quietLogger()), WithBuildFunc(func(nodes []outline.Node) *catalog.Catalog {
		builds.Add(1)
		return catalog.Build(nodes)
	}))

	var wg sync.WaitGroup
	snaps := make([]*Snapshot, 8)
	for i := range snaps {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := c.Get(context.Background())
			if err != nil {
				t.Error(err)
				return
			}
			snaps[i] = s
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), builds.Load())
	for _, s := range snaps {
		assert.Same(t, snaps[0], s)
	}
}

func TestCache_RebuildsOnRevisionChange(t *testing.T) {
	src := newFakeSource()
	c := New(src, "en", WithLogger(quietLogger()))

	before, err := c.Get(context.Background())
	require.NoError(t, err)

	src.set("r2", []outline.Node{
		outline.Heading{Depth: 2, Text: "Browsers"},
		outline.AppList{Items: []outline.ListItem{
			{Mark: &outline.Mark{Title: "Firefox", URL: "https://firefox.com"}},
			{Mark: &outline.Mark{Title: "Chromium", URL: "https://chromium.org"}},
		}},
	})

	after, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "r2", after.Revision)
	assert.Len(t, after.Catalog.Apps, 2)
	assert.Len(t, before.Catalog.Apps, 1, "earlier snapshot must stay intact")
	assert.Equal(t, int64(2), c.Builds())
}

func TestCache_SourceFailureIsUnavailable(t *testing.T) {
	src := newFakeSource()
	src.setFail(errors.New("disk on fire"))
	c := New(src, "en", WithLogger(quietLogger()))

	_, err := c.Get(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrSourceUnavailable)
	assert.Equal(t, apperr.DefaultRetryAfter, apperr.RetryAfter(err))
	assert.Nil(t, c.Peek())
}

func TestCache_PreservesUnavailableError(t *testing.T) {
	src := newFakeSource()
	orig := &apperr.UnavailableError{Locale: "en", RetryAfter: 5 * time.Second, Err: io.ErrUnexpectedEOF}
	src.setFail(orig)
	c := New(src, "en", WithLogger(quietLogger()))

	_, err := c.Get(context.Background())
	assert.Equal(t, 5*time.Second, apperr.RetryAfter(err))
}

func TestCache_BuildPanicIsUnavailable(t *testing.T) {
	src := newFakeSource()
	c := New(src, "en", WithLogger(quietLogger()), WithBuildFunc(func([]outline.Node) *catalog.Catalog {
		panic("boom")
	}))

	_, err := c.Get(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrSourceUnavailable)
	assert.Contains(t, err.Error(), "boom")
}

func TestCache_RefreshForcesReload(t *testing.T) {
	src := newFakeSource()
	c := New(src, "en", WithLogger(quietLogger()))

	_, err := c.Get(context.Background())
	require.NoError(t, err)
	_, err = c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), src.loads.Load())
}

func TestCache_StaleSnapshotKeptUntilReloadSucceeds(t *testing.T) {
	src := newFakeSource()
	c := New(src, "en", WithLogger(quietLogger()))
	_, err := c.Get(context.Background())
	require.NoError(t, err)

	src.setFail(fmt.Errorf("gone"))
	_, err = c.Get(context.Background())
	require.Error(t, err)
	require.NotNil(t, c.Peek())
	assert.Equal(t, "r1", c.Peek().Revision)
}

// gatedSource blocks Load until release is closed or the load context ends.
type gatedSource struct {
	*fakeSource
	started   chan struct{}
	release   chan struct{}
	once      sync.Once
	cancelled atomic.Bool
}

func (g *gatedSource) Load(ctx context.Context, locale string) (*source.Document, error) {
	g.once.Do(func() { close(g.started) })
	select {
	case <-g.release:
		return g.fakeSource.Load(ctx, locale)
	case <-ctx.Done():
		g.cancelled.Store(true)
		return nil, ctx.Err()
	}
}

func TestCache_CallerCancelDoesNotFailOtherWaiters(t *testing.T) {
	src := &gatedSource{
		fakeSource: newFakeSource(),
		started:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	c := New(src, "en", WithLogger(quietLogger()))

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	errA := make(chan error, 1)
	go func() {
		_, err := c.Get(ctxA)
		errA <- err
	}()
	<-src.started

	type result struct {
		snap *Snapshot
		err  error
	}
	resB := make(chan result, 1)
	go func() {
		s, err := c.Get(context.Background())
		resB <- result{s, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting")
	}

	close(src.release)
	select {
	case r := <-resB:
		require.NoError(t, r.err)
		assert.Equal(t, "r1", r.snap.Revision)
	case <-time.After(time.Second):
		t.Fatal("second caller never returned")
	}
	assert.False(t, src.cancelled.Load(), "shared load must not see the first caller's cancellation")
	assert.NotNil(t, c.Peek())
}

func TestRegistry(t *testing.T) {
	src := newFakeSource()
	reg, err := NewRegistry(src, "en", WithLogger(quietLogger()))
	require.NoError(t, err)

	assert.Equal(t, []string{"en"}, reg.Locales())
	assert.Equal(t, "en", reg.DefaultLocale())

	snap, err := reg.Get(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "en", snap.Locale)

	_, err = reg.Get(context.Background(), "fr")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, reg.Warm(context.Background()))

	_, err = NewRegistry(src, "de")
	assert.Error(t, err)
}
