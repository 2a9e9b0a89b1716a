package proxy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"chaoszone/tileproxy/pkg/cache"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingObserver struct {
	mu      sync.Mutex
	hits    int
	misses  int
	fetches int
	entries int
}

func (o *recordingObserver) CacheHit(string) {
	o.mu.Lock()
	o.hits++
	o.mu.Unlock()
}

func (o *recordingObserver) CacheMiss(string) {
	o.mu.Lock()
	o.misses++
	o.mu.Unlock()
}

func (o *recordingObserver) CacheSize(_ string, n int) {
	o.mu.Lock()
	o.entries = n
	o.mu.Unlock()
}

func (o *recordingObserver) UpstreamFetch(string, int, time.Duration, error) {
	o.mu.Lock()
	o.fetches++
	o.mu.Unlock()
}

// countingUpstream serves handler and counts requests.
func countingUpstream(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newTestForwarder(t *testing.T, upstreamURL string, clock *fakeClock, opts ...ForwarderOption) (*Forwarder, *cache.TTLCache[*Response]) {
	t.Helper()
	registry := NewTargetRegistry(map[string]string{"tiles": upstreamURL + "/"})
	store := cache.New[*Response](24*time.Hour, cache.WithClock(clock.Now))
	return NewForwarder(registry, store, opts...), store
}

func inbound(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "http://proxy.local"+path, nil)
	return req
}

func TestForwarder_CacheableServedFromCache(t *testing.T) {
	upstream, hits := countingUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	})
	clock := newFakeClock()
	obs := &recordingObserver{}
	f, _ := newTestForwarder(t, upstream.URL, clock, WithObserver(obs))

	ctx := context.Background()
	first, err := f.Handle(ctx, "tiles", "planet.json", inbound("/proxy/tiles/planet.json"))
	if err != nil {
		t.Fatalf("first Handle() error = %v", err)
	}
	second, err := f.Handle(ctx, "tiles", "planet.json", inbound("/proxy/tiles/planet.json"))
	if err != nil {
		t.Fatalf("second Handle() error = %v", err)
	}

	if got := hits.Load(); got != 1 {
		t.Errorf("upstream hits = %d, want 1", got)
	}
	if string(first.Body) != string(second.Body) {
		t.Errorf("bodies differ: %q vs %q", first.Body, second.Body)
	}
	if obs.hits != 1 || obs.misses != 1 {
		t.Errorf("hits/misses = %d/%d, want 1/1", obs.hits, obs.misses)
	}
	if obs.entries != 1 {
		t.Errorf("entries = %d, want 1", obs.entries)
	}
}

func TestForwarder_NonCacheableAlwaysFetched(t *testing.T) {
	upstream, hits := countingUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-protobuf")
		w.Write([]byte{0x1a, 0x02})
	})
	clock := newFakeClock()
	f, store := newTestForwarder(t, upstream.URL, clock)

	for i := 0; i < 3; i++ {
		if _, err := f.Handle(context.Background(), "tiles", "planet/1/2/3.pbf", inbound("/proxy/tiles/planet/1/2/3.pbf")); err != nil {
			t.Fatalf("Handle() error = %v", err)
		}
	}

	if got := hits.Load(); got != 3 {
		t.Errorf("upstream hits = %d, want 3", got)
	}
	if store.Len() != 0 {
		t.Errorf("cache entries = %d, want 0", store.Len())
	}
}

func TestForwarder_ExpiredEntryRefetched(t *testing.T) {
	var version atomic.Int32
	upstream, hits := countingUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/css")
		if version.Load() == 0 {
			w.Write([]byte("v1"))
			return
		}
		w.Write([]byte("v2"))
	})
	clock := newFakeClock()
	f, store := newTestForwarder(t, upstream.URL, clock)
	ctx := context.Background()
	key := CacheKey("tiles", "style.css")

	if _, err := f.Handle(ctx, "tiles", "style.css", inbound("/proxy/tiles/style.css")); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	firstStored, _ := store.StoredAt(key)

	version.Store(1)
	clock.Advance(24*time.Hour - time.Second)
	resp, err := f.Handle(ctx, "tiles", "style.css", inbound("/proxy/tiles/style.css"))
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if string(resp.Body) != "v1" {
		t.Errorf("Body before expiry = %q, want v1", resp.Body)
	}

	clock.Advance(time.Second)
	resp, err = f.Handle(ctx, "tiles", "style.css", inbound("/proxy/tiles/style.css"))
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if string(resp.Body) != "v2" {
		t.Errorf("Body after expiry = %q, want v2", resp.Body)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("upstream hits = %d, want 2", got)
	}

	secondStored, _ := store.StoredAt(key)
	if !secondStored.After(firstStored) {
		t.Errorf("storedAt = %v, want after %v", secondStored, firstStored)
	}
}

func TestForwarder_UnknownTarget(t *testing.T) {
	upstream, hits := countingUpstream(t, func(w http.ResponseWriter, r *http.Request) {})
	f, _ := newTestForwarder(t, upstream.URL, newFakeClock())

	_, err := f.Handle(context.Background(), "nope", "x.json", inbound("/proxy/nope/x.json"))

	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want *NotFoundError", err)
	}
	if StatusCode(err) != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", StatusCode(err))
	}
	if hits.Load() != 0 {
		t.Error("unknown target must not reach any upstream")
	}
}

func TestForwarder_UnreachableUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	url := upstream.URL
	upstream.Close()

	f, store := newTestForwarder(t, url, newFakeClock())

	_, err := f.Handle(context.Background(), "tiles", "planet.json", inbound("/proxy/tiles/planet.json"))

	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("error = %v, want *UpstreamError", err)
	}
	if StatusCode(err) != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want 502", StatusCode(err))
	}
	if store.Len() != 0 {
		t.Error("failed fetch must not populate the cache")
	}
}

func TestForwarder_UpstreamErrorStatusIsCached(t *testing.T) {
	upstream, hits := countingUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	})
	f, _ := newTestForwarder(t, upstream.URL, newFakeClock())

	for i := 0; i < 2; i++ {
		resp, err := f.Handle(context.Background(), "tiles", "missing.json", inbound("/proxy/tiles/missing.json"))
		if err != nil {
			t.Fatalf("Handle() error = %v", err)
		}
		if resp.Status != http.StatusNotFound {
			t.Errorf("Status = %d, want 404", resp.Status)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("upstream hits = %d, want 1", got)
	}
}

func TestForwarder_ForwardedHeaders(t *testing.T) {
	var got http.Header
	var path string
	upstream, _ := countingUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		path = r.URL.Path
		w.WriteHeader(http.StatusPartialContent)
	})
	f, _ := newTestForwarder(t, upstream.URL, newFakeClock())

	req := inbound("/proxy/tiles/a/b.pbf")
	req.Header.Set("Range", "bytes=0-99")
	req.Header.Set("Cookie", "secret=1")
	req.Header.Set("X-Custom", "drop")
	req.Header.Set(SessionIDHeader, "abc")

	resp, err := f.Handle(context.Background(), "tiles", "a/b.pbf", req)
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if resp.Status != http.StatusPartialContent {
		t.Errorf("Status = %d, want 206", resp.Status)
	}
	if path != "/a/b.pbf" {
		t.Errorf("upstream path = %q, want /a/b.pbf", path)
	}
	if got.Get("Range") != "bytes=0-99" {
		t.Errorf("Range = %q", got.Get("Range"))
	}
	if got.Get(SessionIDHeader) != "abc" {
		t.Errorf("%s = %q", SessionIDHeader, got.Get(SessionIDHeader))
	}
	if got.Get("Origin") != "http://proxy.local" {
		t.Errorf("Origin = %q, want http://proxy.local", got.Get("Origin"))
	}
	if got.Get("Cookie") != "" || got.Get("X-Custom") != "" {
		t.Error("non allow-listed headers must not be forwarded")
	}
}

func TestForwarder_RewritesJSONAndLocation(t *testing.T) {
	var upstreamURL string
	upstream, _ := countingUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old.json" {
			w.Header().Set("Location", upstreamURL+"/new.json")
			w.WriteHeader(http.StatusMovedPermanently)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"tiles":["` + upstreamURL + `/planet/{z}/{x}/{y}.pbf"]}`))
	})
	upstreamURL = upstream.URL

	f, _ := newTestForwarder(t, upstream.URL, newFakeClock(), WithPublicBaseURL("https://map.example.com"))

	resp, err := f.Handle(context.Background(), "tiles", "planet.json", inbound("/proxy/tiles/planet.json"))
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	want := `{"tiles":["https://map.example.com/tiles/planet/{z}/{x}/{y}.pbf"]}`
	if string(resp.Body) != want {
		t.Errorf("Body = %s, want %s", resp.Body, want)
	}

	resp, err = f.Handle(context.Background(), "tiles", "old.json", inbound("/proxy/tiles/old.json"))
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if resp.Status != http.StatusMovedPermanently {
		t.Errorf("Status = %d, want 301", resp.Status)
	}
	if loc := resp.Header.Get("Location"); loc != "https://map.example.com/tiles/new.json" {
		t.Errorf("Location = %q", loc)
	}
}

func TestForwarder_DedupeConcurrentMisses(t *testing.T) {
	release := make(chan struct{})
	upstream, hits := countingUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Header().Set("Content-Type", "application/javascript")
		w.Write([]byte("x()"))
	})
	f, _ := newTestForwarder(t, upstream.URL, newFakeClock(), WithDedupe(true))

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := f.Handle(context.Background(), "tiles", "lib.js", inbound("/proxy/tiles/lib.js"))
			if err == nil && string(resp.Body) != "x()" {
				err = errors.New("unexpected body " + string(resp.Body))
			}
			errs <- err
		}()
	}

	// Give the callers time to join the flight before the upstream answers.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Handle() error = %v", err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("upstream hits = %d, want 1", got)
	}
}

func TestForwarder_DedupeSurvivesFirstCallerCancel(t *testing.T) {
	arrived := make(chan struct{}, 1)
	release := make(chan struct{})
	upstream, hits := countingUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		arrived <- struct{}{}
		<-release
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"v":8}`))
	})
	f, store := newTestForwarder(t, upstream.URL, newFakeClock(), WithDedupe(true))

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := f.Handle(firstCtx, "tiles", "style.json", inbound("/proxy/tiles/style.json"))
		firstErr <- err
	}()
	<-arrived

	type result struct {
		resp *Response
		err  error
	}
	second := make(chan result, 1)
	go func() {
		resp, err := f.Handle(context.Background(), "tiles", "style.json", inbound("/proxy/tiles/style.json"))
		second <- result{resp, err}
	}()

	// Let the second caller join the flight before the first one leaves.
	time.Sleep(100 * time.Millisecond)
	cancelFirst()

	select {
	case err := <-firstErr:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("first caller err = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(release)
	res := <-second
	if res.err != nil {
		t.Fatalf("second caller err = %v", res.err)
	}
	if string(res.resp.Body) != `{"v":8}` {
		t.Errorf("Body = %q, want %q", res.resp.Body, `{"v":8}`)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("upstream hits = %d, want 1", got)
	}
	if _, ok := store.Get(CacheKey("tiles", "style.json")); !ok {
		t.Error("shared fetch should fill the cache")
	}
}

func TestForwarder_UpstreamTimeout(t *testing.T) {
	block := make(chan struct{})
	upstream, _ := countingUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	})
	defer close(block)

	f, _ := newTestForwarder(t, upstream.URL, newFakeClock(), WithUpstreamTimeout(50*time.Millisecond))

	_, err := f.Handle(context.Background(), "tiles", "slow.pbf", inbound("/proxy/tiles/slow.pbf"))
	if StatusCode(err) != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want 502 (err = %v)", StatusCode(err), err)
	}
}

func TestForwarder_CachePolicy(t *testing.T) {
	upstream, hits := countingUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tile"))
	})
	f, _ := newTestForwarder(t, upstream.URL, newFakeClock(), WithCachePolicy(NewCachePolicy([]string{".pbf"})))

	for i := 0; i < 2; i++ {
		if _, err := f.Handle(context.Background(), "tiles", "0/0/0.pbf", inbound("/proxy/tiles/0/0/0.pbf")); err != nil {
			t.Fatalf("Handle() error = %v", err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("upstream hits = %d, want 1", got)
	}
}
