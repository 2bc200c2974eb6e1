package sentiment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentibot-go/internal/metrics"
	"sentibot-go/internal/signal"
)

func TestFearGreedFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fng/", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"name":"Fear and Greed Index","data":[{"value":"27","value_classification":"Fear","timestamp":"1700000000","time_until_update":"100"}],"metadata":{"error":null}}`))
	}))
	defer server.Close()

	fg, err := NewFearGreedClient(server.URL, time.Second).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 27, fg.Value)
	assert.Equal(t, "Fear", fg.Classification)
	assert.Equal(t, time.Unix(1700000000, 0), fg.Ts)
}

func TestFearGreedFetchErrors(t *testing.T) {
	cases := map[string]func(w http.ResponseWriter){
		"status":       func(w http.ResponseWriter) { w.WriteHeader(http.StatusBadGateway) },
		"malformed":    func(w http.ResponseWriter) { _, _ = w.Write([]byte(`{"data":`)) },
		"empty":        func(w http.ResponseWriter) { _, _ = w.Write([]byte(`{"data":[]}`)) },
		"non-numeric":  func(w http.ResponseWriter) { _, _ = w.Write([]byte(`{"data":[{"value":"high"}]}`)) },
		"out-of-range": func(w http.ResponseWriter) { _, _ = w.Write([]byte(`{"data":[{"value":"140"}]}`)) },
	}
	for name, handler := range cases {
		handler := handler
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { handler(w) }))
			defer server.Close()
			_, err := NewFearGreedClient(server.URL, time.Second).Fetch(context.Background())
			assert.Error(t, err)
		})
	}
}

type keywordScorer struct{}

func (keywordScorer) Compound(text string) float64 {
	switch {
	case strings.Contains(text, "moon"):
		return 0.8
	case strings.Contains(text, "crash"):
		return -0.4
	default:
		return 0
	}
}

const listingBody = `{"data":{"children":[
	{"data":{"title":"BTC to the moon"}},
	{"data":{"title":"Market crash incoming"}},
	{"data":{"title":"Daily discussion"}},
	{"data":{"title":"   "}}
]}}`

func TestRedditFetchPublicListing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/r/Bitcoin/hot.json", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(listingBody))
	}))
	defer server.Close()

	client := NewRedditClient(RedditConfig{PublicURL: server.URL}, keywordScorer{})
	got, err := client.Fetch(context.Background(), "r/Bitcoin", 500)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Samples)
	assert.InDelta(t, (0.8-0.4+0)/3, got.Score, 1e-12)
}

func TestRedditFetchRespectsSampleSize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listingBody))
	}))
	defer server.Close()

	got, err := NewRedditClient(RedditConfig{PublicURL: server.URL}, keywordScorer{}).Fetch(context.Background(), "Bitcoin", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Samples)
	assert.InDelta(t, 0.8, got.Score, 1e-12)
}

func TestRedditFetchEmptyListingIsZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"children":[]}}`))
	}))
	defer server.Close()

	got, err := NewRedditClient(RedditConfig{PublicURL: server.URL}, keywordScorer{}).Fetch(context.Background(), "Bitcoin", 30)
	require.NoError(t, err)
	assert.Zero(t, got.Score)
	assert.Zero(t, got.Samples)
}

func TestRedditFetchOAuth(t *testing.T) {
	var tokenCalls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/access_token":
			tokenCalls++
			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "id", user)
			assert.Equal(t, "secret", pass)
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
			_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":86400}`))
		case "/r/Bitcoin/hot":
			assert.Equal(t, "bearer tok", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(listingBody))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewRedditClient(RedditConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		PublicURL:    server.URL,
		OAuthURL:     server.URL,
	}, keywordScorer{})

	for i := 0; i < 2; i++ {
		got, err := client.Fetch(context.Background(), "Bitcoin", 100)
		require.NoError(t, err)
		assert.Equal(t, 3, got.Samples)
	}
	assert.Equal(t, 1, tokenCalls, "token should be cached")
}

func TestRedditFetchRequiresSubreddit(t *testing.T) {
	_, err := NewRedditClient(RedditConfig{}, keywordScorer{}).Fetch(context.Background(), " ", 10)
	assert.Error(t, err)
}

func TestVaderScorerPolarity(t *testing.T) {
	scorer := NewVaderScorer()
	assert.Greater(t, scorer.Compound("Bitcoin is great, I love this amazing rally"), 0.2)
	assert.Less(t, scorer.Compound("Terrible crash, awful losses, I hate this"), -0.2)
	assert.InDelta(t, 0, scorer.Compound("The next halving is in April"), 0.05)
}

type stubFearGreed struct {
	value signal.FearGreed
	err   error
}

func (s *stubFearGreed) Fetch(context.Context) (signal.FearGreed, error) { return s.value, s.err }

type stubSocial struct {
	value signal.Sentiment
	err   error
	topic string
	size  int
}

func (s *stubSocial) Fetch(_ context.Context, topic string, size int) (signal.Sentiment, error) {
	s.topic, s.size = topic, size
	return s.value, s.err
}

func TestRefresherPublishesReadings(t *testing.T) {
	fg := &stubFearGreed{value: signal.FearGreed{Value: 15, Classification: "Extreme Fear"}}
	social := &stubSocial{value: signal.Sentiment{Score: 0.4, Samples: 30}}
	r := NewRefresher(fg, social, RefresherConfig{Topic: "Bitcoin", SampleSize: 30}, zerolog.Nop())

	assert.False(t, r.FearGreed().IsPresent())
	assert.False(t, r.Sentiment().IsPresent())

	r.RefreshFearGreed(context.Background())
	r.RefreshSentiment(context.Background())

	v, ok := r.FearGreed().Get()
	require.True(t, ok)
	assert.Equal(t, 15, v.Value)
	assert.False(t, v.Ts.IsZero())

	s, ok := r.Sentiment().Get()
	require.True(t, ok)
	assert.Equal(t, 0.4, s.Score)
	assert.Equal(t, "Bitcoin", social.topic)
	assert.Equal(t, 30, social.size)
}

func TestRefresherFailureClearsReading(t *testing.T) {
	fg := &stubFearGreed{value: signal.FearGreed{Value: 70}}
	r := NewRefresher(fg, nil, RefresherConfig{}, zerolog.Nop())

	r.RefreshFearGreed(context.Background())
	require.True(t, r.FearGreed().IsPresent())

	fg.err = errors.New("timeout")
	r.RefreshFearGreed(context.Background())
	assert.False(t, r.FearGreed().IsPresent())

	r.RefreshSentiment(context.Background())
	assert.False(t, r.Sentiment().IsPresent(), "nil fetcher keeps the reading absent")
}

func TestRefresherStaleReadingIsAbsent(t *testing.T) {
	now := time.Unix(1700000000, 0)
	social := &stubSocial{value: signal.Sentiment{Score: -0.7}}
	r := NewRefresher(nil, social, RefresherConfig{MaxAge: time.Minute}, zerolog.Nop())
	r.now = func() time.Time { return now }

	r.RefreshSentiment(context.Background())
	require.True(t, r.Sentiment().IsPresent())

	now = now.Add(2 * time.Minute)
	assert.False(t, r.Sentiment().IsPresent())
}

func TestRefresherRunStopsOnCancel(t *testing.T) {
	fg := &stubFearGreed{value: signal.FearGreed{Value: 50}}
	r := NewRefresher(fg, nil, RefresherConfig{FearGreedInterval: 10 * time.Millisecond}, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := r.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, r.FearGreed().IsPresent())
}

func TestRefresherIgnoresFetchCanceledByShutdown(t *testing.T) {
	fg := &stubFearGreed{value: signal.FearGreed{Value: 30}}
	r := NewRefresher(fg, nil, RefresherConfig{}, zerolog.Nop())
	r.RefreshFearGreed(context.Background())
	require.True(t, r.FearGreed().IsPresent())

	before := testutil.ToFloat64(metrics.IndicatorFetchErrors.WithLabelValues("fear_greed"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fg.err = context.Canceled
	r.RefreshFearGreed(ctx)

	assert.Equal(t, before, testutil.ToFloat64(metrics.IndicatorFetchErrors.WithLabelValues("fear_greed")))
	assert.True(t, r.FearGreed().IsPresent(), "shutdown must not clear the last reading")

	fg.err = errors.New("boom")
	r.RefreshFearGreed(context.Background())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.IndicatorFetchErrors.WithLabelValues("fear_greed")))
}
