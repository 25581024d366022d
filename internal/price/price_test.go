package price

import (
	"context"
	"testing"
	"time"

	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float64Ptr(v float64) *float64 { return &v }

func stringPtr(v string) *string { return &v }

func usdTicker(price, change float64) *coinpaprika.Ticker {
	return &coinpaprika.Ticker{
		Quotes: map[string]coinpaprika.Quote{
			"USD": {
				Price:            float64Ptr(price),
				PercentChange24h: float64Ptr(change),
			},
		},
	}
}

type fakeAPI struct {
	tickers      map[string]*coinpaprika.Ticker
	tickerErr    error
	tickerCalls  map[string]int
	searchResult *coinpaprika.SearchResult
	searchCalls  int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		tickers:     make(map[string]*coinpaprika.Ticker),
		tickerCalls: make(map[string]int),
	}
}

func (f *fakeAPI) source(ttl time.Duration) *Source {
	return newSource(
		func(coinID string, _ *coinpaprika.TickersOptions) (*coinpaprika.Ticker, error) {
			f.tickerCalls[coinID]++
			if f.tickerErr != nil {
				return nil, f.tickerErr
			}
			ticker, exists := f.tickers[coinID]
			if !exists {
				return nil, errors.New("id not found")
			}
			return ticker, nil
		},
		func(_ *coinpaprika.SearchOptions) (*coinpaprika.SearchResult, error) {
			f.searchCalls++
			if f.searchResult == nil {
				return &coinpaprika.SearchResult{}, nil
			}
			return f.searchResult, nil
		},
		ttl,
	)
}

func TestFetchKnownSymbol(t *testing.T) {
	api := newFakeAPI()
	api.tickers["btc-bitcoin"] = usdTicker(48000, -1.5)

	quote, err := api.source(0).Fetch(context.Background(), "BTC")

	require.NoError(t, err)
	assert.Equal(t, 48000.0, quote.Price)
	assert.Equal(t, -1.5, quote.Change24h)
	assert.Zero(t, api.searchCalls)
}

func TestFetchFullCoinID(t *testing.T) {
	api := newFakeAPI()
	api.tickers["doge-dogecoin"] = usdTicker(0.12, 3)

	quote, err := api.source(0).Fetch(context.Background(), "doge-dogecoin")

	require.NoError(t, err)
	assert.Equal(t, 0.12, quote.Price)
}

func TestFetchResolvesUnknownSymbolWithSearch(t *testing.T) {
	api := newFakeAPI()
	api.tickers["doge-dogecoin"] = usdTicker(0.12, 3)
	api.searchResult = &coinpaprika.SearchResult{
		Currencies: []*coinpaprika.Coin{
			{ID: stringPtr("dogeai-dogeai"), Symbol: stringPtr("DOGEAI")},
			{ID: stringPtr("doge-dogecoin"), Symbol: stringPtr("DOGE")},
		},
	}
	source := api.source(0)

	quote, err := source.Fetch(context.Background(), "doge")
	require.NoError(t, err)
	assert.Equal(t, 0.12, quote.Price)

	_, err = source.Fetch(context.Background(), "doge")
	require.NoError(t, err)
	assert.Equal(t, 1, api.searchCalls, "resolved ids are remembered")
}

func TestFetchUnknownAsset(t *testing.T) {
	api := newFakeAPI()

	_, err := api.source(0).Fetch(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = api.source(0).Fetch(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = api.source(0).Fetch(context.Background(), "missing-coin")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchMissingUSDQuote(t *testing.T) {
	api := newFakeAPI()
	api.tickers["btc-bitcoin"] = &coinpaprika.Ticker{Quotes: map[string]coinpaprika.Quote{}}

	_, err := api.source(0).Fetch(context.Background(), "btc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchNetworkFailure(t *testing.T) {
	api := newFakeAPI()
	api.tickerErr = errors.New("dial tcp: connection refused")

	_, err := api.source(0).Fetch(context.Background(), "eth")
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestFetchClassifiesStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"bad request", errors.New(`status code: 400, body: {"error":"invalid coin id"}`), ErrNotFound},
		{"not found", errors.New(`status code: 404, body: {"error":"id not found"}`), ErrNotFound},
		{"rate limited", errors.New(`status code: 429, body: {"error":"too many requests"}`), ErrNetwork},
		{"server error", errors.New(`status code: 502, body: bad gateway`), ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			api.tickerErr = tt.err

			_, err := api.source(0).Fetch(context.Background(), "foo-bar")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	source := newSource(
		func(string, *coinpaprika.TickersOptions) (*coinpaprika.Ticker, error) {
			<-release
			return usdTicker(1, 0), nil
		},
		nil,
		0,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := source.Fetch(ctx, "sol")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestFetchUsesCache(t *testing.T) {
	api := newFakeAPI()
	api.tickers["eth-ethereum"] = usdTicker(3000, 1)
	source := api.source(time.Minute)

	now := time.Now()
	source.cache.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		quote, err := source.Fetch(context.Background(), "eth")
		require.NoError(t, err)
		assert.Equal(t, 3000.0, quote.Price)
	}
	assert.Equal(t, 1, api.tickerCalls["eth-ethereum"])

	now = now.Add(2 * time.Minute)
	api.tickers["eth-ethereum"] = usdTicker(3100, 1)

	quote, err := source.Fetch(context.Background(), "eth")
	require.NoError(t, err)
	assert.Equal(t, 3100.0, quote.Price)
	assert.Equal(t, 2, api.tickerCalls["eth-ethereum"])
}

func TestSymbols(t *testing.T) {
	assert.Equal(t, []string{"bnb", "btc", "eth", "sol"}, newFakeAPI().source(0).Symbols())
}
