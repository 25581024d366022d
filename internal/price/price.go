package price

import (
	"context"
	"net/http"
	"price-alert-bot/internal/types"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	ErrNotFound = errors.New("asset not found")
	ErrNetwork  = errors.New("price feed unavailable")
	ErrTimeout  = errors.New("price lookup timed out")
)

// defaultAssets maps the ticker symbols offered by the bot to CoinPaprika coin ids
var defaultAssets = map[string]string{
	"btc": "btc-bitcoin",
	"eth": "eth-ethereum",
	"bnb": "bnb-binance-coin",
	"sol": "sol-solana",
}

// statusCodeRe matches the status the CoinPaprika client puts in non-200 errors
var statusCodeRe = regexp.MustCompile(`status code: (\d{3})`)

type tickerFunc func(coinID string, options *coinpaprika.TickersOptions) (*coinpaprika.Ticker, error)

type searchFunc func(options *coinpaprika.SearchOptions) (*coinpaprika.SearchResult, error)

// Config of the CoinPaprika price source
type Config struct {
	APIKey   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Source looks up USD quotes on CoinPaprika
type Source struct {
	tickers tickerFunc
	search  searchFunc
	cache   *quoteCache

	idMutex   sync.RWMutex
	idMapping map[string]string
}

// NewSource creates a price source backed by the CoinPaprika API
func NewSource(c Config) *Source {
	httpClient := &http.Client{Timeout: c.Timeout}

	var client *coinpaprika.Client
	if c.APIKey != "" {
		client = coinpaprika.NewClient(httpClient, coinpaprika.WithAPIKey(c.APIKey))
	} else {
		client = coinpaprika.NewClient(httpClient)
	}

	return newSource(
		func(coinID string, options *coinpaprika.TickersOptions) (*coinpaprika.Ticker, error) {
			return client.Tickers.GetByID(coinID, options)
		},
		func(options *coinpaprika.SearchOptions) (*coinpaprika.SearchResult, error) {
			return client.Search.Search(options)
		},
		c.CacheTTL,
	)
}

func newSource(tickers tickerFunc, search searchFunc, cacheTTL time.Duration) *Source {
	idMapping := make(map[string]string, len(defaultAssets))
	for symbol, id := range defaultAssets {
		idMapping[symbol] = id
	}

	return &Source{
		tickers:   tickers,
		search:    search,
		cache:     newQuoteCache(cacheTTL),
		idMapping: idMapping,
	}
}

// Symbols returns the default asset symbols in alphabetical order
func (s *Source) Symbols() []string {
	symbols := make([]string, 0, len(defaultAssets))
	for symbol := range defaultAssets {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

// Fetch returns the USD price and 24h change for an asset symbol or CoinPaprika id
func (s *Source) Fetch(ctx context.Context, asset string) (types.Quote, error) {
	coinID, err := s.resolve(ctx, asset)
	if err != nil {
		return types.Quote{}, err
	}

	if quote, found := s.cache.get(coinID); found {
		log.Debugf("returning cached quote for %s", coinID)
		return quote, nil
	}

	ticker, err := call(ctx, func() (*coinpaprika.Ticker, error) {
		return s.tickers(coinID, &coinpaprika.TickersOptions{Quotes: "USD"})
	})
	if err != nil {
		return types.Quote{}, errors.Wrapf(err, "ticker %s", coinID)
	}

	if ticker == nil || ticker.Quotes == nil {
		return types.Quote{}, errors.Wrapf(ErrNotFound, "no quotes for %s", coinID)
	}
	usd, exists := ticker.Quotes["USD"]
	if !exists || usd.Price == nil {
		return types.Quote{}, errors.Wrapf(ErrNotFound, "no USD price for %s", coinID)
	}

	quote := types.Quote{Price: *usd.Price}
	if usd.PercentChange24h != nil {
		quote.Change24h = *usd.PercentChange24h
	}

	s.cache.set(coinID, quote)
	return quote, nil
}

// resolve maps a symbol to a coin id using the known mapping, then the search API
func (s *Source) resolve(ctx context.Context, asset string) (string, error) {
	symbol := strings.ToLower(strings.TrimSpace(asset))
	if symbol == "" {
		return "", errors.Wrap(ErrNotFound, "empty asset")
	}
	if strings.Contains(symbol, "-") {
		return symbol, nil
	}

	s.idMutex.RLock()
	coinID, exists := s.idMapping[symbol]
	s.idMutex.RUnlock()
	if exists {
		return coinID, nil
	}

	result, err := call(ctx, func() (*coinpaprika.SearchResult, error) {
		return s.search(&coinpaprika.SearchOptions{
			Query:      symbol,
			Categories: "currencies",
			Modifier:   "symbol_search",
		})
	})
	if err != nil {
		return "", errors.Wrapf(err, "search %s", symbol)
	}
	if result == nil || len(result.Currencies) == 0 {
		return "", errors.Wrapf(ErrNotFound, "invalid coin ticker or symbol: %s", symbol)
	}

	best := result.Currencies[0]
	for _, coin := range result.Currencies {
		if coin.Symbol != nil && strings.EqualFold(*coin.Symbol, symbol) {
			best = coin
			break
		}
	}
	if best.ID == nil {
		return "", errors.Wrapf(ErrNotFound, "invalid coin ticker or symbol: %s", symbol)
	}

	log.Debugf("Best match for query '%s' is: %s", symbol, *best.ID)

	s.idMutex.Lock()
	s.idMapping[symbol] = *best.ID
	s.idMutex.Unlock()

	return *best.ID, nil
}

// call runs a blocking API request and classifies its failure
func call[T any](ctx context.Context, request func() (T, error)) (T, error) {
	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)

	go func() {
		value, err := request()
		done <- result{value: value, err: err}
	}()

	var zero T
	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, ErrTimeout
		}
		return zero, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return zero, classify(r.err)
		}
		return r.value, nil
	}
}

func classify(err error) error {
	message := strings.ToLower(err.Error())
	if matches := statusCodeRe.FindStringSubmatch(message); matches != nil {
		code, _ := strconv.Atoi(matches[1])
		if code >= 400 && code < 500 && code != http.StatusTooManyRequests {
			return errors.Wrap(ErrNotFound, err.Error())
		}
		return errors.Wrap(ErrNetwork, err.Error())
	}

	switch {
	case strings.Contains(message, "not found"):
		return errors.Wrap(ErrNotFound, err.Error())
	case strings.Contains(message, "timeout") || strings.Contains(message, "deadline exceeded"):
		return errors.Wrap(ErrTimeout, err.Error())
	default:
		return errors.Wrap(ErrNetwork, err.Error())
	}
}
