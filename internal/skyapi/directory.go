package skyapi

import (
	"context"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/skyscout/skyscout/internal/cache"
)

const (
	defaultCacheTTL   = 10 * time.Minute
	defaultCacheLimit = 256
)

// DirectoryOptions tune the autocomplete directory.
type DirectoryOptions struct {
	CacheTTL    time.Duration // zero uses the default, negative disables caching
	MinInterval time.Duration // minimum spacing between upstream calls
	Clock       clockwork.Clock
	Logger      *log.Logger
}

// Directory is the airport lookup the suggestion fields talk to. It caches
// answers per normalised query and spaces out upstream calls. Search never
// returns a nil slice, so callers can render the result even on failure.
type Directory struct {
	upstream AirportSearcher
	cache    *cache.Cache[[]Airport] // nil when caching is disabled
	limiter  *rate.Limiter           // nil when calls are not spaced
	clock    clockwork.Clock
	logger   *log.Logger
}

// NewDirectory wraps upstream with caching and rate limiting.
func NewDirectory(upstream AirportSearcher, opts DirectoryOptions) *Directory {
	clk := opts.Clock
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	d := &Directory{
		upstream: upstream,
		clock:    clk,
		logger:   logger,
	}

	ttl := opts.CacheTTL
	if ttl == 0 {
		ttl = defaultCacheTTL
	}
	if ttl > 0 {
		d.cache = cache.New(defaultCacheLimit, ttl, func(v []Airport) []Airport {
			return slices.Clone(v)
		})
	}
	if opts.MinInterval > 0 {
		d.limiter = rate.NewLimiter(rate.Every(opts.MinInterval), 1)
	}
	return d
}

// Search returns candidates for query. On failure it returns an empty,
// non-nil slice together with the error.
func (d *Directory) Search(ctx context.Context, query string) ([]Airport, error) {
	key := normalizeQuery(query)
	if key == "" {
		return []Airport{}, nil
	}
	if d.cache != nil {
		if cached, ok := d.cache.Get(key); ok {
			d.logger.Debug("airport lookup cache hit", "query", key, "results", len(cached))
			return cached, nil
		}
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return []Airport{}, err
		}
	}

	started := d.clock.Now()
	airports, err := d.upstream.SearchAirports(ctx, query)
	if err != nil {
		d.logger.Warn("airport lookup failed", "query", key, "err", err)
		return []Airport{}, err
	}
	if airports == nil {
		airports = []Airport{}
	}
	d.logger.Debug("airport lookup", "query", key, "results", len(airports), "took", d.clock.Since(started))
	if d.cache != nil {
		d.cache.Set(key, airports)
	}
	return airports, nil
}

func normalizeQuery(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}
