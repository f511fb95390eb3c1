package splash

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spyai-labs/etl-gcp-splash/internal/config"
	obslogger "github.com/spyai-labs/etl-gcp-splash/internal/observability/logger"
	"github.com/spyai-labs/etl-gcp-splash/internal/observability/metrics"
	"github.com/spyai-labs/etl-gcp-splash/internal/ratelimit"
	"github.com/spyai-labs/etl-gcp-splash/internal/syncwindow"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("invalid_config")

type FetcherParams struct {
	fx.In

	Config     config.Config
	Client     *resty.Client
	Tokens     TokenProvider
	Log        *zap.Logger
	ETLMetrics *metrics.ETLMetrics `optional:"true"`
	APIMetrics *metrics.Metrics    `optional:"true"`
}

// Fetcher walks a paginated listing and returns the in-window records.
type Fetcher struct {
	client    *resty.Client
	tokens    TokenProvider
	throttle  *ratelimit.Throttle
	log       *zap.Logger
	etl       *metrics.ETLMetrics
	api       *metrics.Metrics
	pageLimit int
	maxWaits  int
	sleep     func(context.Context, time.Duration) error
}

func NewFetcher(p FetcherParams) (*Fetcher, error) {
	if p.Client == nil || p.Tokens == nil {
		return nil, ErrInvalidConfig
	}
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	sc := p.Config.Splash
	pageLimit := sc.PageLimit
	if pageLimit <= 0 {
		pageLimit = 250
	}
	maxWaits := sc.MaxRateLimitWaits
	if maxWaits < 0 {
		maxWaits = 0
	}
	return &Fetcher{
		client:    p.Client,
		tokens:    p.Tokens,
		throttle:  ratelimit.NewThrottle(sc.RateLimit),
		log:       log.Named("splash.fetch").With(zap.String("component", "splash_fetcher")),
		etl:       p.ETLMetrics,
		api:       p.APIMetrics,
		pageLimit: pageLimit,
		maxWaits:  maxWaits,
		sleep:     ratelimit.Sleep,
	}, nil
}

// pageBody is the listing envelope. Pagination is kept raw so its presence can be tested.
type pageBody struct {
	Data       any             `json:"data"`
	Pagination json.RawMessage `json:"pagination"`
}

type pagination struct {
	Count json.Number `json:"count"`
	Limit json.Number `json:"limit"`
}

// Fetch pages through spec and returns the union of in-window records, deduplicated on id
// (the later sighting wins and keeps the first sighting's position). Request failures end
// paging and return what was collected so far; only an invalid spec, a token failure or a
// cancelled context produce an error.
func (f *Fetcher) Fetch(ctx context.Context, spec FetchSpec, w syncwindow.Window) ([]Record, error) {
	spec = spec.withDefaults(f.pageLimit)
	if err := spec.validate(); err != nil {
		return nil, err
	}

	log := obslogger.WithContext(ctx, f.log).With(zap.String("endpoint", spec.Endpoint))
	out := newDedup()

	page := spec.PageStart
	maxPage := 0
	waits := 0

	for {
		if err := f.throttle.Wait(ctx); err != nil {
			return out.records(), err
		}

		header, err := f.tokens.AuthorizationHeader(ctx)
		if err != nil {
			return nil, err
		}

		params := make(map[string]string, len(spec.Params)+2)
		for k, v := range spec.Params {
			params[k] = v
		}
		params["page"] = strconv.Itoa(page)
		params["limit"] = strconv.Itoa(spec.Limit)

		if maxPage > 0 {
			log.Info("splash.fetch.page", zap.Int("page", page), zap.Int("max_page", maxPage))
		} else {
			log.Info("splash.fetch.page", zap.Int("page", page))
		}

		resp, err := f.client.R().
			SetContext(ctx).
			SetHeader("Authorization", header).
			SetQueryParams(params).
			Get(spec.path())
		f.throttle.Mark()

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return out.records(), ctxErr
			}
			log.Error("splash.fetch.request_failed", zap.Int("page", page), zap.Error(err))
			break
		}
		f.api.RecordHTTPRequest(ctx, spec.Endpoint, resp.StatusCode(), resp.Time())

		if resp.StatusCode() == http.StatusTooManyRequests {
			if waits >= f.maxWaits {
				log.Error("splash.fetch.rate_limit_exhausted", zap.Int("page", page), zap.Int("waits", waits))
				break
			}
			waits++
			reset := rateLimitReset(resp.Header().Get("ratelimit-reset"))
			f.etl.IncRateLimitWait(spec.Endpoint)
			log.Warn("splash.fetch.rate_limited", zap.Int("page", page), zap.Duration("retry_after", reset))
			if err := f.sleep(ctx, reset); err != nil {
				return out.records(), err
			}
			continue
		}
		if resp.IsError() {
			log.Error("splash.fetch.request_failed",
				zap.Int("page", page),
				zap.Int("status", resp.StatusCode()),
			)
			break
		}

		body, err := decodePage(resp.Body())
		if err != nil {
			log.Error("splash.fetch.decode_failed", zap.Int("page", page), zap.Error(err))
			break
		}

		rawList, isList := body.Data.([]any)
		if body.Data != nil && !isList {
			log.Warn("splash.fetch.unexpected_data", zap.Int("page", page), zap.String("type", fmt.Sprintf("%T", body.Data)))
			break
		}
		if len(rawList) == 0 {
			log.Info("splash.fetch.empty_page", zap.Int("page", page))
			break
		}

		records := make([]Record, 0, len(rawList))
		for _, item := range rawList {
			if r, ok := item.(map[string]any); ok {
				records = append(records, r)
			}
		}
		if skipped := len(rawList) - len(records); skipped > 0 {
			log.Warn("splash.fetch.non_object_items", zap.Int("page", page), zap.Int("count", skipped))
		}

		decision, err := PageFilter(records, spec.DateFields, w)
		if err != nil {
			log.Error("splash.fetch.page_filter_invalid", zap.Int("page", page), zap.Error(err))
		}
		if decision == DecisionContinue {
			f.etl.IncFetchPage(spec.Endpoint, metrics.PageOutcomeSkipped)
			log.Info("splash.fetch.page_skipped", zap.Int("page", page))
			if f.lastPage(spec, page, maxPage) {
				break
			}
			page++
			continue
		}
		if decision == DecisionExit {
			f.etl.IncFetchPage(spec.Endpoint, metrics.PageOutcomeSkipped)
			log.Info("splash.fetch.out_of_range_stop", zap.Int("page", page))
			break
		}

		kept, dropped := FilterRecords(records, spec.DateFields, w)
		out.add(kept)
		f.etl.IncFetchPage(spec.Endpoint, metrics.PageOutcomeProcessed)
		f.etl.AddFetchRecords(spec.Endpoint, len(kept))
		log.Debug("splash.fetch.page_filtered",
			zap.Int("page", page),
			zap.Int("kept", len(kept)),
			zap.Int("dropped", dropped),
		)

		if len(body.Pagination) == 0 || string(body.Pagination) == "null" || len(rawList) < spec.Limit {
			log.Info("splash.fetch.last_page", zap.Int("page", page), zap.Int("records", out.len()))
			break
		}
		if maxPage == 0 {
			maxPage = maxPageFrom(body.Pagination, spec.Limit)
		}
		if f.lastPage(spec, page, maxPage) {
			log.Info("splash.fetch.page_stop", zap.Int("page", page), zap.Int("records", out.len()))
			break
		}
		page++
	}

	records := out.records()
	log.Info("splash.fetch.finish", zap.Int("records", len(records)), zap.Int("last_page", page))
	return records, nil
}

func (f *Fetcher) lastPage(spec FetchSpec, page, maxPage int) bool {
	if spec.PageStop > 0 && page >= spec.PageStop {
		return true
	}
	return maxPage > 0 && page >= maxPage
}

func decodePage(raw []byte) (pageBody, error) {
	var body pageBody
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return pageBody{}, err
	}
	return body, nil
}

// maxPageFrom returns ceil(count/limit), or 0 when count is unknown.
func maxPageFrom(raw json.RawMessage, requestLimit int) int {
	var p pagination
	if err := json.Unmarshal(raw, &p); err != nil {
		return 0
	}
	count, err := p.Count.Int64()
	if err != nil || count <= 0 {
		return 0
	}
	limit, err := p.Limit.Int64()
	if err != nil || limit <= 0 {
		limit = int64(requestLimit)
	}
	return int(math.Ceil(float64(count) / float64(limit)))
}

func rateLimitReset(raw string) time.Duration {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || seconds <= 0 {
		seconds = 1
	}
	return time.Duration(seconds * float64(time.Second))
}

type dedup struct {
	order []Record
	index map[string]int
}

func newDedup() *dedup {
	return &dedup{index: map[string]int{}}
}

func (d *dedup) add(records []Record) {
	for _, r := range records {
		key := IDKey(r["id"])
		if key == "" {
			d.order = append(d.order, r)
			continue
		}
		if i, ok := d.index[key]; ok {
			d.order[i] = r
			continue
		}
		d.index[key] = len(d.order)
		d.order = append(d.order, r)
	}
}

func (d *dedup) len() int { return len(d.order) }

func (d *dedup) records() []Record {
	out := make([]Record, len(d.order))
	copy(out, d.order)
	return out
}
