// Package loadgen drives load against the testing host: a pool of workers,
// released and stopped together over shared signal channels, each firing
// random requests sampled from the key file and recording latency.
package loadgen

import (
	"context"
	"sync"
	"time"

	"github.com/das-tools/dascheck/clients"
	"github.com/das-tools/dascheck/common"
	"github.com/das-tools/dascheck/keys"
	"github.com/das-tools/dascheck/telemetry"
	"github.com/rs/zerolog"
)

// KeySampler supplies random (method, key) draws.
type KeySampler interface {
	RandomCommand() (method string, key string, ok bool)
}

type stats struct {
	requestsSent  uint64
	errors        uint64
	responseTimes []time.Duration
}

type worker struct {
	id      int
	logger  zerolog.Logger
	start   <-chan struct{}
	quit    <-chan struct{}
	api     *clients.HttpJsonRpcClient
	host    string
	sampler KeySampler

	stats stats
}

func (w *worker) run(ctx context.Context) {
	// Wait for the release signal before producing any traffic. Both
	// signal channels are closed, never sent to, so no worker can miss
	// them regardless of what it is doing at the time.
	select {
	case <-w.start:
	case <-w.quit:
		return
	case <-ctx.Done():
		return
	}

	w.logger.Debug().Int("worker", w.id).Msg("worker started")

	for {
		select {
		case <-w.quit:
			return
		case <-ctx.Done():
			return
		default:
		}

		w.fire(ctx)
	}
}

func (w *worker) fire(ctx context.Context) {
	method, key, ok := w.sampler.RandomCommand()
	if !ok {
		w.logger.Warn().Msg("key file holds no keys, worker idle")
		select {
		case <-ctx.Done():
		case <-w.quit:
		case <-time.After(time.Second):
		}
		return
	}

	body, err := common.NewBody(method, paramsFor(method, key)).Marshal()
	if err != nil {
		w.stats.errors++
		return
	}

	started := time.Now()
	_, err = w.api.SendRequest(ctx, w.host, body)
	w.stats.requestsSent++
	w.stats.responseTimes = append(w.stats.responseTimes, time.Since(started))
	if err != nil {
		w.stats.errors++
		telemetry.MetricLoadRequestsTotal.WithLabelValues("error").Inc()
		return
	}
	telemetry.MetricLoadRequestsTotal.WithLabelValues("ok").Inc()
}

// paramsFor builds the request parameters for a sampled key, mirroring the
// shapes the comparison engine sends.
func paramsFor(method, key string) interface{} {
	switch method {
	case common.MethodGetAsset:
		return common.GetAssetParams{ID: key}
	case common.MethodGetAssetProof:
		return common.GetAssetProofParams{ID: key}
	case common.MethodGetAssetsByOwner:
		return common.GetAssetsByOwnerParams{OwnerAddress: key}
	case common.MethodGetAssetsByAuthority:
		return common.GetAssetsByAuthorityParams{AuthorityAddress: key}
	case common.MethodGetAssetsByCreator:
		return common.GetAssetsByCreatorParams{CreatorAddress: key}
	case common.MethodGetAssetsByGroup:
		return common.GetAssetsByGroupParams{GroupKey: "collection", GroupValue: key}
	case common.MethodGetTokenAccountsByOwner:
		return common.GetTokenAccountsParams{Owner: &key}
	case common.MethodGetTokenAccountsByMint:
		return common.GetTokenAccountsParams{Mint: &key}
	case common.MethodGetTokenAccountsByOwnerMint:
		// Keys of this category are raw "(owner;mint)" tokens.
		if pair, ok := keys.ParsePair(key); ok {
			return common.GetTokenAccountsParams{Owner: &pair.Owner, Mint: &pair.Mint}
		}
		return common.GetTokenAccountsParams{}
	case common.MethodGetSignaturesForAsset:
		return common.GetSignaturesForAssetParams{ID: key}
	default:
		return common.GetAssetParams{ID: key}
	}
}

// Run spawns the worker pool, lets it produce load for the configured
// duration (or until cancellation), then stops it and logs aggregate stats.
func Run(ctx context.Context, logger *zerolog.Logger, cfg *common.Config, sampler KeySampler) {
	lg := logger.With().Str("component", "loadgen").Logger()
	api := clients.NewHttpJsonRpcClient(&lg)

	start := make(chan struct{})
	quit := make(chan struct{})

	workers := make([]*worker, cfg.LoadUsers)
	var wg sync.WaitGroup
	for i := range workers {
		workers[i] = &worker{
			id:      i,
			logger:  lg,
			start:   start,
			quit:    quit,
			api:     api,
			host:    cfg.TestingHost,
			sampler: sampler,
		}
		wg.Add(1)
		go func(w *worker) {
			defer wg.Done()
			w.run(ctx)
		}(workers[i])
	}

	lg.Info().Int("users", cfg.LoadUsers).Str("duration", cfg.LoadDuration).Msg("load test start")
	close(start)

	select {
	case <-time.After(cfg.LoadDurationDuration()):
	case <-ctx.Done():
	}

	close(quit)
	wg.Wait()

	var sent, errs uint64
	var total time.Duration
	var max time.Duration
	samples := 0
	for _, w := range workers {
		sent += w.stats.requestsSent
		errs += w.stats.errors
		for _, d := range w.stats.responseTimes {
			total += d
			samples++
			if d > max {
				max = d
			}
		}
	}

	event := lg.Info().
		Uint64("requests", sent).
		Uint64("errors", errs)
	if samples > 0 {
		event = event.
			Dur("avgLatency", total/time.Duration(samples)).
			Dur("maxLatency", max)
	}
	event.Msg("load test results")
}
