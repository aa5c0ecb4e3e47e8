package checker

import (
	"context"
	"regexp"
	"time"

	"github.com/das-tools/dascheck/clients"
	"github.com/das-tools/dascheck/common"
	"github.com/das-tools/dascheck/telemetry"
	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// diffWithResponse is the outcome of one paired attempt: the filtered diff
// (empty when the hosts agree or the attempt was skipped) and the testing
// host's response for the proof sub-check.
type diffWithResponse struct {
	diff            string
	testingResponse interface{}
}

// DiffChecker issues the same request to the reference and testing hosts,
// compares the responses, and aggregates pass/fail counts per method.
type DiffChecker struct {
	logger zerolog.Logger

	referenceHost string
	testingHost   string

	api         *clients.HttpJsonRpcClient
	chain       clients.ChainReader
	keysFetcher KeysFetcher

	filters     []*regexp.Regexp
	retryPolicy retrypolicy.RetryPolicy[*diffWithResponse]

	requestInterval time.Duration
	logDifferences  bool

	testResults *TestingResults
}

func New(
	logger *zerolog.Logger,
	cfg *common.Config,
	api *clients.HttpJsonRpcClient,
	chain clients.ChainReader,
	keysFetcher KeysFetcher,
) (*DiffChecker, error) {
	filters := make([]*regexp.Regexp, 0, len(cfg.DifferenceFilters))
	for _, expr := range cfg.DifferenceFilters {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, common.NewErrInvalidFilterExpression(expr, err)
		}
		filters = append(filters, re)
	}

	interval := cfg.RequestIntervalDuration()

	// Retrying is driven by the comparison outcome: a remaining diff is
	// retried after the pacing delay, anything else ends the attempt loop.
	retryPolicy := retrypolicy.Builder[*diffWithResponse]().
		HandleIf(func(res *diffWithResponse, err error) bool {
			return err == nil && res != nil && res.diff != ""
		}).
		WithMaxAttempts(cfg.TestRetries).
		WithDelay(interval).
		ReturnLastFailure().
		Build()

	return &DiffChecker{
		logger:          logger.With().Str("component", "checker").Logger(),
		referenceHost:   cfg.ReferenceHost,
		testingHost:     cfg.TestingHost,
		api:             api,
		chain:           chain,
		keysFetcher:     keysFetcher,
		filters:         filters,
		retryPolicy:     retryPolicy,
		requestInterval: interval,
		logDifferences:  cfg.LogDifferences,
		testResults:     NewTestingResults(),
	}, nil
}

func (c *DiffChecker) Results() *TestingResults {
	return c.testResults
}

// checkRequest performs one paired attempt: the same body goes to both hosts
// concurrently and the responses are compared after both return. A transport
// failure on either side skips the attempt entirely: no diff, no recorded
// failure. That under-reports outages but is the behavior the run's
// consumers expect.
func (c *DiffChecker) checkRequest(ctx context.Context, body []byte) *diffWithResponse {
	var (
		referenceResponse, testingResponse interface{}
		referenceErr, testingErr           error
	)

	var g errgroup.Group
	g.Go(func() error {
		referenceResponse, referenceErr = c.api.SendRequest(ctx, c.referenceHost, body)
		return nil
	})
	g.Go(func() error {
		testingResponse, testingErr = c.api.SendRequest(ctx, c.testingHost, body)
		return nil
	})
	_ = g.Wait()

	if referenceErr != nil {
		c.logger.Error().Err(referenceErr).Msg("reference host network error")
		return &diffWithResponse{}
	}
	if testingErr != nil {
		c.logger.Error().Err(testingErr).Msg("testing host network error")
		return &diffWithResponse{}
	}

	return &diffWithResponse{
		diff:            ApplyFilters(Diff(referenceResponse, testingResponse), c.filters),
		testingResponse: testingResponse,
	}
}

// checkRequests runs a category's batch strictly sequentially, with a fixed
// pause after every request, to stay below the hosts' rate limits.
// Cancellation is honored between requests only; an in-flight call is left
// to finish on its own.
func (c *DiffChecker) checkRequests(ctx context.Context, requests []*common.Body) {
	for _, req := range requests {
		if ctx.Err() != nil {
			return
		}

		c.testResults.IncTotalTests(req.Method)
		telemetry.MetricChecksTotal.WithLabelValues(req.Method).Inc()

		body, err := req.Marshal()
		if err != nil {
			c.logger.Error().Err(err).Str("method", req.Method).Msg("cannot serialize request body")
			continue
		}

		res, _ := failsafe.NewExecutor[*diffWithResponse](c.retryPolicy).
			WithContext(ctx).
			Get(func() (*diffWithResponse, error) {
				return c.checkRequest(ctx, body), nil
			})
		if res == nil {
			res = &diffWithResponse{}
		}

		testFailed := false
		if res.diff != "" {
			testFailed = true
			if c.logDifferences {
				c.logger.Error().
					Str("method", req.Method).
					Object("req", req).
					Str("diff", res.diff).
					Msg("mismatched responses")
			}
		}

		// A skipped attempt carries no testing response; there is nothing
		// for the proof check to validate.
		if req.Method == common.MethodGetAssetProof && res.testingResponse != nil {
			if c.runProofCheck(ctx, req, res.testingResponse) {
				testFailed = true
			}
		}

		if testFailed {
			c.testResults.IncFailedTests(req.Method)
			telemetry.MetricCheckFailuresTotal.WithLabelValues(req.Method).Inc()
		}

		c.pause(ctx)
	}
}

// runProofCheck validates the testing host's proof payload and reports
// whether it forces a failure. It can only add a failure, never clear one
// decided by the comparison.
func (c *DiffChecker) runProofCheck(ctx context.Context, req *common.Body, testingResponse interface{}) bool {
	params, ok := req.Params.(common.GetAssetProofParams)
	if !ok {
		return false
	}

	valid, err := c.checkProofValid(ctx, params.ID, testingResponse)
	if err != nil {
		c.logger.Error().Err(err).Str("assetId", params.ID).Msg("proof check failed")
		telemetry.MetricProofValidationsTotal.WithLabelValues("error").Inc()
		return true
	}
	if !valid {
		c.logger.Error().Str("assetId", params.ID).Msg("invalid proof for asset")
		telemetry.MetricProofValidationsTotal.WithLabelValues("invalid").Inc()
		return true
	}
	telemetry.MetricProofValidationsTotal.WithLabelValues("valid").Inc()
	return false
}

func (c *DiffChecker) pause(ctx context.Context) {
	timer := time.NewTimer(c.requestInterval)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

//
// Per-category operations
//

func (c *DiffChecker) CheckGetAsset(ctx context.Context) error {
	keys, err := c.keysFetcher.AssetKeys()
	if err != nil {
		return common.NewErrFetchKeys(err, common.MethodGetAsset)
	}

	requests := make([]*common.Body, 0, len(keys))
	for _, key := range keys {
		requests = append(requests, common.NewBody(common.MethodGetAsset, common.GetAssetParams{ID: key}))
	}

	c.checkRequests(ctx, requests)
	return nil
}

func (c *DiffChecker) CheckGetAssetProof(ctx context.Context) error {
	keys, err := c.keysFetcher.AssetProofKeys()
	if err != nil {
		return common.NewErrFetchKeys(err, common.MethodGetAssetProof)
	}

	requests := make([]*common.Body, 0, len(keys))
	for _, key := range keys {
		requests = append(requests, common.NewBody(common.MethodGetAssetProof, common.GetAssetProofParams{ID: key}))
	}

	c.checkRequests(ctx, requests)
	return nil
}

func (c *DiffChecker) CheckGetAssetsByOwner(ctx context.Context) error {
	keys, err := c.keysFetcher.OwnerKeys()
	if err != nil {
		return common.NewErrFetchKeys(err, common.MethodGetAssetsByOwner)
	}

	requests := make([]*common.Body, 0, len(keys))
	for _, key := range keys {
		requests = append(requests, common.NewBody(common.MethodGetAssetsByOwner, common.GetAssetsByOwnerParams{OwnerAddress: key}))
	}

	c.checkRequests(ctx, requests)
	return nil
}

func (c *DiffChecker) CheckGetAssetsByAuthority(ctx context.Context) error {
	keys, err := c.keysFetcher.AuthorityKeys()
	if err != nil {
		return common.NewErrFetchKeys(err, common.MethodGetAssetsByAuthority)
	}

	requests := make([]*common.Body, 0, len(keys))
	for _, key := range keys {
		requests = append(requests, common.NewBody(common.MethodGetAssetsByAuthority, common.GetAssetsByAuthorityParams{AuthorityAddress: key}))
	}

	c.checkRequests(ctx, requests)
	return nil
}

func (c *DiffChecker) CheckGetAssetsByCreator(ctx context.Context) error {
	keys, err := c.keysFetcher.CreatorKeys()
	if err != nil {
		return common.NewErrFetchKeys(err, common.MethodGetAssetsByCreator)
	}

	requests := make([]*common.Body, 0, len(keys))
	for _, key := range keys {
		requests = append(requests, common.NewBody(common.MethodGetAssetsByCreator, common.GetAssetsByCreatorParams{CreatorAddress: key}))
	}

	c.checkRequests(ctx, requests)
	return nil
}

func (c *DiffChecker) CheckGetAssetsByGroup(ctx context.Context) error {
	keys, err := c.keysFetcher.GroupKeys()
	if err != nil {
		return common.NewErrFetchKeys(err, common.MethodGetAssetsByGroup)
	}

	requests := make([]*common.Body, 0, len(keys))
	for _, key := range keys {
		requests = append(requests, common.NewBody(common.MethodGetAssetsByGroup, common.GetAssetsByGroupParams{
			GroupKey:   "collection",
			GroupValue: key,
		}))
	}

	c.checkRequests(ctx, requests)
	return nil
}

func (c *DiffChecker) CheckGetTokenAccountsByOwner(ctx context.Context) error {
	keys, err := c.keysFetcher.TokenOwnerKeys()
	if err != nil {
		return common.NewErrFetchKeys(err, common.MethodGetTokenAccountsByOwner)
	}

	requests := make([]*common.Body, 0, len(keys))
	for _, key := range keys {
		owner := key
		requests = append(requests, common.NewBody(common.MethodGetTokenAccountsByOwner, common.GetTokenAccountsParams{Owner: &owner}))
	}

	c.checkRequests(ctx, requests)
	return nil
}

func (c *DiffChecker) CheckGetTokenAccountsByMint(ctx context.Context) error {
	keys, err := c.keysFetcher.TokenMintKeys()
	if err != nil {
		return common.NewErrFetchKeys(err, common.MethodGetTokenAccountsByMint)
	}

	requests := make([]*common.Body, 0, len(keys))
	for _, key := range keys {
		mint := key
		requests = append(requests, common.NewBody(common.MethodGetTokenAccountsByMint, common.GetTokenAccountsParams{Mint: &mint}))
	}

	c.checkRequests(ctx, requests)
	return nil
}

func (c *DiffChecker) CheckGetTokenAccountsByOwnerAndMint(ctx context.Context) error {
	pairs, err := c.keysFetcher.TokenOwnerMintKeys()
	if err != nil {
		return common.NewErrFetchKeys(err, common.MethodGetTokenAccountsByOwnerMint)
	}

	requests := make([]*common.Body, 0, len(pairs))
	for _, pair := range pairs {
		owner, mint := pair.Owner, pair.Mint
		requests = append(requests, common.NewBody(common.MethodGetTokenAccountsByOwnerMint, common.GetTokenAccountsParams{
			Owner: &owner,
			Mint:  &mint,
		}))
	}

	c.checkRequests(ctx, requests)
	return nil
}

func (c *DiffChecker) CheckGetSignaturesForAsset(ctx context.Context) error {
	keys, err := c.keysFetcher.SignatureAssetKeys()
	if err != nil {
		return common.NewErrFetchKeys(err, common.MethodGetSignaturesForAsset)
	}

	requests := make([]*common.Body, 0, len(keys))
	for _, key := range keys {
		requests = append(requests, common.NewBody(common.MethodGetSignaturesForAsset, common.GetSignaturesForAssetParams{ID: key}))
	}

	c.checkRequests(ctx, requests)
	return nil
}
