package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/das-tools/dascheck/checker"
	"github.com/das-tools/dascheck/clients"
	"github.com/das-tools/dascheck/common"
	"github.com/das-tools/dascheck/keys"
	"github.com/das-tools/dascheck/loadgen"
	"github.com/das-tools/dascheck/telemetry"
	"github.com/das-tools/dascheck/util"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
)

const (
	testTypeIntegrity = "integrity"
	testTypeLoad      = "load"
)

func main() {
	cmd := &cli.Command{
		Name:  "dascheck",
		Usage: "differential correctness checks for DAS API deployments",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "./dascheck.yaml",
				Usage:   "path to the yaml configuration file",
			},
			&cli.StringFlag{
				Name:    "test-type",
				Aliases: []string{"t"},
				Value:   testTypeIntegrity,
				Usage:   "integrity | load",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(ctx, afero.NewOsFs(), cmd.String("config"), cmd.String("test-type"))
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Error().Msgf("dascheck failed: %v", err)
		util.OsExit(util.ExitCodeStartFailed)
	}
}

func run(ctx context.Context, fs afero.Fs, configPath, testType string) error {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	cfg, err := common.LoadConfig(fs, configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		log.Warn().Msgf("invalid log level '%s', defaulting to 'info': %s", cfg.LogLevel, err)
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(level)
	}

	logger := log.Logger
	logger.Info().Str("testType", testType).Msg("DAS API tests start")

	keysFetcher, err := keys.NewFileKeysFetcher(fs, cfg.KeysFile)
	if err != nil {
		return fmt.Errorf("failed to load keys file: %w", err)
	}

	// Cancellation is cooperative: category tasks notice it between
	// requests, in-flight calls are left to finish.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch testType {
	case testTypeIntegrity:
		return runIntegrity(ctx, &logger, cfg, keysFetcher)
	case testTypeLoad:
		loadgen.Run(ctx, &logger, cfg, keysFetcher)
		return nil
	default:
		return fmt.Errorf("unknown test type '%s'", testType)
	}
}

func runIntegrity(ctx context.Context, logger *zerolog.Logger, cfg *common.Config, keysFetcher checker.KeysFetcher) error {
	api := clients.NewHttpJsonRpcClient(logger)
	chain := clients.NewRpcChainReader(logger, cfg.RpcEndpoint, api)

	diffChecker, err := checker.New(logger, cfg, api, chain, keysFetcher)
	if err != nil {
		return err
	}

	categories := []struct {
		method string
		check  func(context.Context) error
	}{
		{common.MethodGetAsset, diffChecker.CheckGetAsset},
		{common.MethodGetAssetProof, diffChecker.CheckGetAssetProof},
		{common.MethodGetAssetsByOwner, diffChecker.CheckGetAssetsByOwner},
		{common.MethodGetAssetsByAuthority, diffChecker.CheckGetAssetsByAuthority},
		{common.MethodGetAssetsByCreator, diffChecker.CheckGetAssetsByCreator},
		{common.MethodGetAssetsByGroup, diffChecker.CheckGetAssetsByGroup},
		{common.MethodGetTokenAccountsByOwner, diffChecker.CheckGetTokenAccountsByOwner},
		{common.MethodGetTokenAccountsByMint, diffChecker.CheckGetTokenAccountsByMint},
		{common.MethodGetTokenAccountsByOwnerMint, diffChecker.CheckGetTokenAccountsByOwnerAndMint},
		{common.MethodGetSignaturesForAsset, diffChecker.CheckGetSignaturesForAsset},
	}

	var wg sync.WaitGroup
	for _, category := range categories {
		wg.Add(1)
		go func(method string, check func(context.Context) error) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					telemetry.MetricUnexpectedPanicTotal.WithLabelValues(method).Inc()
					logger.Error().Interface("panic", rec).Str("method", method).Msg("category task panicked")
				}
			}()
			logger.Info().Str("method", method).Msg("tests start")
			if err := check(ctx); err != nil {
				logger.Error().Err(err).Str("method", method).Msg("category aborted")
			}
		}(category.method, category.check)
	}
	wg.Wait()

	diffChecker.Results().ShowResults(logger)
	return nil
}
