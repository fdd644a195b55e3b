package main

import (
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/manningwu07/pcadata/IO"
	"github.com/manningwu07/pcadata/analysis"
	"github.com/manningwu07/pcadata/generator"
	"github.com/manningwu07/pcadata/logging"
	"github.com/manningwu07/pcadata/params"
	"github.com/manningwu07/pcadata/utils"
)

var (
	rootCmd = &cobra.Command{
		Use:           "makepcadata",
		Short:         "makepcadata generates noisy points near a linear subspace for PCA exercises",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Generate points near the span of a basis",
		Args:  cobra.NoArgs,
		RunE:  generateFn,
	}

	analyzeCmd = &cobra.Command{
		Use:   "analyze <file>",
		Short: "Center a point matrix and report its principal components",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeFn,
	}

	configPath string
	flagCfg    = params.DefaultConfig
	logLevel   string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", params.DefaultConfig.LogLevel, "debug, info, warn or error")
	rootCmd.AddCommand(generateCmd, analyzeCmd)

	f := generateCmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "YAML config file; flags override its values")
	f.StringVarP(&flagCfg.Basis, "basis", "b", "", "basis matrix file (.csv/.bin[.zst]), one row per line")
	f.IntVar(&flagCfg.Dims, "dims", flagCfg.Dims, "ambient dimension N when no basis file is given")
	f.IntVar(&flagCfg.Rank, "rank", flagCfg.Rank, "subspace dimension K when no basis file is given")
	f.IntVarP(&flagCfg.NumPoints, "numpts", "n", flagCfg.NumPoints, "number of points to generate")
	f.Float64VarP(&flagCfg.Sigma, "sigma", "s", flagCfg.Sigma, "noise standard deviation")
	f.Uint64Var(&flagCfg.Seed, "seed", flagCfg.Seed, "random seed (0 seeds from the clock)")
	f.StringVarP(&flagCfg.Output, "out", "o", flagCfg.Output, "output file (.csv/.bin[.zst])")
	f.BoolVar(&flagCfg.Report, "report", flagCfg.Report, "log PCA of the generated points")

	analyzeCmd.Flags().IntVarP(&flagCfg.Rank, "rank", "k", flagCfg.Rank, "number of components to report")
}

// resolveConfig starts from the config file (if any) and applies the flags
// the user actually set.
func resolveConfig(cmd *cobra.Command) (params.GeneratorConfig, error) {
	cfg := params.DefaultConfig
	if configPath != "" {
		var err error
		if cfg, err = params.LoadConfig(configPath); err != nil {
			return cfg, err
		}
	}
	f := cmd.Flags()
	if f.Changed("basis") {
		cfg.Basis = flagCfg.Basis
	}
	if f.Changed("dims") {
		cfg.Dims = flagCfg.Dims
	}
	if f.Changed("rank") {
		cfg.Rank = flagCfg.Rank
	}
	if f.Changed("numpts") {
		cfg.NumPoints = flagCfg.NumPoints
	}
	if f.Changed("sigma") {
		cfg.Sigma = flagCfg.Sigma
	}
	if f.Changed("seed") {
		cfg.Seed = flagCfg.Seed
	}
	if f.Changed("out") {
		cfg.Output = flagCfg.Output
	}
	if f.Changed("report") {
		cfg.Report = flagCfg.Report
	}
	if f.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	return cfg, cfg.Validate()
}

func generateFn(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := logging.New("makepcadata", cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UTC().UnixNano())
	}
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)

	basis, err := loadBasis(cfg, src)
	if err != nil {
		logger.Error("basis unavailable", zap.Error(err))
		return err
	}
	n, k := basis.Dims()
	logger.Debug("basis ready", zap.Int("dims", n), zap.Int("rank", k), zap.String("source", cfg.Basis))

	t1 := time.Now()
	x, err := generator.New(src).Generate(basis, cfg.NumPoints, cfg.Sigma)
	if err != nil {
		logger.Error("generate failed", zap.Error(err))
		return err
	}
	if err := IO.SaveMatrix(cfg.Output, x); err != nil {
		logger.Error("write failed", zap.String("path", cfg.Output), zap.Error(err))
		return err
	}
	logger.Info("generated points",
		zap.Int("dims", n),
		zap.Int("rank", k),
		zap.Int("numpts", cfg.NumPoints),
		zap.Float64("sigma", cfg.Sigma),
		zap.Uint64("seed", seed),
		zap.String("output", cfg.Output),
		zap.Duration("elapsed", time.Since(t1)),
	)

	if cfg.Report {
		report(logger, x, basis)
	}
	return nil
}

func loadBasis(cfg params.GeneratorConfig, src rand.Source) (*mat.Dense, error) {
	if cfg.Basis == "" {
		return utils.OrthonormalBasis(src, cfg.Dims, cfg.Rank)
	}
	return IO.LoadMatrix(cfg.Basis)
}

// report logs PCA of the saved points. The output already exists at this
// point, so problems here are warnings rather than command failures.
func report(logger *zap.Logger, x, basis *mat.Dense) {
	n, k := basis.Dims()
	if k > n {
		k = n
	}
	centered, mean := analysis.Center(x)
	res, err := analysis.PrincipalComponents(centered, k)
	if err != nil {
		logger.Warn("pca report skipped", zap.Error(err))
		return
	}
	fields := []zap.Field{
		zap.Float64s("mean", mean),
		zap.Float64s("variances", res.Variances),
		zap.Float64("explained", res.Explained(k)),
	}
	dist, err := analysis.SubspaceDistance(basis, res.Directions)
	if err != nil {
		// wide or rank-deficient bases have no well-defined distance
		logger.Warn("subspace distance skipped", zap.Error(err))
	} else {
		fields = append(fields, zap.Float64("subspace_distance", dist))
	}
	logger.Info("pca report", fields...)
}

func analyzeFn(cmd *cobra.Command, args []string) error {
	logger, err := logging.New("makepcadata", logLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	x, err := IO.LoadMatrix(args[0])
	if err != nil {
		return err
	}
	centered, mean := analysis.Center(x)
	res, err := analysis.PrincipalComponents(centered, flagCfg.Rank)
	if err != nil {
		return err
	}
	n, m := x.Dims()
	logger.Info("pca",
		zap.String("path", args[0]),
		zap.Int("dims", n),
		zap.Int("numpts", m),
		zap.Int("rank", flagCfg.Rank),
		zap.Float64s("mean", mean),
		zap.Float64s("variances", res.Variances),
		zap.Float64("explained", res.Explained(flagCfg.Rank)),
	)
	cmd.Println(mat.Formatted(res.Directions, mat.Prefix(""), mat.Squeeze()))
	return nil
}
