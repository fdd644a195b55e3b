package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/manningwu07/pcadata/IO"
	"github.com/manningwu07/pcadata/params"
)

// resetFlags restores package-level flag state between command runs.
func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		configPath = ""
		flagCfg = params.DefaultConfig
		logLevel = params.DefaultConfig.LogLevel
		for _, c := range []*cobra.Command{rootCmd, generateCmd, analyzeCmd} {
			reset := func(f *pflag.Flag) {
				_ = f.Value.Set(f.DefValue)
				f.Changed = false
			}
			c.Flags().VisitAll(reset)
			c.PersistentFlags().VisitAll(reset)
		}
	})
}

func TestGenerateWithBasisFile(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	basisPath := filepath.Join(dir, "basis.csv")
	require.NoError(t, os.WriteFile(basisPath, []byte("1,0\n0,1\n0,0\n"), 0o644))
	out := filepath.Join(dir, "points.bin.zst")

	rootCmd.SetArgs([]string{"generate", "--basis", basisPath, "-n", "5", "--sigma", "0", "--seed", "9", "-o", out, "--log-level", "error"})
	require.NoError(t, rootCmd.Execute())

	x, err := IO.LoadMatrix(out)
	require.NoError(t, err)
	r, c := x.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 5, c)
	for j := 0; j < c; j++ {
		assert.Equal(t, 0.0, x.At(2, j))
	}
}

func TestGenerateFromConfigIsReproducible(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "lab.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("dims: 5\nrank: 2\nnumpts: 40\nsigma: 0.05\nseed: 369\nreport: true\nlog_level: error\n"), 0o644))

	run := func(out string) *mat.Dense {
		rootCmd.SetArgs([]string{"generate", "--config", cfgPath, "--out", out})
		require.NoError(t, rootCmd.Execute())
		x, err := IO.LoadMatrix(out)
		require.NoError(t, err)
		return x
	}
	a := run(filepath.Join(dir, "a.csv"))
	b := run(filepath.Join(dir, "b.csv"))
	assert.True(t, mat.Equal(a, b))

	r, c := a.Dims()
	assert.Equal(t, 5, r)
	assert.Equal(t, 40, c)
}

func TestGenerateRejectsNegativeSigma(t *testing.T) {
	resetFlags(t)
	out := filepath.Join(t.TempDir(), "p.csv")
	rootCmd.SetArgs([]string{"generate", "--sigma=-1", "-o", out})
	assert.Error(t, rootCmd.Execute())
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestAnalyze(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "p.csv")
	rootCmd.SetArgs([]string{"generate", "--seed", "4", "-n", "30", "-o", out, "--log-level", "error"})
	require.NoError(t, rootCmd.Execute())

	rootCmd.SetArgs([]string{"analyze", out, "--rank", "2", "--log-level", "error"})
	assert.NoError(t, rootCmd.Execute())

	rootCmd.SetArgs([]string{"analyze", filepath.Join(dir, "missing.csv"), "--log-level", "error"})
	assert.Error(t, rootCmd.Execute())
}

func TestReportDoesNotFailSavedOutput(t *testing.T) {
	dir := t.TempDir()
	wide := filepath.Join(dir, "wide.csv")
	require.NoError(t, os.WriteFile(wide, []byte("1,0,1\n0,1,1\n"), 0o644))

	cases := map[string][]string{
		"single point": {"-n", "1"},
		"wide basis":   {"--basis", wide, "-n", "10"},
	}
	for name, extra := range cases {
		t.Run(name, func(t *testing.T) {
			resetFlags(t)
			out := filepath.Join(dir, name+".csv")
			args := append([]string{"generate", "--seed", "3", "--report", "-o", out, "--log-level", "error"}, extra...)
			rootCmd.SetArgs(args)
			require.NoError(t, rootCmd.Execute())
			_, err := os.Stat(out)
			assert.NoError(t, err)
		})
	}
}

func TestAnalyzeErrorNamesPathOnce(t *testing.T) {
	resetFlags(t)
	bad := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("1,2\n3\n"), 0o644))

	rootCmd.SetArgs([]string{"analyze", bad, "--log-level", "error"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Equal(t, 1, strings.Count(err.Error(), bad), "%v", err)
}
