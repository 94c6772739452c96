// Package cli implements the crisprs command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/coronin/Crisprs"
	"github.com/coronin/Crisprs/config"
)

// Version is the reported program version.
var Version = "0.1.0"

// Streams are the standard streams of one invocation.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// UsageError reports missing or contradictory options. No index I/O has happened
// when one is returned.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return e.Msg }

func usageErrorf(format string, args ...any) error {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}

type app struct {
	streams Streams
	v       *viper.Viper
	cfg     config.Config
	log     *crisprs.Logger

	configFile string
	envFile    string
}

// NewRootCmd returns the command tree bound to streams.
func NewRootCmd(streams Streams) *cobra.Command {
	v := viper.New()
	config.SetDefaults(v)
	a := &app{streams: streams, v: v}

	root := &cobra.Command{
		Use:   "crisprs",
		Short: "Find CRISPR off-target sites",
		Long: `Build a binary index of CRISPR sites and find, for each query site, every
indexed site within a mismatch threshold.`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetIn(streams.In)
	root.SetOut(streams.Out)
	root.SetErr(streams.Err)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Msg: err.Error()}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (yaml, toml or json)")
	pf.StringVar(&a.envFile, "env-file", ".env", "file of CRISPRS_* environment variables")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text or json")
	pf.String("s3-region", "", "AWS region for s3:// locations")
	pf.String("s3-endpoint", "", "custom S3 endpoint")
	pf.Bool("s3-path-style", false, "use path-style S3 addressing")
	pf.String("minio-endpoint", "", "endpoint for minio:// locations")
	a.bind(pf, "log-level", "log-level")
	a.bind(pf, "log-format", "log-format")
	a.bind(pf, "storage.s3-region", "s3-region")
	a.bind(pf, "storage.s3-endpoint", "s3-endpoint")
	a.bind(pf, "storage.s3-path-style", "s3-path-style")
	a.bind(pf, "storage.minio-endpoint", "minio-endpoint")

	root.AddCommand(
		a.newIndexCmd(),
		a.newAlignCmd(),
		a.newInspectCmd(),
		a.newServeCmd(),
		a.newPublishCmd(),
	)
	return root
}

func (a *app) bind(fs *pflag.FlagSet, key, flag string) {
	if err := a.v.BindPFlag(key, fs.Lookup(flag)); err != nil {
		panic(err)
	}
}

func (a *app) setup(_ *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(a.envFile); err != nil {
		return err
	}
	config.BindEnv(a.v)

	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return &UsageError{Msg: err.Error()}
	}
	a.cfg = cfg
	a.log = cfg.Logger(a.streams.Err)
	return nil
}

// Execute runs the command line and returns the process exit status.
func Execute(ctx context.Context, args []string, streams Streams) int {
	root := NewRootCmd(streams)
	root.SetArgs(args)

	cmd, err := root.ExecuteContextC(ctx)
	if err == nil {
		return 0
	}
	fmt.Fprintf(streams.Err, "Error: %v\n", err)
	var usage *UsageError
	if errors.As(err, &usage) {
		fmt.Fprintln(streams.Err)
		fmt.Fprint(streams.Err, cmd.UsageString())
	}
	return 1
}
