package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eringen/sitegen"
)

// fileConfig is the shape of sitegen.yaml.
type fileConfig struct {
	sitegen.SiteConfig `mapstructure:",squash"`

	Pages    []sitegen.PageSpec `mapstructure:"pages"`
	LogLevel string             `mapstructure:"logLevel"`
}

type cli struct {
	cfgFile string
	config  fileConfig
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{logger: slog.Default()}

	root := &cobra.Command{
		Use:   "sitegen",
		Short: "sitegen - a static site generator with a logic-less template language",
		Long: `sitegen merges content documents (JSON, YAML or Markdown with front matter)
with site-wide data and renders them through templates into static HTML.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initializeConfig(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "config file (default is ./sitegen.yaml)")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("output", "", "output directory (overrides outputDir)")

	root.AddCommand(
		c.buildCmd(),
		c.serveCmd(),
		c.renderCmd(),
		c.newCmd(),
		versionCmd(),
	)
	return root
}

func (c *cli) initializeConfig(cmd *cobra.Command) error {
	v := viper.New()

	v.SetDefault("outputDir", "public")
	v.SetDefault("addr", ":3000")
	v.SetDefault("logLevel", "info")

	if c.cfgFile != "" {
		v.SetConfigFile(c.cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("sitegen")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("SITEGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlag("outputDir", cmd.Flags().Lookup("output")); err != nil {
		return err
	}
	if err := v.BindPFlag("logLevel", cmd.Flags().Lookup("log-level")); err != nil {
		return err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || c.cfgFile != "" {
			return fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&c.config); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	logger, err := newLogger(c.config.LogLevel)
	if err != nil {
		return err
	}
	c.logger = logger
	slog.SetDefault(logger)

	if used := v.ConfigFileUsed(); used != "" {
		c.logger.Debug("using config file", "path", used)
	}
	return nil
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

// openBuilder creates a Builder from the loaded configuration and opens its
// manifest.
func (c *cli) openBuilder() (*sitegen.Builder, error) {
	b := sitegen.New(c.config.SiteConfig, sitegen.WithLogger(c.logger))
	if err := b.Open(); err != nil {
		return nil, err
	}
	return b, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the sitegen version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sitegen %s\n", version)
		},
	}
}
