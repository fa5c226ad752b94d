package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/whenparse/internal/profile"
	"github.com/hrygo/whenparse/plugin/temporal"
	"github.com/hrygo/whenparse/server"
)

var version = "dev"

var (
	rootCmd = &cobra.Command{
		Use:           "whenparse",
		Short:         `Extract dates, times, ranges and durations from English text.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadConfigFile()
		},
	}

	extractCmd = &cobra.Command{
		Use:   "extract [text...]",
		Short: "Extract temporal expressions and print them as JSON",
		Long: `Extract temporal expressions from the arguments, or from standard input
when no arguments are given. With --lines every input line is extracted
independently and one JSON array is printed per line.`,
		RunE: runExtract,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the extraction HTTP API",
		RunE:  runServe,
	}
)

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to a config file (yaml, json or toml)")
	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("direction", "next", "resolve ambiguous dates to the next, previous or nearest occurrence")
	rootCmd.PersistentFlags().Bool("infer-datetimes", true, "fill unstated fields from context and the reference instant")
	rootCmd.PersistentFlags().String("now", "", "reference instant (default: the current instant)")
	rootCmd.PersistentFlags().String("timezone", "", "timezone abbreviation, offset or IANA name of the reference instant")
	rootCmd.PersistentFlags().Bool("return-matched-text", false, "include the matched text with every result")
	rootCmd.PersistentFlags().Bool("collapse-singleton", false, "print a lone result without the enclosing array")
	rootCmd.PersistentFlags().Bool("fuzzy-names", false, "accept month and weekday names one edit away")
	rootCmd.PersistentFlags().Bool("markdown", false, "treat the input as markdown and extract from its prose only")

	extractCmd.Flags().Bool("lines", false, "extract every input line independently")
	extractCmd.Flags().String("filter", "", "CEL predicate results must satisfy, e.g. 'hour >= 12'")
	extractCmd.Flags().Bool("pretty", false, "indent the JSON output")

	serveCmd.Flags().String("addr", "", "address of server")
	serveCmd.Flags().Int("port", 8081, "port of server")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		panic(err)
	}

	viper.SetEnvPrefix("whenparse")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	rootCmd.AddCommand(extractCmd, serveCmd)
}

func loadConfigFile() error {
	path := viper.GetString("config")
	if path == "" {
		return nil
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "failed to read config file %s", path)
	}
	return nil
}

// loadProfile layers environment variables, the config file and flags, in
// increasing precedence.
func loadProfile() (*profile.Profile, error) {
	p := &profile.Profile{Mode: "dev", Version: version}
	p.FromEnv()

	if viper.IsSet("mode") {
		p.Mode = viper.GetString("mode")
	}
	if viper.IsSet("log-level") {
		p.LogLevel = viper.GetString("log-level")
	}
	if viper.IsSet("direction") {
		p.Direction = viper.GetString("direction")
	}
	if viper.IsSet("infer-datetimes") {
		p.InferDatetimes = viper.GetBool("infer-datetimes")
	}
	if viper.IsSet("now") {
		p.Now = viper.GetString("now")
	}
	if viper.IsSet("timezone") {
		p.Timezone = viper.GetString("timezone")
	}
	if viper.IsSet("return-matched-text") {
		p.ReturnMatchedText = viper.GetBool("return-matched-text")
	}
	if viper.IsSet("collapse-singleton") {
		p.CollapseSingleton = viper.GetBool("collapse-singleton")
	}
	if viper.IsSet("fuzzy-names") {
		p.FuzzyNames = viper.GetBool("fuzzy-names")
	}
	if viper.IsSet("markdown") {
		p.Markdown = viper.GetBool("markdown")
	}
	p.Addr = viper.GetString("addr")
	p.Port = viper.GetInt("port")

	if err := p.Validate(); err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: p.SlogLevel()})))
	return p, nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	p, err := loadProfile()
	if err != nil {
		return err
	}
	cfg, err := temporal.ConfigFromProfile(p)
	if err != nil {
		return err
	}
	cfg.Filter, _ = cmd.Flags().GetString("filter")
	lines, _ := cmd.Flags().GetBool("lines")
	pretty, _ := cmd.Flags().GetBool("pretty")

	enc := json.NewEncoder(cmd.OutOrStdout())
	if pretty {
		enc.SetIndent("", "  ")
	}
	ctx := cmd.Context()
	extractor := temporal.NewExtractor()

	if lines {
		texts, err := readLines(args, cmd.InOrStdin())
		if err != nil {
			return err
		}
		out, err := extractor.ExtractBatch(ctx, texts, cfg, p.BatchConcurrency)
		if err != nil {
			return err
		}
		for _, results := range out {
			if err := enc.Encode(cfg.Shape(nonNil(results))); err != nil {
				return err
			}
		}
		return nil
	}

	text := strings.Join(args, " ")
	if len(args) == 0 {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return errors.Wrap(err, "failed to read input")
		}
		text = string(b)
	}
	results, err := extractor.Extract(ctx, text, cfg)
	if err != nil {
		return err
	}
	return enc.Encode(cfg.Shape(nonNil(results)))
}

func readLines(args []string, stdin io.Reader) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	var lines []string
	scanner := bufio.NewScanner(stdin)
	scanner.Buffer(make([]byte, 64<<10), 1<<20)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, errors.Wrap(scanner.Err(), "failed to read input")
}

func runServe(cmd *cobra.Command, _ []string) error {
	p, err := loadProfile()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	s, err := server.NewServer(ctx, p)
	if err != nil {
		return errors.Wrap(err, "failed to create server")
	}

	c := make(chan os.Signal, 1)
	// Trigger graceful shutdown on SIGINT or SIGTERM.
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	if err := s.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start server")
	}
	printGreetings(cmd.ErrOrStderr(), p)

	select {
	case <-c:
	case <-ctx.Done():
	}
	s.Shutdown(context.Background())
	return nil
}

func printGreetings(w io.Writer, p *profile.Profile) {
	fmt.Fprintf(w, "whenparse %s started in %s mode\n", p.Version, p.Mode)
	fmt.Fprintf(w, "API: http://%s:%d/api/v1/extract\n", hostOrLocal(p.Addr), p.Port)
}

func hostOrLocal(addr string) string {
	if addr == "" {
		return "localhost"
	}
	return addr
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
