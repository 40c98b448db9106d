// Command bundle resolves a manifest's dependencies against a
// RubyGems-compatible compact index and writes a deterministic
// lockfile, the way `bundle lock` does.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/TaKO8Ki/bundle/internal/compactindex"
	"github.com/TaKO8Ki/bundle/internal/config"
	"github.com/TaKO8Ki/bundle/internal/lockfile"
	"github.com/TaKO8Ki/bundle/internal/manifest"
	"github.com/TaKO8Ki/bundle/internal/metrics"
	"github.com/TaKO8Ki/bundle/internal/resolve"
	"github.com/TaKO8Ki/bundle/internal/universe"
)

func main() {
	code, err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "bundle:", err)
	}
	os.Exit(code)
}

func run(args []string) (int, error) {
	if len(args) == 0 {
		printUsage()
		return 1, nil
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	switch args[0] {
	case "lock":
		return runLock(logger, args[1:])
	case "show":
		return runShow(logger, args[1:])
	case "version":
		fmt.Println("bundle version 0.1.0")
		return 0, nil
	case "help", "-h", "--help":
		printUsage()
		return 0, nil
	default:
		fmt.Fprintf(os.Stderr, "bundle: unknown subcommand %q\n", args[0])
		printUsage()
		return 1, nil
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: bundle <command> [flags]

commands:
  lock     resolve the manifest's dependencies and write a lockfile
  show     resolve the manifest's dependencies and print the result
  version  print the tool version
  help     print this message`)
}

func runLock(logger zerolog.Logger, args []string) (int, error) {
	fs := flag.NewFlagSet("lock", flag.ContinueOnError)
	manifestPath := fs.String("manifest", "", "path to the manifest (default: discovered)")
	lockPath := fs.String("lockfile", "Gemfile.lock", "path to write the lockfile to")
	configPath := fs.String("config", "", "path to a bundle.yaml config file")
	if err := fs.Parse(args); err != nil {
		return 2, err
	}

	res, cfg, err := resolveManifest(context.Background(), logger, *manifestPath, *configPath)
	if err != nil {
		return 1, err
	}

	if err := lockfile.WriteFile(res, cfg.SourceURL, cfg.BundledWith, *lockPath); err != nil {
		return 1, err
	}

	logger.Info().Str("path", *lockPath).Msg("wrote lockfile")
	return 0, nil
}

func runShow(logger zerolog.Logger, args []string) (int, error) {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	manifestPath := fs.String("manifest", "", "path to the manifest (default: discovered)")
	configPath := fs.String("config", "", "path to a bundle.yaml config file")
	if err := fs.Parse(args); err != nil {
		return 2, err
	}

	res, _, err := resolveManifest(context.Background(), logger, *manifestPath, *configPath)
	if err != nil {
		return 1, err
	}

	for _, name := range res.Names() {
		fmt.Printf("%s (%s)\n", name, res.Versions[name].String())
	}
	return 0, nil
}

func resolveManifest(ctx context.Context, logger zerolog.Logger, manifestPath, configPath string) (*resolve.Resolution, config.Config, error) {
	if manifestPath == "" {
		found, err := manifest.Find()
		if err != nil {
			return nil, config.Config{}, err
		}
		manifestPath = found
	}

	m, err := manifest.Read(manifestPath)
	if err != nil {
		return nil, config.Config{}, err
	}

	if configPath == "" {
		configPath = filepath.Join(filepath.Dir(manifestPath), "bundle.yaml")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, config.Config{}, err
	}

	reg := metrics.New(prometheus.NewRegistry())

	client, err := compactindex.NewClient(compactindex.Config{
		BaseURL:  cfg.SourceURL,
		CacheDir: cfg.CacheDir,
		Logger:   logger,
		Metrics:  reg,
	})
	if err != nil {
		return nil, config.Config{}, err
	}

	u, err := universe.Build(ctx, client, m.Dependencies)
	if err != nil {
		return nil, config.Config{}, err
	}

	res, err := resolve.New(logger, reg).Resolve(ctx, u)
	if err != nil {
		return nil, config.Config{}, err
	}

	return res, cfg, nil
}
