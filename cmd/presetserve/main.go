/*
Package main implements the preset search server and CLI.

presetserve loads preset catalogs (TOML, YAML or compiled msgpack) and ranks
them against free-text queries: leading matches on names, terms and tag values
first, then fuzzy matches on names and terms, then brand suggestions, with the
generic preset for the current geometry always appended last.

# Usage

Start the msgpack IPC server on stdin/stdout:

	presetserve serve

Search once from the shell:

	presetserve search --geometry area park

Try queries interactively:

	presetserve --debug repl

Compile catalogs into a single msgpack file:

	presetserve --catalog presets/ compile presets.msgpack

# Configuration

Runtime configuration lives in config.toml, created with defaults when
missing:

	[search]
	max_results = 50
	max_suggestions = 10

	[server]
	max_query = 60
	workers = 4
	max_batch = 32
	cache_size = 256
	announce_ready = false

	[catalog]
	paths = ["presets/"]
	default_geometry = "point"

Catalog paths may be files or directories and are resolved against the
working directory, the executable directory and the config directory.

# IPC Protocol

See package server for message shapes:

	{"id": "req1", "action": "search", "q": "caf", "g": "point"}
	{"id": "req1", "s": [{"i": "amenity/cafe", "n": "Cafe", "r": 1}], "c": 1, "t": 84}
*/
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	pcli "github.com/bastiangx/presetserve/internal/cli"
	"github.com/bastiangx/presetserve/internal/logger"
	"github.com/bastiangx/presetserve/internal/utils"
	"github.com/bastiangx/presetserve/pkg/catalog"
	"github.com/bastiangx/presetserve/pkg/config"
	"github.com/bastiangx/presetserve/pkg/server"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v2"
)

const (
	Version = "0.3.0"
	AppName = "presetserve"
	gh      = "https://github.com/bastiangx/presetserve"
)

var errNoCatalogs = errors.New("no catalog files found")

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

func main() {
	sigHandler()
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// app is what every command shares once flags and config are resolved.
type app struct {
	cfg        *config.Config
	configPath string
}

func newApp() *cli.App {
	rt := &app{}

	return &cli.App{
		Name:    AppName,
		Usage:   "Ranked search over map feature presets",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a config.toml",
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Toggle debug logging",
			},
			&cli.StringSliceFlag{
				Name:  "catalog",
				Usage: "Catalog file or directory (repeatable, overrides [catalog] paths)",
			},
		},
		Before: rt.setup,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve msgpack IPC requests on stdin/stdout",
				Action: rt.serveCommand,
			},
			{
				Name:   "repl",
				Usage:  "Interactive search prompt",
				Action: rt.replCommand,
				Flags:  searchFlags(),
			},
			{
				Name:      "search",
				Usage:     "Run one query and print the ranked presets",
				ArgsUsage: "<query>",
				Action:    rt.searchCommand,
				Flags:     searchFlags(),
			},
			{
				Name:      "compile",
				Usage:     "Write the loaded catalogs into one msgpack catalog",
				ArgsUsage: "<out>",
				Action:    rt.compileCommand,
			},
			{
				Name:   "config",
				Usage:  "Show the active config file, or rebuild it with defaults",
				Action: rt.configCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rebuild",
						Usage: "Overwrite the default config.toml with builtin defaults",
					},
				},
			},
			{
				Name:   "version",
				Usage:  "Show version info",
				Action: versionCommand,
			},
		},
	}
}

func searchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "geometry",
			Aliases: []string{"g"},
			Usage:   "Geometry to match and fall back to (default from config)",
		},
		&cli.IntFlag{
			Name:    "limit",
			Aliases: []string{"l"},
			Usage:   "Number of presets to print (default from config)",
		},
	}
}

func (rt *app) setup(c *cli.Context) error {
	logger.Setup(c.Bool("debug"))

	cfg, path, err := config.LoadConfigWithPriority(c.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if paths := c.StringSlice("catalog"); len(paths) > 0 {
		cfg.Catalog.Paths = paths
	}
	rt.cfg = cfg
	rt.configPath = path
	log.Debugf("Using config: %s", config.GetActiveConfigPath(path))
	return nil
}

func (rt *app) loadCatalog() (*catalog.Catalog, error) {
	resolver, err := utils.NewPathResolver()
	if err != nil {
		return nil, fmt.Errorf("resolve paths: %w", err)
	}
	files := resolver.ResolveCatalogs(rt.cfg.Catalog.Paths)
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %v", errNoCatalogs, rt.cfg.Catalog.Paths)
	}

	start := time.Now()
	cat, err := catalog.LoadAll(files...)
	if err != nil {
		return nil, err
	}
	log.Debugf("Loaded %d presets from %d files in %v", cat.Len(), len(files), time.Since(start))
	return cat, nil
}

func (rt *app) serveCommand(c *cli.Context) error {
	cat, err := rt.loadCatalog()
	if err != nil {
		return err
	}

	srv, err := server.NewServer(cat.Collection(rt.cfg.CollectionOptions()...), rt.cfg, os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	defer srv.Close()

	showStartupInfo(cat, rt.configPath)
	return srv.Start(c.Context)
}

func (rt *app) replCommand(c *cli.Context) error {
	cat, err := rt.loadCatalog()
	if err != nil {
		return err
	}

	log.SetReportTimestamp(false)
	geometry, limit := rt.searchOptions(c)
	handler := pcli.NewInputHandler(cat, cat.Collection(rt.cfg.CollectionOptions()...), geometry, limit, rt.cfg.Server.MaxQuery, c.App.Writer)
	return handler.Start(os.Stdin)
}

func (rt *app) searchCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("search needs exactly one <query> argument", 2)
	}
	query := c.Args().First()
	if err := utils.ValidateQuery(query, rt.cfg.Server.MaxQuery); err != nil {
		return err
	}

	cat, err := rt.loadCatalog()
	if err != nil {
		return err
	}

	geometry, limit := rt.searchOptions(c)
	found := cat.Collection(rt.cfg.CollectionOptions()...).MatchGeometry(geometry).Search(query, geometry)

	count := min(found.Len(), limit)
	ranks := utils.Ranks(count)
	for i := range count {
		it := found.At(i)
		fmt.Fprintf(c.App.Writer, "%2d. %-40s %s\n", ranks[i], it.Name(), it.ID())
	}
	return nil
}

func (rt *app) searchOptions(c *cli.Context) (string, int) {
	geometry := c.String("geometry")
	if geometry == "" {
		geometry = rt.cfg.CLI.DefaultGeometry
	}
	limit := c.Int("limit")
	if limit < 1 {
		limit = rt.cfg.CLI.DefaultLimit
	}
	return geometry, limit
}

func (rt *app) compileCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("compile needs exactly one <out> argument", 2)
	}
	out := c.Args().First()

	cat, err := rt.loadCatalog()
	if err != nil {
		return err
	}
	if err := catalog.WriteMsgpack(out, cat.Definitions()); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "compiled %s presets from %d files into %s\n",
		utils.FormatWithCommas(cat.Len()), len(cat.Sources()), out)
	return nil
}

func (rt *app) configCommand(c *cli.Context) error {
	if c.Bool("rebuild") {
		if err := config.RebuildConfigFile(); err != nil {
			return fmt.Errorf("rebuild config: %w", err)
		}
		path, _ := config.GetDefaultConfigPath()
		fmt.Fprintf(c.App.Writer, "rebuilt %s\n", path)
		return nil
	}

	fmt.Fprintf(c.App.Writer, "config:   %s\n", config.GetActiveConfigPath(rt.configPath))
	fmt.Fprintf(c.App.Writer, "catalogs: %s\n", strings.Join(rt.cfg.Catalog.Paths, ", "))
	fmt.Fprintf(c.App.Writer, "search:   max_results=%d max_suggestions=%d\n", rt.cfg.Search.MaxResults, rt.cfg.Search.MaxSuggestions)
	fmt.Fprintf(c.App.Writer, "server:   workers=%d max_batch=%d cache_size=%d\n", rt.cfg.Server.Workers, rt.cfg.Server.MaxBatch, rt.cfg.Server.CacheSize)
	return nil
}

func versionCommand(c *cli.Context) error {
	banner := log.NewWithOptions(c.App.ErrWriter, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	banner.SetStyles(styles)

	banner.Print("")
	banner.Print("[ presetserve ] Ranked preset search for map editors")
	banner.Print("", "version", Version)
	banner.Print("")
	banner.Print("use -h or --help to see available options")
	banner.Print("Github Repo", "gh", gh)
	return nil
}

// showStartupInfo displays some basic info about the loaded catalogs.
func showStartupInfo(cat *catalog.Catalog, configPath string) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)
	defer log.SetLevel(currentLevel)

	stats := cat.Stats()
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("config: ( %s )", config.GetActiveConfigPath(configPath))
	log.Infof("presets: %s (%s suggestions) from %d files",
		utils.FormatWithCommas(stats["presets"]), utils.FormatWithCommas(stats["suggestions"]), stats["sources"])
	log.Info("status: ready")
}
