// polyglot: dictionary manager for plugin and theme translations.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"github.com/panjf2000/ants/v2"
	"github.com/spf13/cobra"

	"github.com/minios-linux/polyglot/cloud"
	"github.com/minios-linux/polyglot/config"
	"github.com/minios-linux/polyglot/core"
	"github.com/minios-linux/polyglot/dictionary"
	"github.com/minios-linux/polyglot/i18n"
	"github.com/minios-linux/polyglot/langmeta"
	"github.com/minios-linux/polyglot/lockfile"
	"github.com/minios-linux/polyglot/store"
	"github.com/minios-linux/polyglot/translator"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootFlag    string
	configFlag  string
	localeFlag  string
	verboseFlag bool
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "polyglot",
		Short: i18n.T("Manage plugin and theme translation dictionaries"),
		Long: i18n.T(`polyglot: dictionary manager for plugin and theme translations.

Dictionaries are flat JSON files stored under
<root>/dictionaries/{plugins,themes}/<namespace>/<locale>.json and loaded
on top of each extension's built-in base dictionary.

Commands:
  status    Show stored dictionaries, orphans and catalog progress
  import    Validate and install a dictionary file
  sync      Download newer dictionaries from the remote catalog
  theme     Regenerate a theme's base dictionary from its stylesheet
  orphans   List (or delete) dictionaries of unknown plugins
  resolve   Look up a key the way an extension would
  outdated  List overlay keys whose base text changed`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&rootFlag, "root", "", i18n.T("Storage root directory or blob URL (default: $XDG_DATA_HOME/polyglot)"))
	root.PersistentFlags().StringVar(&configFlag, "config", "", i18n.T("Config file (default: ./.polyglot.yaml if present)"))
	root.PersistentFlags().StringVar(&localeFlag, "locale", "", i18n.T("Preferred locale"))
	root.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, i18n.T("Enable debug logging"))

	root.AddCommand(
		newStatusCmd(),
		newImportCmd(),
		newSyncCmd(),
		newThemeCmd(),
		newOrphansCmd(),
		newResolveCmd(),
		newOutdatedCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// Setup
// ---------------------------------------------------------------------------

func loadConfig() (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if configFlag != "" {
		cfg, err = config.LoadFile(configFlag, false)
	} else {
		cfg, err = config.Load(".")
	}
	if err != nil {
		return cfg, err
	}

	if rootFlag != "" {
		cfg.Root = rootFlag
	}
	if localeFlag != "" {
		cfg.Locale = langmeta.Canonicalize(localeFlag)
	}
	if verboseFlag {
		cfg.LogLevel = "debug"
	}
	// The CLI fetches on demand.
	cfg.RefreshInterval = 0
	return cfg, cfg.Validate()
}

func newLogger(cfg config.Config) *slog.Logger {
	level, err := cfg.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	_, noColor := os.LookupEnv("NO_COLOR")
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    noColor,
	}))
}

// withCore loads the configuration, starts a core and runs fn with it.
func withCore(fn func(ctx context.Context, c *core.Core) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c, err := core.Start(ctx, cfg, core.Options{Logger: logger})
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Warn("closing storage", tint.Err(err))
		}
	}()

	return fn(ctx, c)
}

// readBase reads a base dictionary file. An empty path yields an empty
// base.
func readBase(path string) (dictionary.Dictionary, error) {
	if path == "" {
		return dictionary.Dictionary{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := dictionary.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if !doc.IsObject() {
		return nil, fmt.Errorf("%s: base dictionary must be a JSON object", path)
	}
	return doc.Strings(), nil
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: i18n.T("Show version information"),
		Long:  i18n.T(`Display version, commit hash, and build date.`),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("polyglot version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}

	return cmd
}

// ---------------------------------------------------------------------------
// status (read-only: stored dictionaries + catalog)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: i18n.T("Show stored dictionaries, orphans and catalog progress"),
		Long: i18n.T(`List every stored dictionary grouped by kind and namespace.

With --remote the catalog is fetched as well and each catalog entry is
shown with its translation progress and whether an update is available.
Does not modify any files.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(func(ctx context.Context, c *core.Core) error {
				return runStatus(ctx, c, remote)
			})
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, i18n.T("Also fetch and show the remote catalog"))
	return cmd
}

func runStatus(ctx context.Context, c *core.Core, remote bool) error {
	logInfo(i18n.T("Storage root: %s"), c.Config.Root)

	entries := c.Store.ListAll(ctx)
	if len(entries) == 0 {
		logInfo("%s", i18n.T("No dictionaries stored yet"))
	}

	groups := groupEntries(entries)
	for _, key := range sortedGroupKeys(groups) {
		fmt.Printf("\n%s\n", key)
		var locales []string
		for _, e := range groups[key] {
			locales = append(locales, e.Locale)
		}
		width := langColumnWidth(locales)
		for _, e := range groups[key] {
			fmt.Printf("  %s  %s\n", langCell(e.Locale, width), e.DictVersion)
		}
	}

	lf, err := lockfile.Load(ctx, c.Storage)
	if err == nil {
		fmt.Printf("\n%s %s\n", i18n.T("Lock file:"), lf.Summary())
	}

	if orphans := c.Store.Orphans(ctx); len(orphans) > 0 {
		logInfo(i18n.N("%d plugin namespace has no registered extension: %s", "%d plugin namespaces have no registered extension: %s", len(orphans)),
			len(orphans), strings.Join(orphans, ", "))
	}

	if !remote {
		return nil
	}

	catalog := c.RefreshCatalog(ctx)
	if len(catalog) == 0 {
		logWarning("%s", i18n.T("Remote catalog is empty or unavailable"))
		return nil
	}
	updates := make(map[string]bool)
	for _, u := range c.Store.Updates(ctx, catalog) {
		updates[catalogKey(u)] = true
	}

	fmt.Printf("\n%s\n", i18n.T("Remote catalog:"))
	var locales []string
	for _, r := range catalog {
		locales = append(locales, r.Locale)
	}
	width := langColumnWidth(locales)
	for _, r := range catalog {
		mark := ""
		if updates[catalogKey(r)] {
			mark = colorYellow + " " + i18n.T("update available") + colorReset
		}
		fmt.Printf("  %-8s %-24s %s %s%s\n", r.Kind, r.NamespaceID, langCell(r.Locale, width), progressBar(r.Progress, 20), mark)
	}
	return nil
}

func groupEntries(entries []store.Entry) map[string][]store.Entry {
	groups := make(map[string][]store.Entry)
	for _, e := range entries {
		key := string(e.Kind) + "/" + e.Namespace
		groups[key] = append(groups[key], e)
	}
	return groups
}

func sortedGroupKeys(groups map[string][]store.Entry) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func catalogKey(r cloud.RemoteDictionary) string {
	return r.Kind + "/" + r.NamespaceID + "/" + r.Locale
}

// ---------------------------------------------------------------------------
// import
// ---------------------------------------------------------------------------

func newImportCmd() *cobra.Command {
	var (
		namespace string
		basePath  string
	)

	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: i18n.T("Validate and install a dictionary file"),
		Long: i18n.T(`Validate a dictionary file against the namespace's base dictionary and
store it. The file must carry $meta.locale. The namespace is taken from
$meta.pluginId / $meta.themeName unless --namespace is given.

Without --base, keys cannot be checked against the extension and every
key is reported as unknown (a warning, not an error).`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			base, err := readBase(basePath)
			if err != nil {
				return err
			}
			return withCore(func(ctx context.Context, c *core.Core) error {
				return runImport(ctx, c, data, namespace, base)
			})
		},
	}

	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", i18n.T("Target namespace (default: from $meta)"))
	cmd.Flags().StringVar(&basePath, "base", "", i18n.T("Base dictionary of the extension (JSON)"))
	return cmd
}

func runImport(ctx context.Context, c *core.Core, data []byte, namespace string, base dictionary.Dictionary) error {
	if namespace == "" {
		doc, err := dictionary.Parse(data)
		if err != nil {
			return err
		}
		namespace = doc.Meta.NamespaceID()
	}
	if namespace == "" {
		return errors.New(i18n.T("cannot determine namespace; use --namespace"))
	}

	c.RegisterExtension(ctx, namespace, "en", base)
	res := c.Store.ImportFile(ctx, data, namespace)

	for _, w := range res.Warnings {
		logWarning("%s", w)
	}
	if !res.Valid {
		for _, e := range res.Errors {
			logError("%s", e)
		}
		return errors.New(i18n.T("dictionary rejected"))
	}
	logSuccess(i18n.T("Imported %s (%s)"), namespace, res.Summary())
	return nil
}

// ---------------------------------------------------------------------------
// sync (download from the remote catalog)
// ---------------------------------------------------------------------------

func newSyncCmd() *cobra.Command {
	var (
		all     bool
		dryRun  bool
		workers int
	)

	cmd := &cobra.Command{
		Use:   "sync [namespace...]",
		Short: i18n.T("Download newer dictionaries from the remote catalog"),
		Long: i18n.T(`Fetch the remote catalog and install every entry that is newer than the
stored copy. With --all, entries that are not installed yet are downloaded
too. Positional arguments restrict the sync to the given namespaces.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(func(ctx context.Context, c *core.Core) error {
				n := workers
				if n <= 0 {
					n = c.Config.Workers
				}
				return runSync(ctx, c, args, all, dryRun, n)
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, i18n.T("Also download dictionaries that are not installed"))
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, i18n.T("Only show what would be downloaded"))
	cmd.Flags().IntVarP(&workers, "jobs", "j", 0, i18n.T("Parallel downloads (default: from config)"))
	return cmd
}

func runSync(ctx context.Context, c *core.Core, namespaces []string, all, dryRun bool, workers int) error {
	catalog := c.RefreshCatalog(ctx)
	if len(catalog) == 0 {
		return errors.New(i18n.T("remote catalog is empty or unavailable"))
	}
	catalog = filterCatalog(catalog, namespaces)

	todo := c.Store.Updates(ctx, catalog)
	if all {
		todo = appendMissing(todo, catalog, c.Store.ListAll(ctx))
	}
	if len(todo) == 0 {
		logSuccess("%s", i18n.T("All dictionaries are up to date"))
		return nil
	}

	logInfo(i18n.N("%d dictionary to download", "%d dictionaries to download", len(todo)), len(todo))
	if dryRun {
		for _, r := range todo {
			fmt.Printf("  %s %s %s (%s)\n", r.Kind, r.NamespaceID, r.Locale, r.DictVersion)
		}
		return nil
	}

	failed := downloadAll(ctx, c, todo, workers)
	if failed > 0 {
		return fmt.Errorf(i18n.N("%d download failed", "%d downloads failed", failed), failed)
	}
	logSuccess("%s", i18n.T("Sync complete!"))
	return nil
}

func filterCatalog(catalog []cloud.RemoteDictionary, namespaces []string) []cloud.RemoteDictionary {
	if len(namespaces) == 0 {
		return catalog
	}
	want := make(map[string]bool, len(namespaces))
	for _, ns := range namespaces {
		want[strings.TrimSpace(ns)] = true
	}
	var out []cloud.RemoteDictionary
	for _, r := range catalog {
		if want[r.NamespaceID] {
			out = append(out, r)
		}
	}
	return out
}

// appendMissing adds catalog rows that have no stored counterpart.
func appendMissing(todo, catalog []cloud.RemoteDictionary, installed []store.Entry) []cloud.RemoteDictionary {
	have := make(map[string]bool, len(installed))
	for _, e := range installed {
		have[string(e.Kind)+"/"+e.Namespace+"/"+e.Locale] = true
	}
	for _, r := range catalog {
		if !have[catalogKey(r)] {
			todo = append(todo, r)
		}
	}
	return todo
}

// downloadAll installs every row using a bounded worker pool and returns
// the number of failures.
func downloadAll(ctx context.Context, c *core.Core, rows []cloud.RemoteDictionary, workers int) int {
	pool, err := ants.NewPool(max(workers, 1), ants.WithPanicHandler(func(p any) {
		slog.Error("download worker panicked", "panic", p)
	}))
	if err != nil {
		logError("%v", err)
		return len(rows)
	}
	defer pool.Release()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	fail := func() {
		mu.Lock()
		failed++
		mu.Unlock()
	}

	for _, r := range rows {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if err := install(ctx, c, r); err != nil {
				logError("%s/%s: %v", r.NamespaceID, r.Locale, err)
				fail()
				return
			}
			logSuccess("%s/%s %s", r.NamespaceID, r.Locale, r.DictVersion)
		})
		if err != nil {
			wg.Done()
			logError("%s/%s: %v", r.NamespaceID, r.Locale, err)
			fail()
		}
	}
	wg.Wait()
	return failed
}

func install(ctx context.Context, c *core.Core, r cloud.RemoteDictionary) error {
	doc, err := c.Cloud.Download(ctx, r.DownloadURL)
	if err != nil {
		return err
	}
	kind, err := store.ParseKind(r.Kind)
	if err != nil {
		return err
	}
	if doc.Meta.DictVersion == "" {
		meta := doc.Meta
		meta.DictVersion = r.DictVersion
		doc.SetMeta(meta)
	}
	return c.Store.Install(ctx, kind, r.NamespaceID, r.Locale, doc)
}

// ---------------------------------------------------------------------------
// theme
// ---------------------------------------------------------------------------

func newThemeCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "theme <name> <stylesheet.css>",
		Short: i18n.T("Regenerate a theme's base dictionary from its stylesheet"),
		Long: i18n.T(`Extract every string from the /* @settings */ blocks of a stylesheet and
store them as the theme's base dictionary. Nothing is written when the
stylesheet has not changed since the last run.

With --check, only report whether the stored base is stale.`),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			css, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			return withCore(func(ctx context.Context, c *core.Core) error {
				name := args[0]
				if check {
					if c.Store.ThemeBaseStale(ctx, name, string(css)) {
						logWarning(i18n.T("%s: base dictionary is stale"), name)
						return errors.New(i18n.T("stale"))
					}
					logSuccess(i18n.T("%s: base dictionary is up to date"), name)
					return nil
				}

				wrote, err := c.Store.RefreshThemeBase(ctx, name, string(css))
				if err != nil {
					return err
				}
				if wrote {
					logSuccess(i18n.T("%s: base dictionary regenerated"), name)
				} else {
					logInfo(i18n.T("%s: nothing to do"), name)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, i18n.T("Only check whether the base dictionary is stale"))
	return cmd
}

// ---------------------------------------------------------------------------
// orphans
// ---------------------------------------------------------------------------

func newOrphansCmd() *cobra.Command {
	var (
		known  []string
		remove bool
	)

	cmd := &cobra.Command{
		Use:   "orphans",
		Short: i18n.T("List (or delete) dictionaries of unknown plugins"),
		Long: i18n.T(`List plugin namespaces that have stored dictionaries but are not in the
--known list (the plugins currently installed). Orphans are never removed
unless --delete is given.`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(func(ctx context.Context, c *core.Core) error {
				for _, id := range known {
					c.RegisterExtension(ctx, strings.TrimSpace(id), "en", nil)
				}
				orphans := c.Store.Orphans(ctx)
				if len(orphans) == 0 {
					logSuccess("%s", i18n.T("No orphaned dictionaries"))
					return nil
				}
				for _, ns := range orphans {
					fmt.Printf("  %s  (%s)\n", ns, strings.Join(c.Store.Locales(ctx, store.Plugins, ns), ", "))
				}
				if !remove {
					return nil
				}
				for _, ns := range orphans {
					if err := c.Store.DeleteNamespace(ctx, store.Plugins, ns); err != nil {
						logError("%s: %v", ns, err)
						continue
					}
					logSuccess(i18n.T("Deleted %s"), ns)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&known, "known", nil, i18n.T("Registered plugin ids (comma separated)"))
	cmd.Flags().BoolVar(&remove, "delete", false, i18n.T("Delete the orphaned dictionaries"))
	return cmd
}

// ---------------------------------------------------------------------------
// resolve
// ---------------------------------------------------------------------------

func newResolveCmd() *cobra.Command {
	var (
		basePath string
		ctxName  string
		params   []string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <namespace> <key>",
		Short: i18n.T("Look up a key the way an extension would"),
		Long: i18n.T(`Register the namespace with the given base dictionary, load its stored
overlays, switch to --locale and resolve the key.

  polyglot resolve demo greet --locale fr --param name=Ana --context menu`),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := readBase(basePath)
			if err != nil {
				return err
			}
			p, err := parseParams(params)
			if err != nil {
				return err
			}
			if ctxName != "" {
				p[translator.ContextParam] = ctxName
			}
			return withCore(func(ctx context.Context, c *core.Core) error {
				t := c.RegisterExtension(ctx, args[0], "en", base)
				if c.Config.Locale != "" {
					c.Registry.SetGlobalLocale(ctx, c.Config.Locale)
				}
				text := t.Resolve(args[1], p)
				if asJSON {
					out, err := json.Marshal(map[string]string{
						"namespace": args[0],
						"key":       args[1],
						"locale":    t.LastResolvedLocale(),
						"text":      text,
					})
					if err != nil {
						return err
					}
					fmt.Println(string(out))
					return nil
				}
				fmt.Println(text)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&basePath, "base", "", i18n.T("Base dictionary of the extension (JSON)"))
	cmd.Flags().StringVar(&ctxName, "context", "", i18n.T("Context variant (tries <key>_<context> first)"))
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, i18n.T("Interpolation parameter name=value (repeatable)"))
	cmd.Flags().BoolVar(&asJSON, "json", false, i18n.T("Print the result as JSON"))
	return cmd
}

func parseParams(pairs []string) (translator.Params, error) {
	out := make(translator.Params, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf(i18n.T("invalid parameter %q (want name=value)"), p)
		}
		out[name] = value
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// outdated
// ---------------------------------------------------------------------------

func newOutdatedCmd() *cobra.Command {
	var basePath string

	cmd := &cobra.Command{
		Use:   "outdated <namespace> <locale>",
		Short: i18n.T("List overlay keys whose base text changed"),
		Long: i18n.T(`Compare the extension's current base dictionary (--base) with the base
text recorded when the overlay was saved, and list the keys that need
re-translation.`),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if basePath == "" {
				return errors.New(i18n.T("--base is required"))
			}
			base, err := readBase(basePath)
			if err != nil {
				return err
			}
			return withCore(func(ctx context.Context, c *core.Core) error {
				c.RegisterExtension(ctx, args[0], "en", base)
				keys := c.Store.OutdatedKeys(ctx, args[0], args[1])
				if len(keys) == 0 {
					logSuccess(i18n.T("%s/%s: no outdated keys"), args[0], args[1])
					return nil
				}
				for _, k := range keys {
					fmt.Printf("  %s\n", k)
				}
				logWarning(i18n.N("%d key needs re-translation", "%d keys need re-translation", len(keys)), len(keys))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&basePath, "base", "", i18n.T("Base dictionary of the extension (JSON)"))
	return cmd
}

// ---------------------------------------------------------------------------
// Output helpers
// ---------------------------------------------------------------------------

// progressBar renders a coloured bar followed by the percentage.
// Negative percentages (unknown progress) render as an empty bar.
func progressBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100

	color := colorRed
	switch {
	case percent >= 100:
		color = colorGreen
	case percent >= 50:
		color = colorYellow
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s%s%s %3d%%", color, bar, colorReset, percent)
}

func langColumnWidth(langs []string) int {
	width := 0
	for _, l := range langs {
		if len(l) > width {
			width = len(l)
		}
	}
	return width
}

// langCell renders "<flag> <code padded to width>"; locales without a
// flag get two spaces so columns stay aligned.
func langCell(lang string, width int) string {
	flag := langmeta.Resolve(lang).Flag
	if flag == "" {
		flag = "  "
	}
	return fmt.Sprintf("%s %-*s", flag, width, lang)
}
