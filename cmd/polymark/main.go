package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/example/polymark/internal/config"
	"github.com/example/polymark/internal/notify"
	"github.com/example/polymark/internal/theme"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs           *flag.FlagSet
	program      string
	notifier     *notify.Notifier
	config       *config.Config
	logLevel     string
	themeName    string
	exportAlerts bool
	copyAlerts   bool
	uploadAlerts bool
	stdout       io.Writer
}

func (r *root) Program() string {
	return r.program
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func (r *root) out() io.Writer {
	if r == nil || r.stdout == nil {
		return os.Stdout
	}
	return r.stdout
}

func newRoot() *root {
	loader := config.NewLoader(version, configPathOverride)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
	}

	r := &root{
		fs:       flag.NewFlagSet("polymark", flag.ExitOnError),
		program:  "polymark",
		notifier: notify.New(notify.LoadPreferences()),
		config:   cfg,
	}
	r.fs.StringVar(&r.logLevel, "log-level", cfg.LogLevel, "log verbosity: trace, debug, info, warn or error")
	r.fs.BoolVar(&r.exportAlerts, "notify-export", cfg.Notify.Export, "show a desktop notification after exporting an image")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", cfg.Notify.Copy, "show a desktop notification after copying to the clipboard")
	r.fs.BoolVar(&r.uploadAlerts, "notify-upload", cfg.Notify.Upload, "show a desktop notification after an upload is stored")
	r.fs.StringVar(&r.themeName, "theme", cfg.Theme, "window color theme: a name ("+strings.Join(theme.Names(), ", ")+") or a .theme file")
	r.fs.Usage = usageFunc(r)
	return r
}

// windowTheme resolves -theme, falling back to the default palette with a
// warning when the name cannot be loaded.
func (r *root) windowTheme() *theme.Theme {
	t, err := theme.NewLoader().Load(r.themeName)
	if err != nil {
		log.WithError(err).Warn("using default theme")
		return theme.Default()
	}
	return t
}

func (r *root) configureLogging() error {
	level, err := log.ParseLevel(r.logLevel)
	if err != nil {
		return fmt.Errorf("-log-level: %w", err)
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	return nil
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	if err := r.configureLogging(); err != nil {
		return err
	}
	if r.notifier != nil {
		r.notifier.Enable(notify.EventExport, r.exportAlerts)
		r.notifier.Enable(notify.EventCopy, r.copyAlerts)
		r.notifier.Enable(notify.EventUpload, r.uploadAlerts)
	}

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "annotate":
		cmd, err = parseAnnotateCmd(subArgs, r)
	case "export":
		cmd, err = parseExportCmd(subArgs, r)
	case "serve":
		cmd, err = parseServeCmd(subArgs, r)
	case "upload":
		cmd, err = parseUploadCmd(subArgs, r)
	case "classes":
		cmd = &classesCmd{root: r}
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{root: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
			os.Exit(2)
		}
		log.WithError(err).Error(r.program)
		os.Exit(1)
	}
}
