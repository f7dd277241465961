package main

import (
	"flag"

	log "github.com/sirupsen/logrus"

	"github.com/example/polymark/internal/appstate"
	"github.com/example/polymark/internal/imagesource"
)

// annotateCmd represents the annotate subcommand.
type annotateCmd struct {
	source   string
	output   string
	maxBytes int64
	*root
	fs *flag.FlagSet
}

func (a *annotateCmd) FlagSet() *flag.FlagSet {
	return a.fs
}

func parseAnnotateCmd(args []string, r *root) (*annotateCmd, error) {
	fs := flag.NewFlagSet("annotate", flag.ExitOnError)
	a := &annotateCmd{root: r, fs: fs}
	fs.Usage = usageFunc(a)
	output := ""
	if r != nil && r.config != nil {
		output = r.config.Output
	}
	fs.StringVar(&a.output, "output", output, "file written by the export action (Ctrl+S)")
	fs.Int64Var(&a.maxBytes, "max-bytes", imagesource.DefaultMaxBytes, "largest image accepted from a file or URL")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	switch fs.NArg() {
	case 0:
	case 1:
		a.source = fs.Arg(0)
	default:
		return nil, &UsageError{of: a, msg: "annotate takes at most one image"}
	}
	return a, nil
}

func (a *annotateCmd) Run() error {
	opts := []appstate.WindowOption{
		appstate.WithFetcher(imagesource.New(imagesource.WithMaxBytes(a.maxBytes))),
		appstate.WithWindowLogger(log.StandardLogger()),
	}
	if a.root != nil {
		opts = append(opts, appstate.WithTheme(a.root.windowTheme()))
	}
	if a.source != "" {
		opts = append(opts, appstate.WithSource(a.source))
	}
	if a.output != "" {
		opts = append(opts, appstate.WithOutput(a.output))
	}
	if a.root != nil && a.root.notifier != nil {
		opts = append(opts, appstate.WithNotifier(a.root.notifier))
	}
	appstate.New(opts...).Run()
	return nil
}
