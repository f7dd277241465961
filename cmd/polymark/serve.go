package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/example/polymark/internal/upload"
)

type serveCmd struct {
	listen    string
	dir       string
	publicURL string
	cacheSize int
	*root
	fs *flag.FlagSet
}

func (s *serveCmd) FlagSet() *flag.FlagSet {
	return s.fs
}

func parseServeCmd(args []string, r *root) (*serveCmd, error) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	s := &serveCmd{root: r, fs: fs}
	fs.Usage = usageFunc(s)
	cfg := r.config
	fs.StringVar(&s.listen, "listen", cfg.Listen, "address to listen on")
	fs.StringVar(&s.dir, "dir", cfg.UploadDir, "directory uploads are stored in")
	fs.StringVar(&s.publicURL, "public-url", cfg.PublicURL, "base of returned image URLs when behind a proxy")
	fs.IntVar(&s.cacheSize, "cache", 32, "decoded images kept in memory for /export")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: s, msg: "serve takes no arguments"}
	}
	return s, nil
}

func (s *serveCmd) Run() error {
	store, err := upload.NewStore(s.dir, s.cacheSize)
	if err != nil {
		return err
	}
	opts := []upload.Option{
		upload.WithLogger(log.StandardLogger()),
		upload.WithPublicURL(s.publicURL),
	}
	if s.root.notifier != nil {
		opts = append(opts, upload.WithUploadHook(s.root.notifier.Upload))
	}
	srv := upload.New(store, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log.WithFields(log.Fields{"addr": s.listen, "dir": store.Dir()}).Info("serving")
	return srv.ListenAndServe(ctx, s.listen)
}
