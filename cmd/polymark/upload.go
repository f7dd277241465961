package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"

	"github.com/example/polymark/internal/clipboard"
	"github.com/example/polymark/internal/upload"
)

type uploadCmd struct {
	file    string
	server  string
	copyURL bool
	*root
	fs *flag.FlagSet
}

func (u *uploadCmd) FlagSet() *flag.FlagSet {
	return u.fs
}

func defaultServer(listen string) string {
	if strings.HasPrefix(listen, ":") {
		return "http://localhost" + listen
	}
	return "http://" + listen
}

func parseUploadCmd(args []string, r *root) (*uploadCmd, error) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	u := &uploadCmd{root: r, fs: fs}
	fs.Usage = usageFunc(u)
	server := defaultServer(r.config.Listen)
	if r.config.PublicURL != "" {
		server = r.config.PublicURL
	}
	fs.StringVar(&u.server, "server", server, "base URL of the upload service")
	fs.BoolVar(&u.copyURL, "copy-url", false, "copy the returned URL to the clipboard")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, &UsageError{of: u, msg: "upload needs exactly one file"}
	}
	u.file = fs.Arg(0)
	return u, nil
}

func (u *uploadCmd) Run() error {
	f, err := os.Open(u.file)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"file": u.file, "size": humanize.Bytes(uint64(info.Size()))}).Debug("uploading")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	url, err := upload.NewClient(u.server).Upload(ctx, filepath.Base(u.file), f)
	if err != nil {
		return err
	}
	fmt.Fprintln(u.root.out(), url)

	if u.copyURL {
		if err := clipboard.WriteText(url); err != nil {
			log.WithError(err).Warn("copy url")
		} else {
			u.root.notifier.Copy(url, nil)
		}
	}
	u.root.notifier.Upload(url)
	return nil
}
