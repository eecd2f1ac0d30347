package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gwi.com/pdf-chat/internal/config"
	"gwi.com/pdf-chat/internal/core"
	"gwi.com/pdf-chat/internal/inbox"
	"gwi.com/pdf-chat/internal/qaclient"
)

func main() {
	config.LoadConfig()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	apiURL := flag.String("api", config.AppConfig.APIURL, "Question-answering backend URL")
	watchDir := flag.String("watch", config.AppConfig.InboxDir, "Directory to watch for PDFs to upload")
	flag.Parse()

	out := newPrinter(os.Stdout)
	ctrl := core.NewController(uuid.NewString(), qaclient.NewClient(*apiURL), out, nil, core.Options{
		ReplacePlaceholderOnError: config.AppConfig.ReplacePlaceholderOnError,
	})
	con := &console{ctrl: ctrl, out: out}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out.Messages(ctrl.Snapshot().Messages)
	if err := ctrl.Refresh(ctx); err == nil {
		con.printDocuments()
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	if *watchDir != "" {
		g.Go(func() error {
			return con.watchInbox(gctx, *watchDir)
		})
	}
	g.Go(func() error {
		defer stop()
		for {
			out.Prompt()
			select {
			case <-gctx.Done():
				return nil
			case line, ok := <-lines:
				if !ok || con.handle(gctx, line) {
					return nil
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("pdfchat: %v", err)
	}
}

// watchInbox uploads PDFs that settle in dir.
func (c *console) watchInbox(ctx context.Context, dir string) error {
	w, err := inbox.NewWatcher(inbox.DefaultQuietPeriod)
	if err != nil {
		return err
	}
	defer w.Stop()

	paths, err := w.Watch(ctx, dir)
	if err != nil {
		return err
	}
	c.out.Printf("Watching %s for PDFs.\n", dir)
	return c.uploadInbox(ctx, paths)
}

// uploadInbox uploads each path one at a time, waiting for any question in
// flight to finish first. It returns when paths is closed or ctx is done.
func (c *console) uploadInbox(ctx context.Context, paths <-chan string) error {
	for path := range paths {
		file, err := readFile(path)
		if err != nil {
			log.Printf("Skipping %s: %v", path, err)
			continue
		}
		for {
			if err := c.ctrl.WaitIdle(ctx); err != nil {
				return nil
			}
			if _, err := c.ctrl.Upload(ctx, []core.File{file}); !errors.Is(err, core.ErrBusy) {
				break
			}
		}
		c.out.Messages(c.ctrl.Snapshot().Messages)
	}
	return nil
}
