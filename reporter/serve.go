package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"linediff.znkr.io/diff"
	"linediff.znkr.io/reporter/report"
	"linediff.znkr.io/reporter/server"
)

func serveCmd() *cobra.Command {
	var (
		dir      string
		addr     string
		maxCells int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serves the reports and the diff API, reloading on changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("determining directory: %v", err)
			}
			return serve(abs, addr, diff.New(diff.MaxCells(maxCells)))
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "directory containing site/ and templates/")
	cmd.Flags().StringVar(&addr, "addr", "localhost:8080", "address to listen on")
	cmd.Flags().IntVar(&maxCells, "max-cells", 25_000_000, "maximum size of the LCS table per diff, 0 means unlimited")
	return cmd
}

func serve(dir, addr string, d *diff.Differ) error {
	s, err := report.Load(dir, d)
	if err != nil {
		return fmt.Errorf("loading reports: %v", err)
	}

	srv, err := server.Run(addr, s)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Print(err)
		}
	}()
	log.Printf("Now serving at http://%s, press Ctrl-C to shut down", srv.Addr())

	// Reload the reports should anything change on disk.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %v", err)
	}
	defer watcher.Close()
	for _, subdir := range []string{"site", "templates"} {
		if err := watchDir(watcher, filepath.Join(dir, subdir)); err != nil {
			return fmt.Errorf("starting watch: %v", err)
		}
	}
	{
		wl := watcher.WatchList()
		for i := range wl {
			wl[i], _ = filepath.Rel(dir, wl[i])
		}
		slices.Sort(wl)
		log.Printf("Watching:\n    %v", strings.Join(wl, "\n    "))
	}

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt)
	defer signal.Stop(sigint)

	for {
		select {
		case event := <-watcher.Events:
			if event.Has(fsnotify.Chmod) {
				continue
			}

			switch stat, err := os.Stat(event.Name); {
			case os.IsNotExist(err) && (event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)):
				if slices.Contains(watcher.WatchList(), event.Name) {
					watcher.Remove(event.Name)
					wd, _ := filepath.Rel(dir, event.Name)
					log.Printf("Removed watch directory: %v", wd)
				}
			case err == nil && event.Has(fsnotify.Create) && stat.IsDir():
				if err := watchDir(watcher, event.Name); err != nil {
					return fmt.Errorf("adding watch: %v", err)
				}
				wd, _ := filepath.Rel(dir, event.Name)
				log.Printf("Added watch directory: %v", wd)
			case err != nil:
				return fmt.Errorf("watching reports: %v", err)
			}

			start := time.Now()
			s, err := report.Load(dir, d)
			if err != nil {
				log.Printf("failed to reload reports: %v", err)
				continue
			}
			srv.ReplaceSet(s)
			log.Printf("Reports reloaded (%v)", time.Since(start))
		case err := <-watcher.Errors:
			return fmt.Errorf("watching: %v", err)
		case err := <-srv.Error():
			return fmt.Errorf("serving: %v", err)
		case <-sigint:
			fmt.Print("\r") // remove Ctrl-C output characters
			log.Printf("Received Ctrl-C, shutting down")
			return nil
		}
	}
}

func watchDir(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
