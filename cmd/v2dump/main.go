// Command v2dump parses one forum page and prints the extracted entities as JSON.
//
//	v2dump -kind topic page.html
//	v2dump -kind member -url /member/alice
//	curl -s https://www.v2ex.com/recent | v2dump -kind recent
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"v2scrape/internal/config"
	"v2scrape/internal/extract"
	"v2scrape/internal/fetch"
	"v2scrape/internal/logger"
	"v2scrape/moderation"
	"v2scrape/scrape"
)

func main() {
	var (
		kind      = flag.String("kind", "topic", "page kind: "+strings.Join(extract.Kinds, "|"))
		target    = flag.String("url", "", "fetch this url (absolute or relative to base_url) instead of reading a file")
		render    = flag.Bool("render", false, "fetch through headless chrome")
		configDir = flag.String("config", "", "directory holding v2scrape.yaml")
		viewer    = flag.String("viewer", "", "viewer name, overrides config")
		threadsOf = flag.Int("threads", 0, "with -kind topic, print the @mention threads of reply #N")
	)
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *viewer != "" {
		cfg.Viewer = *viewer
	}
	log := logger.New(cfg.LogLevel, os.Stderr)
	defer log.Sync()

	store, closeStore := moderationStore(cfg, log)
	defer closeStore()

	ctx := context.Background()
	raw, err := load(ctx, cfg, log, *target, *render, flag.Arg(0))
	if err != nil {
		log.Fatal("load page", zap.Error(err))
	}
	doc, err := scrape.Parse(bytes.NewReader(raw))
	if err != nil {
		log.Fatal("parse page", zap.Error(err))
	}

	p := scrape.New(scrape.Config{Viewer: cfg.Viewer, Store: store, Logger: log, PageSize: cfg.PageSize})
	out, err := extract.Run(p, doc, *kind, extract.Options{ThreadsOf: *threadsOf})
	if err != nil {
		log.Fatal("extract", zap.String("kind", *kind), zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatal("encode", zap.Error(err))
	}
}

func moderationStore(cfg config.Config, log *zap.Logger) (moderation.Store, func()) {
	if cfg.Redis.Addr == "" {
		return moderation.NewMemoryStore(), func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	store := moderation.NewRedisStore(client, moderation.RedisOptions{
		Prefix: cfg.Redis.Prefix,
		TTL:    cfg.Redis.TTL,
		Logger: log,
	})
	return store, func() { _ = client.Close() }
}

func load(ctx context.Context, cfg config.Config, log *zap.Logger, target string, render bool, file string) ([]byte, error) {
	if target == "" {
		if file == "" || file == "-" {
			return io.ReadAll(os.Stdin)
		}
		return os.ReadFile(file)
	}
	if strings.HasPrefix(target, "/") {
		target = cfg.BaseURL + target
	}

	jar := fetch.NewJars().Get(cfg.Viewer)
	var f fetch.Fetcher
	if render {
		c := fetch.NewChrome(fetch.ChromeOptions{
			UserAgent:    cfg.UserAgent,
			Timeout:      cfg.Timeout,
			Jar:          jar,
			Logger:       log,
			WaitSelector: cfg.Chrome.WaitSelector,
			NetworkIdle:  cfg.Chrome.NetworkIdle,
		})
		defer c.Close()
		f = c
	} else {
		f = fetch.NewHTTP(fetch.HTTPOptions{
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.Timeout,
			Jar:       jar,
			Logger:    log,
		})
	}
	doc, err := f.Fetch(ctx, target)
	if err != nil {
		return nil, err
	}
	log.Info("fetched", zap.String("url", doc.URL), zap.Int("bytes", len(doc.Body)))
	return doc.Body, nil
}
