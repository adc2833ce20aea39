// Command v2serve runs the scrape engine behind a small HTTP API.
package main

import (
	"flag"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"v2scrape/internal/config"
	"v2scrape/internal/fetch"
	"v2scrape/internal/logger"
	"v2scrape/internal/server"
	"v2scrape/moderation"
)

func main() {
	addrFlag := flag.String("addr", ":8081", "listen address, e.g. :81 or 0.0.0.0:8081")
	configDir := flag.String("config", "", "directory holding v2scrape.yaml")
	render := flag.Bool("render", false, "fetch /fetch targets through headless chrome")
	flag.Parse()

	addr := *addrFlag
	if env := os.Getenv("PORT"); env != "" {
		addr = ":" + env
	}

	cfg, err := config.Load(*configDir)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}
	log := logger.New(cfg.LogLevel, os.Stdout)
	defer log.Sync()

	var store moderation.Store = moderation.NewMemoryStore()
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		store = moderation.NewRedisStore(client, moderation.RedisOptions{
			Prefix: cfg.Redis.Prefix,
			TTL:    cfg.Redis.TTL,
			Logger: log,
		})
	}

	// The server fetches anonymously; viewer sessions stay with the caller.
	jar := fetch.NewJars().Get("")
	var fetcher fetch.Fetcher
	if *render {
		c := fetch.NewChrome(fetch.ChromeOptions{
			UserAgent:    cfg.UserAgent,
			Timeout:      cfg.Timeout,
			Jar:          jar,
			Logger:       log,
			WaitSelector: cfg.Chrome.WaitSelector,
			NetworkIdle:  cfg.Chrome.NetworkIdle,
		})
		defer c.Close()
		fetcher = c
	} else {
		fetcher = fetch.NewHTTP(fetch.HTTPOptions{
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.Timeout,
			Jar:       jar,
			Logger:    log,
		})
	}

	handler := server.New(server.Config{
		Logger:   log,
		Store:    store,
		Fetcher:  fetcher,
		BaseURL:  cfg.BaseURL,
		PageSize: cfg.PageSize,
	})
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          zap.NewStdLog(log.Named("http")),
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal("listen", zap.String("addr", addr), zap.Error(err))
	}
	log.Info("listening", zap.String("addr", addr), zap.Bool("render", *render))
	if err := srv.Serve(ln); err != nil {
		log.Fatal("serve", zap.Error(err))
	}
}
