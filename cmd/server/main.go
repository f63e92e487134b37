package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"regcache/internal/api"
	"regcache/internal/engine"
	"regcache/internal/trace"
)

func main() {
	addr := envOrDefault("REGCACHE_HTTP_ADDR", "127.0.0.1:8080")

	cfg := engine.Config{
		Entries:   envInt("REGCACHE_ENTRIES", engine.DefaultEntries),
		KeyBits:   uint(envInt("REGCACHE_KEY_BITS", engine.DefaultKeyBits)),
		ValueBits: uint(envInt("REGCACHE_VALUE_BITS", engine.DefaultValueBits)),
		WordBits:  uint(envInt("REGCACHE_WORD_BITS", engine.DefaultWordBits)),
	}
	cache, err := engine.New(cfg)
	if err != nil {
		log.Fatalf("build cache: %v", err)
	}

	var rec *trace.Recorder
	if path := os.Getenv("REGCACHE_TRACE_DB"); path != "" {
		rec, err = trace.Open(path)
		if err != nil {
			log.Fatalf("open trace db: %v", err)
		}
		defer rec.Close()
		log.Printf("tracing operations to %s", path)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(cache, rec),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("starting server on %s (entries=%d key=%db value=%db word=%db)",
		addr, cfg.Entries, cfg.KeyBits, cfg.ValueBits, cfg.WordBits)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server failed: %v", err)
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("bad %s=%q: %v", key, v, err)
	}
	return n
}
