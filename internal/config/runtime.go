package config

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tbushell/kbsync/internal/store"
)

// Runtime bundles the resources a command needs for one invocation:
// the open store and the shared logger. Close it when done.
type Runtime struct {
	Config *Config
	DB     *store.DB
	Logger *log.Logger

	logSink io.Closer
}

// Open materializes a Runtime from cfg: sets up the log sink, opens
// the store, and ensures the schema exists.
func Open(cfg *Config) (*Runtime, error) {
	rt := &Runtime{Config: cfg}

	out := io.Writer(os.Stderr)
	if cfg.LogFile != "" {
		sink := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     30, // days
		}
		rt.logSink = sink
		out = io.MultiWriter(os.Stderr, sink)
	}
	rt.Logger = log.New(out, "[kbsync] ", log.LstdFlags)

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		rt.closeSink()
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := db.InitSchema(context.Background()); err != nil {
		db.Close()
		rt.closeSink()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	rt.DB = db
	return rt, nil
}

// Close releases the store and the log sink.
func (rt *Runtime) Close() error {
	var first error
	if rt.DB != nil {
		first = rt.DB.Close()
	}
	if err := rt.closeSink(); err != nil && first == nil {
		first = err
	}
	return first
}

func (rt *Runtime) closeSink() error {
	if rt.logSink == nil {
		return nil
	}
	return rt.logSink.Close()
}
