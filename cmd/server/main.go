package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/stream-decoder/internal/db"
	"github.com/airenas/stream-decoder/internal/engine"
	"github.com/airenas/stream-decoder/internal/handlers"
	"github.com/airenas/stream-decoder/internal/model"
	"github.com/airenas/stream-decoder/internal/notify"
	"github.com/airenas/stream-decoder/internal/service"
	"github.com/labstack/gommon/color"
)

func main() {
	goapp.StartWithDefault()

	printBanner()

	cfg := goapp.Config
	cfg.SetDefault("port", 8000)
	cfg.SetDefault("model.backend", model.BackendStub)
	cfg.SetDefault("ws.pushInterval", 200*time.Millisecond)
	cfg.SetDefault("redis.ttl", 6*time.Hour)
	cfg.SetDefault("sessions.idleTimeout", 10*time.Minute)

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	hList := handlers.NewListHandler()
	hList.Add(handlers.NewCleaner())
	if url := cfg.GetString("joiner.url"); url != "" {
		joiner, err := handlers.NewJoiner(url)
		if err != nil {
			goapp.Log.Fatal().Err(err).Msg("can't init joiner")
		}
		hList.Add(joiner)
	}
	if url := cfg.GetString("punctuator.url"); url != "" {
		punctuator, err := handlers.NewPunctuator(url)
		if err != nil {
			goapp.Log.Fatal().Err(err).Msg("can't init punctuator")
		}
		hList.Add(punctuator)
	}

	var store service.RecordingStore
	if url := cfg.GetString("redis.url"); url != "" {
		rdb, err := db.NewRedisDataManager(url, cfg.GetString("encryption.key"), cfg.GetDuration("redis.ttl"))
		if err != nil {
			goapp.Log.Fatal().Err(err).Msg("can't init redis")
		}
		defer rdb.Close()
		store = rdb
	} else {
		store = db.NewMemoryDataManager()
	}

	var notifier service.Notifier
	if slack := notify.NewSlack(cfg.GetString("slack.url")); slack != nil {
		notifier = slack
	}

	factory := &engine.Factory{
		SpeechThreshold:  cfg.GetFloat64("endpoint.speechThreshold"),
		SilenceThreshold: cfg.GetFloat64("endpoint.silenceThreshold"),
		Rules: engine.EndpointRules{
			Rule1: cfg.GetDuration("endpoint.rule1"),
			Rule2: cfg.GetDuration("endpoint.rule2"),
			Rule3: cfg.GetDuration("endpoint.rule3"),
		},
	}
	mCfg := model.Config{
		Dir:             cfg.GetString("model.dir"),
		Backend:         cfg.GetString("model.backend"),
		ChunkSize:       cfg.GetInt("model.chunkSize"),
		CTCWeight:       cfg.GetFloat64("model.ctcWeight"),
		RescoringWeight: cfg.GetFloat64("model.rescoringWeight"),
		SampleRate:      cfg.GetInt("model.sampleRate"),
		FeatureDim:      cfg.GetInt("model.featureDim"),
		Threads:         cfg.GetInt("model.threads"),
	}
	sessions, err := service.NewSessionManager(factory, hList, mCfg, store, notifier)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init sessions")
	}
	sessions.StartReaper(ctx, cfg.GetDuration("sessions.idleTimeout"))

	data := &service.Data{}
	data.Ctx = ctx
	data.Port = cfg.GetInt("port")
	data.Sessions = sessions
	data.Store = store
	data.PushInterval = cfg.GetDuration("ws.pushInterval")

	doneCh, err := service.StartWebServer(data)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start web server")
	}

	/////////////////////// Waiting for terminate
	waitCh := make(chan os.Signal, 2)
	signal.Notify(waitCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-waitCh:
		goapp.Log.Info().Msg("Got exit signal")
	case <-doneCh:
		goapp.Log.Info().Msg("Service exit")
	}
	cancelFunc()
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	sessions.Close(stopCtx)
	select {
	case <-doneCh:
		goapp.Log.Info().Msg("All code returned. Now exit. Bye")
	case <-time.After(time.Second * 15):
		goapp.Log.Warn().Msg("Timeout gracefull shutdown")
	}
}

var (
	version = "DEV"
)

func printBanner() {
	banner :=
		`
    STREAM DECODER v: %s
	
%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("https://github.com/airenas/stream-decoder"))
}
