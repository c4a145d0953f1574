/*
RideWalk Simulation Engine

Matches walkers to passing drivers along their route and animates the
resulting rides on a shared logical clock, streaming snapshots over HTTP,
WebSocket, Redis, and optionally Kafka.
*/
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ubi-africa/ridewalk/internal/config"
	"github.com/ubi-africa/ridewalk/internal/dispatcher"
	"github.com/ubi-africa/ridewalk/internal/routing"
	"github.com/ubi-africa/ridewalk/internal/snapshot"
	"github.com/ubi-africa/ridewalk/internal/transport"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("NODE_ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg := config.Load()

	app, err := initializeApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer app.cleanup()

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      app.router.Handler([]string{"http://localhost:*"}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("environment", cfg.Environment).Msg("ridewalk simulation engine starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	stopTicking := make(chan struct{})
	go app.runTickLoop(cfg.TickInterval, stopTicking)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	close(stopTicking)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}

// app holds every wired dependency.
type app struct {
	disp       *dispatcher.Dispatcher
	router     *transport.Router
	hub        *transport.Hub
	publisher  *snapshot.Publisher
	redisClient *goredis.Client
	kafkaSink  *snapshot.KafkaSink
}

func initializeApp(cfg *config.Config) (*app, error) {
	osrm := routing.NewOSRMClient(routing.OSRMConfig{
		DrivingBaseURL: cfg.DrivingRoutingBaseURL,
		WalkingBaseURL: cfg.WalkingRoutingBaseURL,
		Timeout:        cfg.RoutingTimeout,
	})
	cachedRouting := routing.NewCachedClient(osrm, 0, 0)

	disp := dispatcher.New(dispatcher.Config{
		Matching:     cfg.Matching,
		InitialSpeed: cfg.InitialSpeed,
	}, cachedRouting)

	hub := transport.NewHub(disp)
	router := transport.NewRouter(disp, hub)

	sinks := []snapshot.Sink{hubSink{hub: hub}}

	var redisClient *goredis.Client
	if cfg.RedisURL != "" {
		opts, err := goredis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		redisClient = goredis.NewClient(opts)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Warn().Err(err).Msg("redis ping failed, continuing without redis sink")
			redisClient = nil
		} else {
			sinks = append(sinks, snapshot.NewRedisSink(redisClient, "ridewalk:positions"))
			log.Info().Msg("redis connection established")
		}
	}

	var kafkaSink *snapshot.KafkaSink
	if cfg.KafkaBrokers != "" {
		kafkaSink = snapshot.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		sinks = append(sinks, kafkaSink)
		log.Info().Str("topic", cfg.KafkaTopic).Msg("kafka sink configured")
	}

	if cfg.SnapshotFilePath != "" {
		sinks = append(sinks, snapshot.NewFileSink(cfg.SnapshotFilePath, 0, 0))
	}

	return &app{
		disp:        disp,
		router:      router,
		hub:         hub,
		publisher:   snapshot.New(sinks...),
		redisClient: redisClient,
		kafkaSink:   kafkaSink,
	}, nil
}

// runTickLoop advances the dispatcher's simulation clock at the
// dispatcher's own speed multiplier, sleeping tickInterval wall-clock
// between advances, mirroring the reference's `t += dt; time.sleep(0.05)`
// loop. The routes channel only pushes when routesVersion actually
// advances, mirroring write_routes_json's push-on-change contract; the
// positions channel publishes every tick.
func (a *app) runTickLoop(tickInterval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	ctx := context.Background()
	lastRoutesVersion := -1.0

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			dt := a.disp.Speed()
			snap := a.disp.Tick(ctx, dt)
			a.publisher.Publish(ctx, snap)

			if routes := a.disp.RoutesSnapshot(); routes.RoutesVersion != lastRoutesVersion {
				lastRoutesVersion = routes.RoutesVersion
				a.hub.BroadcastRoutes(routes)
			}
		}
	}
}

func (a *app) cleanup() {
	if a.redisClient != nil {
		a.redisClient.Close()
	}
	if a.kafkaSink != nil {
		a.kafkaSink.Close()
	}
}

// hubSink adapts the WebSocket Hub to the snapshot.Sink interface so it
// can be wired alongside the Redis/Kafka/file sinks.
type hubSink struct {
	hub *transport.Hub
}

func (s hubSink) Publish(ctx context.Context, payload []byte) error {
	s.hub.BroadcastPositionsRaw(payload)
	return nil
}
