// Command openfloor runs the trading simulator: a single-symbol exchange
// serving its event stream over a websocket, optionally alongside a swarm of
// in-process bot participants.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhleath/hft-simulator/bots"
	"github.com/jhleath/hft-simulator/exchange"
	"github.com/jhleath/hft-simulator/stream"
)

func main() {
	var (
		port     = flag.Int("port", 8008, "http listen port")
		botCount = flag.Int("bots", 0, "number of noise traders to launch alongside the exchange")
		connect  = flag.String("connect", "", "run only the bot swarm against a remote exchange at this websocket url")
	)
	flag.Parse()

	log := newLogger()

	if *connect != "" {
		runRemoteSwarm(log, *connect, *botCount)
		return
	}

	ex := exchange.New(log)
	defer ex.Stop()

	if *botCount > 0 {
		attach := func(name string) (stream.Conn, error) {
			return ex.Attach(name), nil
		}
		swarm := bots.DefaultSwarm(*botCount)
		sup := bots.NewSupervisor(attach, log, swarm...)
		go func() {
			if err := sup.Start(context.Background()); err != nil && err != context.Canceled {
				log.Error().Err(err).Msg("supervisor stopped")
			}
		}()
		log.Info().Int("bots", len(swarm)).Msg("launched bot swarm")
	}

	srv := exchange.NewServer(ex, log)
	addr := ":" + strconv.Itoa(*port)
	log.Info().Str("addr", addr).Msg("listening")
	if err := http.ListenAndServe(addr, srv.Routes()); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func runRemoteSwarm(log zerolog.Logger, url string, botCount int) {
	if botCount <= 0 {
		botCount = 10
	}
	connect := func(string) (stream.Conn, error) {
		return stream.Dial(url)
	}
	sup := bots.NewSupervisor(connect, log, bots.DefaultSwarm(botCount)...)
	log.Info().Str("url", url).Int("bots", botCount).Msg("connecting bot swarm")
	if err := sup.Start(context.Background()); err != nil && err != context.Canceled {
		log.Fatal().Err(err).Msg("supervisor stopped")
	}
}

func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var log zerolog.Logger
	if os.Getenv("LOG_FORMAT") == "pretty" {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		log = zerolog.New(os.Stdout)
	}
	return log.Level(level).With().Timestamp().Logger()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
