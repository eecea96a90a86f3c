package main

import (
	"context"
	"flag"
	"greenmq"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var config *greenmq.Config

func init() {
	configFilePath := flag.String("c", "./cmd/config.toml", "path to configuration file.")
	flag.Parse()
	config = greenmq.LoadConfig(*configFilePath)
	initLog(config)
}

func initLog(config *greenmq.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level, err := zerolog.ParseLevel(config.Global.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func main() {
	log.Info().Msg("starting echo pair...")
	greenmq.RaiseFdLimit()

	if config.Events.KafkaBrokers != "" {
		err := greenmq.InitKafkaEventRouter(context.Background(), config.Events)
		if err != nil {
			log.Error().Msgf("can't init kafka event router: %+v", err)
		}
	}

	loop, err := greenmq.NewEventLoop(greenmq.EventLoopConfig{
		Name:            config.Loop.Name,
		LockOsThread:    config.Loop.LockOsThread,
		EventBufferSize: config.Loop.EventBufferSize,
	})
	if err != nil {
		log.Fatal().Msgf("can't init event loop: %+v", err)
	}
	go loop.Start()
	defer loop.Stop()

	pairCtx := greenmq.NewPairContext(config.Socket)
	defer pairCtx.Close()
	mqCtx := greenmq.NewContext(pairCtx, loop, greenmq.ContextConfig{
		SpinThreshold: config.Socket.SpinThreshold,
	})

	rawA, rawB, err := pairCtx.SocketPair()
	if err != nil {
		log.Fatal().Msgf("can't create socket pair: %+v", err)
	}
	a, err := mqCtx.Wrap(rawA)
	if err != nil {
		log.Fatal().Msgf("can't wrap socket: %+v", err)
	}
	b, err := mqCtx.Wrap(rawB)
	if err != nil {
		log.Fatal().Msgf("can't wrap socket: %+v", err)
	}
	defer a.Close()
	defer b.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		msg, err := b.Recv(0)
		if err != nil {
			log.Error().Msgf("recv failed: %+v", err)
			return
		}
		log.Info().Msgf("received: %s", msg)
		if err := b.Send(msg, 0); err != nil {
			log.Error().Msgf("echo send failed: %+v", err)
		}
	}()

	if err := a.Send([]byte("ping"), 0); err != nil {
		log.Fatal().Msgf("send failed: %+v", err)
	}
	reply, err := a.Recv(0)
	if err != nil {
		log.Fatal().Msgf("recv failed: %+v", err)
	}
	<-done
	log.Info().Msgf("echo reply: %s stats: %+v", reply, a.Stats())
}
