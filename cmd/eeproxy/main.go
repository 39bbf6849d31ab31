package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/machinefabric/eeproxy-go/address"
	"github.com/machinefabric/eeproxy-go/config"
	"github.com/machinefabric/eeproxy-go/logging"
	"github.com/machinefabric/eeproxy-go/proxy"
	"github.com/machinefabric/eeproxy-go/score"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	addr := flag.String("addr", "", "service manager address (overrides config)")
	network := flag.String("network", "", "unix or tcp (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath, *network, *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "eeproxy: %v\n", err)
		os.Exit(2)
	}

	log := logging.New("eeproxy", cfg.LogLevel)
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("sandbox stopped")
	}
}

func loadConfig(path, network, addr string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return config.Config{}, err
		}
	}
	if network != "" {
		cfg.Network = network
	}
	if addr != "" {
		cfg.Address = addr
	}
	return cfg, cfg.Validate()
}

func run(cfg config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := proxy.Connect(ctx, cfg.Network, cfg.Address, cfg.Limits)
	if err != nil {
		return err
	}
	defer p.Close()

	// Loop blocks in a read; closing the connection unblocks it.
	go func() {
		<-ctx.Done()
		p.Close()
	}()

	p.SetLogger(log.With().Str("component", "proxy").Logger())
	p.SetCodec(address.Codec{})

	registry := score.NewRegistry(p)
	registry.SetLogger(log.With().Str("component", "score").Logger())
	if err := registry.Register(helloCode, helloContract()); err != nil {
		return err
	}
	p.SetInvokeHandler(registry.Invoke)
	p.SetAPIHandler(registry.API)

	log.Info().Str("network", cfg.Network).Str("address", cfg.Address).Str("session", p.Session()).Msg("connected")
	if err := p.SendVersion(cfg.Version, os.Getpid(), cfg.Name); err != nil {
		return err
	}
	if err := p.Loop(); err != nil && ctx.Err() == nil {
		return err
	}
	log.Info().Msg("service manager closed the connection")
	return nil
}
