package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cryptotracker/internal"
	"cryptotracker/internal/presentation"
	"cryptotracker/internal/pricefeed"
	"cryptotracker/internal/ui"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := internal.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid log level")
	}
	zerolog.SetGlobalLevel(level)

	location, err := cfg.History.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid history timezone")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := internal.NewCoinCapClient(cfg.API, location)
	controller := presentation.NewCoinListController(ctx, client, presentation.ControllerConfig{
		HistoryWindow: cfg.History.Window,
		Location:      location,
	})

	if cfg.LivePrices.Enabled {
		go runPriceFeed(ctx, cfg.LivePrices.URL, controller)
	}

	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowTitle(cfg.Window.Title)

	g, err := ui.NewGame(ctx, controller, ebiten.Monitor().DeviceScaleFactor())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create game")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
		controller.Close()
		os.Exit(0)
	}()

	log.Info().Str("api", cfg.API.BaseURL).Msg("starting crypto tracker")
	if err := ebiten.RunGame(g); err != nil {
		log.Error().Err(err).Msg("game stopped")
	}

	cancel()
	g.Close()
	controller.Close()
}

// runPriceFeed waits for the first coin list and streams live prices for it.
func runPriceFeed(ctx context.Context, url string, controller *presentation.CoinListController) {
	sub := controller.SubscribeState()
	defer sub.Close()

	var assets []string
	for len(assets) == 0 {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-sub.C():
			if !ok {
				return
			}
			for _, coin := range state.Coins {
				assets = append(assets, coin.ID)
			}
		}
	}

	feed, err := pricefeed.New(pricefeed.Config{URL: url, Assets: assets}, controller)
	if err != nil {
		log.Error().Err(err).Msg("price feed not started")
		return
	}
	if err := feed.Run(ctx); err != nil {
		log.Warn().Err(err).Msg("price feed ended")
	}
}
