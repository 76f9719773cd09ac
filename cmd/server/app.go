package main

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"ebook_checkout/internal/config"
	"ebook_checkout/internal/events"
	"ebook_checkout/internal/gateway"
	"ebook_checkout/internal/repository"
	"ebook_checkout/internal/usecase"
)

type store interface {
	usecase.Store
	Close() error
}

type app struct {
	cfg   config.Config
	store store
	pub   *events.AMQPPublisher
	uc    *usecase.PaymentUsecase
}

func openStore(cfg config.Config) (store, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return repository.NewMemoryRepo(), nil
	case config.BackendPostgres:
		return repository.NewPostgresRepo(cfg.PostgresDSN)
	default:
		return repository.NewSQLiteRepo(cfg.SQLiteDSN)
	}
}

func newApp(cfg config.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.ZenoPayAPIKey == "" {
		log.Warn().Msg("ZENOPAY_API_KEY is not set; gateway calls will be rejected")
	}

	st, err := openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}

	a := &app{cfg: cfg, store: st}

	// Leave the interface nil unless a broker is connected.
	var pub usecase.Publisher
	if cfg.AMQPURL != "" {
		p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.EventsExchange)
		if err != nil {
			log.Error().Err(err).Msg("events disabled: broker unavailable")
		} else {
			a.pub = p
			pub = p
		}
	}

	strategy := usecase.StrategyGateway
	if cfg.StatusStrategy == config.StrategyLocal {
		strategy = usecase.StrategyLocal
	}
	policy := usecase.PolicyStrict
	if cfg.GatewayErrorPolicy == config.PolicyLenient {
		policy = usecase.PolicyLenient
	}

	gw := gateway.NewClient(cfg.ZenoPayBaseURL, cfg.ZenoPayAPIKey, cfg.GatewayTimeout)
	uc, err := usecase.NewPaymentUsecase(st, gw, pub, usecase.Options{
		Price:       cfg.Price,
		Prefix:      cfg.ProductPrefix,
		Strategy:    strategy,
		ErrorPolicy: policy,
		CacheSize:   cfg.StatusCacheSize,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.uc = uc

	log.Info().
		Str("store", cfg.StoreBackend).
		Str("strategy", cfg.StatusStrategy).
		Str("error_policy", cfg.GatewayErrorPolicy).
		Int64("price", cfg.Price).
		Bool("events", a.pub != nil).
		Msg("payment service ready")

	return a, nil
}

func (a *app) Close() {
	if a.pub != nil {
		a.pub.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Error().Err(err).Msg("close store")
		}
	}
}
