package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"

	"github.com/roastedworld/roasted/internal/config"
	"github.com/roastedworld/roasted/internal/infra/chain"
	"github.com/roastedworld/roasted/internal/infra/database"
	"github.com/roastedworld/roasted/internal/infra/gateway"
	"github.com/roastedworld/roasted/internal/infra/repository"
	"github.com/roastedworld/roasted/internal/present/rest"
	"github.com/roastedworld/roasted/internal/service"
	"github.com/roastedworld/roasted/internal/usecase"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if conf.Server.EnableTrace {
		cleanup, err := setupTraceProvider(conf.Server.TraceEndpoint, "roasted")
		if err != nil {
			slog.Error("failed to setup trace provider", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer cleanup()
	}

	db, err := database.NewPostgres(conf.Server.PostgresDsn)
	if err != nil {
		slog.Error("failed to connect database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := database.MigratePostgres(db); err != nil {
		slog.Error("failed to migrate database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rdb := database.NewRedis(conf.Server.RedisAddr, "", conf.Server.RedisDB)
	mc := database.NewMemcached(conf.Server.MemcachedAddr)

	committer, err := chain.NewCommitter(
		conf.Chain.RpcEndpoint,
		conf.Chain.ContractAddress,
		conf.Chain.PrivateKey,
		conf.Chain.ChainID,
		time.Duration(conf.Chain.ConfirmTimeoutSeconds)*time.Second,
	)
	if err != nil {
		slog.Error("failed to setup chain committer", slog.String("error", err.Error()))
		os.Exit(1)
	}

	identityRepo := repository.NewIdentityRepository(db)
	indexer := gateway.NewIndexerGateway(conf.Services.IndexerEndpoint, conf.Services.CollectionAddress, mc)
	anchor := gateway.NewPinGateway(conf.Services.AnchorEndpoint, conf.Services.AnchorToken)
	generator := gateway.NewGeneratorGateway(conf.Services.AIEndpoint, conf.Services.AIKey, conf.Services.AIModel)
	quoter := gateway.NewQuoteGateway(conf.Services.QuoteEndpoint)

	signal := service.NewSignalService(rdb)
	links := service.NewLinkTokenService(service.NewRedisTokenStore(rdb), conf.Server.LinkSecret)

	identityUC := usecase.NewIdentityUsecase(identityRepo)
	feedUC := usecase.NewFeedUsecase(indexer)
	accountUC := usecase.NewAccountUsecase(committer, quoter, identityRepo)

	newComposer := func() *usecase.Composer {
		return usecase.NewComposer(identityRepo, anchor, committer, generator, signal, nil)
	}

	handler := rest.NewHandler(identityUC, feedUC, accountUC, newComposer, quoter, signal, links)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware("roasted"))
	}

	handler.RegisterRoutes(e)

	e.Logger.Fatal(e.Start(conf.Server.Listen))
}

func setupTraceProvider(endpoint string, serviceName string) (func(), error) {
	ctx := context.Background()

	exporter, err := otlptracehttp.New(
		ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
	)

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown trace provider", slog.String("error", err.Error()))
		}
	}
	return cleanup, nil
}
