package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/storefront-backend/internal/cfg"
	v1Grpc "github.com/DRSN-tech/storefront-backend/internal/delivery/v1/grpc"
	v1Http "github.com/DRSN-tech/storefront-backend/internal/delivery/v1/http"
	"github.com/DRSN-tech/storefront-backend/internal/infrastructure/auth"
	"github.com/DRSN-tech/storefront-backend/internal/infrastructure/kafka"
	minioInfra "github.com/DRSN-tech/storefront-backend/internal/infrastructure/minio"
	s3Repo "github.com/DRSN-tech/storefront-backend/internal/repository/minio"
	"github.com/DRSN-tech/storefront-backend/internal/repository/mongorepo"
	mongoConv "github.com/DRSN-tech/storefront-backend/internal/repository/mongorepo/converter"
	"github.com/DRSN-tech/storefront-backend/internal/repository/redis"
	redisConv "github.com/DRSN-tech/storefront-backend/internal/repository/redis/converter"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/clients"
	"github.com/DRSN-tech/storefront-backend/pkg/closer"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/DRSN-tech/storefront-backend/pkg/mongodb"
	"github.com/DRSN-tech/storefront-backend/pkg/tr"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const (
	startupTimeout  = 10 * time.Second
	shutdownTimeout = 15 * time.Second
	forcedTimeout   = 5 * time.Second
)

type App struct {
	cfg    *config.Config
	logger logger.Logger
	closer *closer.Closer

	httpSrv      *v1Http.Server
	grpcSrv      *v1Grpc.GRPCServer
	outboxWorker *kafka.OutboxWorker
	imagesInfra  *minioInfra.MinioInfrastructure

	// отменяется при остановке: фоновые задачи (очистка MinIO, outbox) завершаются
	bgCtx    context.Context
	bgCancel context.CancelFunc
}

// NewApp поднимает все зависимости. При ошибке уже открытые ресурсы закрываются.
func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	bgCtx, bgCancel := context.WithCancel(context.Background())
	a := &App{
		cfg:      cfg,
		logger:   log,
		closer:   closer.NewCloser(forcedTimeout),
		bgCtx:    bgCtx,
		bgCancel: bgCancel,
	}

	if err := a.init(); err != nil {
		bgCancel()
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if cerr := a.closer.Close(ctx); cerr != nil {
			log.Warnf("cleanup after failed start: %v", cerr)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return a, nil
}

func (a *App) init() error {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	// === MongoDB ===
	db, err := mongodb.Connect(ctx, a.cfg.Mongo)
	if err != nil {
		a.logger.Errorf(err, "failed to connect to mongodb")
		return err
	}
	a.closer.Add("mongodb", db.Close)

	if err := db.Ping(ctx); err != nil {
		a.logger.Errorf(err, "failed to ping mongodb")
		return err
	}
	if err := db.EnsureIndexes(ctx, a.logger); err != nil {
		a.logger.Errorf(err, "failed to create mongodb indexes")
		return err
	}
	txManager := tr.NewManager(db.Client, a.cfg.Mongo.UseTransactions)
	if !txManager.Enabled() {
		a.logger.Warnf("MongoDB transactions disabled: checkout relies on conditional updates and compensation only")
	}

	productRepo := mongorepo.NewProductRepo(db, mongoConv.NewProductConverter(), a.logger)
	categoryRepo := mongorepo.NewCategoryRepo(db, mongoConv.NewCategoryConverter(), a.logger)
	cartRepo := mongorepo.NewCartRepo(db, mongoConv.NewCartConverter(), a.logger)
	orderRepo := mongorepo.NewOrderRepo(db, mongoConv.NewOrderConverter(), a.logger)
	reviewRepo := mongorepo.NewReviewRepo(db, mongoConv.NewReviewConverter(), a.logger)
	userRepo := mongorepo.NewUserRepo(db, mongoConv.NewUserConverter(), a.logger)
	outboxRepo := mongorepo.NewOutboxEventRepo(db, mongoConv.NewOutboxEventConverter(), a.logger)

	// === Redis ===
	redisClient := clients.NewRedisClient(a.cfg.Redis)
	a.closer.Add("redis", redisClient.Close)
	if err := redisClient.Ping(ctx); err != nil {
		a.logger.Errorf(err, "failed to connect to redis")
		return err
	}
	cacheRepo := redis.NewCacheRepo(redisClient, redisConv.NewProductInfoConverter(), a.cfg.Redis, a.logger)

	// === MinIO ===
	minioClient, err := clients.NewMinIOClient(a.cfg.Minio)
	if err != nil {
		a.logger.Errorf(err, "failed to initialize minio client")
		return err
	}
	if err := clients.EnsureBucket(ctx, minioClient, a.cfg.Minio.BucketName); err != nil {
		a.logger.Errorf(err, "failed to initialize MinIO bucket")
		return err
	}
	imageRepo := s3Repo.NewImageRepo(minioClient, a.cfg.Minio)
	a.imagesInfra = minioInfra.NewMinioInfrastructure(imageRepo, a.cfg.Minio, a.logger, a.bgCtx)

	// === Kafka ===
	producer, err := kafka.NewProducer(a.logger, a.cfg.Kafka)
	if err != nil {
		a.logger.Errorf(err, "failed to initialize kafka producer")
		return err
	}
	a.closer.Add("kafka producer", func(context.Context) error { return producer.Close() })
	if err := producer.EnsureTopic(ctx); err != nil {
		// топик может создаваться внешним провиженингом
		a.logger.Warnf("failed to ensure kafka topic %s: %v", a.cfg.Kafka.Topic, err)
	}
	a.outboxWorker = kafka.NewOutboxWorker(outboxRepo, a.logger, producer, a.cfg.Kafka)

	// === Identity ===
	tokens := auth.NewJWTManager(a.cfg.Auth)
	hasher := auth.NewBcryptHasher(0)

	// === Use cases ===
	catalogUC := usecase.NewCatalogUC(productRepo, categoryRepo, orderRepo, a.imagesInfra, cacheRepo, a.logger)
	cartUC := usecase.NewCartUC(cartRepo, productRepo, a.logger)
	inventoryUC := usecase.NewInventoryUC(productRepo, a.logger)
	orderUC := usecase.NewOrderUC(
		cartUC,
		inventoryUC,
		orderRepo,
		productRepo,
		userRepo,
		outboxRepo,
		txManager,
		a.cfg.Order.Location,
		a.logger,
	)
	reviewUC := usecase.NewReviewUC(reviewRepo, orderRepo, productRepo, a.logger)
	userUC := usecase.NewUserUC(userRepo, hasher, tokens, a.logger)

	// === Delivery ===
	a.grpcSrv = v1Grpc.NewGRPCServer(a.cfg.Grpc, a.logger)
	a.grpcSrv.RegisterServices(catalogUC, inventoryUC)

	r := chi.NewRouter()
	v1Http.NewRouter(r, a.logger, a.cfg.Http.RequestTimeout).Init(v1Http.UseCases{
		Catalog:   catalogUC,
		Cart:      cartUC,
		Inventory: inventoryUC,
		Order:     orderUC,
		Review:    reviewUC,
		User:      userUC,
	})
	a.httpSrv = v1Http.NewServer(r, a.cfg.Http)

	return nil
}

// Run запускает серверы и outbox-воркер и блокируется до сигнала или фатальной ошибки сервера.
func (a *App) Run() error {
	a.outboxWorker.Start(a.bgCtx)

	grpcErrCh := make(chan error, 1)
	go func() {
		a.logger.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
		if err := a.grpcSrv.Start(); err != nil {
			a.logger.Errorf(err, "gRPC server failed")
			grpcErrCh <- err
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil {
			a.logger.Errorf(err, "HTTP server failed")
			errCh <- err
		}
	}()

	// === Ожидание сигнала или ошибки ===
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case appErr = <-grpcErrCh:
		a.logger.Errorf(appErr, "gRPC server fatal error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	a.shutdown()
	a.logger.Infof("Application shutdown complete")

	return appErr
}

// shutdown: сначала входящий трафик, затем фоновые задачи, затем соединения с хранилищами.
func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.httpSrv.Stop(ctx); err != nil {
		a.logger.Errorf(err, "HTTP server shutdown error")
	} else {
		a.logger.Infof("HTTP server stopped")
	}

	if err := a.grpcSrv.Stop(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			a.logger.Warnf("gRPC server shutdown timeout")
		} else {
			a.logger.Errorf(err, "gRPC server shutdown error")
		}
	}

	a.outboxWorker.Stop()
	a.logger.Infof("Outbox worker stopped")

	if err := a.imagesInfra.WaitForCleanup(ctx); err != nil {
		a.logger.Warnf("MinIO cleanup did not finish before shutdown, some orphaned objects may remain: %v", err)
	} else {
		a.logger.Infof("MinIO cleanup completed")
	}
	a.bgCancel()

	if err := a.closer.Close(ctx); err != nil {
		a.logger.Errorf(err, "failed to close resources")
	}
}
