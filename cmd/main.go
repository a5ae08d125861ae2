package main

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/learninverse/server/config"
	"github.com/learninverse/server/internal/consumer"
	"github.com/learninverse/server/internal/handlers"
	"github.com/learninverse/server/internal/repositories"
	"github.com/learninverse/server/internal/routers"
	"github.com/learninverse/server/internal/services"
	"github.com/learninverse/server/internal/session"
	"github.com/learninverse/server/internal/storage"
	"github.com/learninverse/server/internal/utils"
	"github.com/learninverse/server/internal/ws"
	"github.com/learninverse/server/middleware/jwt"
	"github.com/learninverse/server/middleware/log"
	"github.com/learninverse/server/pkg/mq"
	"github.com/learninverse/server/utils/ratelimit"
	"github.com/learninverse/server/utils/snowflake"
)

func main() {
	cfg, err := config.LoadConfig("./config.toml")
	if err != nil {
		panic("load config: " + err.Error())
	}

	logger, err := log.NewLogger(&cfg.Logging)
	if err != nil {
		panic("init logger: " + err.Error())
	}
	defer logger.Close()

	// bounded worker pool for the async request middleware
	utils.InitGlobalWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize)

	dsn := storage.BuildDSN(cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.DBName)
	postgres, err := storage.InitPostgres(dsn, cfg.Postgres.MaxIdleConns, cfg.Postgres.MaxOpenConns)
	if err != nil {
		logger.Fatal("postgres init failed", zap.Error(err))
	}

	redisClient, err := storage.InitRedis(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize, cfg.Redis.MinIdleConns)
	if err != nil {
		logger.Fatal("redis init failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tokens := jwt.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpireHours, cfg.JWT.RefreshHours)

	sessionTTL := time.Duration(cfg.JWT.ExpireHours) * time.Hour
	sessions := session.NewStore(redisClient, sessionTTL, logger.Logger)
	if err := sessions.Start(ctx); err != nil {
		logger.Fatal("session store init failed", zap.Error(err))
	}
	defer sessions.Stop()

	limiter := ratelimit.NewWindowLimiter(redisClient, logger.Logger, true)

	ids, err := snowflake.NewGenerator(1)
	if err != nil {
		logger.Fatal("snowflake init failed", zap.Error(err))
	}

	userRepo := repositories.NewUserRepository(postgres)
	groupRepo := repositories.NewGroupRepository(postgres)
	messageRepo := repositories.NewMessageRepository(postgres)
	chatRepo := repositories.NewPrivateChatRepository(postgres)

	// Kafka carries persisted messages to all nodes; without it the hub
	// delivers locally (degraded mode)
	kafkaProducer, err := mq.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger.Logger)
	if err != nil {
		logger.Warn("kafka unavailable, running in degraded direct-delivery mode", zap.Error(err))
		kafkaProducer = nil
	} else {
		defer kafkaProducer.Close()
	}

	hub := ws.NewHub(redisClient, logger.Logger)
	go hub.Run(ctx)

	var sink services.MessageSink = hub
	if kafkaProducer != nil {
		sink = kafkaProducer
		msgConsumer := consumer.NewMessageConsumer(hub, logger.Logger)
		if err := consumer.StartConsumer(ctx, cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic, msgConsumer, logger.Logger); err != nil {
			logger.Fatal("kafka consumer init failed", zap.Error(err))
		}
	}

	authService := services.NewAuthService(userRepo, tokens, sessions)
	userService := services.NewUserService(userRepo, sessions)
	groupService := services.NewGroupService(groupRepo, userRepo)
	messageService := services.NewMessageService(messageRepo, groupRepo, chatRepo, userRepo, redisClient, ids, sink, logger.Logger)

	authHandler := handlers.NewAuthHandler(authService, logger.Logger)
	userHandler := handlers.NewUserHandler(userService, logger.Logger)
	groupHandler := handlers.NewGroupHandler(groupService, logger.Logger)
	messageHandler := handlers.NewMessageHandler(messageService, logger.Logger)

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())

	routers.SetupRoutes(r, &routers.Deps{
		Config:         cfg,
		Logger:         logger,
		Tokens:         tokens,
		Sessions:       sessions,
		Limiter:        limiter,
		AuthHandler:    authHandler,
		UserHandler:    userHandler,
		GroupHandler:   groupHandler,
		MessageHandler: messageHandler,
		Hub:            hub,
		MessageSvc:     messageService,
		GroupSvc:       groupService,
	})

	logger.Info("server starting", zap.Int("port", cfg.Server.Port))
	if err := r.Run(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
