package main

import (
	"context"
	"fmt"

	"clipshare/auth"
	"clipshare/config"
	"clipshare/db"
	"clipshare/filemgr"
	"clipshare/mq"
	"clipshare/rdx"

	"github.com/sirupsen/logrus"
)

type eventBus interface {
	mq.Publisher
	mq.Subscriber
}

// backends bundles the external services one process talks to.
type backends struct {
	store   db.Store
	bus     eventBus
	tokens  auth.TokenStore
	blobs   filemgr.BlobStore
	closers []func() error
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		_ = b.closers[i]()
	}
}

// openBackends connects to MongoDB, Redis and MinIO, or builds in-process
// stand-ins when DOC_STORE=memory.
func openBackends(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*backends, error) {
	log := logger.WithField("component", "backends")

	if cfg.DocStore == config.StoreMemory {
		log.Warn("running with in-memory store, bus and blobs; nothing is persisted")
		return &backends{
			store:  db.NewMemoryStore(),
			bus:    mq.NewLocalBus(256),
			tokens: auth.NewMemoryTokenStore(),
			blobs:  filemgr.NewMemoryStore(),
		}, nil
	}

	be := &backends{}

	mongoClient, err := db.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	be.closers = append(be.closers, func() error { return mongoClient.Disconnect(context.Background()) })
	be.store = db.NewMongoStore(mongoClient, cfg.MongoDB)

	redisClient, err := rdx.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		be.Close()
		return nil, err
	}
	be.closers = append(be.closers, redisClient.Close)
	be.bus = mq.NewRedisBus(redisClient, logger.WithField("component", "mq"))
	be.tokens = auth.NewRedisTokenStore(redisClient)

	minioClient, err := filemgr.NewMinioClient(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
	if err != nil {
		be.Close()
		return nil, err
	}
	blobs := filemgr.NewMinioStore(minioClient, cfg.MinioBucket, cfg.URLExpiry)
	if err := blobs.EnsureBucket(ctx); err != nil {
		be.Close()
		return nil, fmt.Errorf("blob store: %w", err)
	}
	be.blobs = blobs

	log.WithFields(logrus.Fields{
		"mongo_db": cfg.MongoDB,
		"redis":    cfg.RedisAddr,
		"bucket":   cfg.MinioBucket,
	}).Info("backends connected")
	return be, nil
}
