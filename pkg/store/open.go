package store

import (
	"context"

	"github.com/matzehuels/featuremap/pkg/config"
	ferrors "github.com/matzehuels/featuremap/pkg/errors"
)

// Open builds the backend selected by cfg.Store.Backend, wrapped with
// [Observe].
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	sc := cfg.Store
	switch sc.Backend {
	case config.BackendFile, "":
		dir, err := cfg.BoardDir()
		if err != nil {
			return nil, wrapf(err, "resolve board dir")
		}
		s, err := NewFileStore(dir)
		if err != nil {
			return nil, err
		}
		return Observe(s, config.BackendFile), nil

	case config.BackendRedis:
		s, err := NewRedisStore(ctx, sc.RedisAddr, sc.RedisPassword, sc.RedisDB, WithPrefix(sc.RedisPrefix))
		if err != nil {
			return nil, err
		}
		return Observe(s, config.BackendRedis), nil

	case config.BackendMongo:
		s, err := NewMongoStore(ctx, sc.MongoURI, sc.MongoDatabase, sc.MongoCollection)
		if err != nil {
			return nil, err
		}
		return Observe(s, config.BackendMongo), nil
	}
	return nil, ferrors.New(ferrors.ErrCodeInvalidConfig, "unknown store backend %q", sc.Backend)
}
