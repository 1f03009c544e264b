package persistence

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fahrtenbuch-logbook/internal/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const archiveAppName = "fahrtenbuch-archiver"

// MongoDB is the long-term home of synced entries once they leave the device store.
// It is only opened when archiving is enabled.
type MongoDB struct {
	logger   *slog.Logger
	client   *mongo.Client
	database *mongo.Database
}

func NewMongoDB(ctx context.Context, logger *slog.Logger, cfg *config.MongoDBConfig) (*MongoDB, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, archiveClientOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to archive: %w", err)
	}

	// Primary only, archived entries are written before the local copy is deleted
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("archive primary unreachable: %w", err)
	}

	logger.Info("Archive database ready", "database", cfg.Database)
	return &MongoDB{
		logger:   logger,
		client:   client,
		database: client.Database(cfg.Database),
	}, nil
}

// archiveClientOptions requires majority acknowledgement so an archived batch cannot
// be lost after its local rows are purged.
func archiveClientOptions(cfg *config.MongoDBConfig) *options.ClientOptions {
	return options.Client().
		ApplyURI(cfg.URI).
		SetAppName(archiveAppName).
		SetTimeout(cfg.Timeout).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetMaxConnIdleTime(cfg.MaxConnIdleTime).
		SetWriteConcern(writeconcern.Majority())
}

func (m *MongoDB) Database() *mongo.Database {
	return m.database
}

func (m *MongoDB) Close(ctx context.Context) error {
	if err := m.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect archive client: %w", err)
	}
	m.logger.Info("Archive database closed")
	return nil
}
