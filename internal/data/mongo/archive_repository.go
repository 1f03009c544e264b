package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fahrtenbuch-logbook/internal/domain/entry"
)

const (
	// ArchiveCollectionName is the name of the archived entries collection in MongoDB
	ArchiveCollectionName = "archived_entries"
)

// ArchiveRepository implements the entry.ArchiveRepository interface for MongoDB
type ArchiveRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewArchiveRepository creates a new MongoDB archive repository
func NewArchiveRepository(logger *slog.Logger, db *mongo.Database) entry.ArchiveRepository {
	return &ArchiveRepository{
		db:     db,
		logger: logger,
	}
}

// Store upserts the entries keyed by their local ID, so re-running an interrupted
// archive pass never duplicates documents.
func (r *ArchiveRepository) Store(ctx context.Context, entries []*entry.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	collection := r.db.Collection(ArchiveCollectionName)

	models := make([]mongo.WriteModel, 0, len(entries))
	for _, e := range entries {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": e.ID}).
			SetReplacement(entry.NewArchivedEntry(e)).
			SetUpsert(true))
	}

	_, err := collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		r.logger.Error("Failed to archive entries",
			"count", len(entries),
			"error", err)
		return fmt.Errorf("failed to archive entries: %w", err)
	}

	return nil
}

// GetByID retrieves an archived entry by its original local ID.
// Returns ErrEntryNotFound if the entry was never archived.
func (r *ArchiveRepository) GetByID(ctx context.Context, id int64) (*entry.ArchivedEntry, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	var archived entry.ArchivedEntry
	err := collection.FindOne(ctx, bson.M{"_id": id}).Decode(&archived)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entry.ErrEntryNotFound{ID: id}
		}
		r.logger.Error("Failed to get archived entry",
			"entry_id", id,
			"error", err)
		return nil, fmt.Errorf("failed to get archived entry: %w", err)
	}

	return &archived, nil
}

// Count returns the number of archived entries
func (r *ArchiveRepository) Count(ctx context.Context) (int64, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	count, err := collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		r.logger.Error("Failed to count archived entries", "error", err)
		return 0, fmt.Errorf("failed to count archived entries: %w", err)
	}

	return count, nil
}
