package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/paklog/wave-planning-service/internal/domain"
	"github.com/paklog/wave-planning-service/internal/infrastructure/events"
	"github.com/paklog/wave-planning-service/pkg/metrics"
	"github.com/paklog/wave-planning-service/pkg/mongodb"
)

const wavesCollection = "waves"

// WaveRepository implements domain.WaveRepository on MongoDB. Saves run
// in a transaction together with the wave's staged outbox events, and an
// optimistic version check guards against concurrent writers.
type WaveRepository struct {
	client     *mongodb.Client
	collection *mongo.Collection
	publisher  *events.WaveEventPublisher
	metrics    *metrics.Metrics
}

// NewWaveRepository creates a new WaveRepository
func NewWaveRepository(client *mongodb.Client, publisher *events.WaveEventPublisher, m *metrics.Metrics) *WaveRepository {
	return &WaveRepository{
		client:     client,
		collection: client.Collection(wavesCollection),
		publisher:  publisher,
		metrics:    m,
	}
}

// EnsureIndexes creates the indexes the finders rely on.
func (r *WaveRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "waveId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_waveId"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "plannedReleaseTime", Value: 1}},
			Options: options.Index().SetName("idx_status_plannedReleaseTime"),
		},
		{
			Keys:    bson.D{{Key: "warehouseId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_warehouseId_status"),
		},
		{
			Keys:    bson.D{{Key: "assignedZone", Value: 1}},
			Options: options.Index().SetName("idx_assignedZone"),
		},
		{
			Keys:    bson.D{{Key: "orderIds", Value: 1}},
			Options: options.Index().SetName("idx_orderIds"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_createdAt"),
		},
	}

	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create wave indexes: %w", err)
	}
	return nil
}

// Save persists the wave and its pending domain events in a single
// transaction. New waves are inserted; existing waves are replaced only
// when the stored version still matches, otherwise the save loses the
// race and returns domain.ErrVersionConflict.
func (r *WaveRepository) Save(ctx context.Context, wave *domain.Wave) error {
	start := time.Now()
	previousVersion := wave.Version
	wave.Version = previousVersion + 1
	wave.UpdatedAt = time.Now()

	err := r.client.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if previousVersion == 0 {
			if _, err := r.collection.InsertOne(sessCtx, wave); err != nil {
				if mongo.IsDuplicateKeyError(err) {
					return domain.ErrVersionConflict
				}
				return fmt.Errorf("failed to insert wave: %w", err)
			}
		} else {
			filter := bson.M{"waveId": wave.WaveID, "version": previousVersion}
			result, err := r.collection.ReplaceOne(sessCtx, filter, wave)
			if err != nil {
				return fmt.Errorf("failed to update wave: %w", err)
			}
			if result.MatchedCount == 0 {
				return domain.ErrVersionConflict
			}
		}

		return r.publisher.Stage(sessCtx, wave.GetDomainEvents())
	})

	r.metrics.RecordMongoDBOperation(wavesCollection, "save", err == nil, time.Since(start))

	if err != nil {
		wave.Version = previousVersion
		return err
	}

	wave.ClearDomainEvents()
	return nil
}

// FindByID retrieves a wave by its business identifier.
func (r *WaveRepository) FindByID(ctx context.Context, waveID string) (*domain.Wave, error) {
	start := time.Now()
	var wave domain.Wave
	err := r.collection.FindOne(ctx, bson.M{"waveId": waveID}).Decode(&wave)
	r.metrics.RecordMongoDBOperation(wavesCollection, "findOne", err == nil || err == mongo.ErrNoDocuments, time.Since(start))
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrWaveNotFound
		}
		return nil, err
	}
	return &wave, nil
}

// FindByStatus retrieves waves in the given status, oldest plan first.
func (r *WaveRepository) FindByStatus(ctx context.Context, status domain.WaveStatus) ([]*domain.Wave, error) {
	return r.find(ctx, bson.M{"status": status}, bson.D{{Key: "createdAt", Value: 1}})
}

// FindByWarehouseID retrieves all waves of a warehouse, newest first.
func (r *WaveRepository) FindByWarehouseID(ctx context.Context, warehouseID string) ([]*domain.Wave, error) {
	return r.find(ctx, bson.M{"warehouseId": warehouseID}, bson.D{{Key: "createdAt", Value: -1}})
}

// FindByWarehouseAndStatus retrieves a warehouse's waves in one status.
func (r *WaveRepository) FindByWarehouseAndStatus(ctx context.Context, warehouseID string, status domain.WaveStatus) ([]*domain.Wave, error) {
	filter := bson.M{"warehouseId": warehouseID, "status": status}
	return r.find(ctx, filter, bson.D{{Key: "createdAt", Value: -1}})
}

// FindReadyToRelease retrieves planned waves whose planned release time
// has passed and whose inventory is allocated, most overdue first.
func (r *WaveRepository) FindReadyToRelease(ctx context.Context, now time.Time) ([]*domain.Wave, error) {
	filter := bson.M{
		"status":             domain.WaveStatusPlanned,
		"plannedReleaseTime": bson.M{"$lte": now},
		"inventoryAllocated": true,
	}
	return r.find(ctx, filter, bson.D{{Key: "plannedReleaseTime", Value: 1}})
}

// FindByAssignedZone retrieves waves assigned to a picking zone.
func (r *WaveRepository) FindByAssignedZone(ctx context.Context, zone string) ([]*domain.Wave, error) {
	return r.find(ctx, bson.M{"assignedZone": zone}, bson.D{{Key: "createdAt", Value: -1}})
}

// FindActiveWaves retrieves waves currently on the floor.
func (r *WaveRepository) FindActiveWaves(ctx context.Context) ([]*domain.Wave, error) {
	filter := bson.M{"status": bson.M{"$in": bson.A{domain.WaveStatusReleased, domain.WaveStatusInProgress}}}
	return r.find(ctx, filter, bson.D{{Key: "actualReleaseTime", Value: 1}})
}

// FindByOrderID retrieves every wave holding the given order.
func (r *WaveRepository) FindByOrderID(ctx context.Context, orderID string) ([]*domain.Wave, error) {
	return r.find(ctx, bson.M{"orderIds": orderID}, bson.D{{Key: "createdAt", Value: -1}})
}

// FindCreatedAfter retrieves waves planned after the given time.
func (r *WaveRepository) FindCreatedAfter(ctx context.Context, after time.Time) ([]*domain.Wave, error) {
	return r.find(ctx, bson.M{"createdAt": bson.M{"$gt": after}}, bson.D{{Key: "createdAt", Value: 1}})
}

// CountByStatus returns the wave census grouped by status.
func (r *WaveRepository) CountByStatus(ctx context.Context) (map[domain.WaveStatus]int64, error) {
	start := time.Now()
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	r.metrics.RecordMongoDBOperation(wavesCollection, "aggregate", err == nil, time.Since(start))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []struct {
		Status domain.WaveStatus `bson:"_id"`
		Count  int64             `bson:"count"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}

	counts := make(map[domain.WaveStatus]int64, len(results))
	for _, result := range results {
		counts[result.Status] = result.Count
	}
	return counts, nil
}

func (r *WaveRepository) find(ctx context.Context, filter bson.M, sort bson.D) ([]*domain.Wave, error) {
	start := time.Now()
	opts := options.Find().SetSort(sort)

	cursor, err := r.collection.Find(ctx, filter, opts)
	r.metrics.RecordMongoDBOperation(wavesCollection, "find", err == nil, time.Since(start))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var waves []*domain.Wave
	if err := cursor.All(ctx, &waves); err != nil {
		return nil, err
	}
	return waves, nil
}
