package memory

import (
	"context"
	"fmt"
	"log"
	"time"

	"petal-chatbot-backend/config"
	"petal-chatbot-backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoStore is the durable ConversationMemory backend. Turns live in one
// collection keyed by user id; eviction deletes the oldest documents past
// the window so the history stays bounded like the in-memory store.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	window     int
}

type turnDocument struct {
	UserID      string              `bson:"user_id"`
	UserMessage string              `bson:"user_message"`
	BotResponse string              `bson:"bot_response"`
	Emotion     models.EmotionLabel `bson:"emotion"`
	Timestamp   time.Time           `bson:"timestamp"`
}

// NewMongoStore connects to MongoDB, pings it, and ensures indexes.
func NewMongoStore(cfg *config.Config) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(cfg.BuildDatabaseURI()).
		SetMaxPoolSize(uint64(cfg.Database.MaxConnections)).
		SetMinPoolSize(uint64(cfg.Database.MinConnections)).
		SetMaxConnIdleTime(cfg.Database.MaxIdleTime)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	store := &MongoStore{
		client:     client,
		collection: client.Database(cfg.Database.Name).Collection("turns"),
		window:     cfg.Memory.Window,
	}

	if err := store.createIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Printf("Connected to MongoDB database: %s", cfg.Database.Name)
	return store, nil
}

func (s *MongoStore) createIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
	}
	_, err := s.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func (s *MongoStore) Append(ctx context.Context, userID string, turn models.Turn) error {
	doc := turnDocument{
		UserID:      userID,
		UserMessage: turn.UserMessage,
		BotResponse: turn.BotResponse,
		Emotion:     turn.Emotion,
		Timestamp:   turn.Timestamp,
	}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}
	return s.evict(ctx, userID)
}

// evict removes documents older than the newest window entries.
func (s *MongoStore) evict(ctx context.Context, userID string) error {
	count, err := s.collection.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return err
	}
	excess := count - int64(s.window)
	if excess <= 0 {
		return nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: 1}}).
		SetLimit(excess).
		SetProjection(bson.M{"_id": 1})
	cursor, err := s.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	var ids []interface{}
	for cursor.Next(ctx) {
		var doc struct {
			ID interface{} `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return err
		}
		ids = append(ids, doc.ID)
	}
	if len(ids) == 0 {
		return nil
	}
	_, err = s.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}

func (s *MongoStore) Recent(ctx context.Context, userID string, n int) ([]models.Turn, error) {
	if n <= 0 {
		n = s.window
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(n))
	cursor, err := s.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load turns: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []turnDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode turns: %w", err)
	}

	// Oldest first, matching the in-memory store.
	turns := make([]models.Turn, len(docs))
	for i, doc := range docs {
		turns[len(docs)-1-i] = models.Turn{
			UserMessage: doc.UserMessage,
			BotResponse: doc.BotResponse,
			Emotion:     doc.Emotion,
			Timestamp:   doc.Timestamp,
		}
	}
	return turns, nil
}

func (s *MongoStore) Clear(ctx context.Context, userID string) error {
	if _, err := s.collection.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("failed to clear turns: %w", err)
	}
	return nil
}

func (s *MongoStore) Stats(ctx context.Context, userID string) (models.UserStats, error) {
	turns, err := s.Recent(ctx, userID, s.window)
	if err != nil {
		return models.UserStats{}, err
	}
	return buildStats(turns), nil
}

// Disconnect closes the MongoDB connection.
func (s *MongoStore) Disconnect() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	log.Println("Disconnected from MongoDB")
	return nil
}
