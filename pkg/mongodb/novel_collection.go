package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"novara/repository"
)

type NovelClient struct {
	col *mongo.Collection
}

func NewNovelCollection(db *mongo.Database) *NovelClient {
	col := db.Collection("novels")
	ctx := context.Background()
	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "url", Value: 1}},
		Options: &options.IndexOptions{
			Unique: &[]bool{true}[0],
		},
	}
	col.Indexes().CreateOne(ctx, indexModel)
	return &NovelClient{col: col}
}

func (c *NovelClient) Upsert(ctx context.Context, doc *repository.NovelDoc) error {
	now := time.Now()
	filter := bson.M{"url": doc.URL}
	update := bson.M{
		"$set": bson.M{
			"key":       doc.Key,
			"title":     doc.Title,
			"last_seen": now,
		},
		"$setOnInsert": bson.M{
			"url":        doc.URL,
			"first_seen": now,
		},
		"$addToSet": bson.M{
			"sources": bson.M{"$each": doc.Sources},
		},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := c.col.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("novelcol: %w", err)
	}
	return nil
}

func (c *NovelClient) GetByURL(ctx context.Context, url string) (*repository.NovelDoc, error) {
	var doc repository.NovelDoc
	filter := bson.M{"url": url}
	if err := c.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("novelcol: %w", err)
	}
	return &doc, nil
}

var _ repository.NovelRepo = (*NovelClient)(nil)
