package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoIndex struct {
	keys   bson.D
	unique bool
}

func ensureIndexes(ctx context.Context, coll *mongo.Collection, indexes []mongoIndex) error {
	models := make([]mongo.IndexModel, 0, len(indexes))
	for _, idx := range indexes {
		model := mongo.IndexModel{Keys: idx.keys}
		if idx.unique {
			model.Options = options.Index().SetUnique(true)
		}
		models = append(models, model)
	}

	_, err := coll.Indexes().CreateMany(ctx, models)
	if err != nil {
		return fmt.Errorf("mongodb create indexes: %w", err)
	}
	return nil
}
