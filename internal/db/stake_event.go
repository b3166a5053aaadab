package db

import (
	"context"

	"github.com/liquidstaking/staking-ledger/internal/db/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *Database) SaveStakeEvent(ctx context.Context, doc *model.StakeEventDocument) error {
	_, err := db.collection(model.StakeEventCollection).InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &DuplicateKeyError{
				Key:     doc.ID,
				Message: "stake event already exists",
			}
		}
		return err
	}
	return nil
}

// GetStakeEvents returns the latest events of an account, newest first. limit <= 0 returns all.
func (db *Database) GetStakeEvents(
	ctx context.Context, account string, limit int64,
) ([]*model.StakeEventDocument, error) {
	filter := bson.M{"account": account}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := db.collection(model.StakeEventCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []*model.StakeEventDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	return docs, nil
}
