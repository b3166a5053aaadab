package db

import (
	"context"
	"errors"

	"github.com/liquidstaking/staking-ledger/internal/db/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *Database) GetStake(ctx context.Context, account string) (*model.StakeRecord, error) {
	filter := bson.M{"_id": account}

	var record model.StakeRecord
	err := db.collection(model.StakeCollection).FindOne(ctx, filter).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     account,
				Message: "stake not found",
			}
		}
		return nil, err
	}

	return &record, nil
}

func (db *Database) SaveNewStake(ctx context.Context, record, replaced *model.StakeRecord) error {
	if record == nil {
		return errors.New("nil stake record")
	}

	if replaced == nil {
		_, err := db.collection(model.StakeCollection).InsertOne(ctx, record)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return &DuplicateKeyError{
					Key:     record.Account,
					Message: "stake already exists",
				}
			}
			return err
		}
		return nil
	}

	// only the exact closed record the caller validated may be replaced
	filter := bson.M{
		"_id":            record.Account,
		"unstaked":       true,
		"start_time":     replaced.StartTime,
		"reward_claimed": replaced.RewardClaimed,
	}
	res, err := db.collection(model.StakeCollection).ReplaceOne(ctx, filter, record)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return &DuplicateKeyError{
			Key:     record.Account,
			Message: "stake slot is not in the expected closed state",
		}
	}

	return nil
}

func (db *Database) MarkStakeUnstaked(ctx context.Context, account string, unstakedAt int64) (*model.StakeRecord, error) {
	filter := bson.M{
		"_id":      account,
		"unstaked": false,
	}
	update := bson.M{
		"$set": bson.M{
			"unstaked":    true,
			"unstaked_at": unstakedAt,
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var record model.StakeRecord
	err := db.collection(model.StakeCollection).FindOneAndUpdate(ctx, filter, update, opts).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     account,
				Message: "open stake not found",
			}
		}
		return nil, err
	}

	return &record, nil
}

func (db *Database) UpdateStakeRewardClaimed(
	ctx context.Context, account string, prevClaimed, newClaimed uint64,
) error {
	filter := bson.M{
		"_id":            account,
		"reward_claimed": prevClaimed,
		"reward_granted": bson.M{"$gte": newClaimed},
	}
	update := bson.M{
		"$set": bson.M{
			"reward_claimed": newClaimed,
		},
	}

	res, err := db.collection(model.StakeCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return &NotFoundError{
			Key:     account,
			Message: "stake not found or claimed reward changed concurrently",
		}
	}

	return nil
}

func (db *Database) ArchiveStake(ctx context.Context, doc *model.StakeHistoryDocument) error {
	_, err := db.collection(model.StakeHistoryCollection).InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return err
	}
	return nil
}

func (db *Database) GetStakeHistory(ctx context.Context, account string) ([]*model.StakeHistoryDocument, error) {
	filter := bson.M{"account": account}
	opts := options.Find().SetSort(bson.D{{Key: "archived_at", Value: -1}})

	cursor, err := db.collection(model.StakeHistoryCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []*model.StakeHistoryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	return docs, nil
}
