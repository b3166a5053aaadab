package db

import (
	"context"

	"github.com/liquidstaking/staking-ledger/internal/db/model"
	"github.com/liquidstaking/staking-ledger/internal/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// IncrementCustodyBalance adds delta (possibly negative) to the pooled balance of a token
func (db *Database) IncrementCustodyBalance(
	ctx context.Context, token types.TokenKind, delta int64, updatedAt int64,
) error {
	filter := bson.M{"_id": token.String()}
	update := bson.M{
		"$inc": bson.M{"balance": delta},
		"$set": bson.M{"last_updated": updatedAt},
	}
	opts := options.Update().SetUpsert(true)

	_, err := db.collection(model.CustodyBalanceCollection).UpdateOne(ctx, filter, update, opts)
	return err
}

func (db *Database) GetCustodyBalances(ctx context.Context) ([]*model.CustodyBalance, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := db.collection(model.CustodyBalanceCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var balances []*model.CustodyBalance
	if err := cursor.All(ctx, &balances); err != nil {
		return nil, err
	}

	return balances, nil
}
