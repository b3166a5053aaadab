package db

import (
	"context"
	"errors"

	"github.com/liquidstaking/staking-ledger/internal/db/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *Database) SaveReconciliation(ctx context.Context, doc *model.ReconciliationDocument) error {
	_, err := db.collection(model.ReconciliationCollection).InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &DuplicateKeyError{
				Key:     doc.ID,
				Message: "reconciliation already exists",
			}
		}
		return err
	}
	return nil
}

func (db *Database) GetReconciliation(ctx context.Context, id string) (*model.ReconciliationDocument, error) {
	var doc model.ReconciliationDocument
	err := db.collection(model.ReconciliationCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     id,
				Message: "reconciliation not found",
			}
		}
		return nil, err
	}
	return &doc, nil
}

// FindPendingReconciliations returns unresolved documents, oldest first
func (db *Database) FindPendingReconciliations(
	ctx context.Context, limit int64,
) ([]*model.ReconciliationDocument, error) {
	filter := bson.M{"state": model.ReconciliationPending}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := db.collection(model.ReconciliationCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []*model.ReconciliationDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	return docs, nil
}

func (db *Database) CountPendingReconciliations(ctx context.Context) (int64, error) {
	filter := bson.M{"state": model.ReconciliationPending}
	return db.collection(model.ReconciliationCollection).CountDocuments(ctx, filter)
}

func (db *Database) ResolveReconciliation(ctx context.Context, id, note string, resolvedAt int64) error {
	filter := bson.M{
		"_id":   id,
		"state": model.ReconciliationPending,
	}
	update := bson.M{
		"$set": bson.M{
			"state":           model.ReconciliationResolved,
			"resolved_at":     resolvedAt,
			"resolution_note": note,
		},
	}

	res, err := db.collection(model.ReconciliationCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return &NotFoundError{
			Key:     id,
			Message: "pending reconciliation not found",
		}
	}
	return nil
}
