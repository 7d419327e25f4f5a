package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/artho-wallet-ledger/internal/domain/statement"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StatementCollectionName holds one document per (transaction, account) posting
const StatementCollectionName = "statement_lines"

// StatementRepository implements statement.Repository for MongoDB
type StatementRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

func NewStatementRepository(logger *slog.Logger, db *mongo.Database) *StatementRepository {
	return &StatementRepository{
		db:     db,
		logger: logger,
	}
}

var _ statement.Repository = (*StatementRepository)(nil)

// EnsureIndexes creates the upsert key and the per-account listing index
func (r *StatementRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(StatementCollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "transaction_id", Value: 1}, {Key: "account_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "occurred_at", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create statement indexes: %w", err)
	}
	return nil
}

// Upsert writes the line keyed by (transaction_id, account_id); a redelivered event
// overwrites the same document instead of duplicating it
func (r *StatementRepository) Upsert(ctx context.Context, line *statement.Line) error {
	collection := r.db.Collection(StatementCollectionName)

	filter := bson.M{"transaction_id": line.TransactionID, "account_id": line.AccountID}
	update := bson.M{"$set": line}

	_, err := collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		r.logger.Error("Failed to upsert statement line",
			"transaction_id", line.TransactionID.String(),
			"account_id", line.AccountID.String(),
			"error", err)
		return fmt.Errorf("failed to upsert statement line: %w", err)
	}
	return nil
}

// GetByAccountID returns a page of statement lines, newest first
func (r *StatementRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*statement.Line, error) {
	collection := r.db.Collection(StatementCollectionName)

	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}, {Key: "transaction_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, bson.M{"account_id": accountID}, opts)
	if err != nil {
		r.logger.Error("Failed to get statement lines", "account_id", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to get statement lines: %w", err)
	}
	defer cursor.Close(ctx)

	lines := make([]*statement.Line, 0)
	if err := cursor.All(ctx, &lines); err != nil {
		r.logger.Error("Failed to decode statement lines", "account_id", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to decode statement lines: %w", err)
	}
	return lines, nil
}

func (r *StatementRepository) CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error) {
	count, err := r.db.Collection(StatementCollectionName).CountDocuments(ctx, bson.M{"account_id": accountID})
	if err != nil {
		r.logger.Error("Failed to count statement lines", "account_id", accountID.String(), "error", err)
		return 0, fmt.Errorf("failed to count statement lines: %w", err)
	}
	return count, nil
}
