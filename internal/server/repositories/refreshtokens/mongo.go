package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/identity/internal/dbx"
	"github.com/dmitrijs2005/identity/internal/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection holding refresh token records.
const CollectionName = "refresh_tokens"

type tokenDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Token     string             `bson:"token"`
	UserID    string             `bson:"user_id"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

// MongoRepository implements Repository on a MongoDB collection.
type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

// EnsureIndexes makes token unique and owner lookups indexed.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	})
	return dbx.MongoError(err)
}

func (r *MongoRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	res, err := r.coll.InsertOne(ctx, tokenDocument{
		Token:     token.Token,
		UserID:    token.UserID,
		CreatedAt: token.CreatedAt,
		UpdatedAt: token.UpdatedAt,
	})
	if err != nil {
		return dbx.MongoError(err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		token.ID = id.Hex()
	}
	return nil
}

func (r *MongoRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	var doc tokenDocument
	if err := r.coll.FindOne(ctx, bson.M{"token": token}).Decode(&doc); err != nil {
		return nil, dbx.MongoError(err)
	}
	return &models.RefreshToken{
		ID:        doc.ID.Hex(),
		Token:     doc.Token,
		UserID:    doc.UserID,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

func (r *MongoRepository) Delete(ctx context.Context, token string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"token": token})
	return dbx.MongoError(err)
}

func (r *MongoRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, dbx.MongoError(err)
	}
	return res.DeletedCount, nil
}
