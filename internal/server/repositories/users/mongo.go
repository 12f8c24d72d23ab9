package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/identity/internal/common"
	"github.com/dmitrijs2005/identity/internal/dbx"
	"github.com/dmitrijs2005/identity/internal/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection holding users.
const CollectionName = "users"

type userDocument struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	UserID            string             `bson:"user_id"`
	Username          string             `bson:"username"`
	PasswordHash      string             `bson:"password_hash,omitempty"`
	Name              string             `bson:"name"`
	GivenName         string             `bson:"given_name"`
	FamilyName        string             `bson:"family_name"`
	Nickname          string             `bson:"nickname"`
	Permissions       string             `bson:"permissions"`
	PhoneNumber       string             `bson:"phone_number"`
	PhoneVerified     bool               `bson:"phone_verified"`
	Picture           string             `bson:"picture"`
	Email             string             `bson:"email,omitempty"`
	EmailVerified     bool               `bson:"email_verified"`
	Identities        []map[string]any   `bson:"identities,omitempty"`
	LastLogin         *time.Time         `bson:"last_login,omitempty"`
	LastPasswordReset *time.Time         `bson:"last_password_reset,omitempty"`
	CreatedAt         time.Time          `bson:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at"`
}

func toDocument(u *models.User) userDocument {
	return userDocument{
		UserID:            u.UserID,
		Username:          u.Username,
		PasswordHash:      u.PasswordHash,
		Name:              u.Name,
		GivenName:         u.GivenName,
		FamilyName:        u.FamilyName,
		Nickname:          u.Nickname,
		Permissions:       u.Permissions,
		PhoneNumber:       u.PhoneNumber,
		PhoneVerified:     u.PhoneVerified,
		Picture:           u.Picture,
		Email:             u.Email,
		EmailVerified:     u.EmailVerified,
		Identities:        u.Identities,
		LastLogin:         u.LastLogin,
		LastPasswordReset: u.LastPasswordReset,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func (d userDocument) toUser() *models.User {
	return &models.User{
		ID:                d.ID.Hex(),
		UserID:            d.UserID,
		Username:          d.Username,
		PasswordHash:      d.PasswordHash,
		Name:              d.Name,
		GivenName:         d.GivenName,
		FamilyName:        d.FamilyName,
		Nickname:          d.Nickname,
		Permissions:       d.Permissions,
		PhoneNumber:       d.PhoneNumber,
		PhoneVerified:     d.PhoneVerified,
		Picture:           d.Picture,
		Email:             d.Email,
		EmailVerified:     d.EmailVerified,
		Identities:        d.Identities,
		LastLogin:         d.LastLogin,
		LastPasswordReset: d.LastPasswordReset,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

// MongoRepository stores users as documents. Store ids are ObjectID hex
// strings.
type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

// EnsureIndexes creates the unique indexes the repository relies on. Email
// is only unique among documents that have one.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"email": bson.M{"$type": "string"}}),
		},
	})
	return dbx.MongoError(err)
}

func (r *MongoRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	res, err := r.coll.InsertOne(ctx, toDocument(user))
	if err != nil {
		return nil, dbx.MongoError(err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = id.Hex()
	}
	return user, nil
}

func (r *MongoRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *MongoRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if email == "" {
		return nil, common.ErrorNotFound
	}
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrorNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoRepository) RecordLogin(ctx context.Context, id string, at time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return common.ErrorNotFound
	}

	res, err := r.coll.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"last_login": at, "updated_at": at}})
	if err != nil {
		return dbx.MongoError(err)
	}
	if res.MatchedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, dbx.MongoError(err)
	}
	return doc.toUser(), nil
}
