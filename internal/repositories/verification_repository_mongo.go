package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"habboverify/internal/models"
)

type mongoVerifiedUser struct {
	ObjectID  primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"id"`
	Habbo     string             `bson:"habbo"`
	Verified  bool               `bson:"verified"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (d mongoVerifiedUser) model() models.VerifiedUser {
	return models.VerifiedUser{
		ID:        d.ObjectID.Hex(),
		UserID:    d.UserID,
		Habbo:     d.Habbo,
		Verified:  d.Verified,
		CreatedAt: d.CreatedAt,
	}
}

type mongoVerificationRepository struct{ coll *mongo.Collection }

// NewMongoVerificationRepository stores claims as documents {id, habbo, verified, created_at}.
func NewMongoVerificationRepository(coll *mongo.Collection) VerificationRepository {
	return &mongoVerificationRepository{coll: coll}
}

// EnsureMongoIndexes creates the lookup indexes used by the workflow queries.
func EnsureMongoIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}, {Key: "verified", Value: 1}}},
		{Keys: bson.D{{Key: "habbo", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("verified_users indexes: %w", err)
	}
	return nil
}

func (r *mongoVerificationRepository) FindVerifiedByUser(ctx context.Context, userID string) (*models.VerifiedUser, error) {
	var doc mongoVerifiedUser
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	err := r.coll.FindOne(ctx, bson.M{"id": userID, "verified": true}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("verified_users find verified: %w", err)
	}
	v := doc.model()
	return &v, nil
}

func (r *mongoVerificationRepository) Create(ctx context.Context, rec *models.VerifiedUser) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	res, err := r.coll.InsertOne(ctx, mongoVerifiedUser{
		UserID:    rec.UserID,
		Habbo:     rec.Habbo,
		Verified:  rec.Verified,
		CreatedAt: rec.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("verified_users create: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		rec.ID = oid.Hex()
	}
	return nil
}

func (r *mongoVerificationRepository) MarkVerified(ctx context.Context, userID, habbo string) error {
	filter := bson.M{"id": userID, "habbo": habbo, "verified": false}
	update := bson.M{"$set": bson.M{"verified": true}}
	opts := options.FindOneAndUpdate().SetSort(bson.D{{Key: "created_at", Value: -1}})

	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrRecordNotFound
		}
		return fmt.Errorf("verified_users mark verified: %w", err)
	}
	return nil
}

func othersFilter(habbo, exceptUserID string) bson.M {
	return bson.M{
		"id":    bson.M{"$ne": exceptUserID},
		"habbo": habbo,
	}
}

func (r *mongoVerificationRepository) FindClaimsByOthers(ctx context.Context, habbo, exceptUserID string) ([]models.VerifiedUser, error) {
	return r.find(ctx, othersFilter(habbo, exceptUserID))
}

func (r *mongoVerificationRepository) DeleteClaimsByOthers(ctx context.Context, habbo, exceptUserID string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, othersFilter(habbo, exceptUserID))
	if err != nil {
		return 0, fmt.Errorf("verified_users delete others: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *mongoVerificationRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"id": userID})
	if err != nil {
		return 0, fmt.Errorf("verified_users delete by user: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *mongoVerificationRepository) List(ctx context.Context, verifiedOnly bool) ([]models.VerifiedUser, error) {
	filter := bson.M{}
	if verifiedOnly {
		filter["verified"] = true
	}
	return r.find(ctx, filter)
}

func (r *mongoVerificationRepository) find(ctx context.Context, filter bson.M) ([]models.VerifiedUser, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("verified_users find: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoVerifiedUser
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("verified_users decode: %w", err)
	}
	out := make([]models.VerifiedUser, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}
