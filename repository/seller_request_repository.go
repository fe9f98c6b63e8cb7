package repository

import (
	"context"
	"errors"

	"marketplace-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SellerRequestRepository struct {
	collection *mongo.Collection
}

func NewSellerRequestRepository(db *mongo.Database) *SellerRequestRepository {
	return &SellerRequestRepository{
		collection: db.Collection("seller_requests"),
	}
}

// EnsureIndexes creates the unique sparse credential indexes that guard
// against colliding usernames and seller ids.
func (r *SellerRequestRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "sellerCredentials.username", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("uniq_seller_username"),
		},
		{
			Keys:    bson.D{{Key: "sellerCredentials.sellerId", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("uniq_seller_id"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("status_created"),
		},
	})
	return err
}

func (r *SellerRequestRepository) Create(ctx context.Context, req *models.SellerRequest) error {
	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, req)
	return translate(err)
}

func (r *SellerRequestRepository) FindByID(ctx context.Context, id string) (*models.SellerRequest, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *SellerRequestRepository) FindByUsername(ctx context.Context, username string) (*models.SellerRequest, error) {
	return r.findOne(ctx, bson.M{"sellerCredentials.username": username})
}

func (r *SellerRequestRepository) FindBySellerID(ctx context.Context, sellerID string) (*models.SellerRequest, error) {
	return r.findOne(ctx, bson.M{"sellerCredentials.sellerId": sellerID})
}

func (r *SellerRequestRepository) findOne(ctx context.Context, filter bson.M) (*models.SellerRequest, error) {
	var req models.SellerRequest
	if err := r.collection.FindOne(ctx, filter).Decode(&req); err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (r *SellerRequestRepository) FindAll(ctx context.Context) ([]models.SellerRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	requests := []models.SellerRequest{}
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// TransitionStatus is a single FindOneAndUpdate filtered on the allowed
// source statuses, so concurrent reviewers cannot both win. Credentials are
// never part of the update.
func (r *SellerRequestRepository) TransitionStatus(ctx context.Context, id string, change StatusChange) (*models.SellerRequest, models.ModerationStatus, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, "", err
	}

	set := bson.M{
		"status":           change.To,
		"reviewedBy":       change.Reviewer,
		"reviewedAt":       change.At,
		"lastStatusUpdate": change.At,
	}
	if change.To == models.StatusRejected {
		set["rejectionReason"] = change.Reason
	}

	filter := bson.M{"_id": oid, "status": statusIn(change.From)}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)

	var doc models.SellerRequest
	err = r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&doc)
	if err == nil {
		from := doc.Status
		applyRequestChange(&doc, change)
		return &doc, from, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, "", err
	}

	current, err := r.findOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, "", err
	}
	return current, current.Status, ErrStatusConflict
}

func applyRequestChange(req *models.SellerRequest, change StatusChange) {
	at := change.At
	req.Status = change.To
	req.ReviewedBy = change.Reviewer
	req.ReviewedAt = &at
	req.LastStatusUpdate = at
	if change.To == models.StatusRejected {
		req.RejectionReason = change.Reason
	}
}

func (r *SellerRequestRepository) CountByStatus(ctx context.Context) (map[models.ModerationStatus]int64, error) {
	return countByStatus(ctx, r.collection)
}
