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

type SellerProductRepository struct {
	collection *mongo.Collection
}

func NewSellerProductRepository(db *mongo.Database) *SellerProductRepository {
	return &SellerProductRepository{
		collection: db.Collection("seller_products"),
	}
}

func (r *SellerProductRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sellerId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "category", Value: 1}}},
	})
	return err
}

func (r *SellerProductRepository) Create(ctx context.Context, p *models.SellerProduct) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, p)
	return translate(err)
}

func (r *SellerProductRepository) FindByID(ctx context.Context, id string) (*models.SellerProduct, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	var p models.SellerProduct
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *SellerProductRepository) Find(ctx context.Context, f ListingFilter) ([]models.SellerProduct, error) {
	filter := bson.M{}
	if f.SellerID != "" {
		filter["sellerId"] = f.SellerID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := []models.SellerProduct{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// ReplaceListing is scoped to the owning seller. Review fields are cleared
// because the edited listing goes back through moderation. The returned
// status is the one the write replaced, read in the same operation.
func (r *SellerProductRepository) ReplaceListing(ctx context.Context, p *models.SellerProduct) (models.ModerationStatus, error) {
	filter := bson.M{"_id": p.ID, "sellerId": p.SellerID}
	update := bson.M{
		"$set": bson.M{
			"name":          p.Name,
			"description":   p.Description,
			"category":      p.Category,
			"subcategory":   p.Subcategory,
			"brand":         p.Brand,
			"price":         p.Price,
			"originalPrice": p.OriginalPrice,
			"discount":      p.Discount,
			"stock":         p.Stock,
			"images":        p.Images,
			"imageUrl":      p.ImageURL,
			"categoryId":    p.CategoryID,
			"status":        p.Status,
			"adminComments": p.AdminComments,
			"reviewedBy":    p.ReviewedBy,
			"updatedAt":     p.UpdatedAt,
		},
		"$unset": bson.M{"reviewedAt": "", "approvedAt": ""},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.Before).
		SetProjection(bson.M{"status": 1})

	var before struct {
		Status models.ModerationStatus `bson:"status"`
	}
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&before); err != nil {
		return "", translate(err)
	}
	return before.Status, nil
}

// TransitionStatus mirrors SellerRequestRepository.TransitionStatus.
// Approval also stamps approvedAt.
func (r *SellerProductRepository) TransitionStatus(ctx context.Context, id string, change StatusChange) (*models.SellerProduct, models.ModerationStatus, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, "", err
	}

	set := bson.M{
		"status":     change.To,
		"reviewedBy": change.Reviewer,
		"reviewedAt": change.At,
		"updatedAt":  change.At,
	}
	switch change.To {
	case models.StatusApproved:
		set["approvedAt"] = change.At
	case models.StatusRejected:
		set["adminComments"] = change.Reason
	}

	filter := bson.M{"_id": oid, "status": statusIn(change.From)}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)

	var doc models.SellerProduct
	err = r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&doc)
	if err == nil {
		from := doc.Status
		applyListingChange(&doc, change)
		return &doc, from, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, "", err
	}

	var current models.SellerProduct
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&current); err != nil {
		return nil, "", translate(err)
	}
	return &current, current.Status, ErrStatusConflict
}

func applyListingChange(p *models.SellerProduct, change StatusChange) {
	at := change.At
	p.Status = change.To
	p.ReviewedBy = change.Reviewer
	p.ReviewedAt = &at
	p.UpdatedAt = at
	switch change.To {
	case models.StatusApproved:
		p.ApprovedAt = &at
	case models.StatusRejected:
		p.AdminComments = change.Reason
	}
}

func (r *SellerProductRepository) CountByStatus(ctx context.Context) (map[models.ModerationStatus]int64, error) {
	return countByStatus(ctx, r.collection)
}
