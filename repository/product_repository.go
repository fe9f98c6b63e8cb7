package repository

import (
	"context"

	"marketplace-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ProductRepository reads first-party products from MongoDB.
type ProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{
		collection: db.Collection("products"),
	}
}

func (r *ProductRepository) FindAll(ctx context.Context) ([]models.Product, error) {
	return r.find(ctx, bson.M{})
}

// FindByCategoryID matches categoryId stored either as an ObjectId or as its
// hex string, since both shapes exist in seeded data.
func (r *ProductRepository) FindByCategoryID(ctx context.Context, categoryID string) ([]models.Product, error) {
	keys := bson.A{categoryID}
	if oid, err := primitive.ObjectIDFromHex(categoryID); err == nil {
		keys = append(keys, oid)
	}
	return r.find(ctx, bson.M{"categoryId": bson.M{"$in": keys}})
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	var p models.Product
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *ProductRepository) find(ctx context.Context, filter bson.M) ([]models.Product, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}
