package repository

import (
	"context"

	"marketplace-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CartRepository struct {
	collection *mongo.Collection
}

func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{
		collection: db.Collection("carts"),
	}
}

func (r *CartRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_cart_user"),
	})
	return err
}

func (r *CartRepository) FindByUserID(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	if err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&cart); err != nil {
		return nil, translate(err)
	}
	return &cart, nil
}

func (r *CartRepository) Save(ctx context.Context, cart *models.Cart) error {
	update := bson.M{
		"$set": bson.M{
			"items":     cart.Items,
			"updatedAt": cart.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"userId":    cart.UserID,
			"createdAt": cart.CreatedAt,
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"userId": cart.UserID}, update, options.Update().SetUpsert(true))
	return translate(err)
}
