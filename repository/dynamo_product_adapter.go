package repository

import (
	"context"
	"fmt"
	"time"

	"marketplace-service/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DynamoScanAPI is the subset of the DynamoDB client used by the adapter.
type DynamoScanAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoProductAdapter is a ProductRepo backed by a DynamoDB table with
// primary key `product_id`. Ids are the same 24-hex strings used in Mongo so
// clients see one id namespace whichever store is active.
type DynamoProductAdapter struct {
	client DynamoScanAPI
	table  string
}

func NewDynamoProductAdapter(client DynamoScanAPI, table string) *DynamoProductAdapter {
	return &DynamoProductAdapter{client: client, table: table}
}

type ddbProduct struct {
	ProductID     string   `dynamodbav:"product_id"`
	Name          string   `dynamodbav:"name"`
	Description   string   `dynamodbav:"description,omitempty"`
	Price         float64  `dynamodbav:"price"`
	OriginalPrice *float64 `dynamodbav:"original_price,omitempty"`
	Discount      int      `dynamodbav:"discount"`
	CategoryID    string   `dynamodbav:"category_id"`
	ImageURL      string   `dynamodbav:"image_url,omitempty"`
	Images        []string `dynamodbav:"images,omitempty"`
	Stock         int      `dynamodbav:"stock"`
	Rating        float64  `dynamodbav:"rating"`
	Reviews       int      `dynamodbav:"reviews"`
	CreatedAt     string   `dynamodbav:"created_at"`
}

func (dp ddbProduct) toModel() (models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(dp.ProductID)
	if err != nil {
		return models.Product{}, fmt.Errorf("product %q: %w", dp.ProductID, ErrInvalidID)
	}
	p := models.Product{
		ID:            oid,
		Name:          dp.Name,
		Description:   dp.Description,
		Price:         dp.Price,
		OriginalPrice: dp.OriginalPrice,
		Discount:      dp.Discount,
		CategoryID:    dp.CategoryID,
		ImageURL:      dp.ImageURL,
		Images:        dp.Images,
		Stock:         dp.Stock,
		Rating:        dp.Rating,
		Reviews:       dp.Reviews,
	}
	if t, err := time.Parse(time.RFC3339, dp.CreatedAt); err == nil {
		p.CreatedAt = t
	}
	return p, nil
}

func (d *DynamoProductAdapter) FindByID(ctx context.Context, id string) (*models.Product, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, ErrInvalidID
	}
	key, err := attributevalue.MarshalMap(map[string]string{"product_id": id})
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{TableName: aws.String(d.table), Key: key})
	if err != nil {
		return nil, fmt.Errorf("dynamodb GetItem failed: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	var dp ddbProduct
	if err := attributevalue.UnmarshalMap(out.Item, &dp); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	p, err := dp.toModel()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (d *DynamoProductAdapter) FindAll(ctx context.Context) ([]models.Product, error) {
	return d.scan(ctx, &dynamodb.ScanInput{TableName: aws.String(d.table)})
}

func (d *DynamoProductAdapter) FindByCategoryID(ctx context.Context, categoryID string) ([]models.Product, error) {
	return d.scan(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(d.table),
		FilterExpression:          aws.String("category_id = :c"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":c": &types.AttributeValueMemberS{Value: categoryID}},
	})
}

// scan walks every page. Items whose id is not a valid object id are skipped.
func (d *DynamoProductAdapter) scan(ctx context.Context, input *dynamodb.ScanInput) ([]models.Product, error) {
	products := []models.Product{}
	paginator := dynamodb.NewScanPaginator(d.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan page failed: %w", err)
		}
		var items []ddbProduct
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal items: %w", err)
		}
		for _, it := range items {
			p, err := it.toModel()
			if err != nil {
				continue
			}
			products = append(products, p)
		}
	}
	return products, nil
}
