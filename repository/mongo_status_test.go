package repository

import (
	"context"
	"testing"
	"time"

	"marketplace-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func newMockMongo(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

// sentCommand pops the next started command and checks its name.
func sentCommand(mt *mtest.T, name string) bson.Raw {
	mt.Helper()
	ev := mt.GetStartedEvent()
	require.NotNil(mt, ev)
	require.Equal(mt, name, ev.CommandName)
	return ev.Command
}

func filterStatuses(mt *mtest.T, cmd bson.Raw) []models.ModerationStatus {
	mt.Helper()
	var q struct {
		Status struct {
			In []models.ModerationStatus `bson:"$in"`
		} `bson:"status"`
	}
	require.NoError(mt, bson.Unmarshal(cmd.Lookup("query").Document(), &q))
	return q.Status.In
}

func approveChange() StatusChange {
	return StatusChange{
		From:     []models.ModerationStatus{models.StatusPending, models.StatusUnderReview},
		To:       models.StatusApproved,
		Reviewer: "admin@example.com",
		At:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSellerRequestRepository_TransitionStatus(t *testing.T) {
	mt := newMockMongo(t)
	ctx := context.Background()
	oid := primitive.NewObjectID()

	mt.Run("wins when stored status is allowed", func(mt *mtest.T) {
		repo := &SellerRequestRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: oid},
			{Key: "businessName", Value: "Acme Traders"},
			{Key: "status", Value: "under_review"},
		}}))

		req, from, err := repo.TransitionStatus(ctx, oid.Hex(), approveChange())
		require.NoError(mt, err)
		assert.Equal(mt, models.StatusUnderReview, from)
		assert.Equal(mt, models.StatusApproved, req.Status)
		assert.Equal(mt, "admin@example.com", req.ReviewedBy)

		cmd := sentCommand(mt, "findAndModify")
		assert.Equal(mt, oid, cmd.Lookup("query", "_id").ObjectID())
		assert.Equal(mt, []models.ModerationStatus{models.StatusPending, models.StatusUnderReview}, filterStatuses(mt, cmd))
		assert.Equal(mt, "approved", cmd.Lookup("update", "$set", "status").StringValue())
		_, err = cmd.Lookup("update", "$set").Document().LookupErr("rejectionReason")
		assert.Error(mt, err)
	})

	mt.Run("losing writer gets the current document", func(mt *mtest.T) {
		repo := &SellerRequestRepository{collection: mt.Coll}
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{
				{Key: "_id", Value: oid},
				{Key: "status", Value: "rejected"},
				{Key: "rejectionReason", Value: "Incomplete documents"},
			}),
		)

		req, from, err := repo.TransitionStatus(ctx, oid.Hex(), approveChange())
		assert.ErrorIs(mt, err, ErrStatusConflict)
		assert.Equal(mt, models.StatusRejected, from)
		require.NotNil(mt, req)
		assert.Equal(mt, "Incomplete documents", req.RejectionReason)

		sentCommand(mt, "findAndModify")
		sentCommand(mt, "find")
	})

	mt.Run("bad id never reaches the server", func(mt *mtest.T) {
		repo := &SellerRequestRepository{collection: mt.Coll}
		_, _, err := repo.TransitionStatus(ctx, "nope", approveChange())
		assert.ErrorIs(mt, err, ErrInvalidID)
		assert.Nil(mt, mt.GetStartedEvent())
	})
}

func TestSellerProductRepository_TransitionStatus(t *testing.T) {
	mt := newMockMongo(t)
	ctx := context.Background()
	oid := primitive.NewObjectID()

	mt.Run("approval stamps approvedAt", func(mt *mtest.T) {
		repo := &SellerProductRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: oid},
			{Key: "name", Value: "Wireless Earbuds"},
			{Key: "status", Value: "pending"},
		}}))

		p, from, err := repo.TransitionStatus(ctx, oid.Hex(), approveChange())
		require.NoError(mt, err)
		assert.Equal(mt, models.StatusPending, from)
		assert.Equal(mt, models.StatusApproved, p.Status)
		require.NotNil(mt, p.ApprovedAt)

		cmd := sentCommand(mt, "findAndModify")
		assert.Equal(mt, []models.ModerationStatus{models.StatusPending, models.StatusUnderReview}, filterStatuses(mt, cmd))
		_, err = cmd.Lookup("update", "$set").Document().LookupErr("approvedAt")
		assert.NoError(mt, err)
	})

	mt.Run("already rejected listing conflicts", func(mt *mtest.T) {
		repo := &SellerProductRepository{collection: mt.Coll}
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{
				{Key: "_id", Value: oid},
				{Key: "status", Value: "rejected"},
			}),
		)

		p, from, err := repo.TransitionStatus(ctx, oid.Hex(), approveChange())
		assert.ErrorIs(mt, err, ErrStatusConflict)
		assert.Equal(mt, models.StatusRejected, from)
		assert.Equal(mt, models.StatusRejected, p.Status)
	})

	mt.Run("missing listing", func(mt *mtest.T) {
		repo := &SellerProductRepository{collection: mt.Coll}
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch),
		)

		_, _, err := repo.TransitionStatus(ctx, oid.Hex(), approveChange())
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestSellerProductRepository_ReplaceListing(t *testing.T) {
	mt := newMockMongo(t)
	ctx := context.Background()
	oid := primitive.NewObjectID()
	listing := &models.SellerProduct{ID: oid, SellerID: "DMT500000AAAA", Name: "Wireless Earbuds", Status: models.StatusPending}

	mt.Run("returns the replaced status", func(mt *mtest.T) {
		repo := &SellerProductRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: oid},
			{Key: "status", Value: "approved"},
		}}))

		previous, err := repo.ReplaceListing(ctx, listing)
		require.NoError(mt, err)
		assert.Equal(mt, models.StatusApproved, previous)

		cmd := sentCommand(mt, "findAndModify")
		assert.Equal(mt, "DMT500000AAAA", cmd.Lookup("query", "sellerId").StringValue())
		assert.Equal(mt, "pending", cmd.Lookup("update", "$set", "status").StringValue())
		_, err = cmd.Lookup("update", "$unset").Document().LookupErr("approvedAt")
		assert.NoError(mt, err)
	})

	mt.Run("other seller's listing is not found", func(mt *mtest.T) {
		repo := &SellerProductRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := repo.ReplaceListing(ctx, listing)
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}
