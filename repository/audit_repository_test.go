package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"marketplace-service/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockGorm(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return db, mock
}

func TestAuditRepository_AppendAssignsID(t *testing.T) {
	db, mock := newMockGorm(t)
	repo := NewAuditRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "moderation_audits"`)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.ModerationAudit{
		EntityType: models.EntitySellerRequest,
		EntityID:   "66b1f0c2a1b2c3d4e5f60718",
		Action:     string(models.ActionApprove),
		FromStatus: string(models.StatusPending),
		ToStatus:   string(models.StatusApproved),
		Reviewer:   "admin@example.com",
	}
	require.NoError(t, repo.Append(context.Background(), entry))

	assert.NotEqual(t, uuid.Nil, entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepository_ListByEntity(t *testing.T) {
	db, mock := newMockGorm(t)
	repo := NewAuditRepository(db)

	id := uuid.New()
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "entity_type", "entity_id", "action", "from_status", "to_status", "reviewer", "reason", "created_at"}).
		AddRow(id.String(), models.EntitySellerProduct, "p1", "reject", "pending", "rejected", "admin@example.com", "blurry images", now)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "moderation_audits" WHERE entity_type = $1 AND entity_id = $2 ORDER BY created_at ASC`)).
		WithArgs(models.EntitySellerProduct, "p1").
		WillReturnRows(rows)

	entries, err := repo.ListByEntity(context.Background(), models.EntitySellerProduct, "p1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)
	assert.Equal(t, "blurry images", entries[0].Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}
