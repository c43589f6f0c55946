package repository

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/framekart/commerce/internal/payment/domain"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) (domain.Repository, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.CheckoutSession{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(db), db, node
}

func seedSession(t *testing.T, repo domain.Repository, node *snowflake.Node, sessionID string) {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), &domain.CheckoutSession{
		ID:        node.Generate(),
		SessionID: sessionID,
		Provider:  "stripe",
		UserID:    node.Generate(),
		Amount:    5000,
		Currency:  "INR",
		Status:    domain.StatusPending,
	}))
}

func TestCreateDuplicateSession(t *testing.T) {
	repo, _, node := newTestRepo(t)
	seedSession(t, repo, node, "cs_dup")

	err := repo.Create(context.Background(), &domain.CheckoutSession{
		ID:        node.Generate(),
		SessionID: "cs_dup",
		Provider:  "stripe",
		UserID:    node.Generate(),
		Amount:    5000,
		Currency:  "INR",
		Status:    domain.StatusPending,
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateSession)
}

func TestAttachOrderOnce(t *testing.T) {
	repo, db, node := newTestRepo(t)
	ctx := context.Background()
	seedSession(t, repo, node, "cs_attach")

	firstOrder := node.Generate()
	require.NoError(t, repo.AttachOrderTx(db, "cs_attach", firstOrder))

	session, err := repo.FindBySessionID(ctx, "cs_attach")
	require.NoError(t, err)
	require.NotNil(t, session.OrderID)
	assert.Equal(t, firstOrder, *session.OrderID)
	assert.Equal(t, domain.StatusPaid, session.Status)

	// The second attach loses the race and must not overwrite.
	err = repo.AttachOrderTx(db, "cs_attach", node.Generate())
	assert.ErrorIs(t, err, domain.ErrOrderAlreadyAttached)

	session, err = repo.FindBySessionID(ctx, "cs_attach")
	require.NoError(t, err)
	assert.Equal(t, firstOrder, *session.OrderID)
}

func TestUpdateStatusUnknownSession(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	err := repo.UpdateStatus(context.Background(), "cs_missing", domain.StatusFailed, "failed")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestFindBySessionIDNotFound(t *testing.T) {
	repo, _, _ := newTestRepo(t)
	_, err := repo.FindBySessionID(context.Background(), "cs_missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
