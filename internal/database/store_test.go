package database

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"click-merchant-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:store_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := OpenSQLite(dsn)
	require.NoError(t, err)

	t.Cleanup(func() { Close(db, nil) })
	return db
}

func seedTransaction(t *testing.T, s *Store) *models.Transaction {
	t.Helper()
	ctx := context.Background()

	product := &models.Product{City: "Tashkent", Country: "UZ", Price: 100000}
	require.NoError(t, s.CreateProduct(ctx, product))

	user, err := s.FindOrCreateUser(ctx, &models.User{Phone: "+998901112233", FirstName: "Aziz", LastName: "Karimov"})
	require.NoError(t, err)

	tx := &models.Transaction{ProductID: product.ID, UserID: user.ID, Date: time.Now()}
	require.NoError(t, s.CreateTransaction(ctx, tx))
	return tx
}

func TestStore_Products(t *testing.T) {
	s := NewStore(newTestDB(t))
	ctx := context.Background()

	first := &models.Product{City: "Tashkent", Country: "UZ", Price: 100000}
	second := &models.Product{City: "Samarkand", Country: "UZ", Price: 250000}
	require.NoError(t, s.CreateProduct(ctx, first))
	require.NoError(t, s.CreateProduct(ctx, second))
	assert.Equal(t, uint(1), first.ID)

	got, err := s.GetProduct(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(250000), got.Price)

	_, err = s.GetProduct(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := s.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Tashkent", all[0].City)
}

func TestStore_FindOrCreateUser(t *testing.T) {
	s := NewStore(newTestDB(t))
	ctx := context.Background()

	u1, err := s.FindOrCreateUser(ctx, &models.User{Phone: "+998901112233", FirstName: "Aziz", LastName: "Karimov"})
	require.NoError(t, err)

	u2, err := s.FindOrCreateUser(ctx, &models.User{Phone: "+998901112233", FirstName: "Other", LastName: "Name"})
	require.NoError(t, err)

	assert.Equal(t, u1.ID, u2.ID)
	assert.Equal(t, "Aziz", u2.FirstName)
}

func TestStore_TransactionLifecycle(t *testing.T) {
	s := NewStore(newTestDB(t))
	ctx := context.Background()
	tx := seedTransaction(t, s)

	got, err := s.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateCreated, got.State())
	assert.Equal(t, int64(100000), got.Product.Price)
	assert.Equal(t, "+998901112233", got.User.Phone)

	require.NoError(t, s.SavePrepare(ctx, tx.ID, 555, "2024-01-01 10:00:00", 100000))

	got, err = s.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatePrepared, got.State())
	assert.Equal(t, int64(555), *got.ClickTransID)
	assert.Equal(t, "2024-01-01 10:00:00", *got.SignTime)
	assert.Equal(t, int64(100000), *got.Amount)

	ok, err := s.MarkPaid(ctx, tx.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.MarkPaid(ctx, tx.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, s.SavePrepare(ctx, 404, 1, "x", 1), ErrNotFound)
	_, err = s.GetTransaction(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_MarkPaidConcurrent(t *testing.T) {
	s := NewStore(newTestDB(t))
	tx := seedTransaction(t, s)

	var (
		wg      sync.WaitGroup
		winners atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.MarkPaid(context.Background(), tx.ID)
			assert.NoError(t, err)
			if ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}
