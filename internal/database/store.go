package database

import (
	"context"
	"errors"
	"fmt"

	"click-merchant-api/internal/models"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a looked up row does not exist
var ErrNotFound = errors.New("record not found")

// Store is the gorm backed repository for products, users and transactions
type Store struct {
	db *gorm.DB
}

// NewStore creates a new store
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// CreateProduct inserts a product
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// GetProduct gets a product by id
func (s *Store) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

// ListProducts returns the whole catalog ordered by id
func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// FindOrCreateUser returns the user with user.Phone, creating it from user
// when the phone is new. Names of an existing user are left untouched.
func (s *Store) FindOrCreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	db := s.db.WithContext(ctx)

	found := models.User{}
	err := db.Where(models.User{Phone: user.Phone}).
		Attrs(models.User{FirstName: user.FirstName, LastName: user.LastName}).
		FirstOrCreate(&found).Error
	if err == nil {
		return &found, nil
	}

	// Lost a create race on the unique phone index; the winner's row is there now
	if errRead := db.Where("phone = ?", user.Phone).First(&found).Error; errRead == nil {
		return &found, nil
	}
	return nil, fmt.Errorf("failed to find or create user: %w", err)
}

// CreateTransaction inserts a transaction
func (s *Store) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	if err := s.db.WithContext(ctx).Omit("Product", "User").Create(tx).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetTransaction gets a transaction with its product and user
func (s *Store) GetTransaction(ctx context.Context, id uint) (*models.Transaction, error) {
	var tx models.Transaction
	err := s.db.WithContext(ctx).
		Preload("Product").
		Preload("User").
		First(&tx, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &tx, nil
}

// SavePrepare records the Click reservation on a transaction in one statement
func (s *Store) SavePrepare(ctx context.Context, id uint, clickTransID int64, signTime string, amount int64) error {
	result := s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"click_trans_id": clickTransID,
			"sign_time":      signTime,
			"amount":         amount,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to save prepare: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkPaid flips paid from false to true. It returns false when the row was
// already paid (or is gone), so of two racing callers exactly one gets true.
func (s *Store) MarkPaid(ctx context.Context, id uint) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND paid = ?", id, false).
		Update("paid", true)
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark transaction paid: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
