package services

import (
	"context"
	"errors"
	"time"

	"click-merchant-api/internal/database"
	"click-merchant-api/internal/metrics"
	"click-merchant-api/internal/models"
	"click-merchant-api/internal/response"

	"go.uber.org/zap"
)

// MerchantStore is the storage the merchant service needs
type MerchantStore interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	FindOrCreateUser(ctx context.Context, user *models.User) (*models.User, error)
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransaction(ctx context.Context, id uint) (*models.Transaction, error)
	SavePrepare(ctx context.Context, id uint, clickTransID int64, signTime string, amount int64) error
	MarkPaid(ctx context.Context, id uint) (bool, error)
}

// Dispatcher hands notifications off without waiting for delivery
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification)
}

// MerchantService handles Click callbacks and the storefront operations
type MerchantService struct {
	store       MerchantStore
	verifier    *SignatureVerifier
	locker      TransactionLocker
	dispatcher  Dispatcher
	replays     *ReplayTracker
	logger      *zap.Logger
	serviceID   int64
	lockTimeout time.Duration
}

// NewMerchantService creates a merchant service
func NewMerchantService(store MerchantStore, verifier *SignatureVerifier, locker TransactionLocker, dispatcher Dispatcher, logger *zap.Logger) *MerchantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &MerchantService{
		store:       store,
		verifier:    verifier,
		locker:      locker,
		dispatcher:  dispatcher,
		logger:      logger,
		lockTimeout: 5 * time.Second,
	}
}

// WithServiceID restricts callbacks to one Click service. Zero accepts any.
func (s *MerchantService) WithServiceID(id int64) *MerchantService {
	s.serviceID = id
	return s
}

// WithReplayTracker makes repeated callback deliveries visible in logs
func (s *MerchantService) WithReplayTracker(rt *ReplayTracker) *MerchantService {
	s.replays = rt
	return s
}

// WithLockTimeout bounds how long a callback waits for its transaction lock
func (s *MerchantService) WithLockTimeout(d time.Duration) *MerchantService {
	s.lockTimeout = d
	return s
}

// Prepare reserves a transaction for payment.
// On failure the error is a *response.ClickError.
func (s *MerchantService) Prepare(ctx context.Context, req *models.PrepareRequest) (models.PrepareResponse, error) {
	if req.Action != nil && *req.Action != models.ActionPrepare {
		return models.PrepareResponse{}, response.ErrActionNotFound
	}

	merchantTransID := req.MerchantTransID.String()
	if !s.verify(req, merchantTransID, 0, models.ActionPrepare) {
		s.logger.Warn("prepare rejected: bad signature",
			zap.Int64("click_trans_id", req.ClickTransID),
			zap.String("merchant_trans_id", merchantTransID))
		return models.PrepareResponse{}, response.ErrSignCheckFailed
	}
	s.trackReplay("prepare", req)

	id, ok := req.MerchantTransID.TransactionID()
	if !ok {
		return models.PrepareResponse{}, response.ErrTransactionNotFound
	}

	unlock, err := s.lock(ctx, id)
	if err != nil {
		return models.PrepareResponse{}, err
	}
	defer unlock()

	tx, err := s.loadTransaction(ctx, id)
	if err != nil {
		return models.PrepareResponse{}, err
	}

	// nothing stored may change once the transaction is paid
	if tx.Paid {
		return models.PrepareResponse{}, response.ErrAlreadyPaid
	}
	if !req.Amount.Equals(tx.Product.Price) {
		return models.PrepareResponse{}, response.ErrIncorrectAmount
	}

	err = s.store.SavePrepare(ctx, tx.ID, req.ClickTransID, req.SignTime, tx.Product.Price)
	if errors.Is(err, database.ErrNotFound) {
		return models.PrepareResponse{}, response.ErrTransactionNotFound
	}
	if err != nil {
		s.logger.Error("prepare: update failed", zap.Uint("transaction_id", tx.ID), zap.Error(err))
		return models.PrepareResponse{}, response.Wrap(err, response.CodeUpdateFailed, response.NoteUpdateFailed)
	}

	s.logger.Info("transaction prepared",
		zap.Uint("transaction_id", tx.ID),
		zap.Int64("click_trans_id", req.ClickTransID))
	return response.PrepareSuccess(req.ClickTransID, merchantTransID, tx.ID), nil
}

// Complete confirms a prepared transaction and marks it paid.
// On failure the error is a *response.ClickError.
func (s *MerchantService) Complete(ctx context.Context, req *models.CompleteRequest) (models.CompleteResponse, error) {
	if req.Action != nil && *req.Action != models.ActionComplete {
		return models.CompleteResponse{}, response.ErrActionNotFound
	}

	merchantTransID := req.MerchantTransID.String()
	if req.Error < 0 {
		s.logger.Info("complete: payment failed on Click side",
			zap.Int64("click_trans_id", req.ClickTransID),
			zap.String("merchant_trans_id", merchantTransID),
			zap.Int("click_error", req.Error),
			zap.String("click_error_note", req.ErrorNote))
		return models.CompleteResponse{}, response.UpstreamError(req.Error)
	}

	if !s.verify(&req.PrepareRequest, merchantTransID, req.MerchantPrepareID, models.ActionComplete) {
		s.logger.Warn("complete rejected: bad signature",
			zap.Int64("click_trans_id", req.ClickTransID),
			zap.String("merchant_trans_id", merchantTransID))
		return models.CompleteResponse{}, response.ErrSignCheckFailed
	}
	s.trackReplay("complete", &req.PrepareRequest)

	id, ok := req.MerchantTransID.TransactionID()
	if !ok {
		return models.CompleteResponse{}, response.ErrTransactionNotFound
	}

	unlock, err := s.lock(ctx, id)
	if err != nil {
		return models.CompleteResponse{}, err
	}
	defer unlock()

	tx, err := s.loadTransaction(ctx, id)
	if err != nil {
		return models.CompleteResponse{}, err
	}

	if tx.Paid {
		return models.CompleteResponse{}, response.ErrAlreadyPaid
	}
	// Click may only confirm what it reserved
	if tx.State() != models.StatePrepared || req.MerchantPrepareID != int64(tx.ID) {
		return models.CompleteResponse{}, response.ErrTransactionNotFound
	}
	if !req.Amount.Equals(tx.Product.Price) {
		return models.CompleteResponse{}, response.ErrIncorrectAmount
	}

	flipped, err := s.store.MarkPaid(ctx, tx.ID)
	if err != nil {
		s.logger.Error("complete: update failed", zap.Uint("transaction_id", tx.ID), zap.Error(err))
		return models.CompleteResponse{}, response.Wrap(err, response.CodeUpdateFailed, response.NoteUpdateFailed)
	}
	if !flipped {
		return models.CompleteResponse{}, response.ErrAlreadyPaid
	}
	tx.Paid = true

	s.logger.Info("transaction paid",
		zap.Uint("transaction_id", tx.ID),
		zap.Int64("click_trans_id", req.ClickTransID))
	s.dispatch(ctx, PaidNotification(tx))

	return response.CompleteSuccess(req.ClickTransID, merchantTransID), nil
}

// CreateTransaction starts a purchase for the product on behalf of a phone
// number. The user is created on first purchase.
func (s *MerchantService) CreateTransaction(ctx context.Context, req *models.CreateTransactionRequest) (*models.CreateTransactionResponse, error) {
	product, err := s.store.GetProduct(ctx, req.ProductID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, response.ErrProductNotFound
	}
	if err != nil {
		return nil, response.Internal(err, "Failed to load product")
	}

	user, err := s.store.FindOrCreateUser(ctx, &models.User{
		Phone:     req.Phone,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return nil, response.Internal(err, "Failed to create user")
	}

	tx := &models.Transaction{
		ProductID: product.ID,
		UserID:    user.ID,
		Date:      req.Date,
	}
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return nil, response.Internal(err, "Failed to create transaction")
	}
	metrics.TransactionsCreated.Inc()

	s.logger.Info("transaction created",
		zap.Uint("transaction_id", tx.ID),
		zap.Uint("product_id", product.ID),
		zap.Uint("user_id", user.ID))
	// the order text shows the names from this request, even for a known phone
	buyer := *user
	buyer.FirstName = req.FirstName
	buyer.LastName = req.LastName
	s.dispatch(ctx, NewOrderNotification(tx, product, &buyer))

	return &models.CreateTransactionResponse{
		TransactionID: tx.ID,
		UserID:        user.ID,
		Amount:        product.Price,
	}, nil
}

// CreateProduct adds a product to the catalog
func (s *MerchantService) CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.CreateProductResponse, error) {
	if req.Price <= 0 {
		return nil, response.InvalidInput("price must be a positive integer")
	}

	product := &models.Product{
		City:    req.City,
		Country: req.Country,
		Price:   req.Price,
	}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, response.Internal(err, "Failed to create product")
	}

	s.logger.Info("product created", zap.Uint("product_id", product.ID), zap.Int64("price", product.Price))
	return &models.CreateProductResponse{ProductID: product.ID}, nil
}

// ListProducts returns the catalog without prices
func (s *MerchantService) ListProducts(ctx context.Context) (*models.ProductsResponse, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, response.Internal(err, "Failed to list products")
	}

	resp := &models.ProductsResponse{Products: make([]models.ProductSummary, 0, len(products))}
	for _, p := range products {
		resp.Products = append(resp.Products, models.ProductSummary{
			ID:      p.ID,
			City:    p.City,
			Country: p.Country,
		})
	}
	return resp, nil
}

func (s *MerchantService) verify(req *models.PrepareRequest, merchantTransID string, prepareID int64, action int) bool {
	if s.serviceID != 0 && req.ServiceID != s.serviceID {
		return false
	}
	return s.verifier.Verify(SignFields{
		ClickTransID:      req.ClickTransID,
		ServiceID:         req.ServiceID,
		MerchantTransID:   merchantTransID,
		MerchantPrepareID: prepareID,
		Amount:            req.Amount.String(),
		Action:            action,
		SignTime:          req.SignTime,
	}, req.SignString)
}

func (s *MerchantService) trackReplay(action string, req *models.PrepareRequest) {
	if s.replays == nil {
		return
	}
	if s.replays.Seen(action, req.ClickTransID, req.SignString) {
		s.logger.Info("repeated callback delivery",
			zap.String("action", action),
			zap.Int64("click_trans_id", req.ClickTransID),
			zap.String("merchant_trans_id", req.MerchantTransID.String()))
	}
}

func (s *MerchantService) lock(ctx context.Context, id uint) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	unlock, err := s.locker.Lock(lockCtx, id)
	if err != nil {
		s.logger.Error("failed to lock transaction", zap.Uint("transaction_id", id), zap.Error(err))
		return nil, response.Wrap(err, response.CodeUpdateFailed, response.NoteUpdateFailed)
	}
	return unlock, nil
}

func (s *MerchantService) loadTransaction(ctx context.Context, id uint) (*models.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, response.ErrTransactionNotFound
	}
	if err != nil {
		s.logger.Error("failed to load transaction", zap.Uint("transaction_id", id), zap.Error(err))
		return nil, response.Wrap(err, response.CodeUpdateFailed, response.NoteUpdateFailed)
	}
	return tx, nil
}

func (s *MerchantService) dispatch(ctx context.Context, n Notification) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Dispatch(ctx, n)
}
