package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jisalute/PD/model"
	"gorm.io/gorm"
)

// ErrContractNoExists is returned when creating a contract whose number is
// already stored.
var ErrContractNoExists = errors.New("合同编号已存在")

// ContractService persists contracts and their product rows.
type ContractService struct {
	db *gorm.DB
}

func NewContractService(db *gorm.DB) *ContractService {
	return &ContractService{db: db}
}

// Migrate creates or updates the contract tables.
func (s *ContractService) Migrate() error {
	return s.db.AutoMigrate(&model.Contract{}, &model.ContractProduct{})
}

// Create stores a contract and its products. The contract number must be
// unique; product sort order follows list position.
func (s *ContractService) Create(ctx context.Context, contract *model.Contract) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Contract{}).
			Where("contract_no = ?", contract.ContractNo).
			Count(&count).Error; err != nil {
			return fmt.Errorf("check contract no: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("合同编号 %s 已存在: %w", contract.ContractNo, ErrContractNoExists)
		}

		if contract.Status == "" {
			contract.Status = model.StatusActive
		}
		for i := range contract.Products {
			contract.Products[i].SortOrder = i
		}

		if err := tx.Create(contract).Error; err != nil {
			return fmt.Errorf("create contract: %w", err)
		}
		return nil
	})
}

// Update modifies contract fields and, when products is non-nil, replaces the
// whole product list.
func (s *ContractService) Update(ctx context.Context, id uint, contract *model.Contract, products []model.ContractProduct) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Contract
		if err := tx.First(&existing, id).Error; err != nil {
			return fmt.Errorf("find contract %d: %w", id, err)
		}

		contract.ID = id
		if err := tx.Model(&existing).Omit("Products").Updates(contract).Error; err != nil {
			return fmt.Errorf("update contract %d: %w", id, err)
		}

		if products != nil {
			if err := tx.Where("contract_id = ?", id).Delete(&model.ContractProduct{}).Error; err != nil {
				return fmt.Errorf("clear products of contract %d: %w", id, err)
			}
			for i := range products {
				products[i].ID = 0
				products[i].ContractID = id
				products[i].SortOrder = i
			}
			if len(products) > 0 {
				if err := tx.Create(&products).Error; err != nil {
					return fmt.Errorf("replace products of contract %d: %w", id, err)
				}
			}
		}
		return nil
	})
}

// Get returns a contract with its products ordered by sort order.
func (s *ContractService) Get(ctx context.Context, id uint) (*model.Contract, error) {
	var contract model.Contract
	err := s.db.WithContext(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order") }).
		First(&contract, id).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// GetByNo returns a contract by its contract number.
func (s *ContractService) GetByNo(ctx context.Context, contractNo string) (*model.Contract, error) {
	var contract model.Contract
	err := s.db.WithContext(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order") }).
		Where("contract_no = ?", contractNo).
		First(&contract).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// List returns one page of contracts, newest first, with products preloaded,
// plus the total row count.
func (s *ContractService) List(ctx context.Context, page, pageSize int) ([]model.Contract, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&model.Contract{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count contracts: %w", err)
	}

	var contracts []model.Contract
	err := s.db.WithContext(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order") }).
		Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&contracts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list contracts: %w", err)
	}

	return contracts, total, nil
}

// Delete removes a contract and its product rows.
func (s *ContractService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("contract_id = ?", id).Delete(&model.ContractProduct{}).Error; err != nil {
			return fmt.Errorf("delete products of contract %d: %w", id, err)
		}
		if err := tx.Delete(&model.Contract{}, id).Error; err != nil {
			return fmt.Errorf("delete contract %d: %w", id, err)
		}
		return nil
	})
}

// Export returns contracts with products for the given ids, or all contracts
// when ids is empty.
func (s *ContractService) Export(ctx context.Context, ids []uint) ([]model.Contract, error) {
	q := s.db.WithContext(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order") }).
		Order("id")
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}

	var contracts []model.Contract
	if err := q.Find(&contracts).Error; err != nil {
		return nil, fmt.Errorf("export contracts: %w", err)
	}
	return contracts, nil
}

// ExpireOverdue moves active contracts whose end date is more than graceDays
// past into the expired status, returning the number of contracts touched.
func (s *ContractService) ExpireOverdue(ctx context.Context, graceDays int) (int64, error) {
	cutoff := expiryCutoff(time.Now(), graceDays)

	res := s.db.WithContext(ctx).
		Model(&model.Contract{}).
		Where("status = ? AND end_date IS NOT NULL AND end_date < ?", model.StatusActive, cutoff).
		Update("status", model.StatusExpired)
	if res.Error != nil {
		return 0, fmt.Errorf("expire contracts: %w", res.Error)
	}

	if res.RowsAffected > 0 {
		slog.Info("contracts expired", "count", res.RowsAffected, "cutoff", cutoff.Format("2006-01-02"))
	}
	return res.RowsAffected, nil
}

// expiryCutoff is the latest end date that still counts as overdue at `now`
// given the grace period.
func expiryCutoff(now time.Time, graceDays int) time.Time {
	year, month, day := now.AddDate(0, 0, -graceDays).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, now.Location())
}
