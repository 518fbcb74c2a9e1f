package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Contract is a persisted purchase contract with its product rows.
type Contract struct {
	ID                  uint                `gorm:"primaryKey" json:"id"`
	ContractNo          string              `gorm:"size:64;uniqueIndex" json:"contract_no"`
	ContractDate        *time.Time          `gorm:"type:date" json:"contract_date"`
	EndDate             *time.Time          `gorm:"type:date" json:"end_date"`
	SmelterCompany      string              `gorm:"size:128" json:"smelter_company"`
	TotalQuantity       decimal.NullDecimal `gorm:"type:decimal(12,3)" json:"total_quantity"`
	ArrivalPaymentRatio decimal.Decimal     `gorm:"type:decimal(5,2)" json:"arrival_payment_ratio"`
	FinalPaymentRatio   decimal.Decimal     `gorm:"type:decimal(5,2)" json:"final_payment_ratio"`
	ContractImagePath   string              `gorm:"size:255" json:"contract_image_path"`
	Status              string              `gorm:"size:32" json:"status"`
	Remarks             string              `gorm:"size:255" json:"remarks"`
	Products            []ContractProduct   `gorm:"constraint:OnDelete:CASCADE" json:"products"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

func (Contract) TableName() string { return "pd_contracts" }

// ContractProduct is one product row of a contract. SortOrder reflects the
// position in the confirmed product list.
type ContractProduct struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	ContractID  uint            `gorm:"index" json:"contract_id"`
	ProductName string          `gorm:"size:64" json:"product_name"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2)" json:"unit_price"`
	SortOrder   int             `json:"sort_order"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (ContractProduct) TableName() string { return "pd_contract_products" }

// Contract status values
const (
	StatusActive  = "生效中"
	StatusExpired = "已到期"
)
