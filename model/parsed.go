package model

import "github.com/shopspring/decimal"

// ParsedProduct is one reconstructed row of the contract's price table.
// UnitPrice is zero when no price could be paired with the product name.
type ParsedProduct struct {
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// ParsedContract is the result of recognizing one contract photo. Every
// invocation of the recognizer produces a well-formed ParsedContract; fields
// that could not be determined are nil, never an error. Dates are "2006-01-02"
// strings.
type ParsedContract struct {
	ContractNo          *string          `json:"contract_no"`
	ContractDate        *string          `json:"contract_date"`
	EndDate             *string          `json:"end_date"`
	SmelterCompany      *string          `json:"smelter_company"`
	TotalQuantity       *decimal.Decimal `json:"total_quantity"`
	ArrivalPaymentRatio decimal.Decimal  `json:"arrival_payment_ratio"`
	FinalPaymentRatio   decimal.Decimal  `json:"final_payment_ratio"`
	Products            []ParsedProduct  `json:"products"`
	ContractUnitPrice   *decimal.Decimal `json:"contract_unit_price"`
	RemittanceUnitPrice *decimal.Decimal `json:"remittance_unit_price"`
	UnitPrice           *decimal.Decimal `json:"unit_price"`
	OCRSuccess          bool             `json:"ocr_success"`
	OCRMessage          string           `json:"ocr_message"`
	RawText             string           `json:"raw_text"`
	OCRTime             float64          `json:"ocr_time"`
}
