package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Jisalute/PD/model"
	"github.com/Jisalute/PD/ocr"
	"github.com/Jisalute/PD/pkg/logger"
	"github.com/Jisalute/PD/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ContractRecognizer turns a contract photo into a structured record. It
// never fails: degraded results carry their diagnosis in the record itself.
type ContractRecognizer interface {
	Recognize(ctx context.Context, imagePath string) *model.ParsedContract
}

// ImageStorage stores contract photos and hands out download URLs.
type ImageStorage interface {
	UploadContractImage(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	PresignedURL(ctx context.Context, objectName string) (string, error)
	RemoveContractImage(ctx context.Context, objectName string) error
}

// ContractRepo persists confirmed contracts.
type ContractRepo interface {
	Create(ctx context.Context, contract *model.Contract) error
	Update(ctx context.Context, id uint, contract *model.Contract, products []model.ContractProduct) error
	Get(ctx context.Context, id uint) (*model.Contract, error)
	GetByNo(ctx context.Context, contractNo string) (*model.Contract, error)
	List(ctx context.Context, page, pageSize int) ([]model.Contract, int64, error)
	Delete(ctx context.Context, id uint) error
	Export(ctx context.Context, ids []uint) ([]model.Contract, error)
}

type ContractHandler struct {
	storage    ImageStorage
	recognizer ContractRecognizer
	contracts  ContractRepo
}

func NewContractHandler(storage ImageStorage, recognizer ContractRecognizer, contracts ContractRepo) *ContractHandler {
	return &ContractHandler{
		storage:    storage,
		recognizer: recognizer,
		contracts:  contracts,
	}
}

var imageContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// Recognize accepts a contract photo upload, stores the original and returns
// the extracted record for operator confirmation. A degraded extraction is
// still HTTP 200; the record's ocr_success and ocr_message tell the operator
// what needs manual filling.
func (h *ContractHandler) Recognize(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	contentType, ok := imageContentTypes[ext]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only JPG and PNG images are allowed"})
		return
	}

	// Spool the upload to disk: the OCR engine reads from a path
	tmp, err := os.CreateTemp("", "upload-*"+ext)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to buffer upload"})
		return
	}
	defer os.Remove(tmp.Name())

	size, err := io.Copy(tmp, file)
	tmp.Close()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to buffer upload"})
		return
	}

	objectName := fmt.Sprintf("contracts/%s/%s_%s",
		time.Now().Format("2006-01"), uuid.New().String(), header.Filename)

	src, err := os.Open(tmp.Name())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
		return
	}
	err = h.storage.UploadContractImage(c.Request.Context(), objectName, src, size, contentType)
	src.Close()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store image: " + err.Error()})
		return
	}

	imageURL, err := h.storage.PresignedURL(c.Request.Context(), objectName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate URL: " + err.Error()})
		return
	}

	prepared := ocr.PreprocessImage(tmp.Name())
	if prepared != tmp.Name() {
		defer os.Remove(prepared)
	}

	result := h.recognizer.Recognize(c.Request.Context(), prepared)

	logger.Info(c.Request.Context(), "contract recognized",
		"ocr_success", result.OCRSuccess,
		"ocr_message", result.OCRMessage,
		"ocr_time", result.OCRTime,
		"products", len(result.Products),
	)

	c.JSON(http.StatusOK, gin.H{
		"data":       result,
		"image_path": objectName,
		"image_url":  imageURL,
	})
}

type ProductRequest struct {
	ProductName string          `json:"product_name" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type ContractRequest struct {
	ContractNo          string           `json:"contract_no" binding:"required"`
	ContractDate        *string          `json:"contract_date"`
	EndDate             *string          `json:"end_date"`
	SmelterCompany      string           `json:"smelter_company"`
	TotalQuantity       *decimal.Decimal `json:"total_quantity"`
	ArrivalPaymentRatio *decimal.Decimal `json:"arrival_payment_ratio"`
	ContractImagePath   string           `json:"contract_image_path"`
	Status              string           `json:"status"`
	Remarks             string           `json:"remarks"`
	Products            []ProductRequest `json:"products"`
}

func (r *ContractRequest) toContract() (*model.Contract, error) {
	contractDate, err := parseDate(r.ContractDate)
	if err != nil {
		return nil, fmt.Errorf("invalid contract_date: %w", err)
	}
	endDate, err := parseDate(r.EndDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end_date: %w", err)
	}

	arrival := decimal.RequireFromString("0.9")
	if r.ArrivalPaymentRatio != nil {
		arrival = *r.ArrivalPaymentRatio
	}

	contract := &model.Contract{
		ContractNo:          r.ContractNo,
		ContractDate:        contractDate,
		EndDate:             endDate,
		SmelterCompany:      r.SmelterCompany,
		ArrivalPaymentRatio: arrival,
		FinalPaymentRatio:   decimal.NewFromInt(1).Sub(arrival),
		ContractImagePath:   r.ContractImagePath,
		Status:              r.Status,
		Remarks:             r.Remarks,
	}
	if r.TotalQuantity != nil {
		contract.TotalQuantity = decimal.NullDecimal{Decimal: *r.TotalQuantity, Valid: true}
	}
	for i, p := range r.Products {
		contract.Products = append(contract.Products, model.ContractProduct{
			ProductName: p.ProductName,
			UnitPrice:   p.UnitPrice,
			SortOrder:   i,
		})
	}
	return contract, nil
}

func parseDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", *s, time.Local)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create stores a confirmed contract.
func (h *ContractHandler) Create(c *gin.Context) {
	var req ContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	contract, err := req.toContract()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.contracts.Create(c.Request.Context(), contract); err != nil {
		if errors.Is(err, service.ErrContractNoExists) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create contract: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "合同创建成功",
		"id":      contract.ID,
	})
}

// List returns one page of contracts with per-contract product counts.
func (h *ContractHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	contracts, total, err := h.contracts.List(c.Request.Context(), page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list contracts: " + err.Error()})
		return
	}

	result := make([]gin.H, len(contracts))
	for i, contract := range contracts {
		result[i] = gin.H{
			"id":              contract.ID,
			"contract_no":     contract.ContractNo,
			"contract_date":   formatDate(contract.ContractDate),
			"end_date":        formatDate(contract.EndDate),
			"smelter_company": contract.SmelterCompany,
			"status":          contract.Status,
			"product_count":   len(contract.Products),
			"created_at":      contract.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"contracts": result,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func formatDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}

// Get returns a single contract with its products.
func (h *ContractHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contract id"})
		return
	}

	contract, err := h.contracts.Get(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get contract: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, contract)
}

// Update modifies a contract; a products array in the body replaces the whole
// product list.
func (h *ContractHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contract id"})
		return
	}

	var req ContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	contract, err := req.toContract()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var products []model.ContractProduct
	if req.Products != nil {
		products = contract.Products
	}
	contract.Products = nil

	if err := h.contracts.Update(c.Request.Context(), uint(id), contract, products); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update contract: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "合同更新成功"})
}

// Delete removes a contract and its stored photo. A failed photo removal is
// logged but does not fail the request.
func (h *ContractHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contract id"})
		return
	}

	imagePath := ""
	if contract, err := h.contracts.Get(c.Request.Context(), uint(id)); err == nil {
		imagePath = contract.ContractImagePath
	}

	if err := h.contracts.Delete(c.Request.Context(), uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete contract: " + err.Error()})
		return
	}

	if imagePath != "" {
		if err := h.storage.RemoveContractImage(c.Request.Context(), imagePath); err != nil {
			logger.Warn(c.Request.Context(), "failed to remove contract image",
				"image_path", imagePath, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "删除成功"})
}

// Export returns flattened contract/product rows, optionally filtered by a
// comma-separated ids query parameter.
func (h *ContractHandler) Export(c *gin.Context) {
	var ids []uint
	if raw := c.Query("ids"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ids parameter"})
				return
			}
			ids = append(ids, uint(id))
		}
	}

	contracts, err := h.contracts.Export(c.Request.Context(), ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export contracts: " + err.Error()})
		return
	}

	var rows []gin.H
	for _, contract := range contracts {
		base := gin.H{
			"id":                    contract.ID,
			"contract_no":           contract.ContractNo,
			"contract_date":         formatDate(contract.ContractDate),
			"end_date":              formatDate(contract.EndDate),
			"smelter_company":       contract.SmelterCompany,
			"total_quantity":        contract.TotalQuantity,
			"arrival_payment_ratio": contract.ArrivalPaymentRatio,
			"final_payment_ratio":   contract.FinalPaymentRatio,
			"status":                contract.Status,
		}
		if len(contract.Products) == 0 {
			rows = append(rows, base)
			continue
		}
		for _, p := range contract.Products {
			row := gin.H{}
			for k, v := range base {
				row[k] = v
			}
			row["product_name"] = p.ProductName
			row["unit_price"] = p.UnitPrice
			rows = append(rows, row)
		}
	}

	c.JSON(http.StatusOK, gin.H{"rows": rows, "count": len(rows)})
}
