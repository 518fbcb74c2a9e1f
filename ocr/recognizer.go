package ocr

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/Jisalute/PD/model"
	"github.com/shopspring/decimal"
)

var (
	// defaultArrivalRatio applies when no payment clause could be read.
	defaultArrivalRatio = decimal.RequireFromString("0.9")
	one                 = decimal.NewFromInt(1)

	// unitPriceDivisor converts the paper contract price into the internal
	// settlement price. Fixed tax/margin adjustment, do not re-derive.
	unitPriceDivisor = decimal.RequireFromString("1.3")
)

// Recognizer runs the full extraction pipeline against an injected OCR
// engine. It is stateless between calls and safe for concurrent use as long
// as the engine is.
type Recognizer struct {
	engine Engine
}

func NewRecognizer(engine Engine) *Recognizer {
	return &Recognizer{engine: engine}
}

// Recognize performs OCR on a contract photo and assembles the structured
// result. It never returns an error: an engine failure yields a degraded
// record with OCRSuccess=false and the failure text in OCRMessage; an empty
// recognition result yields OCRSuccess=true with a "no text" message. Both
// carry default ratios, no products and absent scalar fields.
func (r *Recognizer) Recognize(ctx context.Context, imagePath string) *model.ParsedContract {
	lines, elapsed, err := r.engine.Recognize(ctx, imagePath)
	if err != nil {
		return degradedResult(false, fmt.Sprintf("识别异常: %v", err))
	}
	if len(lines) == 0 {
		return degradedResult(true, "未能识别到任何文本")
	}

	texts := make([]string, len(lines))
	for i, line := range lines {
		texts[i] = strings.TrimSpace(line.Text)
		lines[i].Text = texts[i]
	}
	fullText := NormalizeText(strings.Join(texts, "\n"))

	result := r.parse(lines, fullText)
	result.OCRTime = math.Round(elapsed*1000) / 1000
	return result
}

// parse runs field extraction and table reconstruction over the normalized
// text and derives the dependent values.
func (r *Recognizer) parse(lines []Line, fullText string) *model.ParsedContract {
	contractNo := ExtractContractNo(fullText)
	contractDate := ExtractContractDate(fullText)
	endDate := ExtractEndDate(fullText)
	if endDate == nil {
		endDate = InferEndDate(contractDate)
	}
	smelter := ExtractSmelterCompany(fullText)
	arrival := ExtractPaymentRatio(fullText)

	products, totalQuantity := reconstructSafely(lines)

	arrivalRatio := defaultArrivalRatio
	if arrival != nil {
		arrivalRatio = *arrival
	}

	var contractPrice, remittancePrice, unitPrice *decimal.Decimal
	for _, p := range products {
		if p.UnitPrice.IsPositive() {
			cp := p.UnitPrice
			rp := p.UnitPrice
			up := p.UnitPrice.Div(unitPriceDivisor)
			contractPrice, remittancePrice, unitPrice = &cp, &rp, &up
			break
		}
	}

	if products == nil {
		products = []model.ParsedProduct{}
	}

	return &model.ParsedContract{
		ContractNo:          contractNo,
		ContractDate:        contractDate,
		EndDate:             endDate,
		SmelterCompany:      smelter,
		TotalQuantity:       totalQuantity,
		ArrivalPaymentRatio: arrivalRatio,
		FinalPaymentRatio:   one.Sub(arrivalRatio),
		Products:            products,
		ContractUnitPrice:   contractPrice,
		RemittanceUnitPrice: remittancePrice,
		UnitPrice:           unitPrice,
		OCRSuccess:          true,
		OCRMessage:          resultMessage(contractNo, products),
		RawText:             fullText,
	}
}

// reconstructSafely isolates table reconstruction: a panic there degrades
// only the product list and quantity, never the scalar fields.
func reconstructSafely(lines []Line) (products []model.ParsedProduct, totalQuantity *decimal.Decimal) {
	defer func() {
		if r := recover(); r != nil {
			products = nil
			totalQuantity = nil
		}
	}()
	return ReconstructProducts(lines)
}

// resultMessage names the required fields an operator must fill in manually.
// Only the contract number and the product table are required; other absent
// fields are normal partial-extraction outcomes.
func resultMessage(contractNo *string, products []model.ParsedProduct) string {
	var missing []string
	if contractNo == nil {
		missing = append(missing, "合同编号")
	}
	if len(products) == 0 {
		missing = append(missing, "品种表格")
	}
	if len(missing) > 0 {
		return "已识别，以下字段缺失需手动填写: " + strings.Join(missing, ", ")
	}
	return "识别完成"
}

func degradedResult(success bool, message string) *model.ParsedContract {
	return &model.ParsedContract{
		ArrivalPaymentRatio: defaultArrivalRatio,
		FinalPaymentRatio:   one.Sub(defaultArrivalRatio),
		Products:            []model.ParsedProduct{},
		OCRSuccess:          success,
		OCRMessage:          message,
	}
}
