package ocr

import (
	"regexp"
	"strings"

	"github.com/Jisalute/PD/model"
	"github.com/shopspring/decimal"
)

// ProductTypes is the closed set of product categories a contract price table
// can contain. Lines between the name anchors that are not in this set are
// treated as OCR noise, not as unknown products.
var ProductTypes = []string{"电动车", "黑皮", "新能源", "通信", "摩托车", "大白", "牵引"}

func isKnownProduct(text string) bool {
	for _, p := range ProductTypes {
		if text == p {
			return true
		}
	}
	return false
}

var numericToken = regexp.MustCompile(`^\d+\.?\d*$`)

// minTotalQuantity filters out small incidental numbers (item counts, page
// numbers) when scanning for the tonnage total after the quantity header.
var minTotalQuantity = decimal.NewFromInt(50)

// ReconstructProducts recovers the contract's price table from the linearized
// OCR line sequence using anchor-token positional scanning. The scan tracks
// anchor indices in a single forward pass, each fixed at its first discovery:
//
//	品名          opens the product-name region
//	单价 + 元     closes names, opens unit prices
//	数量 + 吨     closes prices, opens the total-quantity scan
//
// Names and prices are paired by position; a missing price pairs as zero and
// surplus prices are dropped. The total quantity is the first standalone
// number ≥ 50 after the quantity anchor. The quantity anchor is discovered
// even when the name header is missing, so a partial table still yields a
// tonnage total.
func ReconstructProducts(lines []Line) ([]model.ParsedProduct, *decimal.Decimal) {
	nameStart, nameEnd, priceStart, priceEnd, qtyStart := -1, -1, -1, -1, -1

	for i, line := range lines {
		text := line.Text
		switch {
		case text == "品名" && nameStart < 0:
			nameStart = i
		case containsAll(text, "单价", "元") && nameStart >= 0 && nameEnd < 0:
			nameEnd = i
			priceStart = i
		case containsAll(text, "数量", "吨") && qtyStart < 0:
			qtyStart = i
			if priceStart >= 0 && priceEnd < 0 {
				priceEnd = i
			}
		}
	}

	var totalQuantity *decimal.Decimal
	if qtyStart >= 0 {
		for i := qtyStart + 1; i < len(lines); i++ {
			if !numericToken.MatchString(lines[i].Text) {
				continue
			}
			val, err := decimal.NewFromString(lines[i].Text)
			if err != nil {
				continue
			}
			if val.GreaterThanOrEqual(minTotalQuantity) {
				totalQuantity = &val
				break
			}
		}
	}

	if nameStart < 0 || nameEnd < 0 {
		return nil, totalQuantity
	}

	var names []string
	for i := nameStart + 1; i < nameEnd; i++ {
		if isKnownProduct(lines[i].Text) {
			names = append(names, lines[i].Text)
		}
	}

	var prices []decimal.Decimal
	if priceStart >= 0 && priceEnd >= 0 {
		for i := priceStart + 1; i < priceEnd; i++ {
			if !numericToken.MatchString(lines[i].Text) {
				continue
			}
			if val, err := decimal.NewFromString(lines[i].Text); err == nil {
				prices = append(prices, val)
			}
		}
	}

	products := make([]model.ParsedProduct, 0, len(names))
	for i, name := range names {
		price := decimal.Zero
		if i < len(prices) {
			price = prices[i]
		}
		products = append(products, model.ParsedProduct{ProductName: name, UnitPrice: price})
	}

	return products, totalQuantity
}

func containsAll(text string, subs ...string) bool {
	for _, s := range subs {
		if !strings.Contains(text, s) {
			return false
		}
	}
	return true
}
