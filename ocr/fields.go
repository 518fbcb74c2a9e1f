package ocr

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Each scalar field is extracted by an ordered pattern list: patterns are
// tried in sequence and the first match wins. Reordering or switching to
// best-match scoring would change behavior on ambiguous inputs.

var contractNoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`合同编号[：:]\s*([A-Za-z0-9\-]+)`),
	regexp.MustCompile(`编号[：:]\s*([A-Za-z0-9\-]+)`),
	regexp.MustCompile(`([A-Z]{2,6}-\d{6,12})`),
}

var contractDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`签订时间[：:]\s*(\d{4}[-年]\d{1,2}[-月]\d{1,2})`),
	regexp.MustCompile(`签订日期[：:]\s*(\d{4}[-年]\d{1,2}[-月]\d{1,2})`),
}

var endDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`合同期限.*?(\d{4}[-年]\d{1,2}[-月]\d{1,2})`),
	regexp.MustCompile(`有效期至[：:]\s*(\d{4}[-年]\d{1,2}[-月]\d{1,2})`),
	regexp.MustCompile(`截止日期[：:]\s*(\d{4}[-年]\d{1,2}[-月]\d{1,2})`),
}

var (
	smelterPattern  = regexp.MustCompile(`甲方[：:]\s*(.+?)(?:\n|$)`)
	deliveryPattern = regexp.MustCompile(`交货地点[：:]\s*(.+?)(?:\n|$)`)
)

// Delivery locations naming the smelter's secondary-lead branch identify the
// counter-party even when the 甲方 label was lost. This is a deliberate
// hard-coded special case for the one known smelter, not general inference.
const knownSmelterCompany = "河南金利金铅集团有限公司"

var smelterLocationHints = []string{"再生铅", "分厂"}

var paymentRatioPatterns = []*regexp.Regexp{
	regexp.MustCompile(`到货款.*?(\d+)%`),
	regexp.MustCompile(`付到货款.*?(\d+)%`),
	regexp.MustCompile(`(\d+)%.*到货款`),
	regexp.MustCompile(`结算付到货款的(\d+)%`),
}

func firstMatch(patterns []*regexp.Regexp, text string) (string, bool) {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

// ExtractContractNo returns the contract number, or nil when no pattern
// matches.
func ExtractContractNo(text string) *string {
	if v, ok := firstMatch(contractNoPatterns, text); ok {
		return &v
	}
	return nil
}

// cleanDate normalizes Chinese date separators to "-" form.
func cleanDate(s string) string {
	s = strings.ReplaceAll(s, "年", "-")
	s = strings.ReplaceAll(s, "月", "-")
	s = strings.ReplaceAll(s, "日", "")
	return s
}

// ExtractContractDate returns the signing date as "YYYY-MM-DD", or nil.
func ExtractContractDate(text string) *string {
	if v, ok := firstMatch(contractDatePatterns, text); ok {
		d := cleanDate(v)
		return &d
	}
	return nil
}

// ExtractEndDate returns the expiry date as "YYYY-MM-DD", or nil. The looser
// 合同期限 form accepts any date inside the duration clause.
func ExtractEndDate(text string) *string {
	if v, ok := firstMatch(endDatePatterns, text); ok {
		d := cleanDate(v)
		return &d
	}
	return nil
}

// contractTermDays is the fixed contract duration used when the paper names a
// signing date but no expiry date.
const contractTermDays = 365

// InferEndDate derives the expiry date from the signing date. Returns nil
// when the start date is absent or unparsable; never overrides an extracted
// end date (callers try ExtractEndDate first).
func InferEndDate(startDate *string) *string {
	if startDate == nil {
		return nil
	}
	start, err := time.Parse("2006-1-2", *startDate)
	if err != nil {
		return nil
	}
	end := start.AddDate(0, 0, contractTermDays).Format("2006-01-02")
	return &end
}

// ExtractSmelterCompany returns the counter-party name. Primary rule is the
// 甲方 label; fallback inspects the delivery location for the known smelter's
// refining division.
func ExtractSmelterCompany(text string) *string {
	if m := smelterPattern.FindStringSubmatch(text); m != nil {
		v := strings.TrimSpace(m[1])
		return &v
	}
	if m := deliveryPattern.FindStringSubmatch(text); m != nil {
		location := strings.TrimSpace(m[1])
		for _, hint := range smelterLocationHints {
			if strings.Contains(location, hint) {
				v := knownSmelterCompany
				return &v
			}
		}
	}
	return nil
}

// ExtractPaymentRatio returns the arrival payment ratio (matched percentage
// divided by 100), or nil when no pattern matches.
func ExtractPaymentRatio(text string) *decimal.Decimal {
	if v, ok := firstMatch(paymentRatioPatterns, text); ok {
		pct, err := strconv.Atoi(v)
		if err != nil {
			return nil
		}
		ratio := decimal.New(int64(pct), -2)
		return &ratio
	}
	return nil
}
