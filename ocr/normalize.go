package ocr

import "strings"

// correction rewrites one known OCR misread. Corrections are applied in order
// over the whole text; the table must be idempotent, so a replacement may not
// contain another rule's trigger. The bare "方：" label (a misread "甲方：")
// is anchored to the start of a line because its replacement would otherwise
// re-trigger the rule.
type correction struct {
	wrong string
	right string
}

var ocrCorrections = []correction{
	{"\n方：", "\n甲方："},
	{"\n方:", "\n甲方:"},
	{"乙万", "乙方"},
	{"合司", "合同"},
	{"编亏", "编号"},
	{"金辆", "金铅"},
}

// NormalizeText fixes common OCR misreads in the newline-joined recognition
// text. It is deterministic and idempotent.
func NormalizeText(text string) string {
	// Leading newline so line-anchored rules also fire on the first line.
	t := "\n" + text
	for _, c := range ocrCorrections {
		t = strings.ReplaceAll(t, c.wrong, c.right)
	}
	return strings.TrimPrefix(t, "\n")
}
