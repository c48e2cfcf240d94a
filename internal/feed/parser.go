package feed

import (
	"regexp"
	"strings"

	"saldobot/internal/pkg/utils"
)

// BlockDelimiter separates transaction blocks in the aggregator's feed text.
const BlockDelimiter = "------------------------"

var (
	amountRe = regexp.MustCompile(`Kredit\s*:\s*([\d.]+)`)
	dateRe   = regexp.MustCompile(`Tanggal\s*:\s*(.+)`)
	brandRe  = regexp.MustCompile(`Brand\s*:\s*(.+)`)
)

// Transaction is one parsed settlement line from the feed.
type Transaction struct {
	Date   string
	Amount int64
	Brand  string
}

// Parse extracts transactions from the raw feed text. The format is
// free-text blocks, so parsing is deliberately lenient: a block without a
// usable Kredit amount is dropped, never an error.
func Parse(raw string) []Transaction {
	var out []Transaction
	for _, block := range strings.Split(raw, BlockDelimiter) {
		if strings.TrimSpace(block) == "" {
			continue
		}

		m := amountRe.FindStringSubmatch(block)
		if m == nil {
			continue
		}
		amount, err := utils.ParseAmount(m[1])
		if err != nil || amount <= 0 {
			continue
		}

		tx := Transaction{Amount: amount, Date: "-", Brand: "-"}
		if d := dateRe.FindStringSubmatch(block); d != nil {
			tx.Date = strings.TrimSpace(d[1])
		}
		if b := brandRe.FindStringSubmatch(block); b != nil {
			tx.Brand = strings.TrimSpace(b[1])
		}
		out = append(out, tx)
	}
	return out
}
