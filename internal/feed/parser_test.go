package feed

import "testing"

const sampleFeed = `Tanggal : 2024-11-02 14:31:07
Kredit : 10.042
Brand : BCA
------------------------
Tanggal : 2024-11-02 14:30:12
Kredit : 50.000
Brand : DANA
------------------------
Status : GAGAL
Keterangan : transaksi dibatalkan
------------------------
Tanggal : 2024-11-02 14:28:55
Kredit : 5000
Brand : QRIS
`

func TestParseFeedBlocks(t *testing.T) {
	txs := Parse(sampleFeed)
	if len(txs) != 3 {
		t.Fatalf("parsed %d transactions, want 3 (block without Kredit dropped)", len(txs))
	}

	want := []Transaction{
		{Date: "2024-11-02 14:31:07", Amount: 10042, Brand: "BCA"},
		{Date: "2024-11-02 14:30:12", Amount: 50000, Brand: "DANA"},
		{Date: "2024-11-02 14:28:55", Amount: 5000, Brand: "QRIS"},
	}
	for i, tx := range txs {
		if tx != want[i] {
			t.Errorf("tx[%d] = %+v, want %+v", i, tx, want[i])
		}
	}
}

func TestParseDefaultsMissingFields(t *testing.T) {
	txs := Parse("Kredit : 12.500")
	if len(txs) != 1 {
		t.Fatalf("parsed %d transactions, want 1", len(txs))
	}
	if txs[0].Amount != 12500 || txs[0].Date != "-" || txs[0].Brand != "-" {
		t.Fatalf("tx = %+v, want amount 12500 with placeholder date and brand", txs[0])
	}
}

func TestParseDropsUnusableBlocks(t *testing.T) {
	cases := map[string]string{
		"empty":         "",
		"delimiterOnly": BlockDelimiter,
		"noKredit":      "Tanggal : hari ini\nBrand : BCA",
		"zeroKredit":    "Kredit : 0",
		"garbageKredit": "Kredit : abc",
	}
	for name, raw := range cases {
		if txs := Parse(raw); len(txs) != 0 {
			t.Errorf("%s: parsed %d transactions, want 0", name, len(txs))
		}
	}
}

func TestParseToleratesSpacingVariants(t *testing.T) {
	txs := Parse("Kredit:25.000\nBrand:   GOPAY  ")
	if len(txs) != 1 {
		t.Fatalf("parsed %d transactions, want 1", len(txs))
	}
	if txs[0].Amount != 25000 {
		t.Fatalf("amount = %d, want 25000", txs[0].Amount)
	}
	if txs[0].Brand != "GOPAY" {
		t.Fatalf("brand = %q, want trimmed GOPAY", txs[0].Brand)
	}
}
