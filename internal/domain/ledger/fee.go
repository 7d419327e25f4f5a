package ledger

import "github.com/shopspring/decimal"

const (
	MinSendAmount    int64 = 50
	SendFeeThreshold int64 = 100
	SendFlatFee      int64 = 5

	// HistoryLimit caps the entries returned by a history read
	HistoryLimit = 10
)

var cashOutFeeRate = decimal.RequireFromString("0.015")

// SendFee is a flat fee on transfers strictly above SendFeeThreshold
func SendFee(amount int64) int64 {
	if amount > SendFeeThreshold {
		return SendFlatFee
	}
	return 0
}

// CashOutFee is 1.5% of amount rounded half away from zero to a whole unit
func CashOutFee(amount int64) int64 {
	return decimal.NewFromInt(amount).Mul(cashOutFeeRate).Round(0).IntPart()
}
