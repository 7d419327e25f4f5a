package service

// Engine groups the processors exposed to the HTTP layer
type Engine struct {
	Transfers TransferProcessor
	CashIn    CashInWorkflow
	CashOut   CashOutProcessor
	History   HistoryReader
}

func NewEngine(deps Dependencies) *Engine {
	return &Engine{
		Transfers: NewTransferService(deps),
		CashIn:    NewCashInService(deps),
		CashOut:   NewCashOutService(deps),
		History:   NewHistoryService(deps),
	}
}

var (
	_ TransferProcessor = (*TransferService)(nil)
	_ CashInWorkflow    = (*CashInService)(nil)
	_ CashOutProcessor  = (*CashOutService)(nil)
	_ HistoryReader     = (*HistoryService)(nil)
)
