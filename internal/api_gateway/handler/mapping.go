package handler

import (
	"time"

	"github.com/artho-wallet-ledger/internal/domain/account"
	"github.com/artho-wallet-ledger/internal/domain/ledger"
	"github.com/artho-wallet-ledger/internal/domain/statement"
)

func mapAccountToResponse(acc *account.Account) AccountResponse {
	return AccountResponse{
		ID:        acc.ID.String(),
		Name:      acc.Name,
		Mobile:    acc.Mobile,
		Email:     acc.Email,
		Role:      string(acc.Role),
		Status:    string(acc.Status),
		Balance:   acc.Balance,
		CreatedAt: acc.CreatedAt.Format(time.RFC3339),
		UpdatedAt: acc.UpdatedAt.Format(time.RFC3339),
	}
}

func mapEntryToResponse(entry *ledger.Entry) TransactionResponse {
	resp := TransactionResponse{
		TransactionID: entry.ID.String(),
		Type:          string(entry.Type),
		AgentMobile:   entry.AgentMobile,
		UserMobile:    entry.UserMobile,
		Amount:        entry.Amount,
		Fee:           entry.Fee,
		Total:         entry.Total(),
		Status:        string(entry.Status),
		CreatedAt:     entry.CreatedAt.Format(time.RFC3339Nano),
	}
	if entry.SenderID != nil {
		resp.SenderID = entry.SenderID.String()
	}
	if entry.ReceiverID != nil {
		resp.ReceiverID = entry.ReceiverID.String()
	}
	if entry.AcceptedAt != nil {
		resp.AcceptedAt = entry.AcceptedAt.Format(time.RFC3339Nano)
	}
	return resp
}

func mapEntriesToResponse(entries []*ledger.Entry) TransactionListResponse {
	list := TransactionListResponse{Transactions: make([]TransactionResponse, 0, len(entries))}
	for _, e := range entries {
		list.Transactions = append(list.Transactions, mapEntryToResponse(e))
	}
	return list
}

func mapLinesToResponse(lines []*statement.Line) []StatementLineResponse {
	out := make([]StatementLineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, StatementLineResponse{
			TransactionID:   l.TransactionID.String(),
			EventType:       string(l.EventType),
			TransactionType: string(l.TransactionType),
			Role:            string(l.Role),
			Delta:           l.Delta,
			Amount:          l.Amount,
			Fee:             l.Fee,
			OccurredAt:      l.OccurredAt.Format(time.RFC3339Nano),
		})
	}
	return out
}
