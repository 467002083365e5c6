package models

type DepositRequest struct {
	AccountName *string `json:"accountName"`
	Amount      *string `json:"amount"`
}

type DepositResponse struct {
	AccountName     string `json:"accountName"`
	DepositedAmount string `json:"depositedAmount"`
	AccountBalance  string `json:"accountBalance"`
}
