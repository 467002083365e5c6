package models

// TransferRequest carries no source account; the source is the account bound
// to the caller's session.
type TransferRequest struct {
	DestinationAccountName *string `json:"destinationAccountName"`
	Amount                 *string `json:"amount"`
}

type TransferResponse struct {
	SourceAccountName      string `json:"sourceAccountName"`
	DestinationAccountName string `json:"destinationAccountName"`
	TransferredAmount      string `json:"transferredAmount"`
	SourceBalance          string `json:"sourceBalance"`
}
