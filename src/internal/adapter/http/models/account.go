package models

// CreateAccountRequest uses pointer fields so that an absent field and an
// empty one are distinguishable.
type CreateAccountRequest struct {
	AccountName     *string `json:"accountName"`
	AccountPassword *string `json:"accountPassword"`
	AccountBalance  *string `json:"accountBalance,omitempty"`
}

type AccountResponse struct {
	AccountName    string   `json:"accountName"`
	AccountBalance string   `json:"accountBalance"`
	Permissions    []string `json:"permissions"`
	CreatedAt      string   `json:"createdAt,omitempty"`
	UpdatedAt      string   `json:"updatedAt,omitempty"`
}
