package domain

// OutboundTransactionRequest is the build-once, send-once payload for the
// loan-servicing transaction endpoint. Amounts are genuine JSON numbers;
// optional fields are omitted entirely when absent from the draft.
type OutboundTransactionRequest struct {
	TransactionDate   string  `json:"transactionDate"`
	TransactionAmount float64 `json:"transactionAmount"`
	RebatePercentage  float64 `json:"rebatePercentage"`
	DateFormat        string  `json:"dateFormat"`
	Locale            string  `json:"locale"`
	ExternalID        *string `json:"externalId,omitempty"`
	PaymentTypeID     *int64  `json:"paymentTypeId,omitempty"`
	Note              *string `json:"note,omitempty"`
	AccountNumber     *string `json:"accountNumber,omitempty"`
	CheckNumber       *string `json:"checkNumber,omitempty"`
	RoutingCode       *string `json:"routingCode,omitempty"`
	ReceiptNumber     *string `json:"receiptNumber,omitempty"`
	BankNumber        *string `json:"bankNumber,omitempty"`
	IdempotencyKey    string  `json:"idempotencyKey,omitempty"`
}
