package entity

type Payment struct {
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	InvoiceId string `json:"invoice_id"`
	SessionId string `json:"session_id,omitempty"`
	Link      string `json:"link,omitempty"`
}

// PaymentEvent is a provider notification that an invoice was paid.
type PaymentEvent struct {
	InvoiceId string
	CompanyId string
	SessionId string
	Paid      bool
}
