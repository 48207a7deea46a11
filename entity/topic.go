// Package entity defines domain types shared across the application.
package entity

// Notification topics used to categorize bot messages.
const (
	TopicInvoice = "invoice"
	TopicPayment = "payment"
	TopicError   = "error"
	TopicSystem  = "system"
)
