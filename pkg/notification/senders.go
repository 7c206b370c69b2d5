package notification

// EmailSender delivers account and alert mail. The production sender is
// configured out of band; the default implementation only logs.
type EmailSender interface {
	SendEmail(to, subject, body string) error
}

// SMSSender delivers text messages for critical alerts.
type SMSSender interface {
	SendSMS(to, message string) error
}

// NoopSender satisfies both interfaces for deployments without a
// configured gateway.
type NoopSender struct{}

func (NoopSender) SendEmail(to, subject, body string) error { return nil }
func (NoopSender) SendSMS(to, message string) error         { return nil }
