package common

// EmailSender abstracts outbound mail so notification code never binds to a
// concrete provider.
type EmailSender interface {
	Send(to, subject, html string) error
}

// Email is one captured outbound message.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// InMemoryEmail records sent mail for assertions in tests.
type InMemoryEmail struct {
	Outbox []Email
}

func (m *InMemoryEmail) Send(to, subject, html string) error {
	if m == nil {
		return nil
	}
	m.Outbox = append(m.Outbox, Email{To: to, Subject: subject, HTML: html})
	return nil
}

// NopEmailSender discards all mail. The default until SMTP is configured.
type NopEmailSender struct{}

func (NopEmailSender) Send(string, string, string) error { return nil }
