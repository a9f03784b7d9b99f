package email

import (
	"context"
)

// Message is a rendered email with both bodies.
type Message struct {
	To       string
	ToName   string
	Subject  string
	TextBody string
	HTMLBody string
}

type Service interface {
	Send(ctx context.Context, msg *Message) error
}
