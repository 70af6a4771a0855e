package wallet

import (
	"context"
	"errors"
	"strings"
	"sync"
)

type EmailState int

const (
	EmailInitial EmailState = iota
	EmailSendingCode
	EmailAwaitingCode
	EmailSubmittingCode
	EmailDone
	EmailError
)

func (s EmailState) String() string {
	switch s {
	case EmailInitial:
		return "initial"
	case EmailSendingCode:
		return "sending-code"
	case EmailAwaitingCode:
		return "awaiting-code-input"
	case EmailSubmittingCode:
		return "submitting-code"
	case EmailDone:
		return "done"
	case EmailError:
		return "error"
	}
	return "unknown"
}

var (
	ErrEmptyEmail = errors.New("enter an email address")
	ErrEmptyCode  = errors.New("enter the code from the email")
	ErrEmailState = errors.New("not possible right now")
)

// Provider is the embedded wallet service behind email login.
type Provider interface {
	SendCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) (Account, error)
}

// EmailLogin walks a user through the one-time code flow and logs the
// resulting account into the session.
type EmailLogin struct {
	provider Provider
	session  *Session

	mu       sync.Mutex
	state    EmailState
	email    string
	codeSent bool
	err      error
}

func NewEmailLogin(p Provider, s *Session) *EmailLogin {
	return &EmailLogin{provider: p, session: s}
}

func (l *EmailLogin) State() EmailState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *EmailLogin) Email() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.email
}

func (l *EmailLogin) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// CodeSent tells whether a code can be submitted.
func (l *EmailLogin) CodeSent() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.codeSent
}

func (l *EmailLogin) SendCode(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)

	l.mu.Lock()
	if l.state != EmailInitial && l.state != EmailError {
		l.mu.Unlock()
		return ErrEmailState
	}
	if email == "" {
		l.mu.Unlock()
		return ErrEmptyEmail
	}
	l.state = EmailSendingCode
	l.email = email
	l.err = nil
	l.mu.Unlock()

	err := l.provider.SendCode(ctx, email)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.state = EmailError
		l.err = err
		return err
	}
	l.state = EmailAwaitingCode
	l.codeSent = true
	return nil
}

func (l *EmailLogin) LoginWithCode(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)

	l.mu.Lock()
	if l.state != EmailAwaitingCode && !(l.state == EmailError && l.codeSent) {
		l.mu.Unlock()
		return ErrEmailState
	}
	if code == "" {
		l.mu.Unlock()
		return ErrEmptyCode
	}
	l.state = EmailSubmittingCode
	l.err = nil
	email := l.email
	l.mu.Unlock()

	acc, err := l.provider.VerifyCode(ctx, email, code)

	l.mu.Lock()
	if err != nil {
		l.state = EmailError
		l.err = err
		l.mu.Unlock()
		return err
	}
	l.state = EmailDone
	l.mu.Unlock()

	if l.session != nil {
		l.session.LoginAccount(acc, "email")
	}
	return nil
}

// Reset starts over, e.g. with a different email.
func (l *EmailLogin) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = EmailInitial
	l.email = ""
	l.codeSent = false
	l.err = nil
}
