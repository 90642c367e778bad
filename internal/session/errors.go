package session

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when a mutating operation is requested while another is pending.
	ErrBusy = errors.New("session operation already in progress")
	// ErrClosed is returned by every mutating operation after Close.
	ErrClosed = errors.New("session manager closed")
)

// AuthKind classifies a failed login.
type AuthKind int

const (
	InvalidInput AuthKind = iota + 1
	InvalidCredentials
	NetworkUnavailable
	ServerError
	StorageUnavailable
)

func (k AuthKind) String() string {
	switch k {
	case InvalidInput:
		return "invalid input"
	case InvalidCredentials:
		return "invalid credentials"
	case NetworkUnavailable:
		return "network unavailable"
	case ServerError:
		return "server error"
	case StorageUnavailable:
		return "storage unavailable"
	}
	return fmt.Sprintf("auth kind(%d)", int(k))
}

// Sentinels matched by errors.Is against an *AuthError of the same kind.
var (
	ErrInvalidInput       = errors.New("missing cpf or password")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNetworkUnavailable = errors.New("identity service unreachable")
	ErrServerError        = errors.New("identity service error")
	ErrStorageUnavailable = errors.New("session storage unavailable")
)

// User-facing messages shown inline on the login screen.
const (
	msgInvalidInput       = "Preencha todos os campos."
	msgInvalidCredentials = "CPF ou Senha incorretos!"
	msgNetworkUnavailable = "Erro de conexão. Verifique sua internet."
	msgServerError        = "Erro ao fazer login"
	msgStorageUnavailable = "Não foi possível salvar a sessão."
)

// AuthError reports a failed login. Message is safe to show to the user.
type AuthError struct {
	Kind    AuthKind
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("login: %s: %v", e.Kind, e.Err)
	}
	return "login: " + e.Kind.String()
}

func (e *AuthError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func (k AuthKind) sentinel() error {
	switch k {
	case InvalidInput:
		return ErrInvalidInput
	case InvalidCredentials:
		return ErrInvalidCredentials
	case NetworkUnavailable:
		return ErrNetworkUnavailable
	case ServerError:
		return ErrServerError
	case StorageUnavailable:
		return ErrStorageUnavailable
	}
	return nil
}

func (k AuthKind) message() string {
	switch k {
	case InvalidInput:
		return msgInvalidInput
	case InvalidCredentials:
		return msgInvalidCredentials
	case NetworkUnavailable:
		return msgNetworkUnavailable
	case StorageUnavailable:
		return msgStorageUnavailable
	}
	return msgServerError
}

func authErr(kind AuthKind, msg string, err error) *AuthError {
	if msg == "" {
		msg = kind.message()
	}
	return &AuthError{Kind: kind, Message: msg, Err: err}
}

// UserMessage extracts the message to display for err. Errors that are not
// *AuthError map to the generic login failure message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return msgServerError
}
