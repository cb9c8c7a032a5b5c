// Package siwe builds and verifies Sign-In with Ethereum (EIP-4361) messages
// and the Authorization header that carries them.
package siwe

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/vitwit/x402gen/utils"
)

const (
	DefaultTTL = 10 * time.Minute
	Version    = "1"
)

var (
	ErrInvalidMessage   = errors.New("siwe: invalid message")
	ErrInvalidSignature = errors.New("siwe: invalid signature")
	ErrExpired          = errors.New("siwe: message expired")
	ErrNotYetValid      = errors.New("siwe: message not yet valid")
)

// Message is an EIP-4361 sign-in request.
type Message struct {
	Domain         string    `validate:"required"`
	Address        string    `validate:"required,eth_addr"`
	Statement      string
	URI            string    `validate:"required,uri"`
	Version        string    `validate:"eq=1"`
	ChainID        int64     `validate:"gt=0"`
	Nonce          string    `validate:"required,alphanum,min=8"`
	IssuedAt       time.Time `validate:"required"`
	ExpirationTime *time.Time
	NotBefore      *time.Time
	RequestID      string
	Resources      []string `validate:"dive,uri"`
}

type Option func(*builder)

type builder struct {
	msg *Message
	ttl time.Duration
	now func() time.Time
}

func WithStatement(s string) Option {
	return func(b *builder) { b.msg.Statement = s }
}

// WithTTL sets the expiration relative to issued-at. Zero means no expiration.
func WithTTL(d time.Duration) Option {
	return func(b *builder) { b.ttl = d }
}

func WithNonce(nonce string) Option {
	return func(b *builder) { b.msg.Nonce = nonce }
}

func WithRequestID(id string) Option {
	return func(b *builder) { b.msg.RequestID = id }
}

func WithResources(uris ...string) Option {
	return func(b *builder) { b.msg.Resources = append(b.msg.Resources, uris...) }
}

func WithClock(now func() time.Time) Option {
	return func(b *builder) { b.now = now }
}

// NewMessage fills in version, nonce, issued-at and expiration, then validates.
func NewMessage(domain, uri, address string, chainID int64, opts ...Option) (*Message, error) {
	b := &builder{
		msg: &Message{
			Domain:  domain,
			Address: address,
			URI:     uri,
			Version: Version,
			ChainID: chainID,
			Nonce:   NewNonce(),
		},
		ttl: DefaultTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}

	m := b.msg
	m.IssuedAt = b.now().UTC().Truncate(time.Second)
	if b.ttl > 0 {
		exp := m.IssuedAt.Add(b.ttl)
		m.ExpirationTime = &exp
	}
	if common.IsHexAddress(m.Address) {
		m.Address = utils.NormalizeAddress(m.Address)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// NewNonce returns 32 random alphanumerics.
func NewNonce() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (m *Message) Validate() error {
	if strings.ContainsAny(m.Statement, "\r\n") {
		return fmt.Errorf("%w: statement must be a single line", ErrInvalidMessage)
	}
	if err := utils.ValidateStruct(m); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return nil
}

// String renders the message in the EIP-4361 text form that gets signed.
func (m *Message) String() string {
	var sb strings.Builder
	sb.WriteString(m.Domain + " wants you to sign in with your Ethereum account:\n")
	sb.WriteString(m.Address + "\n\n")
	if m.Statement != "" {
		sb.WriteString(m.Statement + "\n")
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "URI: %s\n", m.URI)
	fmt.Fprintf(&sb, "Version: %s\n", m.Version)
	fmt.Fprintf(&sb, "Chain ID: %d\n", m.ChainID)
	fmt.Fprintf(&sb, "Nonce: %s\n", m.Nonce)
	fmt.Fprintf(&sb, "Issued At: %s", formatTime(m.IssuedAt))
	if m.ExpirationTime != nil {
		fmt.Fprintf(&sb, "\nExpiration Time: %s", formatTime(*m.ExpirationTime))
	}
	if m.NotBefore != nil {
		fmt.Fprintf(&sb, "\nNot Before: %s", formatTime(*m.NotBefore))
	}
	if m.RequestID != "" {
		fmt.Fprintf(&sb, "\nRequest ID: %s", m.RequestID)
	}
	if len(m.Resources) > 0 {
		sb.WriteString("\nResources:")
		for _, r := range m.Resources {
			sb.WriteString("\n- " + r)
		}
	}
	return sb.String()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ParseMessage is the inverse of String.
func ParseMessage(s string) (*Message, error) {
	lines := strings.Split(s, "\n")
	if len(lines) < 8 {
		return nil, fmt.Errorf("%w: too short", ErrInvalidMessage)
	}

	const suffix = " wants you to sign in with your Ethereum account:"
	if !strings.HasSuffix(lines[0], suffix) {
		return nil, fmt.Errorf("%w: bad preamble", ErrInvalidMessage)
	}
	m := &Message{
		Domain:  strings.TrimSuffix(lines[0], suffix),
		Address: lines[1],
	}
	if lines[2] != "" {
		return nil, fmt.Errorf("%w: expected blank line after address", ErrInvalidMessage)
	}

	i := 3
	if lines[i] != "" {
		m.Statement = lines[i]
		i++
	}
	if i >= len(lines) || lines[i] != "" {
		return nil, fmt.Errorf("%w: expected blank line before fields", ErrInvalidMessage)
	}
	i++

	inResources := false
	for ; i < len(lines); i++ {
		line := lines[i]
		if inResources {
			if !strings.HasPrefix(line, "- ") {
				return nil, fmt.Errorf("%w: bad resource line %q", ErrInvalidMessage, line)
			}
			m.Resources = append(m.Resources, strings.TrimPrefix(line, "- "))
			continue
		}
		if line == "Resources:" {
			inResources = true
			continue
		}

		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			return nil, fmt.Errorf("%w: bad field %q", ErrInvalidMessage, line)
		}
		if err := m.setField(key, value); err != nil {
			return nil, err
		}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Message) setField(key, value string) error {
	parseTime := func() (*time.Time, error) {
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidMessage, key, err)
		}
		return &t, nil
	}

	switch key {
	case "URI":
		m.URI = value
	case "Version":
		m.Version = value
	case "Chain ID":
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: chain id %q", ErrInvalidMessage, value)
		}
		m.ChainID = id
	case "Nonce":
		m.Nonce = value
	case "Issued At":
		t, err := parseTime()
		if err != nil {
			return err
		}
		m.IssuedAt = *t
	case "Expiration Time":
		t, err := parseTime()
		if err != nil {
			return err
		}
		m.ExpirationTime = t
	case "Not Before":
		t, err := parseTime()
		if err != nil {
			return err
		}
		m.NotBefore = t
	case "Request ID":
		m.RequestID = value
	default:
		return fmt.Errorf("%w: unknown field %q", ErrInvalidMessage, key)
	}
	return nil
}
