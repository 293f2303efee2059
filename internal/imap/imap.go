package imap

import (
	"errors"
	"time"

	"github.com/emersion/go-imap"
)

// ErrNotConnected is returned by every operation issued before Connect succeeded
var ErrNotConnected = errors.New("not connected")

type Client interface {
	Connect(server string) error
	Login(user, password string) error
	SelectMailbox(name string) error
	SearchFrom(sender string, since time.Time) ([]uint32, error)
	FetchMessage(uid uint32) (*imap.Message, error)
	Close() error
}
