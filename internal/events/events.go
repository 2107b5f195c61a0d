// Package events publishes committed store mutations on NATS so other
// services can follow forum activity without holding a store listener.
package events

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"forumhub/pkg/logger"
	"forumhub/pkg/models"
)

// SubjectPrefix is followed by the top-level collection of the changed path
const SubjectPrefix = "forumhub.changes."

// Change operations
const (
	OpWrite  = "write"
	OpUpdate = "update"
)

// Publisher announces committed mutations
type Publisher interface {
	Publish(event models.ChangeEvent) error
	Close()
}

// Config holds NATS connection settings
type Config struct {
	URL           string        `yaml:"url"`
	MaxReconnects int           `yaml:"max_reconnects"`
	ReconnectWait time.Duration `yaml:"reconnect_wait"`
	ClientName    string        `yaml:"client_name"`
}

type conn interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler nats.MsgHandler) (*nats.Subscription, error)
	Close()
}

// Client is a NATS-backed Publisher
type Client struct {
	conn conn
}

// Connect dials NATS
func Connect(cfg Config) (*Client, error) {
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 2 * time.Second
	}
	opts := []nats.Option{
		nats.Name(cfg.ClientName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Warnf("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Infof("NATS reconnected to %s", nc.ConnectedUrl())
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", cfg.URL, err)
	}
	return &Client{conn: nc}, nil
}

// Subject returns the subject a change at path is published on
func Subject(path string) string {
	root := strings.Trim(path, "/")
	if i := strings.Index(root, "/"); i >= 0 {
		root = root[:i]
	}
	return SubjectPrefix + root
}

func (c *Client) Publish(event models.ChangeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := c.conn.Publish(Subject(event.Path), data); err != nil {
		return fmt.Errorf("publish change %s: %w", event.Path, err)
	}
	logger.Debugf("Published %s change for %s", event.Op, event.Path)
	return nil
}

// Subscribe delivers changes under the given top-level collection ("" for all)
func (c *Client) Subscribe(collection string, handler func(models.ChangeEvent)) (*nats.Subscription, error) {
	subject := SubjectPrefix + ">"
	if collection != "" {
		subject = SubjectPrefix + collection
	}
	return c.conn.Subscribe(subject, func(msg *nats.Msg) {
		var event models.ChangeEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			logger.Warnf("Dropping malformed change event on %s: %v", msg.Subject, err)
			return
		}
		handler(event)
	})
}

// LogChanges follows the whole feed and writes each change to the forum log
func (c *Client) LogChanges() (*nats.Subscription, error) {
	return c.Subscribe("", func(e models.ChangeEvent) {
		logger.Forum("change_"+e.Op, e.Path, map[string]interface{}{
			"user_id": e.UserID,
			"fields":  e.Fields,
		})
	})
}

func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}

// Discard drops every event; used when NATS is not configured
type Discard struct{}

func (Discard) Publish(models.ChangeEvent) error { return nil }
func (Discard) Close()                           {}
