package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// SubjectPrefix namespaces job subjects: mailinglist.jobs.<job type>.
const SubjectPrefix = "mailinglist.jobs."

// ErrNATSURLRequired is returned when the NATS server URL is missing.
var ErrNATSURLRequired = errors.New("queue: nats url is required")

// NATSConfig configures the NATS queue.
type NATSConfig struct {
	URL        string
	QueueGroup string
	Options    []nats.Option
}

// NATS publishes jobs to NATS core subjects and consumes them through a queue
// group so each job is handled by one worker process.
type NATS struct {
	conn       *nats.Conn
	queueGroup string
	logger     *slog.Logger

	mu     sync.Mutex
	closed bool

	// done is closed once the connection has fully closed.
	done chan struct{}
}

// NewNATS connects to the NATS server.
func NewNATS(cfg NATSConfig, logger *slog.Logger) (*NATS, error) {
	if cfg.URL == "" {
		return nil, ErrNATSURLRequired
	}
	if logger == nil {
		logger = slog.Default()
	}

	done := make(chan struct{})
	opts := append([]nats.Option{
		nats.Name("mailinglist"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.RetryOnFailedConnect(true),
	}, cfg.Options...)
	opts = append(opts, nats.ClosedHandler(func(*nats.Conn) { close(done) }))

	logger.Info("Connecting to NATS...", "url", redactURL(cfg.URL))
	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("queue: nats connect: %w", err)
	}

	return &NATS{
		conn:       conn,
		queueGroup: cfg.QueueGroup,
		logger:     logger,
		done:       done,
	}, nil
}

// redactURL masks passwords and tokens in a comma separated server list.
func redactURL(raw string) string {
	servers := strings.Split(raw, ",")
	for i, s := range servers {
		u, err := url.Parse(strings.TrimSpace(s))
		if err != nil {
			servers[i] = "invalid-url"
			continue
		}
		if u.User != nil {
			if _, hasPassword := u.User.Password(); !hasPassword {
				// A lone user info part is a token.
				u.User = url.User("xxxxx")
			}
		}
		servers[i] = u.Redacted()
	}
	return strings.Join(servers, ",")
}

// Subject returns the NATS subject for a job type.
func Subject(jobType string) string {
	return SubjectPrefix + jobType
}

// Enqueue publishes the job envelope on the job type's subject.
func (n *NATS) Enqueue(ctx context.Context, jobType string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	job, err := NewJob(jobType, payload)
	if err != nil {
		return err
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue: marshal job: %w", err)
	}

	msg := nats.NewMsg(Subject(jobType))
	msg.Data = data
	msg.Header.Set("Job-Id", job.ID.String())

	if err := n.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("queue: nats publish: %w", err)
	}
	if err := n.conn.Flush(); err != nil {
		return fmt.Errorf("queue: nats flush: %w", err)
	}

	return nil
}

// Subscribe delivers every job published under SubjectPrefix to handler.
// Malformed envelopes are logged and dropped.
func (n *NATS) Subscribe(handler Handler) error {
	if handler == nil {
		return ErrHandlerRequired
	}

	sub, err := n.conn.QueueSubscribe(SubjectPrefix+">", n.queueGroup, func(m *nats.Msg) {
		var job Job
		if err := json.Unmarshal(m.Data, &job); err != nil {
			n.logger.Error("dropping malformed job", "subject", m.Subject, "error", err)
			return
		}
		if err := handler(context.Background(), &job); err != nil {
			n.logger.Error("job handler failed", "job_id", job.ID, "job_type", job.Type, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("queue: nats subscribe: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return errors.Join(io.ErrClosedPipe, sub.Unsubscribe())
	}

	return n.conn.Flush()
}

// Close drains subscriptions, so messages already delivered to this client
// reach the handler, then closes the connection. It waits for the drain until
// ctx is done and closes the connection immediately after that.
func (n *NATS) Close(ctx context.Context) error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	n.mu.Unlock()

	if err := n.conn.Drain(); err != nil {
		if errors.Is(err, nats.ErrConnectionClosed) {
			return nil
		}
		n.conn.Close()
		return fmt.Errorf("queue: nats drain: %w", err)
	}

	select {
	case <-n.done:
		return nil
	case <-ctx.Done():
		n.conn.Close()
		return fmt.Errorf("queue: nats drain: %w", ctx.Err())
	}
}
