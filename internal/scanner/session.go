package scanner

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thereceipt/desk-engine/internal/logger"
	"go.uber.org/zap"
)

// SessionNotifier tells the desk session which order was scanned
type SessionNotifier struct {
	baseURL string
	client  *http.Client
}

// NewSessionNotifier creates a notifier for the session API at baseURL
func NewSessionNotifier(baseURL string) *SessionNotifier {
	return &SessionNotifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// OrderURL returns the endpoint SetOrder calls
func (n *SessionNotifier) OrderURL(id uuid.UUID, automated bool) string {
	path := n.baseURL + "/session/my/order"
	if automated {
		path += "/automated"
	}
	return path + "?order_id=" + url.QueryEscape(id.String())
}

// SetOrder selects the order in the desk session
func (n *SessionNotifier) SetOrder(ctx context.Context, id uuid.UUID, automated bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, n.OrderURL(id, automated), nil)
	if err != nil {
		return err
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to set session order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("failed to set session order: %s", resp.Status)
	}
	return nil
}

// Scan is a decoded order scan
type Scan struct {
	Reader    string    `json:"reader"`
	Payload   string    `json:"payload"`
	OrderID   string    `json:"order_id"`
	Automated bool      `json:"automated"`
	At        time.Time `json:"at"`
}

// OrderHandler builds the frame handler of one reader. Each frame is
// decoded as an order ID, published, and then sent to the session API.
// publish may be nil.
func OrderHandler(path string, notifier *SessionNotifier, automated bool, publish func(Scan)) Handler {
	return func(frame string) error {
		id, err := ParseOrderID(frame)
		if err != nil {
			return err
		}

		logger.Info("order scanned", zap.String("reader", path), zap.String("order", id.String()))

		if publish != nil {
			publish(Scan{
				Reader:    path,
				Payload:   frame,
				OrderID:   id.String(),
				Automated: automated,
				At:        time.Now(),
			})
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return notifier.SetOrder(ctx, id, automated)
	}
}
