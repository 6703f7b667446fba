package market

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/jonandersen/apca/pkg/alpaca"
	"github.com/jonandersen/apca/pkg/order"
)

// Submitter places orders.
type Submitter struct {
	Transport Transport
}

// Submit sends o and decodes the broker's acknowledgement. An empty
// clientOrderID lets the broker assign one.
func (s *Submitter) Submit(ctx context.Context, o order.Order, clientOrderID string) (order.Acknowledgement, error) {
	payload, err := order.BuildPayload(o)
	if err != nil {
		return order.Acknowledgement{}, err
	}
	if clientOrderID != "" {
		payload["client_order_id"] = clientOrderID
	}

	raw, err := s.Transport.Fetch(ctx, alpaca.SubmitOrder(payload))
	if err != nil {
		return order.Acknowledgement{}, fmt.Errorf("failed to place order: %w", err)
	}

	ack, err := order.ParseAcknowledgementMeta(order.Payload(raw))
	if err != nil {
		return order.Acknowledgement{}, err
	}

	log.WithFields(log.Fields{
		"id":              ack.ID,
		"client_order_id": ack.ClientOrderID,
		"status":          ack.Status,
		"legs":            len(ack.Order.Legs()),
	}).Info("Submitted")
	return ack, nil
}
