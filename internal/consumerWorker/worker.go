package consumerWorker

import (
	"context"
	"encoding/json"

	"github.com/wb-go/wbf/zlog"

	"felicity/internal/dto"
	"felicity/internal/mailer"
	"felicity/internal/qr"
	"felicity/internal/rabbit"
)

// Reader drains the notification queue and turns each ticket message into a
// confirmation email with a QR code. Delivery failures are logged and the
// message is dropped rather than requeued, so a dead mailbox cannot wedge
// the queue.
type Reader struct {
	RMQ    *rabbit.Client
	mailer *mailer.Mailer
	done   chan struct{}
	cancel context.CancelFunc
}

func NewReader(rmq *rabbit.Client, m *mailer.Mailer) *Reader {
	return &Reader{
		RMQ:    rmq,
		mailer: m,
		done:   make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	zlog.Logger.Info().Msg("notification worker started")

	go func() {
		defer close(r.done)

		handler := func(body []byte) error {
			var msg dto.TicketNotification
			if err := json.Unmarshal(body, &msg); err != nil {
				zlog.Logger.Error().
					Err(err).
					Msgf("failed to unmarshal notification: %s", string(body))
				// Malformed payloads will never parse; ack and move on.
				return nil
			}

			zlog.Logger.Info().
				Str("email", msg.Email).
				Str("ticket_id", msg.TicketID).
				Msg("received ticket notification")

			png, err := qr.PNG(msg.TicketID)
			if err != nil {
				zlog.Logger.Error().
					Err(err).
					Str("ticket_id", msg.TicketID).
					Msg("failed to generate QR code")
				png = nil
			}

			if err := r.mailer.SendTicket(
				msg.Email,
				msg.EventName,
				msg.TicketID,
				msg.EventStartDate,
				msg.EventEndDate,
				png,
			); err != nil {
				zlog.Logger.Warn().
					Err(err).
					Str("email", msg.Email).
					Msg("failed to send ticket email")
			}

			return nil
		}

		if err := r.RMQ.Consume(handler); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to start consuming")
			return
		}

		<-cctx.Done()
		zlog.Logger.Info().Msg("notification worker stopped")
	}()
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}
