package alarm

import (
	"context"

	"github.com/tiny-oracle/tinyd/pkg/helpers"
	"github.com/tiny-oracle/tinyd/pkg/logging"
)

// Mailer delivers one alarm by email.
type Mailer interface {
	Send(ctx context.Context, a Alarm) error
}

// BalancePusher records one balance sample, in SUI, on the metrics
// gateway.
type BalancePusher interface {
	Push(balance float64) error
}

// Dispatcher drains the alarm channel. Every balance alarm is recorded
// on the metrics gateway; alarms carrying a subject are also mailed.
type Dispatcher struct {
	mailer Mailer
	pusher BalancePusher
	log    *logging.Logger
}

// NewDispatcher builds a dispatcher. Either sink may be nil, which
// disables that delivery path.
func NewDispatcher(mailer Mailer, pusher BalancePusher) *Dispatcher {
	return &Dispatcher{
		mailer: mailer,
		pusher: pusher,
		log:    logging.GetDefault().Component("alarm"),
	}
}

// Run consumes alarms until ctx is cancelled or the channel closes.
func (d *Dispatcher) Run(ctx context.Context, alarms <-chan Alarm) {
	d.log.Info("Alarm dispatcher started")
	for {
		select {
		case <-ctx.Done():
			d.log.Info("Alarm dispatcher stopped")
			return
		case a, ok := <-alarms:
			if !ok {
				d.log.Info("Alarm dispatcher stopped")
				return
			}
			d.dispatch(ctx, a)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, a Alarm) {
	d.log.Info("Got a message", "id", a.MessageID, "kind", a.Kind, "body", a.Body)

	if a.Kind == KindBalance && d.pusher != nil {
		sui := float64(a.Balance) / float64(helpers.MistPerSui)
		if err := d.pusher.Push(sui); err != nil {
			d.log.Error("Failed to push balance sample", "id", a.MessageID, "error", err)
		}
	}

	if a.Subject == "" || d.mailer == nil {
		return
	}
	if err := d.mailer.Send(ctx, a); err != nil {
		d.log.Error("Failed to mail alarm", "id", a.MessageID, "error", err)
		return
	}
	d.log.Info("Alarm mail sent", "id", a.MessageID)
}
