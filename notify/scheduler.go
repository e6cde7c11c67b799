package notify

import (
	"context"
	"time"

	"github.com/cfpio/identity/logging"
)

// Sender delivers one rendered mail. Implementations wrap a real mail
// transport.
type Sender interface {
	Send(from, subject, text, html string, to []string) error
}

// Scheduler queues envelopes for delayed delivery. Dispatch is fire and
// forget: delivery failures are logged and never surface to the caller.
type Scheduler struct {
	sender Sender
	from   string
	sign   string
	delay  time.Duration
	logger logging.Logger
}

func NewScheduler(sender Sender, from, sign string, delay time.Duration, logger logging.Logger) *Scheduler {
	return &Scheduler{sender: sender, from: from, sign: sign, delay: delay, logger: logger}
}

// Dispatch schedules the envelope for delivery after the configured
// delay and returns immediately.
func (s *Scheduler) Dispatch(env Envelope) {
	time.AfterFunc(s.delay, func() {
		ctx := context.Background()

		text := env.Message + "\n\n " + s.sign
		html := env.Message + "<br><br>--<br>" + s.sign

		if err := s.sender.Send(s.from, env.Subject, text, html, env.To); err != nil {
			s.logger.Error(ctx, "error sending mail", "subject", env.Subject, "error", err)
			return
		}
		s.logger.Debug(ctx, "mail sent", "subject", env.Subject)
	})
}
