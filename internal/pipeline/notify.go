package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jonathan/outreach-agent/internal/types"
)

// SentLogAttachment is the file name of the send ledger attached to the end notice.
const SentLogAttachment = "sent_log.csv"

const clockLayout = "2006-01-02 15:04:05"

// notifying reports whether this run sends operator notices: always for
// live runs, otherwise only when forced.
func (r *run) notifying() bool {
	if r.deps.Notifier == nil || r.opts.OperatorEmail == "" {
		return false
	}
	return r.opts.Mode == ModeLive || r.opts.ForceNotify
}

// notify sends a notice to the operator. Failures are logged, never fatal.
func (r *run) notify(ctx context.Context, msg *types.Message, withLedger bool) {
	var att *types.Attachment
	if withLedger {
		var buf bytes.Buffer
		if err := r.deps.Ledger.ExportSends(ctx, &buf); err != nil {
			r.logger.Warn("sending notice without ledger", "reason", err)
		} else {
			att = &types.Attachment{Filename: SentLogAttachment, ContentType: "text/csv", Data: buf.Bytes()}
		}
	}

	if _, err := r.deps.Notifier.Deliver(ctx, r.opts.OperatorEmail, msg, att); err != nil {
		r.logger.Warn("operator notification failed", "subject", msg.Subject, "reason", err)
	}
}

func startNotice(s *RunSummary, opts Options, now time.Time) *types.Message {
	goal := fmt.Sprintf("Goal: Reach a total of %d successes today.", opts.DailyTarget)
	if opts.Limit > 0 {
		goal = fmt.Sprintf("Goal: Send %d more emails.", opts.Limit)
	}
	return &types.Message{
		Subject: fmt.Sprintf("Outreach Started: %s", s.Date),
		Body: fmt.Sprintf("The daily outreach run started at %s.\n%s\nCurrent successes: %d.\nNeed %d more.",
			now.Format(clockLayout), goal, s.SuccessesBefore, max(0, s.Remaining)),
	}
}

func endNotice(s *RunSummary, now time.Time, alreadyDone bool) *types.Message {
	if alreadyDone {
		return &types.Message{
			Subject: fmt.Sprintf("Outreach Completed (Already Done): %s", s.Date),
			Body: fmt.Sprintf("The daily outreach run checked at %s and found the target of %d emails was already reached for today.",
				now.Format("15:04:05"), s.Target),
		}
	}
	return &types.Message{
		Subject: fmt.Sprintf("Outreach Completed: %s", s.Date),
		Body: fmt.Sprintf("The daily outreach run completed at %s.\nTotal successful sends today: %d.\nNew sends in this session: %d.\nFailures in this session: %d.\n\nAttached is the current sent log.",
			now.Format(clockLayout), s.SuccessesBefore+s.Sent, s.Sent, s.Failed),
	}
}
