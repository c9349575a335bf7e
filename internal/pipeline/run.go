// Package pipeline provides the Run Controller: one quota-driven pass over
// the candidate pool with durable ledger updates.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/outreach-agent/internal/delivery"
	"github.com/jonathan/outreach-agent/internal/ledger"
	"github.com/jonathan/outreach-agent/internal/observability"
	"github.com/jonathan/outreach-agent/internal/selection"
	"github.com/jonathan/outreach-agent/internal/types"
)

// ContactResolver finds the delivery address for a candidate.
type ContactResolver interface {
	Resolve(c types.Candidate) (string, error)
}

// DocumentMatcher picks the document identifier that best fits a profile.
type DocumentMatcher interface {
	Match(ctx context.Context, profile string, docs types.DocumentSet) string
}

// MessageComposer drafts a message for a candidate from the matched document.
type MessageComposer interface {
	Compose(ctx context.Context, candidate types.Candidate, documentText string) (*types.Message, error)
}

// Deliverer sends a message, retrying as it sees fit.
type Deliverer interface {
	Deliver(ctx context.Context, to string, msg *types.Message, attachment *types.Attachment) (*delivery.Receipt, error)
}

// Deps are the collaborators a Controller drives. Notifier and Printer are optional.
type Deps struct {
	Ledger   *ledger.Ledger
	Inputs   *Inputs
	Resolver ContactResolver
	Matcher  DocumentMatcher
	Composer MessageComposer
	Delivery Deliverer
	Notifier Deliverer
	Sleeper  delivery.Sleeper
	Clock    func() time.Time
	Logger   *slog.Logger
	Printer  *observability.Printer
}

// Options configure a single run.
type Options struct {
	Mode Mode
	// Limit overrides the daily quota with a session send count when > 0.
	Limit int
	// ForceNotify sends operator notifications outside live runs.
	ForceNotify bool

	DailyTarget int
	Oversample  int
	PacingDelay time.Duration
	WarmupDelay time.Duration

	OperatorEmail string
	TestEmail     string

	// OutputDir receives the run summary file.
	OutputDir string
	// AttachmentDir holds the document files attached to outgoing messages.
	AttachmentDir string

	OnProgress ProgressCallback
}

// Controller runs the outreach state machine.
type Controller struct {
	deps Deps
}

// NewController checks deps and fills defaults.
func NewController(deps Deps) (*Controller, error) {
	switch {
	case deps.Ledger == nil:
		return nil, errors.New("pipeline: ledger is required")
	case deps.Inputs == nil:
		return nil, &MissingInputError{Input: "inputs", Message: "not loaded"}
	case deps.Resolver == nil, deps.Matcher == nil, deps.Composer == nil:
		return nil, errors.New("pipeline: resolver, matcher and composer are required")
	}
	if deps.Sleeper == nil {
		deps.Sleeper = delivery.RealSleeper{}
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Controller{deps: deps}, nil
}

// run holds the in-memory state of one invocation. Nothing here outlives Run.
type run struct {
	*Controller
	opts    Options
	id      string
	logger  *slog.Logger
	summary *RunSummary
}

// Run executes one pass. Per-candidate failures are recorded and skipped;
// ledger write failures and missing inputs abort with an error.
func (c *Controller) Run(ctx context.Context, opts Options) (*RunSummary, error) {
	if opts.Mode == "" {
		opts.Mode = ModeDryRun
	}
	r := &run{Controller: c, opts: opts, id: uuid.NewString()}
	r.logger = c.deps.Logger.With("run_id", r.id, "mode", string(opts.Mode))
	r.summary = &RunSummary{
		RunID:   r.id,
		Mode:    opts.Mode,
		Date:    types.Day(c.deps.Clock()),
		Records: []types.DraftRecord{},
	}

	r.enter(StateInitializing, "loading inputs", nil)
	if err := r.checkInputs(); err != nil {
		return nil, err
	}

	if c.deps.Delivery != nil && opts.Mode != ModeDryRun {
		r.enter(StateAuthenticating, "delivery backend ready", nil)
	}

	successes, err := c.deps.Ledger.CountSuccessesToday(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count today's sends: %w", err)
	}
	r.summary.SuccessesBefore = successes
	r.summary.Target = opts.DailyTarget
	r.summary.Remaining = r.remaining(successes)

	if r.notifying() {
		r.enter(StateNotifyingStart, "notifying operator", nil)
		r.notify(ctx, startNotice(r.summary, opts, c.deps.Clock()), false)
	}

	r.enter(StateQuotaCheck, fmt.Sprintf("%d sent today, target %d, need %d", successes, opts.DailyTarget, r.summary.Remaining), nil)
	if c.deps.Printer != nil {
		c.deps.Printer.PrintQuota(opts.DailyTarget, successes, r.summary.Remaining, opts.Limit)
	}

	if r.summary.Remaining <= 0 {
		r.logger.Info("daily target already reached", "successes_today", successes, "target", opts.DailyTarget)
		fmt.Printf("Today's target already reached (%d/%d).\n", successes, opts.DailyTarget)
		return r.finish(ctx, true)
	}

	pool, err := r.buildPool(ctx)
	if err != nil {
		return nil, err
	}
	r.summary.PoolSize = len(pool)

	r.enter(StateIterating, fmt.Sprintf("processing up to %d candidates", len(pool)), nil)
	if err := r.iterate(ctx, pool); err != nil {
		return nil, err
	}

	return r.finish(ctx, false)
}

func (r *run) checkInputs() error {
	in := r.deps.Inputs
	if in.Directory == nil {
		return &MissingInputError{Input: "directory", Message: "not loaded"}
	}
	if len(in.Documents) == 0 {
		return &MissingInputError{Input: "documents", Message: "document set is empty"}
	}
	if r.opts.Mode == ModeTest && r.opts.TestEmail == "" {
		return &MissingInputError{Input: "test_email", Message: "test mode requires a test address"}
	}
	if r.opts.Mode != ModeDryRun && r.deps.Delivery == nil {
		return &MissingInputError{Input: "delivery", Message: "no delivery backend for a sending run"}
	}
	return nil
}

// remaining is the number of successes this run aims for.
func (r *run) remaining(successesToday int) int {
	switch {
	case r.opts.Mode == ModeTest:
		return 1
	case r.opts.Limit > 0:
		return r.opts.Limit
	default:
		return r.opts.DailyTarget - successesToday
	}
}

func (r *run) buildPool(ctx context.Context) ([]types.Candidate, error) {
	dir := r.deps.Inputs.Directory
	if r.opts.Mode == ModeTest {
		first, ok := dir.First()
		if !ok {
			return nil, nil
		}
		return []types.Candidate{first}, nil
	}

	contacted, err := r.deps.Ledger.LoadContactedNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load contacted names: %w", err)
	}
	size := selection.PoolSize(r.summary.Remaining, r.opts.Oversample)
	pool := selection.BuildPool(dir, contacted, size)
	r.logger.Info("candidate pool built", "pool", len(pool), "contacted", len(contacted), "size", size)
	return pool, nil
}

func (r *run) iterate(ctx context.Context, pool []types.Candidate) error {
	if len(pool) > 0 && r.opts.Mode != ModeDryRun && r.opts.WarmupDelay > 0 {
		fmt.Printf("Waiting %s before the first send...\n", r.opts.WarmupDelay)
		if err := r.deps.Sleeper.Sleep(ctx, r.opts.WarmupDelay); err != nil {
			return err
		}
	}

	progressed := 0
	for i, cand := range pool {
		if progressed >= r.summary.Remaining {
			r.logger.Info("target reached", "progressed", progressed)
			break
		}

		rec, err := r.process(ctx, cand)
		if err != nil {
			return err
		}
		r.summary.add(rec)
		if rec.Outcome != types.OutcomeFailed {
			progressed++
		}
		if r.deps.Printer != nil {
			r.deps.Printer.PrintDraft(rec)
		}

		last := i == len(pool)-1 || progressed >= r.summary.Remaining
		if !last && r.opts.PacingDelay > 0 {
			if err := r.deps.Sleeper.Sleep(ctx, r.opts.PacingDelay); err != nil {
				return err
			}
		}
	}
	return nil
}

// process takes one candidate to a terminal outcome. Only ledger write
// failures are returned as errors.
func (r *run) process(ctx context.Context, cand types.Candidate) (types.DraftRecord, error) {
	rec := types.DraftRecord{
		Name:        cand.Name,
		ProfileLink: cand.ProfileLink,
		Date:        types.Day(r.deps.Clock()),
	}
	logger := r.logger.With("name", cand.Name)

	// In test mode every message goes to the operator's test address.
	var addr string
	if r.opts.Mode == ModeTest {
		addr = r.opts.TestEmail
	} else {
		var err error
		addr, err = r.deps.Resolver.Resolve(cand)
		if err != nil {
			logger.Warn("skipping candidate", "reason", types.ReasonNoValidAddress, "error", err)
			fmt.Printf("Skipping %s: no valid address\n", cand.Name)
			return r.fail(ctx, rec, "", types.ReasonNoValidAddress)
		}
	}
	rec.Contact = addr

	fmt.Printf("Matching and drafting for %s (%s)...\n", cand.Name, addr)
	docID := r.deps.Matcher.Match(ctx, cand.ProfileText, r.deps.Inputs.Documents)
	rec.DocumentUsed = docID

	msg, err := r.deps.Composer.Compose(ctx, cand, r.deps.Inputs.Documents[docID])
	if err != nil {
		if ctx.Err() != nil {
			return rec, ctx.Err()
		}
		logger.Warn("skipping candidate", "reason", types.ReasonCompositionFailed, "error", err)
		fmt.Printf("Skipping %s: composition failed\n", cand.Name)
		return r.fail(ctx, rec, addr, types.ReasonCompositionFailed)
	}
	rec.Subject = msg.Subject
	rec.Body = msg.Body

	if r.opts.Mode == ModeDryRun {
		fmt.Printf("Dry run: skipping delivery to %s\n", addr)
		rec.Outcome = types.OutcomeDrafted
		return rec, nil
	}

	receipt, err := r.deps.Delivery.Deliver(ctx, addr, msg, r.attachment(docID))
	if err != nil {
		if ctx.Err() != nil {
			return rec, ctx.Err()
		}
		logger.Warn("delivery failed", "reason", types.ReasonDeliveryFailure, "error", err)
		fmt.Printf("Failed to send to %s after retries\n", addr)
		return r.fail(ctx, rec, addr, types.ReasonDeliveryFailure)
	}
	rec.MessageID = receipt.MessageID

	if r.opts.Mode == ModeTest {
		rec.Outcome = types.OutcomeDrafted
		fmt.Printf("Test message for %s sent to %s\n", cand.Name, addr)
		return rec, nil
	}

	// The send already happened; record it even if the run is being cancelled.
	if err := r.deps.Ledger.RecordSuccess(context.WithoutCancel(ctx), cand.Name, addr); err != nil {
		return rec, err
	}
	rec.Outcome = types.OutcomeSent
	fmt.Printf("Sent to %s (%s)\n", cand.Name, addr)
	return rec, nil
}

// fail records a failure outcome. Test runs leave the ledger untouched.
func (r *run) fail(ctx context.Context, rec types.DraftRecord, addr string, reason types.ReasonCode) (types.DraftRecord, error) {
	rec.Outcome = types.OutcomeFailed
	rec.Reason = reason
	if addr == "" {
		rec.Contact = types.NoContact
	}
	if r.opts.Mode == ModeTest {
		return rec, nil
	}
	if err := r.deps.Ledger.RecordFailure(context.WithoutCancel(ctx), rec.Name, addr, rec.ProfileLink, reason); err != nil {
		return rec, err
	}
	return rec, nil
}

// attachment loads the matched document file, if one is available.
func (r *run) attachment(docID string) *types.Attachment {
	if r.opts.AttachmentDir == "" || docID == "" {
		return nil
	}
	path := filepath.Join(r.opts.AttachmentDir, docID)
	data, err := os.ReadFile(path)
	if err != nil {
		r.logger.Warn("sending without attachment", "path", path, "reason", err)
		return nil
	}
	ct := mime.TypeByExtension(filepath.Ext(docID))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return &types.Attachment{Filename: docID, ContentType: ct, Data: data}
}

// finish writes the summary and sends the closing notification.
func (r *run) finish(ctx context.Context, alreadyDone bool) (*RunSummary, error) {
	path, err := WriteSummary(r.opts.OutputDir, r.deps.Clock(), r.summary.Records)
	if err != nil {
		return nil, err
	}
	r.summary.SummaryPath = path
	fmt.Printf("\nCompleted! %d results saved to %s\n", len(r.summary.Records), path)

	if r.notifying() {
		r.enter(StateNotifyingEnd, "notifying operator", nil)
		r.notify(ctx, endNotice(r.summary, r.deps.Clock(), alreadyDone), true)
	}

	if r.deps.Printer != nil {
		r.deps.Printer.PrintRunSummary(r.summary.Sent, r.summary.Drafted, r.summary.Failed, r.summary.SuccessesBefore+r.summary.Sent, path)
	}

	r.summary.State = StateDone
	r.enter(StateDone, fmt.Sprintf("sent %d, failed %d", r.summary.Sent, r.summary.Failed), r.summary)
	return r.summary, nil
}

func (r *run) enter(state State, message string, content any) {
	r.summary.State = state
	r.logger.Debug("state", "state", string(state), "message", message)
	if r.opts.OnProgress != nil {
		r.opts.OnProgress(ProgressEvent{State: state, Message: message, RunID: r.id, Content: content})
	}
}
