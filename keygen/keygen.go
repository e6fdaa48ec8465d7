// Package keygen drives the key search: it draws key pairs from a Provider,
// derives their identifiers and stops at the first one the pattern accepts.
package keygen

import (
	"context"
	"encoding/pem"
	"errors"
	"fmt"
	"iter"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/danielewood/vanitycrx/appid"
	"github.com/danielewood/vanitycrx/pattern"
)

const (
	// warmupAttempts is the number of attempts before the first rate
	// estimate is reported.
	warmupAttempts = 10
	// reportInterval is the number of attempts between progress reports.
	reportInterval = 10
	// excerptLines is the number of base64 lines kept in PublicKeyExcerpt.
	excerptLines = 7
)

var (
	// ErrNilPattern is returned when Options.Pattern is nil.
	ErrNilPattern = errors.New("keygen: nil pattern")
	// ErrNilProvider is returned when Options.Provider is nil.
	ErrNilProvider = errors.New("keygen: nil provider")
	// ErrProviderFault wraps key generation failures. They are never retried.
	ErrProviderFault = errors.New("key provider failed")
	// ErrExhausted is returned when a finite attempt sequence ends without
	// a match. Sequences from Attempts never end on their own.
	ErrExhausted = errors.New("attempts exhausted without a match")
	// ErrAttemptsConsumed is yielded when a sequence from Attempts is ranged
	// over a second time.
	ErrAttemptsConsumed = errors.New("attempt sequence already consumed")
)

// Options configures a search.
type Options struct {
	Pattern  *pattern.Pattern
	Provider Provider
	// Sink receives progress reports. A nil Sink searches quietly.
	Sink ProgressSink
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Attempt is one generate and derive step.
type Attempt struct {
	N       int64 // 1-based attempt number
	KeyPair KeyPair
	ID      string
}

// Result is an accepted key pair.
type Result struct {
	ID      string
	KeyPair KeyPair
	// PublicKeyExcerpt is the leading part of the public key PEM body, for
	// display.
	PublicKeyExcerpt string
	Attempts         int64
	Elapsed          time.Duration
}

// Progress is a snapshot of a running search.
type Progress struct {
	Attempts int64
	Elapsed  time.Duration
	// Rate is attempts per second; zero until time has been measured.
	Rate        float64
	SearchSpace decimal.Decimal
	// Estimate is SearchSpace/Rate in seconds, the expected total time.
	Estimate  decimal.Decimal
	Candidate string
}

// EstimatedDuration returns Estimate as a duration. ok is false when there
// is no rate yet or the estimate does not fit in a time.Duration.
func (p Progress) EstimatedDuration() (d time.Duration, ok bool) {
	if p.Rate <= 0 {
		return 0, false
	}
	limit := decimal.New(math.MaxInt64/int64(time.Second), 0)
	if p.Estimate.GreaterThan(limit) {
		return 0, false
	}
	return time.Duration(p.Estimate.Mul(decimal.New(int64(time.Second), 0)).IntPart()), true
}

// ProgressSink receives progress reports from a search.
type ProgressSink interface {
	Progress(Progress)
}

// ProgressFunc adapts a function to the ProgressSink interface.
type ProgressFunc func(Progress)

// Progress calls f.
func (f ProgressFunc) Progress(p Progress) { f(p) }

// Attempts returns the unbounded sequence of attempts drawn from p. The
// sequence stops when ctx is done, yielding ctx.Err(), or when p fails,
// yielding an error wrapping ErrProviderFault. It can be ranged over once;
// later ranges yield only ErrAttemptsConsumed.
func Attempts(ctx context.Context, p Provider) iter.Seq2[Attempt, error] {
	var consumed atomic.Bool
	return func(yield func(Attempt, error) bool) {
		if consumed.Swap(true) {
			yield(Attempt{}, ErrAttemptsConsumed)
			return
		}
		for n := int64(1); ; n++ {
			if err := ctx.Err(); err != nil {
				yield(Attempt{}, err)
				return
			}
			kp, err := p.GenerateKeyPair()
			if err != nil {
				yield(Attempt{}, fmt.Errorf("%w: %w", ErrProviderFault, err))
				return
			}
			if !yield(Attempt{N: n, KeyPair: kp, ID: appid.Derive(kp.PublicKeyDER)}, nil) {
				return
			}
		}
	}
}

// Search generates key pairs from opts.Provider until one has an identifier
// matching opts.Pattern. There is no attempt limit; it returns early only
// on provider failure or when ctx is done.
func Search(ctx context.Context, opts Options) (Result, error) {
	if opts.Provider == nil {
		return Result{}, ErrNilProvider
	}
	return SearchAttempts(ctx, Attempts(ctx, opts.Provider), opts)
}

// SearchAttempts consumes attempts until one matches opts.Pattern.
// opts.Provider is ignored.
func SearchAttempts(ctx context.Context, attempts iter.Seq2[Attempt, error], opts Options) (Result, error) {
	if opts.Pattern == nil {
		return Result{}, ErrNilPattern
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	space := opts.Pattern.SearchSpace()

	log.Debugf("Searching for %q, about %s attempts", opts.Pattern, space)

	start := now()
	var count int64
	for a, err := range attempts {
		if err != nil {
			return Result{}, err
		}
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		count++
		elapsed := now().Sub(start)
		log.Tracef("Attempt %d: %s", count, a.ID)

		if opts.Sink != nil && count >= warmupAttempts && (count-warmupAttempts)%reportInterval == 0 {
			opts.Sink.Progress(newProgress(count, elapsed, space, a.ID))
		}

		if !opts.Pattern.Match(a.ID) {
			continue
		}

		log.Debugf("Matched %s after %d attempts in %s", a.ID, count, elapsed)
		return Result{
			ID:               a.ID,
			KeyPair:          a.KeyPair,
			PublicKeyExcerpt: PublicKeyExcerpt(a.KeyPair.PublicKeyDER),
			Attempts:         count,
			Elapsed:          elapsed,
		}, nil
	}
	return Result{}, ErrExhausted
}

func newProgress(attempts int64, elapsed time.Duration, space decimal.Decimal, candidate string) Progress {
	p := Progress{
		Attempts:    attempts,
		Elapsed:     elapsed,
		SearchSpace: space,
		Candidate:   candidate,
	}
	if elapsed > 0 {
		p.Rate = float64(attempts) / elapsed.Seconds()
		p.Estimate = space.Div(decimal.NewFromFloat(p.Rate))
	}
	return p
}

// PublicKeyExcerpt PEM encodes der as a public key and returns the first
// lines of the body, without the BEGIN and END lines.
func PublicKeyExcerpt(der []byte) string {
	block := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	lines := strings.Split(strings.TrimSpace(string(block)), "\n")
	body := lines[1 : len(lines)-1]
	if len(body) > excerptLines {
		body = body[:excerptLines]
	}
	return strings.Join(body, "\n")
}
