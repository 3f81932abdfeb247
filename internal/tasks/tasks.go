// package tasks implements the button-driven playback loop.
package tasks

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotpair/internal/services"
	"github.com/desertthunder/spotpair/internal/shared"
	"golang.org/x/time/rate"
)

// DefaultDebounce matches the settle time of a mechanical button.
const DefaultDebounce = 300 * time.Millisecond

// ControllerOpts configures a [Controller].
type ControllerOpts struct {
	Player   services.Player
	Play     services.PlayOptions
	Debounce time.Duration // zero uses [DefaultDebounce], negative disables debouncing
	Logger   *log.Logger
}

// Controller maps button inputs to player calls.
type Controller struct {
	player  services.Player
	play    services.PlayOptions
	limiter *rate.Limiter
	logger  *log.Logger
	playing atomic.Bool
}

// NewController creates a [Controller].
func NewController(opts ControllerOpts) *Controller {
	debounce := opts.Debounce
	if debounce == 0 {
		debounce = DefaultDebounce
	}

	limit := rate.Inf
	if debounce > 0 {
		limit = rate.Every(debounce)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Controller{
		player:  opts.Player,
		play:    opts.Play,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// ControllerOptsFromConfig builds [ControllerOpts] from the [control] config section.
func ControllerOptsFromConfig(cfg shared.ControlConfig, player services.Player, logger *log.Logger) ControllerOpts {
	opts := ControllerOpts{
		Player: player,
		Play: services.PlayOptions{
			ContextURI: cfg.ContextURI,
			URIs:       cfg.URIs,
		},
		Debounce: time.Duration(cfg.DebounceMS) * time.Millisecond,
		Logger:   logger,
	}
	if cfg.DebounceMS < 0 {
		opts.Debounce = -1
	}
	return opts
}

// Playing reports whether the last successful call started playback.
func (c *Controller) Playing() bool { return c.playing.Load() }

// Handle performs the call for in.
//
// An [services.APIError] is logged and reported in the event; it is not returned.
// Other errors (transport, refresh) are returned too.
func (c *Controller) Handle(ctx context.Context, in Input) (Event, error) {
	if !c.limiter.Allow() {
		c.logger.Debug("press debounced", "input", in)
		return skippedEvent(in), nil
	}

	play := in == Tap || (in == Toggle && !c.playing.Load())

	var err error
	if play {
		err = c.player.Play(ctx, c.play)
	} else {
		err = c.player.Pause(ctx)
	}

	if err != nil {
		var apiErr *services.APIError
		if errors.As(err, &apiErr) {
			c.logger.Error("player error", "error", apiErr.Message, "reason", apiErr.Reason, "status", apiErr.Status)
			return failedEvent(in, err), nil
		}
		c.logger.Error("player call failed", "error", err)
		return failedEvent(in, err), err
	}

	c.playing.Store(play)
	if play {
		c.logger.Info("play", "target", c.target())
		return playedEvent(in, c.target()), nil
	}
	c.logger.Info("pause")
	return pausedEvent(in), nil
}

func (c *Controller) target() string {
	switch {
	case c.play.ContextURI != "":
		return c.play.ContextURI
	case len(c.play.URIs) > 0:
		return strings.Join(c.play.URIs, ", ")
	default:
		return "current context"
	}
}

// Run handles inputs until the channel closes or ctx is cancelled.
//
// API errors never stop the loop. Any other error is logged and the loop continues as well, so a
// transient network failure does not require a restart.
func (c *Controller) Run(ctx context.Context, inputs <-chan Input, events chan<- Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case in, ok := <-inputs:
			if !ok {
				return nil
			}
			ev, _ := c.Handle(ctx, in)
			sendEvent(events, ev)
		}
	}
}

// sendEvent sends an event through the channel without blocking.
func sendEvent(events chan<- Event, ev Event) {
	if events == nil {
		return
	}
	select {
	case events <- ev:
	default:
	}
}

// ScanInputs reads one [Input] per line from r until EOF or ctx is cancelled.
//
// Unknown lines are reported to onErr and skipped. The returned channel is closed when reading stops.
func ScanInputs(ctx context.Context, r io.Reader, onErr func(error)) <-chan Input {
	inputs := make(chan Input)

	go func() {
		defer close(inputs)

		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			in, err := ParseInput(scanner.Text())
			if err != nil {
				if onErr != nil {
					onErr(err)
				}
				continue
			}

			select {
			case inputs <- in:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil && onErr != nil {
			onErr(err)
		}
	}()

	return inputs
}
