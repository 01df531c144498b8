package bot

import (
	"errors"

	"github.com/botweet/botweet/twitter"
)

var (
	ErrMissingConsumerCredentials = twitter.ErrMissingConsumerCredentials
	ErrMissingAccessCredentials   = twitter.ErrMissingAccessCredentials

	// ErrUnauthorized is returned when a posting or reactive operation is attempted
	// before access credentials were configured.
	ErrUnauthorized = errors.New("API not yet configured: call SetAccess or Authorize first")

	ErrConflictingReactions = errors.New("retweet and reply reactions are mutually exclusive")
	ErrNoReaction           = errors.New("no reaction configured")
	ErrInvalidFeed          = errors.New("invalid feed configuration")
	ErrInvalidInterval      = errors.New("interval must be positive")

	ErrTooManyMedia = errors.New("too many media attachments")
	ErrTextTooLong  = errors.New("text too long")
	ErrNoRecipient  = errors.New("direct message has no resolvable recipient")
	ErrEmptyContent = errors.New("reaction produced neither text nor media")
)

// isFatal reports errors which no later iteration can recover from.
func isFatal(err error) bool {
	if errors.Is(err, ErrUnauthorized) {
		return true
	}
	var te *twitter.Error
	if errors.As(err, &te) {
		return te.IsUnauthorized()
	}
	return false
}
