package cfr

import "errors"

var (
	// ErrUnknownInfoSet is returned when a loaded profile lacks the
	// information set the agent encounters, indicating a mismatched profile.
	ErrUnknownInfoSet = errors.New("cfr: information set not present in profile")

	// ErrFixedOpponent is returned when external or outcome sampling is
	// configured with a fixed opponent strategy; those variants require every
	// non-target player to play their own current strategy.
	ErrFixedOpponent = errors.New("cfr: sampling variant does not support fixed opponents")

	// ErrBadProfile is returned when a strategy file is truncated or
	// otherwise malformed.
	ErrBadProfile = errors.New("cfr: malformed strategy profile")
)
