package backtesting

import (
	"errors"

	"github.com/guyghost/backtestcore/internal/config"
	"github.com/guyghost/backtestcore/internal/ledger"
)

var (
	// ErrMissingFeatureData marks a tick without a feature record. The tick
	// is skipped and the run continues.
	ErrMissingFeatureData = errors.New("missing feature data")

	// ErrInvalidPrice marks a tick whose close is not positive. The tick is
	// skipped and the run continues.
	ErrInvalidPrice = ledger.ErrInvalidPrice

	// ErrUnorderedTicks aborts a run whose ticks go back in time
	ErrUnorderedTicks = errors.New("ticks are not in time order")

	// ErrNoTicks aborts a run with nothing to process
	ErrNoTicks = errors.New("no ticks to process")

	// ErrInvalidConfig is returned at construction for unusable parameters
	ErrInvalidConfig = config.ErrInvalidConfig
)
