package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/forest-guardian/distwise-lulc/internal/model"
)

// Progress checkpoints, reported in this order on success.
const (
	StageCatalog   = "1. Got the catalog..."
	StageReproject = "2. Reprojected district..."
	StageClip      = "3. Clipped raster to district..."
	StageExtract   = "4. Extracted stats..."
	StageReady     = "5. Stats are ready to serve"
)

// Stages lists the checkpoints in reporting order.
var Stages = []string{StageCatalog, StageReproject, StageClip, StageExtract, StageReady}

// ProgressSink receives one message per completed checkpoint. It is the only
// thing the pipeline knows about whoever is watching.
type ProgressSink interface {
	Report(stage string)
}

// SinkFunc adapts a plain function to ProgressSink.
type SinkFunc func(stage string)

func (f SinkFunc) Report(stage string) { f(stage) }

// StageObserver receives timings, typically for metrics.
type StageObserver interface {
	ObserveStage(stage string, d time.Duration)
	ObserveQuery(outcome string, d time.Duration)
}

const (
	OutcomeOK            = "ok"
	OutcomeNotFound      = "not_found"
	OutcomeInvalidInput  = "invalid_input"
	OutcomeCRS           = "crs"
	OutcomeDataIntegrity = "data_integrity"
	OutcomeTransientIO   = "transient_io"
	OutcomeCanceled      = "canceled"
	OutcomeError         = "error"
)

// Outcome classifies a query error into a small fixed label set.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	case errors.Is(err, model.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, model.ErrInvalidInput):
		return OutcomeInvalidInput
	case errors.Is(err, model.ErrCRS):
		return OutcomeCRS
	case errors.Is(err, model.ErrDataIntegrity):
		return OutcomeDataIntegrity
	case errors.Is(err, model.ErrTransientIO):
		return OutcomeTransientIO
	default:
		return OutcomeError
	}
}
