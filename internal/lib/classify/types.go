package classify

import (
	"context"
	"time"

	"github.com/ruamjai/ruamjai/internal/lib/alerts"
)

// Result is a complete, schema-valid classification of a free-text incident
// description. Classification never exposes a partial result or a raw error:
// callers always receive all four fields. Degraded marks a safe-default
// produced after a failed service call, so the UI can present it as a
// lower-confidence result.
type Result struct {
	Category alerts.Category `json:"category"`
	Severity alerts.Severity `json:"severity"`
	Advice   string          `json:"advice"`
	Summary  string          `json:"summary"`
	Degraded bool            `json:"degraded,omitempty"`
}

// Classifier maps free text to a validated classification tuple. Classify is
// bounded by the request context and never surfaces an error to its caller;
// every failure path resolves to a defined fallback Result.
type Classifier interface {
	Classify(ctx context.Context, text string) Result
}

// ClassificationCache stores classification results keyed by content hash,
// so repeated reports of the same text cost one service round trip.
type ClassificationCache interface {
	SetClassification(contentHash string, result Result, ttl time.Duration) error
	GetClassification(contentHash string) (Result, bool)
}

// OfflineFallback is the deterministic result returned when no
// classification service is configured. It always succeeds, synchronously,
// with the input text echoed back as the summary.
func OfflineFallback(text string) Result {
	return Result{
		Category: alerts.CategoryGeneral,
		Severity: alerts.SeverityMedium,
		Advice:   "API key missing. Please ensure safety first.",
		Summary:  text,
	}
}

// SafeDefault is the fixed result substituted when the classification call
// fails in transport, returns a malformed payload, or violates the schema.
// The report flow stays completable with zero connectivity.
func SafeDefault() Result {
	return Result{
		Category: alerts.CategoryGeneral,
		Severity: alerts.SeverityMedium,
		Advice:   "ติดต่อเจ้าหน้าที่ทันทีหากรู้สึกไม่ปลอดภัย",
		Summary:  "ไม่สามารถวิเคราะห์ได้",
		Degraded: true,
	}
}
