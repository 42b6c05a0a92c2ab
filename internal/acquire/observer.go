package acquire

import "github.com/JakeFAU/coverletter/internal/metrics"

// PrometheusObserver forwards outcomes to the metrics package.
type PrometheusObserver struct{}

// ObserveAttempt implements Observer.
func (PrometheusObserver) ObserveAttempt(stage string, ok bool) {
	metrics.ObserveAcquisition(stage, ok)
}

// ObservePlaceholder implements Observer.
func (PrometheusObserver) ObservePlaceholder() {
	metrics.ObservePlaceholder()
}
