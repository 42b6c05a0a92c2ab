package acquire

import (
	"context"
)

// TextFetcher retrieves raw posting text. Colly, chromedp and console
// fetchers all satisfy it.
type TextFetcher interface {
	Name() string
	FetchText(ctx context.Context, url string) (string, error)
}

// Check decides whether fetched text is good enough to stop the chain.
type Check interface {
	Usable(text string) (bool, string)
}

type fetchStage struct {
	fetcher TextFetcher
	check   Check
}

// NewStage pairs a fetcher with the usability check applied to its text.
func NewStage(fetcher TextFetcher, check Check) Stage {
	return &fetchStage{fetcher: fetcher, check: check}
}

func (s *fetchStage) Name() string {
	return s.fetcher.Name()
}

func (s *fetchStage) Attempt(ctx context.Context, url string) Outcome {
	text, err := s.fetcher.FetchText(ctx, url)
	if err != nil {
		return Outcome{Reason: err.Error()}
	}
	if ok, reason := s.check.Usable(text); !ok {
		return Outcome{Text: text, Reason: reason}
	}
	return Outcome{Text: text, OK: true}
}
