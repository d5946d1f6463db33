package scraper

import (
	"fmt"
	"time"
)

// NavigationError indicates the browser could not load the target page.
// Fatal for the single target, never for a multi-target range run.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation failed for %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// ExtractionTimeoutError indicates a bounded DOM wait exceeded its budget.
// Waits that are not page readiness degrade to a partial record instead of
// surfacing this.
type ExtractionTimeoutError struct {
	Stage  string
	Budget time.Duration
}

func (e *ExtractionTimeoutError) Error() string {
	return fmt.Sprintf("extraction stage %q exceeded its %v budget", e.Stage, e.Budget)
}
