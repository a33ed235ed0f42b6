package generator

// ProgressReporter receives callbacks as a generation run advances.
type ProgressReporter interface {
	// OnReadStart is called before the input is read.
	OnReadStart(source string)

	// OnReadComplete is called once the whole input is in memory.
	OnReadComplete(bytes int)

	// OnExtractStart is called after decoding, with the number of actions found.
	OnExtractStart(totalActions int)

	// OnActionExtracted is called after each action is converted.
	// It may be called concurrently when extraction runs in parallel.
	OnActionExtracted()

	// OnWriteStart is called before the database is written.
	OnWriteStart(destination string)

	// OnComplete is called when the database has been written.
	OnComplete(stats *Stats)
}

// NoOpProgressReporter is a progress reporter that does nothing.
// Used when progress reporting is disabled (e.g., --quiet flag).
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnReadStart(source string)       {}
func (n *NoOpProgressReporter) OnReadComplete(bytes int)        {}
func (n *NoOpProgressReporter) OnExtractStart(totalActions int) {}
func (n *NoOpProgressReporter) OnActionExtracted()              {}
func (n *NoOpProgressReporter) OnWriteStart(destination string) {}
func (n *NoOpProgressReporter) OnComplete(stats *Stats)         {}
