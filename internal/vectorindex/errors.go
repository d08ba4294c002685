package vectorindex

import "errors"

var (
	// ErrEmptyCorpus is returned by Build when there is nothing to index.
	ErrEmptyCorpus = errors.New("vector index: no passages to index")

	// ErrNotReady is returned by Query before any successful Build or Load.
	ErrNotReady = errors.New("vector index: not ready")

	// ErrCorruptSnapshot means the persisted artifacts are missing, unreadable or inconsistent.
	ErrCorruptSnapshot = errors.New("vector index: corrupt snapshot")
)
