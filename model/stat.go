package model

// Record is one raw message as delimited in the mbox container, including its
// own "From " separator line. Size is the exact byte length of Raw.
type Record struct {
	Raw  []byte
	Size int64
}

// Envelope wraps a record alongside an optional error encountered while scanning.
type Envelope struct {
	Record Record
	Err    error
}

// Stat is one statistics tuple, either per-message (Count == 1) or an
// aggregate over all messages sharing (FromAddr, Labels).
type Stat struct {
	Count          int64
	TotalSizeBytes int64
	FromAddr       string
	Labels         string
}
