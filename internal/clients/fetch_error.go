package clients

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// FetchReason classifies why an upstream fetch failed.
type FetchReason string

const (
	FetchTimeout   FetchReason = "timeout"
	FetchNetwork   FetchReason = "network"
	FetchBadStatus FetchReason = "status"
	FetchMalformed FetchReason = "malformed"
)

// FetchError is the only error shape a fetcher surfaces. Transport details are
// logged inside the client and intentionally not carried upward.
type FetchError struct {
	Source string
	Reason FetchReason
	Status int
}

func (e *FetchError) Error() string {
	if e.Reason == FetchBadStatus {
		return fmt.Sprintf("%s fetch failed: %s %d", e.Source, e.Reason, e.Status)
	}
	return fmt.Sprintf("%s fetch failed: %s", e.Source, e.Reason)
}

func classifyTransportError(source string, err error) *FetchError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &FetchError{Source: source, Reason: FetchTimeout}
	}
	return &FetchError{Source: source, Reason: FetchNetwork}
}
