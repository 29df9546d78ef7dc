package providers

import (
	"context"
)

// ScriptedProvider is a Provider backed by a fixed script, used by tests in
// this module in place of a live backend.
type ScriptedProvider struct {
	// ProviderName defaults to "scripted".
	ProviderName string

	// Chunks are the fragments the stream emits, in order.
	Chunks []string

	// FinalUsage and Stop resolve when the stream completes.
	FinalUsage Usage
	Stop       StopReason

	// Err, when set, terminates the call. With FailAfter == 0 the failure
	// happens before the first fragment; otherwise after that many chunks.
	Err       error
	FailAfter int

	// Requests records every request received.
	Requests []*Request
}

// Name returns the scripted provider's identifier.
func (s *ScriptedProvider) Name() string {
	if s.ProviderName == "" {
		return "scripted"
	}
	return s.ProviderName
}

// Generate replays the script as one blocking completion.
func (s *ScriptedProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	s.Requests = append(s.Requests, req)
	if s.Err != nil {
		return nil, s.Err
	}
	var content string
	for _, c := range s.Chunks {
		content += c
	}
	stop := s.Stop
	if stop == "" {
		stop = StopReasonEndTurn
	}
	return &Response{
		Content:    content,
		Model:      req.Model,
		StopReason: stop,
		Usage:      s.FinalUsage,
	}, nil
}

// Stream replays the script as a lazy fragment sequence.
func (s *ScriptedProvider) Stream(ctx context.Context, req *Request) (*StreamResult, error) {
	s.Requests = append(s.Requests, req)

	if s.Err != nil && s.FailAfter == 0 {
		return nil, s.Err
	}

	result := newStreamResult(req.Model, len(s.Chunks)+1)
	go func() {
		for i, c := range s.Chunks {
			if s.Err != nil && i == s.FailAfter {
				result.fail(s.Err, s.FinalUsage)
				return
			}
			result.emit(c)
		}
		if s.Err != nil {
			result.fail(s.Err, s.FinalUsage)
			return
		}
		stop := s.Stop
		if stop == "" {
			stop = StopReasonEndTurn
		}
		result.finish(s.FinalUsage, stop)
	}()
	return result, nil
}

var _ Provider = (*ScriptedProvider)(nil)
