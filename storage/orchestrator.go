package storage

import (
	"context"
	"errors"

	"github.com/ruteri/asset-storage-adapter/interfaces"
)

// BytesFetcher fetches the raw bytes behind a fully-qualified URL.
type BytesFetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

type readState int

const (
	stateLocalAttempt readState = iota
	stateRemoteFallback
	stateDone
)

// ReadOrchestrator sequences a read across the local store and the remote service.
//
// A read starts in the local attempt when a local store is configured, otherwise it
// goes straight to the remote fetch. Only a local ErrNotFound moves the read on to the
// remote fetch; any other local failure ends the read. The two attempts never overlap.
type ReadOrchestrator struct {
	local    interfaces.LocalStore
	remote   BytesFetcher
	observer Observer
}

// NewReadOrchestrator creates an orchestrator. local may be nil.
func NewReadOrchestrator(local interfaces.LocalStore, remote BytesFetcher, observer Observer) *ReadOrchestrator {
	if observer == nil {
		observer = nopObserver{}
	}
	return &ReadOrchestrator{
		local:    local,
		remote:   remote,
		observer: observer,
	}
}

// Read returns the bytes for opts.Path.
func (o *ReadOrchestrator) Read(ctx context.Context, opts interfaces.ReadOptions) ([]byte, error) {
	state := stateRemoteFallback
	if o.local != nil {
		state = stateLocalAttempt
	}

	var (
		data []byte
		err  error
	)
	for state != stateDone {
		switch state {
		case stateLocalAttempt:
			data, err = o.local.Read(ctx, opts)
			state = o.afterLocal(err)
		case stateRemoteFallback:
			data, err = o.remote.FetchBytes(ctx, opts.Path)
			state = stateDone
		}
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (o *ReadOrchestrator) afterLocal(err error) readState {
	switch {
	case err == nil:
		return stateDone
	case errors.Is(err, interfaces.ErrNotFound):
		o.observer.RecordFallback()
		return stateRemoteFallback
	default:
		return stateDone
	}
}
