package finder

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/dbsmedya/starsift/internal/types"
)

// stubXref answers from fixed maps keyed by SIMBAD identifier.
type stubXref struct {
	idents  map[string][]string
	objects map[string]types.ObjectInfo
	failing map[string]bool

	onIdentifiers func(ctx context.Context, key string)

	calls    int32
	inFlight int32
	peak     int32
}

func (s *stubXref) QueryIdentifiers(ctx context.Context, key string) ([]string, error) {
	atomic.AddInt32(&s.calls, 1)
	n := atomic.AddInt32(&s.inFlight, 1)
	defer atomic.AddInt32(&s.inFlight, -1)
	for {
		p := atomic.LoadInt32(&s.peak)
		if n <= p || atomic.CompareAndSwapInt32(&s.peak, p, n) {
			break
		}
	}

	if s.onIdentifiers != nil {
		s.onIdentifiers(ctx, key)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.failing[key] {
		return nil, errors.New("simbad unavailable")
	}
	return s.idents[key], nil
}

func (s *stubXref) QueryObject(ctx context.Context, key string) (*types.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	obj, ok := s.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return &obj, nil
}

// stubCatalog returns fixed tables and records the query it received.
type stubCatalog struct {
	tables []*types.Table
	err    error

	mu    sync.Mutex
	calls []types.RegionQuery
}

func (s *stubCatalog) QueryRegion(ctx context.Context, q types.RegionQuery) ([]*types.Table, error) {
	s.mu.Lock()
	s.calls = append(s.calls, q)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.tables, nil
}

// stubArchive records saved runs.
type stubArchive struct {
	err   error
	saved []*Result
}

func (s *stubArchive) SaveRun(ctx context.Context, r *Result) error {
	s.saved = append(s.saved, r)
	return s.err
}
