package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bastiangx/presetserve/internal/logger"
	"github.com/bastiangx/presetserve/internal/utils"
	"github.com/bastiangx/presetserve/pkg/config"
	"github.com/bastiangx/presetserve/pkg/preset"
	"github.com/charmbracelet/log"
	"github.com/panjf2000/ants/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// Server handles msgpack IPC for preset search.
type Server struct {
	presets  *preset.Collection
	cfg      config.ServerConfig
	geometry string
	pool     *ants.Pool
	cache    *resultCache
	dec      *msgpack.Decoder
	input    io.Reader
	enc      *msgpack.Encoder
	logger   *log.Logger
	requests int
}

// NewServer creates a server reading requests from r and writing responses
// to w. The caller must Close it to release the batch workers.
func NewServer(presets *preset.Collection, cfg *config.Config, r io.Reader, w io.Writer) (*Server, error) {
	pool, err := ants.NewPool(cfg.Server.Workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	return &Server{
		presets:  presets,
		cfg:      cfg.Server,
		geometry: cfg.Catalog.DefaultGeometry,
		pool:     pool,
		cache:    newResultCache(cfg.Server.CacheSize),
		dec:      msgpack.NewDecoder(r),
		input:    r,
		enc:      msgpack.NewEncoder(w),
		logger:   logger.New("ipc"),
	}, nil
}

// Close releases the worker pool.
func (s *Server) Close() {
	s.pool.Release()
}

// Start serves requests until the input ends, the stream breaks or ctx is
// cancelled. A clean end of input returns nil, cancellation returns ctx.Err().
// A read blocked on input is only interrupted by cancellation when the reader
// is an io.Closer; it is closed once ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Debug("Starting server", "presets", s.presets.Len(), "workers", s.cfg.Workers)

	if closer, ok := s.input.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() {
			if err := closer.Close(); err != nil {
				s.logger.Debugf("Closing input: %v", err)
			}
		})
		defer stop()
	}

	if s.cfg.AnnounceReady {
		if err := s.send(StatusResponse{Status: "ready", Presets: s.presets.Len(), Cache: s.cache.Stats()}); err != nil {
			return err
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var raw msgpack.RawMessage
		if err := s.dec.Decode(&raw); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if errors.Is(err, io.EOF) {
				s.logger.Debug("Input closed", "requests", s.requests)
				return nil
			}
			s.logger.Errorf("Reading request stream: %v", err)
			return err
		}

		var req Request
		if err := msgpack.Unmarshal(raw, &req); err != nil {
			s.logger.Warnf("Invalid request: %v", err)
			if err := s.send(ErrorResponse{Error: "invalid msgpack request", Code: CodeBadRequest}); err != nil {
				return err
			}
			continue
		}

		if err := s.send(s.Handle(req)); err != nil {
			return err
		}
	}
}

// Handle processes one request and returns the response to send.
func (s *Server) Handle(req Request) any {
	s.requests++

	switch req.Action {
	case ActionSearch:
		resp, err := s.search(req.ID, req.Query, s.geometryOf(req), req.Limit)
		if err != nil {
			return s.failure(req, err)
		}
		return resp
	case ActionBatch:
		resp, err := s.batch(req)
		if err != nil {
			return s.failure(req, err)
		}
		return resp
	case ActionItem:
		if req.PresetID == "" {
			return s.failure(req, ErrMissingID)
		}
		return s.item(req)
	case ActionGeometry:
		geometry := s.geometryOf(req)
		ids := s.presets.MatchGeometry(geometry).IDs()
		return GeometryResponse{ID: req.ID, Geometry: geometry, IDs: ids, Count: len(ids)}
	case ActionHealth:
		return StatusResponse{ID: req.ID, Status: "ok", Presets: s.presets.Len(), Requests: s.requests, Cache: s.cache.Stats()}
	default:
		return s.failure(req, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action))
	}
}

func (s *Server) geometryOf(req Request) string {
	if req.Geometry == "" {
		return s.geometry
	}
	return req.Geometry
}

// search ranks the presets of one geometry. limit is clamped to the
// collection's result cap.
func (s *Server) search(id, query, geometry string, limit int) (SearchResponse, error) {
	if err := utils.ValidateQuery(query, s.cfg.MaxQuery); err != nil {
		return SearchResponse{}, err
	}

	maxResults := s.presets.MaxSearchResults()
	if limit < 1 || limit > maxResults {
		limit = maxResults
	}

	start := time.Now()
	key := cacheKey(geometry, query)
	results, cached := s.cache.get(key)
	if !cached {
		results = s.rank(query, geometry, maxResults)
		s.cache.put(key, results)
	}
	elapsed := time.Since(start)

	count := min(len(results), limit)
	s.logger.Debug("Search", "q", query, "g", geometry, "count", count, "cached", cached, "took", elapsed)
	return SearchResponse{
		ID:        id,
		Results:   results[:count],
		Count:     count,
		TimeTaken: elapsed.Microseconds(),
	}, nil
}

// rank runs the chained geometry filter and search, keeping at most n results.
func (s *Server) rank(query, geometry string, n int) []SearchResult {
	found := s.presets.MatchGeometry(geometry).Search(query, geometry)

	count := min(found.Len(), n)
	ranks := utils.Ranks(count)
	results := make([]SearchResult, count)
	for i := range count {
		it := found.At(i)
		results[i] = SearchResult{ID: it.ID(), Name: it.Name(), Rank: ranks[i]}
	}
	return results
}

// batch runs every query on the worker pool and waits for all of them.
// The first failing query, in request order, fails the whole batch.
func (s *Server) batch(req Request) (BatchResponse, error) {
	if len(req.Queries) > s.cfg.MaxBatch {
		return BatchResponse{}, fmt.Errorf("%w: %d queries, max %d", ErrBatchTooLarge, len(req.Queries), s.cfg.MaxBatch)
	}
	geometry := s.geometryOf(req)
	results := make([]SearchResponse, len(req.Queries))
	start := time.Now()

	errs := make([]error, len(req.Queries))
	var wg sync.WaitGroup
	for i, q := range req.Queries {
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			results[i], errs[i] = s.search(fmt.Sprintf("%s/%d", req.ID, i), q, geometry, req.Limit)
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return BatchResponse{}, fmt.Errorf("submit batch query: %w", err)
		}
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return BatchResponse{}, fmt.Errorf("batch query %d: %w", i, err)
		}
	}

	return BatchResponse{
		ID:        req.ID,
		Results:   results,
		Count:     len(results),
		TimeTaken: time.Since(start).Microseconds(),
	}, nil
}

func (s *Server) item(req Request) ItemResponse {
	it, ok := s.presets.Item(req.PresetID)
	if !ok {
		return ItemResponse{ID: req.ID}
	}
	return ItemResponse{
		ID:    req.ID,
		Found: true,
		Preset: &PresetInfo{
			ID:         it.ID(),
			Name:       it.Name(),
			Terms:      it.Terms(),
			Tags:       it.Tags(),
			Searchable: it.Searchable(),
			Suggestion: it.Suggestion(),
			Score:      it.OriginalScore(),
		},
	}
}

func (s *Server) failure(req Request, err error) ErrorResponse {
	s.logger.Debug("Request failed", "id", req.ID, "action", req.Action, "err", err)
	return ErrorResponse{ID: req.ID, Error: err.Error(), Code: CodeBadRequest}
}

func (s *Server) send(response any) error {
	if err := s.enc.Encode(response); err != nil {
		s.logger.Errorf("Encoding response: %v", err)
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}
