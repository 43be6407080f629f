package osm

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"
)

// ProgressFunc is invoked by the Writer after each block flush, matching
// osmium::util::VerboseOutput's role: a plain callback, not a logging
// framework. The default is a no-op.
type ProgressFunc func(elapsedSeconds float64, message string)

type blobResult struct {
	bytes []byte
	err   error
}

// future is the FIFO slot a submitted job's result lands in once a worker
// finishes it. The writer goroutine drains futures in submission order, not
// completion order, which is what keeps output byte-deterministic despite
// workers finishing out of order.
type future chan blobResult

// blobJob is the unit of work a compression worker consumes: a serialized
// PrimitiveBlock or HeaderBlock message, the blob kind it belongs to, and
// the future its result resolves.
type blobJob struct {
	kind    blobKind
	payload []byte
	fut     future
}

// Writer is the OutputOrchestrator: it owns the working PrimitiveBlock, the
// worker pool that compresses flushed blocks, and the ordered queue that
// guarantees blob order matches flush order regardless of worker completion
// order. The orchestrator itself is single-threaded; only Close/flush call
// into the shared state, matching the spec's single-mutator rule.
type Writer struct {
	w    io.Writer
	opts Options

	workers int
	block   *primitiveBlock
	verify  bool

	seenNodes, seenWays, seenRelations *Set
	locCache                           *nodeLocationCache

	jobs    chan blobJob
	futures chan future
	wg      sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	writerErr  error
	writerDone chan struct{}

	mu      sync.Mutex
	fatal   error
	started time.Time

	progress ProgressFunc
}

// WriterOption configures a Writer at construction time.
type WriterOption func(*Writer)

// WithProgress installs a progress callback invoked after each block flush.
func WithProgress(fn ProgressFunc) WriterOption {
	return func(w *Writer) { w.progress = fn }
}

// WithWorkers overrides the compression worker count; zero (the default)
// means GOMAXPROCS.
func WithWorkers(n int) WriterOption {
	return func(w *Writer) { w.workers = n }
}

// WithVerify enables a decompress-and-compare self-check on every zlib blob
// right after it's compressed, trading throughput for a hard guarantee that
// what ends up on disk round-trips. Off by default.
func WithVerify(v bool) WriterOption {
	return func(w *Writer) { w.verify = v }
}

// NewWriter starts a Writer's compression worker pool and the single writer
// goroutine that drains futures in FIFO order into w. Close must be called
// to flush the final block and release the pool; it does not close w.
func NewWriter(w io.Writer, opts Options, options ...WriterOption) *Writer {
	ctx, cancel := context.WithCancel(context.Background())
	wr := &Writer{
		w:             w,
		opts:          opts,
		block:         newPrimitiveBlock(opts),
		seenNodes:     NewUint64Set(1024, 0.6),
		seenWays:      NewUint64Set(1024, 0.6),
		seenRelations: NewUint64Set(1024, 0.6),
		jobs:          make(chan blobJob, 4),
		futures:       make(chan future, 4),
		ctx:           ctx,
		cancel:        cancel,
		writerDone:    make(chan struct{}),
		progress:      func(float64, string) {},
		started:       time.Now(),
	}
	if opts.LocationsOnWays {
		wr.locCache = newNodeLocationCache()
	}
	for _, opt := range options {
		opt(wr)
	}

	n := wr.workers
	if n < 1 {
		n = runtime.GOMAXPROCS(0)
	}
	wr.wg.Add(n)
	for i := 0; i < n; i++ {
		go wr.work()
	}
	go wr.drain()
	return wr
}

// work is a compression worker: it pulls jobs and resolves each job's
// future with the serialized, compressed, and framed blob bytes. Workers
// never touch w.w or any orchestrator-owned state.
func (w *Writer) work() {
	defer w.wg.Done()
	for job := range w.jobs {
		bytes, err := serializeBlob(job.kind, job.payload, w.opts.Compression, w.opts.CompressionLevel, w.verify)
		job.fut <- blobResult{bytes: bytes, err: err}
	}
}

// drain reads futures off the queue in push order and writes their resolved
// bytes to the sink. It is the sole writer to w.w.
func (w *Writer) drain() {
	defer close(w.writerDone)
	for fut := range w.futures {
		res := <-fut
		if res.err != nil {
			w.setFatal(res.err)
			continue
		}
		if w.writerErr != nil {
			continue
		}
		if _, err := w.w.Write(res.bytes); err != nil {
			w.writerErr = err
		}
	}
}

func (w *Writer) setFatal(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fatal == nil {
		w.fatal = err
		w.cancel()
	}
}

func (w *Writer) err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fatal
}

// submit pushes a job's future onto the ordered queue immediately, then
// hands the job to the worker pool. Pushing the future before the job can
// possibly be picked up by a worker is what guarantees drain() sees futures
// in submission order even though workers may finish them out of order.
func (w *Writer) submit(kind blobKind, payload []byte) {
	fut := make(future, 1)
	select {
	case w.futures <- fut:
	case <-w.ctx.Done():
		fut <- blobResult{err: w.ctx.Err()}
		return
	}

	select {
	case w.jobs <- blobJob{kind: kind, payload: payload, fut: fut}:
	case <-w.ctx.Done():
		fut <- blobResult{err: w.ctx.Err()}
	}
}

// WriteHeader encodes and enqueues the OSMHeader blob. It must be called
// before any WriteNode/WriteWay/WriteRelation call, and at most once.
func (w *Writer) WriteHeader(h Header) error {
	if err := w.err(); err != nil {
		return err
	}
	w.opts = w.opts.withHistory(h.MultipleVersions)
	w.block = newPrimitiveBlock(w.opts)
	payload := encodeHeaderBlock(h, w.opts)
	w.submit(blobHeader, payload)
	return nil
}

// WriteNode appends a node to the current block, flushing and starting a
// new one first if the node can't fit. If the writer was opened with
// locations_on_ways, the node's coordinates are cached so later ways can
// resolve their refs into lat/lon arrays without being given them explicitly.
func (w *Writer) WriteNode(n Node) error {
	if w.seenNodes.Has(n.ID) {
		return &EncodingError{Msg: fmt.Sprintf("duplicate node id %d", n.ID)}
	}
	kind := groupNodes
	if w.opts.DenseNodes {
		kind = groupDenseNodes
	}
	if err := w.rollover(kind); err != nil {
		return err
	}
	if err := w.block.addNode(n); err != nil {
		return err
	}
	w.seenNodes.Add(n.ID)
	if w.locCache != nil {
		w.locCache.record(n.ID, n.Lat, n.Lon)
	}
	return nil
}

// WriteWay appends a way to the current block. With locations_on_ways, a
// way that doesn't carry explicit Locations has them resolved from nodes
// already written via WriteNode; refs to nodes not yet seen are an error —
// nodes must be written before the ways that reference them.
func (w *Writer) WriteWay(way Way) error {
	if w.seenWays.Has(way.ID) {
		return &EncodingError{Msg: fmt.Sprintf("duplicate way id %d", way.ID)}
	}
	if err := w.rollover(groupWays); err != nil {
		return err
	}
	if w.opts.LocationsOnWays {
		if len(way.Locations) == 0 {
			locs := make([]Coord, len(way.Refs))
			for i, ref := range way.Refs {
				lat, lon, ok := w.locCache.lookup(ref)
				if !ok {
					return &EncodingError{Msg: fmt.Sprintf("way %d: no recorded location for node %d", way.ID, ref)}
				}
				locs[i] = Coord{X: lon, Y: lat}
			}
			way.Locations = locs
		} else if len(way.Locations) != len(way.Refs) {
			return &EncodingError{Msg: "way locations length must match refs length"}
		}
	}
	if err := w.block.addWay(way); err != nil {
		return err
	}
	w.seenWays.Add(way.ID)
	return nil
}

// WriteRelation appends a relation to the current block.
func (w *Writer) WriteRelation(r Relation) error {
	if w.seenRelations.Has(r.ID) {
		return &EncodingError{Msg: fmt.Sprintf("duplicate relation id %d", r.ID)}
	}
	if err := w.rollover(groupRelations); err != nil {
		return err
	}
	if err := w.block.addRelation(r); err != nil {
		return err
	}
	w.seenRelations.Add(r.ID)
	return nil
}

// rollover flushes the current block first if it can't accept another
// entity of kind.
func (w *Writer) rollover(kind groupKind) error {
	if err := w.err(); err != nil {
		return err
	}
	if w.block.count > 0 && !w.block.canAdd(kind) {
		return w.flush()
	}
	return nil
}

// flush serializes and submits the current block if it holds any entities,
// then resets it for the next group. This is store_primitive_block.
func (w *Writer) flush() error {
	if w.block.count == 0 {
		return nil
	}
	if err := w.err(); err != nil {
		return err
	}
	payload := w.block.serialize()
	count := w.block.count
	w.submit(blobData, payload)
	w.block.reset()
	w.progress(time.Since(w.started).Seconds(), fmt.Sprintf("flushed block: %d entities", count))
	return nil
}

// Close flushes the final block, waits for all outstanding futures to
// drain, and returns the first fatal error encountered, if any. It does
// not close the underlying io.Writer.
func (w *Writer) Close() error {
	flushErr := w.flush()

	close(w.jobs)
	w.wg.Wait()
	close(w.futures)
	<-w.writerDone

	if err := w.err(); err != nil {
		return err
	}
	if w.writerErr != nil {
		return w.writerErr
	}
	return flushErr
}
