package thumbnails

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/queue"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/schema"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/utils"
)

var (
	ErrFull    = errors.New("queue is full")
	ErrStale   = errors.New("request is stale")
	ErrStopped = errors.New("queue stopped")
)

// Work produces a thumbnail reference for one prompt.
type Work func(ctx context.Context, prompt string, aspect schema.AspectRatio) (string, error)

// Queue runs thumbnail work one item at a time, in submission order.
type Queue struct {
	work    Work
	limiter *rate.Limiter
	items   chan *Item

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	mu       sync.Mutex
	started  bool
}

type Item struct {
	Request  *queue.Request
	Response chan string
	Error    chan error
}

var _ queue.Queue = (*Queue)(nil)

// New creates a queue allowing perMinute items per minute. perMinute <= 0
// removes the limit.
func New(work Work, perMinute int) *Queue {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	return &Queue{
		work:    work,
		limiter: rate.NewLimiter(limit, 1),
		items:   make(chan *Item, 100),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true
	go q.processLoop(ctx)
}

// Stop ends the loop and answers every waiting item with ErrStopped.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.stopOnce.Do(func() { close(q.stop) })
	started := q.started
	q.mu.Unlock()
	if started {
		<-q.done
	}
	q.drain()
}

func (q *Queue) Add(req *queue.Request) (chan string, chan error, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	select {
	case <-q.stop:
		return nil, nil, ErrStopped
	default:
	}

	respCh := make(chan string, 1)
	errCh := make(chan error, 1)

	select {
	case q.items <- &Item{
		Request:  req,
		Response: respCh,
		Error:    errCh,
	}:
		return respCh, errCh, nil
	default:
		return nil, nil, ErrFull
	}
}

func (q *Queue) processLoop(ctx context.Context) {
	defer close(q.done)
	log.Debug("thumbnail queue started")
	for {
		select {
		case <-q.stop:
			log.Debug("thumbnail queue stopped")
			return
		case <-ctx.Done():
			log.Debug("thumbnail queue stopped", "reason", ctx.Err())
			return
		case item := <-q.items:
			q.processItem(ctx, item)
		}
	}
}

func (q *Queue) processItem(ctx context.Context, item *Item) {
	req := item.Request
	stale := func() bool { return req.Stale != nil && req.Stale() }

	if stale() {
		fail(item, ErrStale)
		return
	}
	if err := q.limiter.Wait(ctx); err != nil {
		fail(item, err)
		return
	}
	if stale() {
		fail(item, ErrStale)
		return
	}

	log.Debug("processing thumbnail", "prompt", utils.LimitStr(req.Prompt, 50), "aspect", req.Aspect)

	ref, err := q.work(ctx, req.Prompt, req.Aspect)
	if err != nil {
		log.Warn("thumbnail failed", "error", err)
		fail(item, err)
		return
	}

	item.Response <- ref
	close(item.Error)
}

func (q *Queue) drain() {
	for {
		select {
		case item := <-q.items:
			fail(item, ErrStopped)
		default:
			return
		}
	}
}

func fail(item *Item, err error) {
	item.Error <- err
	close(item.Response)
}
