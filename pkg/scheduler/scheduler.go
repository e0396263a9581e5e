// Package scheduler serializes every outbound call to the school API through
// a single-worker FIFO queue that paces, paginates and retries.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/swifty-companion/student-api/pkg/core"
	"github.com/swifty-companion/student-api/pkg/intra"
)

const instrumentationName = "github.com/swifty-companion/student-api/pkg/scheduler"

const defaultMaxAttempts = 10

// API is the subset of the intra client the scheduler drives.
type API interface {
	GetStudent(ctx context.Context, login string) (intra.Student, error)
	GetProjectsPage(ctx context.Context, userID string, page int) (intra.Page[intra.ProjectUser], error)
	GetCursusPage(ctx context.Context, userID string, page int) (intra.Page[intra.CursusUser], error)
}

type Options struct {
	Logger *slog.Logger
	// Pacer override, built from the pacing interval when nil.
	Pacer *intra.Pacer
}

type state int

const (
	stateIdle state = iota
	stateDraining
)

// Scheduler owns the request queue. All queue state lives in the loop
// goroutine; callers only talk to it through channels.
type Scheduler struct {
	api         API
	pacer       *intra.Pacer
	maxAttempts int
	logger      *slog.Logger
	tracer      trace.Tracer
	requests    metric.Int64Counter
	retries     metric.Int64Counter

	submitCh chan *request
	doneCh   chan outcome
	closing  chan struct{}
	closed   chan struct{}
	stopOnce sync.Once
}

func New(api API, cfg *core.IntraConfig, opts Options) *Scheduler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "scheduler"))

	pacer := opts.Pacer
	if pacer == nil {
		pacer = intra.NewPacer(cfg.PacingInterval)
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	s := &Scheduler{
		api:         api,
		pacer:       pacer,
		maxAttempts: maxAttempts,
		logger:      logger,
		tracer:      otel.Tracer(instrumentationName),
		submitCh:    make(chan *request),
		doneCh:      make(chan outcome),
		closing:     make(chan struct{}),
		closed:      make(chan struct{}),
	}
	s.initMetrics()

	go s.loop()

	return s
}

func (s *Scheduler) initMetrics() {
	meter := otel.Meter(instrumentationName)

	var err error
	s.requests, err = meter.Int64Counter("scheduler.requests",
		metric.WithDescription("Queued requests by kind and terminal outcome"),
	)
	if err != nil {
		s.logger.Warn("scheduler.requests counter unavailable", slog.Any("error", err))
		s.requests = noop.Int64Counter{}
	}

	s.retries, err = meter.Int64Counter("scheduler.retries",
		metric.WithDescription("Requests put back at the head of the queue after a failure"),
	)
	if err != nil {
		s.logger.Warn("scheduler.retries counter unavailable", slog.Any("error", err))
		s.retries = noop.Int64Counter{}
	}
}

// FetchStudent queues a lookup by login.
func (s *Scheduler) FetchStudent(ctx context.Context, login string) *Future[intra.Student] {
	return submit(ctx, s, KindStudent, login, intra.Student{}, func(ctx context.Context) (intra.Student, error) {
		return s.api.GetStudent(ctx, login)
	})
}

// FetchProjects queues a paginated fetch of a student's projects. A missing
// student resolves to an empty list.
func (s *Scheduler) FetchProjects(ctx context.Context, userID string) *Future[[]intra.ProjectUser] {
	return submit(ctx, s, KindProjects, userID, []intra.ProjectUser{}, func(ctx context.Context) ([]intra.ProjectUser, error) {
		return paginate(ctx, s.pacer, func(ctx context.Context, n int) (intra.Page[intra.ProjectUser], error) {
			return s.api.GetProjectsPage(ctx, userID, n)
		})
	})
}

// FetchSkills queues a paginated fetch of a student's cursus enrollments and
// flattens their skills. A missing student resolves to an empty result.
func (s *Scheduler) FetchSkills(ctx context.Context, userID string) *Future[Skills] {
	return submit(ctx, s, KindSkills, userID, Skills{Skills: []intra.Skill{}}, func(ctx context.Context) (Skills, error) {
		cursus, err := paginate(ctx, s.pacer, func(ctx context.Context, n int) (intra.Page[intra.CursusUser], error) {
			return s.api.GetCursusPage(ctx, userID, n)
		})
		if err != nil {
			return Skills{}, err
		}
		return flattenSkills(cursus), nil
	})
}

// FetchProfile resolves the login, then fetches projects and skills for it.
func (s *Scheduler) FetchProfile(ctx context.Context, login string) (Profile, error) {
	student, err := s.FetchStudent(ctx, login).Wait(ctx)
	if err != nil {
		return Profile{}, err
	}

	userID := strconv.Itoa(student.ID)
	projectsF := s.FetchProjects(ctx, userID)
	skillsF := s.FetchSkills(ctx, userID)

	projects, err := projectsF.Wait(ctx)
	if err != nil {
		return Profile{}, err
	}

	skills, err := skillsF.Wait(ctx)
	if err != nil {
		return Profile{}, err
	}

	return Profile{Student: student, Projects: projects, Skills: skills}, nil
}

// Close stops accepting work and waits for the queue to drain.
func (s *Scheduler) Close(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.closing) })

	select {
	case <-s.closed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func submit[T any](ctx context.Context, s *Scheduler, kind Kind, parameter string, empty T, fetch func(context.Context) (T, error)) *Future[T] {
	f := newFuture[T]()

	req := &request{
		id:        uuid.New(),
		kind:      kind,
		parameter: parameter,
		ctx:       context.WithoutCancel(ctx),
		run: func(ctx context.Context) error {
			v, err := fetch(ctx)
			if err != nil {
				return err
			}
			f.resolve(v)
			return nil
		},
		resolveEmpty: func() { f.resolve(empty) },
		reject:       f.reject,
	}

	select {
	case s.submitCh <- req:
	case <-s.closing:
		f.reject(ErrClosed)
	}

	return f
}

func (s *Scheduler) loop() {
	defer close(s.closed)

	var (
		queue    deque
		current  = stateIdle
		closing  = s.closing
		submitCh = s.submitCh
		draining bool
	)

	for {
		if current == stateIdle && queue.Len() > 0 {
			current = stateDraining
			go s.dispatch(queue.PopFront())
		}

		if draining && current == stateIdle && queue.Len() == 0 {
			s.logger.Debug("scheduler drained and stopped")
			return
		}

		select {
		case req := <-submitCh:
			queue.PushBack(req)
			s.logger.Debug("request queued",
				slog.String("request_id", req.id.String()),
				slog.String("kind", req.kind.String()),
				slog.Int("queue_len", queue.Len()),
			)

		case out := <-s.doneCh:
			current = stateIdle
			if retry := s.settle(out); retry {
				queue.PushFront(out.req)
			}

		case <-closing:
			closing = nil
			submitCh = nil
			draining = true
		}
	}
}

// settle classifies a finished attempt and reports whether it goes back to the
// head of the queue.
func (s *Scheduler) settle(out outcome) bool {
	req := out.req
	log := s.logger.With(
		slog.String("request_id", req.id.String()),
		slog.String("kind", req.kind.String()),
		slog.String("parameter", req.parameter),
	)

	switch {
	case out.err == nil:
		s.count(req, "success")
		return false

	case core.IsNotFound(out.err) && req.kind == KindStudent:
		log.Info("student not found", slog.Any("error", out.err))
		req.reject(out.err)
		s.count(req, "not_found")
		return false

	case core.IsNotFound(out.err):
		log.Info("sub-resource not found, resolving empty", slog.Any("error", out.err))
		req.resolveEmpty()
		s.count(req, "empty")
		return false
	}

	req.attempts++
	if req.attempts > s.maxAttempts {
		log.Error("request rejected after max attempts",
			slog.Int("attempts", req.attempts),
			slog.Any("error", out.err),
		)
		req.reject(&RetriesExhaustedError{
			Kind:      req.kind,
			Parameter: req.parameter,
			Attempts:  req.attempts,
			Err:       out.err,
		})
		s.count(req, "exhausted")
		return false
	}

	log.Warn("request failed, retrying at head of queue",
		slog.Int("attempts", req.attempts),
		slog.Any("error", out.err),
	)
	s.retries.Add(req.ctx, 1, metric.WithAttributes(attribute.String("kind", req.kind.String())))
	return true
}

func (s *Scheduler) count(req *request, result string) {
	s.requests.Add(req.ctx, 1, metric.WithAttributes(
		attribute.String("kind", req.kind.String()),
		attribute.String("outcome", result),
	))
}

func (s *Scheduler) dispatch(req *request) {
	ctx, span := s.tracer.Start(req.ctx, "scheduler."+req.kind.String(),
		trace.WithAttributes(
			attribute.String("scheduler.request_id", req.id.String()),
			attribute.String("scheduler.parameter", req.parameter),
			attribute.Int("scheduler.attempt", req.attempts+1),
		),
	)

	err := s.pacer.Wait(ctx)
	if err == nil {
		err = req.run(ctx)
	}

	if err != nil && !errors.Is(err, core.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	s.doneCh <- outcome{req: req, err: err}
}

// paginate walks pages from 1 until an empty page, pacing between pages. A
// not-found past the first page ends the walk with what was collected.
func paginate[T any](ctx context.Context, pacer *intra.Pacer, fetch func(context.Context, int) (intra.Page[T], error)) ([]T, error) {
	items := make([]T, 0)

	for n := 1; ; n++ {
		page, err := fetch(ctx, n)
		if err != nil {
			if n > 1 && core.IsNotFound(err) {
				return items, nil
			}
			return nil, err
		}

		if len(page.Items) == 0 {
			return items, nil
		}
		items = append(items, page.Items...)

		if err := pacer.WaitNext(ctx, page.RateLimit); err != nil {
			return nil, err
		}
	}
}

func flattenSkills(cursus []intra.CursusUser) Skills {
	out := Skills{Skills: []intra.Skill{}}
	if len(cursus) == 0 {
		return out
	}

	out.Level = cursus[0].Level
	out.CursusID = cursus[0].CursusID
	for _, c := range cursus {
		out.Skills = append(out.Skills, c.Skills...)
	}
	return out
}
