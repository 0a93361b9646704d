// Package session hosts one game per claimed slot, steps every live game on
// a shared ticker and streams frames to the slot's websocket clients.
package session

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/sasha-s/go-deadlock"

	"skyisle/internal/app/game"
	appsave "skyisle/internal/app/save"
	appslot "skyisle/internal/app/slot"
	"skyisle/internal/domain/input"
	domainsave "skyisle/internal/domain/save"
	domainslot "skyisle/internal/domain/slot"
	"skyisle/internal/domain/world"
	"skyisle/internal/platform/mq"
	"skyisle/internal/platform/store"
)

type Client struct {
	Conn   *websocket.Conn
	SlotID uuid.UUID
	Send   chan []byte
}

type session struct {
	slotID  uuid.UUID
	name    string
	game    *game.Game
	frame   *input.Frame
	clock   *game.Clock
	writer  *writeBehind
	clients map[*Client]struct{}
}

type published struct {
	slotID uuid.UUID
	events []byte
}

type Service struct {
	logger   zerolog.Logger
	pub      mq.Publisher
	store    store.Store
	layout   world.Layout
	tickRate int
	maxStep  time.Duration

	mu       deadlock.RWMutex
	sessions map[uuid.UUID]*session
	// ending holds slots whose last client left and whose final write is
	// still in flight. Closed once the write has landed.
	ending  map[uuid.UUID]chan struct{}
	quit    chan struct{}
	started bool
	now     func() time.Time
}

func NewService(logger zerolog.Logger, pub mq.Publisher, st store.Store, layout world.Layout, tickRate int, maxStep time.Duration) *Service {
	if pub == nil {
		pub = mq.NewNoopPublisher()
	}
	return &Service{
		logger:   logger,
		pub:      pub,
		store:    st,
		layout:   layout,
		tickRate: tickRate,
		maxStep:  maxStep,
		sessions: make(map[uuid.UUID]*session),
		ending:   make(map[uuid.UUID]chan struct{}),
		quit:     make(chan struct{}),
		now:      time.Now,
	}
}

func (s *Service) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	interval := time.Second / time.Duration(s.tickRate)
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.tick()
			case <-s.quit:
				return
			}
		}
	}()
}

// Stop halts the ticker, disconnects every client and flushes pending saves.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	close(s.quit)
	sessions := s.sessions
	s.sessions = map[uuid.UUID]*session{}
	for _, sess := range sessions {
		for c := range sess.clients {
			if c.Conn != nil {
				_ = c.Conn.Close()
			}
			close(c.Send)
			delete(sess.clients, c)
		}
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		s.finish(sess)
	}
}

func (s *Service) repository(slotID uuid.UUID) *appsave.Repository {
	return appsave.NewRepository(s.store, domainslot.Namespace(slotID), s.logger)
}

// Attach joins a client to its slot's session. When the slot has no live
// session its save is loaded outside the registry lock; a slot that is still
// writing its final record is waited for first.
func (s *Service) Attach(ctx context.Context, conn *websocket.Conn, claims appslot.Claims) (*Client, error) {
	c := &Client{Conn: conn, SlotID: claims.SlotID, Send: make(chan []byte, 128)}
	for {
		s.mu.Lock()
		if sess, ok := s.sessions[claims.SlotID]; ok {
			join(sess, c)
			s.mu.Unlock()
			return c, nil
		}
		if done, ok := s.ending[claims.SlotID]; ok {
			s.mu.Unlock()
			select {
			case <-done:
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		s.mu.Unlock()

		fresh := s.resume(ctx, claims)

		s.mu.Lock()
		_, live := s.sessions[claims.SlotID]
		_, closing := s.ending[claims.SlotID]
		if !live && !closing {
			s.sessions[claims.SlotID] = fresh
			join(fresh, c)
			s.mu.Unlock()
			s.logger.Info().Str("slot", claims.Name).Msg("session started")
			return c, nil
		}
		s.mu.Unlock()
		// Another attach won the slot; retry against its session.
		fresh.writer.close()
	}
}

func (s *Service) resume(ctx context.Context, claims appslot.Claims) *session {
	repo := s.repository(claims.SlotID)
	writer := newWriteBehind(repo, s.logger)
	g := repo.Resume(ctx, s.layout, game.Options{
		Logger:  s.logger.With().Str("slot", claims.Name).Logger(),
		Saver:   writer,
		Rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
		MaxStep: s.maxStep,
	})
	return &session{
		slotID:  claims.SlotID,
		name:    claims.Name,
		game:    g,
		frame:   input.NewFrame(),
		clock:   game.NewClock(s.maxStep),
		writer:  writer,
		clients: make(map[*Client]struct{}),
	}
}

// join registers c and queues the welcome. Callers hold the registry lock.
func join(sess *session, c *Client) {
	sess.clients[c] = struct{}{}
	nonBlockingSendJSON(c.Send, map[string]any{
		"type":  "welcome",
		"slot":  sess.name,
		"state": sess.game.Snapshot(),
	})
}

// Detach removes a client. The session ends with its last client and its
// current record is written out before the slot can be resumed again.
func (s *Service) Detach(c *Client) {
	s.mu.Lock()
	sess, ok := s.sessions[c.SlotID]
	var (
		ended *session
		done  chan struct{}
	)
	if ok {
		if _, member := sess.clients[c]; member {
			delete(sess.clients, c)
			close(c.Send)
		}
		if len(sess.clients) == 0 {
			delete(s.sessions, c.SlotID)
			ended = sess
			done = make(chan struct{})
			s.ending[c.SlotID] = done
		}
	}
	s.mu.Unlock()

	if c.Conn != nil {
		_ = c.Conn.Close()
	}
	if ended == nil {
		return
	}
	s.finish(ended)
	s.mu.Lock()
	delete(s.ending, c.SlotID)
	s.mu.Unlock()
	close(done)
	s.logger.Info().Str("slot", ended.name).Msg("session ended")
}

// finish writes the final record of a session that is no longer registered
// and waits for its queue to drain. A pending save reset is left in place.
func (s *Service) finish(sess *session) {
	if !sess.game.ResetPending() {
		sess.writer.Save(sess.game.Record())
	}
	sess.writer.close()
}

// Notify queues a message for one client. Clients that already left are
// skipped.
func (s *Service) Notify(c *Client, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[c.SlotID]
	if !ok {
		return
	}
	if _, member := sess.clients[c]; !member {
		return
	}
	nonBlockingSend(c.Send, b)
}

// Input replaces the held actions of the client's session and queues the
// new presses for the next step.
func (s *Service) Input(c *Client, held, pressed []input.Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[c.SlotID]
	if !ok {
		return
	}
	sess.frame.Replace(held, pressed)
}

// State returns the live view of a slot, or the view of its stored save when
// no session is running.
func (s *Service) State(ctx context.Context, slotID uuid.UUID) game.View {
	s.mu.RLock()
	sess, ok := s.sessions[slotID]
	if ok {
		v := sess.game.Snapshot()
		s.mu.RUnlock()
		return v
	}
	s.mu.RUnlock()

	repo := s.repository(slotID)
	g := game.New(s.layout, game.Options{Logger: zerolog.Nop(), Saver: discard{}})
	if rec, ok := repo.Load(ctx); ok {
		g.Restore(rec)
	}
	return g.Snapshot()
}

func (s *Service) Live() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// tick steps every live session once. Frames are sent under the lock and
// events are published after it is released.
func (s *Service) tick() {
	now := s.now()
	s.mu.Lock()
	pending := make([]published, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sess.game.Step(sess.clock.Tick(now), sess.frame)
		sess.frame.EndFrame()
		events := sess.game.DrainEvents()

		frame, err := json.Marshal(map[string]any{
			"type":   "frame",
			"state":  sess.game.Snapshot(),
			"events": events,
		})
		if err != nil {
			s.logger.Error().Err(err).Msg("marshal frame failed")
			continue
		}
		for c := range sess.clients {
			nonBlockingSend(c.Send, frame)
		}
		if len(events) == 0 {
			continue
		}
		b, err := json.Marshal(events)
		if err != nil {
			s.logger.Error().Err(err).Msg("marshal events failed")
			continue
		}
		pending = append(pending, published{slotID: sess.slotID, events: b})
	}
	s.mu.Unlock()

	for _, p := range pending {
		if err := s.pub.Publish(context.Background(), EventSubject(p.slotID), p.events); err != nil {
			s.logger.Warn().Err(err).Str("slot_id", p.slotID.String()).Msg("publish events failed")
		}
	}
}

// EventSubject is the NATS subject a slot's gameplay events go to.
func EventSubject(slotID uuid.UUID) string {
	return "skyisle." + slotID.String() + ".events"
}

type discard struct{}

func (discard) Save(domainsave.Record) {}
func (discard) Reset()                 {}

func nonBlockingSend(ch chan []byte, msg []byte) {
	select {
	case ch <- msg:
	default:
	}
}

func nonBlockingSendJSON(ch chan []byte, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	nonBlockingSend(ch, b)
}
