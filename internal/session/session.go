package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/LukeHalby/pushchat/internal/backend"
	"github.com/LukeHalby/pushchat/internal/config"
	"github.com/LukeHalby/pushchat/internal/core"
)

// Backend is the managed chat backend as the session sees it.
type Backend interface {
	ListMessages(ctx context.Context, roomID string) ([]core.Message, error)
	CreateMessage(ctx context.Context, input backend.CreateMessageInput) (core.Message, error)
	Subscribe(ctx context.Context, roomID string) (Feed, error)
}

// Feed is a live subscription scoped to one room.
type Feed interface {
	Events() <-chan core.Message
	Err() error
	Close() error
}

// Registrar obtains the push token for this installation.
type Registrar interface {
	Register(ctx context.Context) (string, error)
}

// TokenSink is notified once a push token is available.
type TokenSink interface {
	OnTokenReady(ctx context.Context, token string)
}

// Status is a swallowed error made observable. The screen keeps working; the
// status channel exists so callers and tests can see what went wrong.
type Status struct {
	Code string
	Err  error
}

// Update tells the presentation layer the screen changed. Messages is the new
// view when it did, Status carries a failure when one occurred.
type Update struct {
	Messages []core.Message
	Status   *Status
}

// Session wires the snapshot, the live feed, the token registrar, and the
// telemetry sink around one message store. All store mutation happens on the
// single goroutine inside Run, so merges are serialized by construction.
type Session struct {
	cfg       config.Config
	backend   Backend
	registrar Registrar
	sink      TokenSink
	store     *core.Store
	log       *zerolog.Logger

	updates chan Update

	// token is the delivery address for notifications; senderID is who a
	// submitted message is from. Both come from the same registration today,
	// but they are distinct concerns and kept as distinct fields.
	mu       sync.Mutex
	token    string
	senderID string
}

// New constructs a session over the given collaborators.
func New(cfg config.Config, be Backend, registrar Registrar, sink TokenSink, logger *zerolog.Logger) *Session {
	return &Session{
		cfg:       cfg,
		backend:   be,
		registrar: registrar,
		sink:      sink,
		store:     core.NewStore(),
		log:       logger,
		updates:   make(chan Update, 32),
	}
}

// Updates returns the channel of view and status changes. Slow consumers lose
// intermediate updates, never the store state itself.
func (s *Session) Updates() <-chan Update {
	return s.updates
}

// Messages returns a copy of the current view.
func (s *Session) Messages() []core.Message {
	return s.store.View()
}

// Token returns the push token, or "" before registration completes.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

type tokenResult struct {
	token string
	err   error
}

// Run drives the screen until ctx is cancelled: registers for push in the
// background, loads the snapshot once, then consumes the live feed. Every
// failure is logged, surfaced as a Status, and not retried; a dead feed stays
// dead.
func (s *Session) Run(ctx context.Context) error {
	tokenCh := make(chan tokenResult, 1)
	go func() {
		token, err := s.registrar.Register(ctx)
		tokenCh <- tokenResult{token: token, err: err}
	}()

	if records, err := s.backend.ListMessages(ctx, s.cfg.RoomID); err != nil {
		s.log.Error().Err(err).Str("room", s.cfg.RoomID).Msg("snapshot fetch failed")
		s.notifyStatus(err)
	} else {
		view := s.store.ReplaceSnapshot(records)
		s.log.Info().Int("count", len(view)).Str("room", s.cfg.RoomID).Msg("snapshot loaded")
		s.notifyView(view)
	}

	var events <-chan core.Message
	feed, err := s.backend.Subscribe(ctx, s.cfg.RoomID)
	if err != nil {
		s.log.Error().Err(err).Str("room", s.cfg.RoomID).Msg("subscribe failed")
		s.notifyStatus(err)
	} else {
		defer feed.Close()
		events = feed.Events()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case res := <-tokenCh:
			tokenCh = nil
			if res.err != nil {
				s.log.Warn().Err(res.err).Msg("push registration failed")
				s.notifyStatus(res.err)
				continue
			}
			s.mu.Lock()
			s.token = res.token
			s.senderID = res.token
			s.mu.Unlock()
			go s.sink.OnTokenReady(ctx, res.token)
			s.notifyView(s.store.View())

		case m, ok := <-events:
			if !ok {
				events = nil
				if err := feed.Err(); err != nil {
					s.log.Warn().Err(err).Msg("live feed ended")
					s.notifyStatus(err)
				}
				continue
			}
			view := s.store.MergeIncoming(m)
			s.notifyView(view)
		}
	}
}

// Submit sends user-entered text as a new message. A missing text or token
// makes it a silent no-op, not an error. A backend failure is logged and
// surfaced as a Status; the returned error exists for callers that want it
// and may be ignored.
func (s *Session) Submit(ctx context.Context, text string) error {
	s.mu.Lock()
	token, sender := s.token, s.senderID
	s.mu.Unlock()

	if text == "" || token == "" {
		s.log.Debug().Bool("has_text", text != "").Bool("has_token", token != "").Msg("submission skipped")
		return nil
	}

	_, err := s.backend.CreateMessage(ctx, backend.CreateMessageInput{
		Body:   text,
		From:   sender,
		RoomID: s.cfg.RoomID,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("create message failed")
		s.notifyStatus(err)
		return err
	}
	return nil
}

func (s *Session) notifyView(view []core.Message) {
	s.notify(Update{Messages: view})
}

func (s *Session) notifyStatus(err error) {
	s.notify(Update{Status: &Status{Code: core.CodeOf(err), Err: err}})
}

func (s *Session) notify(u Update) {
	select {
	case s.updates <- u:
	default:
		// Drop if slow consumer.
	}
}
