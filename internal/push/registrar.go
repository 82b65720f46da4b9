package push

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/LukeHalby/pushchat/internal/core"
	"github.com/LukeHalby/pushchat/internal/proto"
)

// PermissionStatus is the OS notification permission state.
type PermissionStatus string

const (
	PermissionGranted PermissionStatus = "granted"
	PermissionDenied  PermissionStatus = "denied"
)

// State tracks the registration flow. It only moves forward; a denied or
// unsupported outcome is terminal and never retried.
type State string

const (
	StateUnrequested       State = "unrequested"
	StatePermissionPending State = "permission_pending"
	StateGranted           State = "granted"
	StateDenied            State = "denied"
	StateTokenObtained     State = "token_obtained"
)

// Device describes the execution context the registrar runs in.
type Device interface {
	// IsPhysical reports whether this is real hardware rather than an
	// emulator or a headless environment. Tokens exist only on hardware.
	IsPhysical() bool
	// Platform names the platform family, e.g. "android" or "ios".
	Platform() string
}

// Permissions is the OS notification permission prompt.
type Permissions interface {
	Status(ctx context.Context) (PermissionStatus, error)
	Request(ctx context.Context) (PermissionStatus, error)
}

// TokenSource issues the opaque push token for this installation.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// ChannelConfigurator creates a notification delivery channel. Only the
// Android platform family has this concept.
type ChannelConfigurator interface {
	SetChannel(ctx context.Context, cfg proto.ChannelConfig) error
}

// The default channel the original screen configures on Android.
var defaultChannel = proto.ChannelConfig{
	Name:             "default",
	Importance:       "max",
	VibrationPattern: []int64{0, 250, 250, 250},
	LightColor:       "#FF231F7C",
}

// ForegroundPolicy tells the presentation layer how to handle a notification
// that arrives while the screen is open.
type ForegroundPolicy struct {
	ShowAlert bool
	PlaySound bool
	SetBadge  bool
}

// DefaultForegroundPolicy shows an alert, no sound, no badge.
var DefaultForegroundPolicy = ForegroundPolicy{ShowAlert: true}

// Registrar walks the permission and token flow once per process.
type Registrar struct {
	device      Device
	permissions Permissions
	tokens      TokenSource
	channels    ChannelConfigurator
	log         *zerolog.Logger

	state State
}

// NewRegistrar builds a registrar in the unrequested state. channels may be
// nil on platform families without delivery channels.
func NewRegistrar(device Device, permissions Permissions, tokens TokenSource, channels ChannelConfigurator, logger *zerolog.Logger) *Registrar {
	return &Registrar{
		device:      device,
		permissions: permissions,
		tokens:      tokens,
		channels:    channels,
		log:         logger,
		state:       StateUnrequested,
	}
}

// State returns the current flow state.
func (r *Registrar) State() State {
	return r.state
}

// Register runs the flow to completion and returns the push token.
//
// Failures are terminal: core.ErrUnsupportedEnvironment off real hardware,
// core.ErrPermissionDenied when the user or OS refuses, a transport error
// when the gateway call fails. The Android channel setup runs regardless of
// the permission outcome; it is idempotent and its failure only logs.
func (r *Registrar) Register(ctx context.Context) (string, error) {
	r.setupChannel(ctx)

	if !r.device.IsPhysical() {
		r.state = StateDenied
		return "", core.ErrUnsupportedEnvironment
	}

	status, err := r.permissions.Status(ctx)
	if err != nil {
		r.state = StateDenied
		return "", fmt.Errorf("permission status: %w", err)
	}

	if status != PermissionGranted {
		r.state = StatePermissionPending
		status, err = r.permissions.Request(ctx)
		if err != nil {
			r.state = StateDenied
			return "", fmt.Errorf("request permission: %w", err)
		}
	}

	if status != PermissionGranted {
		r.state = StateDenied
		return "", core.ErrPermissionDenied
	}
	r.state = StateGranted

	token, err := r.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("obtain push token: %w", err)
	}

	r.state = StateTokenObtained
	r.log.Info().Str("platform", r.device.Platform()).Msg("push token obtained")
	return token, nil
}

// setupChannel configures the default delivery channel on Android. One-time,
// idempotent, not part of the flow's success or failure path.
func (r *Registrar) setupChannel(ctx context.Context) {
	if r.channels == nil || r.device.Platform() != "android" {
		return
	}
	if err := r.channels.SetChannel(ctx, defaultChannel); err != nil {
		r.log.Warn().Err(err).Msg("failed to set notification channel")
	}
}
