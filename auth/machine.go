package auth

import (
	"context"
	"sync"

	"github.com/jrsteele09/retail-console/navigation"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// State of the login flow
type State int

const (
	AwaitingCredentials State = iota
	AwaitingVerificationCode
	Authenticated
)

func (s State) String() string {
	switch s {
	case AwaitingVerificationCode:
		return "awaiting_verification_code"
	case Authenticated:
		return "authenticated"
	default:
		return "awaiting_credentials"
	}
}

// Step of a login challenge
type Step int

const (
	StepPassword Step = iota
	StepOneTimeCode
)

// PendingChallenge exists while a login waits for its one-time code.
// PendingToken is only set for StepOneTimeCode and is never persisted.
type PendingChallenge struct {
	Step         Step
	PendingToken string
}

// TokenWriter is the session as seen by the login flow
type TokenWriter interface {
	SetToken(token string) error
	Clear() error
}

// Routes used by the post login and logout redirects
type Routes struct {
	Login   string
	Default string
}

// DefaultRoutes are the console's login page and landing page
func DefaultRoutes() Routes {
	return Routes{Login: "/auth/login", Default: "/"}
}

// Machine drives password login, the optional one-time code step and logout.
type Machine struct {
	api       API
	session   TokenWriter
	navigator navigation.Navigator
	routes    Routes

	lock      sync.Mutex
	state     State
	challenge PendingChallenge
	lastError string
}

// MachineOption configures a Machine
type MachineOption func(*Machine)

func WithRoutes(routes Routes) MachineOption {
	return func(m *Machine) {
		m.routes = routes
	}
}

func NewMachine(api API, session TokenWriter, navigator navigation.Navigator, options ...MachineOption) (*Machine, error) {
	if api == nil {
		return nil, errors.New("[NewMachine] api is required")
	}
	if session == nil {
		return nil, errors.New("[NewMachine] session is required")
	}
	if navigator == nil {
		return nil, errors.New("[NewMachine] navigator is required")
	}
	m := &Machine{
		api:       api,
		session:   session,
		navigator: navigator,
		routes:    DefaultRoutes(),
		state:     AwaitingCredentials,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

func (m *Machine) State() State {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.state
}

// Challenge returns a copy of the pending challenge
func (m *Machine) Challenge() PendingChallenge {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.challenge
}

// LastError is the user facing message of the last failed step, "" after a success
func (m *Machine) LastError() string {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.lastError
}

// SubmitPassword starts a new login, dropping any pending challenge.
// A step-up response is not an error: the machine moves to AwaitingVerificationCode.
func (m *Machine) SubmitPassword(ctx context.Context, email, password string) error {
	m.lock.Lock()
	m.state = AwaitingCredentials
	m.challenge = PendingChallenge{}
	m.lock.Unlock()

	resp, err := m.api.Login(ctx, LoginRequest{Email: email, Password: password})
	if err != nil {
		return m.fail(newFlowError(err, InvalidCredentialsErr, loginFailedMessage))
	}

	switch {
	case resp.Token != "":
		return m.authenticate(resp.Token)
	case resp.RequiresVerification() && resp.PendingAuthenticationToken != "":
		m.lock.Lock()
		m.state = AwaitingVerificationCode
		m.challenge = PendingChallenge{Step: StepOneTimeCode, PendingToken: resp.PendingAuthenticationToken}
		m.lastError = ""
		m.lock.Unlock()
		log.Info().Str("email", email).Msg("Login requires email verification")
		return nil
	}
	return m.fail(&FlowError{Kind: InvalidCredentialsErr, Message: loginFailedMessage})
}

// SubmitVerificationCode completes a pending step-up challenge
func (m *Machine) SubmitVerificationCode(ctx context.Context, code string) error {
	m.lock.Lock()
	if m.state != AwaitingVerificationCode || m.challenge.PendingToken == "" {
		m.lock.Unlock()
		return errors.Wrap(NoPendingChallengeErr, "[Machine.SubmitVerificationCode]")
	}
	pendingToken := m.challenge.PendingToken
	m.lock.Unlock()

	resp, err := m.api.Verify(ctx, VerifyRequest{Code: code, PendingAuthenticationToken: pendingToken})
	if err != nil {
		return m.fail(newFlowError(err, VerificationFailedErr, verificationFailedMessage))
	}
	if resp.Token == "" {
		return m.fail(&FlowError{Kind: VerificationFailedErr, Message: verificationFailedMessage})
	}
	return m.authenticate(resp.Token)
}

// Logout always succeeds locally; the remote call is best effort.
func (m *Machine) Logout(ctx context.Context) {
	if err := m.api.Logout(ctx); err != nil {
		log.Warn().Err(err).Msg("Remote logout failed, clearing local session anyway")
	}
	if err := m.session.Clear(); err != nil {
		log.Err(err).Msg("Logout: failed to clear persisted session")
	}

	m.lock.Lock()
	m.state = AwaitingCredentials
	m.challenge = PendingChallenge{}
	m.lastError = ""
	m.lock.Unlock()

	m.navigator.Navigate(m.routes.Login)
}

func (m *Machine) authenticate(token string) error {
	if err := m.session.SetToken(token); err != nil {
		log.Err(err).Msg("Login token kept in memory only")
	}

	m.lock.Lock()
	m.state = Authenticated
	m.challenge = PendingChallenge{}
	m.lastError = ""
	m.lock.Unlock()

	target := navigation.PostLoginTarget(m.navigator.Location(), m.routes.Default)
	log.Info().Str("redirect", target).Msg("Login succeeded")
	m.navigator.Navigate(target)
	return nil
}

// fail records the message; the state is left as is
func (m *Machine) fail(fe *FlowError) error {
	m.lock.Lock()
	m.lastError = fe.Message
	m.lock.Unlock()
	return fe
}
