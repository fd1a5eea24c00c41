package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	croonhttp "github.com/croonlabs/croon/internal/http"
)

// clientVersion is sent identically on every identity-service call.
// The remote side may reject requests whose version drifts between calls.
const clientVersion = "5.26.3"

// Common errors.
var (
	// ErrChallengeUnavailable means the sign-in attempt offered no
	// supported first factor to deliver a code through.
	ErrChallengeUnavailable = errors.New("identity: no supported first factor available")

	// ErrSessionNotEstablished means the code was accepted but the
	// response carried no session identifier. Fatal for the account.
	ErrSessionNotEstablished = errors.New("identity: session identifier not present in response")

	// ErrNoActiveSession means Renew was called before a session was
	// established. This is a programming-contract violation, not a remote
	// failure.
	ErrNoActiveSession = errors.New("identity: no active session to renew")

	// ErrRenewalFailed means the remote side refused to issue a fresh
	// bearer credential. The account is unusable for the rest of the run.
	ErrRenewalFailed = errors.New("identity: credential renewal failed")
)

type signInResponse struct {
	Response struct {
		ID                    string `json:"id"`
		SupportedFirstFactors []struct {
			Strategy      string `json:"strategy"`
			PhoneNumberID string `json:"phone_number_id"`
		} `json:"supported_first_factors"`
	} `json:"response"`
}

type attemptResponse struct {
	Response struct {
		CreatedSessionID string `json:"created_session_id"`
	} `json:"response"`
}

type tokenResponse struct {
	JWT string `json:"jwt"`
}

// Client drives the identity service's phone sign-in protocol.
type Client struct {
	http    *croonhttp.Client
	baseURL string
	logger  *slog.Logger
}

// NewClient creates an identity client for the given service base URL.
func NewClient(baseURL string, hc *croonhttp.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http:    hc,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Challenge is a suspended sign-in flow waiting for the one-time code that
// was delivered out-of-band. Resume completes it.
type Challenge struct {
	client  *Client
	session *Session
}

// Phone returns the account the pending code was sent to.
func (ch *Challenge) Phone() string { return ch.session.phone }

// SignIn starts the authentication flow for a phone number: it submits the
// identifier, picks the first supported factor and asks the service to send
// the code. The returned Challenge is suspended in OtpRequested until the
// caller supplies the code via Resume.
func (c *Client) SignIn(ctx context.Context, phone string) (*Challenge, error) {
	s := &Session{phone: phone, state: Unauthenticated}

	form := url.Values{"identifier": {phone}}
	resp, err := c.http.PostForm(ctx, c.endpoint("/v1/client/sign_ins"), form, nil)
	if err != nil {
		s.state = Failed
		return nil, fmt.Errorf("sign in %s: %w", phone, err)
	}

	var signIn signInResponse
	if err := resp.Decode(&signIn); err != nil {
		s.state = Failed
		return nil, fmt.Errorf("sign in %s: %w", phone, err)
	}

	s.attemptID = signIn.Response.ID
	s.authzToken = resp.Header.Get("Authorization")

	factors := signIn.Response.SupportedFirstFactors
	if len(factors) == 0 {
		s.state = Failed
		return nil, fmt.Errorf("sign in %s: %w", phone, ErrChallengeUnavailable)
	}
	s.phoneNumberID = factors[0].PhoneNumberID

	c.logger.Info("sign-in attempt created", "phone", phone, "attempt_id", s.attemptID)

	prepare := url.Values{
		"phone_number_id": {s.phoneNumberID},
		"strategy":        {"phone_code"},
	}
	prepareURL := c.endpoint("/v1/client/sign_ins/" + s.attemptID + "/prepare_first_factor")
	if _, err := c.http.PostForm(ctx, prepareURL, prepare, c.authzHeader(s)); err != nil {
		s.state = Failed
		return nil, fmt.Errorf("request code for %s: %w", phone, err)
	}

	s.state = OtpRequested
	c.logger.Info("one-time code sent", "phone", phone)

	return &Challenge{client: c, session: s}, nil
}

// Resume submits the one-time code and establishes the session. On success
// it immediately performs an initial credential renewal, since a freshly
// established session has no usable bearer credential yet.
func (ch *Challenge) Resume(ctx context.Context, code string) (*Session, error) {
	c, s := ch.client, ch.session

	attempt := url.Values{
		"strategy": {"phone_code"},
		"code":     {code},
	}
	attemptURL := c.endpoint("/v1/client/sign_ins/" + s.attemptID + "/attempt_first_factor")
	resp, err := c.http.PostForm(ctx, attemptURL, attempt, c.authzHeader(s))
	if err != nil {
		s.state = Failed
		return nil, fmt.Errorf("verify code for %s: %w", s.phone, err)
	}

	var attemptResp attemptResponse
	if err := resp.Decode(&attemptResp); err != nil {
		s.state = Failed
		return nil, fmt.Errorf("verify code for %s: %w", s.phone, err)
	}

	if attemptResp.Response.CreatedSessionID == "" {
		s.state = Failed
		return nil, fmt.Errorf("verify code for %s: %w", s.phone, ErrSessionNotEstablished)
	}

	s.sessionID = attemptResp.Response.CreatedSessionID
	s.state = Authenticated
	c.logger.Info("session established", "phone", s.phone, "session_id", s.sessionID)

	if err := c.Renew(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Renew requests a fresh bearer credential for an established session and
// replaces the previously held one. It is safe to call repeatedly.
//
// Calling Renew before the session is established fails with
// ErrNoActiveSession and leaves the stored credentials untouched. A remote
// failure clears the bearer credential, marks the session Failed and
// returns ErrRenewalFailed.
func (c *Client) Renew(ctx context.Context, s *Session) error {
	if s.sessionID == "" {
		return ErrNoActiveSession
	}

	s.state = Renewing
	renewURL := c.endpoint("/v1/client/sessions/" + s.sessionID + "/tokens")
	resp, err := c.http.PostForm(ctx, renewURL, nil, nil)
	if err != nil {
		s.bearer = ""
		s.state = Failed
		c.logger.Error("credential renewal failed", "phone", s.phone, "error", err)
		return fmt.Errorf("%w: %v", ErrRenewalFailed, err)
	}

	var token tokenResponse
	if err := resp.Decode(&token); err != nil {
		s.bearer = ""
		s.state = Failed
		return fmt.Errorf("%w: %v", ErrRenewalFailed, err)
	}

	s.bearer = token.JWT
	s.state = Authenticated
	c.logger.Debug("credential renewed", "phone", s.phone)
	return nil
}

// AuthorizedHeader returns the header carrying the session's current bearer
// credential, for use on generation-service calls.
func AuthorizedHeader(s *Session) http.Header {
	h := make(http.Header)
	h.Set("Authorization", "Bearer "+s.bearer)
	return h
}

func (c *Client) authzHeader(s *Session) http.Header {
	h := make(http.Header)
	h.Set("Authorization", s.authzToken)
	return h
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + path + "?_clerk_js_version=" + clientVersion
}
