package screens

import (
	"context"
	"time"

	"github.com/getmentor/authflow/internal/flow"
	"github.com/getmentor/authflow/internal/models"
	"github.com/getmentor/authflow/internal/session"
	"github.com/getmentor/authflow/internal/validation"
	apperrors "github.com/getmentor/authflow/pkg/errors"
	"github.com/getmentor/authflow/pkg/logger"
	"go.uber.org/zap"
)

// Session is the part of the session container the screens use
type Session interface {
	State() session.State
	CheckEmailAndGeneratePassword(ctx context.Context, email string) (*models.CheckEmailResponse, error)
	Login(ctx context.Context, email, password string) (*models.LoginResponse, error)
	VerifyOtp(ctx context.Context, email, otpCode string) (*models.OtpVerificationResponse, error)
	ClearError()
	ResetAuthState()
}

// Options configures a Controller
type Options struct {
	// SuccessDelay is how long a success notice stays up before navigating
	SuccessDelay time.Duration
	// Phone is offered for the call and sms methods
	Phone string
	// Sleep replaces the real wait, mainly for tests
	Sleep func(ctx context.Context, d time.Duration) error
}

// Controller implements the screen event handlers. Every forward action is
// validated locally first, then runs through the session, and navigates only
// when the call succeeded.
type Controller struct {
	validator    *validation.Validator
	session      Session
	nav          *flow.Navigator
	code         *flow.CodeInput
	tabs         *flow.TabShell
	successDelay time.Duration
	phone        string
	sleep        func(ctx context.Context, d time.Duration) error

	notice string
}

// NewController wires the handlers to a session and a navigator
func NewController(sess Session, nav *flow.Navigator, opts Options) *Controller {
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return &Controller{
		validator:    validation.New(),
		session:      sess,
		nav:          nav,
		code:         flow.NewCodeInput(),
		tabs:         flow.NewTabShell(),
		successDelay: opts.SuccessDelay,
		phone:        opts.Phone,
		sleep:        sleep,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Current is the screen being shown
func (c *Controller) Current() flow.Entry {
	return c.nav.Current()
}

// State is the session state to render
func (c *Controller) State() session.State {
	return c.session.State()
}

// Notice is the last success message, shown until the next action
func (c *Controller) Notice() string {
	return c.notice
}

// SubmitEmail handles "continue" on the welcome screen
func (c *Controller) SubmitEmail(ctx context.Context, email string) (*models.CheckEmailResponse, error) {
	c.notice = ""
	email, err := c.validator.Email(email)
	if err != nil {
		return nil, err
	}

	resp, err := c.session.CheckEmailAndGeneratePassword(ctx, email)
	if err != nil {
		return nil, err
	}

	c.notice = resp.Data.Message
	if err := c.sleep(ctx, c.successDelay); err != nil {
		return resp, err
	}

	_, err = c.nav.Dispatch(flow.EventEmailAccepted, flow.Params{Email: email, Message: resp.Data.Message})
	return resp, err
}

// SubmitPassword handles "sign in" on the password screen for the email it was opened with
func (c *Controller) SubmitPassword(ctx context.Context, password string) (*models.LoginResponse, error) {
	c.notice = ""
	email := c.sessionEmail()
	if email == "" {
		return nil, apperrors.InvalidInputError("email", validation.MsgEmailRequired)
	}
	if err := c.validator.Password(password); err != nil {
		return nil, err
	}

	resp, err := c.session.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if resp.Message != nil {
		c.notice = *resp.Message
	}
	if err := c.sleep(ctx, c.successDelay); err != nil {
		return resp, err
	}

	c.code.Reset()
	_, err = c.nav.Dispatch(flow.EventLoginSucceeded, flow.Params{Method: flow.MethodEmail, Contact: email})
	return resp, err
}

// ForgotPassword opens the reset screen
func (c *Controller) ForgotPassword() error {
	_, err := c.nav.Dispatch(flow.EventForgotPassword, flow.Params{})
	return err
}

// SubmitReset handles the reset form. Only the address is checked; the
// screen then returns to where it was opened from.
func (c *Controller) SubmitReset(email string) error {
	email, err := c.validator.Email(email)
	if err != nil {
		return err
	}
	logger.Info("Password reset requested", zap.String("email", email))
	_, err = c.nav.Dispatch(flow.EventResetSubmitted, flow.Params{})
	return err
}

// Cancel handles the cancel button of the current screen
func (c *Controller) Cancel() error {
	c.notice = ""
	c.session.ClearError()
	_, err := c.nav.Dispatch(flow.EventCancel, flow.Params{})
	return err
}

// Back is the hardware back button. It never touches the network.
func (c *Controller) Back() bool {
	c.notice = ""
	c.session.ClearError()
	_, ok := c.nav.Back()
	return ok
}

// ChooseMethod handles "send" on the method picker
func (c *Controller) ChooseMethod(method string) error {
	if err := c.validator.Method(method); err != nil {
		return err
	}
	if len(flow.ContactOptions(flow.Method(method), c.phone, c.session.State().UserEmail)) == 0 {
		return apperrors.InvalidInputError("method", validation.MsgNoContact)
	}
	_, err := c.nav.Dispatch(flow.EventMethodChosen, flow.Params{Method: flow.Method(method)})
	return err
}

// ContactOptions lists every destination on file, the method chosen on the
// previous screen first
func (c *Controller) ContactOptions() []flow.ContactOption {
	method := c.nav.Current().Params.Method
	return flow.ContactOptions(method, c.phone, c.session.State().UserEmail)
}

// SelectContact sends the user to code entry for the chosen destination
func (c *Controller) SelectContact(option flow.ContactOption) error {
	c.code.Reset()
	_, err := c.nav.Dispatch(flow.EventContactSelected, flow.Params{
		Method:  option.Method,
		Contact: option.Contact,
	})
	return err
}

// EnterDigit types into a code slot and returns the slot to focus next
func (c *Controller) EnterDigit(index int, value string) int {
	return c.code.Set(index, value)
}

// DeleteDigit handles backspace in a code slot and returns the slot to focus next
func (c *Controller) DeleteDigit(index int) int {
	return c.code.Backspace(index)
}

// CodeDigits returns the current code slots
func (c *Controller) CodeDigits() []string {
	return c.code.Digits()
}

// CanSubmitCode reports whether the submit button is enabled
func (c *Controller) CanSubmitCode() bool {
	return c.code.Complete() && !c.session.State().IsLoading
}

// SubmitCode verifies the entered code
func (c *Controller) SubmitCode(ctx context.Context) (*models.OtpVerificationResponse, error) {
	c.notice = ""
	otp, err := c.validator.Code(c.code.Digits())
	if err != nil {
		return nil, err
	}

	email := c.codeEmail()
	if email == "" {
		return nil, apperrors.InvalidInputError("email", validation.MsgEmailRequired)
	}

	resp, err := c.session.VerifyOtp(ctx, email, otp)
	if err != nil {
		return nil, err
	}

	if err := c.sleep(ctx, c.successDelay); err != nil {
		return resp, err
	}

	_, err = c.nav.Dispatch(flow.EventCodeSubmitted, flow.Params{})
	return resp, err
}

// ResendCode asks the server for a new code for the session email and clears the slots
func (c *Controller) ResendCode(ctx context.Context) (*models.CheckEmailResponse, error) {
	c.notice = ""
	email := c.codeEmail()
	if email == "" {
		return nil, apperrors.InvalidInputError("email", validation.MsgEmailRequired)
	}

	current := c.nav.Current()
	logger.Info("Resending verification code",
		zap.String("method", string(current.Params.Method)),
		zap.String("contact", flow.MaskContact(current.Params.Method, current.Params.Contact)))

	resp, err := c.session.CheckEmailAndGeneratePassword(ctx, email)
	if err != nil {
		return nil, err
	}
	c.code.Reset()
	c.notice = resp.Data.Message
	return resp, nil
}

// OpenMain leaves the auth flow for the tab shell
func (c *Controller) OpenMain() error {
	_, err := c.nav.Dispatch(flow.EventOpenMain, flow.Params{})
	return err
}

// SelectTab switches the tab shell
func (c *Controller) SelectTab(tab flow.Tab) error {
	return c.tabs.Select(tab)
}

// SelectedTab is the active tab of the shell
func (c *Controller) SelectedTab() flow.Tab {
	return c.tabs.Selected()
}

// ResetSession drops the session state and any typed code
func (c *Controller) ResetSession() {
	c.session.ResetAuthState()
	c.code.Reset()
	c.notice = ""
}

// sessionEmail prefers the email the current screen was opened with
func (c *Controller) sessionEmail() string {
	if email := c.nav.Current().Params.Email; email != "" {
		return email
	}
	return c.session.State().UserEmail
}

// codeEmail is the address the code was sent to, or the session email for phone methods
func (c *Controller) codeEmail() string {
	params := c.nav.Current().Params
	if params.Method == flow.MethodEmail && params.Contact != "" {
		return params.Contact
	}
	return c.session.State().UserEmail
}
