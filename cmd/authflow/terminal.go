package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/getmentor/authflow/internal/flow"
	"github.com/getmentor/authflow/internal/screens"
	"github.com/getmentor/authflow/internal/validation"
	apperrors "github.com/getmentor/authflow/pkg/errors"
	"github.com/getmentor/authflow/pkg/logger"
	"go.uber.org/zap"
)

const (
	cmdQuit    = "quit"
	cmdBack    = "back"
	cmdCancel  = "cancel"
	cmdForgot  = "forgot"
	cmdResend  = "resend"
	cmdSignOut = "signout"
)

var titles = map[flow.Screen]string{
	flow.ScreenSplash:              "Loading...",
	flow.ScreenWelcome:             "Welcome. Sign in with your email.",
	flow.ScreenEnterPassword:       "Enter your password",
	flow.ScreenResetPassword:       "Reset your password",
	flow.ScreenVerifyAccountMethod: "How should we verify your account?",
	flow.ScreenSendCodeTo:          "Where should we send the code?",
	flow.ScreenVerifyAccountCode:   "Enter the 6-digit code",
	flow.ScreenFinalVerify:         "Your account is verified",
	flow.ScreenMain:                "Signed in",
}

// terminal renders the flow as text and turns typed lines into screen events
type terminal struct {
	ctrl  *screens.Controller
	in    io.Reader
	lines chan string
	out   io.Writer
	outMu sync.Mutex
}

func newTerminal(ctrl *screens.Controller, in io.Reader, out io.Writer) *terminal {
	return &terminal{ctrl: ctrl, in: in, lines: make(chan string), out: out}
}

// scan feeds input lines to run so a blocked read never holds up cancellation
func (t *terminal) scan() {
	defer close(t.lines)
	scanner := bufio.NewScanner(t.in)
	for scanner.Scan() {
		t.lines <- strings.TrimSpace(scanner.Text())
	}
}

func (t *terminal) printf(format string, args ...any) {
	t.outMu.Lock()
	defer t.outMu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

// render is installed as a navigator listener
func (t *terminal) render(_, to flow.Entry) {
	t.printf("\n== %s ==\n", titles[to.Screen])
	if to.Params.Message != "" {
		t.printf("%s\n", to.Params.Message)
	}
	if to.Screen == flow.ScreenSendCodeTo {
		t.listContacts()
	}
}

func (t *terminal) listContacts() {
	for i, opt := range t.ctrl.ContactOptions() {
		t.printf("  %d) %s %s\n", i+1, opt.Method, opt.Masked)
	}
}

// run reads commands until quit, EOF or ctx is done. splash is closed once
// the splash delay has moved the flow on.
func (t *terminal) run(ctx context.Context, splash <-chan struct{}) error {
	go t.scan()
	t.render(flow.Entry{}, t.ctrl.Current())

	for {
		current := t.ctrl.Current()
		if current.Screen == flow.ScreenSplash {
			select {
			case <-splash:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		t.printf("%s", t.prompt(current))
		line, ok := t.readLine(ctx)
		if !ok {
			return ctx.Err()
		}
		if line == cmdQuit {
			return nil
		}

		done, err := t.handle(ctx, current, line)
		if err != nil {
			t.showError(err)
		}
		// A screen change already rendered the notice through its params
		if notice := t.ctrl.Notice(); notice != "" && err == nil && t.ctrl.Current().Screen == current.Screen {
			t.printf("%s\n", notice)
		}
		if done {
			return nil
		}
	}
}

func (t *terminal) readLine(ctx context.Context) (string, bool) {
	select {
	case line, ok := <-t.lines:
		return line, ok
	case <-ctx.Done():
		return "", false
	}
}

func (t *terminal) prompt(current flow.Entry) string {
	switch current.Screen {
	case flow.ScreenWelcome:
		return "Email: "
	case flow.ScreenEnterPassword:
		return fmt.Sprintf("Password for %s (or %q, %q): ", current.Params.Email, cmdForgot, cmdBack)
	case flow.ScreenResetPassword:
		return fmt.Sprintf("Email to reset (or %q): ", cmdBack)
	case flow.ScreenVerifyAccountMethod:
		return fmt.Sprintf("Method [call/sms/email] (or %q): ", cmdBack)
	case flow.ScreenSendCodeTo:
		return fmt.Sprintf("Option number (or %q): ", cmdBack)
	case flow.ScreenVerifyAccountCode:
		return fmt.Sprintf("Code sent to %s (or %q, %q): ",
			flow.MaskContact(current.Params.Method, current.Params.Contact), cmdResend, cmdBack)
	case flow.ScreenFinalVerify:
		return "Press enter to continue: "
	case flow.ScreenMain:
		return fmt.Sprintf("[%s] Tab [home/messages/profile] (or %q, %q): ", t.ctrl.SelectedTab(), cmdSignOut, cmdQuit)
	default:
		return "> "
	}
}

// handle applies one typed line to the current screen. done ends the session.
func (t *terminal) handle(ctx context.Context, current flow.Entry, line string) (bool, error) {
	if line == cmdBack && current.Screen != flow.ScreenMain {
		if !t.ctrl.Back() {
			t.printf("Nothing to go back to\n")
		}
		return false, nil
	}
	if line == cmdCancel {
		return false, t.ctrl.Cancel()
	}

	switch current.Screen {
	case flow.ScreenWelcome:
		_, err := t.ctrl.SubmitEmail(ctx, line)
		return false, err

	case flow.ScreenEnterPassword:
		if line == cmdForgot {
			return false, t.ctrl.ForgotPassword()
		}
		_, err := t.ctrl.SubmitPassword(ctx, line)
		return false, err

	case flow.ScreenResetPassword:
		if err := t.ctrl.SubmitReset(line); err != nil {
			return false, err
		}
		t.printf("If %s has an account, reset instructions are on their way\n", line)
		return false, nil

	case flow.ScreenVerifyAccountMethod:
		return false, t.ctrl.ChooseMethod(line)

	case flow.ScreenSendCodeTo:
		return false, t.chooseContact(line)

	case flow.ScreenVerifyAccountCode:
		if line == cmdResend {
			_, err := t.ctrl.ResendCode(ctx)
			return false, err
		}
		return false, t.submitCode(ctx, line)

	case flow.ScreenFinalVerify:
		return false, t.ctrl.OpenMain()

	case flow.ScreenMain:
		if line == cmdSignOut {
			t.ctrl.ResetSession()
			t.printf("Signed out\n")
			return true, nil
		}
		if err := t.ctrl.SelectTab(tabFromInput(line)); err != nil {
			return false, err
		}
		t.printf("Showing %s\n", t.ctrl.SelectedTab())
		return false, nil
	}

	return false, nil
}

func (t *terminal) chooseContact(line string) error {
	options := t.ctrl.ContactOptions()
	if len(options) == 0 {
		return apperrors.InvalidInputError("contact", validation.MsgNoContact)
	}

	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(options) {
		t.listContacts()
		return fmt.Errorf("choose a number between 1 and %d", len(options))
	}
	return t.ctrl.SelectContact(options[n-1])
}

// submitCode types the line into the code slots one digit at a time
func (t *terminal) submitCode(ctx context.Context, line string) error {
	for i := flow.CodeLength - 1; i >= 0; i-- {
		t.ctrl.DeleteDigit(i)
	}
	i := 0
	for _, r := range line {
		if i == flow.CodeLength {
			break
		}
		t.ctrl.EnterDigit(i, string(r))
		i++
	}
	if !t.ctrl.CanSubmitCode() {
		t.printf("Code so far: %s\n", strings.Join(padDigits(t.ctrl.CodeDigits()), " "))
	}
	_, err := t.ctrl.SubmitCode(ctx)
	return err
}

func (t *terminal) showError(err error) {
	logger.Debug("Screen action failed", zap.Error(err))

	msg := err.Error()
	if state := t.ctrl.State(); state.Error != "" && !apperrors.Is(err, apperrors.ErrInvalidInput) {
		msg = state.Error
	}
	t.printf("Error: %s\n", msg)
}

func tabFromInput(s string) flow.Tab {
	for _, tab := range flow.Tabs() {
		if strings.EqualFold(string(tab), s) {
			return tab
		}
	}
	return flow.Tab(s)
}

func padDigits(digits []string) []string {
	out := make([]string, len(digits))
	for i, d := range digits {
		if d == "" {
			d = "_"
		}
		out[i] = d
	}
	return out
}
