package flow

import (
	"fmt"
	"strings"

	apperrors "github.com/getmentor/authflow/pkg/errors"
)

// Screen names a node of the auth flow
type Screen string

const (
	ScreenSplash              Screen = "Splash"
	ScreenWelcome             Screen = "Welcome"
	ScreenEnterPassword       Screen = "EnterPassword"
	ScreenResetPassword       Screen = "ResetPassword"
	ScreenVerifyAccountMethod Screen = "VerifyAccountMethod"
	ScreenSendCodeTo          Screen = "SendCodeTo"
	ScreenVerifyAccountCode   Screen = "VerifyAccountCode"
	ScreenFinalVerify         Screen = "FinalVerify"
	ScreenMain                Screen = "Main"
)

// InitialScreen is where every navigator starts
const InitialScreen = ScreenSplash

// Screens lists every screen of the auth stack in display order
func Screens() []Screen {
	return []Screen{
		ScreenSplash,
		ScreenWelcome,
		ScreenEnterPassword,
		ScreenResetPassword,
		ScreenVerifyAccountMethod,
		ScreenSendCodeTo,
		ScreenVerifyAccountCode,
		ScreenFinalVerify,
		ScreenMain,
	}
}

// EntryScreens are the screens a navigator may be rooted at. None of them
// needs params from a previous screen.
func EntryScreens() []Screen {
	return []Screen{ScreenSplash, ScreenWelcome, ScreenVerifyAccountMethod}
}

// ParseStartScreen resolves a configured start screen name, ignoring case.
// An empty name means InitialScreen.
func ParseStartScreen(name string) (Screen, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return InitialScreen, nil
	}
	for _, screen := range EntryScreens() {
		if strings.EqualFold(string(screen), name) {
			return screen, nil
		}
	}
	return "", fmt.Errorf("%w: start screen %q, expected one of %v", apperrors.ErrNotFound, name, EntryScreens())
}

// Event is an outcome reported by a screen
type Event string

const (
	EventSplashElapsed   Event = "splash_elapsed"
	EventEmailAccepted   Event = "email_accepted"
	EventLoginSucceeded  Event = "login_succeeded"
	EventForgotPassword  Event = "forgot_password"
	EventCancel          Event = "cancel"
	EventMethodChosen    Event = "method_chosen"
	EventContactSelected Event = "contact_selected"
	EventCodeSubmitted   Event = "code_submitted"
	EventResetSubmitted  Event = "reset_submitted"
	EventOpenMain        Event = "open_main"
)

// Method is a two-factor delivery channel
type Method string

const (
	MethodCall  Method = "call"
	MethodSMS   Method = "sms"
	MethodEmail Method = "email"
)

// Params is the parameter bag carried into a screen. Which fields a screen
// needs is declared by its transition.
type Params struct {
	Email   string
	Message string
	Method  Method
	Contact string
}

// Param names a field of Params for requirement checks
type Param string

const (
	ParamEmail   Param = "email"
	ParamMethod  Param = "method"
	ParamContact Param = "contact"
)

func (p Params) has(name Param) bool {
	switch name {
	case ParamEmail:
		return p.Email != ""
	case ParamMethod:
		return p.Method != ""
	case ParamContact:
		return p.Contact != ""
	default:
		return false
	}
}
