package internal

import "context"

// Decision is the outcome of a guard check
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// GatedAction names an operation that touches per-user server state
type GatedAction string

const (
	ActionViewHistory     GatedAction = "view history"
	ActionViewSaved       GatedAction = "view saved translations"
	ActionSaveTranslation GatedAction = "save a translation"
	ActionOpenSettings    GatedAction = "open settings"
	ActionDeleteAccount   GatedAction = "delete your account"
	ActionSignOut         GatedAction = "sign out"
)

// PromptChoice is the user's answer to a login prompt
type PromptChoice int

const (
	PromptCancel PromptChoice = iota
	PromptNavigateLogin
)

func (c PromptChoice) String() string {
	if c == PromptNavigateLogin {
		return "login"
	}
	return "cancel"
}

// LoginPrompt is presented instead of running a denied action
type LoginPrompt struct {
	Action  GatedAction
	Message string
	Choices []PromptChoice
}

// Prompter presents a login prompt and returns the user's choice
type Prompter interface {
	PromptLogin(prompt LoginPrompt) PromptChoice
}

// Guard allows an action only for an authenticated session. It is pure and
// safe to call repeatedly.
func Guard(state SessionState) Decision {
	if state.Phase == PhaseAuthenticated {
		return Allow
	}
	return Deny
}

// NewLoginPrompt builds the prompt shown for a denied action
func NewLoginPrompt(action GatedAction) LoginPrompt {
	return LoginPrompt{
		Action:  action,
		Message: "You need to be logged in to " + string(action) + ".",
		Choices: []PromptChoice{PromptCancel, PromptNavigateLogin},
	}
}

// StateSource is anything that can report the current session state
type StateSource interface {
	State() SessionState
}

// Gate wraps gated actions with a guard check and a login prompt on denial
type Gate struct {
	Session  StateSource
	Prompter Prompter
}

// Run executes fn only if the guard allows it. On denial the login prompt is
// shown, fn is never called and a *LoginRequiredError is returned.
func (g *Gate) Run(ctx context.Context, action GatedAction, fn func(ctx context.Context) error) error {
	if Guard(g.Session.State()) == Deny {
		choice := PromptCancel
		if g.Prompter != nil {
			choice = g.Prompter.PromptLogin(NewLoginPrompt(action))
		}
		LogDebug("Gated action %q denied, prompt choice: %s", action, choice)
		return &LoginRequiredError{Action: action, Choice: choice}
	}
	return fn(ctx)
}
