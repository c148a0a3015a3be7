package core

// BoundAction pairs an action name with an already-bound callable. Short-term
// modules expose their surface as an ordered list of these.
type BoundAction struct {
	Name string
	Doc  string
	Fn   ActionFunc
}

// ShortTermModule is an ephemeral, non-globally-registered capability produced
// by an external collaborator (e.g. a chat session that generated code) and
// attached directly to a single agent via Memorize. Short-term modules carry
// no permission metadata; they are trusted by construction and bypass the
// services/executors gate entirely.
type ShortTermModule interface {
	// Name must be unique within the owning agent's memorized-task namespace.
	Name() string

	// API returns the ordered action surface.
	API() []BoundAction
}

// FuncModule is a ShortTermModule assembled from explicit bound actions.
type FuncModule struct {
	name    string
	actions []BoundAction
}

// NewShortTermModule builds a short-term module from bound actions. The given
// order is preserved and becomes the default memorized action list.
func NewShortTermModule(name string, actions ...BoundAction) *FuncModule {
	return &FuncModule{name: name, actions: actions}
}

// Name returns the module name.
func (m *FuncModule) Name() string { return m.name }

// API returns a copy of the ordered action surface.
func (m *FuncModule) API() []BoundAction {
	out := make([]BoundAction, len(m.actions))
	copy(out, m.actions)
	return out
}
