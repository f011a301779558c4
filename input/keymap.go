package input

// Binding maps a key chord to an action within a set of contexts. An empty
// context list means the binding applies everywhere.
type Binding struct {
	Keys           []KeyPress
	Action         Action
	Contexts       []Context
	CustomContexts []string
}

func (b *Binding) appliesIn(ctx Context, custom []string) bool {
	if len(b.Contexts) == 0 && len(b.CustomContexts) == 0 {
		return true
	}
	for _, c := range b.Contexts {
		if c == ctx {
			return true
		}
	}
	for _, want := range b.CustomContexts {
		for _, have := range custom {
			if want == have {
				return true
			}
		}
	}
	return false
}

// Keymap is an ordered binding list with single-parent inheritance. The
// parent resolves first and child bindings shadow it.
type Keymap struct {
	parent   *Keymap
	bindings []Binding
}

func NewKeymap(parent *Keymap) *Keymap {
	return &Keymap{parent: parent}
}

func (km *Keymap) Bind(b Binding) {
	km.bindings = append(km.bindings, b)
}

// Match is the result of resolving a chord prefix.
type Match int

const (
	MatchNone Match = iota
	MatchPartial
	MatchExact
)

// Resolve matches keys against the bindings visible in ctx. An exact match
// returns the bound action; a prefix of a longer chord reports partial so
// the dispatcher waits for more keys. Child bindings shadow the parent's.
func (km *Keymap) Resolve(keys []KeyPress, ctx Context, custom []string) (Action, Match) {
	var resolved Action
	match := MatchNone
	if km.parent != nil {
		resolved, match = km.parent.Resolve(keys, ctx, custom)
	}
	for i := range km.bindings {
		b := &km.bindings[i]
		if !b.appliesIn(ctx, custom) {
			continue
		}
		switch prefixMatch(keys, b.Keys) {
		case MatchExact:
			resolved, match = b.Action, MatchExact
		case MatchPartial:
			if match != MatchExact {
				match = MatchPartial
			}
		}
	}
	return resolved, match
}

func prefixMatch(keys, bound []KeyPress) Match {
	if len(keys) > len(bound) {
		return MatchNone
	}
	for i := range keys {
		if !keys[i].Equal(bound[i]) {
			return MatchNone
		}
	}
	if len(keys) == len(bound) {
		return MatchExact
	}
	return MatchPartial
}
