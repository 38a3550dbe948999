package engine

// Listener receives the Runtime's published state. Each method is called at
// most once per cycle, and only when the value it carries changed.
type Listener interface {
	DisplayChanged(Display)
	ButtonsChanged([]Button)
	ResultsChanged([]ResultSpan)
	EditsChanged([]MetricEdit)
	CursorChanged(*Block) // nil while idle or done
	StateChanged(State)
}

// ListenerFuncs adapts optional funcs to a Listener. Nil funcs are skipped.
type ListenerFuncs struct {
	OnDisplay func(Display)
	OnButtons func([]Button)
	OnResults func([]ResultSpan)
	OnEdits   func([]MetricEdit)
	OnCursor  func(*Block)
	OnState   func(State)
}

func (f ListenerFuncs) DisplayChanged(d Display) {
	if f.OnDisplay != nil {
		f.OnDisplay(d)
	}
}

func (f ListenerFuncs) ButtonsChanged(b []Button) {
	if f.OnButtons != nil {
		f.OnButtons(b)
	}
}

func (f ListenerFuncs) ResultsChanged(r []ResultSpan) {
	if f.OnResults != nil {
		f.OnResults(r)
	}
}

func (f ListenerFuncs) EditsChanged(e []MetricEdit) {
	if f.OnEdits != nil {
		f.OnEdits(e)
	}
}

func (f ListenerFuncs) CursorChanged(b *Block) {
	if f.OnCursor != nil {
		f.OnCursor(b)
	}
}

func (f ListenerFuncs) StateChanged(s State) {
	if f.OnState != nil {
		f.OnState(s)
	}
}
