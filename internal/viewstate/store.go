package viewstate

// Store owns the parameters of one view instance and mirrors them into the
// router whenever the view's route is current.
type Store struct {
	schema Schema
	path   string
	router *Router
	params Params
	subs   map[int]func(changed []string, p Params)
	nextID int
}

// NewStore creates a store for the view mounted at path. router may be nil.
func NewStore(schema Schema, path string, router *Router, initial Params) *Store {
	s := &Store{
		schema: schema,
		path:   path,
		router: router,
		params: initial.Clone(),
		subs:   make(map[int]func([]string, Params)),
	}
	s.sync()
	return s
}

// Schema returns the view's schema.
func (s *Store) Schema() Schema {
	return s.schema
}

// Params returns a copy of the current parameters.
func (s *Store) Params() Params {
	return s.params.Clone()
}

// Set replaces the parameters, mirrors them into the location and notifies
// subscribers when something changed. It returns the changed keys.
func (s *Store) Set(p Params) []string {
	changed := Changed(s.params, p)
	s.params = p.Clone()
	s.sync()
	if len(changed) == 0 {
		return nil
	}
	snapshot := s.params.Clone()
	for _, fn := range s.subs {
		fn(changed, snapshot)
	}
	return changed
}

// Update applies fn to a copy of the parameters and stores the result.
func (s *Store) Update(fn func(p Params) Params) []string {
	return s.Set(fn(s.Params()))
}

// Subscribe registers fn for change notifications and returns a function that
// removes it.
func (s *Store) Subscribe(fn func(changed []string, p Params)) func() {
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() { delete(s.subs, id) }
}

// Sync rewrites the location query when the view's route is current. It is
// called on re-entry so the address bar shows the restored state.
func (s *Store) Sync() {
	s.sync()
}

func (s *Store) sync() {
	if s.router == nil || s.router.Current().Path != s.path {
		return
	}
	s.router.ReplaceQuery(Write(s.params))
}
