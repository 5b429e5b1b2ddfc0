package viewstate

import "time"

// Kind is the value type of a recognized parameter.
type Kind int

const (
	String Kind = iota
	Int
	Bool
	Time
	Sort
)

// Field is a parameter a view recognizes in its location query.
type Field struct {
	Name  string
	Kind  Kind
	Multi bool
}

// Schema lists the parameters of one view and how to default them.
type Schema struct {
	View     string
	Fields   []Field
	Defaults func(now time.Time) Params
}

// Field looks up a recognized parameter by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Recognizes reports whether name is one of the view's parameters.
func (s Schema) Recognizes(name string) bool {
	_, ok := s.Field(name)
	return ok
}

// DefaultParams evaluates the schema defaults at now.
func (s Schema) DefaultParams(now time.Time) Params {
	if s.Defaults == nil {
		return Params{}
	}
	return s.Defaults(now).Clone()
}

// LastWeek returns the default started/ended window: the start of the day one
// week ago through the end of today, in UTC.
func LastWeek(now time.Time) (started, ended time.Time) {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	started = today.AddDate(0, 0, -7)
	ended = today.Add(24*time.Hour - time.Millisecond)
	return started, ended
}
