package viewstate

import (
	"net/url"
	"slices"
	"time"
)

// Read takes the recognized keys of q into a parameter set. Values are kept
// verbatim, the empty string included; malformed numbers or dates are left
// for the backend to reject. Repeated keys collapse to a multi-valued
// parameter. A key absent from q is null.
func Read(schema Schema, q url.Values) Params {
	p := Params{}
	for _, f := range schema.Fields {
		if vs := q[f.Name]; len(vs) > 0 {
			p[f.Name] = slices.Clone(vs)
		}
	}
	return p
}

// Write renders every non-null key as query values. Multi-valued keys become
// repeated keys.
func Write(p Params) url.Values {
	q := url.Values{}
	for k, vs := range p {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	return q
}

// HasRecognized reports whether q carries any key the schema recognizes.
func HasRecognized(schema Schema, q url.Values) bool {
	return len(Read(schema, q)) > 0
}

// Seed computes the parameters a view starts with. The location wins: when
// it carries any recognized key, those keys are layered over the defaults.
// Otherwise the view's last shared state is layered over the defaults.
// Otherwise the defaults alone are used.
func Seed(schema Schema, q url.Values, shared *SharedStore, now time.Time) Params {
	defaults := schema.DefaultParams(now)
	if fromURL := Read(schema, q); len(fromURL) > 0 {
		return defaults.Merge(fromURL)
	}
	if shared != nil {
		if last, ok := shared.LastParams(schema.View); ok {
			return defaults.Merge(last)
		}
	}
	return defaults
}
