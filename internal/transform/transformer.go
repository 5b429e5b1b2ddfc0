package transform

import (
	"maps"
	"time"
)

// DisplayRecord is a raw row plus the derived fields computed from it. Raw
// is never modified, so Map() is always a superset of the API response.
type DisplayRecord struct {
	Raw     Row
	Derived map[string]string
}

// Get returns a derived field when present, else the raw value at key.
func (d DisplayRecord) Get(key string) string {
	if v, ok := d.Derived[key]; ok {
		return v
	}
	return d.Raw.String(key)
}

// Has reports whether a derived field was produced.
func (d DisplayRecord) Has(key string) bool {
	_, ok := d.Derived[key]
	return ok
}

// ID is the raw "id".
func (d DisplayRecord) ID() string {
	return d.Raw.ID()
}

// Map merges raw and derived fields into one row.
func (d DisplayRecord) Map() Row {
	out := make(Row, len(d.Raw)+len(d.Derived))
	maps.Copy(out, d.Raw)
	for k, v := range d.Derived {
		out[k] = v
	}
	return out
}

// DurationRule derives a duration between two timestamp fields. A missing End
// means the item is still running and the clock is used instead.
type DurationRule struct {
	Start string
	End   string
	// Field defaults to "duration".
	Field string
}

// IconTable maps categorical values to glyphs. Unknown values get Default.
type IconTable struct {
	Glyphs  map[string]string
	Default string
}

// Lookup never fails.
func (t IconTable) Lookup(value string) string {
	if g, ok := t.Glyphs[value]; ok {
		return g
	}
	return t.Default
}

// IconRule derives "<Field>_icon" from a categorical field.
type IconRule struct {
	Field string
	Table IconTable
}

// Rules lists the derived fields of one view.
type Rules struct {
	Times     []string
	Durations []DurationRule
	Icons     []IconRule
	Sizes     []string
}

// Transformer applies Rules. Now is injectable so tests control the clock.
type Transformer struct {
	Rules Rules
	Now   func() time.Time
}

// New returns a transformer on the wall clock.
func New(rules Rules) Transformer {
	return Transformer{Rules: rules, Now: time.Now}
}

func (t Transformer) now() time.Time {
	if t.Now == nil {
		return time.Now()
	}
	return t.Now()
}

// Transform derives display fields from row. It is pure for a fixed clock.
// Timestamps that are absent or unparseable produce no derived field; so do
// durations without a start or with a negative span.
func (t Transformer) Transform(row Row) DisplayRecord {
	rec := DisplayRecord{Raw: row, Derived: make(map[string]string)}

	for _, field := range t.Rules.Times {
		if ts, ok := ParseTime(row.String(field)); ok {
			rec.Derived[field+"_formatted"] = FormatTime(ts)
		}
	}

	for _, d := range t.Rules.Durations {
		name := d.Field
		if name == "" {
			name = "duration"
		}
		start, ok := ParseTime(row.String(d.Start))
		if !ok {
			continue
		}
		end, ok := ParseTime(row.String(d.End))
		if !ok {
			end = t.now().UTC()
		}
		span := end.Sub(start)
		if span < 0 {
			continue
		}
		rec.Derived[name] = FormatDuration(span)
	}

	for _, ic := range t.Rules.Icons {
		rec.Derived[ic.Field+"_icon"] = ic.Table.Lookup(row.String(ic.Field))
	}

	for _, field := range t.Rules.Sizes {
		if n, ok := row.Float(field); ok {
			rec.Derived[field+"_formatted"] = FormatBytes(n)
		}
	}
	return rec
}

// TransformAll builds a fresh record set; callers replace the previous set
// wholesale.
func (t Transformer) TransformAll(rows []Row) []DisplayRecord {
	out := make([]DisplayRecord, len(rows))
	for i, r := range rows {
		out[i] = t.Transform(r)
	}
	return out
}
