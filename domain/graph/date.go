package graph

import (
	"time"

	"github.com/evermem/memimg/domain/value"
)

// Date is a timestamp plus an arbitrary record of user-set properties. The
// host the format comes from allows property attachment on date values, so
// dates are composites here and the wire format preserves the extra
// properties unconditionally.
type Date struct {
	node
	t        time.Time
	valid    bool
	propKeys []string
	props    map[string]any
}

// NewDate creates a detached date from a timestamp.
func NewDate(t time.Time) *Date {
	return &Date{t: t.UTC(), valid: true, props: make(map[string]any)}
}

// NewInvalidDate creates a detached date holding no valid instant.
func NewInvalidDate() *Date {
	return &Date{props: make(map[string]any)}
}

// ValueKind implements value.Composite.
func (d *Date) ValueKind() value.Kind { return value.KindDate }

// Valid reports whether the date holds a real instant.
func (d *Date) Valid() bool { return d.valid }

// Time returns the instant. The zero time is returned for invalid dates.
func (d *Date) Time() time.Time { return d.t }

// UnixMilli returns the timestamp in milliseconds since epoch.
func (d *Date) UnixMilli() int64 { return d.t.UnixMilli() }

// SetTime updates the instant. The mutation is recorded as a SET of the
// implicit time property so it round-trips through replay.
func (d *Date) SetTime(t time.Time) error {
	d.t = t.UTC()
	d.valid = true
	p := childPath(d.pathOf(d), "time")
	return d.emit(Mutation{Op: OpSet, Path: p, Value: float64(t.UnixMilli())})
}

// SetUnixMilli updates the instant from milliseconds since epoch.
func (d *Date) SetUnixMilli(ms int64) error {
	return d.SetTime(time.UnixMilli(ms).UTC())
}

// GetProp returns a user-attached property.
func (d *Date) GetProp(key string) (any, bool) {
	v, ok := d.props[key]
	return v, ok
}

// PropKeys returns the user-attached property names in insertion order.
func (d *Date) PropKeys() []string {
	return append([]string(nil), d.propKeys...)
}

// SetProp writes a user-attached property.
func (d *Date) SetProp(key string, v any) error {
	p := childPath(d.pathOf(d), key)
	v = d.adopt(v, p)
	if _, ok := d.props[key]; !ok {
		d.propKeys = append(d.propKeys, key)
	}
	d.props[key] = v
	return d.emit(Mutation{Op: OpSet, Path: p, Value: v})
}

// DeleteProp removes a user-attached property.
func (d *Date) DeleteProp(key string) error {
	if _, ok := d.props[key]; !ok {
		return nil
	}
	delete(d.props, key)
	for i, k := range d.propKeys {
		if k == key {
			d.propKeys = append(d.propKeys[:i], d.propKeys[i+1:]...)
			break
		}
	}
	return d.emit(Mutation{Op: OpDelete, Path: childPath(d.pathOf(d), key)})
}
