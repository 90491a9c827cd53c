// Package value defines the small fixed-arity float types prototype fields can hold.
//
// Their String methods produce the same comma-separated, culture-invariant literal the
// serializers accept, so formatting a value and parsing it back yields the original.
package value

import (
	"strconv"
	"strings"
)

// Vector2 is a 2-component float vector.
type Vector2 struct {
	X, Y float32
}

// Vector3 is a 3-component float vector.
type Vector3 struct {
	X, Y, Z float32
}

// Vector4 is a 4-component float vector.
type Vector4 struct {
	X, Y, Z, W float32
}

// Quaternion is a rotation stored as four floats.
type Quaternion struct {
	X, Y, Z, W float32
}

// IdentityQuaternion is the rotation that does nothing.
var IdentityQuaternion = Quaternion{W: 1}

func (v Vector2) String() string    { return join(v.X, v.Y) }
func (v Vector3) String() string    { return join(v.X, v.Y, v.Z) }
func (v Vector4) String() string    { return join(v.X, v.Y, v.Z, v.W) }
func (q Quaternion) String() string { return join(q.X, q.Y, q.Z, q.W) }

// FormatFloat formats f the way literals are written in prototype documents.
func FormatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

func join(components ...float32) string {
	parts := make([]string, len(components))
	for i, c := range components {
		parts[i] = FormatFloat(c)
	}
	return strings.Join(parts, ",")
}
