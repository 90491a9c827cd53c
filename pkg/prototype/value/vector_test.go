package value

import "testing"

func TestString(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"Vector2", Vector2{X: 1.5, Y: -2}.String(), "1.5,-2"},
		{"Vector3", Vector3{X: 0.1, Y: 2.5, Z: 3}.String(), "0.1,2.5,3"},
		{"Vector4", Vector4{X: 1, Y: 2, Z: 3, W: 4}.String(), "1,2,3,4"},
		{"Quaternion", IdentityQuaternion.String(), "0,0,0,1"},
		{"large", Vector2{X: 1e10, Y: 1e-7}.String(), "1e+10,1e-07"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s.String() = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}
