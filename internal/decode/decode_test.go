package decode

import (
	"errors"
	"testing"
)

func TestValue(t *testing.T) {
	for _, tc := range []struct {
		name    string
		payload string
		want    string
	}{
		{"DataNumber", `{"data": 1.25}`, "1.25"},
		{"DataString", `{"data":"on"}`, "on"},
		{"DataBool", `{"data":true}`, "true"},
		{"DataNull", `{"data":null}`, ""},
		{"DataArray", `{"data":[1,2]}`, "[1,2]"},
		{"ObjectWithoutData", `{"x":1}`, `{"x":1}`},
		{"BareNumber", `42`, "42"},
		{"BareString", `"hello"`, "hello"},
		{"NotJSON", `hello world`, "hello world"},
		{"Multiline", "line1\nline2", "line1 line2"},
		{"MultilineJSONString", `{"data":"a\nb"}`, "a b"},
		{"CommaKept", `{"data":"a,b"}`, "a,b"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Value("std_msgs/Float64", []byte(tc.payload))
			if err != nil {
				t.Fatalf("Value: %v", err)
			}
			if got != tc.want {
				t.Errorf("Value(%q) = %q, want %q", tc.payload, got, tc.want)
			}
		})
	}
}

func TestValue_Empty(t *testing.T) {
	if _, err := Value("", nil); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestValue_TypeIsAdvisory(t *testing.T) {
	a, _ := Value("std_msgs/Int32", []byte(`{"data":7}`))
	b, _ := Value("unknown", []byte(`{"data":7}`))
	if a != b {
		t.Fatalf("type tag changed decoding: %q vs %q", a, b)
	}
}
