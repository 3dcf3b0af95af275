package validation

import "testing"

func TestIsValidUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		want     bool
	}{
		{name: "simple", username: "alice", want: true},
		{name: "with digits and dots", username: "user.42", want: true},
		{name: "with dash and underscore", username: "shop-admin_1", want: true},
		{name: "empty", username: "", want: false},
		{name: "too short", username: "ab", want: false},
		{name: "spaces", username: "user name", want: false},
		{name: "cyrillic", username: "пользователь", want: false},
		{name: "too long", username: string(make([]byte, 65)), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidUsername(tt.username); got != tt.want {
				t.Fatalf("IsValidUsername(%q) = %v, want %v", tt.username, got, tt.want)
			}
		})
	}
}

func TestIsValidHexColor(t *testing.T) {
	tests := []struct {
		name  string
		color string
		want  bool
	}{
		{name: "short form", color: "#fff", want: true},
		{name: "long form", color: "#1A2b3C", want: true},
		{name: "no hash", color: "ffffff", want: false},
		{name: "wrong length", color: "#ffff", want: false},
		{name: "non hex digit", color: "#12345g", want: false},
		{name: "empty", color: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidHexColor(tt.color); got != tt.want {
				t.Fatalf("IsValidHexColor(%q) = %v, want %v", tt.color, got, tt.want)
			}
		})
	}
}
