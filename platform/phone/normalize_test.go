package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		region string
		want   string
	}{
		{name: "national number", input: "020 123 4567", region: "NL", want: "+31201234567"},
		{name: "already international", input: "+31 20 123 4567", region: "IN", want: "+31201234567"},
		{name: "empty", input: "  ", region: "NL", want: ""},
		{name: "garbage", input: "call me", region: "NL", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeE164(tt.input, tt.region); got != tt.want {
				t.Fatalf("NormalizeE164(%q, %q) = %q, want %q", tt.input, tt.region, got, tt.want)
			}
		})
	}
}
