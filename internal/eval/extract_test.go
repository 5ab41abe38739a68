package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPercentage(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "answer label", in: "Answer: 14.1%", want: "14.1%"},
		{name: "result label", in: "The result: 14.14 % rounded", want: "14.14%"},
		{name: "is phrasing", in: "The percentage change is 14.13638599%.", want: "14.13638599%"},
		{name: "change phrasing", in: "a 14.1% change year over year", want: "14.1%"},
		{name: "bare percent", in: "growth of 7.5% overall", want: "7.5%"},
		{name: "percent word", in: "approximately 12 percent", want: "12%"},
		{name: "negative", in: "the change is -3.2%", want: "-3.2%"},
		{name: "label wins over earlier bare match", in: "from 5% to more. Answer: 14.1%", want: "14.1%"},
		{name: "no percentage", in: "net cash increased by $ 25587", want: ""},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractPercentage(tt.in))
		})
	}
}

func TestValidatePercentage(t *testing.T) {
	tests := []struct {
		name      string
		extracted string
		expected  string
		tolerance float64
		want      bool
	}{
		{name: "exact", extracted: "14.1%", expected: "14.1%", tolerance: 0.1, want: true},
		{name: "within tolerance", extracted: "14.14%", expected: "14.1%", tolerance: 0.1, want: true},
		{name: "edge of tolerance", extracted: "14.2%", expected: "14.1%", tolerance: 0.1, want: true},
		{name: "outside tolerance", extracted: "14.3%", expected: "14.1%", tolerance: 0.1, want: false},
		{name: "negative match", extracted: "-3.2%", expected: "-3.25%", tolerance: 0.1, want: true},
		{name: "empty extracted", extracted: "", expected: "14.1%", tolerance: 0.1, want: false},
		{name: "empty expected", extracted: "14.1%", expected: "", tolerance: 0.1, want: false},
		{name: "malformed expected", extracted: "14.1%", expected: "about up", tolerance: 0.1, want: false},
		{name: "expected without percent sign", extracted: "14.1%", expected: "14.1", tolerance: 0.1, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidatePercentage(tt.extracted, tt.expected, tt.tolerance))
		})
	}
}
