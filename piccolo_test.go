package piccolo

import (
	"testing"

	"github.com/cheezgi/piccolo/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEndToEndScenarios exercises spec.md §8's eight named scenarios in
// one table, grounded on original_source/tests/piccolo.rs's list_progs
// pattern (pass/program pairs run through the full pipeline).
func TestEndToEndScenarios(t *testing.T) {
	cases := []struct {
		name      string
		src       string
		wantValue value.Constant
		wantErr   bool
	}{
		{"add", "1 + 2", value.ConstInteger(3), false},
		{"declare-reassign", "a := 10\na = a + 5\na", value.ConstInteger(15), false},
		{"string-concat", "s := \"foo\"\ns + \"bar\"", value.ConstString("foobar"), false},
		{"use-after-scope", "if true do x := 1 end\nx", value.Constant{}, true},
		{"nested-shadow", "do a := 1\n  do a := 2\n    a\n  end\nend", value.ConstInteger(2), false},
		{"assert-pass", "assert 1 == 1", value.ConstNil(), false},
		{"assert-fail", "assert 1 == 2", value.Constant{}, true},
		{"type-error", "1 + true", value.Constant{}, true},
		{"malformed-or", "x := \"yes\"\nx or or or or", value.Constant{}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, errs := Interpret(tc.src)
			if tc.wantErr {
				require.NotEmpty(t, errs)
				return
			}
			require.Empty(t, errs, "unexpected errors: %v", errs)
			assert.Equal(t, tc.wantValue, got)
		})
	}
}

func TestDoFileMissing(t *testing.T) {
	_, _, err := DoFile("/nonexistent/path/to/file.pc")
	require.Error(t, err)
}
