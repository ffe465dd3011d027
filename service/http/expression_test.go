package http

import "testing"

func TestExpressionResolve(t *testing.T) {
	tests := []struct {
		expr string
		cmd  string
		args []string
	}{
		{"search eq 42", "search", []string{"eq", "42"}},
		{"regions", "regions", []string{}},
		{`filter regex "libc so"`, "filter", []string{"regex", "libc so"}},
		{"  narrow   decreased  ", "narrow", []string{"decreased"}},
		{`set 0x1000 '42'`, "set", []string{"0x1000", "42"}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			cmd, args, err := newExpression(tt.expr, 1).resolve()
			if err != nil {
				t.Fatalf("resolve(%q): %v", tt.expr, err)
			}
			if cmd != tt.cmd {
				t.Errorf("cmd = %q, want %q", cmd, tt.cmd)
			}
			if len(args) != len(tt.args) {
				t.Fatalf("args = %v, want %v", args, tt.args)
			}
			for i := range args {
				if args[i] != tt.args[i] {
					t.Errorf("args = %v, want %v", args, tt.args)
				}
			}
		})
	}
}

func TestExpressionResolveErrors(t *testing.T) {
	for _, expr := range []string{"", "   ", `search "unterminated`} {
		if _, _, err := newExpression(expr, 1).resolve(); err == nil {
			t.Errorf("resolve(%q) should fail", expr)
		}
	}
}
