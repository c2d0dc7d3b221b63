package build

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nielssp/plet/internal/diagnostics"
	"github.com/nielssp/plet/internal/pipeline"
)

func TestEval(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"page.plet":   "{ 1 + 2 * 3 }",
		"script.plet": "x = 'hi'\nupper(x)",
		"number.plet": "1 + 2",
		"layout.plet": "{LAYOUT = 'outer.plet'}inner",
		"outer.plet":  "[{CONTENT}]",
		"broken.plet": "{1 / 0}",
	})
	tests := []struct {
		file string
		mode pipeline.Mode
		want string
	}{
		{"page.plet", pipeline.ModeTemplate, "7"},
		{"script.plet", pipeline.ModeScript, "HI"},
		{"number.plet", pipeline.ModeScript, ""},
		{"layout.plet", pipeline.ModeTemplate, "[inner]"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			var out bytes.Buffer
			got, err := Eval(context.Background(), filepath.Join(dir, tt.file), tt.mode, diagnostics.NewReporter(&out))
			if err != nil {
				t.Fatalf("Eval() error: %v\n%s", err, out.String())
			}
			if got != tt.want {
				t.Errorf("Eval() = %q, want %q", got, tt.want)
			}
		})
	}

	var out bytes.Buffer
	if _, err := Eval(context.Background(), filepath.Join(dir, "broken.plet"), pipeline.ModeTemplate, diagnostics.NewReporter(&out)); err == nil {
		t.Error("expected runtime error")
	}
	if !strings.Contains(out.String(), "division by zero") {
		t.Errorf("error not reported:\n%s", out.String())
	}
}
