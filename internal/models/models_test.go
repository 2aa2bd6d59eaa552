package models

import (
	"testing"
)

func TestEntityKey(t *testing.T) {
	entity := CodeEntity{
		Name:          "UserService",
		QualifiedName: "app.services.UserService",
		Type:          EntityClass,
	}

	got := entity.EntityKey("myproject")
	want := "myproject|app.services.UserService|Class"
	if got != want {
		t.Errorf("EntityKey() = %q, want %q", got, want)
	}

	// same construct, different project, different key
	if entity.EntityKey("other") == got {
		t.Error("EntityKey() should differ across projects")
	}
}

func TestCoordinatorParseResult_SuccessRate(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		successful int
		want       float64
	}{
		{"Empty run", 0, 0, 0},
		{"All successful", 10, 10, 1.0},
		{"Partial failure", 10, 9, 0.9},
		{"All failed", 5, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &CoordinatorParseResult{TotalFiles: tt.total, SuccessfulFiles: tt.successful}
			if got := r.SuccessRate(); got != tt.want {
				t.Errorf("SuccessRate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseResult_Successful(t *testing.T) {
	r := &ParseResult{FilePath: "a.py"}
	if !r.Successful() {
		t.Error("result without errors should be successful")
	}
	r.Errors = append(r.Errors, "boom")
	if r.Successful() {
		t.Error("result with errors should not be successful")
	}
}

func TestSeverityRank(t *testing.T) {
	ordered := []Severity{SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Rank() <= ordered[i-1].Rank() {
			t.Errorf("Rank(%s)=%d should exceed Rank(%s)=%d",
				ordered[i], ordered[i].Rank(), ordered[i-1], ordered[i-1].Rank())
		}
	}
}

func TestCircularDependency_Describe(t *testing.T) {
	tests := []struct {
		name string
		path []string
		want string
	}{
		{"Empty", nil, ""},
		{"Two members", []string{"a.py", "b.py"}, "a.py → b.py → a.py"},
		{"Three members", []string{"a", "b", "c"}, "a → b → c → a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dep := CircularDependency{CyclePath: tt.path}
			if got := dep.Describe(); got != tt.want {
				t.Errorf("Describe() = %q, want %q", got, tt.want)
			}
		})
	}
}
