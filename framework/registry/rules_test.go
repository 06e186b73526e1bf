package registry

import (
	"testing"
)

func TestValidate_Rules(t *testing.T) {
	tests := []struct {
		name   string
		data   map[string]string
		rules  Rules
		passes bool
	}{
		{"required present", map[string]string{"name": "db"}, Rules{"name": "required"}, true},
		{"required blank", map[string]string{"name": "  "}, Rules{"name": "required"}, false},
		{"required_without other present", map[string]string{"alias": "x"}, Rules{"type": "required_without:alias"}, true},
		{"required_without both absent", map[string]string{}, Rules{"type": "required_without:alias"}, false},
		{"max ok", map[string]string{"name": "abc"}, Rules{"name": "max:3"}, true},
		{"max exceeded", map[string]string{"name": "abcd"}, Rules{"name": "max:3"}, false},
		{"in case-insensitive", map[string]string{"scope": "Prototype"}, Rules{"scope": "in:singleton,prototype"}, true},
		{"in miss", map[string]string{"scope": "request"}, Rules{"scope": "in:singleton,prototype"}, false},
		{"different", map[string]string{"alias": "a", "name": "a"}, Rules{"alias": "different:name"}, false},
		{"alpha_dash", map[string]string{"v": "a-b_c"}, Rules{"v": "alpha_dash"}, true},
		{"alpha_dash rejects spaces", map[string]string{"v": "a b"}, Rules{"v": "alpha_dash"}, false},
		{"regex", map[string]string{"v": "svc.users"}, Rules{"v": `regex:^[a-z.]+$`}, true},
		{"bad regex fails", map[string]string{"v": "x"}, Rules{"v": "regex:("}, false},
		{"sometimes skips absent", map[string]string{}, Rules{"v": "sometimes|in:a"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Validate(tt.data, tt.rules).Passes(); got != tt.passes {
				t.Errorf("Passes() = %v, want %v", got, tt.passes)
			}
		})
	}
}

func TestValidate_RecordRules(t *testing.T) {
	v := Validate(map[string]string{"name": "db", "alias": "db", "scope": "weird"}, recordRules)
	if !v.Fails() {
		t.Fatal("expected failure")
	}
	errs := v.Errors()
	if errs.First("alias") == "" || errs.First("scope") == "" {
		t.Errorf("unexpected bag: %v", errs.Bag)
	}
	if errs.First("name") != "" {
		t.Errorf("name should pass: %s", errs.First("name"))
	}
	want := "The alias and name must be different. The selected scope is invalid."
	if errs.Error() != want {
		t.Errorf("Error() = %q, want %q", errs.Error(), want)
	}
}

func TestValidate_RecordScopeCharacters(t *testing.T) {
	v := Validate(map[string]string{"name": "db", "type": "DB", "scope": "single ton"}, recordRules)
	want := "The scope may only contain letters, numbers, dashes and underscores."
	if got := v.Errors().First("scope"); got != want {
		t.Errorf("First(scope) = %q, want %q", got, want)
	}
}
