package authz

import "testing"

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name     string
		actual   []Permission
		required []Permission
		mode     CombinationMode
		want     bool
	}{
		{"has any match", []Permission{PermViewTodo}, []Permission{PermViewTodo, PermEditTodo}, HasAny, true},
		{"has any no match", []Permission{PermViewTodo}, []Permission{PermDeleteTodo}, HasAny, false},
		{"has all full", []Permission{PermViewTodo, PermEditTodo}, []Permission{PermViewTodo, PermEditTodo}, HasAll, true},
		{"has all partial", []Permission{PermViewTodo}, []Permission{PermViewTodo, PermEditTodo}, HasAll, false},
		{"does not have any missing one", []Permission{PermViewTodo}, []Permission{PermViewTodo, PermDeleteTodo}, DoesNotHaveAny, true},
		{"does not have any holds all", []Permission{PermViewTodo, PermDeleteTodo}, []Permission{PermViewTodo, PermDeleteTodo}, DoesNotHaveAny, false},
		{"does not have all none held", []Permission{PermViewTodo}, []Permission{PermDeleteTodo, PermAddTodo}, DoesNotHaveAll, true},
		{"does not have all one held", []Permission{PermViewTodo}, []Permission{PermViewTodo, PermDeleteTodo}, DoesNotHaveAll, false},
		{"empty required always allows", nil, nil, HasAll, true},
		{"empty required under unknown mode", []Permission{PermViewTodo}, nil, CombinationMode("bogus"), true},
		{"unknown mode denies", []Permission{PermViewTodo}, []Permission{PermViewTodo}, CombinationMode("bogus"), false},
		{"empty actual has any", nil, []Permission{PermViewTodo}, HasAny, false},
		{"empty actual does not have all", nil, []Permission{PermViewTodo}, DoesNotHaveAll, true},
		{"duplicate actual values", []Permission{PermViewTodo, PermViewTodo}, []Permission{PermViewTodo}, HasAll, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Evaluate(tc.actual, tc.required, tc.mode); got != tc.want {
				t.Fatalf("Evaluate(%v, %v, %s) = %v, want %v", tc.actual, tc.required, tc.mode, got, tc.want)
			}
		})
	}
}

func TestEvaluateRoles(t *testing.T) {
	// The evaluator is generic over roles too; a principal holds exactly one.
	if !Evaluate([]Role{RoleAdmin}, []Role{RoleMaster, RoleAdmin}, HasAny) {
		t.Fatal("expected admin to satisfy HAS_ANY over master/admin")
	}
	if Evaluate([]Role{RoleUser}, []Role{RoleMaster, RoleAdmin}, HasAny) {
		t.Fatal("expected user to fail HAS_ANY over master/admin")
	}
}
