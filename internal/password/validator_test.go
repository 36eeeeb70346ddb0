package password

import "testing"

func TestValidateAccepts(t *testing.T) {
	for _, candidate := range []string{
		"Str0ng!Pass",
		"Br1ghtKitchenFloor",
		"Vacuum&Mop22Daily",
	} {
		result := Validate(candidate)
		if !result.IsValid {
			t.Errorf("expected %q to pass, got warning %q", candidate, result.Feedback.Warning)
		}
	}
}

func TestValidateRejectsShort(t *testing.T) {
	result := Validate("Ab1!")
	if result.IsValid {
		t.Fatal("expected short password to fail")
	}
	if result.Feedback.Warning == "" {
		t.Error("expected a warning")
	}
	if len(result.Feedback.Suggestions) == 0 {
		t.Error("expected suggestions")
	}
}

func TestValidateRejectsMissingClasses(t *testing.T) {
	cases := map[string]string{
		"alllowercase1": "add an uppercase letter",
		"ALLUPPERCASE1": "add a lowercase letter",
		"NoDigitsHere!": "add a digit",
	}
	for candidate, want := range cases {
		result := Validate(candidate)
		if result.IsValid {
			t.Errorf("expected %q to fail", candidate)
			continue
		}
		found := false
		for _, suggestion := range result.Feedback.Suggestions {
			if suggestion == want {
				found = true
			}
		}
		if !found {
			t.Errorf("expected suggestion %q for %q, got %v", want, candidate, result.Feedback.Suggestions)
		}
	}
}

func TestValidateRejectsGuessable(t *testing.T) {
	result := Validate("Password1")
	if result.IsValid {
		t.Fatal("expected a dictionary password to fail the entropy floor")
	}
}
