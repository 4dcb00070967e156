package motionlist

import (
	"encoding/json"
	"testing"
)

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{Jump, Line, Arc} {
		got, err := ParseKind(k.String())
		if err != nil {
			t.Fatalf("ParseKind(%q) error: %v", k, err)
		}
		if got != k {
			t.Errorf("ParseKind(%q) = %v", k, got)
		}
	}
	if _, err := ParseKind("spiral"); err == nil {
		t.Error("ParseKind(spiral) expected error")
	}
}

func TestInstructionJSON(t *testing.T) {
	b, err := json.Marshal(ArcTo(3, -4, 45))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if want := `{"kind":"arc","x":3,"y":-4,"angle_deg":45}`; string(b) != want {
		t.Errorf("Marshal = %s, want %s", b, want)
	}

	var in Instruction
	if err := json.Unmarshal([]byte(`{"kind":"line","x":7,"y":8}`), &in); err != nil {
		t.Fatalf("Unmarshal line: %v", err)
	}
	if in != LineTo(7, 8) {
		t.Errorf("got %+v, want %+v", in, LineTo(7, 8))
	}
	if err := json.Unmarshal([]byte(`{"kind":"spiral"}`), &in); err == nil {
		t.Error("unknown kind should fail to unmarshal")
	}
}
