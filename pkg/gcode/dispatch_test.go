package gcode

import "testing"

func TestParseLine(t *testing.T) {
	name, args, err := ParseLine("auto_offset_z OFFSETADJUST=0.05 ; trailing comment")
	if err != nil {
		t.Fatalf("ParseLine failed: %v", err)
	}
	if name != "AUTO_OFFSET_Z" {
		t.Errorf("name = %s, want AUTO_OFFSET_Z", name)
	}
	if args["OFFSETADJUST"] != "0.05" {
		t.Errorf("args = %v, want OFFSETADJUST=0.05", args)
	}
}

func TestParseLineErrors(t *testing.T) {
	for _, line := range []string{"", "   ", "# just a comment", "CMD =5", "CMD FOO"} {
		if _, _, err := ParseLine(line); err == nil {
			t.Errorf("ParseLine(%q) should fail", line)
		}
	}
}

func TestDispatch(t *testing.T) {
	d := NewDispatcher()

	var got map[string]string
	err := d.Register("AUTO_OFFSET_Z", "help text", func(args map[string]string) error {
		got = args
		return nil
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := d.Run("AUTO_OFFSET_Z OFFSETADJUST=0.1"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got["OFFSETADJUST"] != "0.1" {
		t.Errorf("handler args = %v, want OFFSETADJUST=0.1", got)
	}

	if err := d.Run("NOT_A_COMMAND"); err == nil {
		t.Error("unknown command should fail")
	}
	if err := d.Register("AUTO_OFFSET_Z", "", func(map[string]string) error { return nil }); err == nil {
		t.Error("duplicate registration should fail")
	}
}

func TestFloatArg(t *testing.T) {
	args := map[string]string{"OFFSETADJUST": "0.25", "BAD": "zz"}

	if v, err := FloatArg(args, "OFFSETADJUST", 0); err != nil || v != 0.25 {
		t.Errorf("FloatArg = %v, %v, want 0.25", v, err)
	}
	if v, err := FloatArg(args, "MISSING", 1.5); err != nil || v != 1.5 {
		t.Errorf("FloatArg default = %v, %v, want 1.5", v, err)
	}
	if _, err := FloatArg(args, "BAD", 0); err == nil {
		t.Error("bad float should fail")
	}
}
