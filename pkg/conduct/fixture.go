package conduct

// TestingT is the slice of testing.T the Run fixture needs. *testing.T and
// *testing.B both satisfy it.
type TestingT interface {
	Errorf(format string, args ...interface{})
	FailNow()
}

// Run is the per-test fixture: it hands a fresh Conductor to script and,
// unless the script already started conducting itself (directly or through
// WhenFinished), conducts afterwards. Script errors and conduct failures
// fail the test immediately.
//
//	func TestHandoff(t *testing.T) {
//		conduct.Run(t, func(c *conduct.Conductor) error {
//			c.NamedThread("left", func() error { ... })
//			c.NamedThread("right", func() error { ... })
//			return nil
//		})
//	}
func Run(t TestingT, script func(c *Conductor) error) {
	c := New()
	if err := script(c); err != nil {
		t.Errorf("choreography script failed: %v", err)
		t.FailNow()
		return
	}
	if !c.ConductingHasBegun() {
		if err := c.Conduct(); err != nil {
			t.Errorf("conduct failed: %v", err)
			t.FailNow()
		}
	}
}
