package main

import (
	"math"
	"testing"
)

func TestTorpedoFire(t *testing.T) {
	s := activeShip()
	tp := NewTorpedo()

	if !tp.Fire(s) {
		t.Fatal("torpedo should fire")
	}
	if !tp.Active || !tp.Visible {
		t.Error("fired torpedo should be active and visible")
	}
	if tp.X != 100+TorpedoOffset || tp.Y != 100 {
		t.Errorf("torpedo should spawn ahead of the ship, got (%v, %v)", tp.X, tp.Y)
	}
	if tp.VX != TorpedoSpeed || math.Abs(tp.VY) > 1e-9 {
		t.Errorf("expected velocity (%v, 0), got (%v, %v)", TorpedoSpeed, tp.VX, tp.VY)
	}
	if tp.Fire(s) {
		t.Error("fire delay should block a second shot")
	}
}

func TestTorpedoDeadShipCannotFire(t *testing.T) {
	s := NewShip()
	tp := NewTorpedo()
	if tp.Fire(s) {
		t.Error("inactive ship should not fire")
	}
}

func TestTorpedoExpires(t *testing.T) {
	s := activeShip()
	tp := NewTorpedo()
	tp.Fire(s)

	tp.Update(1)
	if !tp.Active {
		t.Fatal("torpedo should still be flying after 1s")
	}
	if math.Abs(tp.X-(100+TorpedoOffset+TorpedoSpeed)) > 1e-9 {
		t.Errorf("torpedo moved to %v", tp.X)
	}

	tp.Update(FireDelay)
	if tp.Active || tp.Visible {
		t.Error("torpedo should expire when the fire delay runs out")
	}
	if !tp.Fire(s) {
		t.Error("should be able to fire again after the delay")
	}
}

func TestTorpedoCrash(t *testing.T) {
	s := activeShip()
	tp := NewTorpedo()
	tp.Fire(s)
	tp.Crash()
	if tp.Active || tp.Visible {
		t.Error("crashed torpedo should be gone")
	}
	if tp.Fire(s) {
		t.Error("crashing does not reset the fire delay")
	}
	if st := tp.ToState(); st.Active() || st.Visible() {
		t.Errorf("unexpected flags %08b", st.Flags)
	}
}
