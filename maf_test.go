package motion_test

import (
	"testing"

	motion "github.com/edgeimpulse/motion-sdk-go"
)

func TestMAF(t *testing.T) {
	m0 := &motion.MAF{}
	_, err := m0.Update(1.5)
	if err == nil {
		t.Errorf("missing error for MAF created without NewMAF")
	}

	m0, err = motion.NewMAF(4)
	if err != nil {
		t.Fatalf("making new MAF: %v", err)
	}

	r, err := m0.Update(4)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if r != 1 {
		t.Fatalf("unexpected result after Update: %v", r)
	}
	r, _ = m0.Update(4)
	if r != 2 {
		t.Fatalf("unexpected result after Update: %v", r)
	}
	r, _ = m0.Update(8)
	if r != 4 {
		t.Fatalf("unexpected result after Update: %v", r)
	}
	r, _ = m0.Update(0)
	if r != 4 {
		t.Fatalf("unexpected result after Update: %v", r)
	}
	// The first 4 drops out of the history.
	r, _ = m0.Update(0)
	if r != 3 {
		t.Fatalf("unexpected result after Update: %v", r)
	}

	_, err = motion.NewMAF(0)
	if err == nil {
		t.Fatalf("missing error for new MAF with size 0")
	}
}
