package logger

import "testing"

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"dev", "production"} {
		log, err := New(mode)
		if err != nil {
			t.Fatalf("New(%q): %v", mode, err)
		}
		child := log.With("component", "test")
		if child == nil || child.SugaredLogger == nil {
			t.Fatalf("With returned nil logger")
		}
	}
}

func TestNopDiscards(t *testing.T) {
	log := Nop()
	log.Info("ignored", "key", "value")
	log.Warn("ignored")
}
