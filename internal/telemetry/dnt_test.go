package telemetry

import "testing"

func TestDNT(t *testing.T) {
	if DNT() {
		t.Skip("DO_NOT_TRACK is set in this environment")
	}

	t.Setenv(envVarDNT, "1")
	if !DNT() {
		t.Error("expected DNT to be true when DO_NOT_TRACK is set")
	}
}

func TestGet_DNTReturnsNoop(t *testing.T) {
	lock.Lock()
	orig := instance
	instance = nil
	lock.Unlock()
	t.Cleanup(func() {
		lock.Lock()
		instance = orig
		lock.Unlock()
	})

	cli := Get(WithDNT(), WithUserHome(t.TempDir()))
	if _, ok := cli.(NoopClient); !ok {
		t.Errorf("expected NoopClient, got %T", cli)
	}
}
