package crypto

import "testing"

func TestSelfTestPasses(t *testing.T) {
	r := RunSelfTest()
	if !r.Passed {
		t.Fatalf("self-test failed: %v", r.Errors)
	}
	if !r.SHA3Passed || !r.AEADPassed || !r.MLKEMPassed || !r.MLDSAPassed {
		t.Fatalf("self-test sub-check did not pass: %+v", r)
	}
}

func TestSelfTestPassedCachesResult(t *testing.T) {
	RunSelfTest()
	if !SelfTestPassed() {
		t.Fatalf("SelfTestPassed() = false after RunSelfTest succeeded")
	}
}
