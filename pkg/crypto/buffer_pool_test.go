package crypto

import "testing"

func TestChunkBufferRoundTrip(t *testing.T) {
	buf := GetChunkBuffer(4096)
	if len(buf) != 4096 {
		t.Fatalf("len(buf) = %d, want 4096", len(buf))
	}
	for i := range buf {
		buf[i] = 0xAB
	}
	PutChunkBuffer(buf[:cap(buf)])

	buf2 := GetChunkBuffer(4096)
	for i, b := range buf2 {
		if b != 0 {
			t.Fatalf("buf2[%d] = %x, want 0 (pool should zero on return)", i, b)
			break
		}
	}
}

func TestChunkBufferOversize(t *testing.T) {
	buf := GetChunkBuffer(chunkBufferSize + 1)
	if len(buf) != chunkBufferSize+1 {
		t.Fatalf("len(buf) = %d, want %d", len(buf), chunkBufferSize+1)
	}
}

func TestNonceBufferZeroed(t *testing.T) {
	n := GetNonce()
	for i := range n {
		n[i] = 0xFF
	}
	PutNonce(n)
	n2 := GetNonce()
	for _, b := range n2 {
		if b != 0 {
			t.Fatalf("nonce buffer not zeroed on reuse")
		}
	}
}
