package ledger

import "testing"

func TestDiscriminatorIsStableAndDistinct(t *testing.T) {
	a := Discriminator(InstrPlaceStake)
	b := Discriminator(InstrPlaceStake)
	if a != b {
		t.Fatal("Discriminator should be deterministic for the same name")
	}
	c := Discriminator(InstrSettleGame)
	if a == c {
		t.Fatal("different instruction names must not collide")
	}
}

func TestEncodePlaceStakeLayout(t *testing.T) {
	payload := EncodePlaceStake(1_500_000, 1)
	if len(payload) != 8+8+1 {
		t.Fatalf("payload length = %d, want %d", len(payload), 17)
	}
	d := Discriminator(InstrPlaceStake)
	for i := range d {
		if payload[i] != d[i] {
			t.Fatalf("payload discriminator mismatch at byte %d", i)
		}
	}
	if payload[len(payload)-1] != 1 {
		t.Fatalf("side byte = %d, want 1", payload[len(payload)-1])
	}
}

func TestEncodeSettleGame(t *testing.T) {
	payload := EncodeSettleGame(0)
	if len(payload) != 9 {
		t.Fatalf("payload length = %d, want 9", len(payload))
	}
	if payload[8] != 0 {
		t.Fatalf("winner byte = %d, want 0", payload[8])
	}
}
