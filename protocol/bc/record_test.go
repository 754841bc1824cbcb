package bc_test

import (
	"encoding/json"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/metalledger/metal/protocol/bc"
	"github.com/metalledger/metal/testutil"
)

func TestRecordWithOwner(t *testing.T) {
	r := bc.NewAssetRecord("Gold", 10, testutil.Mint.Party, testutil.TraderA.Party)
	moved := r.WithOwner(testutil.TraderB.Party)

	want := bc.NewAssetRecord("Gold", 10, testutil.Mint.Party, testutil.TraderB.Party)
	if !moved.Equal(want) {
		t.Errorf("got record:\n%s\nwant record:\n%s", spew.Sdump(moved), spew.Sdump(want))
	}
	if !r.Owner.Equal(testutil.TraderA.Party) {
		t.Errorf("WithOwner modified the original record owner to %s", r.Owner)
	}
}

func TestRecordHash(t *testing.T) {
	a := bc.NewAssetRecord("Gold", 10, testutil.Mint.Party, testutil.TraderA.Party)
	b := bc.NewAssetRecord("Gold", 10, testutil.Mint.Party, testutil.TraderA.Party)
	if a.Hash() != b.Hash() {
		t.Errorf("identical records hash differently: %s vs %s", a.Hash(), b.Hash())
	}

	variants := []*bc.AssetRecord{
		bc.NewAssetRecord("Silver", 10, testutil.Mint.Party, testutil.TraderA.Party),
		bc.NewAssetRecord("Gold", 11, testutil.Mint.Party, testutil.TraderA.Party),
		bc.NewAssetRecord("Gold", 10, testutil.TraderB.Party, testutil.TraderA.Party),
		bc.NewAssetRecord("Gold", 10, testutil.Mint.Party, testutil.TraderB.Party),
	}
	for i, v := range variants {
		if v.Hash() == a.Hash() {
			t.Errorf("variant %d shares hash %s with base record", i, a.Hash())
		}
	}
}

func TestRecordJSONRoundTrip(t *testing.T) {
	r := bc.NewAssetRecord("Silver", 1<<40, testutil.Mint.Party, testutil.TraderA.Party)
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}

	got := &bc.AssetRecord{}
	if err := json.Unmarshal(b, got); err != nil {
		t.Fatal(err)
	}
	if !got.Equal(r) {
		t.Errorf("round trip got:\n%s\nwant:\n%s", spew.Sdump(got), spew.Sdump(r))
	}
}

func TestTransitionSigHash(t *testing.T) {
	issued := bc.NewAssetRecord("Gold", 10, testutil.Mint.Party, testutil.TraderA.Party)
	issue := bc.NewTransition(nil, []*bc.AssetRecord{issued}, bc.IntentIssue)
	transfer := bc.NewTransition(nil, []*bc.AssetRecord{issued}, bc.IntentTransfer)

	if issue.SigHash() == transfer.SigHash() {
		t.Error("intent is not committed to by the signature hash")
	}
	if issue.SigHash() != bc.NewTransition([]*bc.AssetRecord{}, []*bc.AssetRecord{issued}, bc.IntentIssue).SigHash() {
		t.Error("nil and empty consumed sets hash differently")
	}

	moved := bc.NewTransition([]*bc.AssetRecord{issued}, []*bc.AssetRecord{issued.WithOwner(testutil.TraderB.Party)}, bc.IntentTransfer)
	swapped := bc.NewTransition([]*bc.AssetRecord{issued.WithOwner(testutil.TraderB.Party)}, []*bc.AssetRecord{issued}, bc.IntentTransfer)
	if moved.SigHash() == swapped.SigHash() {
		t.Error("consumed and produced sets are not distinguished")
	}

	withNil := bc.NewTransition([]*bc.AssetRecord{nil}, []*bc.AssetRecord{issued}, bc.IntentTransfer)
	if withNil.SigHash() == transfer.SigHash() {
		t.Error("nil record hashed like an absent record")
	}
}

func TestEntryIDs(t *testing.T) {
	tx := bc.NewTransition(nil, []*bc.AssetRecord{
		bc.NewAssetRecord("Gold", 10, testutil.Mint.Party, testutil.TraderA.Party),
	}, bc.IntentIssue)
	sigHash := tx.SigHash()

	id1 := bc.NewTransitionID(sigHash, []byte("nonce-1"))
	id2 := bc.NewTransitionID(sigHash, []byte("nonce-2"))
	if id1 == id2 {
		t.Fatal("transition ids must depend on the nonce")
	}
	if id1 != bc.NewTransitionID(sigHash, []byte("nonce-1")) {
		t.Fatal("transition id is not deterministic")
	}

	seen := map[bc.Hash]bool{}
	for _, txID := range []bc.Hash{id1, id2} {
		for pos := uint64(0); pos < 3; pos++ {
			id := bc.EntryID(txID, pos)
			if seen[id] {
				t.Fatalf("duplicate entry id %s", id)
			}
			seen[id] = true
		}
	}
}
