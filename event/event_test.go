package event

import (
	"math/rand"
	"testing"
	"time"

	"github.com/metalledger/metal/protocol/bc"
	"github.com/metalledger/metal/protocol/state"
	"github.com/metalledger/metal/testutil"
)

func issueCommit(n byte, issuer, owner bc.Party) *state.Commit {
	record := bc.NewAssetRecord("Gold", uint64(n), issuer, owner)
	return &state.Commit{
		ID:         bc.NewHash([32]byte{n}),
		Transition: bc.NewTransition(nil, []*bc.AssetRecord{record}, bc.IntentIssue),
		Outputs:    []bc.Hash{bc.NewHash([32]byte{n, 1})},
	}
}

func transferCommit(n byte, from *bc.AssetRecord, to bc.Party) *state.Commit {
	return &state.Commit{
		ID:         bc.NewHash([32]byte{n}),
		Transition: bc.NewTransition([]*bc.AssetRecord{from}, []*bc.AssetRecord{from.WithOwner(to)}, bc.IntentTransfer),
	}
}

func TestTouches(t *testing.T) {
	mint, a, b := testutil.Mint, testutil.TraderA, testutil.TraderB
	issued := issueCommit(1, mint.Party, a.Party)
	moved := transferCommit(2, issued.Transition.Produced[0], b.Party)

	cases := []struct {
		commit *state.Commit
		key    bc.PublicKeyID
		want   bool
	}{
		{issued, mint.KeyID(), true},
		{issued, a.KeyID(), true},
		{issued, b.KeyID(), false},
		{moved, a.KeyID(), true},
		{moved, b.KeyID(), true},
		{moved, mint.KeyID(), true},
		{&state.Commit{}, mint.KeyID(), false},
	}
	for i, c := range cases {
		if got := Touches(c.commit, c.key); got != c.want {
			t.Errorf("case %d: Touches = %v, want %v", i, got, c.want)
		}
	}
}

func TestFilteredDelivery(t *testing.T) {
	feed := NewFeed()
	defer feed.Stop()

	all, err := feed.Subscribe(nil, 4)
	if err != nil {
		t.Fatal(err)
	}
	forB, _ := feed.Subscribe(ForParty(testutil.TraderB.KeyID()), 4)
	transfers, _ := feed.Subscribe(ForIntent(bc.IntentTransfer), 4)

	issued := issueCommit(1, testutil.Mint.Party, testutil.TraderA.Party)
	moved := transferCommit(2, issued.Transition.Produced[0], testutil.TraderB.Party)
	for _, c := range []*state.Commit{issued, moved} {
		if err := feed.Post(c); err != nil {
			t.Fatal(err)
		}
	}

	expect := func(name string, sub *Subscription, want ...*state.Commit) {
		for _, w := range want {
			select {
			case got := <-sub.Chan():
				if got.ID != w.ID {
					t.Errorf("%s: got commit %s, want %s", name, got.ID, w.ID)
				}
			default:
				t.Errorf("%s: missing commit %s", name, w.ID)
			}
		}
		select {
		case got := <-sub.Chan():
			t.Errorf("%s: unexpected commit %s", name, got.ID)
		default:
		}
	}
	expect("all", all, issued, moved)
	expect("trader b", forB, moved)
	expect("transfers", transfers, moved)
}

func TestFeedClosedAfterStop(t *testing.T) {
	feed := NewFeed()
	sub, _ := feed.Subscribe(nil, 1)
	if err := feed.Post(issueCommit(1, testutil.Mint.Party, testutil.TraderA.Party)); err != nil {
		t.Fatal(err)
	}
	feed.Stop()

	if c, ok := <-sub.Chan(); !ok || c == nil {
		t.Error("buffered commit lost on Stop")
	}
	if _, ok := <-sub.Chan(); ok {
		t.Error("subscription channel was not closed")
	}
	if !sub.Closed() {
		t.Error("Closed() = false after Stop")
	}
	if err := feed.Post(&state.Commit{}); err != ErrFeedClosed {
		t.Errorf("Post after Stop: got %v, want %v", err, ErrFeedClosed)
	}
	if _, err := feed.Subscribe(nil, 0); err != ErrFeedClosed {
		t.Errorf("Subscribe after Stop: got %v, want %v", err, ErrFeedClosed)
	}

	// must not panic
	sub.Unsubscribe()
	feed.Stop()
}

func TestUnsubscribeUnblocksPost(t *testing.T) {
	feed := NewFeed()
	defer feed.Stop()

	sub, _ := feed.Subscribe(nil, 0)
	unblocked := make(chan struct{})
	go func() {
		feed.Post(&state.Commit{})
		close(unblocked)
	}()

	select {
	case <-unblocked:
		t.Fatal("Post returned before the subscriber read or left")
	case <-time.After(20 * time.Millisecond):
	}
	sub.Unsubscribe()
	select {
	case <-unblocked:
	case <-time.After(time.Second):
		t.Fatal("Post still blocked after Unsubscribe")
	}
}

func TestFeedConcurrent(t *testing.T) {
	rand.Seed(time.Now().Unix())
	feed := NewFeed()
	defer feed.Stop()

	commit := issueCommit(1, testutil.Mint.Party, testutil.TraderA.Party)
	recv := make(chan int)
	poster := func() {
		for {
			if err := feed.Post(commit); err != nil {
				return
			}
		}
	}
	subscriber := func(i int) {
		time.Sleep(time.Duration(rand.Intn(50)) * time.Millisecond)
		sub, err := feed.Subscribe(ForParty(testutil.TraderA.KeyID()), 0)
		if err != nil {
			recv <- -1
			return
		}
		<-sub.Chan()
		sub.Unsubscribe()
		recv <- i
	}

	go poster()
	go poster()
	nsubs := 200
	for i := 0; i < nsubs; i++ {
		go subscriber(i)
	}

	counts := make(map[int]int, nsubs)
	for i := 0; i < nsubs; i++ {
		counts[<-recv]++
	}
	for i, count := range counts {
		if count != 1 {
			t.Errorf("receiver %d reported %d times, want 1", i, count)
		}
	}
}

func BenchmarkPostCommit(b *testing.B) {
	feed := NewFeed()
	sub, _ := feed.Subscribe(nil, 16)
	done := make(chan struct{})
	go func() {
		for range sub.Chan() {
		}
		close(done)
	}()

	commit := issueCommit(1, testutil.Mint.Party, testutil.TraderA.Party)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		feed.Post(commit)
	}
	b.StopTimer()
	feed.Stop()
	<-done
}
