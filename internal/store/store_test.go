package store

import (
	"sync"
	"testing"
	"time"

	"github.com/agentauth/core/pkg/models"
)

func TestMemoryStoreSetGet(t *testing.T) {
	s := NewMemoryStore()
	rec := models.ChallengeRecord{ID: "ch_1", AnswerHash: "deadbeef"}
	if err := s.Set("ch_1", rec, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, ok, err := s.Get("ch_1")
	if err != nil || !ok {
		t.Fatalf("Get() = %+v, %v, %v", got, ok, err)
	}
	if got.AnswerHash != "deadbeef" {
		t.Fatalf("Get() answerHash = %s, want deadbeef", got.AnswerHash)
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()
	_, ok, err := s.Get("nope")
	if err != nil || ok {
		t.Fatalf("Get(missing) = ok=%v err=%v, want false/nil", ok, err)
	}
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	s := NewMemoryStore()
	s.Set("ch_1", models.ChallengeRecord{ID: "ch_1"}, time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	_, ok, err := s.Get("ch_1")
	if err != nil || ok {
		t.Fatalf("Get(expired) = ok=%v err=%v, want false/nil", ok, err)
	}
}

func TestMemoryStoreDeleteSingleUse(t *testing.T) {
	s := NewMemoryStore()
	s.Set("ch_1", models.ChallengeRecord{ID: "ch_1"}, time.Minute)

	rec, ok, err := s.Delete("ch_1")
	if err != nil || !ok || rec.ID != "ch_1" {
		t.Fatalf("first Delete() = %+v, %v, %v", rec, ok, err)
	}
	_, ok, err = s.Delete("ch_1")
	if err != nil || ok {
		t.Fatalf("second Delete() = ok=%v err=%v, want false/nil", ok, err)
	}
}

func TestMemoryStoreDeleteConcurrentSingleWinner(t *testing.T) {
	s := NewMemoryStore()
	s.Set("ch_1", models.ChallengeRecord{ID: "ch_1"}, time.Minute)

	const n = 50
	var wg sync.WaitGroup
	wins := make([]bool, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, ok, _ := s.Delete("ch_1")
			wins[i] = ok
		}(i)
	}
	wg.Wait()

	count := 0
	for _, w := range wins {
		if w {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("concurrent Delete() winners = %d, want exactly 1", count)
	}
}
