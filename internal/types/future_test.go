package types

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestFuture_Get(t *testing.T) {
	t.Run("successful result", func(t *testing.T) {
		future := NewFuture[string]()

		go func() {
			time.Sleep(50 * time.Millisecond)
			future.Complete("success", nil)
		}()

		value, err := future.Get()
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		if value != "success" {
			t.Errorf("expected value 'success', got %v", value)
		}
	})

	t.Run("error result", func(t *testing.T) {
		future := NewFuture[string]()
		expectedErr := errors.New("task failed")

		go future.Complete("", expectedErr)

		value, err := future.Get()
		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if value != "" {
			t.Errorf("expected empty value, got %v", value)
		}
	})

	t.Run("multiple Get calls return same result", func(t *testing.T) {
		future := NewFuture[int]()
		go future.Complete(123, nil)

		value1, err1 := future.Get()
		value2, err2 := future.Get()

		if value1 != value2 || err1 != err2 {
			t.Errorf("Get calls returned different results")
		}
		if value1 != 123 {
			t.Errorf("expected value 123, got %v", value1)
		}
	})
}

func TestFuture_Complete(t *testing.T) {
	t.Run("only first completion wins", func(t *testing.T) {
		future := NewFuture[int]()

		if !future.Complete(1, nil) {
			t.Fatal("first Complete should win")
		}
		if future.Complete(2, errors.New("late")) {
			t.Error("second Complete should not win")
		}

		value, err := future.Get()
		if value != 1 || err != nil {
			t.Errorf("expected (1, nil), got (%v, %v)", value, err)
		}
	})

	t.Run("concurrent completions", func(t *testing.T) {
		future := NewFuture[int]()
		var wg sync.WaitGroup
		var mu sync.Mutex
		winners := 0

		for i := range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if future.Complete(i, nil) {
					mu.Lock()
					winners++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if winners != 1 {
			t.Errorf("expected exactly one winner, got %d", winners)
		}
	})
}

func TestFuture_GetWithContext(t *testing.T) {
	t.Run("successful result before timeout", func(t *testing.T) {
		future := NewFuture[string]()
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		go func() {
			time.Sleep(50 * time.Millisecond)
			future.Complete("success", nil)
		}()

		value, err := future.GetWithContext(ctx)
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		if value != "success" {
			t.Errorf("expected value 'success', got %v", value)
		}
	})

	t.Run("context timeout before result", func(t *testing.T) {
		future := NewFuture[string]()
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		value, err := future.GetWithContext(ctx)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected context.DeadlineExceeded, got %v", err)
		}
		if value != "" {
			t.Errorf("expected empty value, got %v", value)
		}
		if future.IsReady() {
			t.Error("future should still be pending")
		}
	})
}

func TestFuture_TryGet(t *testing.T) {
	t.Run("result not ready", func(t *testing.T) {
		future := NewFuture[string]()

		value, err, ready := future.TryGet()
		if ready {
			t.Error("expected ready to be false")
		}
		if value != "" || err != nil {
			t.Errorf("expected zero result, got (%v, %v)", value, err)
		}
	})

	t.Run("result ready", func(t *testing.T) {
		future := NewFuture[string]()
		future.Complete("ready", nil)

		value, err, ready := future.TryGet()
		if !ready {
			t.Error("expected ready to be true")
		}
		if value != "ready" || err != nil {
			t.Errorf("expected (ready, nil), got (%v, %v)", value, err)
		}
	})
}

func TestFuture_Done(t *testing.T) {
	future := NewFuture[string]()

	select {
	case <-future.Done():
		t.Fatal("Done channel should not be closed yet")
	case <-time.After(20 * time.Millisecond):
	}

	future.Complete("done", nil)

	select {
	case <-future.Done():
	case <-time.After(200 * time.Millisecond):
		t.Error("Done channel should be closed after completion")
	}

	if !future.IsReady() {
		t.Error("expected IsReady to be true")
	}
}

func TestFuture_ConcurrentAccess(t *testing.T) {
	future := NewFuture[int]()

	go func() {
		time.Sleep(50 * time.Millisecond)
		future.Complete(999, nil)
	}()

	done := make(chan bool, 10)
	for range 10 {
		go func() {
			value, err := future.Get()
			if err != nil || value != 999 {
				t.Errorf("unexpected result: value=%v, err=%v", value, err)
			}
			done <- true
		}()
	}

	for range 10 {
		select {
		case <-done:
		case <-time.After(500 * time.Millisecond):
			t.Fatal("timeout waiting for concurrent Get calls")
		}
	}
}
