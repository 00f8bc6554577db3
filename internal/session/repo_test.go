package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"quizrec/internal/score"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock drives the repository clock in tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClockedRepository(length int, ttl time.Duration) (*Repository, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	repo := NewRepository(length, ttl)
	repo.now = clock.Now
	return repo, clock
}

func TestNewRepository(t *testing.T) {
	repo := NewRepository(5, 10*time.Minute, WithCleanInterval(time.Second))

	assert.Equal(t, 5, repo.length)
	assert.Equal(t, 10*time.Minute, repo.ttl)
	assert.Equal(t, time.Second, repo.cleanInterval)
	assert.Equal(t, 0, repo.Len())

	repo = NewRepository(5, time.Minute, WithCleanInterval(0))
	assert.Equal(t, DefaultCleanInterval, repo.cleanInterval)
}

func TestRepository_Append(t *testing.T) {
	repo := NewRepository(2, time.Hour)

	first := score.Responses{"budget": score.String("mid")}
	second := score.Responses{"experience": score.String("beginner")}
	third := score.Responses{"budget": score.String("premium")}

	repo.Append("visitor", first)
	repo.Append("visitor", second)

	submissions, ok := repo.Get("visitor")
	require.True(t, ok)
	assert.Equal(t, []score.Responses{first, second}, submissions)

	// the third submission evicts the first
	repo.Append("visitor", third)

	submissions, _ = repo.Get("visitor")
	assert.Equal(t, []score.Responses{second, third}, submissions)
}

func TestRepository_AppendStoresCopy(t *testing.T) {
	repo := NewRepository(2, time.Hour)
	responses := score.Responses{"budget": score.String("mid")}

	repo.Append("visitor", responses)
	responses["budget"] = score.String("changed")

	submissions, _ := repo.Get("visitor")
	assert.Equal(t, score.String("mid"), submissions[0]["budget"])
}

func TestRepository_Get_Unknown(t *testing.T) {
	repo := NewRepository(3, time.Hour)

	_, ok := repo.Get("nobody")
	assert.False(t, ok)
}

func TestRepository_Merge(t *testing.T) {
	repo := NewRepository(5, time.Hour)

	repo.Append("visitor", score.Responses{"budget": score.String("mid"), "experience": score.String("beginner")})
	repo.Append("visitor", score.Responses{"budget": score.String("premium")})
	repo.Append("visitor", score.Responses{"features": score.Strings("spin")})

	merged, err := repo.Merge("visitor")
	require.NoError(t, err)

	assert.Equal(t, score.Responses{
		"budget":     score.String("premium"),
		"experience": score.String("beginner"),
		"features":   score.Strings("spin"),
	}, merged)
}

func TestRepository_Merge_NotFound(t *testing.T) {
	repo := NewRepository(5, time.Hour)

	_, err := repo.Merge("ghost")

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "ghost", notFound.ID)
	assert.EqualError(t, err, `session "ghost" not found`)
}

func TestRepository_MultipleSessions(t *testing.T) {
	repo := NewRepository(2, time.Hour)

	repo.Append("a", score.Responses{"n": score.Number(1)})
	repo.Append("a", score.Responses{"n": score.Number(2)})
	repo.Append("a", score.Responses{"n": score.Number(3)})
	repo.Append("b", score.Responses{"n": score.Number(10)})

	a, _ := repo.Get("a")
	b, _ := repo.Get("b")

	assert.Equal(t, []score.Responses{{"n": score.Number(2)}, {"n": score.Number(3)}}, a)
	assert.Equal(t, []score.Responses{{"n": score.Number(10)}}, b)
	assert.Equal(t, 2, repo.Len())
}

func TestRepository_RemoveOutdated(t *testing.T) {
	repo, clock := newClockedRepository(3, 10*time.Minute)

	repo.Append("stale", score.Responses{"n": score.Number(1)})
	repo.Append("active", score.Responses{"n": score.Number(1)})

	clock.Advance(8 * time.Minute)
	repo.Append("active", score.Responses{"n": score.Number(2)})

	clock.Advance(5 * time.Minute)
	assert.Equal(t, 1, repo.removeOutdated())

	_, ok := repo.Get("stale")
	assert.False(t, ok, "stale session should be removed")
	_, ok = repo.Get("active")
	assert.True(t, ok, "appending refreshes the session")

	clock.Advance(time.Minute)
	assert.Equal(t, 0, repo.removeOutdated())
}

func TestRepository_ServeAndStop(t *testing.T) {
	repo := NewRepository(3, time.Millisecond, WithCleanInterval(5*time.Millisecond))
	repo.Append("visitor", score.Responses{"n": score.Number(1)})

	done := make(chan struct{})
	go func() {
		repo.Serve()
		close(done)
	}()

	assert.Eventually(t, func() bool { return repo.Len() == 0 }, time.Second, 5*time.Millisecond)

	repo.Stop()
	repo.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after Stop")
	}
}

func TestRepository_ConcurrentAppend(t *testing.T) {
	repo := NewRepository(100, time.Hour)
	iterations := 1000

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for j := range iterations {
				repo.Append(id, score.Responses{"step": score.Number(float64(j))})
			}
		}(fmt.Sprintf("visitor-%d", i))
	}
	wg.Wait()

	for i := range 10 {
		id := fmt.Sprintf("visitor-%d", i)
		submissions, ok := repo.Get(id)
		require.True(t, ok, id)
		assert.Len(t, submissions, 100, id)
		assert.Equal(t, score.Number(float64(iterations-1)), submissions[len(submissions)-1]["step"], id)
	}
}
