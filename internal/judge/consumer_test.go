package judge

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"gavel/internal/model"
)

// channelQueue feeds scripted payloads and blocks when drained.
type channelQueue struct {
	payloads chan string
}

func newChannelQueue(payloads ...string) *channelQueue {
	ch := make(chan string, len(payloads))
	for _, p := range payloads {
		ch <- p
	}
	return &channelQueue{payloads: ch}
}

func (q *channelQueue) Pop(ctx context.Context, wait time.Duration) (string, error) {
	select {
	case p := <-q.payloads:
		return p, nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(wait):
		return "", nil
	}
}

func (q *channelQueue) Push(ctx context.Context, payload string) error {
	q.payloads <- payload
	return nil
}

func (q *channelQueue) Ping(ctx context.Context) error { return nil }
func (q *channelQueue) Close() error                   { return nil }

func TestConsumerProcessesJobs(t *testing.T) {
	job, _ := json.Marshal(model.Job{SubmissionID: "s1", ProblemID: "p1", Language: "python", Code: "print(1)"})

	subs := newFakeSubmissions()
	exec := &scriptedExecutor{}
	processor := NewProcessor(subs, &fakeProblems{problem: threeCaseProblem()}, exec, nil)
	consumer := NewConsumer(newChannelQueue(string(job)), processor, 10*time.Millisecond, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = consumer.Run(ctx)
		close(done)
	}()

	deadline := time.After(time.Second)
	for subs.finishedCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("job was not processed")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestConsumerSurvivesMalformedJobs(t *testing.T) {
	good, _ := json.Marshal(model.Job{SubmissionID: "s1", ProblemID: "p1", Language: "python", Code: "print(1)"})

	subs := newFakeSubmissions()
	exec := &scriptedExecutor{}
	processor := NewProcessor(subs, &fakeProblems{problem: threeCaseProblem()}, exec, nil)
	queue := newChannelQueue("{not json", `{"problem_id":"p1"}`, string(good))
	consumer := NewConsumer(queue, processor, 10*time.Millisecond, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = consumer.Run(ctx)
		close(done)
	}()

	deadline := time.After(time.Second)
	for subs.finishedCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("good job after malformed ones was not processed")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestConsumerStopsOnCancel(t *testing.T) {
	subs := newFakeSubmissions()
	processor := NewProcessor(subs, &fakeProblems{problem: threeCaseProblem()}, &scriptedExecutor{}, nil)
	consumer := NewConsumer(newChannelQueue(), processor, 10*time.Millisecond, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = consumer.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop on context cancel")
	}
}
