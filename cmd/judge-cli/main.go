// Command judge-cli is an operator console for the judge worker: it can
// ping the queue, inspect a submission and requeue one for judging.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"gavel/internal/config"
	"gavel/internal/model"
	"gavel/internal/queue"
	"gavel/internal/store"
	"gavel/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "judge-cli failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// Console output only; keep the structured logger quiet.
	if err := logger.Init(logger.Config{Level: "error", Format: "console"}); err != nil {
		return err
	}

	ctx := context.Background()
	db, err := store.Open(ctx, store.DefaultConfig(cfg.Database.DSN))
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	redisCfg := queue.DefaultRedisConfig()
	redisCfg.Addr = cfg.Redis.Addr
	redisCfg.Password = cfg.Redis.Password
	redisCfg.DB = cfg.Redis.DB
	jobQueue, err := queue.NewRedisQueue(redisCfg, cfg.Queue.Key)
	if err != nil {
		return err
	}
	defer func() {
		_ = jobQueue.Close()
	}()

	console := &console{
		submissions: model.NewSubmissionsModel(db),
		queue:       jobQueue,
	}
	return console.run(ctx)
}

type console struct {
	submissions model.SubmissionsModel
	queue       queue.JobQueue
}

func (c *console) run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "gavel> ",
		HistoryFile:     os.TempDir() + "/gavel_cli_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("ping"),
			readline.PcItem("status"),
			readline.PcItem("submit"),
			readline.PcItem("help"),
			readline.PcItem("exit"),
		),
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "exit", "quit":
			return nil
		case "help":
			c.printHelp()
		case "ping":
			c.ping(ctx)
		case "status":
			if len(fields) < 2 {
				fmt.Println("usage: status <submission-id>")
				continue
			}
			c.status(ctx, fields[1])
		case "submit":
			if len(fields) < 2 {
				fmt.Println("usage: submit <submission-id>")
				continue
			}
			c.submit(ctx, fields[1])
		default:
			fmt.Printf("unknown command %q, try help\n", fields[0])
		}
	}
}

func (c *console) printHelp() {
	fmt.Println("commands:")
	fmt.Println("  ping                    check queue connectivity")
	fmt.Println("  status <submission-id>  show a submission record")
	fmt.Println("  submit <submission-id>  requeue a submission for judging")
	fmt.Println("  exit                    leave the console")
}

func (c *console) ping(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.queue.Ping(pingCtx); err != nil {
		fmt.Printf("queue: unreachable (%v)\n", err)
		return
	}
	fmt.Println("queue: ok")
}

func (c *console) status(ctx context.Context, id string) {
	sub, err := c.submissions.FindOne(ctx, id)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	out, err := json.MarshalIndent(sub, "", "  ")
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Println(string(out))
}

// submit re-enqueues an existing submission. Terminal submissions are
// not requeued; the worker would drop the job on the claim anyway.
func (c *console) submit(ctx context.Context, id string) {
	sub, err := c.submissions.FindOne(ctx, id)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	if sub.Verdict.Terminal() {
		fmt.Printf("submission %s already judged (%s)\n", id, sub.Verdict)
		return
	}

	payload, err := json.Marshal(model.Job{
		SubmissionID: sub.ID,
		ProblemID:    sub.ProblemID,
		Language:     sub.Language,
		Code:         sub.Code,
	})
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	if err := c.queue.Push(ctx, string(payload)); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Printf("submission %s queued\n", id)
}
