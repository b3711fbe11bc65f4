package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"gavel/pkg/logger"
)

const (
	// boxDir is the container working directory; the per-invocation host
	// dir is bound here read-write so compiled artifacts stay executable.
	boxDir = "/box"

	// scratchTmpfs is the writable scratch space; noexec by policy.
	scratchTmpfs = "rw,noexec,nosuid,size=100m"

	// graceWindow extends the wall deadline to cover container teardown.
	graceWindow = 500 * time.Millisecond

	// cpuPeriodUs/cpuQuotaUs pin every sandbox to 50% of one core.
	cpuPeriodUs = 100_000
	cpuQuotaUs  = 50_000

	pidsCap = 50

	teardownTimeout = 10 * time.Second
)

// DockerDriver implements Driver on the local Docker daemon.
type DockerDriver struct {
	client *client.Client
}

// NewDockerDriver connects to the daemon and verifies it is reachable.
func NewDockerDriver(ctx context.Context) (*DockerDriver, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client failed: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := cli.Ping(pingCtx); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("connect to docker daemon failed: %w", err)
	}
	return &DockerDriver{client: cli}, nil
}

// Close releases the docker client.
func (d *DockerDriver) Close() error {
	return d.client.Close()
}

// Run launches one ephemeral container and collects its outcome.
// The container is destroyed on every exit path.
func (d *DockerDriver) Run(ctx context.Context, spec RunSpec) RawResult {
	if spec.Image == "" || len(spec.Cmd) == 0 || spec.WorkDir == "" {
		return infraFailure("invalid run spec", nil)
	}
	if spec.Limits.WallTimeMs <= 0 || spec.Limits.MemoryMB <= 0 {
		return infraFailure("invalid resource limits", nil)
	}

	if err := d.ensureImage(ctx, spec.Image); err != nil {
		return infraFailure("image unavailable", err)
	}

	hasStdin := spec.StdinFile != ""
	memBytes := spec.Limits.MemoryMB << 20
	pids := int64(pidsCap)

	containerConfig := &container.Config{
		Image:           spec.Image,
		Cmd:             spec.Cmd,
		WorkingDir:      boxDir,
		NetworkDisabled: true,
		AttachStdin:     hasStdin,
		OpenStdin:       hasStdin,
		StdinOnce:       hasStdin,
		AttachStdout:    true,
		AttachStderr:    true,
		Tty:             false,
	}
	hostConfig := &container.HostConfig{
		Mounts: []mount.Mount{{
			Type:   mount.TypeBind,
			Source: spec.WorkDir,
			Target: boxDir,
		}},
		Resources: container.Resources{
			Memory:     memBytes,
			MemorySwap: memBytes, // no swap headroom
			CPUPeriod:  cpuPeriodUs,
			CPUQuota:   cpuQuotaUs,
			PidsLimit:  &pids,
		},
		ReadonlyRootfs: true,
		Tmpfs:          map[string]string{"/tmp": scratchTmpfs},
		SecurityOpt:    []string{"no-new-privileges:true"},
		CapDrop:        []string{"ALL"},
	}

	name := "gavel-" + uuid.NewString()[:8]
	created, err := d.client.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, name)
	if err != nil {
		return infraFailure("create container failed", err)
	}
	containerID := created.ID
	defer d.remove(containerID)

	deadline := time.Duration(spec.Limits.WallTimeMs)*time.Millisecond + graceWindow
	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	attach, err := d.client.ContainerAttach(runCtx, containerID, container.AttachOptions{
		Stream: true,
		Stdin:  hasStdin,
		Stdout: true,
		Stderr: true,
	})
	if err != nil {
		return infraFailure("attach container failed", err)
	}
	defer attach.Close()

	stdout := newCappedBuffer(MaxStdoutBytes)
	stderr := newCappedBuffer(MaxStderrBytes)
	copyDone := make(chan error, 1)
	go func() {
		_, copyErr := stdcopy.StdCopy(stdout, stderr, attach.Reader)
		copyDone <- copyErr
	}()

	if hasStdin {
		go d.feedStdin(attach, filepath.Join(spec.WorkDir, spec.StdinFile))
	}

	started := time.Now()
	if err := d.client.ContainerStart(runCtx, containerID, container.StartOptions{}); err != nil {
		return infraFailure("start container failed", err)
	}

	statusCh, errCh := d.client.ContainerWait(runCtx, containerID, container.WaitConditionNotRunning)

	var exitCode int64
	timedOut := false
	select {
	case status := <-statusCh:
		exitCode = status.StatusCode
	case err := <-errCh:
		if runCtx.Err() != nil {
			timedOut = true
			d.kill(containerID)
		} else {
			return infraFailure("wait container failed", err)
		}
	case <-runCtx.Done():
		timedOut = true
		d.kill(containerID)
	}
	wallMs := time.Since(started).Milliseconds()

	// Drain the output copier; after a kill the stream closes shortly.
	select {
	case <-copyDone:
	case <-time.After(2 * time.Second):
	}

	peakKB := d.peakMemoryKB(containerID)

	res := RawResult{
		ExitCode:  exitCode,
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		WallMs:    wallMs,
		PeakRSSKB: peakKB,
		TimedOut:  timedOut,
	}
	if timedOut {
		res.WallMs = spec.Limits.WallTimeMs
	}
	return res
}

// ensureImage pulls the image when it is not available locally.
func (d *DockerDriver) ensureImage(ctx context.Context, imageName string) error {
	if _, _, err := d.client.ImageInspectWithRaw(ctx, imageName); err == nil {
		return nil
	}
	reader, err := d.client.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %s failed: %w", imageName, err)
	}
	defer reader.Close()
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("read pull progress failed: %w", err)
	}
	return nil
}

// feedStdin streams the input file into the hijacked stdin connection.
// Write errors are expected when the program exits without draining stdin.
func (d *DockerDriver) feedStdin(attach types.HijackedResponse, path string) {
	defer func() {
		_ = attach.CloseWrite()
	}()
	file, err := os.Open(path)
	if err != nil {
		logger.Warn(context.Background(), "open stdin file failed", zap.String("path", path), zap.Error(err))
		return
	}
	defer file.Close()
	_, _ = io.Copy(attach.Conn, file)
}

// kill force-stops a container that outlived its deadline.
func (d *DockerDriver) kill(containerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()
	if err := d.client.ContainerKill(ctx, containerID, "SIGKILL"); err != nil {
		logger.Warn(ctx, "kill container failed", zap.String("container", containerID), zap.Error(err))
	}
}

// remove destroys the container; called on every exit path.
func (d *DockerDriver) remove(containerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()
	err := d.client.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true})
	if err != nil {
		logger.Warn(ctx, "remove container failed", zap.String("container", containerID), zap.Error(err))
	}
}

// peakMemoryKB samples the container memory accounting right before
// teardown. Returns 0 when stats are unavailable; never fabricates.
func (d *DockerDriver) peakMemoryKB(containerID string) int64 {
	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()
	stats, err := d.client.ContainerStats(ctx, containerID, false)
	if err != nil {
		return 0
	}
	defer stats.Body.Close()

	var payload struct {
		MemoryStats struct {
			Usage    uint64 `json:"usage"`
			MaxUsage uint64 `json:"max_usage"`
		} `json:"memory_stats"`
	}
	if err := json.NewDecoder(stats.Body).Decode(&payload); err != nil {
		return 0
	}
	peak := payload.MemoryStats.MaxUsage
	if peak == 0 {
		peak = payload.MemoryStats.Usage
	}
	return int64(peak / 1024)
}

func infraFailure(msg string, err error) RawResult {
	stderr := msg
	if err != nil {
		stderr = fmt.Sprintf("%s: %v", msg, err)
	}
	return RawResult{ExitCode: -1, Stderr: stderr}
}

// cappedBuffer keeps at most max bytes and silently drops the rest.
type cappedBuffer struct {
	buf bytes.Buffer
	max int
}

func newCappedBuffer(max int) *cappedBuffer {
	return &cappedBuffer{max: max}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	remaining := b.max - b.buf.Len()
	if remaining > 0 {
		if len(p) > remaining {
			b.buf.Write(p[:remaining])
		} else {
			b.buf.Write(p)
		}
	}
	// Report full writes so the demuxer keeps draining the stream.
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	return b.buf.String()
}
