package gesture

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// ProcessConfig configures an out-of-process classifier.
type ProcessConfig struct {
	// Command and Args start the model runner, e.g. python3 classifier_service.py model.tflite.
	Command string
	Args    []string

	// Labels are the model's output labels in output order.
	Labels []string
}

// ProcessClassifier runs a model in a child process. Each request and response is a
// msgpack message preceded by its length as 4 bytes big-endian.
type ProcessClassifier struct {
	config  ProcessConfig
	log     *slog.Logger
	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  *bufio.Reader
	started bool
}

type classifyRequest struct {
	Tensor [][]float32 `msgpack:"tensor"`
}

type classifyResponse struct {
	Probabilities []float32 `msgpack:"probabilities"`
	Error         string    `msgpack:"error,omitempty"`
}

// NewProcessClassifier creates the classifier. The process is started lazily on the
// first Run.
func NewProcessClassifier(config ProcessConfig, log *slog.Logger) (*ProcessClassifier, error) {
	if config.Command == "" {
		return nil, fmt.Errorf("classifier command not configured")
	}
	if len(config.Labels) == 0 {
		return nil, fmt.Errorf("classifier labels not configured")
	}
	if log == nil {
		log = slog.Default()
	}
	return &ProcessClassifier{config: config, log: log}, nil
}

// Labels implements Classifier.
func (c *ProcessClassifier) Labels() []string {
	return c.config.Labels
}

// Run implements Classifier.
func (c *ProcessClassifier) Run(ctx context.Context, tensor [][]float32) ([]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.ensureStarted(); err != nil {
		return nil, err
	}

	payload, err := msgpack.Marshal(classifyRequest{Tensor: tensor})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	data, err := c.roundTrip(ctx, payload)
	if err != nil {
		c.shutdown()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	var resp classifyResponse
	if err := msgpack.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("classifier: %s", resp.Error)
	}
	return resp.Probabilities, nil
}

// Close stops the child process.
func (c *ProcessClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shutdown()
}

// roundTrip writes one request and reads its response. The child is killed if ctx
// ends first, which unblocks the pipe reads.
func (c *ProcessClassifier) roundTrip(ctx context.Context, payload []byte) ([]byte, error) {
	done := make(chan struct{})
	defer close(done)
	proc := c.cmd.Process
	go func() {
		select {
		case <-ctx.Done():
			proc.Kill()
		case <-done:
		}
	}()

	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(payload)))
	if _, err := c.stdin.Write(length); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := c.stdin.Write(payload); err != nil {
		return nil, fmt.Errorf("write payload: %w", err)
	}

	if _, err := io.ReadFull(c.stdout, length); err != nil {
		return nil, fmt.Errorf("read length: %w", err)
	}
	data := make([]byte, binary.BigEndian.Uint32(length))
	if _, err := io.ReadFull(c.stdout, data); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return data, nil
}

func (c *ProcessClassifier) ensureStarted() error {
	if c.started {
		return nil
	}

	c.cmd = exec.Command(c.config.Command, c.config.Args...)

	stdin, err := c.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := c.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	c.cmd.Stderr = os.Stderr

	if err := c.cmd.Start(); err != nil {
		return fmt.Errorf("start classifier: %w", err)
	}

	c.stdin = stdin
	c.stdout = bufio.NewReader(stdout)
	c.started = true
	c.log.Info("classifier process started", "command", c.config.Command, "pid", c.cmd.Process.Pid)
	return nil
}

func (c *ProcessClassifier) shutdown() error {
	if !c.started {
		return nil
	}
	if c.stdin != nil {
		c.stdin.Close()
	}
	err := c.cmd.Wait()
	c.started = false
	c.cmd = nil
	c.stdin = nil
	c.stdout = nil
	return err
}
