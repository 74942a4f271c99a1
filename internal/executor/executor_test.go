package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"

	"github.com/quantmind-br/shaderbuild-go/internal/cache"
	"github.com/quantmind-br/shaderbuild-go/internal/domain"
	"github.com/quantmind-br/shaderbuild-go/internal/plan"
	"github.com/quantmind-br/shaderbuild-go/internal/shader"
)

type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }
func (e exitError) ExitCode() int { return e.code }

// memCache is a map-backed domain.Cache
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return v, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Has(_ context.Context, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

func command(source string, stage shader.Stage, output string) plan.Command {
	args := []string{"glslangValidator", "-l", "-V", "shaders/" + source, "-o", output, "-g"}
	return plan.Command{
		Line:   fmt.Sprintf("glslangValidator -l -V shaders/%s -o %s -g", source, output),
		Args:   args,
		Source: source,
		Input:  "shaders/" + source,
		Output: output,
		Stage:  stage,
	}
}

func TestExecute_AllSucceed(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctrl := gomock.NewController(t)
	runner := NewMockRunner(ctrl)

	cmds := []plan.Command{
		command("basic.vert", shader.Vertex, "out/basicVS.spv"),
		command("basic.frag", shader.Fragment, "out/basicPS.spv"),
	}
	for _, c := range cmds {
		runner.EXPECT().Run(gomock.Any(), "glslangValidator", c.Args[1:]).Return(nil, nil)
	}

	report := New(runner, Options{Workers: 2}).Execute(context.Background(), cmds)

	require.NoError(t, report.Err())
	assert.Equal(t, 2, report.Total())
	assert.Equal(t, 2, report.Compiled())
	assert.Equal(t, 0, report.Failed())
	for i, res := range report.Results {
		assert.Equal(t, cmds[i].Line, res.Command)
		assert.Equal(t, domain.StatusCompiled, res.Status)
		assert.Equal(t, 1, res.Attempts)
	}
	assert.Equal(t, "vertex", report.Results[0].Stage)
	assert.Equal(t, "fragment", report.Results[1].Stage)
}

func TestExecute_FailureDoesNotAbortBatch(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctrl := gomock.NewController(t)
	runner := NewMockRunner(ctrl)

	good1 := command("a.vert", shader.Vertex, "out/aVS.spv")
	bad := command("b.frag", shader.Fragment, "out/bPS.spv")
	good2 := command("c.comp", shader.Compute, "out/cCS.spv")

	runner.EXPECT().Run(gomock.Any(), gomock.Any(), good1.Args[1:]).Return(nil, nil)
	runner.EXPECT().Run(gomock.Any(), gomock.Any(), bad.Args[1:]).
		Return([]byte("ERROR: b.frag:12: 'foo' : undeclared identifier\n"), exitError{code: 2})
	runner.EXPECT().Run(gomock.Any(), gomock.Any(), good2.Args[1:]).Return(nil, nil)

	report := New(runner, Options{Workers: 1}).Execute(context.Background(), []plan.Command{good1, bad, good2})

	assert.Equal(t, 2, report.Compiled())
	assert.Equal(t, 1, report.Failed())

	failed := report.Results[1]
	assert.Equal(t, domain.StatusFailed, failed.Status)
	assert.Equal(t, 2, failed.ExitCode)
	assert.Contains(t, failed.Message, "undeclared identifier")

	err := report.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCompilationFailed)
	assert.Contains(t, err.Error(), "1 of 3 commands failed")

	var ce *domain.CompilationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, bad.Line, ce.Command)
	assert.Equal(t, "out/bPS.spv", ce.Output)
	assert.Equal(t, 2, ce.ExitCode)
	assert.Contains(t, ce.Stderr, "undeclared identifier")
}

func TestExecute_SplitsLinesWithoutArgs(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := NewMockRunner(ctrl)

	cmd := plan.Command{Line: `"/opt/Vulkan SDK/bin/glslangValidator" -l -V shaders/a.vert -o out/aVS.spv -g`}
	runner.EXPECT().
		Run(gomock.Any(), "/opt/Vulkan SDK/bin/glslangValidator",
			[]string{"-l", "-V", "shaders/a.vert", "-o", "out/aVS.spv", "-g"}).
		Return(nil, nil)

	report := New(runner, Options{}).Execute(context.Background(), []plan.Command{cmd})

	require.NoError(t, report.Err())
	assert.Empty(t, report.Results[0].Stage)
}

func TestExecute_PrefersArgsOverLine(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := NewMockRunner(ctrl)

	cmd := plan.Command{
		Line: `C:\VulkanSDK\Bin\glslangValidator.exe -l -V shaders\a.vert -o out\aVS.spv -g`,
		Args: []string{`C:\VulkanSDK\Bin\glslangValidator.exe`, "-l", "-V", `shaders\a.vert`, "-o", `out\aVS.spv`, "-g"},
	}
	runner.EXPECT().
		Run(gomock.Any(), `C:\VulkanSDK\Bin\glslangValidator.exe`,
			[]string{"-l", "-V", `shaders\a.vert`, "-o", `out\aVS.spv`, "-g"}).
		Return(nil, nil)

	report := New(runner, Options{}).Execute(context.Background(), []plan.Command{cmd})
	require.NoError(t, report.Err())
}

func TestExecute_QuotedBackslashesInLine(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := NewMockRunner(ctrl)

	cmd := plan.Command{Line: `'C:\VulkanSDK\Bin\glslangValidator.exe' -l -V 'shaders\a.vert' -o 'out\aVS.spv' -g`}
	runner.EXPECT().
		Run(gomock.Any(), `C:\VulkanSDK\Bin\glslangValidator.exe`,
			[]string{"-l", "-V", `shaders\a.vert`, "-o", `out\aVS.spv`, "-g"}).
		Return(nil, nil)

	report := New(runner, Options{}).Execute(context.Background(), []plan.Command{cmd})
	require.NoError(t, report.Err())
}

func TestExecute_EmptyLineFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := NewMockRunner(ctrl)

	report := New(runner, Options{}).Execute(context.Background(), []plan.Command{{Line: "   "}})

	require.Equal(t, 1, report.Failed())
	assert.ErrorIs(t, report.Results[0].Err, domain.ErrEmptyCommand)
	assert.ErrorIs(t, report.Results[0].Err, domain.ErrCompilationFailed)
}

func TestExecute_UnbalancedQuoteFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := NewMockRunner(ctrl)

	report := New(runner, Options{}).Execute(context.Background(), []plan.Command{{Line: `glslc "a.vert`}})

	require.Equal(t, 1, report.Failed())
	assert.Contains(t, report.Results[0].Message, "parse command line")
}

func blockUntilDone(ctx context.Context, _ string, _ []string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestExecute_Timeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctrl := gomock.NewController(t)
	runner := NewMockRunner(ctrl)
	runner.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(blockUntilDone).Times(1)

	report := New(runner, Options{Timeout: 20 * time.Millisecond}).
		Execute(context.Background(), []plan.Command{command("slow.frag", shader.Fragment, "out/slowPS.spv")})

	require.Equal(t, 1, report.Failed())
	res := report.Results[0]
	assert.ErrorIs(t, res.Err, domain.ErrTimeout)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, 0, res.ExitCode)
}

func TestExecute_RetriesTimeouts(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := NewMockRunner(ctrl)

	gomock.InOrder(
		runner.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(blockUntilDone),
		runner.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(blockUntilDone),
		runner.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil),
	)

	report := New(runner, Options{
		Timeout:       20 * time.Millisecond,
		Retries:       2,
		RetryInterval: time.Millisecond,
	}).Execute(context.Background(), []plan.Command{command("flaky.vert", shader.Vertex, "out/flakyVS.spv")})

	require.NoError(t, report.Err())
	assert.Equal(t, 3, report.Results[0].Attempts)
}

func TestExecute_DoesNotRetryCompileErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := NewMockRunner(ctrl)
	runner.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, exitError{code: 1}).Times(1)

	report := New(runner, Options{Retries: 3, RetryInterval: time.Millisecond}).
		Execute(context.Background(), []plan.Command{command("bad.frag", shader.Fragment, "out/badPS.spv")})

	require.Equal(t, 1, report.Failed())
	assert.Equal(t, 1, report.Results[0].Attempts)
	assert.Equal(t, 1, report.Results[0].ExitCode)
}

func TestExecute_CompilerNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := NewMockRunner(ctrl)
	runner.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("%w: %w", domain.ErrCompilerNotFound, exec.ErrNotFound))

	report := New(runner, Options{}).
		Execute(context.Background(), []plan.Command{command("a.vert", shader.Vertex, "out/aVS.spv")})

	assert.ErrorIs(t, report.Err(), domain.ErrCompilerNotFound)
}

func TestExecute_IncrementalCache(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "lit.frag")
	out := filepath.Join(dir, "out", "litPS.spv")
	require.NoError(t, os.WriteFile(src, []byte("void main() {}"), 0644))

	cmd := plan.Command{
		Line:   "glslangValidator -l -V " + src + " -o " + out + " -g",
		Args:   []string{"glslangValidator", "-l", "-V", src, "-o", out, "-g"},
		Source: "lit.frag",
		Input:  src,
		Output: out,
		Stage:  shader.Fragment,
	}

	ctrl := gomock.NewController(t)
	runner := NewMockRunner(ctrl)
	writeOutput := func(context.Context, string, []string) ([]byte, error) {
		return nil, os.WriteFile(out, []byte("spirv"), 0644)
	}
	runner.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(writeOutput).Times(3)

	store := newMemCache()
	ex := New(runner, Options{Cache: store, CacheTTL: time.Hour, CreateOutputDir: true})
	ctx := context.Background()

	first := ex.Execute(ctx, []plan.Command{cmd})
	require.NoError(t, first.Err())
	assert.Equal(t, 1, first.Compiled())

	second := ex.Execute(ctx, []plan.Command{cmd})
	assert.Equal(t, 1, second.Skipped())
	assert.Equal(t, 0, second.Compiled())

	require.NoError(t, os.WriteFile(src, []byte("void main() { discard; }"), 0644))
	third := ex.Execute(ctx, []plan.Command{cmd})
	assert.Equal(t, 1, third.Compiled())

	require.NoError(t, os.Remove(out))
	fourth := ex.Execute(ctx, []plan.Command{cmd})
	assert.Equal(t, 1, fourth.Compiled(), "missing output forces a rebuild")
}

func TestReusable(t *testing.T) {
	out := filepath.Join(t.TempDir(), "basicVS.spv")
	require.NoError(t, os.WriteFile(out, []byte("spirv"), 0644))

	tests := []struct {
		name   string
		entry  cache.Entry
		output string
		stale  string
	}{
		{"up to date", cache.Entry{SourceHash: "abc"}, out, ""},
		{"source changed", cache.Entry{SourceHash: "old"}, out, "source changed"},
		{"expired", cache.Entry{SourceHash: "abc", ExpiresAt: time.Now().Add(-time.Minute)}, out, "expired"},
		{"output missing", cache.Entry{SourceHash: "abc"}, out + ".gone", "missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reusable(&tt.entry, "abc", tt.output)
			if tt.stale == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, domain.ErrCacheStale)
			assert.ErrorContains(t, err, tt.stale)
		})
	}
}

func TestExecute_CreatesOutputDir(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "nested", "bin", "aVS.spv")

	ctrl := gomock.NewController(t)
	runner := NewMockRunner(ctrl)
	runner.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, []string) ([]byte, error) {
			assert.DirExists(t, filepath.Dir(out))
			return nil, nil
		})

	report := New(runner, Options{CreateOutputDir: true}).
		Execute(context.Background(), []plan.Command{command("a.vert", shader.Vertex, out)})

	require.NoError(t, report.Err())
}

func TestExecute_CancelledContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctrl := gomock.NewController(t)
	runner := NewMockRunner(ctrl)
	runner.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(blockUntilDone).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmds := []plan.Command{
		command("a.vert", shader.Vertex, "out/aVS.spv"),
		command("b.vert", shader.Vertex, "out/bVS.spv"),
		command("c.vert", shader.Vertex, "out/cVS.spv"),
	}
	report := New(runner, Options{Workers: 1}).Execute(ctx, cmds)

	assert.Equal(t, 3, report.Failed())
	for _, res := range report.Results {
		assert.Equal(t, domain.StatusFailed, res.Status)
		assert.NotEmpty(t, res.Command)
	}
}

func TestExecute_BoundedConcurrency(t *testing.T) {
	defer goleak.VerifyNone(t)

	var inFlight, peak atomic.Int32
	ctrl := gomock.NewController(t)
	runner := NewMockRunner(ctrl)
	runner.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, []string) ([]byte, error) {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			inFlight.Add(-1)
			return nil, nil
		}).Times(8)

	var cmds []plan.Command
	for i := 0; i < 8; i++ {
		cmds = append(cmds, command(fmt.Sprintf("s%d.vert", i), shader.Vertex, fmt.Sprintf("out/s%dVS.spv", i)))
	}

	report := New(runner, Options{Workers: 3}).Execute(context.Background(), cmds)

	require.NoError(t, report.Err())
	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.GreaterOrEqual(t, peak.Load(), int32(1))
}

func TestExecute_ProgressBar(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := NewMockRunner(ctrl)
	runner.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).Times(3)

	var buf bytes.Buffer
	cmds := []plan.Command{
		command("a.vert", shader.Vertex, "out/aVS.spv"),
		command("b.vert", shader.Vertex, "out/bVS.spv"),
		command("c.vert", shader.Vertex, "out/cVS.spv"),
	}
	report := New(runner, Options{Workers: 1, ShowProgress: true, ProgressWriter: &buf}).
		Execute(context.Background(), cmds)

	require.NoError(t, report.Err())
	assert.Contains(t, buf.String(), "Compiling")
}

func TestExecute_EmptyPlan(t *testing.T) {
	ctrl := gomock.NewController(t)
	report := New(NewMockRunner(ctrl), Options{}).Execute(context.Background(), nil)

	assert.Equal(t, 0, report.Total())
	assert.NoError(t, report.Err())
}

func TestNew_Defaults(t *testing.T) {
	e := New(nil, Options{})

	assert.IsType(t, ExecRunner{}, e.runner)
	assert.Equal(t, DefaultWorkers, e.opts.Workers)
	assert.NotNil(t, e.logger)
}

func TestExecRunner(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	defer goleak.VerifyNone(t)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		out, err := ExecRunner{}.Run(ctx, "sh", []string{"-c", "echo compiled"})
		require.NoError(t, err)
		assert.Equal(t, "compiled\n", string(out))
	})

	t.Run("exit status and combined output", func(t *testing.T) {
		out, err := ExecRunner{}.Run(ctx, "sh", []string{"-c", "echo 'ERROR: bad' >&2; exit 3"})
		require.Error(t, err)
		assert.Equal(t, 3, exitCode(err))
		assert.Contains(t, string(out), "ERROR: bad")
	})

	t.Run("missing compiler", func(t *testing.T) {
		_, err := ExecRunner{}.Run(ctx, "shaderbuild-no-such-compiler", nil)
		assert.ErrorIs(t, err, domain.ErrCompilerNotFound)

		_, err = ExecRunner{}.Run(ctx, "/nonexistent/dir/glslangValidator", nil)
		assert.ErrorIs(t, err, domain.ErrCompilerNotFound)
	})

	t.Run("context deadline kills the process", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err := ExecRunner{}.Run(ctx, "sh", []string{"-c", "exec sleep 5"})
		require.Error(t, err)
		assert.Less(t, time.Since(start), 4*time.Second)
		assert.Equal(t, 0, exitCode(err))
	})
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 0, exitCode(errors.New("plain")))
	assert.Equal(t, 4, exitCode(exitError{code: 4}))
	assert.Equal(t, 4, exitCode(fmt.Errorf("wrapped: %w", exitError{code: 4})))
	assert.Equal(t, 0, exitCode(exitError{code: -1}))
}
