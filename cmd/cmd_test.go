package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/globalfoundation/gnf/block"
	"github.com/globalfoundation/gnf/common"
	"github.com/globalfoundation/gnf/events"
	"github.com/globalfoundation/gnf/jsonx"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var emptyModule = []byte("\x00asm\x01\x00\x00\x00")

func writeCode(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runtime.wasm")
	require.NoError(t, os.WriteFile(path, emptyModule, 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestBuildSpec(t *testing.T) {
	code := writeCode(t)

	out, err := run(t, "build-spec", "--chain", "local", "--code", code, "--raw=false")
	require.NoError(t, err)
	var spec map[string]interface{}
	require.NoError(t, jsonx.Unmarshal([]byte(out), &spec))
	assert.Equal(t, "GlobalFoundation", spec["id"])

	out, err = run(t, "build-spec", "--chain", "dev", "--code", code, "--raw")
	require.NoError(t, err)
	assert.Contains(t, out, `"raw"`)

	_, err = run(t, "build-spec", "--chain", "staging", "--code", code, "--raw=false")
	assert.Error(t, err)
}

func TestBuildSpecToFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "spec.json")
	_, err := run(t, "build-spec", "--chain", "live", "--code", writeCode(t), "--raw=false", "-o", dest)
	require.NoError(t, err)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "public_live")
	buildSpecConfig.Output = ""
}

func TestInitIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	ini := filepath.Join(dir, "node.ini")
	require.NoError(t, os.WriteFile(ini, []byte("[store]\ntype = bolt\ndirectory = "+dir+"\n"), 0o600))
	code := writeCode(t)

	_, err := run(t, "init", "--chain", "dev", "--config", ini, "--code", code)
	require.NoError(t, err)
	_, err = run(t, "init", "--chain", "dev", "--config", ini, "--code", code)
	require.NoError(t, err)

	_, err = run(t, "init", "--chain", "live", "--config", ini, "--code", code)
	assert.Error(t, err, "a different genesis over the same store")
}

func TestInitRequiresCode(t *testing.T) {
	_, err := run(t, "init", "--chain", "dev", "--config", "", "--code", "")
	assert.Error(t, err)
}

func TestInspectCode(t *testing.T) {
	out, err := run(t, "inspect-code", writeCode(t))
	require.NoError(t, err)

	var report codeReport
	require.NoError(t, jsonx.Unmarshal([]byte(out), &report))
	assert.Equal(t, len(emptyModule), report.Size)
	assert.False(t, report.Signed)
	assert.Empty(t, report.Exports)
}

func TestImportEventsSurviveLargeBlocks(t *testing.T) {
	raws := make([][]byte, 120)
	for i := range raws {
		raws[i] = []byte{byte(i)}
	}
	blocks := []*block.Block{
		block.Assemble(1, common.Hash{}, nil, raws[:3]),
		block.Assemble(2, common.Hash{1}, nil, raws),
	}
	size := importBuffer(blocks)
	assert.Equal(t, len(raws)+1, size)

	bus := events.NewEventBus()
	id, ch := bus.SubscribeBuffered(size, events.EventExtrinsicApplied, events.EventBlockImported)
	for i := range raws {
		bus.Publish(events.NewExtrinsicApplied("tx", 2, common.Hash{2}, i, "BadOrigin"))
	}
	bus.Publish(events.NewBlockImported(2, common.Hash{2}, common.Address{}, false, uint256.NewInt(1), uint256.NewInt(0)))

	assert.Zero(t, bus.Dropped(id))
	assert.Equal(t, 1, drainImportEvents(ch))
	assert.Zero(t, drainImportEvents(ch))
}
