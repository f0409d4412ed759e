package runtimecode

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/globalfoundation/gnf/common"
	"github.com/globalfoundation/gnf/logx"
	"github.com/jedisct1/go-minisign"
	"github.com/tetratelabs/wazero"
)

// SignatureSuffix is appended to a code path to find its detached minisign signature.
const SignatureSuffix = ".minisig"

var (
	ErrEmptyCode    = errors.New("runtime code is empty")
	ErrBadSignature = errors.New("runtime code signature does not verify")
	ErrNotWasm      = errors.New("runtime code is not a valid wasm module")
)

// Code is a runtime blob ready to be placed in genesis.
type Code struct {
	Blob     []byte
	Hash     common.Hash
	Exports  []string
	Memories []string
	Signed   bool
}

// HasExport reports whether the module exports a function called name.
func (c *Code) HasExport(name string) bool {
	i := sort.SearchStrings(c.Exports, name)
	return i < len(c.Exports) && c.Exports[i] == name
}

// Verifier checks detached minisign signatures against one trusted key.
type Verifier struct {
	key minisign.PublicKey
}

// NewVerifier parses a base64 minisign public key, as printed on the second line of a
// minisign .pub file.
func NewVerifier(publicKey string) (*Verifier, error) {
	key, err := minisign.NewPublicKey(publicKey)
	if err != nil {
		return nil, fmt.Errorf("parse minisign public key: %w", err)
	}
	return &Verifier{key: key}, nil
}

// Verify checks signature, the full text of a .minisig file, over blob.
func (v *Verifier) Verify(blob []byte, signature string) error {
	sig, err := minisign.DecodeSignature(signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	ok, err := v.key.Verify(blob, sig)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if !ok {
		return ErrBadSignature
	}
	return nil
}

// Inspect compiles blob without instantiating it and lists what it exports.
func Inspect(ctx context.Context, blob []byte) (*Code, error) {
	if len(blob) == 0 {
		return nil, ErrEmptyCode
	}
	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter())
	defer rt.Close(ctx)

	compiled, err := rt.CompileModule(ctx, blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotWasm, err)
	}
	defer compiled.Close(ctx)

	code := &Code{
		Blob: blob,
		Hash: common.Keccak256Hash(blob),
	}
	for name := range compiled.ExportedFunctions() {
		code.Exports = append(code.Exports, name)
	}
	for name := range compiled.ExportedMemories() {
		code.Memories = append(code.Memories, name)
	}
	sort.Strings(code.Exports)
	sort.Strings(code.Memories)
	return code, nil
}

// Load reads the runtime at path and checks it. With a non-nil verifier the detached
// signature at path+SignatureSuffix must verify before the blob is even compiled.
func Load(ctx context.Context, path string, verifier *Verifier) (*Code, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read runtime code: %w", err)
	}
	if len(blob) == 0 {
		return nil, ErrEmptyCode
	}

	signed := false
	if verifier != nil {
		sig, err := os.ReadFile(path + SignatureSuffix)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
		}
		if err := verifier.Verify(blob, string(sig)); err != nil {
			logx.Error("RUNTIME", fmt.Sprintf("Signature check failed for %s: %v", path, err))
			return nil, err
		}
		signed = true
	}

	code, err := Inspect(ctx, blob)
	if err != nil {
		return nil, err
	}
	code.Signed = signed
	logx.Info("RUNTIME", fmt.Sprintf("Loaded runtime code %s: %d bytes, hash %s, %d exports, signed=%v",
		path, len(blob), code.Hash, len(code.Exports), signed))
	return code, nil
}
