package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/salmonumbrella/wikigap-cli/internal/output"
	"github.com/salmonumbrella/wikigap-cli/internal/secrets"
)

func withTestContext(t *testing.T, format output.Format) (*bytes.Buffer, *bytes.Buffer, func()) {
	t.Helper()
	in := &bytes.Buffer{}
	out := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}

	ctx := withIO(context.Background(), in, out, errBuf)
	ctx = output.WithFormat(ctx, format)
	ctx = output.WithQuiet(ctx, true)
	rootCmd.SetContext(ctx)

	prevType := outputType
	prevFmt := outputFmt
	outputType = format
	outputFmt = string(format)

	return out, errBuf, func() {
		outputType = prevType
		outputFmt = prevFmt
		rootCmd.SetContext(context.Background())
	}
}

// withSecretsStore swaps the keyring for store and clears the API key
// environment.
func withSecretsStore(t *testing.T, store secrets.Store, env map[string]string) {
	t.Helper()
	prevOpen := openSecretsStore
	prevEnv := envGet
	openSecretsStore = func() (secrets.Store, error) { return store, nil }
	envGet = func(key string) string { return env[key] }
	t.Cleanup(func() {
		openSecretsStore = prevOpen
		envGet = prevEnv
	})
}

// memoryStore is an in-memory secrets.Store.
type memoryStore struct {
	tokens map[string]secrets.Token
}

func newMemoryStore() *memoryStore {
	return &memoryStore{tokens: map[string]secrets.Token{}}
}

func (m *memoryStore) GetToken(key string) (secrets.Token, error) {
	tok, ok := m.tokens[key]
	if !ok {
		return secrets.Token{}, secrets.ErrNotFound
	}
	return tok, nil
}

func (m *memoryStore) SetToken(key string, tok secrets.Token) error {
	m.tokens[key] = tok
	return nil
}

func (m *memoryStore) DeleteToken(key string) error {
	if _, ok := m.tokens[key]; !ok {
		return secrets.ErrNotFound
	}
	delete(m.tokens, key)
	return nil
}

func (m *memoryStore) Keys() ([]string, error) {
	keys := make([]string, 0, len(m.tokens))
	for k := range m.tokens {
		keys = append(keys, k)
	}
	return keys, nil
}
