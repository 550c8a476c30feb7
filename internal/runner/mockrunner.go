package runner

import (
	"context"
	"time"
)

type MockRunner struct {
	Commands     []MockCommand
	Responses    map[string]MockResponse
	ResponseFunc func(name string, args ...string) ([]byte, error)
}

type MockCommand struct {
	Name    string
	Args    []string
	Env     []string
	Timeout time.Duration
}

type MockResponse struct {
	Output []byte
	Error  error
}

func NewMockRunner() *MockRunner {
	return &MockRunner{
		Commands:  []MockCommand{},
		Responses: make(map[string]MockResponse),
	}
}

func (m *MockRunner) Run(
	_ context.Context,
	timeout time.Duration,
	env []string,
	name string,
	args ...string,
) ([]byte, error) {
	m.Commands = append(m.Commands, MockCommand{
		Name:    name,
		Args:    args,
		Env:     env,
		Timeout: timeout,
	})

	key := cmdKey(name, args...)
	if resp, ok := m.Responses[key]; ok {
		return resp.Output, resp.Error
	}
	if m.ResponseFunc != nil {
		return m.ResponseFunc(name, args...)
	}
	return []byte{}, nil
}

func (m *MockRunner) AddResponse(key string, output []byte, err error) {
	m.Responses[key] = MockResponse{
		Output: output,
		Error:  err,
	}
}

func cmdKey(name string, args ...string) string {
	key := name
	for _, arg := range args {
		key += "|" + arg
	}
	return key
}

func (m *MockRunner) VerifyCommand(name string, args ...string) bool {
	for _, cmd := range m.Commands {
		if cmd.Name == name && argsEqual(cmd.Args, args) {
			return true
		}
	}
	return false
}

func (m *MockRunner) VerifyRunCount(name string, count int) bool {
	runCount := 0
	for _, cmd := range m.Commands {
		if cmd.Name == name {
			runCount++
		}
	}
	return runCount == count
}

func argsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
