package toolchain

import (
	"context"
)

// MockRunner is a mock implementation of Runner for testing
type MockRunner struct {
	Calls []Command
	Fail  map[string]error // command name -> error to return
}

func (m *MockRunner) Run(ctx context.Context, cmd Command) error {
	m.Calls = append(m.Calls, cmd)
	if m.Fail != nil {
		if err, ok := m.Fail[cmd.Name]; ok {
			return err
		}
	}
	return nil
}
