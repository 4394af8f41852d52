package factory

import (
	"time"

	"github.com/mcoot/tablesync/internal/dependencies/mocks"
	"github.com/mcoot/tablesync/internal/metrics"
	"github.com/mcoot/tablesync/internal/services/auth"
	"github.com/mcoot/tablesync/internal/services/session"
	"github.com/mcoot/tablesync/internal/storage"
	"github.com/mcoot/tablesync/internal/storage/memory"
	"github.com/mcoot/tablesync/internal/testutil"
)

// TestHostPassword is the host secret used by NewTestApp
const TestHostPassword = "dragon-hoard"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App backed by in-memory storage with mocked
// dependencies. The hub is not started.
func NewTestApp() *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	return NewTestAppWithStore(memory.New(mockClock), mockClock)
}

// NewTestAppWithStore wires a TestApp around an arbitrary store, such as a
// gomock MockStore
func NewTestAppWithStore(store storage.Store, mockClock *mocks.MockClock) *TestApp {
	gate, err := auth.NewGate(TestHostPassword)
	if err != nil {
		panic(err)
	}
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, gate, mockClock, mockRandom, metrics.New(), session.DefaultConfig(), testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
