package factory

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/firgame/internal/dependencies/mocks"
	"github.com/mcoot/firgame/internal/services/users"
	"github.com/mcoot/firgame/internal/storage/memory"
	"github.com/mcoot/firgame/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	backend := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(backend, mockClock, mockRandom, Config{
		Logger:      testutil.NopLogger(),
		UsersConfig: users.Config{BcryptCost: bcrypt.MinCost},
	})

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
